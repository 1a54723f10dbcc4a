package domain

import (
	"fmt"
	"time"
)

// NudgeType classifies what triggered a nudge.
type NudgeType string

const (
	NudgeFollowup NudgeType = "followup"
	NudgeEvent    NudgeType = "event"
	NudgeInterest NudgeType = "interest"
)

// Valid reports whether t is one of the known nudge types.
func (t NudgeType) Valid() bool {
	switch t {
	case NudgeFollowup, NudgeEvent, NudgeInterest:
		return true
	}
	return false
}

// Action is the suggested channel for acting on a nudge.
type Action string

const (
	ActionMessage Action = "message"
	ActionCall    Action = "call"
	ActionEmail   Action = "email"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionMessage, ActionCall, ActionEmail:
		return true
	}
	return false
}

// Priority orders nudges. The numeric value is the rank used for sorting.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Rank returns the sort weight of p; higher ranks come first.
func (p Priority) Rank() int {
	return int(p)
}

// MarshalText encodes the priority as its lowercase name.
func (p Priority) MarshalText() ([]byte, error) {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return []byte(p.String()), nil
	}
	return nil, fmt.Errorf("invalid priority %d", int(p))
}

// UnmarshalText decodes a lowercase priority name.
func (p *Priority) UnmarshalText(text []byte) error {
	switch string(text) {
	case "low":
		*p = PriorityLow
	case "medium":
		*p = PriorityMedium
	case "high":
		*p = PriorityHigh
	default:
		return fmt.Errorf("invalid priority %q", string(text))
	}
	return nil
}

// Nudge is a recomputed reminder to re-engage a connection. It is never persisted.
type Nudge struct {
	ID             string    `json:"id"`
	ConnectionID   string    `json:"connectionId"`
	ConnectionName string    `json:"connectionName"`
	Type           NudgeType `json:"type"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Priority       Priority  `json:"priority"`
	Action         Action    `json:"action"`
	DueDate        time.Time `json:"dueDate"`
}

// Validate reports the first field that holds a value outside its closed set.
func (n Nudge) Validate() error {
	switch {
	case n.ID == "":
		return fmt.Errorf("nudge has no id")
	case !n.Type.Valid():
		return fmt.Errorf("nudge %s: invalid type %q", n.ID, n.Type)
	case !n.Action.Valid():
		return fmt.Errorf("nudge %s: invalid action %q", n.ID, n.Action)
	case n.Priority.Rank() < PriorityLow.Rank() || n.Priority.Rank() > PriorityHigh.Rank():
		return fmt.Errorf("nudge %s: invalid priority %d", n.ID, int(n.Priority))
	}
	return nil
}

// NudgeID builds the deterministic candidate id for a rule kind and connection.
func NudgeID(kind, connectionID string) string {
	return kind + "-" + connectionID
}
