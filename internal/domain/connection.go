// Package domain holds the core types shared by the store, the parser and the nudge engine.
package domain

import (
	"strings"
	"time"
)

// ConnectionFields are the user-editable attributes of a connection.
// Updates replace the whole set; there is no field-level merge.
type ConnectionFields struct {
	Name            *string  `json:"name,omitempty"`
	MeetingLocation *string  `json:"meetingLocation,omitempty"`
	MeetingDate     *string  `json:"meetingDate,omitempty"`
	Interests       []string `json:"interests"`
	Tags            []string `json:"tags"`
	Summary         *string  `json:"summary,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
	FunFacts        []string `json:"funFacts"`
	Email           *string  `json:"email,omitempty"`
	Phone           *string  `json:"phone,omitempty"`
	LinkedIn        *string  `json:"linkedin,omitempty"`
	RawInput        *string  `json:"rawInput,omitempty"`
}

// Connection is a stored record of a person the user met.
type Connection struct {
	ID string `json:"id"`
	ConnectionFields
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int       `json:"version"`
}

// DisplayName returns the connection's name or a generic placeholder.
func (c Connection) DisplayName() string {
	if c.Name != nil && strings.TrimSpace(*c.Name) != "" {
		return *c.Name
	}
	return "your connection"
}

// Normalize returns a copy with nil lists replaced by empty ones and tags deduplicated.
func (f ConnectionFields) Normalize() ConnectionFields {
	out := f
	out.Interests = nonNil(f.Interests)
	out.FunFacts = nonNil(f.FunFacts)
	out.Tags = dedupe(f.Tags)
	return out
}

// NewConnection builds a version 1 record. CreatedAt and UpdatedAt are both set to now.
func NewConnection(id string, fields ConnectionFields, now time.Time) Connection {
	return Connection{
		ID:               id,
		ConnectionFields: fields.Normalize(),
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}
}

// Replace returns the next version of c carrying fields. ID and CreatedAt are kept and
// UpdatedAt never moves backwards.
func (c Connection) Replace(fields ConnectionFields, now time.Time) Connection {
	next := c
	next.ConnectionFields = fields.Normalize()
	if now.After(c.UpdatedAt) {
		next.UpdatedAt = now
	}
	next.Version = c.Version + 1
	return next
}

// Clone returns a deep copy so callers cannot mutate shared slices or strings.
func (c Connection) Clone() Connection {
	out := c
	out.Name = cloneString(c.Name)
	out.MeetingLocation = cloneString(c.MeetingLocation)
	out.MeetingDate = cloneString(c.MeetingDate)
	out.Summary = cloneString(c.Summary)
	out.Notes = cloneString(c.Notes)
	out.Email = cloneString(c.Email)
	out.Phone = cloneString(c.Phone)
	out.LinkedIn = cloneString(c.LinkedIn)
	out.RawInput = cloneString(c.RawInput)
	out.Interests = append([]string{}, c.Interests...)
	out.Tags = append([]string{}, c.Tags...)
	out.FunFacts = append([]string{}, c.FunFacts...)
	return out
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
