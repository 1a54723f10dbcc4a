package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionReplace(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	conn := NewConnection("c1", ConnectionFields{Name: StringPtr("Jane"), Tags: []string{"#tech", "#tech"}}, created)

	assert.Equal(t, 1, conn.Version)
	assert.Equal(t, created, conn.UpdatedAt)
	assert.Equal(t, []string{"#tech"}, conn.Tags)
	assert.Equal(t, []string{}, conn.Interests)

	t.Run("Should preserve identity and bump version", func(t *testing.T) {
		later := created.Add(time.Hour)
		next := conn.Replace(ConnectionFields{Notes: StringPtr("met again")}, later)

		assert.Equal(t, "c1", next.ID)
		assert.Equal(t, created, next.CreatedAt)
		assert.Equal(t, later, next.UpdatedAt)
		assert.Equal(t, 2, next.Version)
		assert.Nil(t, next.Name)
	})

	t.Run("Should never move updatedAt backwards", func(t *testing.T) {
		next := conn.Replace(ConnectionFields{}, created.Add(-time.Hour))
		assert.Equal(t, created, next.UpdatedAt)
	})
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "your connection", Connection{}.DisplayName())
	assert.Equal(t, "your connection", Connection{ConnectionFields: ConnectionFields{Name: StringPtr("  ")}}.DisplayName())
	assert.Equal(t, "Sam", Connection{ConnectionFields: ConnectionFields{Name: StringPtr("Sam")}}.DisplayName())
}

func TestCloneIsDeep(t *testing.T) {
	conn := NewConnection("c1", ConnectionFields{Name: StringPtr("Jane"), Interests: []string{"Hiking"}}, time.Now())
	clone := conn.Clone()

	*clone.Name = "Other"
	clone.Interests[0] = "Chess"

	assert.Equal(t, "Jane", *conn.Name)
	assert.Equal(t, "Hiking", conn.Interests[0])
}

func TestPriorityText(t *testing.T) {
	nudge := Nudge{ID: "tech-1", Priority: PriorityMedium, Type: NudgeInterest, Action: ActionEmail}

	data, err := json.Marshal(nudge)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"priority":"medium"`)

	var decoded Nudge
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, PriorityMedium, decoded.Priority)

	var p Priority
	assert.Error(t, p.UnmarshalText([]byte("urgent")))
	assert.True(t, PriorityHigh.Rank() > PriorityMedium.Rank())
	assert.True(t, PriorityMedium.Rank() > PriorityLow.Rank())
}

func TestEnumsAreClosed(t *testing.T) {
	assert.True(t, NudgeEvent.Valid())
	assert.False(t, NudgeType("birthday").Valid())
	assert.True(t, ActionCall.Valid())
	assert.False(t, Action("fax").Valid())
}

func TestNudgeValidate(t *testing.T) {
	ok := Nudge{ID: "followup-a", Type: NudgeFollowup, Action: ActionMessage, Priority: PriorityMedium}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name   string
		mutate func(*Nudge)
	}{
		{"missing id", func(n *Nudge) { n.ID = "" }},
		{"unknown type", func(n *Nudge) { n.Type = "birthday" }},
		{"unknown action", func(n *Nudge) { n.Action = "fax" }},
		{"zero priority", func(n *Nudge) { n.Priority = 0 }},
		{"priority above high", func(n *Nudge) { n.Priority = 4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := ok
			tt.mutate(&n)
			assert.Error(t, n.Validate())
		})
	}
}
