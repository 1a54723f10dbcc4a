package nudge

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"imet-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(id string, p domain.Priority, due time.Time) domain.Nudge {
	return domain.Nudge{ID: id, Priority: p, DueDate: due}
}

func TestRank(t *testing.T) {
	t0 := june

	t.Run("Should order by priority then due date", func(t *testing.T) {
		got := Rank([]domain.Nudge{
			candidate("low-early", domain.PriorityLow, t0),
			candidate("medium-late", domain.PriorityMedium, t0.Add(2*day)),
			candidate("high", domain.PriorityHigh, t0.Add(5*day)),
			candidate("medium-early", domain.PriorityMedium, t0.Add(day)),
		})
		assert.Equal(t, []string{"high", "medium-early", "medium-late", "low-early"}, ids(got))
	})

	t.Run("Should keep evaluation order for full ties", func(t *testing.T) {
		got := Rank([]domain.Nudge{
			candidate("first", domain.PriorityMedium, t0),
			candidate("second", domain.PriorityMedium, t0),
			candidate("third", domain.PriorityMedium, t0),
		})
		assert.Equal(t, []string{"first", "second", "third"}, ids(got))
	})

	t.Run("Should drop duplicate ids keeping the first", func(t *testing.T) {
		got := Rank([]domain.Nudge{
			{ID: "tech-c1", Priority: domain.PriorityMedium, DueDate: t0, Title: "first"},
			{ID: "tech-c1", Priority: domain.PriorityHigh, DueDate: t0, Title: "second"},
		})
		require.Len(t, got, 1)
		assert.Equal(t, "first", got[0].Title)
	})

	t.Run("Should return an empty list for no candidates", func(t *testing.T) {
		got := Rank(nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestRankIsSortedForAnyPermutation(t *testing.T) {
	base := []domain.Nudge{
		candidate("a", domain.PriorityLow, june.Add(2*day)),
		candidate("b", domain.PriorityMedium, june),
		candidate("c", domain.PriorityMedium, june.Add(day)),
		candidate("d", domain.PriorityHigh, june.Add(3*day)),
		candidate("e", domain.PriorityLow, june),
		candidate("f", domain.PriorityMedium, june),
		candidate("g", domain.PriorityHigh, june.Add(3*day)),
		candidate("h", domain.PriorityLow, june.Add(2*day)),
	}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		input := append([]domain.Nudge(nil), base...)
		rng.Shuffle(len(input), func(i, j int) { input[i], input[j] = input[j], input[i] })
		position := make(map[string]int, len(input))
		for i, n := range input {
			position[n.ID] = i
		}

		got := Rank(input)
		require.Len(t, got, len(base))

		for i := 1; i < len(got); i++ {
			prev, cur := got[i-1], got[i]
			require.GreaterOrEqual(t, prev.Priority.Rank(), cur.Priority.Rank())
			if prev.Priority != cur.Priority {
				continue
			}
			require.False(t, cur.DueDate.Before(prev.DueDate), "due dates out of order at %d", i)
			if cur.DueDate.Equal(prev.DueDate) {
				require.Less(t, position[prev.ID], position[cur.ID], "ties must keep input order")
			}
		}

		gotIDs := ids(got)
		sort.Strings(gotIDs)
		assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, gotIDs)
	}
}

func TestEvaluateConcatenatesInRuleOrder(t *testing.T) {
	rules := []Rule{
		{Name: "one", Evaluate: func([]domain.Connection, time.Time) []domain.Nudge {
			return []domain.Nudge{{ID: "one-1"}, {ID: "one-2"}}
		}},
		{Name: "empty", Evaluate: func([]domain.Connection, time.Time) []domain.Nudge { return nil }},
		{Name: "two", Evaluate: func([]domain.Connection, time.Time) []domain.Nudge {
			return []domain.Nudge{{ID: "two-1"}}
		}},
	}

	assert.Equal(t, []string{"one-1", "one-2", "two-1"}, ids(Evaluate(rules, nil, june)))
}
