package nudge

import (
	"sort"
	"time"

	"imet-backend/internal/domain"
)

// Evaluate runs rules in order and concatenates their candidates.
func Evaluate(rules []Rule, conns []domain.Connection, now time.Time) []domain.Nudge {
	var out []domain.Nudge
	for _, rule := range rules {
		out = append(out, rule.Evaluate(conns, now)...)
	}
	return out
}

// Rank deduplicates candidates by id, keeping the first, and orders them by priority
// descending then due date ascending. Remaining ties keep evaluation order.
func Rank(candidates []domain.Nudge) []domain.Nudge {
	ranked := make([]domain.Nudge, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		return a.DueDate.Before(b.DueDate)
	})
	return ranked
}
