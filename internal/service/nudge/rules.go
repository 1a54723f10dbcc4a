package nudge

import (
	"fmt"
	"math"
	"strings"
	"time"

	"imet-backend/internal/domain"
)

const day = 24 * time.Hour

// Rule kinds. They prefix candidate ids and must stay stable because clients use ids
// as dismissal keys.
const (
	KindFollowup   = "followup"
	KindHoliday    = "holiday"
	KindHalloween  = "halloween"
	KindBasketball = "basketball"
	KindTech       = "tech"
)

// Rule evaluates the whole connection list at a fixed instant. Rules are pure: the same
// input always yields the same candidates in the same order.
type Rule struct {
	Name     string
	Evaluate func(conns []domain.Connection, now time.Time) []domain.Nudge
}

// DefaultRules returns the catalog in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "recency", Evaluate: RecencyFollowup},
		{Name: "seasonal", Evaluate: SeasonalEvent},
		{Name: "interest", Evaluate: InterestMatch},
	}
}

// Recency window, in whole days since the record was created.
const (
	followupMinDays = 14
	followupMaxDays = 16
)

// RecencyFollowup suggests reaching out two weeks after meeting someone.
func RecencyFollowup(conns []domain.Connection, now time.Time) []domain.Nudge {
	var out []domain.Nudge
	for _, c := range conns {
		if c.CreatedAt.IsZero() {
			continue
		}
		days := int(math.Floor(now.Sub(c.CreatedAt).Hours() / 24))
		if days < followupMinDays || days > followupMaxDays {
			continue
		}
		name := c.DisplayName()
		out = append(out, domain.Nudge{
			ID:             domain.NudgeID(KindFollowup, c.ID),
			ConnectionID:   c.ID,
			ConnectionName: name,
			Type:           domain.NudgeFollowup,
			Title:          fmt.Sprintf("It's been two weeks since you connected with %s", nameOr(c, "someone new")),
			Description:    "Consider reaching out to strengthen the connection.",
			Priority:       domain.PriorityMedium,
			Action:         domain.ActionMessage,
			DueDate:        now,
		})
	}
	return out
}

// SeasonalEvent samples connections by list position during the holiday windows.
// December greets every third connection, October every fourth.
func SeasonalEvent(conns []domain.Connection, now time.Time) []domain.Nudge {
	var out []domain.Nudge
	switch now.Month() {
	case time.December:
		due := time.Date(now.Year(), time.December, 25, 0, 0, 0, 0, now.Location())
		for i, c := range conns {
			if i%3 != 0 {
				continue
			}
			name := c.DisplayName()
			out = append(out, domain.Nudge{
				ID:             domain.NudgeID(KindHoliday, c.ID),
				ConnectionID:   c.ID,
				ConnectionName: name,
				Type:           domain.NudgeEvent,
				Title:          fmt.Sprintf("Holiday season is here, send %s your wishes!", name),
				Description:    "Holidays are a great time to reconnect.",
				Priority:       domain.PriorityMedium,
				Action:         domain.ActionMessage,
				DueDate:        due,
			})
		}
	case time.October:
		due := time.Date(now.Year(), time.October, 31, 0, 0, 0, 0, now.Location())
		for i, c := range conns {
			if i%4 != 0 {
				continue
			}
			name := c.DisplayName()
			out = append(out, domain.Nudge{
				ID:             domain.NudgeID(KindHalloween, c.ID),
				ConnectionID:   c.ID,
				ConnectionName: name,
				Type:           domain.NudgeEvent,
				Title:          fmt.Sprintf("Halloween is coming up, check in with %s", name),
				Description:    "Maybe they have plans you could join?",
				Priority:       domain.PriorityLow,
				Action:         domain.ActionMessage,
				DueDate:        due,
			})
		}
	}
	return out
}

var (
	sportsKeywords = []string{"basketball", "nba", "lakers"}
	techKeywords   = []string{"tech", "programming", "software"}
)

// InterestMatch suggests topical outreach based on recorded interests. A connection can
// match both keyword sets.
func InterestMatch(conns []domain.Connection, now time.Time) []domain.Nudge {
	var out []domain.Nudge
	for _, c := range conns {
		interests := make([]string, len(c.Interests))
		for i, interest := range c.Interests {
			interests[i] = strings.ToLower(interest)
		}
		name := c.DisplayName()

		if matchesAny(interests, sportsKeywords) {
			out = append(out, domain.Nudge{
				ID:             domain.NudgeID(KindBasketball, c.ID),
				ConnectionID:   c.ID,
				ConnectionName: name,
				Type:           domain.NudgeInterest,
				Title:          "You both love basketball, playoffs are happening now!",
				Description:    fmt.Sprintf("Want to check in with %s about the latest games?", name),
				Priority:       domain.PriorityLow,
				Action:         domain.ActionMessage,
				DueDate:        now.Add(2 * day),
			})
		}
		if matchesAny(interests, techKeywords) {
			out = append(out, domain.Nudge{
				ID:             domain.NudgeID(KindTech, c.ID),
				ConnectionID:   c.ID,
				ConnectionName: name,
				Type:           domain.NudgeInterest,
				Title:          fmt.Sprintf("Share that tech article with %s", name),
				Description:    "You both share an interest in technology.",
				Priority:       domain.PriorityMedium,
				Action:         domain.ActionEmail,
				DueDate:        now.Add(1 * day),
			})
		}
	}
	return out
}

func nameOr(c domain.Connection, fallback string) string {
	if c.Name != nil && strings.TrimSpace(*c.Name) != "" {
		return *c.Name
	}
	return fallback
}

// matchesAny reports whether any interest contains any keyword.
func matchesAny(interests, keywords []string) bool {
	for _, interest := range interests {
		for _, kw := range keywords {
			if strings.Contains(interest, kw) {
				return true
			}
		}
	}
	return false
}
