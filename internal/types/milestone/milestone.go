package milestone

import (
	"time"

	"github.com/google/uuid"
)

type BadgeID string

const (
	BadgeStreak3   BadgeID = "streak-3-days"
	BadgeStreak7   BadgeID = "streak-7-days"
	BadgeStreak14  BadgeID = "streak-14-days"
	BadgeStreak30  BadgeID = "streak-30-days"
	BadgeStreak100 BadgeID = "streak-100-days"
)

// Milestone is a one-time reward granted the day a streak first reaches
// its threshold.
type Milestone struct {
	Threshold int     `json:"threshold"`
	BadgeID   BadgeID `json:"badge_id"`
	BonusXP   int     `json:"bonus_xp"`
	Name      string  `json:"name"`
}

// Table holds the milestone definitions in ascending threshold order.
var Table = []Milestone{
	{Threshold: 3, BadgeID: BadgeStreak3, BonusXP: 25, Name: "Three in a Row"},
	{Threshold: 7, BadgeID: BadgeStreak7, BonusXP: 50, Name: "One Week Strong"},
	{Threshold: 14, BadgeID: BadgeStreak14, BonusXP: 75, Name: "Two Week Titan"},
	{Threshold: 30, BadgeID: BadgeStreak30, BonusXP: 100, Name: "Monthly Master"},
	{Threshold: 100, BadgeID: BadgeStreak100, BonusXP: 200, Name: "Century Club"},
}

// Reward is the outcome of a milestone check. A zero BonusXP with an
// empty BadgeID means no milestone was crossed.
type Reward struct {
	BadgeID BadgeID `json:"badge_id,omitempty"`
	BonusXP int     `json:"bonus_xp"`
}

// Check returns the reward for a streak that just reached currentStreak.
// Only an exact threshold match pays out: crossing is a single-day event,
// day 8 of a streak earns nothing for the day-7 milestone.
func Check(currentStreak int) Reward {
	for _, m := range Table {
		if m.Threshold == currentStreak {
			return Reward{BadgeID: m.BadgeID, BonusXP: m.BonusXP}
		}
	}
	return Reward{}
}

// Record marks a milestone as awarded to a user. At most one record
// exists per (user, threshold) pair.
type Record struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Threshold int       `json:"threshold" db:"threshold"`
	BadgeID   BadgeID   `json:"badge_id" db:"badge_id"`
	AwardedAt time.Time `json:"awarded_at" db:"awarded_at"`
}

// WithStatus pairs a definition with a user's unlock state for listings.
type WithStatus struct {
	Milestone
	Unlocked  bool       `json:"unlocked"`
	AwardedAt *time.Time `json:"awarded_at,omitempty"`
}
