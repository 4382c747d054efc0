package streak

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"accountabuddyAPI/internal/gamerr"
)

type StreakState struct {
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date" db:"last_activity_date"`
	Version          int        `json:"-" db:"version"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// DayOf truncates t to calendar-day granularity in UTC. All streak
// comparisons run on these normalized days.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Advance computes the streak transition for an activity on day. It is a
// pure function: prev is not mutated and the persistence write happens in
// the service. A nil prev means the user's first qualifying activity.
//
// Returns the next state and whether the activity opened a new calendar
// day. Same-day repeats return isNewDay=false with the state unchanged;
// an activity dated before the stored last activity is rejected with
// gamerr.ErrOrdering.
func Advance(prev *StreakState, userID uuid.UUID, day time.Time) (StreakState, bool, error) {
	day = DayOf(day)

	if prev == nil || prev.LastActivityDate == nil {
		next := StreakState{
			UserID:        userID,
			CurrentStreak: 1,
			LongestStreak: 1,
		}
		next.LastActivityDate = &day
		return next, true, nil
	}

	last := DayOf(*prev.LastActivityDate)
	gapDays := int(day.Sub(last).Hours() / 24)

	switch {
	case gapDays < 0:
		return *prev, false, fmt.Errorf("activity on %s predates recorded %s: %w",
			day.Format("2006-01-02"), last.Format("2006-01-02"), gamerr.ErrOrdering)

	case gapDays == 0:
		return *prev, false, nil

	case gapDays == 1:
		next := *prev
		next.CurrentStreak = prev.CurrentStreak + 1
		if next.CurrentStreak > next.LongestStreak {
			next.LongestStreak = next.CurrentStreak
		}
		next.LastActivityDate = &day
		return next, true, nil

	default:
		// Gap detected: this activity starts a fresh streak of 1.
		next := *prev
		next.CurrentStreak = 1
		next.LastActivityDate = &day
		return next, true, nil
	}
}
