package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"accountabuddyAPI/internal/gamerr"
	"accountabuddyAPI/internal/types/streak"
)

type StreakService struct {
	db *pgxpool.Pool
}

func NewStreakService(db *pgxpool.Pool) *StreakService {
	return &StreakService{db: db}
}

// RecordResult is what a recorded activity produced: the streak after
// the call and whether this was the first qualifying action of the day.
type RecordResult struct {
	Streak   *streak.StreakState `json:"streak"`
	IsNewDay bool                `json:"is_new_day"`
}

// GetStreak returns the user's streak state, gamerr.ErrNotFound if the
// user has never recorded an activity.
func (s *StreakService) GetStreak(ctx context.Context, userID uuid.UUID) (*streak.StreakState, error) {
	query := `
	SELECT user_id, current_streak, longest_streak, last_activity_date, version, created_at, updated_at
	FROM streaks
	WHERE user_id = $1
	`

	st := &streak.StreakState{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastActivityDate,
		&st.Version,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("streak for user %s: %w", userID, gamerr.ErrNotFound)
		}
		return nil, storeErr("failed to get streak", err)
	}

	return st, nil
}

// RecordActivity applies one qualifying action for the given calendar
// day. Idempotent per day: a repeat call for the same date returns
// IsNewDay=false and leaves the state untouched. Out-of-order dates are
// rejected with gamerr.ErrOrdering. The transition itself is computed by
// streak.Advance; this method only persists it under the per-user
// version check.
func (s *StreakService) RecordActivity(ctx context.Context, userID uuid.UUID, activityDate time.Time) (*RecordResult, error) {
	day := streak.DayOf(activityDate)

	for attempt := 0; attempt < casAttempts; attempt++ {
		prev, err := s.GetStreak(ctx, userID)
		if err != nil && !errors.Is(err, gamerr.ErrNotFound) {
			return nil, err
		}

		next, isNewDay, err := streak.Advance(prev, userID, day)
		if err != nil {
			return nil, err
		}

		if !isNewDay {
			// Same-day repeat, nothing to write.
			return &RecordResult{Streak: prev, IsNewDay: false}, nil
		}

		if prev == nil {
			tag, err := s.db.Exec(ctx, `
				INSERT INTO streaks (user_id, current_streak, longest_streak, last_activity_date, version, created_at, updated_at)
				VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
				ON CONFLICT (user_id) DO NOTHING
			`, userID, next.CurrentStreak, next.LongestStreak, next.LastActivityDate)
			if err != nil {
				return nil, storeErr("failed to create streak", err)
			}
			if tag.RowsAffected() == 1 {
				return &RecordResult{Streak: &next, IsNewDay: true}, nil
			}
			// Another writer created the row first; re-read and retry.
			backoff(ctx, attempt)
			continue
		}

		tag, err := s.db.Exec(ctx, `
			UPDATE streaks
			SET current_streak = $1, longest_streak = $2, last_activity_date = $3,
			    version = version + 1, updated_at = NOW()
			WHERE user_id = $4 AND version = $5
		`, next.CurrentStreak, next.LongestStreak, next.LastActivityDate, userID, prev.Version)
		if err != nil {
			return nil, storeErr("failed to update streak", err)
		}

		if tag.RowsAffected() == 1 {
			next.Version = prev.Version + 1
			return &RecordResult{Streak: &next, IsNewDay: true}, nil
		}

		log.Printf("StreakService: version conflict for user %s (attempt %d)", userID, attempt+1)
		backoff(ctx, attempt)
	}

	return nil, fmt.Errorf("record activity for user %s: %w: %w", userID, gamerr.ErrConflict, gamerr.ErrUnavailable)
}
