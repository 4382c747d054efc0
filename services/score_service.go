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
	"accountabuddyAPI/internal/types/score"
)

// casAttempts bounds the optimistic-concurrency retry loop on per-user
// mutations before the operation surfaces as unavailable.
const casAttempts = 3

type ScoreService struct {
	db *pgxpool.Pool
}

func NewScoreService(db *pgxpool.Pool) *ScoreService {
	return &ScoreService{db: db}
}

// GetScore returns the user's current ledger snapshot. Missing rows are
// a zero state for new users, reported as gamerr.ErrNotFound; no record
// is created on read.
func (s *ScoreService) GetScore(ctx context.Context, userID uuid.UUID) (*score.UserScore, error) {
	query := `
	SELECT user_id, points, level, completed_goals, version, created_at, updated_at
	FROM user_scores
	WHERE user_id = $1
	`

	sc := &score.UserScore{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&sc.UserID,
		&sc.Points,
		&sc.Level,
		&sc.CompletedGoals,
		&sc.Version,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("score for user %s: %w", userID, gamerr.ErrNotFound)
		}
		return nil, storeErr("failed to get score", err)
	}

	return sc, nil
}

// AddPoints credits (or corrects) a user's points and recomputes the
// level in the same write. The balance is clamped at 0. The
// read-modify-write is serialized per user with a version column:
// a concurrent writer bumps the version and this call retries.
func (s *ScoreService) AddPoints(ctx context.Context, userID uuid.UUID, amount int) (*score.UserScore, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		sc, err := s.GetScore(ctx, userID)
		if errors.Is(err, gamerr.ErrNotFound) {
			if err := s.createScoreRow(ctx, userID); err != nil {
				return nil, err
			}
			sc, err = s.GetScore(ctx, userID)
			if err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		newPoints := score.ApplyDelta(sc.Points, amount)
		newLevel := score.ComputeLevel(newPoints)

		tag, err := s.db.Exec(ctx, `
			UPDATE user_scores
			SET points = $1, level = $2, version = version + 1, updated_at = NOW()
			WHERE user_id = $3 AND version = $4
		`, newPoints, newLevel, userID, sc.Version)
		if err != nil {
			return nil, storeErr("failed to update score", err)
		}

		if tag.RowsAffected() == 1 {
			sc.Points = newPoints
			sc.Level = newLevel
			sc.Version++
			return sc, nil
		}

		// Version moved underneath us; back off and retry.
		log.Printf("ScoreService: version conflict for user %s (attempt %d)", userID, attempt+1)
		backoff(ctx, attempt)
	}

	return nil, fmt.Errorf("add points for user %s: %w: %w", userID, gamerr.ErrConflict, gamerr.ErrUnavailable)
}

// IncrementCompletedGoals bumps the counter behind the completed_goals
// leaderboard metric. Same per-user serialization as AddPoints.
func (s *ScoreService) IncrementCompletedGoals(ctx context.Context, userID uuid.UUID) (*score.UserScore, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		sc, err := s.GetScore(ctx, userID)
		if errors.Is(err, gamerr.ErrNotFound) {
			if err := s.createScoreRow(ctx, userID); err != nil {
				return nil, err
			}
			sc, err = s.GetScore(ctx, userID)
			if err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		tag, err := s.db.Exec(ctx, `
			UPDATE user_scores
			SET completed_goals = completed_goals + 1, version = version + 1, updated_at = NOW()
			WHERE user_id = $1 AND version = $2
		`, userID, sc.Version)
		if err != nil {
			return nil, storeErr("failed to update completed goals", err)
		}

		if tag.RowsAffected() == 1 {
			sc.CompletedGoals++
			sc.Version++
			return sc, nil
		}

		backoff(ctx, attempt)
	}

	return nil, fmt.Errorf("increment goals for user %s: %w: %w", userID, gamerr.ErrConflict, gamerr.ErrUnavailable)
}

// GetPointsToNextLevel returns how many points the user needs to reach
// the next level threshold.
func (s *ScoreService) GetPointsToNextLevel(ctx context.Context, userID uuid.UUID) (int, error) {
	sc, err := s.GetScore(ctx, userID)
	if err != nil {
		return 0, err
	}
	return score.PointsToNext(sc.Points), nil
}

func (s *ScoreService) createScoreRow(ctx context.Context, userID uuid.UUID) error {
	// Losing the insert race to another writer is fine, the caller
	// re-reads either way.
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_scores (user_id, points, level, completed_goals, version, created_at, updated_at)
		VALUES ($1, 0, 1, 0, 0, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return storeErr("failed to create score row", err)
	}
	return nil
}

// storeErr maps persistence failures onto the retryable taxonomy:
// timeouts and cancellations become ErrUnavailable, everything else is
// wrapped as-is.
func storeErr(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %v: %w", msg, err, gamerr.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func backoff(ctx context.Context, attempt int) {
	delay := time.Duration(25*(attempt+1)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
