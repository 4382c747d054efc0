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
	"accountabuddyAPI/internal/types/milestone"
	"accountabuddyAPI/internal/types/score"
)

type MilestoneService struct {
	db *pgxpool.Pool
}

func NewMilestoneService(db *pgxpool.Pool) *MilestoneService {
	return &MilestoneService{db: db}
}

// AwardMilestone grants the milestone for threshold to the user and
// credits its bonus XP, atomically. The unique (user_id, threshold)
// index is the at-most-once gate: when the insert hits an existing row
// the XP credit is skipped, so a concurrent duplicate activity event can
// never double-pay. Returns false when the milestone was already held.
func (s *MilestoneService) AwardMilestone(ctx context.Context, userID uuid.UUID, threshold int) (bool, *score.UserScore, error) {
	reward := milestone.Check(threshold)
	if reward.BonusXP == 0 {
		return false, nil, fmt.Errorf("no milestone at streak %d: %w", threshold, gamerr.ErrInvalidInput)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, nil, storeErr("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO user_milestones (id, user_id, threshold, badge_id, xp_awarded, awarded_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, threshold) DO NOTHING
	`, uuid.New(), userID, threshold, string(reward.BadgeID), reward.BonusXP)
	if err != nil {
		return false, nil, storeErr("failed to insert milestone record", err)
	}

	if tag.RowsAffected() == 0 {
		// Already awarded on an earlier pass through this streak length.
		return false, nil, nil
	}

	// The insert landed, so this transaction owns the credit. Lock the
	// score row for the arithmetic; the row lock serializes against
	// concurrent AddPoints on the same user.
	_, err = tx.Exec(ctx, `
		INSERT INTO user_scores (user_id, points, level, completed_goals, version, created_at, updated_at)
		VALUES ($1, 0, 1, 0, 0, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return false, nil, storeErr("failed to ensure score row", err)
	}

	sc := &score.UserScore{}
	err = tx.QueryRow(ctx, `
		SELECT user_id, points, level, completed_goals, version, created_at, updated_at
		FROM user_scores
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(
		&sc.UserID, &sc.Points, &sc.Level, &sc.CompletedGoals,
		&sc.Version, &sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		return false, nil, storeErr("failed to lock score row", err)
	}

	sc.Points = score.ApplyDelta(sc.Points, reward.BonusXP)
	sc.Level = score.ComputeLevel(sc.Points)
	sc.Version++

	_, err = tx.Exec(ctx, `
		UPDATE user_scores
		SET points = $1, level = $2, version = $3, updated_at = NOW()
		WHERE user_id = $4
	`, sc.Points, sc.Level, sc.Version, userID)
	if err != nil {
		return false, nil, storeErr("failed to credit bonus XP", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, nil, storeErr("failed to commit milestone award", err)
	}

	log.Printf("MilestoneService: awarded %s (+%d XP) to user %s", reward.BadgeID, reward.BonusXP, userID)
	return true, sc, nil
}

// ListMilestones returns every milestone definition with the user's
// unlock status, in ascending threshold order.
func (s *MilestoneService) ListMilestones(ctx context.Context, userID uuid.UUID) ([]*milestone.WithStatus, error) {
	rows, err := s.db.Query(ctx, `
		SELECT threshold, awarded_at
		FROM user_milestones
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, storeErr("failed to fetch milestones", err)
	}
	defer rows.Close()

	awarded := make(map[int]time.Time)
	for rows.Next() {
		var threshold int
		var at time.Time
		if err := rows.Scan(&threshold, &at); err != nil {
			return nil, fmt.Errorf("failed to scan milestone row: %w", err)
		}
		awarded[threshold] = at
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to read milestone rows", err)
	}

	list := make([]*milestone.WithStatus, 0, len(milestone.Table))
	for _, def := range milestone.Table {
		ws := &milestone.WithStatus{Milestone: def}
		if at, ok := awarded[def.Threshold]; ok {
			ws.Unlocked = true
			ws.AwardedAt = &at
		}
		list = append(list, ws)
	}
	return list, nil
}

// HasMilestone reports whether the user already holds the milestone for
// threshold.
func (s *MilestoneService) HasMilestone(ctx context.Context, userID uuid.UUID, threshold int) (bool, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `
		SELECT id FROM user_milestones WHERE user_id = $1 AND threshold = $2
	`, userID, threshold).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, storeErr("failed to check milestone", err)
	}
	return true, nil
}
