package score

import (
	"time"

	"github.com/google/uuid"
)

const (
	// PointsPerLevel defines level thresholds: level 1 spans [0,100),
	// level 2 [100,200), and so on.
	PointsPerLevel = 100

	// BaseDailyXP is credited once per qualifying day, before any
	// milestone bonus.
	BaseDailyXP = 10
)

type UserScore struct {
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	Points         int       `json:"points" db:"points"`
	Level          int       `json:"level" db:"level"`
	CompletedGoals int       `json:"completed_goals" db:"completed_goals"`
	Version        int       `json:"-" db:"version"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ComputeLevel derives the level from cumulative points.
func ComputeLevel(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// ApplyDelta adds delta to points, clamping the result at a floor of 0.
// Negative deltas are corrective adjustments and may not drive the
// balance below zero.
func ApplyDelta(points, delta int) int {
	next := points + delta
	if next < 0 {
		return 0
	}
	return next
}

// PointsToNext returns how many points are needed to reach the next
// level. Never negative: if points somehow sit past the current level's
// threshold the result is clamped to 0.
func PointsToNext(points int) int {
	remaining := ComputeLevel(points)*PointsPerLevel - points
	if remaining < 0 {
		return 0
	}
	return remaining
}
