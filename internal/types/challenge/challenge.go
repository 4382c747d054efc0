package challenge

import (
	"time"

	"github.com/google/uuid"
)

type GoalType string

const (
	GoalDailyStreak GoalType = "daily_streak"
	GoalTotalPoints GoalType = "total_points"
	GoalGoalsDone   GoalType = "goals_completed"
)

type Challenge struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	StartDate   *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty" db:"end_date"`
	GoalType    GoalType   `json:"goal_type" db:"goal_type"`
	GoalValue   int        `json:"goal_value" db:"goal_value"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type Member struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	ChallengeID uuid.UUID `json:"challenge_id" db:"challenge_id"`
	JoinedAt    time.Time `json:"joined_at" db:"joined_at"`
}
