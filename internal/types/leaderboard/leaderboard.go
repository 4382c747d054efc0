package leaderboard

import (
	"fmt"

	"github.com/google/uuid"

	"accountabuddyAPI/internal/gamerr"
)

type Metric string

const (
	MetricPoints         Metric = "points"
	MetricCurrentStreak  Metric = "current_streak"
	MetricCompletedGoals Metric = "completed_goals"
)

// Scope selects which users a ranking covers. A nil ChallengeID means
// the global board; otherwise only members of that challenge.
type Scope struct {
	ChallengeID *uuid.UUID
}

var GlobalScope = Scope{}

func ChallengeScope(id uuid.UUID) Scope {
	return Scope{ChallengeID: &id}
}

type Entry struct {
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Username string    `json:"username" db:"username"`
	ImageURL *string   `json:"image_url" db:"image_url"`
	Value    int       `json:"value" db:"value"`
	Rank     int       `json:"rank" db:"rank"`
}

type Page struct {
	Metric     Metric   `json:"metric"`
	Entries    []*Entry `json:"entries"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
	TotalUsers int      `json:"total_users"`
}

// Query is a validated ranking request.
type Query struct {
	Metric   Metric
	Scope    Scope
	Page     int
	PageSize int
}

// Validate rejects malformed requests before any persistence access.
func (q Query) Validate() error {
	switch q.Metric {
	case MetricPoints, MetricCurrentStreak, MetricCompletedGoals:
	default:
		return fmt.Errorf("unknown metric %q: %w", q.Metric, gamerr.ErrInvalidInput)
	}
	if q.Page < 1 {
		return fmt.Errorf("page must be >= 1, got %d: %w", q.Page, gamerr.ErrInvalidInput)
	}
	if q.PageSize < 1 {
		return fmt.Errorf("page_size must be >= 1, got %d: %w", q.PageSize, gamerr.ErrInvalidInput)
	}
	return nil
}

// TotalPages is ceil(totalUsers / pageSize).
func TotalPages(totalUsers, pageSize int) int {
	if totalUsers <= 0 {
		return 0
	}
	return (totalUsers + pageSize - 1) / pageSize
}
