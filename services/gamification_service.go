package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"accountabuddyAPI/internal/gamerr"
	"accountabuddyAPI/internal/types/milestone"
	"accountabuddyAPI/internal/types/notification"
	"accountabuddyAPI/internal/types/score"
	"accountabuddyAPI/internal/types/streak"
)

// GamificationService ties the engine together: a qualifying daily
// action moves the streak, may unlock a milestone, and credits XP.
type GamificationService struct {
	streaks       *StreakService
	milestones    *MilestoneService
	scores        *ScoreService
	notifications *NotificationService
}

func NewGamificationService(
	streaks *StreakService,
	milestones *MilestoneService,
	scores *ScoreService,
	notifications *NotificationService,
) *GamificationService {
	return &GamificationService{
		streaks:       streaks,
		milestones:    milestones,
		scores:        scores,
		notifications: notifications,
	}
}

type GrantedMilestone struct {
	BadgeID milestone.BadgeID `json:"badge_id"`
	BonusXP int               `json:"bonus_xp"`
}

type ActivityResult struct {
	Streak    *streak.StreakState `json:"streak"`
	IsNewDay  bool                `json:"is_new_day"`
	Score     *score.UserScore    `json:"score,omitempty"`
	Milestone *GrantedMilestone   `json:"milestone,omitempty"`
	LeveledUp bool                `json:"leveled_up"`
}

// RecordDailyActivity is the entry point for "user completed a daily
// action". The streak update is the idempotence gate: repeats of the
// same calendar day return early and credit nothing. New days pay the
// base XP, and a streak that just reached a milestone threshold runs the
// at-most-once award before the base credit.
func (g *GamificationService) RecordDailyActivity(ctx context.Context, userID uuid.UUID, activityDate time.Time) (*ActivityResult, error) {
	rec, err := g.streaks.RecordActivity(ctx, userID, activityDate)
	if err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}

	result := &ActivityResult{Streak: rec.Streak, IsNewDay: rec.IsNewDay}
	if !rec.IsNewDay {
		return result, nil
	}

	activitiesRecorded.Inc()

	// Only a genuinely missing row means level 1; a failed read must not
	// masquerade as a fresh account or it would fire phantom level-ups.
	prevLevel := 1
	if sc, err := g.scores.GetScore(ctx, userID); err == nil {
		prevLevel = sc.Level
	} else if !errors.Is(err, gamerr.ErrNotFound) {
		return nil, fmt.Errorf("read score before credit: %w", err)
	}

	if reward := milestone.Check(rec.Streak.CurrentStreak); reward.BonusXP > 0 {
		granted, _, err := g.milestones.AwardMilestone(ctx, userID, rec.Streak.CurrentStreak)
		if err != nil {
			return nil, fmt.Errorf("award milestone: %w", err)
		}
		if granted {
			milestonesGranted.Inc()
			result.Milestone = &GrantedMilestone{BadgeID: reward.BadgeID, BonusXP: reward.BonusXP}
			g.notifyMilestone(ctx, userID, reward, rec.Streak.CurrentStreak)
		}
	}

	sc, err := g.scores.AddPoints(ctx, userID, score.BaseDailyXP)
	if err != nil {
		return nil, fmt.Errorf("credit daily XP: %w", err)
	}
	result.Score = sc

	if sc.Level > prevLevel {
		result.LeveledUp = true
		levelUps.Inc()
		g.notifyLevelUp(ctx, userID, sc.Level)
	}

	return result, nil
}

func (g *GamificationService) notifyMilestone(ctx context.Context, userID uuid.UUID, reward milestone.Reward, streakLen int) {
	if g.notifications == nil {
		return
	}
	_, err := g.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeMilestoneUnlocked,
		Title:  "Milestone unlocked!",
		Body:   fmt.Sprintf("%d-day streak! You earned %d bonus XP.", streakLen, reward.BonusXP),
		Data:   map[string]any{"badge_id": string(reward.BadgeID), "bonus_xp": reward.BonusXP},
	})
	if err != nil {
		log.Printf("GamificationService: milestone notification for %s failed: %v", userID, err)
	}
}

func (g *GamificationService) notifyLevelUp(ctx context.Context, userID uuid.UUID, level int) {
	if g.notifications == nil {
		return
	}
	_, err := g.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeLevelUp,
		Title:  "Level up!",
		Body:   fmt.Sprintf("You reached level %d.", level),
		Data:   map[string]any{"level": level},
	})
	if err != nil {
		log.Printf("GamificationService: level-up notification for %s failed: %v", userID, err)
	}
}
