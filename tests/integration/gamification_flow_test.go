package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountabuddyAPI/internal/gamerr"
	"accountabuddyAPI/internal/types/milestone"
	"accountabuddyAPI/internal/types/score"
	"accountabuddyAPI/services"
	"accountabuddyAPI/tests/helpers"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestDailyActivityFlow walks a user through three consecutive days:
// streak growth, the day-3 milestone, and the XP that lands with each.
func TestDailyActivityFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userID := helpers.CreateTestUser(t, pool, time.Now().Format("20060102150405"))

	streakService := services.NewStreakService(pool)
	scoreService := services.NewScoreService(pool)
	milestoneService := services.NewMilestoneService(pool)
	engine := services.NewGamificationService(streakService, milestoneService, scoreService, nil)

	ctx := context.Background()

	// Day 1
	res, err := engine.RecordDailyActivity(ctx, userID, day("2026-03-01"))
	require.NoError(t, err)
	assert.True(t, res.IsNewDay)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Nil(t, res.Milestone)
	require.NotNil(t, res.Score)
	assert.Equal(t, score.BaseDailyXP, res.Score.Points)

	// Same day again: nothing moves
	res, err = engine.RecordDailyActivity(ctx, userID, day("2026-03-01"))
	require.NoError(t, err)
	assert.False(t, res.IsNewDay)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Nil(t, res.Score)

	sc, err := scoreService.GetScore(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, score.BaseDailyXP, sc.Points)

	// Day 2
	res, err = engine.RecordDailyActivity(ctx, userID, day("2026-03-02"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Streak.CurrentStreak)
	assert.Nil(t, res.Milestone)

	// Day 3 hits the first milestone: 25 bonus XP on top of 3x base
	res, err = engine.RecordDailyActivity(ctx, userID, day("2026-03-03"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Streak.CurrentStreak)
	require.NotNil(t, res.Milestone)
	assert.Equal(t, milestone.BadgeStreak3, res.Milestone.BadgeID)
	assert.Equal(t, 25, res.Milestone.BonusXP)
	assert.Equal(t, 3*score.BaseDailyXP+25, res.Score.Points)

	// Backdated activity is rejected
	_, err = engine.RecordDailyActivity(ctx, userID, day("2026-03-01"))
	assert.ErrorIs(t, err, gamerr.ErrOrdering)

	// A milestone list shows day-3 unlocked, the rest locked
	list, err := milestoneService.ListMilestones(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, len(milestone.Table))
	for _, m := range list {
		if m.Threshold == 3 {
			assert.True(t, m.Unlocked)
			assert.NotNil(t, m.AwardedAt)
		} else {
			assert.False(t, m.Unlocked)
		}
	}
}

// TestMilestoneAwardedAtMostOnce hammers the award path concurrently;
// the unique (user_id, threshold) gate must let exactly one through.
func TestMilestoneAwardedAtMostOnce(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userID := helpers.CreateTestUser(t, pool, "ms"+time.Now().Format("150405"))
	milestoneService := services.NewMilestoneService(pool)

	ctx := context.Background()
	const workers = 8

	var wg sync.WaitGroup
	grants := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted, _, err := milestoneService.AwardMilestone(ctx, userID, 7)
			if err != nil {
				t.Errorf("AwardMilestone failed: %v", err)
				return
			}
			grants <- granted
		}()
	}
	wg.Wait()
	close(grants)

	grantCount := 0
	for granted := range grants {
		if granted {
			grantCount++
		}
	}
	assert.Equal(t, 1, grantCount, "exactly one goroutine should win the award")

	// The single award credited the bonus exactly once
	scoreService := services.NewScoreService(pool)
	sc, err := scoreService.GetScore(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 50, sc.Points)
}

// TestLevelUpDetection checks that the level-up flag compares against
// the user's real level before the credit, not a default.
func TestLevelUpDetection(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	streakService := services.NewStreakService(pool)
	scoreService := services.NewScoreService(pool)
	milestoneService := services.NewMilestoneService(pool)
	engine := services.NewGamificationService(streakService, milestoneService, scoreService, nil)

	ctx := context.Background()

	// 95 points sits just under the level-2 boundary; the daily credit
	// crosses it.
	crosser := helpers.CreateTestUser(t, pool, "lvl"+time.Now().Format("150405"))
	_, err := scoreService.AddPoints(ctx, crosser, 95)
	require.NoError(t, err)

	res, err := engine.RecordDailyActivity(ctx, crosser, day("2026-05-01"))
	require.NoError(t, err)
	require.NotNil(t, res.Score)
	assert.Equal(t, 105, res.Score.Points)
	assert.Equal(t, 2, res.Score.Level)
	assert.True(t, res.LeveledUp)

	// A level-3 user gaining base XP stays level 3. If the pre-credit
	// read fell back to level 1 this would report a bogus level-up.
	steady := helpers.CreateTestUser(t, pool, "lv3"+time.Now().Format("150405"))
	_, err = scoreService.AddPoints(ctx, steady, 250)
	require.NoError(t, err)

	res, err = engine.RecordDailyActivity(ctx, steady, day("2026-05-01"))
	require.NoError(t, err)
	require.NotNil(t, res.Score)
	assert.Equal(t, 260, res.Score.Points)
	assert.Equal(t, 3, res.Score.Level)
	assert.False(t, res.LeveledUp)
}

// TestStreakGapResets covers the missed-day path end to end against the
// real store.
func TestStreakGapResets(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userID := helpers.CreateTestUser(t, pool, "gap"+time.Now().Format("150405"))
	streakService := services.NewStreakService(pool)

	ctx := context.Background()

	for _, d := range []string{"2026-04-01", "2026-04-02", "2026-04-03"} {
		_, err := streakService.RecordActivity(ctx, userID, day(d))
		require.NoError(t, err)
	}

	// Two days missed
	rec, err := streakService.RecordActivity(ctx, userID, day("2026-04-06"))
	require.NoError(t, err)
	assert.True(t, rec.IsNewDay)
	assert.Equal(t, 1, rec.Streak.CurrentStreak)
	assert.Equal(t, 3, rec.Streak.LongestStreak)
}

// TestPointsClampAtZero verifies corrective deductions through the
// store-backed score path.
func TestPointsClampAtZero(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userID := helpers.CreateTestUser(t, pool, "pts"+time.Now().Format("150405"))
	scoreService := services.NewScoreService(pool)

	ctx := context.Background()

	sc, err := scoreService.AddPoints(ctx, userID, 120)
	require.NoError(t, err)
	assert.Equal(t, 120, sc.Points)
	assert.Equal(t, 2, sc.Level)

	sc, err = scoreService.AddPoints(ctx, userID, -200)
	require.NoError(t, err)
	assert.Equal(t, 0, sc.Points)
	assert.Equal(t, 1, sc.Level)

	remaining, err := scoreService.GetPointsToNextLevel(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, score.PointsPerLevel, remaining)
}
