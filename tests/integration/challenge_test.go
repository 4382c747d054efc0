package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountabuddyAPI/handlers"
	"accountabuddyAPI/internal/gamerr"
	"accountabuddyAPI/internal/types/challenge"
	"accountabuddyAPI/middleware"
	"accountabuddyAPI/services"
	"accountabuddyAPI/tests/helpers"
)

// TestChallengeLookupAndListing covers the typed challenge reads and
// the discovery endpoint.
func TestChallengeLookupAndListing(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	ctx := context.Background()

	activeID := uuid.New()
	inactiveID := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO challenges (id, name, description, goal_type, goal_value, is_active)
		VALUES ($1, 'September Streak', 'Keep a 30-day streak', 'daily_streak', 30, true),
		       ($2, 'Last Season', '', 'total_points', 500, false)`,
		activeID, inactiveID)
	require.NoError(t, err)
	defer pool.Exec(ctx, `DELETE FROM challenges WHERE id IN ($1, $2)`, activeID, inactiveID)

	c, err := userService.GetChallenge(ctx, activeID)
	require.NoError(t, err)
	assert.Equal(t, "September Streak", c.Name)
	assert.Equal(t, challenge.GoalDailyStreak, c.GoalType)
	assert.Equal(t, 30, c.GoalValue)
	assert.True(t, c.IsActive)
	assert.Nil(t, c.StartDate, "unscheduled challenge has no start date")

	_, err = userService.GetChallenge(ctx, uuid.New())
	assert.ErrorIs(t, err, gamerr.ErrNotFound)

	list, err := userService.ListActiveChallenges(ctx)
	require.NoError(t, err)

	var sawActive, sawInactive bool
	for _, c := range list {
		if c.ID == activeID {
			sawActive = true
		}
		if c.ID == inactiveID {
			sawInactive = true
		}
	}
	assert.True(t, sawActive, "active challenge should be listed")
	assert.False(t, sawInactive, "inactive challenge must be filtered out")
}

// TestJoinChallengeValidation exercises the membership gate: only
// active challenges accept joins, and repeats upsert.
func TestJoinChallengeValidation(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userID := helpers.CreateTestUser(t, pool, "chal"+time.Now().Format("150405"))
	userService := services.NewUserService(pool)
	ctx := context.Background()

	activeID := uuid.New()
	closedID := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO challenges (id, name, goal_type, is_active)
		VALUES ($1, 'Open Board', 'daily_streak', true),
		       ($2, 'Closed Board', 'daily_streak', false)`,
		activeID, closedID)
	require.NoError(t, err)
	defer pool.Exec(ctx, `DELETE FROM challenges WHERE id IN ($1, $2)`, activeID, closedID)

	require.NoError(t, userService.JoinChallenge(ctx, userID, activeID))
	// joining twice is a no-op, not a constraint violation
	require.NoError(t, userService.JoinChallenge(ctx, userID, activeID))

	var memberCount int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM challenge_members WHERE user_id = $1 AND challenge_id = $2`,
		userID, activeID).Scan(&memberCount)
	require.NoError(t, err)
	assert.Equal(t, 1, memberCount)

	err = userService.JoinChallenge(ctx, userID, closedID)
	assert.ErrorIs(t, err, gamerr.ErrInvalidInput)

	err = userService.JoinChallenge(ctx, userID, uuid.New())
	assert.ErrorIs(t, err, gamerr.ErrNotFound)
}

func TestGetChallengesEndpoint(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := "user_test_chal_" + time.Now().Format("150405")
	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)
	ctx := context.Background()

	challengeID := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO challenges (id, name, goal_type, goal_value, is_active)
		VALUES ($1, 'API Visible', 'daily_streak', 7, true)`, challengeID)
	require.NoError(t, err)
	defer pool.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, challengeID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/challenges", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID))
	rr := httptest.NewRecorder()

	userHandler.GetChallenges(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var list []challenge.Challenge
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))

	found := false
	for _, c := range list {
		if c.ID == challengeID {
			found = true
			assert.Equal(t, "API Visible", c.Name)
		}
	}
	assert.True(t, found, "seeded challenge should appear in the response")
}
