package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountabuddyAPI/handlers"
	"accountabuddyAPI/internal/types/user"
	"accountabuddyAPI/middleware"
	"accountabuddyAPI/services"
	"accountabuddyAPI/tests/helpers"
)

func TestGetProfile_Authenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	createdUser, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testauth@example.com",
		Username:  "testauth",
		FirstName: "Test",
		LastName:  "Auth",
		ImageURL:  "https://example.com/image.jpg",
	})
	require.NoError(t, err)

	// simulate a request that passed the auth middleware
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID))
	rr := httptest.NewRecorder()

	userHandler.GetProfile(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response user.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	assert.Equal(t, createdUser.ID, response.ID)
	assert.Equal(t, clerkID, response.ClerkID)
	assert.Equal(t, "testauth@example.com", response.Email)
	assert.Equal(t, "testauth", response.Username)
}

func TestGetProfile_Unauthenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)

	// no auth context on the request
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	rr := httptest.NewRecorder()

	userHandler.GetProfile(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Contains(t, response["error"], "not authenticated")
}

func TestRecordActivity_Unauthenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	scoreService := services.NewScoreService(pool)
	streakService := services.NewStreakService(pool)
	milestoneService := services.NewMilestoneService(pool)
	engine := services.NewGamificationService(streakService, milestoneService, scoreService, nil)
	gamificationHandler := handlers.NewGamificationHandler(engine, scoreService, streakService, milestoneService, userService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/gamification/activity", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	gamificationHandler.RecordActivity(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdateProfile_Authenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)

	clerkID := "user_test_upd_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testupdate@example.com",
		Username:  "testupdate",
		FirstName: "Test",
		LastName:  "Update",
	})
	require.NoError(t, err)

	updateData := `{"firstName": "Updated", "lastName": "Name", "username": "newusername"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/user/update-profile", strings.NewReader(updateData))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID))
	rr := httptest.NewRecorder()

	userHandler.UpdateProfile(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response user.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	assert.Equal(t, "Updated", response.FirstName)
	assert.Equal(t, "Name", response.LastName)
	assert.Equal(t, "newusername", response.Username)
}

func TestDeleteAccount_Authenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)

	clerkID := "user_test_del_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testdelete@example.com",
		Username:  "testdelete",
		FirstName: "Test",
		LastName:  "Delete",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/user/delete-account", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID))
	rr := httptest.NewRecorder()

	userHandler.DeleteAccount(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err, "User should be deleted")
}
