package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"accountabuddyAPI/internal/gamerr"
	"accountabuddyAPI/internal/types/score"
	"accountabuddyAPI/internal/types/streak"
	"accountabuddyAPI/middleware"
	"accountabuddyAPI/services"
)

type GamificationHandler struct {
	engine        *services.GamificationService
	scoreService  *services.ScoreService
	streakService *services.StreakService
	milestones    *services.MilestoneService
	userService   *services.UserService
}

func NewGamificationHandler(
	engine *services.GamificationService,
	scoreService *services.ScoreService,
	streakService *services.StreakService,
	milestones *services.MilestoneService,
	userService *services.UserService,
) *GamificationHandler {
	return &GamificationHandler{
		engine:        engine,
		scoreService:  scoreService,
		streakService: streakService,
		milestones:    milestones,
		userService:   userService,
	}
}

type recordActivityRequest struct {
	// Date is optional; defaults to today (UTC). Callers are expected to
	// have normalized local time to UTC already.
	Date *time.Time `json:"date,omitempty"`
}

type addPointsRequest struct {
	Amount int `json:"amount"`
}

type pointsToNextLevelResponse struct {
	PointsToNextLevel int `json:"points_to_next_level"`
}

// RecordActivity handles "user completed a daily action".
func (h *GamificationHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.authedUserID(ctx, w)
	if !ok {
		return
	}

	var req recordActivityRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = *req.Date
	}

	result, err := h.engine.RecordDailyActivity(ctx, userID, date)
	if err != nil {
		log.Printf("RecordActivity Handler: %v", err)
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetScore returns the user's ledger snapshot; users with no record yet
// get the zero state rather than an error.
func (h *GamificationHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.authedUserID(ctx, w)
	if !ok {
		return
	}

	sc, err := h.scoreService.GetScore(ctx, userID)
	if err != nil {
		if errors.Is(err, gamerr.ErrNotFound) {
			respondWithJSON(w, http.StatusOK, &score.UserScore{UserID: userID, Points: 0, Level: 1})
			return
		}
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sc)
}

func (h *GamificationHandler) GetPointsToNextLevel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.authedUserID(ctx, w)
	if !ok {
		return
	}

	remaining, err := h.scoreService.GetPointsToNextLevel(ctx, userID)
	if err != nil {
		if errors.Is(err, gamerr.ErrNotFound) {
			// Zero state: a fresh user needs a full level of points.
			respondWithJSON(w, http.StatusOK, pointsToNextLevelResponse{PointsToNextLevel: score.PointsPerLevel})
			return
		}
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, pointsToNextLevelResponse{PointsToNextLevel: remaining})
}

// AddPoints applies a manual credit or corrective adjustment.
func (h *GamificationHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.authedUserID(ctx, w)
	if !ok {
		return
	}

	var req addPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sc, err := h.scoreService.AddPoints(ctx, userID, req.Amount)
	if err != nil {
		log.Printf("AddPoints Handler: %v", err)
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sc)
}

// CompleteGoal bumps the completed-goals counter used by the
// completed_goals leaderboard metric.
func (h *GamificationHandler) CompleteGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.authedUserID(ctx, w)
	if !ok {
		return
	}

	sc, err := h.scoreService.IncrementCompletedGoals(ctx, userID)
	if err != nil {
		log.Printf("CompleteGoal Handler: %v", err)
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sc)
}

func (h *GamificationHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.authedUserID(ctx, w)
	if !ok {
		return
	}

	st, err := h.streakService.GetStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, gamerr.ErrNotFound) {
			respondWithJSON(w, http.StatusOK, &streak.StreakState{UserID: userID})
			return
		}
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, st)
}

func (h *GamificationHandler) GetMilestones(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.authedUserID(ctx, w)
	if !ok {
		return
	}

	list, err := h.milestones.ListMilestones(ctx, userID)
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

// authedUserID resolves the authenticated clerk id to the internal user
// uuid, writing the error response itself when that fails.
func (h *GamificationHandler) authedUserID(ctx context.Context, w http.ResponseWriter) (uuid.UUID, bool) {
	clerkID, found := middleware.GetClerkID(ctx)
	if !found {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return uuid.Nil, false
	}

	id, err := h.userService.ResolveUserID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, gamerr.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to resolve user")
		}
		return uuid.Nil, false
	}

	return id, true
}
