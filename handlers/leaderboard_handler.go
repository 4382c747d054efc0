package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"accountabuddyAPI/internal/types/leaderboard"
	"accountabuddyAPI/services"
)

const defaultPageSize = 25

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetLeaderboard serves one ranking page. Query params: metric (points |
// current_streak | completed_goals), page, page_size, and optionally
// challenge_id to scope the board to a challenge's members. The board is
// readable without authentication.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := leaderboard.Query{
		Metric:   leaderboard.MetricPoints,
		Scope:    leaderboard.GlobalScope,
		Page:     1,
		PageSize: defaultPageSize,
	}

	if m := r.URL.Query().Get("metric"); m != "" {
		q.Metric = leaderboard.Metric(m)
	}
	if p := r.URL.Query().Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "page must be an integer")
			return
		}
		q.Page = page
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		pageSize, err := strconv.Atoi(ps)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "page_size must be an integer")
			return
		}
		q.PageSize = pageSize
	}
	if cid := r.URL.Query().Get("challenge_id"); cid != "" {
		challengeID, err := uuid.Parse(cid)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "challenge_id must be a UUID")
			return
		}
		q.Scope = leaderboard.ChallengeScope(challengeID)
	}

	page, err := h.leaderboardService.Rank(ctx, q)
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}
