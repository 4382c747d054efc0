package workers

import (
	"context"
	"log"
	"time"

	"accountabuddyAPI/services"
)

const (
	refreshInterval = 30 * time.Second
	refreshTimeout  = 10 * time.Second
	warmPageSize    = 25
)

// StartLeaderboardRefresher keeps the first page of each global
// leaderboard metric warm so reads almost never hit Postgres cold.
// Returns a stop function for graceful shutdown.
func StartLeaderboardRefresher(leaderboards *services.LeaderboardService) func() {
	ticker := time.NewTicker(refreshInterval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
				leaderboards.RefreshGlobal(ctx, warmPageSize)
				cancel()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Leaderboard refresher started (every %s)", refreshInterval)

	return func() { close(done) }
}
