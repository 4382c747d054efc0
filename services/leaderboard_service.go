package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"accountabuddyAPI/internal/types/leaderboard"
)

// snapshotTTL bounds how stale a cached global leaderboard page may be.
// Rankings tolerate eventual consistency; per-user score reads do not go
// through this cache.
const snapshotTTL = 30 * time.Second

type cachedPage struct {
	page      *leaderboard.Page
	fetchedAt time.Time
}

type LeaderboardService struct {
	db *pgxpool.Pool

	mu    sync.Mutex
	cache map[string]cachedPage
}

func NewLeaderboardService(db *pgxpool.Pool) *LeaderboardService {
	return &LeaderboardService{
		db:    db,
		cache: make(map[string]cachedPage),
	}
}

// Rank produces one page of the ranking for the requested metric and
// scope. Ties are broken by ascending user id so repeated calls return
// an identical order. A page past the end yields empty entries, not an
// error. Global pages may be served from a bounded-staleness snapshot.
func (s *LeaderboardService) Rank(ctx context.Context, q leaderboard.Query) (*leaderboard.Page, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if q.Scope.ChallengeID == nil {
		if page, ok := s.cached(q); ok {
			return page, nil
		}
	}

	page, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}

	if q.Scope.ChallengeID == nil {
		s.store(q, page)
	}
	return page, nil
}

// RefreshGlobal rewarms the first page of every global metric. Called by
// the background worker so interactive reads mostly hit the snapshot.
func (s *LeaderboardService) RefreshGlobal(ctx context.Context, pageSize int) {
	for _, metric := range []leaderboard.Metric{
		leaderboard.MetricPoints,
		leaderboard.MetricCurrentStreak,
		leaderboard.MetricCompletedGoals,
	} {
		q := leaderboard.Query{Metric: metric, Scope: leaderboard.GlobalScope, Page: 1, PageSize: pageSize}
		page, err := s.query(ctx, q)
		if err != nil {
			log.Printf("LeaderboardService: refresh %s failed: %v", metric, err)
			continue
		}
		s.store(q, page)
	}
}

func (s *LeaderboardService) query(ctx context.Context, q leaderboard.Query) (*leaderboard.Page, error) {
	var sql string
	args := []any{}

	// The metric was validated above; each case binds a fixed column so
	// no identifier is ever interpolated from input.
	var from, valueCol string
	switch q.Metric {
	case leaderboard.MetricCurrentStreak:
		from = `FROM users u INNER JOIN streaks src ON u.id = src.user_id`
		valueCol = `src.current_streak`
	case leaderboard.MetricCompletedGoals:
		from = `FROM users u INNER JOIN user_scores src ON u.id = src.user_id`
		valueCol = `src.completed_goals`
	default: // points
		from = `FROM users u INNER JOIN user_scores src ON u.id = src.user_id`
		valueCol = `src.points`
	}

	if q.Scope.ChallengeID != nil {
		from += ` INNER JOIN challenge_members cm ON u.id = cm.user_id AND cm.challenge_id = $3`
		args = append(args, (q.Page-1)*q.PageSize, q.PageSize, *q.Scope.ChallengeID)
	} else {
		args = append(args, (q.Page-1)*q.PageSize, q.PageSize)
	}

	sql = fmt.Sprintf(`
	SELECT
		u.id AS user_id,
		u.username,
		u.image_url,
		%s AS value,
		ROW_NUMBER() OVER (ORDER BY %s DESC, u.id ASC) AS rank,
		COUNT(*) OVER () AS total_users
	%s
	ORDER BY value DESC, u.id ASC
	OFFSET $1 LIMIT $2
	`, valueCol, valueCol, from)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr("failed to fetch leaderboard", err)
	}
	defer rows.Close()

	entries := []*leaderboard.Entry{}
	totalUsers := 0

	for rows.Next() {
		entry := &leaderboard.Entry{}
		err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.ImageURL,
			&entry.Value,
			&entry.Rank,
			&totalUsers,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		// A connection dropped mid-stream would otherwise surface as a
		// short page.
		return nil, storeErr("failed to read leaderboard rows", err)
	}

	if len(entries) == 0 {
		// Past the last page (or an empty scope): the total still has to
		// be reported, so count separately.
		if err := s.countUsers(ctx, q, &totalUsers); err != nil {
			return nil, err
		}
	}

	return &leaderboard.Page{
		Metric:     q.Metric,
		Entries:    entries,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: leaderboard.TotalPages(totalUsers, q.PageSize),
		TotalUsers: totalUsers,
	}, nil
}

func (s *LeaderboardService) countUsers(ctx context.Context, q leaderboard.Query, total *int) error {
	var from string
	switch q.Metric {
	case leaderboard.MetricCurrentStreak:
		from = `FROM users u INNER JOIN streaks src ON u.id = src.user_id`
	default:
		from = `FROM users u INNER JOIN user_scores src ON u.id = src.user_id`
	}

	args := []any{}
	if q.Scope.ChallengeID != nil {
		from += ` INNER JOIN challenge_members cm ON u.id = cm.user_id AND cm.challenge_id = $1`
		args = append(args, *q.Scope.ChallengeID)
	}

	err := s.db.QueryRow(ctx, `SELECT COUNT(*) `+from, args...).Scan(total)
	if err != nil {
		return storeErr("failed to count leaderboard users", err)
	}
	return nil
}

func (s *LeaderboardService) cacheKey(q leaderboard.Query) string {
	return fmt.Sprintf("%s|%d|%d", q.Metric, q.Page, q.PageSize)
}

func (s *LeaderboardService) cached(q leaderboard.Query) (*leaderboard.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[s.cacheKey(q)]
	if !ok || time.Since(c.fetchedAt) > snapshotTTL {
		return nil, false
	}
	return c.page, true
}

func (s *LeaderboardService) store(q leaderboard.Query, page *leaderboard.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[s.cacheKey(q)] = cachedPage{page: page, fetchedAt: time.Now()}
}
