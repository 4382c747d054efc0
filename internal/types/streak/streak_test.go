package streak

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountabuddyAPI/internal/gamerr"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAdvanceFirstActivity(t *testing.T) {
	userID := uuid.New()

	next, isNewDay, err := Advance(nil, userID, day("2026-03-01"))
	require.NoError(t, err)

	assert.True(t, isNewDay)
	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, 1, next.LongestStreak)
	require.NotNil(t, next.LastActivityDate)
	assert.Equal(t, day("2026-03-01"), *next.LastActivityDate)
}

func TestAdvanceConsecutiveDay(t *testing.T) {
	userID := uuid.New()
	last := day("2026-03-01")
	prev := &StreakState{UserID: userID, CurrentStreak: 5, LongestStreak: 9, LastActivityDate: &last}

	next, isNewDay, err := Advance(prev, userID, day("2026-03-02"))
	require.NoError(t, err)

	assert.True(t, isNewDay)
	assert.Equal(t, 6, next.CurrentStreak)
	assert.Equal(t, 9, next.LongestStreak)
}

func TestAdvanceUpdatesLongest(t *testing.T) {
	userID := uuid.New()
	last := day("2026-03-01")
	prev := &StreakState{UserID: userID, CurrentStreak: 9, LongestStreak: 9, LastActivityDate: &last}

	next, _, err := Advance(prev, userID, day("2026-03-02"))
	require.NoError(t, err)

	assert.Equal(t, 10, next.CurrentStreak)
	assert.Equal(t, 10, next.LongestStreak)
}

func TestAdvanceSameDayIsIdempotent(t *testing.T) {
	userID := uuid.New()
	last := day("2026-03-01")
	prev := &StreakState{UserID: userID, CurrentStreak: 5, LongestStreak: 9, LastActivityDate: &last}

	next, isNewDay, err := Advance(prev, userID, day("2026-03-01"))
	require.NoError(t, err)

	assert.False(t, isNewDay)
	assert.Equal(t, *prev, next)

	// same calendar day at a different clock time still counts as a repeat
	next, isNewDay, err = Advance(prev, userID, day("2026-03-01").Add(23*time.Hour))
	require.NoError(t, err)
	assert.False(t, isNewDay)
	assert.Equal(t, 5, next.CurrentStreak)
}

func TestAdvanceGapResetsStreak(t *testing.T) {
	userID := uuid.New()
	last := day("2026-03-01")
	prev := &StreakState{UserID: userID, CurrentStreak: 12, LongestStreak: 12, LastActivityDate: &last}

	next, isNewDay, err := Advance(prev, userID, day("2026-03-04"))
	require.NoError(t, err)

	assert.True(t, isNewDay)
	assert.Equal(t, 1, next.CurrentStreak)
	// longest survives the reset
	assert.Equal(t, 12, next.LongestStreak)
}

func TestAdvanceRejectsBackdatedActivity(t *testing.T) {
	userID := uuid.New()
	last := day("2026-03-10")
	prev := &StreakState{UserID: userID, CurrentStreak: 3, LongestStreak: 3, LastActivityDate: &last}

	next, isNewDay, err := Advance(prev, userID, day("2026-03-08"))
	require.Error(t, err)
	assert.ErrorIs(t, err, gamerr.ErrOrdering)

	// state comes back unchanged on rejection
	assert.False(t, isNewDay)
	assert.Equal(t, 3, next.CurrentStreak)
}

func TestDayOfNormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2026, 3, 1, 2, 30, 0, 0, loc)

	// 02:30 at UTC+5 is still Feb 28 in UTC
	assert.Equal(t, day("2026-02-28"), DayOf(local))
}
