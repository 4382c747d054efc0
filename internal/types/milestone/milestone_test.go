package milestone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckExactThreshold(t *testing.T) {
	reward := Check(7)
	assert.Equal(t, BadgeStreak7, reward.BadgeID)
	assert.Equal(t, 50, reward.BonusXP)
}

func TestCheckOnlyPaysOnCrossingDay(t *testing.T) {
	// day 8 of a streak is past the day-7 milestone, not on it
	assert.Equal(t, Reward{}, Check(8))
	assert.Equal(t, Reward{}, Check(0))
	assert.Equal(t, Reward{}, Check(1))
	assert.Equal(t, Reward{}, Check(99))
	assert.Equal(t, Reward{}, Check(101))
}

func TestCheckFullTable(t *testing.T) {
	expected := map[int]Reward{
		3:   {BadgeID: BadgeStreak3, BonusXP: 25},
		7:   {BadgeID: BadgeStreak7, BonusXP: 50},
		14:  {BadgeID: BadgeStreak14, BonusXP: 75},
		30:  {BadgeID: BadgeStreak30, BonusXP: 100},
		100: {BadgeID: BadgeStreak100, BonusXP: 200},
	}

	for threshold, want := range expected {
		assert.Equal(t, want, Check(threshold), "threshold %d", threshold)
	}
}

func TestTableIsAscending(t *testing.T) {
	for i := 1; i < len(Table); i++ {
		assert.Greater(t, Table[i].Threshold, Table[i-1].Threshold)
	}
}
