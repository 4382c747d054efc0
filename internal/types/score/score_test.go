package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLevel(t *testing.T) {
	tests := []struct {
		name   string
		points int
		want   int
	}{
		{"zero points is level 1", 0, 1},
		{"just under first threshold", 99, 1},
		{"exactly at threshold levels up", 100, 2},
		{"mid level 3", 250, 3},
		{"high balance", 1000, 11},
		{"negative treated as zero", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeLevel(tt.points))
		})
	}
}

func TestApplyDelta(t *testing.T) {
	assert.Equal(t, 130, ApplyDelta(120, 10))
	assert.Equal(t, 20, ApplyDelta(120, -100))

	// deductions clamp at zero instead of going negative
	assert.Equal(t, 0, ApplyDelta(120, -200))
	assert.Equal(t, 0, ApplyDelta(0, -1))
}

func TestApplyDeltaThenLevel(t *testing.T) {
	// a clamped deduction drops the user back to level 1
	points := ApplyDelta(120, -200)
	assert.Equal(t, 0, points)
	assert.Equal(t, 1, ComputeLevel(points))
}

func TestPointsToNext(t *testing.T) {
	// 150 points sits in level 2, which ends at 200
	assert.Equal(t, 50, PointsToNext(150))

	// a fresh account needs a full level worth of points
	assert.Equal(t, PointsPerLevel, PointsToNext(0))

	// landing exactly on a threshold starts the next full level
	assert.Equal(t, 100, PointsToNext(100))
	assert.Equal(t, 100, PointsToNext(200))

	assert.Equal(t, 1, PointsToNext(99))
}
