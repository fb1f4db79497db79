package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedScore(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedScore(1200, 1200), 1e-9)
	assert.InDelta(t, 0.7597, ExpectedScore(1200, 1000), 1e-4)
	assert.InDelta(t, 0.2403, ExpectedScore(1000, 1200), 1e-4)
}

func TestForWin_Underdog(t *testing.T) {
	// 1000-rated player beats a 1200-rated player.
	u := ForWin(1000, 1200)

	assert.Equal(t, 1000, u.Player1Old)
	assert.Equal(t, 1024, u.Player1New)
	assert.Equal(t, 1200, u.Player2Old)
	assert.Equal(t, 1192, u.Player2New)
}

func TestForWin_Favorite(t *testing.T) {
	u := ForWin(1200, 1000)

	assert.Equal(t, 1208, u.Player1New)
	assert.Equal(t, 992, u.Player2New)
}

func TestForWin_EqualRatings(t *testing.T) {
	u := ForWin(1500, 1500)

	assert.Equal(t, 1516, u.Player1New)
	assert.Equal(t, 1484, u.Player2New)
}

func TestForDraw_EqualRatings(t *testing.T) {
	u := ForDraw(1000, 1000)

	assert.Equal(t, 1000, u.Player1New)
	assert.Equal(t, 1000, u.Player2New)
}

func TestForDraw_MismatchedRatings(t *testing.T) {
	// The lower-rated side gains, the higher-rated side loses, symmetrically.
	u := ForDraw(1000, 1200)

	assert.Equal(t, 1008, u.Player1New)
	assert.Equal(t, 1192, u.Player2New)
	assert.Equal(t, u.Player1New-u.Player1Old, -(u.Player2New - u.Player2Old))
}

func TestNewRating_Rounding(t *testing.T) {
	// 32 * (1 - 0.5) = 16 exactly.
	assert.Equal(t, 1216, NewRating(1200, 0.5, ScoreWin))
	// Loss from an even position.
	assert.Equal(t, 1184, NewRating(1200, 0.5, ScoreLoss))
}
