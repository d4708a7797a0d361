package rewards

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
)

type fixedSource struct {
	value float64
}

func (f fixedSource) Draw() (float64, error) { return f.value, nil }

func catalog(probabilities ...float64) []models.Reward {
	rewards := make([]models.Reward, 0, len(probabilities))
	for i, p := range probabilities {
		rewards = append(rewards, models.Reward{
			ID:          uuid.New(),
			Name:        string(rune('A' + i)),
			Type:        enums.RewardTypePoints,
			Probability: p,
			Position:    i,
		})
	}
	return rewards
}

func TestPick_selectsByCumulativeWeight(t *testing.T) {
	rewards := catalog(0.5, 0.3, 0.2)

	cases := []struct {
		draw float64
		want string
	}{
		{0.0, "A"},
		{0.49, "A"},
		{0.5, "B"},
		{0.79, "B"},
		{0.8, "C"},
		{0.999, "C"},
	}
	for _, tc := range cases {
		picked, err := Pick(rewards, fixedSource{tc.draw})
		require.NoError(t, err)
		assert.Equal(t, tc.want, picked.Name, "draw %v", tc.draw)
	}
}

// A catalog summing to 0.9 still always yields a winner: the draw is scaled
// by the actual total, never compared against an assumed 1.0.
func TestPick_normalizesAgainstActualTotal(t *testing.T) {
	rewards := catalog(0.6, 0.3)

	picked, err := Pick(rewards, fixedSource{0.99})
	require.NoError(t, err)
	assert.Equal(t, "B", picked.Name)

	// 0.99 * 0.9 = 0.891, past the 0.6 boundary.
	picked, err = Pick(rewards, fixedSource{0.6})
	require.NoError(t, err)
	assert.Equal(t, "A", picked.Name, "0.6 * 0.9 = 0.54 lands in the first segment")
}

func TestPick_skipsZeroWeightEntries(t *testing.T) {
	rewards := catalog(0, 1.0, 0)

	for _, draw := range []float64{0, 0.5, 0.999} {
		picked, err := Pick(rewards, fixedSource{draw})
		require.NoError(t, err)
		assert.Equal(t, "B", picked.Name)
	}
}

func TestPick_zeroTotalWeight(t *testing.T) {
	_, err := Pick(catalog(0, 0), fixedSource{0.5})
	assert.ErrorIs(t, err, ErrNoSpinnableRewards)

	_, err = Pick(nil, fixedSource{0.5})
	assert.ErrorIs(t, err, ErrNoSpinnableRewards)
}

func TestCryptoSource_rangeAndVariation(t *testing.T) {
	source := CryptoSource{}

	seen := map[float64]bool{}
	for i := 0; i < 64; i++ {
		draw, err := source.Draw()
		require.NoError(t, err)
		require.GreaterOrEqual(t, draw, 0.0)
		require.Less(t, draw, 1.0)
		seen[draw] = true
	}
	assert.Greater(t, len(seen), 1, "64 draws should not collapse to one value")
}
