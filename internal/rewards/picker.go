package rewards

import (
	"crypto/rand"
	"encoding/binary"
	"errors"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
)

// ErrNoSpinnableRewards signals the active catalog is empty or carries no
// positive weight, so no draw can be made.
var ErrNoSpinnableRewards = errors.New("no spinnable rewards")

// Source yields a uniform draw in [0, 1). Production uses the crypto source;
// tests substitute fixed values to pin down which segment wins.
type Source interface {
	Draw() (float64, error)
}

// CryptoSource draws from crypto/rand.
type CryptoSource struct{}

func (CryptoSource) Draw() (float64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	// 53 bits of entropy, the full precision of a float64 mantissa.
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53), nil
}

// Pick selects one reward by cumulative weight. Weights are normalized
// against their actual sum, so a catalog whose probabilities add up to 0.9
// or 1.2 still distributes draws proportionally. Non-positive weights get a
// zero-width segment and can never win.
func Pick(rewards []models.Reward, source Source) (*models.Reward, error) {
	var total float64
	for _, reward := range rewards {
		if reward.Probability > 0 {
			total += reward.Probability
		}
	}
	if total <= 0 {
		return nil, ErrNoSpinnableRewards
	}

	draw, err := source.Draw()
	if err != nil {
		return nil, err
	}
	target := draw * total

	var cumulative float64
	for i := range rewards {
		if rewards[i].Probability <= 0 {
			continue
		}
		cumulative += rewards[i].Probability
		if target < cumulative {
			return &rewards[i], nil
		}
	}
	// Float rounding can leave target a hair past the last boundary; the
	// final weighted segment absorbs it.
	for i := len(rewards) - 1; i >= 0; i-- {
		if rewards[i].Probability > 0 {
			return &rewards[i], nil
		}
	}
	return nil, ErrNoSpinnableRewards
}
