package enums

import "fmt"

// RewardType decides which ledger value a reward payout credits.
type RewardType string

const (
	RewardTypePoints  RewardType = "POINTS"
	RewardTypeBalance RewardType = "BALANCE"
)

var validRewardTypes = []RewardType{
	RewardTypePoints,
	RewardTypeBalance,
}

// IsValid reports whether the value matches the canonical reward type enum.
func (t RewardType) IsValid() bool {
	for _, candidate := range validRewardTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseRewardType converts raw input into RewardType.
func ParseRewardType(value string) (RewardType, error) {
	for _, candidate := range validRewardTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reward type %q", value)
}
