package enums

import "fmt"

// TransactionType maps to the transaction_type_enum enum in Postgres.
type TransactionType string

const (
	TransactionTypeTopup          TransactionType = "TOPUP"
	TransactionTypePurchase       TransactionType = "PURCHASE"
	TransactionTypeRefund         TransactionType = "REFUND"
	TransactionTypeBonus          TransactionType = "BONUS"
	TransactionTypePointsEarned   TransactionType = "POINTS_EARNED"
	TransactionTypePointsRedeemed TransactionType = "POINTS_REDEEMED"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeTopup,
	TransactionTypePurchase,
	TransactionTypeRefund,
	TransactionTypeBonus,
	TransactionTypePointsEarned,
	TransactionTypePointsRedeemed,
}

// IsValid reports whether the value matches the canonical transaction type enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
