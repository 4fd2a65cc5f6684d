package enums

import "fmt"

// WalletTransactionType marks the direction of a wallet transaction.
type WalletTransactionType string

const (
	WalletTransactionTypeCashback   WalletTransactionType = "cashback"
	WalletTransactionTypeWithdrawal WalletTransactionType = "withdrawal"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionTypeCashback,
	WalletTransactionTypeWithdrawal,
}

// String implements fmt.Stringer.
func (w WalletTransactionType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (w WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}
