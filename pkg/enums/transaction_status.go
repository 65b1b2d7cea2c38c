package enums

import "fmt"

// TransactionStatus tracks the lifecycle of a recorded payment attempt.
//
// pending transactions await manual reconciliation; success is the terminal
// state for gateway-verified online payments that need no manual step.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusVerified TransactionStatus = "verified"
	TransactionStatusRevoked  TransactionStatus = "revoked"
	TransactionStatusSuccess  TransactionStatus = "success"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusVerified,
	TransactionStatusRevoked,
	TransactionStatusSuccess,
}

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransactionStatus.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusVerified, TransactionStatusRevoked, TransactionStatusSuccess:
		return true
	}
	return false
}

// ParseTransactionStatus converts raw input into a TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	for _, candidate := range validTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}
