package enums

import "fmt"

// PaymentMode is the channel a fee payment arrived through.
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeCheque PaymentMode = "cheque"
	PaymentModeOnline PaymentMode = "online"
)

var validPaymentModes = []PaymentMode{
	PaymentModeCash,
	PaymentModeCheque,
	PaymentModeOnline,
}

// String implements fmt.Stringer.
func (m PaymentMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMode.
func (m PaymentMode) IsValid() bool {
	for _, candidate := range validPaymentModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMode converts raw input into a PaymentMode.
func ParsePaymentMode(value string) (PaymentMode, error) {
	for _, candidate := range validPaymentModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment mode %q", value)
}
