package enums

import "fmt"

// PaymentTarget identifies the entity a payment settles against.
type PaymentTarget string

const (
	PaymentTargetInvoice PaymentTarget = "invoice"
	PaymentTargetParcel  PaymentTarget = "parcel"
)

var validPaymentTargets = []PaymentTarget{
	PaymentTargetInvoice,
	PaymentTargetParcel,
}

// String implements fmt.Stringer.
func (p PaymentTarget) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentTarget.
func (p PaymentTarget) IsValid() bool {
	for _, candidate := range validPaymentTargets {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentTarget converts raw input into a PaymentTarget.
func ParsePaymentTarget(value string) (PaymentTarget, error) {
	for _, candidate := range validPaymentTargets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment target %q", value)
}
