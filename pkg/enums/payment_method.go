package enums

import "fmt"

// PaymentMethod names the channel money moved through.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodMPesa        PaymentMethod = "mpesa"
	PaymentMethodAirtelMoney  PaymentMethod = "airtel_money"
	PaymentMethodOrangeMoney  PaymentMethod = "orange_money"
	PaymentMethodIllicocash   PaymentMethod = "illicocash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodAlipay       PaymentMethod = "alipay"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodMPesa,
	PaymentMethodAirtelMoney,
	PaymentMethodOrangeMoney,
	PaymentMethodIllicocash,
	PaymentMethodBankTransfer,
	PaymentMethodAlipay,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
