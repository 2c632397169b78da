package enums

import "fmt"

// InvoiceKind distinguishes quotes from billable invoices.
type InvoiceKind string

const (
	InvoiceKindQuote   InvoiceKind = "quote"
	InvoiceKindInvoice InvoiceKind = "invoice"
)

var validInvoiceKinds = []InvoiceKind{
	InvoiceKindQuote,
	InvoiceKindInvoice,
}

// String implements fmt.Stringer.
func (i InvoiceKind) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InvoiceKind.
func (i InvoiceKind) IsValid() bool {
	for _, candidate := range validInvoiceKinds {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInvoiceKind converts raw input into an InvoiceKind.
func ParseInvoiceKind(value string) (InvoiceKind, error) {
	for _, candidate := range validInvoiceKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice kind %q", value)
}
