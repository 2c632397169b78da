package enums

import "fmt"

// PendingStatus tracks the lifecycle of a machine-proposed transaction.
// pending is the only live state; the other three are terminal.
type PendingStatus string

const (
	PendingStatusPending   PendingStatus = "pending"
	PendingStatusConfirmed PendingStatus = "confirmed"
	PendingStatusCancelled PendingStatus = "cancelled"
	PendingStatusExpired   PendingStatus = "expired"
)

var validPendingStatuses = []PendingStatus{
	PendingStatusPending,
	PendingStatusConfirmed,
	PendingStatusCancelled,
	PendingStatusExpired,
}

// String implements fmt.Stringer.
func (p PendingStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PendingStatus.
func (p PendingStatus) IsValid() bool {
	for _, candidate := range validPendingStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePendingStatus converts raw input into a PendingStatus.
func ParsePendingStatus(value string) (PendingStatus, error) {
	for _, candidate := range validPendingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pending status %q", value)
}
