package enums

import "fmt"

// MovementDirection indicates whether a movement increases or decreases a balance.
type MovementDirection string

const (
	MovementDirectionCredit MovementDirection = "credit"
	MovementDirectionDebit  MovementDirection = "debit"
)

var validMovementDirections = []MovementDirection{
	MovementDirectionCredit,
	MovementDirectionDebit,
}

// String implements fmt.Stringer.
func (m MovementDirection) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementDirection.
func (m MovementDirection) IsValid() bool {
	for _, candidate := range validMovementDirections {
		if candidate == m {
			return true
		}
	}
	return false
}

// Opposite returns the reversing direction.
func (m MovementDirection) Opposite() MovementDirection {
	if m == MovementDirectionCredit {
		return MovementDirectionDebit
	}
	return MovementDirectionCredit
}

// ParseMovementDirection converts raw input into a MovementDirection.
func ParseMovementDirection(value string) (MovementDirection, error) {
	for _, candidate := range validMovementDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement direction %q", value)
}
