package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/pkg/enums"
)

// Movement is one immutable line of the movement log. Rows are never updated
// or deleted; corrections append a reversal pointing back at the original.
type Movement struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID               `gorm:"column:organization_id;type:uuid;not null;index"`
	AccountID      uuid.UUID               `gorm:"column:account_id;type:uuid;not null;index"`
	Direction      enums.MovementDirection `gorm:"column:direction;not null"`
	Amount         decimal.Decimal         `gorm:"column:amount;type:numeric(18,2);not null"`
	BalanceBefore  decimal.Decimal         `gorm:"column:balance_before;type:numeric(18,2);not null"`
	BalanceAfter   decimal.Decimal         `gorm:"column:balance_after;type:numeric(18,2);not null"`
	Description    string                  `gorm:"column:description"`
	TransactionID  *uuid.UUID              `gorm:"column:transaction_id;type:uuid;index"`
	PaymentID      *uuid.UUID              `gorm:"column:payment_id;type:uuid;index"`
	ReversalOf     *uuid.UUID              `gorm:"column:reversal_of;type:uuid"`
	RecordedAt     time.Time               `gorm:"column:recorded_at;autoCreateTime"`
}
