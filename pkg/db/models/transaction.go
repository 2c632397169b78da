package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/pkg/enums"
)

// Transaction is the business-level record behind one or two movements.
// The exchange rates and fee in force at creation are snapshotted on the row
// so later rate changes never rewrite history.
type Transaction struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID  uuid.UUID               `gorm:"column:organization_id;type:uuid;not null;index"`
	Kind            enums.TransactionKind   `gorm:"column:kind;not null"`
	Status          enums.TransactionStatus `gorm:"column:status;not null;default:'settled'"`
	Amount          decimal.Decimal         `gorm:"column:amount;type:numeric(18,2);not null"`
	Currency        enums.Currency          `gorm:"column:currency;not null"`
	Motif           string                  `gorm:"column:motif;not null"`
	Category        *string                 `gorm:"column:category"`
	SourceAccountID *uuid.UUID              `gorm:"column:source_account_id;type:uuid"`
	DestAccountID   *uuid.UUID              `gorm:"column:dest_account_id;type:uuid"`
	Fee             decimal.Decimal         `gorm:"column:fee;type:numeric(18,2);not null"`
	Benefit         decimal.Decimal         `gorm:"column:benefit;type:numeric(18,2);not null"`
	AmountCNY       decimal.NullDecimal     `gorm:"column:amount_cny;type:numeric(18,2)"`
	RateUSDToCDF    decimal.Decimal         `gorm:"column:rate_usd_cdf;type:numeric(18,6);not null"`
	RateUSDToCNY    decimal.Decimal         `gorm:"column:rate_usd_cny;type:numeric(18,6);not null"`
	PaymentMethod   *enums.PaymentMethod    `gorm:"column:payment_method"`
	Notes           *string                 `gorm:"column:notes"`
	OccurredAt      time.Time               `gorm:"column:occurred_at;not null"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
