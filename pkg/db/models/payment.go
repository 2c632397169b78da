package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/pkg/enums"
)

// Payment is money received against an invoice or a parcel. Deleting a
// payment reverses its movement rather than erasing the row.
type Payment struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID           `gorm:"column:organization_id;type:uuid;not null;index"`
	Target         enums.PaymentTarget `gorm:"column:target;not null"`
	InvoiceID      *uuid.UUID          `gorm:"column:invoice_id;type:uuid;index"`
	ParcelID       *uuid.UUID          `gorm:"column:parcel_id;type:uuid;index"`
	ClientID       *uuid.UUID          `gorm:"column:client_id;type:uuid"`
	AccountID      uuid.UUID           `gorm:"column:account_id;type:uuid;not null"`
	Method         enums.PaymentMethod `gorm:"column:method;not null"`
	Amount         decimal.Decimal     `gorm:"column:amount;type:numeric(18,2);not null"`
	Currency       enums.Currency      `gorm:"column:currency;not null"`
	Notes          *string             `gorm:"column:notes"`
	Reversed       bool                `gorm:"column:reversed;not null;default:false"`
	PaidAt         time.Time           `gorm:"column:paid_at;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
