package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/pkg/enums"
)

// Invoice carries the billing document state. Paid accumulates raw payment
// totals and may exceed Total; Outstanding clamps for display while the raw
// figure stays auditable.
type Invoice struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID           `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_invoices_org_number"`
	Number         string              `gorm:"column:number;not null;uniqueIndex:idx_invoices_org_number"`
	ClientID       *uuid.UUID          `gorm:"column:client_id;type:uuid;index"`
	Kind           enums.InvoiceKind   `gorm:"column:kind;not null;default:'invoice'"`
	Currency       enums.Currency      `gorm:"column:currency;not null"`
	Total          decimal.Decimal     `gorm:"column:total;type:numeric(18,2);not null"`
	Paid           decimal.Decimal     `gorm:"column:paid;type:numeric(18,2);not null"`
	Status         enums.InvoiceStatus `gorm:"column:status;not null;default:'draft'"`
	Sent           bool                `gorm:"column:sent;not null;default:false"`
	DueDate        *time.Time          `gorm:"column:due_date"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Outstanding returns the remaining amount due, clamped at zero when the
// invoice is overpaid.
func (i Invoice) Outstanding() decimal.Decimal {
	out := i.Total.Sub(i.Paid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Overpaid reports whether accumulated payments exceed the invoice total.
func (i Invoice) Overpaid() bool {
	return i.Paid.GreaterThan(i.Total)
}
