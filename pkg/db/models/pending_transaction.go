package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/pkg/enums"
)

// PendingTransaction is a parsed intent awaiting confirmation from its chat
// channel. A partial unique index on (organization_id, channel_id) where
// status = 'pending' keeps at most one live entry per channel.
type PendingTransaction struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID             `gorm:"column:organization_id;type:uuid;not null;index"`
	ChannelID      string                `gorm:"column:channel_id;not null"`
	Kind           enums.TransactionKind `gorm:"column:kind;not null"`
	Amount         decimal.Decimal       `gorm:"column:amount;type:numeric(18,2);not null"`
	Currency       enums.Currency        `gorm:"column:currency;not null"`
	Motif          string                `gorm:"column:motif;not null"`
	AccountName    string                `gorm:"column:account_name;not null"`
	Category       *string               `gorm:"column:category"`
	Status         enums.PendingStatus   `gorm:"column:status;not null;default:'pending'"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt      time.Time             `gorm:"column:expires_at;not null"`
}

// Lapsed reports whether the entry is past its TTL at the given instant.
func (p PendingTransaction) Lapsed(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
