package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/pkg/enums"
)

// Account is a financial account holding a single-currency balance.
// Balance writes go through the optimistic version column; direct updates
// bypassing it are a bug.
type Account struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID         `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_accounts_org_name"`
	Name           string            `gorm:"column:name;not null;uniqueIndex:idx_accounts_org_name"`
	Type           enums.AccountType `gorm:"column:type;not null"`
	Currency       enums.Currency    `gorm:"column:currency;not null"`
	Balance        decimal.Decimal   `gorm:"column:balance;type:numeric(18,2);not null"`
	AllowNegative  bool              `gorm:"column:allow_negative;not null;default:false"`
	Active         bool              `gorm:"column:active;not null;default:true"`
	Version        int64             `gorm:"column:version;not null;default:0"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
