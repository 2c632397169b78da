package models

import (
	"time"

	"github.com/google/uuid"
)

// Setting stores a per-organization override for exchange rates and fee
// percents. Lookups fall back to configured defaults when no row exists.
type Setting struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_settings_org_cat_key"`
	Category       string    `gorm:"column:category;not null;uniqueIndex:idx_settings_org_cat_key"`
	Key            string    `gorm:"column:key;not null;uniqueIndex:idx_settings_org_cat_key"`
	Value          string    `gorm:"column:value;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Setting categories.
const (
	SettingCategoryRates = "rates"
	SettingCategoryFees  = "fees"
)

// Setting keys.
const (
	SettingKeyUSDToCDF    = "usd_to_cdf"
	SettingKeyUSDToCNY    = "usd_to_cny"
	SettingKeyTransferFee = "transfer_fee_percent"
	SettingKeyOrderFee    = "order_fee_percent"
	SettingKeyPartnerFee  = "partner_fee_percent"
)
