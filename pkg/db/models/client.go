package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is the counterparty an invoice or payment is attributed to.
type Client struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	Phone          *string   `gorm:"column:phone"`
	City           *string   `gorm:"column:city"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
