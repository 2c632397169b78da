package invoices

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
)

// Repository manages persistence for invoices.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, orgID uuid.UUID, status *enums.InvoiceStatus) ([]models.Invoice, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status enums.InvoiceStatus) error
	UpdatePaid(ctx context.Context, orgID, id uuid.UUID, paid decimal.Decimal) error
	SetSent(ctx context.Context, orgID, id uuid.UUID, sent bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoices repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, status *enums.InvoiceStatus) ([]models.Invoice, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var out []models.Invoice
	if err := query.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status enums.InvoiceStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("status", status).Error
}

func (r *repository) UpdatePaid(ctx context.Context, orgID, id uuid.UUID, paid decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("paid", paid).Error
}

func (r *repository) SetSent(ctx context.Context, orgID, id uuid.UUID, sent bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("sent", sent).Error
}
