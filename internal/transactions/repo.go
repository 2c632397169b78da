package transactions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	"github.com/facturex/backend/pkg/pagination"
)

// ListFilter narrows a transaction listing.
type ListFilter struct {
	Kind     *enums.TransactionKind
	Status   *enums.TransactionStatus
	Currency *enums.Currency
}

// Repository manages persistence for transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transaction *models.Transaction) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status enums.TransactionStatus) error
	List(ctx context.Context, orgID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transactions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&transaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status enums.TransactionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("status", status).Error
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Currency != nil {
		query = query.Where("currency = ?", *filter.Currency)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var out []models.Transaction
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
