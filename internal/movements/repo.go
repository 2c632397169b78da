package movements

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/facturex/backend/pkg/db/models"
)

// Repository appends to and reads from the movement log. There is no update
// or delete: corrections go through reversals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, movement *models.Movement) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Movement, error)
	ListByAccount(ctx context.Context, orgID, accountID uuid.UUID) ([]models.Movement, error)
	ListByTransaction(ctx context.Context, orgID, transactionID uuid.UUID) ([]models.Movement, error)
	ListByPayment(ctx context.Context, orgID, paymentID uuid.UUID) ([]models.Movement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a movements repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, movement *models.Movement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Movement, error) {
	var movement models.Movement
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&movement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) ListByAccount(ctx context.Context, orgID, accountID uuid.UUID) ([]models.Movement, error) {
	return r.list(ctx, "organization_id = ? AND account_id = ?", orgID, accountID)
}

func (r *repository) ListByTransaction(ctx context.Context, orgID, transactionID uuid.UUID) ([]models.Movement, error) {
	return r.list(ctx, "organization_id = ? AND transaction_id = ?", orgID, transactionID)
}

func (r *repository) ListByPayment(ctx context.Context, orgID, paymentID uuid.UUID) ([]models.Movement, error) {
	return r.list(ctx, "organization_id = ? AND payment_id = ?", orgID, paymentID)
}

func (r *repository) list(ctx context.Context, where string, args ...any) ([]models.Movement, error) {
	var out []models.Movement
	if err := r.db.WithContext(ctx).
		Where(where, args...).
		Order("recorded_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
