package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/facturex/backend/pkg/db/models"
)

// Repository manages persistence for financial accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Account, error)
	FindByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Account, error)
	List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Account, error)
	// CompareAndSwapBalance updates the balance only when the stored version
	// still matches. It reports false when another writer got there first.
	CompareAndSwapBalance(ctx context.Context, orgID, id uuid.UUID, balance decimal.Decimal, expectedVersion int64) (bool, error)
	SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an accounts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND name = ?", orgID, name).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Account, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	var accounts []models.Account
	if err := query.Order("name ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) CompareAndSwapBalance(ctx context.Context, orgID, id uuid.UUID, balance decimal.Decimal, expectedVersion int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("organization_id = ? AND id = ? AND version = ?", orgID, id, expectedVersion).
		Updates(map[string]any{
			"balance": balance,
			"version": expectedVersion + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("active", active).Error
}
