package rates

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/facturex/backend/pkg/db/models"
)

// Repository manages persistence for per-organization settings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, orgID uuid.UUID, category, key string) (*models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
	ListByCategory(ctx context.Context, orgID uuid.UUID, category string) ([]models.Setting, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, orgID uuid.UUID, category, key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND category = ? AND key = ?", orgID, category, key).
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repository) Upsert(ctx context.Context, setting *models.Setting) error {
	existing, err := r.Find(ctx, setting.OrganizationID, setting.Category, setting.Key)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.WithContext(ctx).Create(setting).Error
	}
	return r.db.WithContext(ctx).
		Model(&models.Setting{}).
		Where("id = ?", existing.ID).
		Update("value", setting.Value).Error
}

func (r *repository) ListByCategory(ctx context.Context, orgID uuid.UUID, category string) ([]models.Setting, error) {
	var settings []models.Setting
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND category = ?", orgID, category).
		Order("key ASC").
		Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
