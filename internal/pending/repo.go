package pending

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
)

// Repository manages persistence for pending transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.PendingTransaction) error
	// FindLiveByChannel returns the single row with status = 'pending' for the
	// channel, regardless of its TTL. Expiry is the service's concern.
	FindLiveByChannel(ctx context.Context, orgID uuid.UUID, channelID string) (*models.PendingTransaction, error)
	MarkStatus(ctx context.Context, orgID, id uuid.UUID, status enums.PendingStatus) error
	// Claim flips the row from pending to confirmed and reports whether this
	// caller won the flip. Losing means another confirmation got there first.
	Claim(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	// ExpireLive flips every live row of the channel to expired and reports
	// how many it touched.
	ExpireLive(ctx context.Context, orgID uuid.UUID, channelID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a pending-transactions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.PendingTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindLiveByChannel(ctx context.Context, orgID uuid.UUID, channelID string) (*models.PendingTransaction, error) {
	var entry models.PendingTransaction
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND channel_id = ? AND status = ?", orgID, channelID, enums.PendingStatusPending).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) Claim(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PendingTransaction{}).
		Where("organization_id = ? AND id = ? AND status = ?", orgID, id, enums.PendingStatusPending).
		Update("status", enums.PendingStatusConfirmed)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) MarkStatus(ctx context.Context, orgID, id uuid.UUID, status enums.PendingStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.PendingTransaction{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("status", status).Error
}

func (r *repository) ExpireLive(ctx context.Context, orgID uuid.UUID, channelID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PendingTransaction{}).
		Where("organization_id = ? AND channel_id = ? AND status = ?", orgID, channelID, enums.PendingStatusPending).
		Update("status", enums.PendingStatusExpired)
	return result.RowsAffected, result.Error
}
