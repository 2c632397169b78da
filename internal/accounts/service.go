package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/facturex/backend/pkg/db"
	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
)

// Service defines the account store operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Account, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Account, error)
	GetByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Account, error)
	GetBalance(ctx context.Context, orgID, id uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Account, error)
	Deactivate(ctx context.Context, orgID, id uuid.UUID) error
	// ApplyDelta adjusts an account balance inside the caller's transaction
	// and returns the balance before and after. The write is optimistic: a
	// concurrent writer surfaces as a Conflict error the caller may retry.
	ApplyDelta(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID, delta decimal.Decimal) (BalanceChange, error)
}

// CreateInput captures the data needed to open an account.
type CreateInput struct {
	OrganizationID uuid.UUID
	Name           string
	Type           enums.AccountType
	Currency       enums.Currency
	OpeningBalance decimal.Decimal
	AllowNegative  bool
}

// BalanceChange reports the balance on either side of one applied delta.
type BalanceChange struct {
	Before decimal.Decimal
	After  decimal.Decimal
}

type service struct {
	repo Repository
}

// NewService wires an accounts service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Account, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account name is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid account type %q", input.Type))
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}
	if input.OpeningBalance.IsNegative() && !input.AllowNegative {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening balance cannot be negative")
	}

	account := &models.Account{
		OrganizationID: input.OrganizationID,
		Name:           input.Name,
		Type:           input.Type,
		Currency:       input.Currency,
		Balance:        input.OpeningBalance,
		AllowNegative:  input.AllowNegative,
		Active:         true,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if db.IsUniqueViolation(err, "idx_accounts_org_name") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "account name already in use")
		}
		return nil, err
	}
	return account, nil
}

func (s *service) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return account, nil
}

func (s *service) GetByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Account, error) {
	account, err := s.repo.FindByName(ctx, orgID, name)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("account %q not found", name))
	}
	return account, nil
}

func (s *service) GetBalance(ctx context.Context, orgID, id uuid.UUID) (decimal.Decimal, error) {
	account, err := s.Get(ctx, orgID, id)
	if err != nil {
		return decimal.Zero, err
	}
	if !account.Active {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "account is inactive")
	}
	return account.Balance, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Account, error) {
	return s.repo.List(ctx, orgID, includeInactive)
}

func (s *service) Deactivate(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.Get(ctx, orgID, id); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, orgID, id, false)
}

func (s *service) ApplyDelta(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID, delta decimal.Decimal) (BalanceChange, error) {
	repo := s.repo.WithTx(tx)

	account, err := repo.FindByID(ctx, orgID, id)
	if err != nil {
		return BalanceChange{}, err
	}
	if account == nil {
		return BalanceChange{}, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	if !account.Active {
		return BalanceChange{}, pkgerrors.New(pkgerrors.CodeValidation, "account is inactive")
	}

	after := account.Balance.Add(delta)
	if after.IsNegative() && !account.AllowNegative {
		return BalanceChange{}, pkgerrors.New(pkgerrors.CodeValidation, "insufficient funds").
			WithDetails(map[string]any{
				"account_id": account.ID,
				"balance":    account.Balance.String(),
				"delta":      delta.String(),
			})
	}

	swapped, err := repo.CompareAndSwapBalance(ctx, orgID, id, after, account.Version)
	if err != nil {
		return BalanceChange{}, err
	}
	if !swapped {
		return BalanceChange{}, pkgerrors.New(pkgerrors.CodeConflict, "account balance changed concurrently")
	}
	return BalanceChange{Before: account.Balance, After: after}, nil
}
