package movements

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/facturex/backend/internal/accounts"
	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/metrics"
)

type balanceStore interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Account, error)
	ApplyDelta(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID, delta decimal.Decimal) (accounts.BalanceChange, error)
}

// Service appends movements to the log and keeps the account balance and the
// log telling the same story.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.Movement, error)
	Reverse(ctx context.Context, tx *gorm.DB, orgID, movementID uuid.UUID, description string) (*models.Movement, error)
	ListByAccount(ctx context.Context, orgID, accountID uuid.UUID) ([]models.Movement, error)
	ListByTransaction(ctx context.Context, orgID, transactionID uuid.UUID) ([]models.Movement, error)
	ListByPayment(ctx context.Context, orgID, paymentID uuid.UUID) ([]models.Movement, error)
	Replay(ctx context.Context, orgID, accountID uuid.UUID) (ReplayResult, error)
}

// RecordInput captures one movement to append.
type RecordInput struct {
	OrganizationID uuid.UUID
	AccountID      uuid.UUID
	Direction      enums.MovementDirection
	Amount         decimal.Decimal
	Description    string
	TransactionID  *uuid.UUID
	PaymentID      *uuid.UUID
	ReversalOf     *uuid.UUID
}

// ReplayResult is the outcome of recomputing an account from its movements.
type ReplayResult struct {
	ComputedBalance decimal.Decimal `json:"computed_balance"`
	StoredBalance   decimal.Decimal `json:"stored_balance"`
	MovementCount   int             `json:"movement_count"`
	Consistent      bool            `json:"consistent"`
}

type service struct {
	repo     Repository
	balances balanceStore
	metrics  *metrics.LedgerMetrics
}

// NewService wires a movements service with its repository and the account
// store used for balance writes.
func NewService(repo Repository, balances balanceStore, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movements repository required")
	}
	if balances == nil {
		return nil, fmt.Errorf("balance store required")
	}
	return &service{repo: repo, balances: balances, metrics: ledgerMetrics}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.Movement, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if !input.Direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid direction %q", input.Direction))
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	delta := input.Amount
	if input.Direction == enums.MovementDirectionDebit {
		delta = delta.Neg()
	}

	change, err := s.balances.ApplyDelta(ctx, tx, input.OrganizationID, input.AccountID, delta)
	if err != nil {
		return nil, err
	}

	movement := &models.Movement{
		OrganizationID: input.OrganizationID,
		AccountID:      input.AccountID,
		Direction:      input.Direction,
		Amount:         input.Amount,
		BalanceBefore:  change.Before,
		BalanceAfter:   change.After,
		Description:    input.Description,
		TransactionID:  input.TransactionID,
		PaymentID:      input.PaymentID,
		ReversalOf:     input.ReversalOf,
	}
	if err := s.repo.WithTx(tx).Create(ctx, movement); err != nil {
		return nil, err
	}
	s.metrics.IncMovement(input.Direction.String())
	return movement, nil
}

func (s *service) Reverse(ctx context.Context, tx *gorm.DB, orgID, movementID uuid.UUID, description string) (*models.Movement, error) {
	original, err := s.repo.WithTx(tx).FindByID(ctx, orgID, movementID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "movement not found")
	}

	return s.Record(ctx, tx, RecordInput{
		OrganizationID: orgID,
		AccountID:      original.AccountID,
		Direction:      original.Direction.Opposite(),
		Amount:         original.Amount,
		Description:    description,
		TransactionID:  original.TransactionID,
		PaymentID:      original.PaymentID,
		ReversalOf:     &original.ID,
	})
}

func (s *service) ListByAccount(ctx context.Context, orgID, accountID uuid.UUID) ([]models.Movement, error) {
	return s.repo.ListByAccount(ctx, orgID, accountID)
}

func (s *service) ListByTransaction(ctx context.Context, orgID, transactionID uuid.UUID) ([]models.Movement, error) {
	return s.repo.ListByTransaction(ctx, orgID, transactionID)
}

func (s *service) ListByPayment(ctx context.Context, orgID, paymentID uuid.UUID) ([]models.Movement, error) {
	return s.repo.ListByPayment(ctx, orgID, paymentID)
}

// Replay recomputes the balance from zero over the full movement history and
// compares it against the stored account balance. Every row must also agree
// with its own recorded before/after pair.
func (s *service) Replay(ctx context.Context, orgID, accountID uuid.UUID) (ReplayResult, error) {
	account, err := s.balances.Get(ctx, orgID, accountID)
	if err != nil {
		return ReplayResult{}, err
	}

	history, err := s.repo.ListByAccount(ctx, orgID, accountID)
	if err != nil {
		return ReplayResult{}, err
	}

	computed := decimal.Zero
	consistent := true
	for _, movement := range history {
		step := movement.Amount
		if movement.Direction == enums.MovementDirectionDebit {
			step = step.Neg()
		}
		expected := movement.BalanceBefore.Add(step)
		if !expected.Equal(movement.BalanceAfter) {
			consistent = false
		}
		computed = computed.Add(step)
	}

	// Opening balances predate the log, so replay starts from the earliest
	// recorded before-balance instead of a hard zero.
	if len(history) > 0 {
		computed = computed.Add(history[0].BalanceBefore)
	} else {
		computed = account.Balance
	}

	if !computed.Equal(account.Balance) {
		consistent = false
	}
	return ReplayResult{
		ComputedBalance: computed,
		StoredBalance:   account.Balance,
		MovementCount:   len(history),
		Consistent:      consistent,
	}, nil
}
