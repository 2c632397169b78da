package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/facturex/backend/internal/movements"
	"github.com/facturex/backend/internal/rates"
	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/metrics"
	"github.com/facturex/backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type accountLoader interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Account, error)
}

type rateSource interface {
	Snapshot(ctx context.Context, orgID uuid.UUID) (rates.Snapshot, error)
}

// Service is the only write path for transactions. Every create or delete
// settles atomically: the transaction row and its movement legs land together
// or not at all.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Transaction, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, orgID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Transaction, string, error)
	// Delete reverses the transaction's movements and marks it reversed.
	// Rows are never hard-deleted.
	Delete(ctx context.Context, orgID, id uuid.UUID) (*models.Transaction, error)
}

// CreateInput captures one business transaction to record.
type CreateInput struct {
	OrganizationID  uuid.UUID
	Kind            enums.TransactionKind
	Amount          decimal.Decimal
	Currency        enums.Currency
	Motif           string
	Category        *string
	SourceAccountID *uuid.UUID
	DestAccountID   *uuid.UUID
	// Fee overrides the derived commission when set.
	Fee           *decimal.Decimal
	PaymentMethod *enums.PaymentMethod
	Notes         *string
	OccurredAt    time.Time
}

type service struct {
	tx       txRunner
	repo     Repository
	moves    movements.Service
	accounts accountLoader
	rates    rateSource
	metrics  *metrics.LedgerMetrics
}

// NewService wires the transaction engine with its collaborators.
func NewService(tx txRunner, repo Repository, moves movements.Service, accounts accountLoader, rateSvc rateSource, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if moves == nil {
		return nil, fmt.Errorf("movements service required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account loader required")
	}
	if rateSvc == nil {
		return nil, fmt.Errorf("rates service required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		moves:    moves,
		accounts: accounts,
		rates:    rateSvc,
		metrics:  ledgerMetrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Transaction, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation("transaction_create", time.Since(started)) }()

	if err := s.validateCreate(ctx, &input); err != nil {
		return nil, err
	}

	snapshot, err := s.rates.Snapshot(ctx, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	fee := s.deriveFee(input, snapshot)
	if fee.GreaterThan(input.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee cannot exceed the amount")
	}

	transaction := buildTransaction(input, snapshot, fee)

	// A lost balance race rolls the whole unit back; one retry re-reads the
	// fresh balances before giving up.
	err = s.runWithConflictRetry(ctx, func(tx *gorm.DB) error {
		transaction.ID = uuid.Nil
		if err := s.repo.WithTx(tx).Create(ctx, transaction); err != nil {
			return err
		}
		return s.emitMovements(ctx, tx, transaction)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *service) validateCreate(ctx context.Context, input *CreateInput) error {
	if input.OrganizationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if !input.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction kind %q", input.Kind))
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}
	if input.Motif == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "motif is required")
	}
	if input.Fee != nil && input.Fee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "fee cannot be negative")
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", *input.PaymentMethod))
	}
	if input.OccurredAt.IsZero() {
		input.OccurredAt = time.Now().UTC()
	}

	switch input.Kind {
	case enums.TransactionKindRevenue:
		if input.DestAccountID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "revenue requires a destination account")
		}
	case enums.TransactionKindExpense:
		if input.SourceAccountID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "expense requires a source account")
		}
	case enums.TransactionKindTransfer:
		if input.SourceAccountID == nil || input.DestAccountID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "transfer requires source and destination accounts")
		}
		if *input.SourceAccountID == *input.DestAccountID {
			return pkgerrors.New(pkgerrors.CodeValidation, "transfer accounts must differ")
		}
	}

	for _, accountID := range []*uuid.UUID{input.SourceAccountID, input.DestAccountID} {
		if accountID == nil {
			continue
		}
		account, err := s.accounts.Get(ctx, input.OrganizationID, *accountID)
		if err != nil {
			return err
		}
		if !account.Active {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("account %s is inactive", account.Name))
		}
		if account.Currency != input.Currency {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("account %s holds %s, not %s", account.Name, account.Currency, input.Currency))
		}
	}
	return nil
}

func (s *service) deriveFee(input CreateInput, snapshot rates.Snapshot) decimal.Decimal {
	if input.Fee != nil {
		return *input.Fee
	}
	if input.Kind == enums.TransactionKindTransfer {
		return snapshot.TransferFee(input.Amount)
	}
	return decimal.Zero
}

func buildTransaction(input CreateInput, snapshot rates.Snapshot, fee decimal.Decimal) *models.Transaction {
	amountCNY := decimal.NullDecimal{}
	if input.Currency != enums.CurrencyCNY {
		amountCNY = decimal.NullDecimal{
			Decimal: snapshot.Convert(input.Amount, input.Currency, enums.CurrencyCNY),
			Valid:   true,
		}
	}
	return &models.Transaction{
		OrganizationID:  input.OrganizationID,
		Kind:            input.Kind,
		Status:          enums.TransactionStatusSettled,
		Amount:          input.Amount,
		Currency:        input.Currency,
		Motif:           input.Motif,
		Category:        input.Category,
		SourceAccountID: input.SourceAccountID,
		DestAccountID:   input.DestAccountID,
		Fee:             fee,
		Benefit:         fee,
		AmountCNY:       amountCNY,
		RateUSDToCDF:    snapshot.USDToCDF,
		RateUSDToCNY:    snapshot.USDToCNY,
		PaymentMethod:   input.PaymentMethod,
		Notes:           input.Notes,
		OccurredAt:      input.OccurredAt,
	}
}

// emitMovements writes the movement legs for a transaction. Transfers touch
// both accounts in ascending id order so concurrent transfers over the same
// pair never deadlock.
func (s *service) emitMovements(ctx context.Context, tx *gorm.DB, transaction *models.Transaction) error {
	type leg struct {
		accountID uuid.UUID
		direction enums.MovementDirection
		amount    decimal.Decimal
	}
	var legs []leg

	switch transaction.Kind {
	case enums.TransactionKindRevenue:
		legs = append(legs, leg{*transaction.DestAccountID, enums.MovementDirectionCredit, transaction.Amount})
	case enums.TransactionKindExpense:
		legs = append(legs, leg{*transaction.SourceAccountID, enums.MovementDirectionDebit, transaction.Amount})
	case enums.TransactionKindTransfer:
		// The fee stays with the bureau: the source pays amount plus fee,
		// the destination receives the amount.
		legs = append(legs,
			leg{*transaction.SourceAccountID, enums.MovementDirectionDebit, transaction.Amount.Add(transaction.Fee)},
			leg{*transaction.DestAccountID, enums.MovementDirectionCredit, transaction.Amount},
		)
		if legs[1].accountID.String() < legs[0].accountID.String() {
			legs[0], legs[1] = legs[1], legs[0]
		}
	}

	for _, l := range legs {
		if _, err := s.moves.Record(ctx, tx, movements.RecordInput{
			OrganizationID: transaction.OrganizationID,
			AccountID:      l.accountID,
			Direction:      l.direction,
			Amount:         l.amount,
			Description:    transaction.Motif,
			TransactionID:  &transaction.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) runWithConflictRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.tx.WithTx(ctx, fn)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		return err
	}
	s.metrics.IncBalanceConflict("retried")
	if err = s.tx.WithTx(ctx, fn); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			s.metrics.IncBalanceConflict("gave_up")
		}
		return err
	}
	return nil
}

func (s *service) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	return transaction, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Transaction, string, error) {
	rows, err := s.repo.List(ctx, orgID, filter, params)
	if err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) Delete(ctx context.Context, orgID, id uuid.UUID) (*models.Transaction, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation("transaction_delete", time.Since(started)) }()

	transaction, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if transaction.Status == enums.TransactionStatusReversed {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "transaction already reversed")
	}

	err = s.runWithConflictRetry(ctx, func(tx *gorm.DB) error {
		legs, err := s.moves.ListByTransaction(ctx, orgID, transaction.ID)
		if err != nil {
			return err
		}
		// Walk backwards so the undo applies in exact reverse order, and skip
		// legs that are themselves reversals.
		for i := len(legs) - 1; i >= 0; i-- {
			if legs[i].ReversalOf != nil {
				continue
			}
			if _, err := s.moves.Reverse(ctx, tx, orgID, legs[i].ID, "annulation: "+transaction.Motif); err != nil {
				return err
			}
		}
		return s.repo.WithTx(tx).UpdateStatus(ctx, orgID, transaction.ID, enums.TransactionStatusReversed)
	})
	if err != nil {
		return nil, err
	}
	transaction.Status = enums.TransactionStatusReversed
	return transaction, nil
}
