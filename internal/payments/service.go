package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/facturex/backend/internal/movements"
	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type accountLoader interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Account, error)
}

type invoiceAdjuster interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Invoice, error)
	AdjustPaid(ctx context.Context, tx *gorm.DB, orgID, invoiceID uuid.UUID, delta decimal.Decimal) (*models.Invoice, error)
}

// Service records payments and keeps invoice paid totals reconciled with the
// movement log.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*Result, error)
	// Delete reverses the payment's credit and re-walks the reconciliation.
	Delete(ctx context.Context, orgID, id uuid.UUID) (*Result, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Payment, error)
	List(ctx context.Context, orgID uuid.UUID) ([]models.Payment, error)
	ListByInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) ([]models.Payment, error)
}

// RecordInput captures one incoming payment.
type RecordInput struct {
	OrganizationID uuid.UUID
	Target         enums.PaymentTarget
	InvoiceID      *uuid.UUID
	ParcelID       *uuid.UUID
	ClientID       *uuid.UUID
	AccountID      uuid.UUID
	Method         enums.PaymentMethod
	Amount         decimal.Decimal
	Currency       enums.Currency
	Notes          *string
	PaidAt         time.Time
}

// Result reports the payment plus the reconciliation outcome. The
// recommended status is advice only: the state machine still owns the actual
// transition.
type Result struct {
	Payment           *models.Payment      `json:"payment"`
	Invoice           *models.Invoice      `json:"invoice,omitempty"`
	RecommendedStatus *enums.InvoiceStatus `json:"recommended_status,omitempty"`
	Overpaid          bool                 `json:"overpaid"`
}

type service struct {
	tx       txRunner
	repo     Repository
	moves    movements.Service
	accounts accountLoader
	invoices invoiceAdjuster
	metrics  *metrics.LedgerMetrics
}

// NewService wires the payment reconciliation service.
func NewService(tx txRunner, repo Repository, moves movements.Service, accounts accountLoader, invoices invoiceAdjuster, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if moves == nil {
		return nil, fmt.Errorf("movements service required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account loader required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice adjuster required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		moves:    moves,
		accounts: accounts,
		invoices: invoices,
		metrics:  ledgerMetrics,
	}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*Result, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation("payment_record", time.Since(started)) }()

	if err := s.validateRecord(ctx, &input); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrganizationID: input.OrganizationID,
		Target:         input.Target,
		InvoiceID:      input.InvoiceID,
		ParcelID:       input.ParcelID,
		ClientID:       input.ClientID,
		AccountID:      input.AccountID,
		Method:         input.Method,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Notes:          input.Notes,
		PaidAt:         input.PaidAt,
	}

	result := &Result{Payment: payment}
	err := s.runWithConflictRetry(ctx, func(tx *gorm.DB) error {
		payment.ID = uuid.Nil
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}
		if _, err := s.moves.Record(ctx, tx, movements.RecordInput{
			OrganizationID: input.OrganizationID,
			AccountID:      input.AccountID,
			Direction:      enums.MovementDirectionCredit,
			Amount:         input.Amount,
			Description:    paymentDescription(input),
			PaymentID:      &payment.ID,
		}); err != nil {
			return err
		}
		if input.InvoiceID != nil {
			invoice, err := s.invoices.AdjustPaid(ctx, tx, input.OrganizationID, *input.InvoiceID, input.Amount)
			if err != nil {
				return err
			}
			result.Invoice = invoice
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finishReconciliation(result)
	return result, nil
}

func (s *service) validateRecord(ctx context.Context, input *RecordInput) error {
	if input.OrganizationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if !input.Target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment target %q", input.Target))
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}
	if !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}
	if input.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "receiving account is required")
	}
	if input.PaidAt.IsZero() {
		input.PaidAt = time.Now().UTC()
	}

	switch input.Target {
	case enums.PaymentTargetInvoice:
		if input.InvoiceID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invoice payment requires an invoice id")
		}
		if input.ParcelID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invoice payment cannot reference a parcel")
		}
	case enums.PaymentTargetParcel:
		if input.ParcelID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "parcel payment requires a parcel id")
		}
		if input.InvoiceID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "parcel payment cannot reference an invoice")
		}
	}

	account, err := s.accounts.Get(ctx, input.OrganizationID, input.AccountID)
	if err != nil {
		return err
	}
	if !account.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "receiving account is inactive")
	}
	if account.Currency != input.Currency {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("account %s holds %s, not %s", account.Name, account.Currency, input.Currency))
	}

	if input.InvoiceID != nil {
		invoice, err := s.invoices.Get(ctx, input.OrganizationID, *input.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Currency != input.Currency {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invoice %s is in %s, not %s", invoice.Number, invoice.Currency, input.Currency))
		}
	}
	return nil
}

func (s *service) Delete(ctx context.Context, orgID, id uuid.UUID) (*Result, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation("payment_delete", time.Since(started)) }()

	payment, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if payment.Reversed {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment already reversed")
	}

	result := &Result{Payment: payment}
	err = s.runWithConflictRetry(ctx, func(tx *gorm.DB) error {
		legs, err := s.moves.ListByPayment(ctx, orgID, payment.ID)
		if err != nil {
			return err
		}
		for i := len(legs) - 1; i >= 0; i-- {
			if legs[i].ReversalOf != nil {
				continue
			}
			if _, err := s.moves.Reverse(ctx, tx, orgID, legs[i].ID, "annulation paiement"); err != nil {
				return err
			}
		}
		if payment.InvoiceID != nil {
			invoice, err := s.invoices.AdjustPaid(ctx, tx, orgID, *payment.InvoiceID, payment.Amount.Neg())
			if err != nil {
				return err
			}
			result.Invoice = invoice
		}
		return s.repo.WithTx(tx).MarkReversed(ctx, orgID, payment.ID)
	})
	if err != nil {
		return nil, err
	}

	payment.Reversed = true
	s.finishReconciliation(result)
	return result, nil
}

func (s *service) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return payment, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID) ([]models.Payment, error) {
	return s.repo.List(ctx, orgID)
}

func (s *service) ListByInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) ([]models.Payment, error) {
	return s.repo.ListByInvoice(ctx, orgID, invoiceID)
}

// finishReconciliation computes the advisory status for the touched invoice.
func (s *service) finishReconciliation(result *Result) {
	if result.Invoice == nil {
		return
	}
	invoice := result.Invoice
	result.Overpaid = invoice.Overpaid()

	var recommended enums.InvoiceStatus
	switch {
	case invoice.Outstanding().IsZero() && invoice.Paid.IsPositive():
		recommended = enums.InvoiceStatusPaid
	case invoice.Paid.IsPositive():
		recommended = enums.InvoiceStatusPartiallyPaid
	default:
		return
	}
	result.RecommendedStatus = &recommended
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

func paymentDescription(input RecordInput) string {
	if input.Target == enums.PaymentTargetParcel {
		return "paiement colis"
	}
	return "paiement facture"
}
