package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/facturex/backend/pkg/db"
	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/metrics"
)

// allowedTransitions is the full explicit transition table. Anything not
// listed is rejected; paid additionally requires a zero outstanding balance.
var allowedTransitions = map[enums.InvoiceStatus][]enums.InvoiceStatus{
	enums.InvoiceStatusDraft:         {enums.InvoiceStatusValidated, enums.InvoiceStatusCancelled},
	enums.InvoiceStatusPending:       {enums.InvoiceStatusValidated, enums.InvoiceStatusCancelled},
	enums.InvoiceStatusValidated:     {enums.InvoiceStatusPaid, enums.InvoiceStatusCancelled},
	enums.InvoiceStatusSent:          {enums.InvoiceStatusPaid, enums.InvoiceStatusCancelled},
	enums.InvoiceStatusPartiallyPaid: {enums.InvoiceStatusPaid, enums.InvoiceStatusCancelled},
}

// Service owns the invoice lifecycle. All status changes go through
// Transition; nothing else mutates the status column.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Invoice, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, orgID uuid.UUID, status *enums.InvoiceStatus) ([]models.Invoice, error)
	MarkSent(ctx context.Context, orgID, id uuid.UUID) (*models.Invoice, error)
	Transition(ctx context.Context, orgID, id uuid.UUID, target enums.InvoiceStatus) (*models.Invoice, error)
	// TransitionBulk applies the single-invoice rule independently per item;
	// one failure never blocks the rest.
	TransitionBulk(ctx context.Context, orgID uuid.UUID, items []TransitionItem) ([]BulkResult, error)
	// AdjustPaid shifts the accumulated paid total inside the caller's
	// transaction. Payment reconciliation is the only expected caller.
	AdjustPaid(ctx context.Context, tx *gorm.DB, orgID, invoiceID uuid.UUID, delta decimal.Decimal) (*models.Invoice, error)
}

// CreateInput captures a new invoice or quote.
type CreateInput struct {
	OrganizationID uuid.UUID
	Number         string
	ClientID       *uuid.UUID
	Kind           enums.InvoiceKind
	Currency       enums.Currency
	Total          decimal.Decimal
	DueDate        *time.Time
}

// TransitionItem is one entry of a bulk transition request.
type TransitionItem struct {
	InvoiceID uuid.UUID           `json:"invoice_id"`
	Target    enums.InvoiceStatus `json:"target"`
}

// BulkResult reports the outcome for one bulk transition item.
type BulkResult struct {
	InvoiceID uuid.UUID           `json:"invoice_id"`
	Status    enums.InvoiceStatus `json:"status,omitempty"`
	OK        bool                `json:"ok"`
	Error     string              `json:"error,omitempty"`
}

type service struct {
	repo    Repository
	metrics *metrics.LedgerMetrics
}

// NewService wires an invoices service with the provided repository.
func NewService(repo Repository, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	return &service{repo: repo, metrics: ledgerMetrics}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Invoice, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if input.Number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number is required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid invoice kind %q", input.Kind))
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}
	if input.Total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total cannot be negative")
	}

	invoice := &models.Invoice{
		OrganizationID: input.OrganizationID,
		Number:         input.Number,
		ClientID:       input.ClientID,
		Kind:           input.Kind,
		Currency:       input.Currency,
		Total:          input.Total,
		Paid:           decimal.Zero,
		Status:         enums.InvoiceStatusDraft,
	}
	invoice.DueDate = input.DueDate
	if err := s.repo.Create(ctx, invoice); err != nil {
		if db.IsUniqueViolation(err, "idx_invoices_org_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "invoice number already in use")
		}
		return nil, err
	}
	return invoice, nil
}

func (s *service) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return invoice, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, status *enums.InvoiceStatus) ([]models.Invoice, error) {
	return s.repo.List(ctx, orgID, status)
}

func (s *service) MarkSent(ctx context.Context, orgID, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == enums.InvoiceStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "cancelled invoices cannot be sent")
	}
	if err := s.repo.SetSent(ctx, orgID, id, true); err != nil {
		return nil, err
	}
	invoice.Sent = true
	return invoice, nil
}

func (s *service) Transition(ctx context.Context, orgID, id uuid.UUID, target enums.InvoiceStatus) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if err := s.guardTransition(invoice, target); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, orgID, id, target); err != nil {
		return nil, err
	}
	invoice.Status = target
	return invoice, nil
}

func (s *service) guardTransition(invoice *models.Invoice, target enums.InvoiceStatus) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid invoice status %q", target))
	}

	allowed := false
	for _, candidate := range allowedTransitions[invoice.Status] {
		if candidate == target {
			allowed = true
			break
		}
	}
	if !allowed {
		s.metrics.IncRejectedTransition(invoice.Status.String(), target.String())
		return pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move invoice from %s to %s", invoice.Status, target)).
			WithDetails(map[string]any{"from": invoice.Status, "to": target})
	}

	if target == enums.InvoiceStatusPaid && !invoice.Outstanding().IsZero() {
		s.metrics.IncRejectedTransition(invoice.Status.String(), target.String())
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "invoice still has an outstanding balance").
			WithDetails(map[string]any{"outstanding": invoice.Outstanding().String()})
	}
	return nil
}

func (s *service) TransitionBulk(ctx context.Context, orgID uuid.UUID, items []TransitionItem) ([]BulkResult, error) {
	results := make([]BulkResult, 0, len(items))
	var combined error
	for _, item := range items {
		invoice, err := s.Transition(ctx, orgID, item.InvoiceID, item.Target)
		if err != nil {
			combined = multierr.Append(combined, fmt.Errorf("invoice %s: %w", item.InvoiceID, err))
			results = append(results, BulkResult{InvoiceID: item.InvoiceID, OK: false, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{InvoiceID: item.InvoiceID, OK: true, Status: invoice.Status})
	}
	return results, combined
}

func (s *service) AdjustPaid(ctx context.Context, tx *gorm.DB, orgID, invoiceID uuid.UUID, delta decimal.Decimal) (*models.Invoice, error) {
	repo := s.repo.WithTx(tx)
	invoice, err := repo.FindByID(ctx, orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}

	paid := invoice.Paid.Add(delta)
	if paid.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid total cannot go negative")
	}
	if err := repo.UpdatePaid(ctx, orgID, invoiceID, paid); err != nil {
		return nil, err
	}
	invoice.Paid = paid
	return invoice, nil
}
