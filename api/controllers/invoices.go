package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/api/responses"
	"github.com/facturex/backend/api/validators"
	"github.com/facturex/backend/internal/invoices"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/logger"
)

type invoiceCreateRequest struct {
	Number   string          `json:"number" validate:"required,min=1"`
	ClientID *uuid.UUID      `json:"client_id,omitempty"`
	Kind     string          `json:"kind" validate:"required"`
	Currency string          `json:"currency" validate:"required"`
	Total    decimal.Decimal `json:"total"`
	DueDate  *time.Time      `json:"due_date,omitempty"`
}

// InvoiceCreate opens a new invoice or quote in draft.
func InvoiceCreate(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload invoiceCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseInvoiceKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice kind"))
			return
		}
		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}

		invoice, err := svc.Create(r.Context(), invoices.CreateInput{
			OrganizationID: orgID,
			Number:         payload.Number,
			ClientID:       payload.ClientID,
			Kind:           kind,
			Currency:       currency,
			Total:          payload.Total,
			DueDate:        payload.DueDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

// InvoiceList returns the organization's invoices, optionally by status.
func InvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.InvoiceStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseInvoiceStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice status"))
				return
			}
			status = &parsed
		}

		rows, err := svc.List(r.Context(), orgID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// InvoiceGet returns one invoice by id.
func InvoiceGet(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Get(r.Context(), orgID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

type invoiceTransitionRequest struct {
	Target string `json:"target" validate:"required"`
}

// InvoiceTransition moves one invoice through the state machine.
func InvoiceTransition(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload invoiceTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseInvoiceStatus(payload.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice status"))
			return
		}

		invoice, err := svc.Transition(r.Context(), orgID, id, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

type invoiceBulkTransitionRequest struct {
	Items []invoices.TransitionItem `json:"items" validate:"required,min=1,dive"`
}

// InvoiceTransitionBulk applies transitions per invoice independently and
// reports every outcome, failures included.
func InvoiceTransitionBulk(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload invoiceBulkTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.TransitionBulk(r.Context(), orgID, payload.Items)
		if err != nil {
			logg.Warn(logg.WithField(r.Context(), "failures", err.Error()), "bulk invoice transition had failures")
		}
		responses.WriteSuccess(w, map[string]any{"results": results})
	}
}

// InvoiceMarkSent flags the invoice as delivered to the client.
func InvoiceMarkSent(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.MarkSent(r.Context(), orgID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}
