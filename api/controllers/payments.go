package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/api/responses"
	"github.com/facturex/backend/api/validators"
	"github.com/facturex/backend/internal/payments"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/logger"
)

type paymentRecordRequest struct {
	Target    string          `json:"target" validate:"required"`
	InvoiceID *uuid.UUID      `json:"invoice_id,omitempty"`
	ParcelID  *uuid.UUID      `json:"parcel_id,omitempty"`
	ClientID  *uuid.UUID      `json:"client_id,omitempty"`
	AccountID uuid.UUID       `json:"account_id" validate:"required"`
	Method    string          `json:"method" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency" validate:"required"`
	Notes     *string         `json:"notes,omitempty"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
}

// PaymentRecord registers an incoming payment and reconciles its target.
func PaymentRecord(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentRecordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParsePaymentTarget(payload.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment target"))
			return
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}

		input := payments.RecordInput{
			OrganizationID: orgID,
			Target:         target,
			InvoiceID:      payload.InvoiceID,
			ParcelID:       payload.ParcelID,
			ClientID:       payload.ClientID,
			AccountID:      payload.AccountID,
			Method:         method,
			Amount:         payload.Amount,
			Currency:       currency,
			Notes:          payload.Notes,
		}
		if payload.PaidAt != nil {
			input.PaidAt = *payload.PaidAt
		}

		result, err := svc.Record(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentList returns the organization's payments, optionally narrowed to one
// invoice via ?invoice_id.
func PaymentList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := r.URL.Query().Get("invoice_id"); raw != "" {
			invoiceID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id"))
				return
			}
			rows, err := svc.ListByInvoice(r.Context(), orgID, invoiceID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, rows)
			return
		}

		rows, err := svc.List(r.Context(), orgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// PaymentGet returns one payment by id.
func PaymentGet(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Get(r.Context(), orgID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// PaymentDelete reverses the payment's credit and rewinds the invoice's paid
// total. The payment row stays, flagged reversed.
func PaymentDelete(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), orgID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
