package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/api/responses"
	"github.com/facturex/backend/api/validators"
	"github.com/facturex/backend/internal/transactions"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/logger"
	"github.com/facturex/backend/pkg/pagination"
)

type transactionCreateRequest struct {
	Kind            string           `json:"kind" validate:"required"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency" validate:"required"`
	Motif           string           `json:"motif" validate:"required,min=1"`
	Category        *string          `json:"category,omitempty"`
	SourceAccountID *uuid.UUID       `json:"source_account_id,omitempty"`
	DestAccountID   *uuid.UUID       `json:"dest_account_id,omitempty"`
	Fee             *decimal.Decimal `json:"fee,omitempty"`
	PaymentMethod   *string          `json:"payment_method,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	OccurredAt      *time.Time       `json:"occurred_at,omitempty"`
}

// TransactionCreate records one business transaction and its movement legs.
func TransactionCreate(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transactionCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseTransactionKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction kind"))
			return
		}
		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}

		input := transactions.CreateInput{
			OrganizationID:  orgID,
			Kind:            kind,
			Amount:          payload.Amount,
			Currency:        currency,
			Motif:           payload.Motif,
			Category:        payload.Category,
			SourceAccountID: payload.SourceAccountID,
			DestAccountID:   payload.DestAccountID,
			Fee:             payload.Fee,
			Notes:           payload.Notes,
		}
		if payload.PaymentMethod != nil {
			method, err := enums.ParsePaymentMethod(*payload.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
			input.PaymentMethod = &method
		}
		if payload.OccurredAt != nil {
			input.OccurredAt = *payload.OccurredAt
		}

		transaction, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transaction)
	}
}

// TransactionList pages through the organization's transactions, newest first.
func TransactionList(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := transactions.ListFilter{}
		if raw := r.URL.Query().Get("kind"); raw != "" {
			kind, err := enums.ParseTransactionKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction kind"))
				return
			}
			filter.Kind = &kind
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseTransactionStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction status"))
				return
			}
			filter.Status = &status
		}
		if raw := r.URL.Query().Get("currency"); raw != "" {
			currency, err := enums.ParseCurrency(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
				return
			}
			filter.Currency = &currency
		}

		rows, nextCursor, err := svc.List(r.Context(), orgID, filter, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"transactions": rows,
			"next_cursor":  nextCursor,
		})
	}
}

// TransactionGet returns one transaction by id.
func TransactionGet(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transaction, err := svc.Get(r.Context(), orgID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transaction)
	}
}

// TransactionDelete reverses the transaction's movements and marks it
// reversed. Nothing is removed from the log.
func TransactionDelete(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transaction, err := svc.Delete(r.Context(), orgID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transaction)
	}
}
