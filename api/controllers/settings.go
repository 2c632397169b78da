package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/facturex/backend/api/responses"
	"github.com/facturex/backend/api/validators"
	"github.com/facturex/backend/internal/rates"
	"github.com/facturex/backend/pkg/db/models"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/logger"
)

type settingsResponse struct {
	USDToCDF           decimal.Decimal `json:"usd_to_cdf"`
	USDToCNY           decimal.Decimal `json:"usd_to_cny"`
	TransferFeePercent decimal.Decimal `json:"transfer_fee_percent"`
	OrderFeePercent    decimal.Decimal `json:"order_fee_percent"`
	PartnerFeePercent  decimal.Decimal `json:"partner_fee_percent"`
}

// SettingsGet returns the organization's effective rates and fees, defaults
// merged with any overrides.
func SettingsGet(svc rates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.Snapshot(r.Context(), orgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settingsResponse{
			USDToCDF:           snapshot.USDToCDF,
			USDToCNY:           snapshot.USDToCNY,
			TransferFeePercent: snapshot.TransferFeePercent,
			OrderFeePercent:    snapshot.OrderFeePercent,
			PartnerFeePercent:  snapshot.PartnerFeePercent,
		})
	}
}

type settingUpdateRequest struct {
	Category string          `json:"category" validate:"required,oneof=rates fees"`
	Key      string          `json:"key" validate:"required,min=1"`
	Value    decimal.Decimal `json:"value"`
}

// SettingsUpdate overrides one rate or fee for the organization.
func SettingsUpdate(svc rates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload settingUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch payload.Category {
		case models.SettingCategoryRates:
			err = svc.SetRate(r.Context(), orgID, payload.Key, payload.Value)
		case models.SettingCategoryFees:
			err = svc.SetFee(r.Context(), orgID, payload.Key, payload.Value)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "unknown settings category")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
