package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/facturex/backend/api/responses"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/logger"
)

// HeaderOrganizationID carries the tenant every ledger request acts on.
const HeaderOrganizationID = "X-Organization-Id"

// OrganizationContext resolves the tenant from the request header and stores
// it on the context. Requests without a valid organization are rejected before
// they reach any handler.
func OrganizationContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderOrganizationID)
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "organization header missing"))
				return
			}
			orgID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "organization header must be a UUID"))
				return
			}
			ctx := WithOrgID(r.Context(), orgID.String())
			ctx = logg.WithOrgID(ctx, orgID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
