package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facturex/backend/api/responses"
	"github.com/facturex/backend/api/validators"
	"github.com/facturex/backend/internal/agent"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/logger"
)

type agentMessageRequest struct {
	ChannelID string `json:"channel_id" validate:"required,min=1"`
	Text      string `json:"text" validate:"required,min=1"`
}

// AgentMessage feeds one chat message to the bookkeeping agent and returns
// the reply for the channel.
func AgentMessage(svc agent.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload agentMessageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		text := validators.SanitizeString(payload.Text, 500)
		reply, err := svc.HandleMessage(r.Context(), orgID, payload.ChannelID, text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reply)
	}
}

// AgentPending returns the channel's live proposal, if any.
func AgentPending(svc agent.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		channelID := chi.URLParam(r, "channelId")
		if channelID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "channel id is required"))
			return
		}

		entry, err := svc.GetPending(r.Context(), orgID, channelID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}
