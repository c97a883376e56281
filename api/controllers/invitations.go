package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	"github.com/angelmondragon/sprinklerhub-backend/internal/invitations"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type inviteRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"max=500"`
}

// InvitationValidate checks a registration link before the signup form is shown.
func InvitationValidate(svc invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "invitations")
			return
		}

		query := r.URL.Query()
		token := strings.TrimSpace(query.Get("token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token is required").
				WithDetails(map[string]any{"field": "token"}))
			return
		}

		check, err := svc.Check(r.Context(), token, query.Get("email"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, check)
	}
}

// PMInviteTradie invites a tradie to the PM's company by email.
func PMInviteTradie(svc invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "invitations")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		var body inviteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invitation, err := svc.Invite(r.Context(), *user, invitations.InviteInput{Email: body.Email, Message: body.Message})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, invitation)
	}
}

// PMInvitations lists the invitations sent from the PM's company.
func PMInvitations(svc invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "invitations")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		list, err := svc.ListForBusiness(r.Context(), *user)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// PMCancelInvitation withdraws a pending invitation.
func PMCancelInvitation(svc invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "invitations")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseIDParam(r, "invitationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), *user, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Invitation cancelled"})
	}
}

// TradieInvitations lists invitations addressed to the signed-in tradie.
func TradieInvitations(svc invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "invitations")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		list, err := svc.ListForTradie(r.Context(), *user)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// TradieAcceptInvitation joins the inviting company.
func TradieAcceptInvitation(svc invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "invitations")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseIDParam(r, "invitationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invitation, err := svc.Accept(r.Context(), *user, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invitation)
	}
}

// TradieRejectInvitation declines an invitation and tells the PM.
func TradieRejectInvitation(svc invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "invitations")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseIDParam(r, "invitationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Decline(r.Context(), *user, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Invitation rejected"})
	}
}
