package controllers

import (
	"net/http"

	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	"github.com/angelmondragon/sprinklerhub-backend/internal/memberships"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// PMTradies lists the company's tradies grouped by membership state.
func PMTradies(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "memberships")
			return
		}
		_, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}

		list, err := svc.ListTradies(r.Context(), businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// PMApproveTradie approves a tradie's request to join.
func PMApproveTradie(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return tradieDecision(svc, logg, false, func(r *http.Request, pm models.User, tradieID uint, _ string) (*memberships.TradieDTO, error) {
		return svc.Approve(r.Context(), pm, tradieID)
	})
}

// PMRejectTradie turns down a pending tradie.
func PMRejectTradie(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return tradieDecision(svc, logg, true, func(r *http.Request, pm models.User, tradieID uint, reason string) (*memberships.TradieDTO, error) {
		return svc.Reject(r.Context(), pm, tradieID, reason)
	})
}

// PMRemoveTradie revokes an approved tradie's membership.
func PMRemoveTradie(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return tradieDecision(svc, logg, true, func(r *http.Request, pm models.User, tradieID uint, reason string) (*memberships.TradieDTO, error) {
		return svc.Remove(r.Context(), pm, tradieID, reason)
	})
}

type tradieDecider func(r *http.Request, pm models.User, tradieID uint, reason string) (*memberships.TradieDTO, error)

func tradieDecision(svc memberships.Service, logg *logger.Logger, withReason bool, decide tradieDecider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "memberships")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		tradieID, err := validators.ParseIDParam(r, "tradieId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body reasonRequest
		if withReason && r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		tradie, err := decide(r, *user, tradieID, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tradie)
	}
}
