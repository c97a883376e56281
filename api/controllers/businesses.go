package controllers

import (
	"net/http"

	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	"github.com/angelmondragon/sprinklerhub-backend/internal/businesses"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type updateBusinessRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=200"`
	ABN     *string `json:"abn" validate:"omitempty,max=20"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Address *string `json:"address"`
}

type priceTierRequest struct {
	PriceTier string `json:"priceTier" validate:"required,price_tier"`
}

// BusinessDirectory lists company names for the registration picker.
func BusinessDirectory(svc businesses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "businesses")
			return
		}
		list, err := svc.ListSummaries(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// PMBusiness returns the PM's own company.
func PMBusiness(svc businesses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "businesses")
			return
		}
		_, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}
		business, err := svc.Get(r.Context(), businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, business)
	}
}

// PMUpdateBusiness edits the PM's company profile. The price tier is not
// editable here.
func PMUpdateBusiness(svc businesses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "businesses")
			return
		}
		_, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}
		var body updateBusinessRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		business, err := svc.Update(r.Context(), businessID, businesses.UpdateBusinessInput{
			Name:    body.Name,
			ABN:     body.ABN,
			Phone:   body.Phone,
			Email:   body.Email,
			Address: body.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, business)
	}
}

// SupplierSetPriceTier moves a company onto another price tier.
func SupplierSetPriceTier(svc businesses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "businesses")
			return
		}
		id, err := validators.ParseIDParam(r, "businessId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body priceTierRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tier, err := enums.ParsePriceTier(body.PriceTier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price tier"))
			return
		}
		business, err := svc.SetPriceTier(r.Context(), id, tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, business)
	}
}
