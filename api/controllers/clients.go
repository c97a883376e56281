package controllers

import (
	"net/http"

	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	"github.com/angelmondragon/sprinklerhub-backend/internal/clients"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type clientRequest struct {
	Name         string  `json:"name" validate:"notblank,max=200"`
	ContactName  *string `json:"contactName" validate:"omitempty,max=200"`
	ContactEmail *string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone *string `json:"contactPhone" validate:"omitempty,max=30"`
	Address      *string `json:"address"`
}

func (b clientRequest) toInput() clients.Input {
	return clients.Input{
		Name:         b.Name,
		ContactName:  trimmed(b.ContactName),
		ContactEmail: trimmed(b.ContactEmail),
		ContactPhone: trimmed(b.ContactPhone),
		Address:      trimmed(b.Address),
	}
}

// ClientsList lists the PM company's clients.
func ClientsList(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "clients")
			return
		}
		_, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.List(r.Context(), businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ClientDetail returns one client of the PM's company.
func ClientDetail(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "clients")
			return
		}
		_, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		client, err := svc.Get(r.Context(), businessID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

// ClientCreate adds a client to the PM's company.
func ClientCreate(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "clients")
			return
		}
		_, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}
		var body clientRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		client, err := svc.Create(r.Context(), businessID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, client)
	}
}

// ClientUpdate replaces a client's details.
func ClientUpdate(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "clients")
			return
		}
		_, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body clientRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		client, err := svc.Update(r.Context(), businessID, id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

// ClientDelete removes a client.
func ClientDelete(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "clients")
			return
		}
		_, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), businessID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
