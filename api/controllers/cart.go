package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/sprinklerhub-backend/api/middleware"
	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	"github.com/angelmondragon/sprinklerhub-backend/internal/cart"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/visibility"
)

// ViewerResolver derives the price viewer for a possibly anonymous user.
type ViewerResolver interface {
	ViewerFor(ctx context.Context, user *models.User) (visibility.Viewer, error)
}

type addCartItemRequest struct {
	PartID   uint  `json:"partId" validate:"required,gt=0"`
	JobID    *uint `json:"jobId" validate:"omitempty,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0,max=10000"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,max=10000"`
}

// CartGet returns the cart of the signed-in user or guest.
func CartGet(svc cart.Service, viewers ViewerResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || viewers == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		owner, ok := cartOwner(w, r, logg)
		if !ok {
			return
		}

		viewer, err := viewers.ViewerFor(r.Context(), middleware.UserFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), owner, viewer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CartAdd adds a part, merging with an existing line for the same part and job.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		owner, ok := cartOwner(w, r, logg)
		if !ok {
			return
		}

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := cart.AddItemInput{PartID: body.PartID, JobID: body.JobID, Quantity: body.Quantity}
		if user := middleware.UserFromContext(r.Context()); user != nil && user.HasBusiness() {
			if access.IsCompanyMember(*user, *user.BusinessID) {
				input.BusinessID = user.BusinessID
			} else if body.JobID != nil {
				level := middleware.PermissionsFromContext(r.Context()).AccessLevel
				responses.WriteError(r.Context(), logg, w, pkgerrors.Denied("Approved company membership required to select a job", level))
				return
			}
		}

		item, err := svc.Add(r.Context(), owner, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, item)
	}
}

// CartUpdate sets a line's quantity; zero removes it.
func CartUpdate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		owner, ok := cartOwner(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateQuantity(r.Context(), owner, itemID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if item == nil {
			responses.WriteNoContent(w)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// CartRemove deletes one line.
func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		owner, ok := cartOwner(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), owner, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CartClear empties the cart.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		owner, ok := cartOwner(w, r, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), owner); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
