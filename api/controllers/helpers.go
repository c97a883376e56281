package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/sprinklerhub-backend/api/middleware"
	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/cart"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

func currentUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*models.User, bool) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
		return nil, false
	}
	return user, true
}

// currentBusiness returns the caller and their company id, rejecting callers
// without a company.
func currentBusiness(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*models.User, uint, bool) {
	user, ok := currentUser(w, r, logg)
	if !ok {
		return nil, 0, false
	}
	if !user.HasBusiness() {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "You must belong to a company"))
		return nil, 0, false
	}
	return user, *user.BusinessID, true
}

// cartOwner addresses the signed-in user's cart, or the guest cart otherwise.
func cartOwner(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (cart.Owner, bool) {
	if user := middleware.UserFromContext(r.Context()); user != nil {
		id := user.ID
		return cart.Owner{UserID: &id}, true
	}
	if guest := middleware.GuestIDFromContext(r.Context()); guest != "" {
		return cart.Owner{GuestID: guest}, true
	}
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session missing"))
	return cart.Owner{}, false
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
