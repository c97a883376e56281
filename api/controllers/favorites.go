package controllers

import (
	"net/http"

	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	"github.com/angelmondragon/sprinklerhub-backend/internal/favorites"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

// FavoritesList returns the caller's favourite parts priced for them.
func FavoritesList(svc favorites.Service, viewers ViewerResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || viewers == nil {
			unavailable(w, r, logg, "favorites")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		viewer, err := viewers.ViewerFor(r.Context(), user)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), user.ID, viewer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// FavoriteAdd stars a part. Starring twice is a no-op.
func FavoriteAdd(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "favorites")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		partID, err := validators.ParseIDParam(r, "partId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Add(r.Context(), user.ID, partID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, map[string]uint{"partId": partID})
	}
}

// FavoriteRemove unstars a part.
func FavoriteRemove(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "favorites")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		partID, err := validators.ParseIDParam(r, "partId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), user.ID, partID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
