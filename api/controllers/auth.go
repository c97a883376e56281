package controllers

import (
	"net/http"

	"github.com/angelmondragon/sprinklerhub-backend/api/middleware"
	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	"github.com/angelmondragon/sprinklerhub-backend/internal/auth"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/auth/session"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/config"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

// AuthRegister creates the account and signs the new user in.
func AuthRegister(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session.SetCookie(w, cfg.Session, result.Session.Token, cfg.App.IsProd())
		responses.WriteCreated(w, result)
	}
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body, middleware.GuestIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session.SetCookie(w, cfg.Session, result.Session.Token, cfg.App.IsProd())
		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the current session and clears the cookie. Logging out
// without a session still succeeds.
func AuthLogout(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}

		if sessionID := middleware.SessionIDFromContext(r.Context()); sessionID != "" {
			if err := svc.Logout(r.Context(), sessionID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		session.ClearCookie(w, cfg.Session, cfg.App.IsProd())
		responses.WriteSuccess(w, map[string]string{"message": "Logged out successfully"})
	}
}

// AuthUser returns the signed-in user with permissions and company.
func AuthUser(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		profile, err := svc.Me(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
