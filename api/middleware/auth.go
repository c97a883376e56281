package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	pkgAuth "github.com/angelmondragon/sprinklerhub-backend/pkg/auth"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/auth/session"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/config"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

// UserResolver loads the session owner and resolves their permissions.
type UserResolver interface {
	ForUser(ctx context.Context, userID uint) (*models.User, access.Permissions, error)
}

// Session resolves the signed session cookie when one is present and seeds the
// request context with the user and permissions. Requests without a usable
// session continue anonymously; RequireAuth rejects those.
func Session(cfg config.SessionConfig, sessions session.Resolver, users UserResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg, cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			owner, err := sessions.Resolve(ctx, claims.ID)
			if err != nil {
				if errors.Is(err, session.ErrSessionNotFound) {
					next.ServeHTTP(w, r)
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve session"))
				return
			}
			if owner != claims.UserID {
				next.ServeHTTP(w, r)
				return
			}

			user, perms, err := users.ForUser(ctx, owner)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
					next.ServeHTTP(w, r)
					return
				}
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = context.WithValue(ctx, ctxUser, user)
			ctx = context.WithValue(ctx, ctxPermissions, perms)
			ctx = context.WithValue(ctx, ctxSessionID, claims.ID)
			traceUser(ctx, user)
			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID)
				ctx = logg.WithActorRole(ctx, string(user.Role))
				if user.HasBusiness() {
					ctx = logg.WithBusinessID(ctx, *user.BusinessID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
