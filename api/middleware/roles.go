package middleware

import (
	"net/http"

	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

// RequireRole admits users holding one of roles. The contractor role passes
// wherever tradie is allowed.
func RequireRole(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
				return
			}
			if !roleAllowed(user.Role, roles) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Insufficient permissions").
					WithDetails(map[string]any{"requiredRoles": roles, "role": user.Role}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func roleAllowed(role enums.UserRole, allowed []enums.UserRole) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
		if candidate == enums.UserRoleTradie && role.IsTradieLike() {
			return true
		}
	}
	return false
}
