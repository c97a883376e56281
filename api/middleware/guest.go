package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	GuestCookieName = "sh_guest"
	guestCookieTTL  = 7 * 24 * 60 * 60
)

// GuestCart gives anonymous visitors a stable cart identifier cookie. The
// identifier is also kept for authenticated users so login can merge it.
func GuestCart(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var guestID string
			if cookie, err := r.Cookie(GuestCookieName); err == nil {
				if _, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
					guestID = cookie.Value
				}
			}
			if guestID == "" && UserFromContext(r.Context()) == nil {
				guestID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     GuestCookieName,
					Value:    guestID,
					Path:     "/",
					MaxAge:   guestCookieTTL,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			if guestID == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithGuestID(r.Context(), guestID)))
		})
	}
}
