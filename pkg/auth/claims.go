package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// SessionPayload captures the data available when minting a session cookie.
type SessionPayload struct {
	UserID    uint
	Role      enums.UserRole
	SessionID string
}

// SessionClaims is the signed body of the session cookie. The jti is the
// redis session id, so revoking the redis key invalidates the cookie.
type SessionClaims struct {
	UserID uint           `json:"uid"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
