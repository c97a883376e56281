package auth

import (
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	"github.com/angelmondragon/sprinklerhub-backend/internal/businesses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/users"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is a self-service signup. PMs create their company in the
// same request; tradies either redeem an invitation token or ask to join an
// existing business.
type RegisterRequest struct {
	Email           string         `json:"email" validate:"required,email"`
	Password        string         `json:"password" validate:"required"`
	FirstName       string         `json:"firstName" validate:"required,max=100"`
	LastName        string         `json:"lastName" validate:"required,max=100"`
	Phone           *string        `json:"phone,omitempty" validate:"omitempty,max=30"`
	Role            enums.UserRole `json:"role" validate:"required"`
	BusinessName    string         `json:"businessName,omitempty" validate:"omitempty,max=200"`
	ABN             *string        `json:"abn,omitempty" validate:"omitempty,max=20"`
	BusinessID      *uint          `json:"businessId,omitempty"`
	InvitationToken string         `json:"invitationToken,omitempty"`
}

// Session is a started session and the signed cookie value that carries it.
type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
}

// Result is what login and registration hand back to the controller.
type Result struct {
	User        *users.UserDTO     `json:"user"`
	Permissions access.Permissions `json:"permissions"`
	Session     Session            `json:"-"`
}

// Profile is the current-user view.
type Profile struct {
	User        *users.UserDTO          `json:"user"`
	Permissions access.Permissions      `json:"permissions"`
	Business    *businesses.BusinessDTO `json:"business,omitempty"`
}
