package users

import (
	"strings"
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID           uint             `json:"id"`
	Email        string           `json:"email"`
	FirstName    string           `json:"firstName"`
	LastName     string           `json:"lastName"`
	Phone        *string          `json:"phone,omitempty"`
	Role         enums.UserRole   `json:"role"`
	BusinessID   *uint            `json:"businessId,omitempty"`
	IsApproved   bool             `json:"isApproved"`
	ApprovedBy   *uint            `json:"approvedBy,omitempty"`
	ApprovalDate *time.Time       `json:"approvalDate,omitempty"`
	Status       enums.UserStatus `json:"status"`
	LastLoginAt  *time.Time       `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	Role         enums.UserRole
	BusinessID   *uint
	IsApproved   bool
	Status       enums.UserStatus
}

// FromModel converts a user row. Suppliers always report as approved.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Role:         u.Role,
		BusinessID:   u.BusinessID,
		IsApproved:   u.IsApproved || u.Role == enums.UserRoleSupplier,
		ApprovedBy:   u.ApprovedBy,
		ApprovalDate: u.ApprovalDate,
		Status:       u.Status,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	status := c.Status
	if status == "" {
		status = enums.UserStatusUnassigned
	}
	return &models.User{
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		FirstName:    strings.TrimSpace(c.FirstName),
		LastName:     strings.TrimSpace(c.LastName),
		Phone:        c.Phone,
		Role:         c.Role,
		BusinessID:   c.BusinessID,
		IsApproved:   c.IsApproved,
		Status:       status,
	}
}

// NormalizeEmail is the canonical form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
