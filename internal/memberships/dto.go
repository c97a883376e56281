package memberships

import (
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// TradieDTO is a tradie as the company PM sees them.
type TradieDTO struct {
	ID           uint             `json:"id"`
	Email        string           `json:"email"`
	FirstName    string           `json:"firstName"`
	LastName     string           `json:"lastName"`
	Phone        *string          `json:"phone,omitempty"`
	Role         enums.UserRole   `json:"role"`
	Membership   State            `json:"membership"`
	Status       enums.UserStatus `json:"status"`
	IsApproved   bool             `json:"isApproved"`
	ApprovalDate *time.Time       `json:"approvalDate,omitempty"`
	LastLoginAt  *time.Time       `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// TradieList groups a company's tradies by membership state.
type TradieList struct {
	Pending  []TradieDTO `json:"pending"`
	Approved []TradieDTO `json:"approved"`
	Removed  []TradieDTO `json:"removed"`
}

// ToTradieDTO converts a user row.
func ToTradieDTO(u models.User) TradieDTO {
	return TradieDTO{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Role:         u.Role,
		Membership:   StateOf(u),
		Status:       u.Status,
		IsApproved:   u.IsApproved,
		ApprovalDate: u.ApprovalDate,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}

func groupTradies(rows []models.User) *TradieList {
	out := &TradieList{Pending: []TradieDTO{}, Approved: []TradieDTO{}, Removed: []TradieDTO{}}
	for _, row := range rows {
		dto := ToTradieDTO(row)
		switch dto.Membership {
		case StatePending:
			out.Pending = append(out.Pending, dto)
		case StateApproved:
			out.Approved = append(out.Approved, dto)
		case StateRemoved:
			out.Removed = append(out.Removed, dto)
		}
	}
	return out
}
