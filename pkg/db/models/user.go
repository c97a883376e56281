package models

import (
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// User represents every portal account. Users are never hard-deleted; a
// removed tradie keeps the row with is_approved=false.
type User struct {
	ID           uint             `gorm:"primaryKey"`
	Email        string           `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	FirstName    string           `gorm:"column:first_name;not null"`
	LastName     string           `gorm:"column:last_name;not null"`
	Phone        *string          `gorm:"column:phone"`
	Role         enums.UserRole   `gorm:"column:role;type:text;not null"`
	BusinessID   *uint            `gorm:"column:business_id;index"`
	IsApproved   bool             `gorm:"column:is_approved;not null;default:false"`
	ApprovedBy   *uint            `gorm:"column:approved_by"`
	ApprovalDate *time.Time       `gorm:"column:approval_date"`
	Status       enums.UserStatus `gorm:"column:status;type:text;not null;default:'unassigned'"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// FullName joins first and last names for display.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// HasBusiness reports whether the user is linked to a company.
func (u User) HasBusiness() bool {
	return u.BusinessID != nil && *u.BusinessID != 0
}
