// Package access resolves what a portal user may see and do from their role,
// company membership and approval flag.
package access

import (
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// Level summarises a user's permission tier for clients.
type Level string

const (
	LevelIndependent Level = "independent"
	LevelLimited     Level = "limited"
	LevelApproved    Level = "approved"
	LevelPM          Level = "pm"
)

// Permissions is the resolved capability set for one user.
type Permissions struct {
	CanViewPricing       bool  `json:"canViewPricing"`
	CanPlaceOrders       bool  `json:"canPlaceOrders"`
	CanViewCompanyJobs   bool  `json:"canViewCompanyJobs"`
	CanSearchByJobNumber bool  `json:"canSearchByJobNumber"`
	CanAccessCart        bool  `json:"canAccessCart"`
	CanManageCompany     bool  `json:"canManageCompany"`
	AccessLevel          Level `json:"accessLevel"`
	CompanyID            *uint `json:"companyId,omitempty"`
}

// Resolve applies the permission rules in priority order. It is pure.
func Resolve(user models.User) Permissions {
	switch {
	case user.Role == enums.UserRoleProjectManager:
		return Permissions{
			CanViewPricing:       true,
			CanPlaceOrders:       true,
			CanViewCompanyJobs:   true,
			CanSearchByJobNumber: true,
			CanAccessCart:        true,
			CanManageCompany:     true,
			AccessLevel:          LevelPM,
			CompanyID:            user.BusinessID,
		}
	case user.Role.IsTradieLike() && (!user.HasBusiness() || !user.IsApproved):
		level := LevelIndependent
		if user.HasBusiness() {
			level = LevelLimited
		}
		return Permissions{AccessLevel: level}
	case user.Role.IsTradieLike():
		return Permissions{
			CanPlaceOrders:       true,
			CanViewCompanyJobs:   true,
			CanSearchByJobNumber: true,
			CanAccessCart:        true,
			AccessLevel:          LevelApproved,
			CompanyID:            user.BusinessID,
		}
	}
	return Permissions{AccessLevel: LevelIndependent}
}

// IsApproved reports the effective approval flag. Suppliers are always approved.
func IsApproved(user models.User) bool {
	if user.Role == enums.UserRoleSupplier {
		return true
	}
	return user.IsApproved
}

// IsApprovedTradie reports whether the user is a tradie with an approved company membership.
func IsApprovedTradie(user models.User) bool {
	return user.Role.IsTradieLike() && user.HasBusiness() && user.IsApproved
}

// IsCompanyMember reports whether the user acts for businessID: its PM or an approved tradie.
func IsCompanyMember(user models.User, businessID uint) bool {
	if !user.HasBusiness() || *user.BusinessID != businessID {
		return false
	}
	return user.Role == enums.UserRoleProjectManager || IsApprovedTradie(user)
}

// OrderDenialMessage is the human readable reason an order action was refused.
func OrderDenialMessage(level Level) string {
	switch level {
	case LevelIndependent:
		return "You need to join a company to place orders"
	case LevelLimited:
		return "Your access has been limited while your company membership is pending approval"
	}
	return "You do not have permission to place orders"
}
