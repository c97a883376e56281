package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// TradieInvitation is a single-use token a PM sends to bring a tradie into the business.
type TradieInvitation struct {
	ID               uint                   `gorm:"primaryKey"`
	BusinessID       uint                   `gorm:"column:business_id;not null;index"`
	ProjectManagerID uint                   `gorm:"column:project_manager_id;not null;index"`
	Email            string                 `gorm:"column:email;not null;index"`
	InvitationToken  uuid.UUID              `gorm:"column:invitation_token;type:text;not null;uniqueIndex"`
	TokenExpiry      time.Time              `gorm:"column:token_expiry;not null"`
	Status           enums.InvitationStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Message          *string                `gorm:"column:message"`
	RespondedAt      *time.Time             `gorm:"column:responded_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// IsExpired reports whether the token can no longer be redeemed at now.
func (i TradieInvitation) IsExpired(now time.Time) bool {
	return !now.Before(i.TokenExpiry)
}
