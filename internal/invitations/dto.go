package invitations

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// Outcome explains why a token could not be redeemed.
type Outcome string

const (
	OutcomeInvalid Outcome = "invalid"
	OutcomeExpired Outcome = "expired"
)

// InviteInput is a PM's request to invite a tradie by email.
type InviteInput struct {
	Email   string
	Message string
}

// InvitationDTO is an invitation as PMs and tradies see it.
type InvitationDTO struct {
	ID           uint                   `json:"id"`
	BusinessID   uint                   `json:"businessId"`
	BusinessName string                 `json:"businessName,omitempty"`
	InvitedBy    uint                   `json:"invitedBy"`
	InviterName  string                 `json:"inviterName,omitempty"`
	Email        string                 `json:"email"`
	Status       enums.InvitationStatus `json:"status"`
	Expired      bool                   `json:"expired"`
	Message      *string                `json:"message,omitempty"`
	ExpiresAt    time.Time              `json:"expiresAt"`
	RespondedAt  *time.Time             `json:"respondedAt,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// TokenCheck is the public view of a valid registration token.
type TokenCheck struct {
	Valid        bool      `json:"valid"`
	Email        string    `json:"email"`
	BusinessID   uint      `json:"businessId"`
	BusinessName string    `json:"businessName"`
	InviterName  string    `json:"inviterName"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type invitationRow struct {
	ID               uint                   `gorm:"column:id"`
	BusinessID       uint                   `gorm:"column:business_id"`
	ProjectManagerID uint                   `gorm:"column:project_manager_id"`
	Email            string                 `gorm:"column:email"`
	InvitationToken  uuid.UUID              `gorm:"column:invitation_token"`
	TokenExpiry      time.Time              `gorm:"column:token_expiry"`
	Status           enums.InvitationStatus `gorm:"column:status"`
	Message          *string                `gorm:"column:message"`
	RespondedAt      *time.Time             `gorm:"column:responded_at"`
	CreatedAt        time.Time              `gorm:"column:created_at"`
	BusinessName     string                 `gorm:"column:business_name"`
	InviterFirstName string                 `gorm:"column:inviter_first_name"`
	InviterLastName  string                 `gorm:"column:inviter_last_name"`
}

func (r invitationRow) inviterName() string {
	switch {
	case r.InviterFirstName == "":
		return r.InviterLastName
	case r.InviterLastName == "":
		return r.InviterFirstName
	}
	return r.InviterFirstName + " " + r.InviterLastName
}

func (r invitationRow) toDTO(now time.Time) InvitationDTO {
	return InvitationDTO{
		ID:           r.ID,
		BusinessID:   r.BusinessID,
		BusinessName: r.BusinessName,
		InvitedBy:    r.ProjectManagerID,
		InviterName:  r.inviterName(),
		Email:        r.Email,
		Status:       r.Status,
		Expired:      r.Status == enums.InvitationStatusPending && !now.Before(r.TokenExpiry),
		Message:      r.Message,
		ExpiresAt:    r.TokenExpiry,
		RespondedAt:  r.RespondedAt,
		CreatedAt:    r.CreatedAt,
	}
}
