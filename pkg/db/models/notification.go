package models

import (
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// Notification stores in-app notifications addressed to a single user.
type Notification struct {
	ID          uint                   `gorm:"primaryKey"`
	UserID      uint                   `gorm:"column:user_id;not null;index"`
	Type        enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title       string                 `gorm:"column:title;not null"`
	Message     string                 `gorm:"column:message;not null"`
	RelatedType *string                `gorm:"column:related_type"`
	RelatedID   *uint                  `gorm:"column:related_id"`
	IsRead      bool                   `gorm:"column:is_read;not null;default:false"`
	ReadAt      *time.Time             `gorm:"column:read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
