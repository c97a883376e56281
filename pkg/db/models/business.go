package models

import (
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// Business owns users, jobs, clients and orders.
type Business struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	ABN       *string         `gorm:"column:abn"`
	Phone     *string         `gorm:"column:phone"`
	Email     *string         `gorm:"column:email"`
	Address   *string         `gorm:"column:address"`
	PriceTier enums.PriceTier `gorm:"column:price_tier;type:text;not null;default:'T3'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
