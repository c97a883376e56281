package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// Part is a catalog entry carrying one price per tier.
type Part struct {
	ID          uint            `gorm:"primaryKey"`
	ItemCode    string          `gorm:"column:item_code;not null;uniqueIndex"`
	Description string          `gorm:"column:description;not null"`
	Category    string          `gorm:"column:category;not null;index"`
	Type        *string         `gorm:"column:type"`
	Size        *string         `gorm:"column:size"`
	Tags        pq.StringArray  `gorm:"column:tags;type:text"`
	PriceT1     decimal.Decimal `gorm:"column:price_t1;type:numeric(12,2);not null"`
	PriceT2     decimal.Decimal `gorm:"column:price_t2;type:numeric(12,2);not null"`
	PriceT3     decimal.Decimal `gorm:"column:price_t3;type:numeric(12,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	IsPopular   bool            `gorm:"column:is_popular;not null;default:false"`
	ImageURL    *string         `gorm:"column:image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// PriceFor returns the unit price for the tier, falling back to T3.
func (p Part) PriceFor(tier enums.PriceTier) decimal.Decimal {
	switch tier {
	case enums.PriceTierT1:
		return p.PriceT1
	case enums.PriceTierT2:
		return p.PriceT2
	default:
		return p.PriceT3
	}
}
