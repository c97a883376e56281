package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// Order is a purchase order raised against a business.
type Order struct {
	ID                  uint              `gorm:"primaryKey"`
	BusinessID          uint              `gorm:"column:business_id;not null;index"`
	JobID               *uint             `gorm:"column:job_id;index"`
	RequestedBy         uint              `gorm:"column:requested_by;not null;index"`
	ApprovedBy          *uint             `gorm:"column:approved_by"`
	ApprovalDate        *time.Time        `gorm:"column:approval_date"`
	Status              enums.OrderStatus `gorm:"column:status;type:text;not null;index"`
	Total               decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Notes               *string           `gorm:"column:notes"`
	RejectionReason     *string           `gorm:"column:rejection_reason"`
	DeliveryAddress     *string           `gorm:"column:delivery_address"`
	PurchaseOrderNumber *string           `gorm:"column:purchase_order_number"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem holds the unit price snapshot taken at order creation.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"column:order_id;not null;index"`
	PartID    uint            `gorm:"column:part_id;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// OrderHistory is an append-only log of status changes.
type OrderHistory struct {
	ID        uint              `gorm:"primaryKey"`
	OrderID   uint              `gorm:"column:order_id;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	ChangedBy uint              `gorm:"column:changed_by;not null"`
	Notes     *string           `gorm:"column:notes"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderHistory) TableName() string {
	return "order_history"
}
