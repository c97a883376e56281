package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/pagination"
)

// CreateOrderInput submits the signed-in user's cart as an order.
type CreateOrderInput struct {
	JobID               *uint
	Notes               string
	DeliveryAddress     string
	PurchaseOrderNumber string
}

// ModifyItem rewrites the quantity of one part already on the order.
type ModifyItem struct {
	PartID   uint
	Quantity int
}

// ModifyInput is a PM's change request on a pending order.
type ModifyInput struct {
	Items []ModifyItem
	Notes string
}

// ListFilters narrows an order listing.
type ListFilters struct {
	BusinessID  *uint
	RequestedBy *uint
	JobID       *uint
	Statuses    []enums.OrderStatus
	Pagination  pagination.Params
}

// OrderSummary is one row of an order list.
type OrderSummary struct {
	ID            uint              `json:"id"`
	BusinessID    uint              `json:"businessId"`
	BusinessName  string            `json:"businessName,omitempty"`
	JobID         *uint             `json:"jobId,omitempty"`
	JobNumber     *string           `json:"jobNumber,omitempty"`
	RequestedBy   uint              `json:"requestedBy"`
	RequesterName string            `json:"requesterName"`
	Status        enums.OrderStatus `json:"status"`
	ItemCount     int               `json:"itemCount"`
	Total         *decimal.Decimal  `json:"total,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// ListResult is one page of orders.
type ListResult = pagination.Page[OrderSummary]

// ItemDTO is one order line. Prices are the snapshot taken at creation.
type ItemDTO struct {
	ID          uint             `json:"id"`
	PartID      uint             `json:"partId"`
	ItemCode    string           `json:"itemCode"`
	Description string           `json:"description"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
	LineTotal   *decimal.Decimal `json:"lineTotal,omitempty"`
}

// HistoryDTO is one status change.
type HistoryDTO struct {
	Status    enums.OrderStatus `json:"status"`
	ChangedBy uint              `json:"changedBy"`
	Notes     *string           `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// OrderDetail is an order with its lines and history.
type OrderDetail struct {
	ID                  uint              `json:"id"`
	BusinessID          uint              `json:"businessId"`
	JobID               *uint             `json:"jobId,omitempty"`
	RequestedBy         uint              `json:"requestedBy"`
	ApprovedBy          *uint             `json:"approvedBy,omitempty"`
	ApprovalDate        *time.Time        `json:"approvalDate,omitempty"`
	Status              enums.OrderStatus `json:"status"`
	Total               *decimal.Decimal  `json:"total,omitempty"`
	Notes               *string           `json:"notes,omitempty"`
	RejectionReason     *string           `json:"rejectionReason,omitempty"`
	DeliveryAddress     *string           `json:"deliveryAddress,omitempty"`
	PurchaseOrderNumber *string           `json:"purchaseOrderNumber,omitempty"`
	Items               []ItemDTO         `json:"items"`
	History             []HistoryDTO      `json:"history"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

type orderRow struct {
	ID                 uint              `gorm:"column:id"`
	BusinessID         uint              `gorm:"column:business_id"`
	JobID              *uint             `gorm:"column:job_id"`
	RequestedBy        uint              `gorm:"column:requested_by"`
	Status             enums.OrderStatus `gorm:"column:status"`
	Total              decimal.Decimal   `gorm:"column:total"`
	CreatedAt          time.Time         `gorm:"column:created_at"`
	UpdatedAt          time.Time         `gorm:"column:updated_at"`
	BusinessName       string            `gorm:"column:business_name"`
	JobNumber          *string           `gorm:"column:job_number"`
	RequesterFirstName string            `gorm:"column:requester_first_name"`
	RequesterLastName  string            `gorm:"column:requester_last_name"`
	ItemCount          int               `gorm:"column:item_count"`
}

type itemRow struct {
	models.OrderItem
	ItemCode    string `gorm:"column:item_code"`
	Description string `gorm:"column:description"`
}

func priceOrNil(d decimal.Decimal, show bool) *decimal.Decimal {
	if !show {
		return nil
	}
	v := d
	return &v
}

func toSummary(row orderRow, showPrices bool) OrderSummary {
	requester := models.User{FirstName: row.RequesterFirstName, LastName: row.RequesterLastName}
	return OrderSummary{
		ID:            row.ID,
		BusinessID:    row.BusinessID,
		BusinessName:  row.BusinessName,
		JobID:         row.JobID,
		JobNumber:     row.JobNumber,
		RequestedBy:   row.RequestedBy,
		RequesterName: requester.FullName(),
		Status:        row.Status,
		ItemCount:     row.ItemCount,
		Total:         priceOrNil(row.Total, showPrices),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func toDetail(order models.Order, items []itemRow, history []models.OrderHistory, showPrices bool) *OrderDetail {
	out := &OrderDetail{
		ID:                  order.ID,
		BusinessID:          order.BusinessID,
		JobID:               order.JobID,
		RequestedBy:         order.RequestedBy,
		ApprovedBy:          order.ApprovedBy,
		ApprovalDate:        order.ApprovalDate,
		Status:              order.Status,
		Total:               priceOrNil(order.Total, showPrices),
		Notes:               order.Notes,
		RejectionReason:     order.RejectionReason,
		DeliveryAddress:     order.DeliveryAddress,
		PurchaseOrderNumber: order.PurchaseOrderNumber,
		Items:               make([]ItemDTO, 0, len(items)),
		History:             make([]HistoryDTO, 0, len(history)),
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
	for _, item := range items {
		out.Items = append(out.Items, ItemDTO{
			ID:          item.ID,
			PartID:      item.PartID,
			ItemCode:    item.ItemCode,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   priceOrNil(item.UnitPrice, showPrices),
			LineTotal:   priceOrNil(item.LineTotal, showPrices),
		})
	}
	for _, h := range history {
		out.History = append(out.History, HistoryDTO{
			Status:    h.Status,
			ChangedBy: h.ChangedBy,
			Notes:     h.Notes,
			CreatedAt: h.CreatedAt,
		})
	}
	return out
}
