package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sprinklerhub-backend/internal/parts"
)

// ItemDTO is one cart line with the part as the viewer may see it.
type ItemDTO struct {
	ID       uint           `json:"id"`
	PartID   uint           `json:"partId"`
	JobID    *uint          `json:"jobId,omitempty"`
	Quantity int            `json:"quantity"`
	Part     *parts.PartDTO `json:"part,omitempty"`
}

// CartDTO is the full cart. Subtotal is only present when the viewer sees prices.
type CartDTO struct {
	Items     []ItemDTO        `json:"items"`
	ItemCount int              `json:"itemCount"`
	Subtotal  *decimal.Decimal `json:"subtotal,omitempty"`
}

// AddItemInput adds quantity of a part, optionally against a job.
type AddItemInput struct {
	PartID   uint
	JobID    *uint
	Quantity int
	// BusinessID is the signed-in user's company; jobs must belong to it.
	BusinessID *uint
}
