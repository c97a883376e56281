package visibility

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// Viewer identifies who is browsing the catalog. A zero Viewer is anonymous.
type Viewer struct {
	Role enums.UserRole
	// Tier is the price tier of the viewer's business, when they have one.
	Tier *enums.PriceTier
}

// Pricing is the price view of a part that a viewer is entitled to.
type Pricing struct {
	Tier    *enums.PriceTier `json:"tier,omitempty"`
	Price   *decimal.Decimal `json:"price,omitempty"`
	PriceT1 *decimal.Decimal `json:"priceT1,omitempty"`
	PriceT2 *decimal.Decimal `json:"priceT2,omitempty"`
	PriceT3 *decimal.Decimal `json:"priceT3,omitempty"`
}

// CanSeePrices reports whether any price is shown to the viewer. Tradies never
// see pricing, even when approved.
func CanSeePrices(v Viewer) bool {
	switch v.Role {
	case enums.UserRoleSupplier:
		return true
	case enums.UserRoleProjectManager:
		return v.Tier != nil
	}
	return false
}

// PriceFor resolves the pricing of part for the viewer.
func PriceFor(v Viewer, part models.Part) Pricing {
	switch {
	case v.Role == enums.UserRoleSupplier:
		t1, t2, t3 := part.PriceT1, part.PriceT2, part.PriceT3
		return Pricing{PriceT1: &t1, PriceT2: &t2, PriceT3: &t3}
	case v.Role == enums.UserRoleProjectManager && v.Tier != nil:
		tier := *v.Tier
		price := part.PriceFor(tier)
		return Pricing{Tier: &tier, Price: &price}
	}
	return Pricing{}
}
