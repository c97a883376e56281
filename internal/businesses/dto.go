package businesses

import (
	"strings"
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// BusinessDTO is the full business shape shown to its members and suppliers.
type BusinessDTO struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	ABN       *string         `json:"abn,omitempty"`
	Phone     *string         `json:"phone,omitempty"`
	Email     *string         `json:"email,omitempty"`
	Address   *string         `json:"address,omitempty"`
	PriceTier enums.PriceTier `json:"priceTier"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Summary is the public picker shape used at registration.
type Summary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// CreateBusinessDTO holds the data persisted for a new business.
type CreateBusinessDTO struct {
	Name      string
	ABN       *string
	Phone     *string
	Email     *string
	Address   *string
	PriceTier enums.PriceTier
}

// UpdateBusinessInput captures the fields a PM may change.
type UpdateBusinessInput struct {
	Name    *string
	ABN     *string
	Phone   *string
	Email   *string
	Address *string
}

func FromModel(b *models.Business) *BusinessDTO {
	if b == nil {
		return nil
	}
	return &BusinessDTO{
		ID:        b.ID,
		Name:      b.Name,
		ABN:       b.ABN,
		Phone:     b.Phone,
		Email:     b.Email,
		Address:   b.Address,
		PriceTier: b.PriceTier,
		CreatedAt: b.CreatedAt,
	}
}

func (c CreateBusinessDTO) ToModel() *models.Business {
	tier := c.PriceTier
	if !tier.IsValid() {
		tier = enums.PriceTierT3
	}
	return &models.Business{
		Name:      strings.TrimSpace(c.Name),
		ABN:       c.ABN,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		PriceTier: tier,
	}
}
