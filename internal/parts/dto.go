package parts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/pagination"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/visibility"
)

// PartDTO is the catalog payload; its pricing depends on who is looking.
type PartDTO struct {
	ID          uint      `json:"id"`
	ItemCode    string    `json:"itemCode"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Type        *string   `json:"type,omitempty"`
	Size        *string   `json:"size,omitempty"`
	Tags        []string  `json:"tags"`
	Stock       int       `json:"stock"`
	IsPopular   bool      `json:"isPopular"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	visibility.Pricing
}

// ListResult is one page of the catalog.
type ListResult = pagination.Page[PartDTO]

// CreatePartInput holds the validated payload to create a part.
type CreatePartInput struct {
	ItemCode    string
	Description string
	Category    string
	Type        *string
	Size        *string
	Tags        []string
	PriceT1     decimal.Decimal
	PriceT2     decimal.Decimal
	PriceT3     decimal.Decimal
	Stock       int
	IsPopular   bool
	ImageURL    *string
}

// UpdatePartInput holds optional mutation values for a part.
type UpdatePartInput struct {
	ItemCode    *string
	Description *string
	Category    *string
	Type        *string
	Size        *string
	Tags        *[]string
	PriceT1     *decimal.Decimal
	PriceT2     *decimal.Decimal
	PriceT3     *decimal.Decimal
	Stock       *int
	IsPopular   *bool
	ImageURL    *string
}

// ListFilters narrows the catalog.
type ListFilters struct {
	Query    string
	Category string
	Type     string
	Size     string
	Popular  *bool
	InStock  *bool
}

// ListPartsInput bundles pagination and filters.
type ListPartsInput struct {
	Pagination pagination.Params
	Filters    ListFilters
}

// NewPartDTO builds the payload for the viewer.
func NewPartDTO(part models.Part, viewer visibility.Viewer) PartDTO {
	tags := []string(part.Tags)
	if tags == nil {
		tags = []string{}
	}
	return PartDTO{
		ID:          part.ID,
		ItemCode:    part.ItemCode,
		Description: part.Description,
		Category:    part.Category,
		Type:        part.Type,
		Size:        part.Size,
		Tags:        append([]string{}, tags...),
		Stock:       part.Stock,
		IsPopular:   part.IsPopular,
		ImageURL:    part.ImageURL,
		CreatedAt:   part.CreatedAt,
		UpdatedAt:   part.UpdatedAt,
		Pricing:     visibility.PriceFor(viewer, part),
	}
}
