package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sprinklerhub-backend/api/middleware"
	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	"github.com/angelmondragon/sprinklerhub-backend/internal/parts"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type createPartRequest struct {
	ItemCode    string          `json:"itemCode" validate:"notblank,max=50"`
	Description string          `json:"description" validate:"required"`
	Category    string          `json:"category" validate:"notblank,max=100"`
	Type        *string         `json:"type" validate:"omitempty,max=100"`
	Size        *string         `json:"size" validate:"omitempty,max=50"`
	Tags        []string        `json:"tags"`
	PriceT1     decimal.Decimal `json:"priceT1"`
	PriceT2     decimal.Decimal `json:"priceT2"`
	PriceT3     decimal.Decimal `json:"priceT3"`
	Stock       int             `json:"stock" validate:"gte=0"`
	IsPopular   bool            `json:"isPopular"`
	ImageURL    *string         `json:"imageUrl" validate:"omitempty,url"`
}

type updatePartRequest struct {
	ItemCode    *string          `json:"itemCode" validate:"omitempty,max=50"`
	Description *string          `json:"description"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Type        *string          `json:"type" validate:"omitempty,max=100"`
	Size        *string          `json:"size" validate:"omitempty,max=50"`
	Tags        *[]string        `json:"tags"`
	PriceT1     *decimal.Decimal `json:"priceT1"`
	PriceT2     *decimal.Decimal `json:"priceT2"`
	PriceT3     *decimal.Decimal `json:"priceT3"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	IsPopular   *bool            `json:"isPopular"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,url"`
}

// PartsList returns a page of the catalog priced for the viewer.
func PartsList(svc parts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "parts")
			return
		}

		input, err := parsePartsQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer, err := svc.ViewerFor(r.Context(), middleware.UserFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), viewer, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// PartDetail returns one part priced for the viewer.
func PartDetail(svc parts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "parts")
			return
		}
		id, err := validators.ParseIDParam(r, "partId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer, err := svc.ViewerFor(r.Context(), middleware.UserFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		part, err := svc.Get(r.Context(), viewer, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, part)
	}
}

// PartCategories lists the distinct catalog categories.
func PartCategories(svc parts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "parts")
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// SupplierCreatePart adds a part to the catalog.
func SupplierCreatePart(svc parts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "parts")
			return
		}

		var body createPartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		part, err := svc.Create(r.Context(), parts.CreatePartInput{
			ItemCode:    body.ItemCode,
			Description: body.Description,
			Category:    body.Category,
			Type:        trimmed(body.Type),
			Size:        trimmed(body.Size),
			Tags:        body.Tags,
			PriceT1:     body.PriceT1,
			PriceT2:     body.PriceT2,
			PriceT3:     body.PriceT3,
			Stock:       body.Stock,
			IsPopular:   body.IsPopular,
			ImageURL:    trimmed(body.ImageURL),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, part)
	}
}

// SupplierUpdatePart applies a partial update to a part.
func SupplierUpdatePart(svc parts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "parts")
			return
		}
		id, err := validators.ParseIDParam(r, "partId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		part, err := svc.Update(r.Context(), id, parts.UpdatePartInput{
			ItemCode:    body.ItemCode,
			Description: body.Description,
			Category:    body.Category,
			Type:        body.Type,
			Size:        body.Size,
			Tags:        body.Tags,
			PriceT1:     body.PriceT1,
			PriceT2:     body.PriceT2,
			PriceT3:     body.PriceT3,
			Stock:       body.Stock,
			IsPopular:   body.IsPopular,
			ImageURL:    body.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, part)
	}
}

// SupplierDeletePart removes a part from the catalog.
func SupplierDeletePart(svc parts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "parts")
			return
		}
		id, err := validators.ParseIDParam(r, "partId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func parsePartsQuery(r *http.Request) (parts.ListPartsInput, error) {
	page, err := validators.ParsePage(r)
	if err != nil {
		return parts.ListPartsInput{}, err
	}
	input := parts.ListPartsInput{Pagination: page}
	text := map[string]*string{
		"search":   &input.Filters.Query,
		"category": &input.Filters.Category,
		"type":     &input.Filters.Type,
		"size":     &input.Filters.Size,
	}
	for key, dest := range text {
		if *dest, err = validators.QueryText(r, key); err != nil {
			return parts.ListPartsInput{}, err
		}
	}
	if input.Filters.Query == "" {
		if input.Filters.Query, err = validators.QueryText(r, "q"); err != nil {
			return parts.ListPartsInput{}, err
		}
	}
	for key, dest := range map[string]**bool{"popular": &input.Filters.Popular, "inStock": &input.Filters.InStock} {
		if strings.TrimSpace(r.URL.Query().Get(key)) == "" {
			continue
		}
		value, err := validators.ParseQueryBool(r, key)
		if err != nil {
			return parts.ListPartsInput{}, err
		}
		*dest = &value
	}
	return input, nil
}
