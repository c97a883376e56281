package parts

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/pagination"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/visibility"
)

// Service exposes catalog browsing and supplier part management.
type Service interface {
	ViewerFor(ctx context.Context, user *models.User) (visibility.Viewer, error)
	List(ctx context.Context, viewer visibility.Viewer, input ListPartsInput) (*ListResult, error)
	Get(ctx context.Context, viewer visibility.Viewer, id uint) (*PartDTO, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, input CreatePartInput) (*PartDTO, error)
	Update(ctx context.Context, id uint, input UpdatePartInput) (*PartDTO, error)
	Delete(ctx context.Context, id uint) error
}

type partRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Part, error)
	Create(ctx context.Context, part *models.Part) (*models.Part, error)
	Update(ctx context.Context, part *models.Part) (*models.Part, error)
	Delete(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, input ListPartsInput) ([]models.Part, error)
	Categories(ctx context.Context) ([]string, error)
}

type businessLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Business, error)
}

type service struct {
	repo       partRepository
	businesses businessLoader
}

// NewService builds the parts service.
func NewService(repo partRepository, businesses businessLoader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "parts repository required")
	}
	if businesses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "business loader required")
	}
	return &service{repo: repo, businesses: businesses}, nil
}

// ViewerFor derives the price viewer for a possibly anonymous user.
func (s *service) ViewerFor(ctx context.Context, user *models.User) (visibility.Viewer, error) {
	if user == nil {
		return visibility.Viewer{}, nil
	}
	viewer := visibility.Viewer{Role: user.Role}
	if user.Role != enums.UserRoleProjectManager || !user.HasBusiness() {
		return viewer, nil
	}
	business, err := s.businesses.FindByID(ctx, *user.BusinessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return viewer, nil
		}
		return viewer, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business tier")
	}
	tier := business.PriceTier
	viewer.Tier = &tier
	return viewer, nil
}

func (s *service) List(ctx context.Context, viewer visibility.Viewer, input ListPartsInput) (*ListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parts")
	}
	items := make([]PartDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, NewPartDTO(row, viewer))
	}
	page := pagination.Trim(items, input.Pagination.Limit, func(p PartDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return &page, nil
}

func (s *service) Get(ctx context.Context, viewer visibility.Viewer, id uint) (*PartDTO, error) {
	part, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := NewPartDTO(*part, viewer)
	return &dto, nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	out, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreatePartInput) (*PartDTO, error) {
	part := &models.Part{
		ItemCode:    strings.TrimSpace(input.ItemCode),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Type:        input.Type,
		Size:        input.Size,
		Tags:        normalizeTags(input.Tags),
		PriceT1:     input.PriceT1,
		PriceT2:     input.PriceT2,
		PriceT3:     input.PriceT3,
		Stock:       input.Stock,
		IsPopular:   input.IsPopular,
		ImageURL:    input.ImageURL,
	}
	if err := validatePart(part); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, part)
	if err != nil {
		return nil, mapWriteError(err, "create part")
	}
	dto := NewPartDTO(*created, visibility.Viewer{Role: enums.UserRoleSupplier})
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdatePartInput) (*PartDTO, error) {
	part, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdate(part, input)
	if err := validatePart(part); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, part)
	if err != nil {
		return nil, mapWriteError(err, "update part")
	}
	dto := NewPartDTO(*updated, visibility.Viewer{Role: enums.UserRoleSupplier})
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "part is referenced by existing orders")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete part")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uint) (*models.Part, error) {
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part")
	}
	return part, nil
}

func applyUpdate(part *models.Part, input UpdatePartInput) {
	if input.ItemCode != nil {
		part.ItemCode = strings.TrimSpace(*input.ItemCode)
	}
	if input.Description != nil {
		part.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		part.Category = strings.TrimSpace(*input.Category)
	}
	if input.Type != nil {
		part.Type = input.Type
	}
	if input.Size != nil {
		part.Size = input.Size
	}
	if input.Tags != nil {
		part.Tags = normalizeTags(*input.Tags)
	}
	if input.PriceT1 != nil {
		part.PriceT1 = *input.PriceT1
	}
	if input.PriceT2 != nil {
		part.PriceT2 = *input.PriceT2
	}
	if input.PriceT3 != nil {
		part.PriceT3 = *input.PriceT3
	}
	if input.Stock != nil {
		part.Stock = *input.Stock
	}
	if input.IsPopular != nil {
		part.IsPopular = *input.IsPopular
	}
	if input.ImageURL != nil {
		part.ImageURL = input.ImageURL
	}
}

func validatePart(part *models.Part) error {
	switch {
	case part.ItemCode == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "item code is required")
	case part.Description == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	case part.Category == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	case part.Stock < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	for tier, price := range map[string]decimal.Decimal{"T1": part.PriceT1, "T2": part.PriceT2, "T3": part.PriceT3} {
		if price.IsNegative() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "price %s cannot be negative", tier)
		}
	}
	return nil
}

func mapWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "a part with this item code already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
