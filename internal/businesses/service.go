package businesses

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
)

type businessRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Business, error)
	List(ctx context.Context) ([]models.Business, error)
	Updates(ctx context.Context, id uint, columns map[string]any) error
}

// Service exposes business operations.
type Service interface {
	ListSummaries(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id uint) (*BusinessDTO, error)
	Update(ctx context.Context, id uint, input UpdateBusinessInput) (*BusinessDTO, error)
	SetPriceTier(ctx context.Context, id uint, tier enums.PriceTier) (*BusinessDTO, error)
}

type service struct {
	repo businessRepository
}

// NewService builds a business service.
func NewService(repo businessRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "business repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListSummaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list businesses")
	}
	out := make([]Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, Summary{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uint) (*BusinessDTO, error) {
	business, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(business), nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateBusinessInput) (*BusinessDTO, error) {
	columns := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name cannot be empty")
		}
		columns["name"] = name
	}
	if input.ABN != nil {
		columns["abn"] = trimmedOrNil(*input.ABN)
	}
	if input.Phone != nil {
		columns["phone"] = trimmedOrNil(*input.Phone)
	}
	if input.Email != nil {
		columns["email"] = trimmedOrNil(*input.Email)
	}
	if input.Address != nil {
		columns["address"] = trimmedOrNil(*input.Address)
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		if err := s.repo.Updates(ctx, id, columns); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update business")
		}
	}
	return s.Get(ctx, id)
}

func (s *service) SetPriceTier(ctx context.Context, id uint, tier enums.PriceTier) (*BusinessDTO, error) {
	if !tier.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid price tier %q", tier)
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Updates(ctx, id, map[string]any{"price_tier": tier}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update price tier")
	}
	return s.Get(ctx, id)
}

func (s *service) load(ctx context.Context, id uint) (*models.Business, error) {
	business, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	return business, nil
}

func trimmedOrNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
