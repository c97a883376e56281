package favorites

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/internal/parts"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/visibility"
)

// Service manages a user's favorite parts.
type Service interface {
	List(ctx context.Context, userID uint, viewer visibility.Viewer) ([]parts.PartDTO, error)
	Add(ctx context.Context, userID, partID uint) error
	Remove(ctx context.Context, userID, partID uint) error
}

type favoritesRepository interface {
	Add(ctx context.Context, userID, partID uint) (bool, error)
	Remove(ctx context.Context, userID, partID uint) (bool, error)
	ListParts(ctx context.Context, userID uint) ([]models.Part, error)
}

type partLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Part, error)
}

type service struct {
	repo  favoritesRepository
	parts partLoader
}

func NewService(repo favoritesRepository, parts partLoader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "favorites repository required")
	}
	if parts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "part loader required")
	}
	return &service{repo: repo, parts: parts}, nil
}

func (s *service) List(ctx context.Context, userID uint, viewer visibility.Viewer) ([]parts.PartDTO, error) {
	rows, err := s.repo.ListParts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	out := make([]parts.PartDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, parts.NewPartDTO(row, viewer))
	}
	return out, nil
}

// Add is idempotent: favoriting a part twice is not an error.
func (s *service) Add(ctx context.Context, userID, partID uint) error {
	if partID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "part id required")
	}
	if _, err := s.parts.FindByID(ctx, partID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part")
	}
	if _, err := s.repo.Add(ctx, userID, partID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add favorite")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, partID uint) error {
	found, err := s.repo.Remove(ctx, userID, partID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "favorite not found")
	}
	return nil
}
