// Package clients manages the customers a business does jobs for.
package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
)

// ClientDTO is the API shape of a client.
type ClientDTO struct {
	ID           uint      `json:"id"`
	BusinessID   uint      `json:"businessId"`
	Name         string    `json:"name"`
	ContactName  *string   `json:"contactName,omitempty"`
	ContactEmail *string   `json:"contactEmail,omitempty"`
	ContactPhone *string   `json:"contactPhone,omitempty"`
	Address      *string   `json:"address,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Input is the create/update payload. Update replaces every field.
type Input struct {
	Name         string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Address      *string
}

func fromModel(c models.Client) ClientDTO {
	return ClientDTO{
		ID:           c.ID,
		BusinessID:   c.BusinessID,
		Name:         c.Name,
		ContactName:  c.ContactName,
		ContactEmail: c.ContactEmail,
		ContactPhone: c.ContactPhone,
		Address:      c.Address,
		CreatedAt:    c.CreatedAt,
	}
}

// Repository persists clients.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListByBusiness(ctx context.Context, businessID uint) ([]models.Client, error) {
	var rows []models.Client
	err := r.db.WithContext(ctx).Where("business_id = ?", businessID).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	var row models.Client
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Save(ctx context.Context, c *models.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Client{}, "id = ?", id).Error
}

// Service exposes PM client management, always scoped to one business.
type Service interface {
	List(ctx context.Context, businessID uint) ([]ClientDTO, error)
	Get(ctx context.Context, businessID, id uint) (*ClientDTO, error)
	Create(ctx context.Context, businessID uint, input Input) (*ClientDTO, error)
	Update(ctx context.Context, businessID, id uint, input Input) (*ClientDTO, error)
	Delete(ctx context.Context, businessID, id uint) error
}

type clientRepository interface {
	ListByBusiness(ctx context.Context, businessID uint) ([]models.Client, error)
	FindByID(ctx context.Context, id uint) (*models.Client, error)
	Save(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo clientRepository
}

func NewService(repo clientRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "clients repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, businessID uint) ([]ClientDTO, error) {
	rows, err := s.repo.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	out := make([]ClientDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, businessID, id uint) (*ClientDTO, error) {
	row, err := s.load(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	dto := fromModel(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, businessID uint, input Input) (*ClientDTO, error) {
	row := &models.Client{BusinessID: businessID}
	if err := apply(row, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create client")
	}
	dto := fromModel(*row)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, businessID, id uint, input Input) (*ClientDTO, error) {
	row, err := s.load(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(row, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update client")
	}
	dto := fromModel(*row)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, businessID, id uint) error {
	if _, err := s.load(ctx, businessID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete client")
	}
	return nil
}

// load hides clients of other businesses behind a not found.
func (s *service) load(ctx context.Context, businessID, id uint) (*models.Client, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	if row.BusinessID != businessID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}
	return row, nil
}

func apply(row *models.Client, input Input) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}
	row.Name = name
	row.ContactName = input.ContactName
	row.ContactEmail = input.ContactEmail
	row.ContactPhone = input.ContactPhone
	row.Address = input.Address
	return nil
}
