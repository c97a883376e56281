package businesses

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
)

// Repository handles business persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to business operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create persists a new business row.
func (r *Repository) Create(ctx context.Context, dto CreateBusinessDTO) (*models.Business, error) {
	business := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(business).Error; err != nil {
		return nil, err
	}
	return business, nil
}

// FindByID loads a business by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Business, error) {
	var business models.Business
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// List returns every business ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Business, error) {
	var rows []models.Business
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Updates writes the given columns on one business.
func (r *Repository) Updates(ctx context.Context, id uint, columns map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Business{}).Where("id = ?", id).Updates(columns).Error
}
