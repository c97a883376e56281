package parts

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/pagination"
)

// Repository handles part persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Part, error) {
	var part models.Part
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&part).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// FindByIDs loads the parts keyed by id. Missing ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Part, error) {
	out := make(map[uint]models.Part, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Part
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, part *models.Part) (*models.Part, error) {
	if err := r.db.WithContext(ctx).Create(part).Error; err != nil {
		return nil, err
	}
	return part, nil
}

func (r *Repository) Update(ctx context.Context, part *models.Part) (*models.Part, error) {
	if err := r.db.WithContext(ctx).Save(part).Error; err != nil {
		return nil, err
	}
	return part, nil
}

// Delete removes the part and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Part{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// List returns a cursor page of parts, newest first.
func (r *Repository) List(ctx context.Context, input ListPartsInput) ([]models.Part, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Part{})
	filter := input.Filters
	if category := strings.TrimSpace(filter.Category); category != "" {
		qb = qb.Where("category = ?", category)
	}
	if typ := strings.TrimSpace(filter.Type); typ != "" {
		qb = qb.Where("type = ?", typ)
	}
	if size := strings.TrimSpace(filter.Size); size != "" {
		qb = qb.Where("size = ?", size)
	}
	if filter.Popular != nil {
		qb = qb.Where("is_popular = ?", *filter.Popular)
	}
	if filter.InStock != nil {
		if *filter.InStock {
			qb = qb.Where("stock > 0")
		} else {
			qb = qb.Where("stock <= 0")
		}
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(item_code) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?)", pattern, pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Part
	err = qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(input.Pagination.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Categories returns the distinct categories in use.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.Part{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &out).Error
	return out, err
}
