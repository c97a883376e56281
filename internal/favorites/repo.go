package favorites

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
)

// Repository encapsulates favorites persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts a favorite and ignores duplicates. It reports whether a row was created.
func (r *Repository) Add(ctx context.Context, userID, partID uint) (bool, error) {
	if userID == 0 || partID == 0 {
		return false, gorm.ErrInvalidValue
	}
	res := r.db.WithContext(ctx).
		Exec(`INSERT INTO favorites (user_id, part_id, created_at) VALUES (?, ?, CURRENT_TIMESTAMP) ON CONFLICT (user_id, part_id) DO NOTHING`, userID, partID)
	return res.RowsAffected == 1, res.Error
}

// Remove deletes the favorite if it exists.
func (r *Repository) Remove(ctx context.Context, userID, partID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND part_id = ?", userID, partID).
		Delete(&models.Favorite{})
	return res.RowsAffected > 0, res.Error
}

// ListParts returns the user's favorite parts, most recently favorited first.
func (r *Repository) ListParts(ctx context.Context, userID uint) ([]models.Part, error) {
	var rows []models.Part
	err := r.db.WithContext(ctx).
		Table("parts").
		Select("parts.*").
		Joins("JOIN favorites f ON f.part_id = parts.id").
		Where("f.user_id = ?", userID).
		Order("f.created_at DESC").
		Order("f.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
