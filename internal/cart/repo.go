package cart

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
)

// Repository exposes persistence operations for cart rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) scoped(ctx context.Context, owner Owner) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.CartItem{})
	if owner.UserID != nil {
		return q.Where("user_id = ?", *owner.UserID)
	}
	return q.Where("guest_id = ? AND user_id IS NULL", owner.GuestID)
}

func (r *Repository) List(ctx context.Context, owner Owner) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.scoped(ctx, owner).Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindItem(ctx context.Context, owner Owner, itemID uint) (*models.CartItem, error) {
	var row models.CartItem
	if err := r.scoped(ctx, owner).Where("id = ?", itemID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindMatch returns the row for the (owner, part, job) combination.
func (r *Repository) FindMatch(ctx context.Context, owner Owner, partID uint, jobID *uint) (*models.CartItem, error) {
	q := r.scoped(ctx, owner).Where("part_id = ?", partID)
	if jobID == nil {
		q = q.Where("job_id IS NULL")
	} else {
		q = q.Where("job_id = ?", *jobID)
	}
	var row models.CartItem
	if err := q.First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) SetQuantity(ctx context.Context, itemID uint, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()}).Error
}

func (r *Repository) Delete(ctx context.Context, itemID uint) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

// Reassign moves a guest row onto the user's cart.
func (r *Repository) Reassign(ctx context.Context, itemID, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"user_id": userID, "guest_id": nil, "updated_at": time.Now().UTC()}).Error
}

func (r *Repository) Clear(ctx context.Context, owner Owner) (int64, error) {
	res := r.scoped(ctx, owner).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteGuestItemsBefore removes abandoned guest rows untouched since cutoff.
func (r *Repository) DeleteGuestItemsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id IS NULL AND updated_at < ?", cutoff).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
