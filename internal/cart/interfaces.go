package cart

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
)

// Owner identifies whose cart is addressed: a signed-in user or a guest id.
type Owner struct {
	UserID  *uint
	GuestID string
}

// IsGuest reports whether the cart belongs to an anonymous visitor.
func (o Owner) IsGuest() bool {
	return o.UserID == nil
}

// Valid reports whether exactly one owner key is set.
func (o Owner) Valid() bool {
	if o.UserID != nil {
		return *o.UserID != 0 && o.GuestID == ""
	}
	return o.GuestID != ""
}

// CartRepository defines cart persistence.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	List(ctx context.Context, owner Owner) ([]models.CartItem, error)
	FindItem(ctx context.Context, owner Owner, itemID uint) (*models.CartItem, error)
	FindMatch(ctx context.Context, owner Owner, partID uint, jobID *uint) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	SetQuantity(ctx context.Context, itemID uint, quantity int) error
	Delete(ctx context.Context, itemID uint) error
	Reassign(ctx context.Context, itemID, userID uint) error
	Clear(ctx context.Context, owner Owner) (int64, error)
	DeleteGuestItemsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
