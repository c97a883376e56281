package orders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

// Repository defines persistence operations for orders, their lines and history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindItems(ctx context.Context, orderID uint) ([]itemRow, error)
	FindHistory(ctx context.Context, orderID uint) ([]models.OrderHistory, error)
	List(ctx context.Context, filters ListFilters) ([]orderRow, error)
	// TransitionStatus applies updates only while the order is still in from.
	TransitionStatus(ctx context.Context, orderID uint, from enums.OrderStatus, updates map[string]any) (bool, error)
	UpdateItem(ctx context.Context, itemID uint, quantity int, lineTotal decimal.Decimal) error
	AppendHistory(ctx context.Context, entry *models.OrderHistory) error
}
