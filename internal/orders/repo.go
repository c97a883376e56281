package orders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository binds the orders repository to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its Items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindItems(ctx context.Context, orderID uint) ([]itemRow, error) {
	var rows []itemRow
	err := r.db.WithContext(ctx).
		Table("order_items oi").
		Select("oi.*, p.item_code, p.description").
		Joins("JOIN parts p ON p.id = oi.part_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindHistory(ctx context.Context, orderID uint) ([]models.OrderHistory, error) {
	var rows []models.OrderHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns a cursor page of orders, newest first, with the look-ahead row.
func (r *repository) List(ctx context.Context, filters ListFilters) ([]orderRow, error) {
	cursor, err := pagination.ParseCursor(filters.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Table("orders o").
		Select(`o.id, o.business_id, o.job_id, o.requested_by, o.status, o.total, o.created_at, o.updated_at,
b.name AS business_name, j.job_number,
u.first_name AS requester_first_name, u.last_name AS requester_last_name,
(SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS item_count`).
		Joins("JOIN businesses b ON b.id = o.business_id").
		Joins("JOIN users u ON u.id = o.requested_by").
		Joins("LEFT JOIN jobs j ON j.id = o.job_id")

	if filters.BusinessID != nil {
		qb = qb.Where("o.business_id = ?", *filters.BusinessID)
	}
	if filters.RequestedBy != nil {
		qb = qb.Where("o.requested_by = ?", *filters.RequestedBy)
	}
	if filters.JobID != nil {
		qb = qb.Where("o.job_id = ?", *filters.JobID)
	}
	if len(filters.Statuses) > 0 {
		qb = qb.Where("o.status IN ?", filters.Statuses)
	}
	if cursor != nil {
		qb = qb.Where("((o.created_at < ?) OR (o.created_at = ? AND o.id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []orderRow
	err = qb.Order("o.created_at DESC").Order("o.id DESC").
		Limit(pagination.LimitWithBuffer(filters.Pagination.Limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TransitionStatus(ctx context.Context, orderID uint, from enums.OrderStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateItem(ctx context.Context, itemID uint, quantity int, lineTotal decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"quantity": quantity, "line_total": lineTotal}).Error
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
