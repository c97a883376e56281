package invitations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

const rowSelect = `i.id, i.business_id, i.project_manager_id, i.email, i.invitation_token, i.token_expiry,
i.status, i.message, i.responded_at, i.created_at,
b.name AS business_name, u.first_name AS inviter_first_name, u.last_name AS inviter_last_name`

// Repository persists tradie invitations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, inv *models.TradieInvitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*invitationRow, error) {
	return r.findOne(ctx, "i.id = ?", id)
}

func (r *Repository) FindByToken(ctx context.Context, token uuid.UUID) (*invitationRow, error) {
	return r.findOne(ctx, "i.invitation_token = ?", token)
}

func (r *Repository) findOne(ctx context.Context, where string, args ...any) (*invitationRow, error) {
	var rows []invitationRow
	err := r.joined(ctx).Where(where, args...).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("tradie_invitations i").
		Select(rowSelect).
		Joins("JOIN businesses b ON b.id = i.business_id").
		Joins("JOIN users u ON u.id = i.project_manager_id")
}

// FindPending returns the pending invitation a PM already sent to email, if any.
func (r *Repository) FindPending(ctx context.Context, email string, pmID uint) (*models.TradieInvitation, error) {
	var inv models.TradieInvitation
	err := r.db.WithContext(ctx).
		Where("email = ? AND project_manager_id = ? AND status = ?", email, pmID, enums.InvitationStatusPending).
		Order("created_at DESC").
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// CountSentSince counts every invitation the PM created at or after since.
func (r *Repository) CountSentSince(ctx context.Context, pmID uint, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.TradieInvitation{}).
		Where("project_manager_id = ? AND created_at >= ?", pmID, since).
		Count(&n).Error
	return n, err
}

func (r *Repository) ListByBusiness(ctx context.Context, businessID uint) ([]invitationRow, error) {
	var rows []invitationRow
	err := r.joined(ctx).
		Where("i.business_id = ?", businessID).
		Order("i.created_at DESC").
		Order("i.id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) ListPendingForEmail(ctx context.Context, email string) ([]invitationRow, error) {
	var rows []invitationRow
	err := r.joined(ctx).
		Where("i.email = ? AND i.status = ?", email, enums.InvitationStatusPending).
		Order("i.created_at DESC").
		Order("i.id DESC").
		Scan(&rows).Error
	return rows, err
}

// Resolve moves a pending invitation to status. It reports false when the
// invitation was no longer pending.
func (r *Repository) Resolve(ctx context.Context, id uint, status enums.InvitationStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TradieInvitation{}).
		Where("id = ? AND status = ?", id, enums.InvitationStatusPending).
		Updates(map[string]any{"status": status, "responded_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CancelExpiredBefore cancels pending invitations whose token expired before cutoff.
func (r *Repository) CancelExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TradieInvitation{}).
		Where("status = ? AND token_expiry < ?", enums.InvitationStatusPending, cutoff).
		Update("status", enums.InvitationStatusCancelled)
	return res.RowsAffected, res.Error
}
