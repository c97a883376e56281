package memberships

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
)

var tradieRoles = []enums.UserRole{enums.UserRoleTradie, enums.UserRoleContractor}

// Repository exposes membership persistence operations. Membership lives on
// the users row, so every query here targets users.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
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

// FindUser loads a user by id.
func (r *Repository) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListTradies returns every tradie-like user linked to the business, newest first.
func (r *Repository) ListTradies(ctx context.Context, businessID uint) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND role IN ?", businessID, tradieRoles).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Apply writes changes only if the row still matches current. A false result
// means another request moved the membership first.
func (r *Repository) Apply(ctx context.Context, current models.User, changes Changes) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_approved = ? AND status = ?", current.ID, current.IsApproved, current.Status)
	if current.BusinessID == nil {
		q = q.Where("business_id IS NULL")
	} else {
		q = q.Where("business_id = ?", *current.BusinessID)
	}
	res := q.Updates(changes.Columns())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Execute plans t for user, persists the row changes through repo and updates
// user in place. Callers dispatch the returned effects once their transaction
// has committed.
func Execute(ctx context.Context, repo *Repository, user *models.User, t Transition, now time.Time) (*Outcome, error) {
	outcome, err := Plan(*user, t, now)
	if err != nil {
		return nil, err
	}
	ok, err := repo.Apply(ctx, *user, outcome.Changes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update membership")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "membership changed concurrently, reload and try again")
	}
	outcome.Changes.Apply(user)
	return outcome, nil
}
