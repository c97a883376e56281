package jobs

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
)

// Repository persists jobs and tradie assignments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns the business's jobs, newest first.
func (r *Repository) List(ctx context.Context, businessID uint, filters ListFilters) ([]models.Job, error) {
	q := r.db.WithContext(ctx).Model(&models.Job{}).Where("jobs.business_id = ?", businessID)
	if number := strings.TrimSpace(filters.JobNumber); number != "" {
		q = q.Where("LOWER(jobs.job_number) LIKE ?", "%"+strings.ToLower(number)+"%")
	}
	if status := strings.TrimSpace(filters.Status); status != "" {
		q = q.Where("jobs.status = ?", status)
	}
	if filters.AssignedTo != nil {
		q = q.Joins("JOIN job_users ON job_users.job_id = jobs.id").Where("job_users.user_id = ?", *filters.AssignedTo)
	}
	var rows []models.Job
	err := q.Order("jobs.created_at DESC").Order("jobs.id DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) Create(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repository) Save(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// Delete removes the job together with its assignments.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.JobUser{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Job{}, "id = ?", id).Error
	})
}

func (r *Repository) ClientBelongsTo(ctx context.Context, clientID, businessID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Client{}).
		Where("id = ? AND business_id = ?", clientID, businessID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Assign(ctx context.Context, jobID, userID, assignedBy uint) error {
	return r.db.WithContext(ctx).Create(&models.JobUser{JobID: jobID, UserID: userID, AssignedBy: assignedBy}).Error
}

// Unassign reports whether an assignment existed.
func (r *Repository) Unassign(ctx context.Context, jobID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("job_id = ? AND user_id = ?", jobID, userID).Delete(&models.JobUser{})
	return res.RowsAffected > 0, res.Error
}

type assignedRow struct {
	UserID     uint
	FirstName  string
	LastName   string
	Email      string
	AssignedBy uint
	CreatedAt  time.Time
}

func (r *Repository) ListAssigned(ctx context.Context, jobID uint) ([]AssignedTradie, error) {
	var rows []assignedRow
	err := r.db.WithContext(ctx).
		Table("job_users").
		Select("job_users.user_id, users.first_name, users.last_name, users.email, job_users.assigned_by, job_users.created_at").
		Joins("JOIN users ON users.id = job_users.user_id").
		Where("job_users.job_id = ?", jobID).
		Order("job_users.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]AssignedTradie, 0, len(rows))
	for _, row := range rows {
		out = append(out, AssignedTradie{
			UserID:     row.UserID,
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			Email:      row.Email,
			AssignedBy: row.AssignedBy,
			AssignedAt: row.CreatedAt,
		})
	}
	return out, nil
}
