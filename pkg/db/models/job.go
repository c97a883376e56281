package models

import "time"

// Job is a site a business works on. Job numbers are unique per business.
type Job struct {
	ID               uint       `gorm:"primaryKey"`
	BusinessID       uint       `gorm:"column:business_id;not null;uniqueIndex:idx_jobs_business_number"`
	ClientID         *uint      `gorm:"column:client_id"`
	ProjectManagerID uint       `gorm:"column:project_manager_id;not null"`
	JobNumber        string     `gorm:"column:job_number;not null;uniqueIndex:idx_jobs_business_number"`
	Name             string     `gorm:"column:name;not null"`
	SiteAddress      *string    `gorm:"column:site_address"`
	Status           string     `gorm:"column:status;not null;default:'Not Started'"`
	StartDate        *time.Time `gorm:"column:start_date"`
	EndDate          *time.Time `gorm:"column:end_date"`
	Notes            *string    `gorm:"column:notes"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// JobUser assigns a tradie to a job.
type JobUser struct {
	ID         uint      `gorm:"primaryKey"`
	JobID      uint      `gorm:"column:job_id;not null;uniqueIndex:idx_job_users_pair"`
	UserID     uint      `gorm:"column:user_id;not null;uniqueIndex:idx_job_users_pair"`
	AssignedBy uint      `gorm:"column:assigned_by;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
