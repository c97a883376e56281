package jobs

import (
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
)

// Job statuses accepted from clients. Both the display and the legacy
// snake_case spellings are in use.
var validStatuses = map[string]struct{}{
	"Not Started": {},
	"In Progress": {},
	"On Hold":     {},
	"Completed":   {},
	"active":      {},
	"completed":   {},
	"on_hold":     {},
}

// JobDTO is the API shape of a job.
type JobDTO struct {
	ID               uint       `json:"id"`
	BusinessID       uint       `json:"businessId"`
	ClientID         *uint      `json:"clientId,omitempty"`
	ProjectManagerID uint       `json:"projectManagerId"`
	JobNumber        string     `json:"jobNumber"`
	Name             string     `json:"name"`
	SiteAddress      *string    `json:"siteAddress,omitempty"`
	Status           string     `json:"status"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// AssignedTradie is one tradie assigned to a job.
type AssignedTradie struct {
	UserID     uint      `json:"userId"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	AssignedBy uint      `json:"assignedBy"`
	AssignedAt time.Time `json:"assignedAt"`
}

// JobInput is the create/update payload.
type JobInput struct {
	JobNumber   string
	Name        string
	ClientID    *uint
	SiteAddress *string
	Status      string
	StartDate   *time.Time
	EndDate     *time.Time
	Notes       *string
}

// ListFilters narrows company job lists.
type ListFilters struct {
	JobNumber string
	Status    string
	// AssignedTo limits the list to jobs the user is assigned to.
	AssignedTo *uint
}

func FromModel(j models.Job) JobDTO {
	return JobDTO{
		ID:               j.ID,
		BusinessID:       j.BusinessID,
		ClientID:         j.ClientID,
		ProjectManagerID: j.ProjectManagerID,
		JobNumber:        j.JobNumber,
		Name:             j.Name,
		SiteAddress:      j.SiteAddress,
		Status:           j.Status,
		StartDate:        j.StartDate,
		EndDate:          j.EndDate,
		Notes:            j.Notes,
		CreatedAt:        j.CreatedAt,
	}
}
