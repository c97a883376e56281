package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	"github.com/angelmondragon/sprinklerhub-backend/internal/notifications"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
)

// Service exposes company job operations. Callers have already checked that
// the actor belongs to businessID.
type Service interface {
	Load(ctx context.Context, id uint) (*models.Job, error)
	List(ctx context.Context, businessID uint, filters ListFilters) ([]JobDTO, error)
	Create(ctx context.Context, businessID, pmID uint, input JobInput) (*JobDTO, error)
	Update(ctx context.Context, job *models.Job, input JobInput) (*JobDTO, error)
	Delete(ctx context.Context, job *models.Job) error
	AssignTradie(ctx context.Context, job *models.Job, tradieID, actorID uint) error
	UnassignTradie(ctx context.Context, job *models.Job, tradieID uint) error
	ListAssigned(ctx context.Context, job *models.Job) ([]AssignedTradie, error)
}

type jobRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Job, error)
	List(ctx context.Context, businessID uint, filters ListFilters) ([]models.Job, error)
	Create(ctx context.Context, job *models.Job) error
	Save(ctx context.Context, job *models.Job) error
	Delete(ctx context.Context, id uint) error
	ClientBelongsTo(ctx context.Context, clientID, businessID uint) (bool, error)
	Assign(ctx context.Context, jobID, userID, assignedBy uint) error
	Unassign(ctx context.Context, jobID, userID uint) (bool, error)
	ListAssigned(ctx context.Context, jobID uint) ([]AssignedTradie, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

type notifier interface {
	Notify(ctx context.Context, in notifications.Input)
}

type service struct {
	repo   jobRepository
	users  userLoader
	notify notifier
}

func NewService(repo jobRepository, users userLoader, notify notifier) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "jobs repository required")
	}
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user loader required")
	}
	if notify == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	return &service{repo: repo, users: users, notify: notify}, nil
}

func (s *service) Load(ctx context.Context, id uint) (*models.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	return job, nil
}

func (s *service) List(ctx context.Context, businessID uint, filters ListFilters) ([]JobDTO, error) {
	rows, err := s.repo.List(ctx, businessID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list jobs")
	}
	out := make([]JobDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, businessID, pmID uint, input JobInput) (*JobDTO, error) {
	job := &models.Job{BusinessID: businessID, ProjectManagerID: pmID}
	if err := s.apply(ctx, job, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, mapWriteError(err, "create job")
	}
	dto := FromModel(*job)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, job *models.Job, input JobInput) (*JobDTO, error) {
	if err := s.apply(ctx, job, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, job); err != nil {
		return nil, mapWriteError(err, "update job")
	}
	dto := FromModel(*job)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, job *models.Job) error {
	if err := s.repo.Delete(ctx, job.ID); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "job has orders and cannot be deleted")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete job")
	}
	return nil
}

func (s *service) AssignTradie(ctx context.Context, job *models.Job, tradieID, actorID uint) error {
	tradie, err := s.users.FindByID(ctx, tradieID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "tradie not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tradie")
	}
	if !access.IsApprovedTradie(*tradie) || *tradie.BusinessID != job.BusinessID {
		return pkgerrors.New(pkgerrors.CodeValidation, "only approved tradies of this company can be assigned")
	}
	if err := s.repo.Assign(ctx, job.ID, tradie.ID, actorID); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "tradie is already assigned to this job")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign tradie")
	}
	s.notify.Notify(ctx, notifications.Input{
		UserID:  tradie.ID,
		Type:    enums.NotificationTypeJobAssigned,
		Title:   "New job assignment",
		Message: fmt.Sprintf("You have been assigned to job %s (%s)", job.JobNumber, job.Name),
		Related: notifications.JobRef{JobID: job.ID},
	})
	return nil
}

func (s *service) UnassignTradie(ctx context.Context, job *models.Job, tradieID uint) error {
	found, err := s.repo.Unassign(ctx, job.ID, tradieID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unassign tradie")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tradie is not assigned to this job")
	}
	return nil
}

func (s *service) ListAssigned(ctx context.Context, job *models.Job) ([]AssignedTradie, error) {
	out, err := s.repo.ListAssigned(ctx, job.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned tradies")
	}
	return out, nil
}

func (s *service) apply(ctx context.Context, job *models.Job, input JobInput) error {
	number := strings.TrimSpace(input.JobNumber)
	name := strings.TrimSpace(input.Name)
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = "Not Started"
	}
	switch {
	case number == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "job number is required")
	case name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "job name is required")
	}
	if _, ok := validStatuses[status]; !ok {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid job status %q", status)
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end date cannot be before start date")
	}
	if input.ClientID != nil {
		ok, err := s.repo.ClientBelongsTo(ctx, *input.ClientID, job.BusinessID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check client")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "client does not belong to this company")
		}
	}
	job.JobNumber = number
	job.Name = name
	job.Status = status
	job.ClientID = input.ClientID
	job.SiteAddress = input.SiteAddress
	job.StartDate = input.StartDate
	job.EndDate = input.EndDate
	job.Notes = input.Notes
	return nil
}

func mapWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "job number already exists for this company")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
