package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/api/middleware"
	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	"github.com/angelmondragon/sprinklerhub-backend/internal/jobs"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type jobRequest struct {
	JobNumber   string  `json:"jobNumber" validate:"notblank,max=50"`
	Name        string  `json:"name" validate:"notblank,max=200"`
	ClientID    *uint   `json:"clientId" validate:"omitempty,gt=0"`
	SiteAddress *string `json:"siteAddress"`
	Status      string  `json:"status"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Notes       *string `json:"notes"`
}

type assignRequest struct {
	TradieID uint `json:"tradieId" validate:"required,gt=0"`
}

type jobDetail struct {
	jobs.JobDTO
	AssignedTradies []jobs.AssignedTradie `json:"assignedTradies"`
}

func (b jobRequest) toInput() (jobs.JobInput, error) {
	start, err := parseDate("startDate", b.StartDate)
	if err != nil {
		return jobs.JobInput{}, err
	}
	end, err := parseDate("endDate", b.EndDate)
	if err != nil {
		return jobs.JobInput{}, err
	}
	return jobs.JobInput{
		JobNumber:   b.JobNumber,
		Name:        b.Name,
		ClientID:    b.ClientID,
		SiteAddress: trimmed(b.SiteAddress),
		Status:      b.Status,
		StartDate:   start,
		EndDate:     end,
		Notes:       trimmed(b.Notes),
	}, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(field string, raw *string) (*time.Time, error) {
	value := trimmed(raw)
	if value == nil {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, *value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").WithDetails(map[string]any{"field": field})
}

// JobsList lists the caller's company jobs, optionally searched by job number.
func JobsList(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "jobs")
			return
		}
		_, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}

		var filters jobs.ListFilters
		for key, dest := range map[string]*string{"jobNumber": &filters.JobNumber, "status": &filters.Status} {
			value, err := validators.QueryText(r, key)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			*dest = value
		}
		list, err := svc.List(r.Context(), businessID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// TradieAssignedJobs lists the company jobs the signed-in tradie is assigned to.
func TradieAssignedJobs(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "jobs")
			return
		}
		user, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}
		status, err := validators.QueryText(r, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tradieID := user.ID
		list, err := svc.List(r.Context(), businessID, jobs.ListFilters{Status: status, AssignedTo: &tradieID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// JobDetail returns the job loaded by ValidateJobAccess with its assigned tradies.
func JobDetail(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "jobs")
			return
		}
		job, ok := contextJob(w, r, logg)
		if !ok {
			return
		}

		assigned, err := svc.ListAssigned(r.Context(), job)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, jobDetail{JobDTO: jobs.FromModel(*job), AssignedTradies: assigned})
	}
}

// JobCreate creates a job in the PM's company.
func JobCreate(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "jobs")
			return
		}
		user, businessID, ok := currentBusiness(w, r, logg)
		if !ok {
			return
		}

		var body jobRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.Create(r.Context(), businessID, user.ID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, job)
	}
}

// JobUpdate replaces the editable fields of a job.
func JobUpdate(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "jobs")
			return
		}
		job, ok := contextJob(w, r, logg)
		if !ok {
			return
		}

		var body jobRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), job, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// JobDelete deletes a job without orders.
func JobDelete(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "jobs")
			return
		}
		job, ok := contextJob(w, r, logg)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), job); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// JobAssignedTradies lists who is assigned to the job.
func JobAssignedTradies(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "jobs")
			return
		}
		job, ok := contextJob(w, r, logg)
		if !ok {
			return
		}
		assigned, err := svc.ListAssigned(r.Context(), job)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assigned)
	}
}

// JobAssignTradie assigns an approved company tradie to the job.
func JobAssignTradie(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "jobs")
			return
		}
		user, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		job, ok := contextJob(w, r, logg)
		if !ok {
			return
		}

		var body assignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.AssignTradie(r.Context(), job, body.TradieID, user.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, map[string]any{"jobId": job.ID, "tradieId": body.TradieID})
	}
}

// JobUnassignTradie removes a tradie from the job.
func JobUnassignTradie(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "jobs")
			return
		}
		job, ok := contextJob(w, r, logg)
		if !ok {
			return
		}
		tradieID, err := validators.ParseIDParam(r, "tradieId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UnassignTradie(r.Context(), job, tradieID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func contextJob(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*models.Job, bool) {
	job := middleware.JobFromContext(r.Context())
	if job == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "job context missing"))
		return nil, false
	}
	return job, true
}
