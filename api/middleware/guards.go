package middleware

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

// JobLoader fetches the job named in the route.
type JobLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Job, error)
}

// CompanyResolver maps a request onto the company it targets.
type CompanyResolver func(r *http.Request) (uint, error)

// RequireApprovedTradie admits tradies with an approved company membership.
func RequireApprovedTradie(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
				return
			}
			if !access.IsApprovedTradie(*user) {
				level := PermissionsFromContext(r.Context()).AccessLevel
				responses.WriteError(r.Context(), logg, w, pkgerrors.Denied("Approved company membership required", level))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCompanyAccess admits the PM or an approved tradie of the company the
// request targets.
func RequireCompanyAccess(resolve CompanyResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user := UserFromContext(ctx)
			if user == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
				return
			}
			businessID, err := resolve(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !access.IsCompanyMember(*user, businessID) {
				responses.WriteError(ctx, logg, w, companyDenied(ctx))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ValidateJobAccess loads the {jobId} job, checks the caller belongs to its
// company and stores the job in the request context.
func ValidateJobAccess(jobs JobLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user := UserFromContext(ctx)
			if user == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
				return
			}
			jobID, err := validators.ParseIDParam(r, "jobId")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			job, err := jobs.FindByID(ctx, jobID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "Job not found"))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job"))
				return
			}
			if !access.IsCompanyMember(*user, job.BusinessID) {
				responses.WriteError(ctx, logg, w, companyDenied(ctx))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithJob(ctx, job)))
		})
	}
}

// RequireOrderPermissions admits users whose permissions allow placing orders.
func RequireOrderPermissions(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if UserFromContext(ctx) == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
				return
			}
			perms := PermissionsFromContext(ctx)
			if !perms.CanPlaceOrders {
				responses.WriteError(ctx, logg, w, pkgerrors.Denied(access.OrderDenialMessage(perms.AccessLevel), perms.AccessLevel))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func companyDenied(ctx context.Context) error {
	return pkgerrors.Denied("You do not have access to this company", PermissionsFromContext(ctx).AccessLevel)
}
