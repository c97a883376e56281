package middleware

import (
	"context"

	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
)

type contextKey string

const (
	ctxUser        contextKey = "user"
	ctxPermissions contextKey = "permissions"
	ctxSessionID   contextKey = "session_id"
	ctxGuestID     contextKey = "guest_id"
	ctxJob         contextKey = "job"
)

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*models.User); ok {
		return v
	}
	return nil
}

func PermissionsFromContext(ctx context.Context) access.Permissions {
	if ctx == nil {
		return access.Permissions{AccessLevel: access.LevelIndependent}
	}
	if v, ok := ctx.Value(ctxPermissions).(access.Permissions); ok {
		return v
	}
	return access.Permissions{AccessLevel: access.LevelIndependent}
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

func GuestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxGuestID).(string); ok {
		return v
	}
	return ""
}

// JobFromContext returns the job loaded by ValidateJobAccess.
func JobFromContext(ctx context.Context) *models.Job {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxJob).(*models.Job); ok {
		return v
	}
	return nil
}

// WithUser injects the user and resolved permissions into the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUser, user)
	if user != nil {
		ctx = context.WithValue(ctx, ctxPermissions, access.Resolve(*user))
	}
	return ctx
}

// WithGuestID injects the guest cart identifier.
func WithGuestID(ctx context.Context, guestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxGuestID, guestID)
}

// WithJob injects a loaded job.
func WithJob(ctx context.Context, job *models.Job) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxJob, job)
}
