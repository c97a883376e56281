package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

const (
	defaultNotificationRetention = 30 * 24 * time.Hour
	defaultGuestCartRetention    = 7 * 24 * time.Hour
	defaultInvitationGrace       = 30 * 24 * time.Hour
)

type notificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type guestCartPurger interface {
	DeleteGuestItemsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type invitationExpirer interface {
	CancelExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// cleanupJob removes or retires rows older than a retention window.
type cleanupJob struct {
	name      string
	logg      *logger.Logger
	retention time.Duration
	sweep     func(ctx context.Context, cutoff time.Time) (int64, error)
	now       func() time.Time
	rows      int64
}

func (j *cleanupJob) Name() string { return j.name }

// RowsAffected reports the row count from the last successful sweep.
func (j *cleanupJob) RowsAffected() int64 { return j.rows }

func (j *cleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	j.rows = 0
	rows, err := j.sweep(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.rows = rows
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": int(j.retention / (24 * time.Hour)),
		"rows_affected":  rows,
	})
	j.logg.Info(logCtx, j.name+" complete")
	return nil
}

func newCleanupJob(name string, logg *logger.Logger, retention, fallback time.Duration, sweep func(context.Context, time.Time) (int64, error)) (*cleanupJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if retention <= 0 {
		retention = fallback
	}
	return &cleanupJob{name: name, logg: logg, retention: retention, sweep: sweep, now: time.Now}, nil
}

// NewNotificationCleanupJob deletes read notifications past retention.
func NewNotificationCleanupJob(logg *logger.Logger, repo notificationPurger, retention time.Duration) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return newCleanupJob("notification-cleanup", logg, retention, defaultNotificationRetention, repo.DeleteReadBefore)
}

// NewGuestCartCleanupJob deletes guest cart rows nobody touched within retention.
func NewGuestCartCleanupJob(logg *logger.Logger, repo guestCartPurger, retention time.Duration) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return newCleanupJob("guest-cart-cleanup", logg, retention, defaultGuestCartRetention, repo.DeleteGuestItemsBefore)
}

// NewStaleInvitationCleanupJob cancels pending invitations that expired more
// than grace ago. Recently expired ones stay pending so the tradie still gets
// the "expired" outcome instead of "invalid".
func NewStaleInvitationCleanupJob(logg *logger.Logger, repo invitationExpirer, grace time.Duration) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("invitations repository required")
	}
	return newCleanupJob("stale-invitation-cleanup", logg, grace, defaultInvitationGrace, repo.CancelExpiredBefore)
}
