package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type fakeSweeper struct {
	lastCutoff time.Time
	rows       int64
	err        error
	called     int
}

func (f *fakeSweeper) sweep(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.rows, nil
}

func (f *fakeSweeper) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.sweep(ctx, cutoff)
}

func (f *fakeSweeper) DeleteGuestItemsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.sweep(ctx, cutoff)
}

func (f *fakeSweeper) CancelExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.sweep(ctx, cutoff)
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestCleanupJobsUseRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		build    func(*fakeSweeper) (Job, error)
		expected time.Time
	}{
		{
			name: "notification-cleanup",
			build: func(f *fakeSweeper) (Job, error) {
				return NewNotificationCleanupJob(quietLogger(), f, 0)
			},
			expected: now.Add(-30 * 24 * time.Hour),
		},
		{
			name: "guest-cart-cleanup",
			build: func(f *fakeSweeper) (Job, error) {
				return NewGuestCartCleanupJob(quietLogger(), f, 0)
			},
			expected: now.Add(-7 * 24 * time.Hour),
		},
		{
			name: "stale-invitation-cleanup",
			build: func(f *fakeSweeper) (Job, error) {
				return NewStaleInvitationCleanupJob(quietLogger(), f, 48*time.Hour)
			},
			expected: now.Add(-48 * time.Hour),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sweeper := &fakeSweeper{rows: 3}
			job, err := tc.build(sweeper)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if job.Name() != tc.name {
				t.Fatalf("expected name %q, got %q", tc.name, job.Name())
			}
			job.(*cleanupJob).now = func() time.Time { return now }

			if err := job.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if sweeper.called != 1 || !sweeper.lastCutoff.Equal(tc.expected) {
				t.Fatalf("expected one sweep at %s, got %d at %s", tc.expected, sweeper.called, sweeper.lastCutoff)
			}
		})
	}
}

func TestCleanupJobPropagatesErrors(t *testing.T) {
	job, err := NewNotificationCleanupJob(quietLogger(), &fakeSweeper{err: errors.New("boom")}, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestCleanupJobRequiresRepository(t *testing.T) {
	if _, err := NewGuestCartCleanupJob(quietLogger(), nil, 0); err == nil {
		t.Fatal("expected error for missing repository")
	}
	if _, err := NewNotificationCleanupJob(nil, &fakeSweeper{}, 0); err == nil {
		t.Fatal("expected error for missing logger")
	}
}
