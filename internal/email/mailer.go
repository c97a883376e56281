package email

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

// QuotaStore is the shared counter behind the per-recipient cap.
type QuotaStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	EmailQuotaScope(recipient string) string
}

// Sender is what domain services depend on.
type Sender interface {
	Reserve(ctx context.Context, recipient string) error
	Dispatch(ctx context.Context, msg Message)
}

var defaultBackoff = []time.Duration{time.Second, 2 * time.Second}

const quotaWindow = time.Hour

// Mailer retries provider 5xx failures and caps emails per recipient.
type Mailer struct {
	transport   Transport
	quota       QuotaStore
	logg        *logger.Logger
	hourlyLimit int64
	backoff     []time.Duration
	sleep       func(context.Context, time.Duration) error
	enabled     bool
}

type Options struct {
	Transport   Transport
	Quota       QuotaStore
	Logger      *logger.Logger
	HourlyLimit int
	Enabled     bool
}

func NewMailer(opts Options) (*Mailer, error) {
	if opts.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if opts.Quota == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "email quota store required")
	}
	if opts.Enabled && opts.Transport == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "email transport required")
	}
	limit := int64(opts.HourlyLimit)
	if limit <= 0 {
		limit = 5
	}
	return &Mailer{
		transport:   opts.Transport,
		quota:       opts.Quota,
		logg:        opts.Logger,
		hourlyLimit: limit,
		backoff:     defaultBackoff,
		sleep:       sleepCtx,
		enabled:     opts.Enabled,
	}, nil
}

// Reserve consumes one slot of the recipient's hourly quota.
func (m *Mailer) Reserve(ctx context.Context, recipient string) error {
	allowed, _, err := m.quota.FixedWindowAllow(ctx, m.quota.EmailQuotaScope(recipient), m.hourlyLimit, quotaWindow)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email quota")
	}
	if !allowed {
		return pkgerrors.LimitExceeded("too many emails sent to this address, try again later", m.hourlyLimit, quotaWindow)
	}
	return nil
}

// Dispatch delivers msg on its own goroutine. Failures are logged only.
func (m *Mailer) Dispatch(ctx context.Context, msg Message) {
	detached := context.WithoutCancel(ctx)
	go func() {
		_ = m.Send(detached, msg)
	}()
}

// Send delivers msg synchronously, retrying server-side provider failures.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	logCtx := m.logg.WithField(ctx, "email_subject", msg.Subject)
	if !m.enabled {
		m.logg.Info(logCtx, "email.delivery_disabled")
		return nil
	}
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email recipient required")
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = m.transport.Send(ctx, msg)
		if err == nil {
			m.logg.Info(logCtx, "email.sent")
			return nil
		}
		if !retryable(err) || attempt >= len(m.backoff) {
			break
		}
		m.logg.Warn(m.logg.WithField(logCtx, "attempt", attempt+1), "email.retrying")
		if sleepErr := m.sleep(ctx, m.backoff[attempt]); sleepErr != nil {
			err = sleepErr
			break
		}
	}
	m.logg.Error(logCtx, "email.send_failed", err)
	return err
}

func retryable(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr) && providerErr.Retryable()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
