package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type stubTransport struct {
	mu    sync.Mutex
	errs  []error
	calls int
	sent  chan Message
}

func (s *stubTransport) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.calls < len(s.errs) {
		err = s.errs[s.calls]
	}
	s.calls++
	if err == nil && s.sent != nil {
		s.sent <- msg
	}
	return err
}

type stubQuota struct {
	counts map[string]int64
}

func (s *stubQuota) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func (s *stubQuota) EmailQuotaScope(recipient string) string {
	return "email:" + strings.ToLower(recipient)
}

func newTestMailer(t *testing.T, transport Transport) (*Mailer, *[]time.Duration) {
	t.Helper()
	m, err := NewMailer(Options{
		Transport:   transport,
		Quota:       &stubQuota{counts: map[string]int64{}},
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		HourlyLimit: 5,
		Enabled:     true,
	})
	require.NoError(t, err)
	slept := []time.Duration{}
	m.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return m, &slept
}

func TestSendRetriesServerErrorsWithLinearBackoff(t *testing.T) {
	transport := &stubTransport{errs: []error{
		&ProviderError{StatusCode: 502},
		&ProviderError{StatusCode: 503},
	}}
	m, slept := newTestMailer(t, transport)

	err := m.Send(context.Background(), Message{To: "a@example.com", Subject: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 3, transport.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestSendGivesUpAfterTwoRetries(t *testing.T) {
	transport := &stubTransport{errs: []error{
		&ProviderError{StatusCode: 500},
		&ProviderError{StatusCode: 500},
		&ProviderError{StatusCode: 500},
		nil,
	}}
	m, _ := newTestMailer(t, transport)

	err := m.Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Equal(t, 3, transport.calls)
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	transport := &stubTransport{errs: []error{&ProviderError{StatusCode: 400}}}
	m, slept := newTestMailer(t, transport)

	err := m.Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Equal(t, 1, transport.calls)
	assert.Empty(t, *slept)
}

func TestSendDoesNotRetryTransportErrors(t *testing.T) {
	transport := &stubTransport{errs: []error{errors.New("dial tcp: refused")}}
	m, _ := newTestMailer(t, transport)

	require.Error(t, m.Send(context.Background(), Message{To: "a@example.com"}))
	assert.Equal(t, 1, transport.calls)
}

func TestSendDisabledSkipsTransport(t *testing.T) {
	transport := &stubTransport{}
	m, _ := newTestMailer(t, transport)
	m.enabled = false

	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.com"}))
	assert.Zero(t, transport.calls)
}

func TestReserveCapsRecipientPerHour(t *testing.T) {
	m, _ := newTestMailer(t, &stubTransport{})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Reserve(ctx, "Tradie@Example.com"))
	}
	err := m.Reserve(ctx, "tradie@example.com")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit), "got %v", err)

	assert.NoError(t, m.Reserve(ctx, "other@example.com"))
}

func TestDispatchSurvivesCancelledRequest(t *testing.T) {
	transport := &stubTransport{sent: make(chan Message, 1)}
	m, _ := newTestMailer(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	m.Dispatch(ctx, Message{To: "a@example.com", Subject: "async"})
	cancel()

	select {
	case msg := <-transport.sent:
		assert.Equal(t, "async", msg.Subject)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch never delivered")
	}
}

func TestProviderErrorRetryable(t *testing.T) {
	assert.True(t, (&ProviderError{StatusCode: 500}).Retryable())
	assert.False(t, (&ProviderError{StatusCode: 429}).Retryable())
}
