package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/config"
	redisclient "github.com/angelmondragon/sprinklerhub-backend/pkg/redis"
)

var ErrSessionNotFound = errors.New("session not found")

type sessionStore interface {
	StoreSession(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error
	SessionUser(ctx context.Context, sessionID string) (uint, error)
	RevokeSession(ctx context.Context, sessionID string) error
}

// Manager handles server-side session records keyed by the cookie jti.
type Manager struct {
	store sessionStore
	ttl   time.Duration
}

// Resolver exposes the read-only surface needed by middleware.
type Resolver interface {
	Resolve(ctx context.Context, sessionID string) (uint, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: client, ttl: cfg.TTL}, nil
}

// Start records a new session for the user and returns its id.
func (m *Manager) Start(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("user id is required")
	}
	id := NewSessionID()
	if err := m.store.StoreSession(ctx, id, userID, m.ttl); err != nil {
		return "", err
	}
	return id, nil
}

// Resolve returns the user bound to the session.
func (m *Manager) Resolve(ctx context.Context, sessionID string) (uint, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, ErrSessionNotFound
	}
	userID, err := m.store.SessionUser(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, err
	}
	return userID, nil
}

// Revoke deletes the session; unknown ids are not an error.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return m.store.RevokeSession(ctx, sessionID)
}

// TTL exposes the lifetime used for cookies minted alongside sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// NewSessionID produces the identifier used as the JWT jti and Redis key.
func NewSessionID() string {
	return uuid.NewString()
}

// SetCookie writes the session cookie. Secure is only set in production so
// local http development keeps working.
func SetCookie(w http.ResponseWriter, cfg config.SessionConfig, value string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter, cfg config.SessionConfig, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
