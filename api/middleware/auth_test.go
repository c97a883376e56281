package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/auth"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/auth/session"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/config"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
)

type stubSessions map[string]uint

func (s stubSessions) Resolve(ctx context.Context, sessionID string) (uint, error) {
	if id, ok := s[sessionID]; ok {
		return id, nil
	}
	return 0, session.ErrSessionNotFound
}

type stubUsers map[uint]*models.User

func (s stubUsers) ForUser(ctx context.Context, userID uint) (*models.User, access.Permissions, error) {
	if u, ok := s[userID]; ok {
		return u, access.Resolve(*u), nil
	}
	return nil, access.Permissions{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not found")
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{Secret: "secret", Issuer: "sprinklerhub", TTL: time.Hour, CookieName: "connect.sid"}
}

func sessionCookie(t *testing.T, cfg config.SessionConfig, userID uint, sessionID string) *http.Cookie {
	t.Helper()
	token, err := auth.MintSessionToken(cfg, time.Now().UTC(), auth.SessionPayload{
		UserID:    userID,
		Role:      enums.UserRoleTradie,
		SessionID: sessionID,
	})
	if err != nil {
		t.Fatalf("mint session: %v", err)
	}
	return &http.Cookie{Name: cfg.CookieName, Value: token}
}

func authChain(cfg config.SessionConfig, sessions stubSessions, users stubUsers, captured **models.User) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return Session(cfg, sessions, users, nil)(RequireAuth(nil)(final))
}

func TestRequireAuthRejectsMissingCookie(t *testing.T) {
	var got *models.User
	handler := authChain(testSessionConfig(), stubSessions{}, stubUsers{}, &got)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/user", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestSessionResolvesUserFromCookie(t *testing.T) {
	cfg := testSessionConfig()
	user := &models.User{ID: 7, Role: enums.UserRoleTradie}
	var got *models.User
	handler := authChain(cfg, stubSessions{"sess-7": 7}, stubUsers{7: user}, &got)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(sessionCookie(t, cfg, 7, "sess-7"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got == nil || got.ID != 7 {
		t.Fatalf("expected user 7 in context, got %+v", got)
	}
}

func TestSessionIgnoresRevokedOrMismatchedSessions(t *testing.T) {
	cfg := testSessionConfig()
	users := stubUsers{7: {ID: 7, Role: enums.UserRoleTradie}}
	cases := map[string]struct {
		sessions stubSessions
		cookie   *http.Cookie
	}{
		"revoked":        {sessions: stubSessions{}, cookie: sessionCookie(t, cfg, 7, "gone")},
		"other owner":    {sessions: stubSessions{"sess-x": 8}, cookie: sessionCookie(t, cfg, 7, "sess-x")},
		"tampered token": {sessions: stubSessions{"sess-7": 7}, cookie: &http.Cookie{Name: cfg.CookieName, Value: "not-a-jwt"}},
		"deleted user":   {sessions: stubSessions{"sess-9": 9}, cookie: sessionCookie(t, cfg, 9, "sess-9")},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var got *models.User
			handler := authChain(cfg, tc.sessions, users, &got)
			req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
			req.AddCookie(tc.cookie)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 got %d", resp.Code)
			}
		})
	}
}

func TestRequireRoleTreatsContractorAsTradie(t *testing.T) {
	handler := RequireRole(nil, enums.UserRoleTradie)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for role, want := range map[enums.UserRole]int{
		enums.UserRoleTradie:         http.StatusOK,
		enums.UserRoleContractor:     http.StatusOK,
		enums.UserRoleProjectManager: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUser(req.Context(), &models.User{ID: 1, Role: role}))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("role %s: expected %d got %d", role, want, resp.Code)
		}
	}
}
