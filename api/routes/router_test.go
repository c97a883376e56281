package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/api/controllers"
	"github.com/angelmondragon/sprinklerhub-backend/api/middleware"
	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	"github.com/angelmondragon/sprinklerhub-backend/internal/auth"
	"github.com/angelmondragon/sprinklerhub-backend/internal/businesses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/cart"
	"github.com/angelmondragon/sprinklerhub-backend/internal/jobs"
	"github.com/angelmondragon/sprinklerhub-backend/internal/orders"
	"github.com/angelmondragon/sprinklerhub-backend/internal/parts"
	"github.com/angelmondragon/sprinklerhub-backend/internal/users"
	pkgAuth "github.com/angelmondragon/sprinklerhub-backend/pkg/auth"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/auth/session"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/config"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/visibility"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessions map[string]uint

func (s stubSessions) Resolve(ctx context.Context, sessionID string) (uint, error) {
	if id, ok := s[sessionID]; ok {
		return id, nil
	}
	return 0, session.ErrSessionNotFound
}

type stubUsers map[uint]*models.User

func (s stubUsers) ForUser(ctx context.Context, userID uint) (*models.User, access.Permissions, error) {
	u, ok := s[userID]
	if !ok {
		return nil, access.Permissions{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not found")
	}
	return u, access.Resolve(*u), nil
}

type stubJobLoader struct{}

func (stubJobLoader) FindByID(ctx context.Context, id uint) (*models.Job, error) {
	return nil, gorm.ErrRecordNotFound
}

type stubAuthService struct {
	token string
}

func (s stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.Result, error) {
	panic("unimplemented")
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest, guestID string) (*auth.Result, error) {
	if req.Password != "sprinkler42" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid email or password")
	}
	return &auth.Result{
		User:    &users.UserDTO{ID: 1, Email: req.Email},
		Session: auth.Session{ID: "sess-login", Token: s.token, ExpiresAt: time.Now().Add(time.Hour)},
	}, nil
}

func (s stubAuthService) Logout(ctx context.Context, sessionID string) error {
	return nil
}

func (s stubAuthService) Me(ctx context.Context, userID uint) (*auth.Profile, error) {
	return &auth.Profile{User: &users.UserDTO{ID: userID}}, nil
}

type stubOrdersService struct {
	created      int
	listStatuses []enums.OrderStatus
}

func (s *stubOrdersService) Create(ctx context.Context, user models.User, input orders.CreateOrderInput) (*orders.OrderDetail, error) {
	s.created++
	return &orders.OrderDetail{ID: uint(s.created), RequestedBy: user.ID, Status: enums.OrderStatusPendingApproval}, nil
}

func (s *stubOrdersService) Get(ctx context.Context, user models.User, orderID uint) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{ID: orderID}, nil
}

func (s *stubOrdersService) ListMine(ctx context.Context, user models.User, filters orders.ListFilters) (*orders.ListResult, error) {
	return &orders.ListResult{}, nil
}

func (s *stubOrdersService) ListCompany(ctx context.Context, pm models.User, filters orders.ListFilters) (*orders.ListResult, error) {
	s.listStatuses = filters.Statuses
	return &orders.ListResult{}, nil
}

func (s *stubOrdersService) ListQueue(ctx context.Context, filters orders.ListFilters) (*orders.ListResult, error) {
	return &orders.ListResult{}, nil
}

func (s *stubOrdersService) Approve(ctx context.Context, pm models.User, orderID uint, notes string) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (s *stubOrdersService) Reject(ctx context.Context, pm models.User, orderID uint, reason string) (*orders.OrderDetail, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	return &orders.OrderDetail{ID: orderID, Status: enums.OrderStatusRejected}, nil
}

func (s *stubOrdersService) Modify(ctx context.Context, pm models.User, orderID uint, input orders.ModifyInput) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (s *stubOrdersService) Resubmit(ctx context.Context, user models.User, orderID uint, notes string) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (s *stubOrdersService) AdvanceStatus(ctx context.Context, supplier models.User, orderID uint, to enums.OrderStatus, notes string) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

type stubBusinessService struct {
	tiers map[uint]enums.PriceTier
}

func (s *stubBusinessService) ListSummaries(ctx context.Context) ([]businesses.Summary, error) {
	return []businesses.Summary{{ID: 1, Name: "Acme Fire"}}, nil
}

func (s *stubBusinessService) Get(ctx context.Context, id uint) (*businesses.BusinessDTO, error) {
	panic("unimplemented")
}

func (s *stubBusinessService) Update(ctx context.Context, id uint, input businesses.UpdateBusinessInput) (*businesses.BusinessDTO, error) {
	panic("unimplemented")
}

func (s *stubBusinessService) SetPriceTier(ctx context.Context, id uint, tier enums.PriceTier) (*businesses.BusinessDTO, error) {
	s.tiers[id] = tier
	return &businesses.BusinessDTO{ID: id, PriceTier: tier}, nil
}

type stubCartService struct {
	owners []cart.Owner
}

func (s *stubCartService) Get(ctx context.Context, owner cart.Owner, viewer visibility.Viewer) (*cart.CartDTO, error) {
	s.owners = append(s.owners, owner)
	return &cart.CartDTO{Items: []cart.ItemDTO{}}, nil
}

func (s *stubCartService) Add(ctx context.Context, owner cart.Owner, input cart.AddItemInput) (*cart.ItemDTO, error) {
	s.owners = append(s.owners, owner)
	return &cart.ItemDTO{ID: 1, PartID: input.PartID, Quantity: input.Quantity}, nil
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, owner cart.Owner, itemID uint, quantity int) (*cart.ItemDTO, error) {
	panic("unimplemented")
}

func (s *stubCartService) Remove(ctx context.Context, owner cart.Owner, itemID uint) error {
	panic("unimplemented")
}

func (s *stubCartService) Clear(ctx context.Context, owner cart.Owner) error {
	panic("unimplemented")
}

func (s *stubCartService) MergeGuest(ctx context.Context, guestID string, userID uint) (int, error) {
	panic("unimplemented")
}

type stubPartsService struct{}

func (stubPartsService) ViewerFor(ctx context.Context, user *models.User) (visibility.Viewer, error) {
	if user == nil {
		return visibility.Viewer{}, nil
	}
	return visibility.Viewer{Role: user.Role}, nil
}

func (stubPartsService) List(ctx context.Context, viewer visibility.Viewer, input parts.ListPartsInput) (*parts.ListResult, error) {
	return &parts.ListResult{}, nil
}

func (stubPartsService) Get(ctx context.Context, viewer visibility.Viewer, id uint) (*parts.PartDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
}

func (stubPartsService) Categories(ctx context.Context) ([]string, error) {
	return []string{"Heads", "Valves"}, nil
}

func (stubPartsService) Create(ctx context.Context, input parts.CreatePartInput) (*parts.PartDTO, error) {
	return &parts.PartDTO{ID: 9, ItemCode: input.ItemCode}, nil
}

func (stubPartsService) Update(ctx context.Context, id uint, input parts.UpdatePartInput) (*parts.PartDTO, error) {
	panic("unimplemented")
}

func (stubPartsService) Delete(ctx context.Context, id uint) error {
	panic("unimplemented")
}

type memoryIdempotencyStore struct {
	data map[string]string
}

func (m *memoryIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	return m.data[key], nil
}

func (m *memoryIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:5173"}},
		Session: config.SessionConfig{
			Secret:     "router-secret",
			Issuer:     "sprinklerhub",
			TTL:        time.Hour,
			CookieName: "connect.sid",
		},
	}
}

func uintPtr(v uint) *uint { return &v }

type harness struct {
	cfg        *config.Config
	handler    http.Handler
	sessions   stubSessions
	users      stubUsers
	orders     *stubOrdersService
	businesses *stubBusinessService
	cart       *stubCartService
}

func newHarness(t *testing.T, mutate func(*Dependencies)) *harness {
	t.Helper()
	h := &harness{
		cfg:      testConfig(),
		sessions: stubSessions{},
		users: stubUsers{
			1: {ID: 1, Role: enums.UserRoleProjectManager, BusinessID: uintPtr(10), IsApproved: true, Status: enums.UserStatusActive},
			2: {ID: 2, Role: enums.UserRoleTradie, BusinessID: uintPtr(10), Status: enums.UserStatusPendingInvitation},
			3: {ID: 3, Role: enums.UserRoleSupplier, IsApproved: true, Status: enums.UserStatusActive},
			4: {ID: 4, Role: enums.UserRoleTradie, BusinessID: uintPtr(10), IsApproved: true, Status: enums.UserStatusActive},
			5: {ID: 5, Role: enums.UserRoleTradie},
		},
		orders:     &stubOrdersService{},
		businesses: &stubBusinessService{tiers: map[uint]enums.PriceTier{}},
		cart:       &stubCartService{},
	}
	deps := Dependencies{
		Readiness:  map[string]controllers.Pinger{"database": stubPinger{}, "redis": stubPinger{}},
		Sessions:   h.sessions,
		Users:      h.users,
		JobLoader:  stubJobLoader{},
		Auth:       stubAuthService{token: "signed-token"},
		Businesses: h.businesses,
		Parts:      stubPartsService{},
		Cart:       h.cart,
		Orders:     h.orders,
	}
	if mutate != nil {
		mutate(&deps)
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	h.handler = NewRouter(h.cfg, logg, deps)
	return h
}

// cookieFor starts a session for the user and returns the signed cookie.
func (h *harness) cookieFor(t *testing.T, userID uint) *http.Cookie {
	t.Helper()
	sessionID := fmt.Sprintf("sess-%d", userID)
	h.sessions[sessionID] = userID
	token, err := pkgAuth.MintSessionToken(h.cfg.Session, time.Now(), pkgAuth.SessionPayload{
		UserID:    userID,
		Role:      h.users[userID].Role,
		SessionID: sessionID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return &http.Cookie{Name: h.cfg.Session.CookieName, Value: token}
}

func (h *harness) do(method, path string, body string, cookie *http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", resp.Body.String(), err)
	}
	return env
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t, nil)
	if resp := h.do(http.MethodGet, "/health/live", "", nil, nil); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp := h.do(http.MethodGet, "/health/ready", "", nil, nil); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", resp.Code)
	}

	down := newHarness(t, func(d *Dependencies) {
		d.Readiness = map[string]controllers.Pinger{"redis": stubPinger{err: errors.New("connection refused")}}
	})
	if resp := down.do(http.MethodGet, "/health/ready", "", nil, nil); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready with redis down: expected 503 got %d", resp.Code)
	}
}

func TestCurrentUserRequiresSession(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodGet, "/api/user", "", nil, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if env := decode(t, resp); env.Error.Message != "Authentication required" {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}

	resp = h.do(http.MethodGet, "/api/user", "", h.cookieFor(t, 1), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodPost, "/api/login", `{"email":"pm@example.com","password":"sprinkler42"}`, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var sessionCookie *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == "connect.sid" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected connect.sid cookie")
	}
	if sessionCookie.Value != "signed-token" || !sessionCookie.HttpOnly || sessionCookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected cookie %+v", sessionCookie)
	}

	resp = h.do(http.MethodPost, "/api/login", `{"email":"pm@example.com","password":"wrong"}`, nil, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrderPlacementDeniedForLimitedTradie(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodPost, "/api/orders", `{}`, h.cookieFor(t, 2), nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	env := decode(t, resp)
	if env.Error.Details["accessLevel"] != string(access.LevelLimited) {
		t.Fatalf("expected limited access level, got %v", env.Error.Details["accessLevel"])
	}
	if h.orders.created != 0 {
		t.Fatal("order service must not be reached")
	}

	resp = h.do(http.MethodPost, "/api/orders", `{}`, h.cookieFor(t, 5), nil)
	if env := decode(t, resp); env.Error.Details["accessLevel"] != string(access.LevelIndependent) {
		t.Fatalf("expected independent access level, got %v", env.Error.Details["accessLevel"])
	}
}

func TestOrderPlacementReplaysIdempotentRequest(t *testing.T) {
	store := &memoryIdempotencyStore{data: map[string]string{}}
	h := newHarness(t, func(d *Dependencies) { d.Idempotency = store })
	cookie := h.cookieFor(t, 4)
	headers := map[string]string{"Idempotency-Key": "order-1"}

	first := h.do(http.MethodPost, "/api/orders", `{"notes":"site b"}`, cookie, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", first.Code, first.Body.String())
	}
	second := h.do(http.MethodPost, "/api/orders", `{"notes":"site b"}`, cookie, headers)
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("expected replayed response, got %d %s", second.Code, second.Body.String())
	}
	if h.orders.created != 1 {
		t.Fatalf("expected one order, got %d", h.orders.created)
	}

	conflict := h.do(http.MethodPost, "/api/orders", `{"notes":"site c"}`, cookie, headers)
	if conflict.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key, got %d", conflict.Code)
	}
}

func TestPMRoutesRequireProjectManager(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodGet, "/api/pm/orders/pending", "", h.cookieFor(t, 4), nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("tradie: expected 403 got %d", resp.Code)
	}

	resp = h.do(http.MethodGet, "/api/pm/orders/pending", "", h.cookieFor(t, 1), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("pm: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(h.orders.listStatuses) != 1 || h.orders.listStatuses[0] != enums.OrderStatusPendingApproval {
		t.Fatalf("expected pending filter, got %v", h.orders.listStatuses)
	}
}

func TestPMRejectRequiresReason(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodPost, "/api/pm/orders/7/reject", `{"reason":"   "}`, h.cookieFor(t, 1), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	resp = h.do(http.MethodPost, "/api/pm/orders/7/reject", `{"reason":"wrong heads"}`, h.cookieFor(t, 1), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestSupplierSetsPriceTier(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodPut, "/api/supplier/businesses/10/tier", `{"priceTier":"T1"}`, h.cookieFor(t, 1), nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("pm: expected 403 got %d", resp.Code)
	}

	resp = h.do(http.MethodPut, "/api/supplier/businesses/10/tier", `{"priceTier":"T1"}`, h.cookieFor(t, 3), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("supplier: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if h.businesses.tiers[10] != enums.PriceTierT1 {
		t.Fatalf("expected tier T1, got %q", h.businesses.tiers[10])
	}

	resp = h.do(http.MethodPut, "/api/supplier/businesses/10/tier", `{"priceTier":"T9"}`, h.cookieFor(t, 3), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("invalid tier: expected 400 got %d", resp.Code)
	}
}

func TestSupplierOnlyPartWrites(t *testing.T) {
	h := newHarness(t, nil)
	body := `{"itemCode":"SH-1","description":"Pendent head","category":"Heads","priceT1":"10","priceT2":"9","priceT3":"8","stock":5}`
	if resp := h.do(http.MethodPost, "/api/parts", body, nil, nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401 got %d", resp.Code)
	}
	if resp := h.do(http.MethodPost, "/api/parts", body, h.cookieFor(t, 1), nil); resp.Code != http.StatusForbidden {
		t.Fatalf("pm: expected 403 got %d", resp.Code)
	}
	if resp := h.do(http.MethodPost, "/api/parts", body, h.cookieFor(t, 3), nil); resp.Code != http.StatusCreated {
		t.Fatalf("supplier: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := h.do(http.MethodGet, "/api/parts/categories", "", nil, nil); resp.Code != http.StatusOK {
		t.Fatalf("categories: expected 200 got %d", resp.Code)
	}
}

func TestAnonymousCartUsesGuestCookie(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodGet, "/api/cart", "", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var guest string
	for _, c := range resp.Result().Cookies() {
		if c.Name == middleware.GuestCookieName {
			guest = c.Value
		}
	}
	if guest == "" {
		t.Fatal("expected guest cookie")
	}
	if len(h.cart.owners) != 1 || h.cart.owners[0].GuestID != guest || !h.cart.owners[0].IsGuest() {
		t.Fatalf("expected guest owner %q, got %+v", guest, h.cart.owners)
	}

	resp = h.do(http.MethodPost, "/api/cart", `{"partId":3,"quantity":2}`, h.cookieFor(t, 4), nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	last := h.cart.owners[len(h.cart.owners)-1]
	if last.UserID == nil || *last.UserID != 4 {
		t.Fatalf("expected user owner, got %+v", last)
	}
}

func TestJobRoutesRequireCompanyStanding(t *testing.T) {
	h := newHarness(t, nil)
	if resp := h.do(http.MethodGet, "/api/jobs/99", "", h.cookieFor(t, 4), nil); resp.Code != http.StatusNotFound {
		t.Fatalf("missing job: expected 404 got %d", resp.Code)
	}
	resp := h.do(http.MethodGet, "/api/jobs", "", h.cookieFor(t, 2), nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("pending tradie: expected 403 got %d", resp.Code)
	}
	if resp := h.do(http.MethodGet, "/api/jobs", "", h.cookieFor(t, 3), nil); resp.Code != http.StatusForbidden {
		t.Fatalf("supplier: expected 403 got %d", resp.Code)
	}
}

type stubJobsService struct {
	jobs.Service
	filters []jobs.ListFilters
}

func (s *stubJobsService) List(ctx context.Context, businessID uint, filters jobs.ListFilters) ([]jobs.JobDTO, error) {
	s.filters = append(s.filters, filters)
	return []jobs.JobDTO{{ID: 21, BusinessID: businessID, JobNumber: "J-21"}}, nil
}

func TestTradieJobsRequireApprovedMembership(t *testing.T) {
	svc := &stubJobsService{}
	h := newHarness(t, func(d *Dependencies) { d.Jobs = svc })

	for userID, level := range map[uint]access.Level{2: access.LevelLimited, 5: access.LevelIndependent} {
		resp := h.do(http.MethodGet, "/api/tradie/jobs", "", h.cookieFor(t, userID), nil)
		if resp.Code != http.StatusForbidden {
			t.Fatalf("user %d: expected 403 got %d", userID, resp.Code)
		}
		if env := decode(t, resp); env.Error.Details["accessLevel"] != string(level) {
			t.Fatalf("user %d: expected access level %s, got %v", userID, level, env.Error.Details["accessLevel"])
		}
	}
	if resp := h.do(http.MethodGet, "/api/tradie/jobs", "", h.cookieFor(t, 1), nil); resp.Code != http.StatusForbidden {
		t.Fatalf("pm: expected 403 got %d", resp.Code)
	}
	if len(svc.filters) != 0 {
		t.Fatal("jobs service must not be reached")
	}

	resp := h.do(http.MethodGet, "/api/tradie/jobs", "", h.cookieFor(t, 4), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("approved tradie: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.filters) != 1 || svc.filters[0].AssignedTo == nil || *svc.filters[0].AssignedTo != 4 {
		t.Fatalf("expected list scoped to tradie 4, got %+v", svc.filters)
	}
}

func TestBusinessDirectoryIsPublic(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodGet, "/api/businesses", "", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var list []businesses.Summary
	if err := json.Unmarshal(decode(t, resp).Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Acme Fire" {
		t.Fatalf("unexpected list %+v", list)
	}
}
