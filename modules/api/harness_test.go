package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/events"
	"github.com/emmanuel197/kuandorwear-media/modules/auth"
	"github.com/emmanuel197/kuandorwear-media/modules/orderevents"
	"github.com/emmanuel197/kuandorwear-media/modules/payment"
	"github.com/emmanuel197/kuandorwear-media/modules/storage"
	"github.com/emmanuel197/kuandorwear-media/modules/uploads"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// localAuth serves AuthPort straight from an AuthService. Forgotten users
// read as missing.
type localAuth struct {
	svc *auth.AuthService

	mu   sync.Mutex
	gone map[uint]bool
}

func (a *localAuth) forget(id uint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gone[id] = true
}

func profile(u *shop.User, err error) (*auth.UserProfile, error) {
	if err != nil || u == nil {
		return nil, err
	}
	p := auth.ProfileOf(u)
	return &p, nil
}

func (a *localAuth) Register(ctx context.Context, req auth.RegisterRequest) (*auth.UserProfile, error) {
	return profile(a.svc.Register(ctx, req))
}

func (a *localAuth) Login(ctx context.Context, username, password string) (*auth.UserProfile, error) {
	return profile(a.svc.Login(ctx, username, password))
}

func (a *localAuth) GetUser(ctx context.Context, userID uint) (*auth.UserProfile, error) {
	a.mu.Lock()
	gone := a.gone[userID]
	a.mu.Unlock()
	if gone {
		return nil, nil
	}
	return profile(a.svc.GetUser(ctx, userID))
}

type recordingPublisher struct {
	mu      sync.Mutex
	placed  []events.OrderPlacedEvent
	changed []events.OrderStatusChangedEvent
	deleted []events.ProductDeletedEvent
}

func (p *recordingPublisher) OrderPlaced(e events.OrderPlacedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, e)
}

func (p *recordingPublisher) OrderStatusChanged(e events.OrderStatusChangedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, e)
}

func (p *recordingPublisher) ProductDeleted(e events.ProductDeletedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, e)
}

type stubFeed struct {
	entries []orderevents.FeedEntry
	err     error
}

func (f stubFeed) Recent(_ context.Context, limit int) ([]orderevents.FeedEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[:min(limit, len(f.entries))], nil
}

type memImages struct {
	mu      sync.Mutex
	data    map[string][]byte
	headers map[string]map[string]string
}

func newMemImages() *memImages {
	return &memImages{data: map[string][]byte{}, headers: map[string]map[string]string{}}
}

func (m *memImages) Put(_ context.Context, key string, data []byte, headers map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	m.headers[key] = headers
	return nil
}

func (m *memImages) Get(_ context.Context, key string) ([]byte, map[string]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	return data, m.headers[key], ok, nil
}

type harness struct {
	t       *testing.T
	app     *fiber.App
	store   storage.Storage
	authSvc *auth.AuthService
	auth    *localAuth
	events  *recordingPublisher
}

type harnessOption func(*Config, *deps)

func withRateLimit(n int) harnessOption {
	return func(cfg *Config, _ *deps) { cfg.AuthRateLimit = n }
}

func withFeed(feed orderevents.FeedPort) harnessOption {
	return func(_ *Config, d *deps) { d.Feed = feed }
}

func withUploadLimit(maxBytes int64) harnessOption {
	return func(_ *Config, d *deps) { d.Images = uploads.NewService(newMemImages(), maxBytes) }
}

// backends returns a constructor for every Storage implementation.
func backends(t *testing.T) map[string]func() storage.Storage {
	t.Helper()
	return map[string]func() storage.Storage{
		"memory": func() storage.Storage { return storage.NewMemStorage() },
		"gorm": func() storage.Storage {
			db, err := storage.Open(storage.DriverSQLite, ":memory:", false)
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			return db
		},
	}
}

// eachBackend runs fn as a subtest against a harness on every backend.
func eachBackend(t *testing.T, fn func(t *testing.T, h *harness), opts ...harnessOption) {
	t.Helper()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, newHarnessOn(t, open(), opts...))
		})
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	return newHarnessOn(t, storage.NewMemStorage(), opts...)
}

func newHarnessOn(t *testing.T, store storage.Storage, opts ...harnessOption) *harness {
	t.Helper()

	svc := auth.NewAuthService(store, auth.NewPasswordHasherWithCost(1<<10))
	gateway, err := payment.NewMockGateway("http://localhost:3000")
	require.NoError(t, err)
	pub := &recordingPublisher{}
	users := &localAuth{svc: svc, gone: map[uint]bool{}}

	cfg := Config{AuthRateLimit: 1000}
	d := deps{
		Store:    store,
		Auth:     users,
		Payments: gateway,
		Images:   uploads.NewService(newMemImages(), uploads.DefaultMaxBytes),
		Events:   pub,
	}
	for _, opt := range opts {
		opt(&cfg, &d)
	}

	return &harness{
		t:       t,
		app:     newServer(cfg, d).newApp(),
		store:   store,
		authSvc: svc,
		auth:    users,
		events:  pub,
	}
}

// do sends a JSON request. A nil body sends no body.
func (h *harness) do(method, path string, body any, session string) *http.Response {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return h.send(req, session)
}

func (h *harness) send(req *http.Request, session string) *http.Response {
	h.t.Helper()
	if session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: session})
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func sessionOf(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c.Value
		}
	}
	return ""
}

// signUp registers a user and returns its session.
func (h *harness) signUp(username string, role shop.Role) (string, auth.UserProfile) {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/api/register", RegisterBody{
		Username: username,
		Password: "secret123",
		Role:     role,
	}, "")
	require.Equal(h.t, http.StatusCreated, resp.StatusCode)
	session := sessionOf(resp)
	require.NotEmpty(h.t, session)
	return session, decode[auth.UserProfile](h.t, resp)
}

// signInAdmin seeds the admin account and returns its session.
func (h *harness) signInAdmin() string {
	h.t.Helper()
	_, err := h.authSvc.EnsureAdmin(context.Background(), "admin", "admin123", "admin@example.com")
	require.NoError(h.t, err)
	resp := h.do(http.MethodPost, "/api/login", LoginBody{Username: "admin", Password: "admin123"}, "")
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
	session := sessionOf(resp)
	require.NotEmpty(h.t, session)
	return session
}

func (h *harness) createProduct(session string, body map[string]any) shop.Product {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/api/products", body, session)
	require.Equal(h.t, http.StatusCreated, resp.StatusCode)
	return decode[shop.Product](h.t, resp)
}

func (h *harness) placeOrder(session string, lines ...OrderLine) OrderView {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/api/orders", OrderBody{Items: lines}, session)
	require.Equal(h.t, http.StatusCreated, resp.StatusCode)
	return decode[OrderView](h.t, resp)
}

func idPath(prefix string, id uint) string {
	return prefix + strconv.FormatUint(uint64(id), 10)
}

func errorsOf(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	return decode[ErrorResponse](t, resp)
}
