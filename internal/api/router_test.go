package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/inventory-system/internal/api/middleware"
	"github.com/sweetshop/inventory-system/internal/core/domain"
	"github.com/sweetshop/inventory-system/internal/core/ports"
	"github.com/sweetshop/inventory-system/internal/core/service"
	"github.com/sweetshop/inventory-system/internal/infrastructure/db/sqlite"
	"github.com/sweetshop/inventory-system/internal/infrastructure/http/handlers"
)

const testSecret = "router-test-secret-0123456789abcdef"

type testServer struct {
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := sqlite.NewTestDB(t)

	authSvc := service.NewAuthService(sqlite.NewAuthRepository(db), testSecret, time.Hour,
		service.WithBcryptCost(bcrypt.MinCost))
	if _, err := authSvc.EnsureAdmin(context.Background(), "admin", "admin@shop.io", "admin-pass"); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	inventory := service.NewInventoryService(
		sqlite.NewSweetRepository(db),
		sqlite.NewStockEventRepository(db),
		nil,
		zerolog.Nop(),
	)

	e := NewRouter(Deps{
		Auth:       authSvc,
		Inventory:  inventory,
		Authorizer: service.NewGate(authSvc),
		Health:     []handlers.Dependency{{Name: "sqlite", Pinger: sqlite.Pinger{DB: db}}},
		Log:        zerolog.Nop(),
	})
	return &testServer{e: e}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var obj map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &obj)
	return rec, obj
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d %s", email, rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in %v", email, body)
	}
	return token
}

func (s *testServer) registerAndLogin(t *testing.T) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/auth/register", "",
		`{"username":"bob","email":"bob@shop.io","password":"pw-123","role":"admin"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	if user := body["user"].(map[string]any); user["role"] != "user" {
		t.Fatalf("self-registration must never grant admin: %v", user)
	}
	return s.login(t, "bob@shop.io", "pw-123")
}

func TestRouter_ChocoBarScenario(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@shop.io", "admin-pass")
	user := s.registerAndLogin(t)

	rec, created := s.do(t, http.MethodPost, "/api/sweets", admin,
		`{"name":"Choco Bar","category":"Chocolates","price":2.50,"quantity":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	id := created["id"].(string)

	for i := 0; i < 3; i++ {
		rec, body := s.do(t, http.MethodPost, "/api/sweets/"+id+"/purchase", user, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("purchase %d: expected 200, got %d %s", i+1, rec.Code, rec.Body.String())
		}
		sweet := body["sweet"].(map[string]any)
		if sweet["quantity"].(float64) != float64(2-i) {
			t.Fatalf("purchase %d: unexpected quantity %v", i+1, sweet["quantity"])
		}
	}

	rec, body := s.do(t, http.MethodPost, "/api/sweets/"+id+"/purchase", user, "")
	if rec.Code != http.StatusConflict || body["error"] == "" {
		t.Fatalf("expected 409 with an error message, got %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = s.do(t, http.MethodGet, "/api/sweets", user, "")
	var list []domain.Sweet
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 || list[0].Quantity != 0 {
		t.Fatalf("expected Choco Bar at quantity 0, got %s", rec.Body.String())
	}
}

func TestRouter_NonAdminCannotMutate(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@shop.io", "admin-pass")
	user := s.registerAndLogin(t)

	_, created := s.do(t, http.MethodPost, "/api/sweets", admin,
		`{"name":"Gummy","category":"Gummies","price":1,"quantity":5}`)
	id := created["id"].(string)

	attempts := []struct{ method, path, body string }{
		{http.MethodPost, "/api/sweets", `{"name":"X","category":"Y","price":1,"quantity":1}`},
		{http.MethodPut, "/api/sweets/" + id, `{"price":99}`},
		{http.MethodDelete, "/api/sweets/" + id, ""},
		{http.MethodPost, "/api/sweets/" + id + "/restock", `{"quantity":10}`},
		{http.MethodGet, "/api/sweets/" + id + "/history", ""},
	}
	for _, a := range attempts {
		rec, _ := s.do(t, a.method, a.path, user, a.body)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", a.method, a.path, rec.Code)
		}
	}

	rec, body := s.do(t, http.MethodGet, "/api/sweets/"+id, user, "")
	if rec.Code != http.StatusOK || body["price"].(float64) != 1 || body["quantity"].(float64) != 5 {
		t.Fatalf("state must be unchanged, got %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = s.do(t, http.MethodGet, "/api/sweets", user, "")
	var list []domain.Sweet
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Fatalf("expected a single sweet, got %s", rec.Body.String())
	}
}

func TestRouter_AdminRestockAndHistory(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@shop.io", "admin-pass")

	_, created := s.do(t, http.MethodPost, "/api/sweets", admin,
		`{"name":"Toffee","category":"Candy","price":0.75,"quantity":0}`)
	id := created["id"].(string)

	rec, body := s.do(t, http.MethodPost, "/api/sweets/"+id+"/restock", admin, `{"quantity":4}`)
	if rec.Code != http.StatusOK || body["sweet"].(map[string]any)["quantity"].(float64) != 4 {
		t.Fatalf("restock: got %d %s", rec.Code, rec.Body.String())
	}

	for _, q := range []string{`{"quantity":0}`, `{"quantity":-2}`} {
		rec, _ = s.do(t, http.MethodPost, "/api/sweets/"+id+"/restock", admin, q)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("restock %s: expected 400, got %d", q, rec.Code)
		}
	}

	rec, _ = s.do(t, http.MethodGet, "/api/sweets/"+id+"/history", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}

	rec, _ = s.do(t, http.MethodPut, "/api/sweets/"+id, admin, `{"price":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("update with invalid price: expected 400, got %d", rec.Code)
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/sweets/"+id, admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec, _ = s.do(t, http.MethodGet, "/api/sweets/"+id, admin, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestRouter_Search(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@shop.io", "admin-pass")

	for _, body := range []string{
		`{"name":"Dark Choco","category":"Chocolates","price":3,"quantity":1}`,
		`{"name":"Milk Choco","category":"Chocolates","price":1,"quantity":1}`,
		`{"name":"Sour Worms","category":"Gummies","price":2,"quantity":1}`,
	} {
		if rec, _ := s.do(t, http.MethodPost, "/api/sweets", admin, body); rec.Code != http.StatusCreated {
			t.Fatalf("seed: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec, _ := s.do(t, http.MethodGet, "/api/sweets/search?name=choco&minPrice=2", admin, "")
	var got []domain.Sweet
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if rec.Code != http.StatusOK || len(got) != 1 || got[0].Name != "Dark Choco" {
		t.Fatalf("unexpected search result %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = s.do(t, http.MethodGet, "/api/sweets/search?minPrice=5&maxPrice=1", admin, "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("inverted range should be empty, got %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = s.do(t, http.MethodGet, "/api/sweets/search?maxPrice=cheap", admin, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-numeric bound, got %d", rec.Code)
	}
}

func TestRouter_Authentication(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/sweets", "", "")
	if rec.Code != http.StatusUnauthorized || body["error"] == nil {
		t.Fatalf("expected 401 envelope, got %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = s.do(t, http.MethodGet, "/api/sweets", "not-a-jwt", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a garbage token, got %d", rec.Code)
	}

	rec, wrongPass := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"admin@shop.io","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec, noUser := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ghost@shop.io","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized || wrongPass["error"] != noUser["error"] {
		t.Fatalf("login failures must be indistinguishable: %v vs %v", wrongPass, noUser)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/auth/register", "", `{"username":"dup","email":"ADMIN@shop.io","password":"x"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate email, got %d", rec.Code)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		rec, _ := s.do(t, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_AuthRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2)
	defer limiter.Stop()

	s := &testServer{e: NewRouter(Deps{
		Auth:        failingAuth{},
		Inventory:   failingInventory{},
		Authorizer:  service.NewGate(failingAuth{}),
		AuthLimiter: limiter,
		Log:         zerolog.Nop(),
	})}

	var last int
	for i := 0; i < 3; i++ {
		rec, _ := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"a@b.c","password":"x"}`)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the burst, got %d", last)
	}
}

// failingAuth and failingInventory surface store-style failures.
type failingAuth struct{}

func (failingAuth) Register(context.Context, ports.RegisterInput) (*domain.User, error) {
	return nil, errors.New("mongo: connection reset")
}

func (failingAuth) Login(context.Context, string, string) (string, *domain.User, error) {
	return "", nil, domain.ErrInvalidCredentials
}

func (failingAuth) Verify(string) (*domain.Claims, error) {
	return &domain.Claims{UserID: "u1", Role: domain.RoleUser}, nil
}

type failingInventory struct {
	ports.InventoryService
}

func (failingInventory) List(context.Context) ([]domain.Sweet, error) {
	return nil, errors.New("mongo: server selection timeout at 10.0.0.7:27017")
}

func TestRouter_InternalErrorsAreNotLeaked(t *testing.T) {
	s := &testServer{e: NewRouter(Deps{
		Auth:       failingAuth{},
		Inventory:  failingInventory{},
		Authorizer: service.NewGate(failingAuth{}),
		Log:        zerolog.Nop(),
	})}

	rec, body := s.do(t, http.MethodGet, "/api/sweets", "any-token", "")
	if rec.Code != http.StatusInternalServerError || body["error"] != "internal server error" {
		t.Fatalf("expected a generic 500, got %d %s", rec.Code, rec.Body.String())
	}

	rec, body = s.do(t, http.MethodPost, "/api/auth/register", "", `{"username":"a","email":"a@b.io","password":"x"}`)
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "mongo") {
		t.Fatalf("store details leaked: %d %v", rec.Code, body)
	}
}
