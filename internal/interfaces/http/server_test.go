package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/memory"
	apihttp "github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	alice uint = 1
	bob   uint = 2
)

func init() {
	gin.SetMode(gin.TestMode)
}

type users map[uint]*user.User

func (u users) Active(_ context.Context, id uint) (*user.User, error) {
	if found, ok := u[id]; ok {
		return found, nil
	}
	return nil, apperror.Unauthorized("user not found or inactive")
}

type checker struct{ err error }

func (c checker) Health(context.Context) error { return c.err }

type testAPI struct {
	handler http.Handler
	store   *memory.Store
	tokens  *auth.JWTManager
	sql     sqlmock.Sqlmock
}

func newTestAPI(t *testing.T, checks map[string]apihttp.HealthChecker) *testAPI {
	t.Helper()
	log := logger.Discard()

	cfg := config.FromEnv()
	cfg.Security.CORSAllowedOrigins = []string{"*"}
	cfg.Security.TrustedProxies = nil

	store := memory.New()
	store.PutProduct(catalog.Product{ID: 1, Name: "Notebook", Price: memory.Price("10.00")})
	store.PutProduct(catalog.Product{ID: 2, Name: "Pencil", Price: memory.Price("5.00")})

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	engine := checkout.NewEngine(store, store, store,
		config.CheckoutConfig{MaxAttempts: 2, RetryBackoff: time.Millisecond, TxTimeout: 5 * time.Second},
		log, metrics.NewCheckoutMetrics(registry))

	tokens := auth.NewJWTManager(config.JWTConfig{
		Secret:            "0123456789abcdef0123456789abcdef",
		AccessTokenExpiry: time.Hour,
	}, "storefront-test")
	resolver := users{
		alice: {ID: alice, Email: "alice@example.com"},
		bob:   {ID: bob, Email: "bob@example.com"},
	}

	srv, err := apihttp.NewServer(cfg, log, apihttp.Dependencies{
		Handlers: routes.Handlers{
			Cart:     handlers.NewCartHandler(cart.NewService(store, store, store), log),
			Order:    handlers.NewOrderHandler(order.NewService(store), engine, log),
			Product:  handlers.NewProductHandler(catalog.NewService(gormDB, nil, log), log),
			Category: handlers.NewCategoryHandler(catalog.NewCategoryService(gormDB), log),
			Profile:  handlers.NewProfileHandler(user.NewService(gormDB, auth.NewPasswordManager(4), tokens, log), log),
		},
		RequireAuth: middleware.AuthMiddleware(tokens, resolver, log),
		Checks:      checks,
		Registry:    registry,
	})
	require.NoError(t, err)

	return &testAPI{handler: srv.Handler(), store: store, tokens: tokens, sql: mock}
}

func (a *testAPI) do(t *testing.T, method, path string, as uint, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if as != 0 {
		token, err := a.tokens.GenerateAccessToken(as, "x@example.com", false)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), w.Body.String())
	return out
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Error
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/cart"},
		{http.MethodPost, "/cart/products/1"},
		{http.MethodDelete, "/cart"},
		{http.MethodPost, "/orders"},
		{http.MethodGet, "/orders"},
		{http.MethodGet, "/orders/1"},
		{http.MethodGet, "/profile"},
		{http.MethodPut, "/profile"},
		{http.MethodGet, "/users/me"},
	} {
		w := api.do(t, route.method, route.path, 0, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t, nil)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/cart/products/1", alice, "").Code)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/cart/products/1", alice, "").Code)
	w := api.do(t, http.MethodPost, "/cart/products/2", alice, "")
	require.Equal(t, http.StatusOK, w.Code)

	c := decode[cart.Cart](t, w)
	assert.Equal(t, "25", c.Total.String())
	assert.Equal(t, 3, c.ItemCount)

	w = api.do(t, http.MethodPost, "/orders", alice, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[order.Order](t, w)
	assert.Equal(t, "25", placed.Total.String())
	assert.Len(t, placed.Items, 2)
	assert.NotEmpty(t, placed.OrderNumber)

	w = api.do(t, http.MethodGet, "/cart", alice, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[cart.Cart](t, w).Lines)

	w = api.do(t, http.MethodGet, "/orders", alice, "")
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]order.Order](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, "25", history[0].Total.String())

	path := fmt.Sprintf("/orders/%d", placed.ID)
	w = api.do(t, http.MethodGet, path, alice, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[order.Order](t, w).Items, 2)

	w = api.do(t, http.MethodGet, path, bob, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/orders", bob, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]order.Order](t, w))

	w = api.do(t, http.MethodPost, "/orders", alice, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cart is empty.", errorOf(t, w))
}

func TestCartEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"add unknown product", http.MethodPost, "/cart/products/99", "", http.StatusNotFound},
		{"add bad id", http.MethodPost, "/cart/products/abc", "", http.StatusBadRequest},
		{"add zero id", http.MethodPost, "/cart/products/0", "", http.StatusBadRequest},
		{"set missing body", http.MethodPut, "/cart/products/1", `{}`, http.StatusBadRequest},
		{"set negative", http.MethodPut, "/cart/products/1", `{"quantity": -1}`, http.StatusBadRequest},
		{"set above column range", http.MethodPut, "/cart/products/1", `{"quantity": 3000000000}`, http.StatusBadRequest},
		{"set negative on unknown product", http.MethodPut, "/cart/products/99", `{"quantity": -1}`, http.StatusNotFound},
		{"set creates line", http.MethodPut, "/cart/products/1", `{"quantity": 4}`, http.StatusOK},
		{"set zero removes", http.MethodPut, "/cart/products/1", `{"quantity": 0}`, http.StatusOK},
		{"remove absent line", http.MethodDelete, "/cart/products/2", "", http.StatusNoContent},
		{"clear empty cart", http.MethodDelete, "/cart", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, tt.method, tt.path, alice, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestCheckoutPersistenceFailureIsGeneric(t *testing.T) {
	api := newTestAPI(t, nil)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/cart/products/1", alice, "").Code)
	api.store.SetFault(func(op memory.Op) error {
		if op == memory.OpInsertLineItem {
			return errors.New("relation order_line_items does not exist")
		}
		return nil
	})

	w := api.do(t, http.MethodPost, "/orders", alice, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Oops... our bad.", errorOf(t, w))
	assert.NotContains(t, w.Body.String(), "order_line_items")

	api.store.SetFault(nil)
	w = api.do(t, http.MethodGet, "/cart", alice, "")
	assert.Len(t, decode[cart.Cart](t, w).Lines, 1)
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodPost, "/products", alice, `{"name":"x","price":"1.00","category_id":1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodDelete, "/categories/1", 0, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProductEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodGet, "/products?minPrice=abc", 0, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.sql.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	w = api.do(t, http.MethodGet, "/products/42", 0, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, api.sql.ExpectationsWereMet())
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)
	selectProfile := regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE user_id = $1`)
	columns := []string{"user_id", "first_name", "last_name", "phone", "email", "address", "city", "state", "zip"}

	api.sql.ExpectQuery(selectProfile).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(alice, "Alice", "Ng", "", "alice@example.com", "", "", "", ""))
	w := api.do(t, http.MethodGet, "/profile", alice, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Alice", decode[user.Profile](t, w).FirstName)

	api.sql.ExpectQuery(selectProfile).WillReturnRows(sqlmock.NewRows(columns))
	w = api.do(t, http.MethodGet, "/profile", bob, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	api.sql.ExpectBegin()
	api.sql.ExpectExec(regexp.QuoteMeta(`UPDATE "profiles" SET "city"=$1,"updated_at"=$2,"zip"=$3 WHERE user_id = $4`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	api.sql.ExpectCommit()
	api.sql.ExpectQuery(selectProfile).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(alice, "Alice", "Ng", "", "alice@example.com", "", "Austin", "", "78701"))
	w = api.do(t, http.MethodPut, "/profile", alice, `{"city":"Austin","zip":"78701"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[user.Profile](t, w)
	assert.Equal(t, "Austin", updated.City)
	assert.Equal(t, "78701", updated.Zip)

	api.sql.ExpectBegin()
	api.sql.ExpectExec(regexp.QuoteMeta(`UPDATE "profiles"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	api.sql.ExpectCommit()
	w = api.do(t, http.MethodPut, "/profile", bob, `{"city":"Austin"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPut, "/profile", alice, `{"email":"not-an-address"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.NoError(t, api.sql.ExpectationsWereMet())
}

func TestCurrentUserEndpoint(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodGet, "/users/me", alice, "")

	require.Equal(t, http.StatusOK, w.Code)
	me := decode[user.User](t, w)
	assert.Equal(t, alice, me.ID)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestOperationalEndpoints(t *testing.T) {
	api := newTestAPI(t, map[string]apihttp.HealthChecker{
		"database": checker{},
		"redis":    checker{err: errors.New("dial tcp: connection refused")},
	})

	w := api.do(t, http.MethodGet, "/health", 0, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis ping failed")

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/ready", 0, "").Code)

	api.do(t, http.MethodPost, "/orders", alice, "")
	w = api.do(t, http.MethodGet, "/metrics", 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `storefront_checkout_outcomes_total{outcome="empty_cart"} 1`)
	assert.Contains(t, w.Body.String(), "storefront_http_requests_total")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
