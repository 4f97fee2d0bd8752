package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app"
	"erpcore/internal/core/apperror"
	"erpcore/internal/domain/auth"
	v1 "erpcore/internal/infrastructure/http/v1"
	"erpcore/internal/infrastructure/http/v1/middleware"
	"erpcore/internal/infrastructure/storage/memory"
	"erpcore/pkg/logger"
)

const testSecret = "router-test-secret-router-test-secret"

type client struct {
	t      *testing.T
	router *gin.Engine
	jwt    *auth.JWTService
}

func newClient(t *testing.T) *client {
	t.Helper()
	jwt := auth.NewJWTService(auth.DefaultJWTConfig(testSecret))
	mem := app.NewMemory("EUR")
	router := v1.NewRouter(v1.RouterConfig{
		Services:       mem.Services,
		Logger:         logger.NewNop(),
		JWTValidator:   jwt,
		Idempotency:    memory.NewIdempotencyStore(time.Hour),
		DefaultTaxRate: decimal.NewFromInt(19),
	})
	return &client{t: t, router: router, jwt: jwt}
}

func (c *client) token(roles ...string) string {
	c.t.Helper()
	token, _, err := c.jwt.GenerateAccessToken(auth.Principal{UserID: "u-" + roles[0], Roles: roles})
	require.NoError(c.t, err)
	return token
}

type request struct {
	method string
	path   string
	body   any
	token  string
	key    string
}

func (c *client) do(r request) *httptest.ResponseRecorder {
	c.t.Helper()
	var body bytes.Buffer
	if r.body != nil {
		require.NoError(c.t, json.NewEncoder(&body).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.key != "" {
		req.Header.Set(middleware.HeaderIdempotencyKey, r.key)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Code          string         `json:"code"`
	Details       map[string]any `json:"details"`
	Retryable     bool           `json:"retryable"`
	NonIdempotent bool           `json:"non_idempotent"`
}

type entityBody struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Status string `json:"status"`
}

type orderBody struct {
	entityBody
	Total decimal.Decimal `json:"total"`
	Lines []struct {
		ID           string          `json:"id"`
		DeliveredQty decimal.Decimal `json:"deliveredQty"`
	} `json:"lines"`
}

type invoiceBody struct {
	entityBody
	Total      decimal.Decimal `json:"total"`
	BalanceDue decimal.Decimal `json:"balanceDue"`
}

func TestHealth(t *testing.T) {
	c := newClient(t)

	w := c.do(request{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	w = c.do(request{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthAndCapabilities(t *testing.T) {
	c := newClient(t)

	w := c.do(request{method: http.MethodGet, path: "/api/v1/orders"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, decode[errorBody](t, w).Code)

	w = c.do(request{method: http.MethodGet, path: "/api/v1/orders", token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	receptionist := c.token("receptionist")
	w = c.do(request{method: http.MethodGet, path: "/api/v1/orders", token: receptionist})
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(request{method: http.MethodPost, path: "/api/v1/orders", token: receptionist, body: map[string]any{}})
	require.Equal(t, http.StatusForbidden, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, apperror.CodeForbidden, body.Code)
	assert.Equal(t, "order.create", body.Details["operation"])
	assert.Equal(t, "sales_manage", body.Details["required_capability"])

	w = c.do(request{method: http.MethodPost, path: "/api/v1/stock/movements", token: c.token("warehouse_manager"), body: map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "warehouse managers pass the capability check")
}

func TestInvalidID(t *testing.T) {
	c := newClient(t)
	w := c.do(request{method: http.MethodGet, path: "/api/v1/orders/not-a-uuid", token: c.token("admin")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decode[errorBody](t, w).Code)
}

func TestOrderToCash(t *testing.T) {
	c := newClient(t)
	tok := c.token("store_manager")

	w := c.do(request{method: http.MethodPost, path: "/api/v1/products", token: tok, body: map[string]any{
		"name": "Widget", "reference": "W-1", "unitPrice": "100", "minStock": "2",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[entityBody](t, w)

	// Stock in, replayed with the same idempotency key.
	move := request{method: http.MethodPost, path: "/api/v1/stock/movements", token: tok, key: "stock-in-1", body: map[string]any{
		"productId": product.ID, "movementType": "in", "quantity": "12",
	}}
	first := c.do(move)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	replay := c.do(move)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	w = c.do(request{method: http.MethodGet, path: "/api/v1/stock/products/" + product.ID + "/available", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	avail := decode[struct {
		Available decimal.Decimal `json:"available"`
	}](t, w)
	assert.True(t, avail.Available.Equal(decimal.NewFromInt(12)), "replay must not apply the movement twice")

	w = c.do(request{method: http.MethodPost, path: "/api/v1/customers", token: tok, body: map[string]any{
		"name": "Acme", "email": "buyer@acme.test",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cust := decode[entityBody](t, w)
	assert.Equal(t, "CUS000001", cust.Code)

	w = c.do(request{method: http.MethodPost, path: "/api/v1/orders", token: tok, body: map[string]any{
		"customerId": cust.ID,
		"lines":      []map[string]any{{"productId": product.ID, "quantity": "10"}},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ord := decode[orderBody](t, w)
	assert.Equal(t, "DRAFT", ord.Status)
	assert.True(t, ord.Total.Equal(decimal.RequireFromString("1190.00")), "total %s", ord.Total)

	w = c.do(request{method: http.MethodPost, path: "/api/v1/orders/" + ord.ID + "/confirm", token: tok})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = c.do(request{method: http.MethodPost, path: "/api/v1/orders/" + ord.ID + "/confirm", token: tok})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = c.do(request{method: http.MethodPost, path: "/api/v1/delivery-notes", token: tok, body: map[string]any{
		"orderId": ord.ID,
		"lines":   []map[string]any{{"orderLineId": ord.Lines[0].ID, "quantity": "12"}},
	}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, "more than ordered")
	assert.Equal(t, apperror.CodeQuantityExceedsRemaining, decode[errorBody](t, w).Code)

	w = c.do(request{method: http.MethodPost, path: "/api/v1/delivery-notes", token: tok, body: map[string]any{
		"orderId": ord.ID,
		"lines":   []map[string]any{{"orderLineId": ord.Lines[0].ID, "quantity": "10"}},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	note := decode[entityBody](t, w)

	w = c.do(request{method: http.MethodPost, path: "/api/v1/delivery-notes/" + note.ID + "/deliver", token: tok})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "DELIVERED", decode[entityBody](t, w).Status)

	w = c.do(request{method: http.MethodGet, path: "/api/v1/orders/" + ord.ID, token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DELIVERED", decode[orderBody](t, w).Status)

	w = c.do(request{method: http.MethodPost, path: "/api/v1/invoices/from-order", token: tok, body: map[string]any{"orderId": ord.ID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[invoiceBody](t, w)

	w = c.do(request{method: http.MethodPost, path: "/api/v1/invoices/" + inv.ID + "/issue", token: tok})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	pay := request{method: http.MethodPost, path: "/api/v1/invoices/" + inv.ID + "/payments", token: tok, key: "pay-1", body: map[string]any{
		"amount": "1190.00", "method": "TRANSFER",
	}}
	w = c.do(pay)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	paid := decode[struct {
		Invoice invoiceBody `json:"invoice"`
	}](t, w)
	assert.Equal(t, "PAID", paid.Invoice.Status)
	assert.True(t, paid.Invoice.BalanceDue.IsZero())

	w = c.do(pay)
	assert.Equal(t, http.StatusCreated, w.Code, "same key replays the recorded payment")

	w = c.do(request{method: http.MethodPost, path: "/api/v1/invoices/" + inv.ID + "/payments", token: tok, key: "pay-2", body: map[string]any{
		"amount": "0.01", "method": "CASH",
	}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	failed := decode[errorBody](t, w)
	assert.True(t, failed.NonIdempotent)
	assert.Contains(t, []string{apperror.CodeExceedsBalance, apperror.CodeInvoicePaid}, failed.Code)

	w = c.do(request{method: http.MethodGet, path: "/api/v1/invoices/" + inv.ID + "/payments", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	payments := decode[struct {
		Items []json.RawMessage `json:"items"`
	}](t, w)
	assert.Len(t, payments.Items, 1)
}

func TestIdempotencyKeyReuseWithDifferentBody(t *testing.T) {
	c := newClient(t)
	tok := c.token("admin")

	w := c.do(request{method: http.MethodPost, path: "/api/v1/products", token: tok, body: map[string]any{
		"name": "Bolt", "reference": "B-1",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[entityBody](t, w)

	body := func(qty string) map[string]any {
		return map[string]any{"productId": product.ID, "movementType": "in", "quantity": qty}
	}
	w = c.do(request{method: http.MethodPost, path: "/api/v1/stock/movements", token: tok, key: "k", body: body("1")})
	require.Equal(t, http.StatusCreated, w.Code)

	w = c.do(request{method: http.MethodPost, path: "/api/v1/stock/movements", token: tok, key: "k", body: body("2")})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeIdempotency, decode[errorBody](t, w).Code)
}

func TestProductLowStockAndUpdate(t *testing.T) {
	c := newClient(t)
	tok := c.token("store_manager")

	w := c.do(request{method: http.MethodPost, path: "/api/v1/products", token: tok, body: map[string]any{
		"name": "Nut", "reference": "N-1", "minStock": "5",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[struct {
		entityBody
		Version int `json:"version"`
	}](t, w)

	w = c.do(request{method: http.MethodGet, path: "/api/v1/products/low-stock", token: tok})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	low := decode[struct {
		TotalCount int64 `json:"totalCount"`
	}](t, w)
	assert.EqualValues(t, 1, low.TotalCount)

	w = c.do(request{method: http.MethodPut, path: "/api/v1/products/" + product.ID, token: tok, body: map[string]any{
		"name": "Hex nut", "version": product.Version + 1,
	}})
	assert.Equal(t, http.StatusConflict, w.Code, "stale version")
	assert.Equal(t, apperror.CodeConcurrentModification, decode[errorBody](t, w).Code)

	w = c.do(request{method: http.MethodPut, path: "/api/v1/products/" + product.ID, token: tok, body: map[string]any{
		"name": "Hex nut", "version": product.Version,
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = c.do(request{method: http.MethodDelete, path: "/api/v1/products/" + product.ID, token: tok})
	assert.Equal(t, http.StatusNoContent, w.Code)
}
