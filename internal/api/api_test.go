package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/notify"
	"inventory-service/internal/service"
	"inventory-service/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router  *gin.Engine
	monitor *service.LowStockMonitor
	admin   string
	staff   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memstore.New()
	monitor := service.NewLowStockMonitor(st, st, notify.NewLogSink(zap.NewNop()), 3)
	ledger := service.NewProductLedger(st, st, monitor, nil, nil, 3, 1000)
	h := NewHandler(Services{
		Products:  ledger,
		Sales:     service.NewSaleService(st, st, ledger, monitor, nil, nil, nil, time.Hour, 100),
		Suppliers: service.NewSupplierService(st, st),
		Analytics: service.NewAnalyticsService(st, st, nil, 3, time.Minute),
		Monitor:   monitor,
		Auth:      service.NewAuthService(st, "test-secret", time.Hour),
	}, "development", "http://localhost:3000", st)

	router := gin.New()
	h.SetupRoutes(router)
	ts := &testServer{router: router, monitor: monitor}
	t.Cleanup(monitor.Wait)

	ts.admin = ts.token(t, "admin@shop.test", models.RoleAdmin)
	ts.staff = ts.token(t, "staff@shop.test", models.RoleStaff)
	return ts
}

func (ts *testServer) token(t *testing.T, email string, role models.Role) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Tester", "email": email, "password": "secret1", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func (ts *testServer) createProduct(t *testing.T, name string, qty int) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/products", ts.admin, gin.H{
		"name": name, "category": "Grocery", "quantity": qty, "price": 25, "reorderLevel": 0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["product"].(map[string]interface{})["id"].(string)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/ready", "", nil).Code)

	w := ts.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "development", decode(t, w)["environment"])
}

func TestProtectRejectsMissingAndBadTokens(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized to access this route", decode(t, w)["message"])

	w = ts.do(t, http.MethodGet, "/api/products", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decode(t, w)["message"])
}

func TestAuthorizeRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/products", ts.staff, gin.H{"name": "X", "category": "Y", "quantity": 1, "price": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User role 'staff' is not authorized to access this route", decode(t, w)["message"])

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/analytics/dashboard", ts.staff, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/auth/me", ts.staff, nil).Code)
}

func TestSaleLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createProduct(t, "Rice", 5)

	w := ts.do(t, http.MethodPost, "/api/sales", ts.staff, gin.H{"productName": "Rice", "quantity": 5, "price": 100})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sale := decode(t, w)["sale"].(map[string]interface{})
	assert.Equal(t, float64(500), sale["totalAmount"])
	assert.Contains(t, sale["saleNumber"], "SALE-")

	w = ts.do(t, http.MethodGet, "/api/inventory/"+id, ts.staff, nil)
	product := decode(t, w)["product"].(map[string]interface{})
	assert.Equal(t, float64(0), product["quantity"])
	assert.Equal(t, "out_of_stock", product["status"])

	w = ts.do(t, http.MethodPost, "/api/billing", ts.staff, gin.H{"productName": "Rice", "quantity": 1, "price": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, float64(0), body["available"])

	w = ts.do(t, http.MethodDelete, "/api/sales/"+sale["id"].(string), ts.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sale deleted and stock restored successfully", decode(t, w)["message"])

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/sales/"+sale["id"].(string), ts.staff, nil).Code)
}

func TestCreateSaleValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/sales", ts.staff, gin.H{"productName": "Rice", "quantity": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode(t, w)["errors"].([]interface{})
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.(map[string]interface{})["field"].(string)] = true
	}
	assert.True(t, fields["quantity"])
	assert.True(t, fields["price"])
}

func TestCreateSaleIdempotencyHeaderWithoutRedis(t *testing.T) {
	ts := newTestServer(t)
	ts.createProduct(t, "Tea", 10)

	w := ts.do(t, http.MethodPost, "/api/sales", ts.staff, gin.H{"productName": "Tea", "quantity": 1, "price": 3}, "Idempotency-Key", "abc")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestStockUpdateAndLowStockCheck(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createProduct(t, "Salt", 10)

	w := ts.do(t, http.MethodPut, "/api/products/"+id+"/stock", ts.staff, gin.H{"quantityChange": -11})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, float64(10), decode(t, w)["available"])

	w = ts.do(t, http.MethodPut, "/api/products/"+id+"/stock", ts.staff, gin.H{"quantityChange": -8, "reason": "damaged"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Stock updated successfully", decode(t, w)["message"])

	w = ts.do(t, http.MethodGet, "/api/products/low-stock/check", ts.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = ts.do(t, http.MethodGet, "/api/products?lowStock=true", ts.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(1000), body["pagination"].(map[string]interface{})["limit"])
}

func TestDuplicateBarcodeRejected(t *testing.T) {
	ts := newTestServer(t)
	p := gin.H{"name": "A", "category": "C", "quantity": 1, "price": 2, "barcode": "999"}

	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/products", ts.admin, p).Code)
	p["name"] = "B"
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/products", ts.admin, p).Code)
}

func TestSupplierCRUD(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/suppliers", ts.admin, gin.H{"name": "Acme", "phone": "555-0100"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	supplier := decode(t, w)["supplier"].(map[string]interface{})
	assert.Equal(t, "Net 30", supplier["paymentTerms"])
	id := supplier["id"].(string)

	w = ts.do(t, http.MethodPost, "/api/suppliers", ts.admin, gin.H{"name": "acme", "phone": "1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, "/api/suppliers/"+id, ts.staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodDelete, "/api/suppliers/"+id, ts.staff, nil).Code)
	w = ts.do(t, http.MethodDelete, "/api/suppliers/"+id, ts.admin, nil)
	assert.Equal(t, "Supplier deleted successfully", decode(t, w)["message"])
}

func TestAnalyticsDashboardWithDates(t *testing.T) {
	ts := newTestServer(t)
	ts.createProduct(t, "Widget", 10)
	require.Equal(t, http.StatusCreated,
		ts.do(t, http.MethodPost, "/api/sales", ts.staff, gin.H{"productName": "Widget", "quantity": 2, "price": 50}).Code)

	today := time.Now().UTC().Format("2006-01-02")
	w := ts.do(t, http.MethodGet, "/api/analytics/dashboard?startDate="+today+"&endDate="+today, ts.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	analytics := decode(t, w)["analytics"].(map[string]interface{})
	sales := analytics["sales"].(map[string]interface{})
	assert.Equal(t, float64(100), sales["totalRevenue"])

	w = ts.do(t, http.MethodGet, "/api/analytics/sales?startDate=yesterday", ts.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "staff@shop.test", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["token"])

	w = ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "staff@shop.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["message"])

	w = ts.do(t, http.MethodGet, "/api/auth/users", ts.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])
}

func TestParseDate(t *testing.T) {
	end, err := parseDate("endDate", "2024-03-01", true)
	require.NoError(t, err)
	assert.Equal(t, 23, end.Hour())

	start, err := parseDate("startDate", "2024-03-01T10:00:00Z", false)
	require.NoError(t, err)
	assert.Equal(t, 10, start.Hour())

	none, err := parseDate("startDate", "", false)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestListingRejectsOverflowingPage(t *testing.T) {
	ts := newTestServer(t)
	ts.createProduct(t, "Rice", 5)

	w := ts.do(t, http.MethodGet, "/api/products?page=4611686018427387904&limit=4", ts.staff, nil)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "page", body["errors"].([]interface{})[0].(map[string]interface{})["field"])

	w = ts.do(t, http.MethodGet, "/api/sales?page=4611686018427387904&limit=4", ts.staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/products?limit=50000", ts.staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1000, decode(t, w)["pagination"].(map[string]interface{})["limit"])
}
