package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"readify/middleware"
	"readify/models"
	"readify/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	customerID = uuid.New()
	adminID    = uuid.New()
)

// asRole attaches a principal the way RequireAuth would.
func asRole(id uuid.UUID, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, &services.Principal{AccountID: id, Email: "t@readify.test", Role: role})
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// --- mocks ---

type mockCartService struct {
	services.CartService
	getFn      func(ctx context.Context, accountID uuid.UUID) (*models.CartView, error)
	addFn      func(ctx context.Context, accountID uuid.UUID, req *models.AddCartItemRequest) (*models.CartView, error)
	removeFn   func(ctx context.Context, accountID, bookID uuid.UUID, version *int64) (*models.CartView, error)
	checkoutFn func(ctx context.Context, accountID uuid.UUID, key string, req *models.CheckoutRequest) (*models.Order, bool, error)
}

func (m *mockCartService) Get(ctx context.Context, accountID uuid.UUID) (*models.CartView, error) {
	return m.getFn(ctx, accountID)
}

func (m *mockCartService) AddItem(ctx context.Context, accountID uuid.UUID, req *models.AddCartItemRequest) (*models.CartView, error) {
	return m.addFn(ctx, accountID, req)
}

func (m *mockCartService) RemoveItem(ctx context.Context, accountID, bookID uuid.UUID, version *int64) (*models.CartView, error) {
	return m.removeFn(ctx, accountID, bookID, version)
}

func (m *mockCartService) Checkout(ctx context.Context, accountID uuid.UUID, key string, req *models.CheckoutRequest) (*models.Order, bool, error) {
	return m.checkoutFn(ctx, accountID, key, req)
}

type mockBookService struct {
	services.BookService
	listFn func(ctx context.Context, filter models.BookFilter) ([]models.Book, int64, error)
	getFn  func(ctx context.Context, slug string) (*models.BookDetail, error)
}

func (m *mockBookService) ListPublic(ctx context.Context, filter models.BookFilter) ([]models.Book, int64, error) {
	return m.listFn(ctx, filter)
}

func (m *mockBookService) GetBySlug(ctx context.Context, slug string) (*models.BookDetail, error) {
	return m.getFn(ctx, slug)
}

type mockAuthService struct {
	services.AuthService
	loginFn   func(ctx context.Context, req *models.LoginRequest) (*models.Account, *services.TokenPair, error)
	refreshFn func(ctx context.Context, token string) (*models.Account, *services.TokenPair, error)
	logoutFn  func(ctx context.Context, accountID uuid.UUID) error
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.Account, *services.TokenPair, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuthService) Refresh(ctx context.Context, token string) (*models.Account, *services.TokenPair, error) {
	return m.refreshFn(ctx, token)
}

func (m *mockAuthService) Logout(ctx context.Context, accountID uuid.UUID) error {
	return m.logoutFn(ctx, accountID)
}

type mockStockService struct {
	services.StockService
	adjustFn func(ctx context.Context, actorID, bookID uuid.UUID, req *models.AdjustStockRequest) (*models.Stock, error)
}

func (m *mockStockService) Adjust(ctx context.Context, actorID, bookID uuid.UUID, req *models.AdjustStockRequest) (*models.Stock, error) {
	return m.adjustFn(ctx, actorID, bookID, req)
}

type mockReceiptService struct {
	services.ReceiptService
	receiveFn func(ctx context.Context, staffID uuid.UUID, req *models.CreateReceiptRequest) (*models.StockReceipt, error)
}

func (m *mockReceiptService) Receive(ctx context.Context, staffID uuid.UUID, req *models.CreateReceiptRequest) (*models.StockReceipt, error) {
	return m.receiveFn(ctx, staffID, req)
}

type mockAccountService struct {
	services.AccountService
	listFn func(ctx context.Context, filter models.AccountFilter, page, limit int) ([]models.Account, int64, error)
}

func (m *mockAccountService) List(ctx context.Context, filter models.AccountFilter, page, limit int) ([]models.Account, int64, error) {
	return m.listFn(ctx, filter, page, limit)
}
