package controllers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "readify/common/errors"
	"readify/controllers"
	"readify/models"
	"readify/services"
)

func setupCartRouter(svc services.CartService) *gin.Engine {
	r := gin.New()
	cc := controllers.NewCartController(svc)
	r.Use(asRole(customerID, models.RoleCustomer))
	r.GET("/cart", cc.GetCart)
	r.POST("/cart/items", cc.AddItem)
	r.DELETE("/cart/items/:bookId", cc.RemoveItem)
	r.POST("/cart/checkout", cc.Checkout)
	return r
}

func TestCartController_GetCart_SetsETag(t *testing.T) {
	svc := &mockCartService{
		getFn: func(_ context.Context, accountID uuid.UUID) (*models.CartView, error) {
			assert.Equal(t, customerID, accountID)
			return &models.CartView{Items: []models.CartLine{}, Version: 7}, nil
		},
	}

	w := doJSON(t, setupCartRouter(svc), http.MethodGet, "/cart", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"7"`, w.Header().Get("ETag"))
	cart := decode(t, w)["cart"].(map[string]any)
	assert.EqualValues(t, 7, cart["version"])
}

func TestCartController_AddItem_FieldErrors(t *testing.T) {
	r := setupCartRouter(&mockCartService{})

	w := doJSON(t, r, http.MethodPost, "/cart/items", map[string]any{"quantity": 120})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Invalid request", resp["error"])
	fields := resp["fields"].(map[string]any)
	assert.Equal(t, "is required", fields["book_id"])
	assert.Equal(t, "must be at most 99", fields["quantity"])
}

func TestCartController_AddItem_IfMatchWinsOverBody(t *testing.T) {
	bookID := uuid.New()
	var got *int64
	svc := &mockCartService{
		addFn: func(_ context.Context, _ uuid.UUID, req *models.AddCartItemRequest) (*models.CartView, error) {
			got = req.Version
			return &models.CartView{Version: 4}, nil
		},
	}

	w := doJSON(t, setupCartRouter(svc), http.MethodPost, "/cart/items",
		map[string]any{"book_id": bookID, "quantity": 2, "version": 1},
		"If-Match", `"3"`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.EqualValues(t, 3, *got)
}

func TestCartController_AddItem_InvalidIfMatch(t *testing.T) {
	w := doJSON(t, setupCartRouter(&mockCartService{}), http.MethodPost, "/cart/items",
		map[string]any{"book_id": uuid.New(), "quantity": 1}, "If-Match", "abc")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_VersionConflictReturnsCurrentCart(t *testing.T) {
	current := &models.CartView{Items: []models.CartLine{}, Version: 9, Subtotal: 25}
	svc := &mockCartService{
		removeFn: func(_ context.Context, _, _ uuid.UUID, version *int64) (*models.CartView, error) {
			require.NotNil(t, version)
			assert.EqualValues(t, 2, *version)
			return nil, &services.CartConflictError{Cart: current}
		},
	}

	w := doJSON(t, setupCartRouter(svc), http.MethodDelete, "/cart/items/"+uuid.NewString(), nil, "If-Match", "2")

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decode(t, w)
	assert.Equal(t, apperrors.ErrVersionMismatch.Message, resp["error"])
	cart := resp["cart"].(map[string]any)
	assert.EqualValues(t, 9, cart["version"])
}

func TestCartController_RemoveItem_InvalidBookID(t *testing.T) {
	w := doJSON(t, setupCartRouter(&mockCartService{}), http.MethodDelete, "/cart/items/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_ItemBusy(t *testing.T) {
	svc := &mockCartService{
		addFn: func(context.Context, uuid.UUID, *models.AddCartItemRequest) (*models.CartView, error) {
			return nil, apperrors.ErrItemBusy
		},
	}

	w := doJSON(t, setupCartRouter(svc), http.MethodPost, "/cart/items", map[string]any{"book_id": uuid.New(), "quantity": 1})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Another action on this item is in progress", decode(t, w)["error"])
}

func TestCartController_Checkout(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: models.OrderPending, Total: 42}

	t.Run("created", func(t *testing.T) {
		svc := &mockCartService{
			checkoutFn: func(_ context.Context, _ uuid.UUID, key string, req *models.CheckoutRequest) (*models.Order, bool, error) {
				assert.Equal(t, "key-1", key)
				assert.Equal(t, "SPRING10", req.PromotionCode)
				return order, false, nil
			},
		}
		w := doJSON(t, setupCartRouter(svc), http.MethodPost, "/cart/checkout",
			map[string]any{"promotion_code": "SPRING10"}, "Idempotency-Key", "key-1")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
	})

	t.Run("replayed without body", func(t *testing.T) {
		svc := &mockCartService{
			checkoutFn: func(_ context.Context, _ uuid.UUID, _ string, req *models.CheckoutRequest) (*models.Order, bool, error) {
				assert.Empty(t, req.PromotionCode)
				return order, true, nil
			},
		}
		w := doJSON(t, setupCartRouter(svc), http.MethodPost, "/cart/checkout", nil, "Idempotency-Key", "key-1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
		got := decode(t, w)["order"].(map[string]any)
		assert.Equal(t, order.ID.String(), got["id"])
	})

	t.Run("insufficient stock names the book", func(t *testing.T) {
		bookID := uuid.New()
		svc := &mockCartService{
			checkoutFn: func(context.Context, uuid.UUID, string, *models.CheckoutRequest) (*models.Order, bool, error) {
				err := apperrors.Wrap(apperrors.ErrInsufficientStock, nil)
				err.Fields = map[string]string{"book_id": bookID.String()}
				return nil, false, err
			},
		}
		w := doJSON(t, setupCartRouter(svc), http.MethodPost, "/cart/checkout", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "Insufficient stock", resp["error"])
		assert.Equal(t, bookID.String(), resp["fields"].(map[string]any)["book_id"])
	})
}
