package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/evanshaw/shopd/internal/middleware"
	"github.com/evanshaw/shopd/internal/router"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Function-field mocks for the three services.

type mockUserService struct {
	getUserByTokenFn func(ctx context.Context, token string) (*domain.User, error)
	loginFn          func(ctx context.Context, username, password string) (string, error)
	createUserFn     func(ctx context.Context, username, password string, isStaff bool) (*domain.User, error)
}

func (m *mockUserService) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	if m.getUserByTokenFn == nil {
		return nil, domain.ErrUserNotFound
	}
	return m.getUserByTokenFn(ctx, token)
}

func (m *mockUserService) Login(ctx context.Context, username, password string) (string, error) {
	return m.loginFn(ctx, username, password)
}

func (m *mockUserService) CreateUser(ctx context.Context, username, password string, isStaff bool) (*domain.User, error) {
	return m.createUserFn(ctx, username, password, isStaff)
}

type mockCartService struct {
	getOrCreateCartFn    func(ctx context.Context, userID int64) (*domain.Cart, error)
	addItemFn            func(ctx context.Context, cartID, productID int64, quantity int32) (*domain.CartItem, error)
	updateItemQuantityFn func(ctx context.Context, cartID, itemID int64, quantity int32) (*domain.CartItem, error)
	removeItemFn         func(ctx context.Context, cartID, itemID int64) error
	clearCartFn          func(ctx context.Context, cartID int64) error
	getSummaryFn         func(ctx context.Context, cart domain.Cart) (*domain.CartSummary, error)
}

func (m *mockCartService) GetOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	return m.getOrCreateCartFn(ctx, userID)
}

func (m *mockCartService) AddItem(ctx context.Context, cartID, productID int64, quantity int32) (*domain.CartItem, error) {
	return m.addItemFn(ctx, cartID, productID, quantity)
}

func (m *mockCartService) UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int32) (*domain.CartItem, error) {
	return m.updateItemQuantityFn(ctx, cartID, itemID, quantity)
}

func (m *mockCartService) RemoveItem(ctx context.Context, cartID, itemID int64) error {
	return m.removeItemFn(ctx, cartID, itemID)
}

func (m *mockCartService) ClearCart(ctx context.Context, cartID int64) error {
	return m.clearCartFn(ctx, cartID)
}

func (m *mockCartService) GetSummary(ctx context.Context, cart domain.Cart) (*domain.CartSummary, error) {
	return m.getSummaryFn(ctx, cart)
}

type mockCatalogService struct {
	listCategoriesFn func(ctx context.Context) ([]domain.Category, error)
	listProductsFn   func(ctx context.Context) ([]domain.Product, error)
	getProductFn     func(ctx context.Context, id int64) (*domain.Product, error)
	createProductFn  func(ctx context.Context, params domain.CreateProductParams) (*domain.Product, error)
	updateImageFn    func(ctx context.Context, id int64, imageName string, image io.Reader) (*domain.Product, error)
	deleteProductFn  func(ctx context.Context, id int64) error
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return m.listCategoriesFn(ctx)
}

func (m *mockCatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return m.listProductsFn(ctx)
}

func (m *mockCatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return m.getProductFn(ctx, id)
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	return m.createProductFn(ctx, params)
}

func (m *mockCatalogService) UpdateProductImage(ctx context.Context, id int64, imageName string, image io.Reader) (*domain.Product, error) {
	return m.updateImageFn(ctx, id, imageName, image)
}

func (m *mockCatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return m.deleteProductFn(ctx, id)
}

// stubStorage satisfies storage.Storage with URL-only behavior; the API
// handlers only ever call URL.
type stubStorage struct{}

func (stubStorage) Put(ctx context.Context, key string, content io.Reader) (string, error) {
	return "/media/" + key, nil
}

func (stubStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (stubStorage) Delete(ctx context.Context, key string) error { return nil }

func (stubStorage) URL(key string) string {
	if key == "" {
		return ""
	}
	return "/media/" + key
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter wires the API the way the server binary does, minus
// metrics (Prometheus collectors register globally).
func newTestRouter(users domain.UserService, catalog domain.CatalogService, carts domain.CartService) *router.Router {
	logger := testLogger()

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		router.Logger(logger),
		middleware.WithUser(users),
		middleware.WithRequestLogger(logger),
	)

	RegisterAPI(r, Deps{
		Logger:  logger,
		Users:   users,
		Catalog: catalog,
		Carts:   carts,
		Files:   stubStorage{},
	})

	return r
}

func authedUserService(user *domain.User) *mockUserService {
	return &mockUserService{
		getUserByTokenFn: func(ctx context.Context, token string) (*domain.User, error) {
			if token == "valid-token" {
				return user, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func sampleSummary(cart domain.Cart) *domain.CartSummary {
	product := domain.Product{
		ID:              1,
		Name:            "Coffee Mug",
		Slug:            "coffee-mug",
		CategoryName:    "Kitchen",
		SubCategoryName: "Drinkware",
		Price:           decimal.RequireFromString("12.50"),
		ImagePath:       "products/original/mug.jpg",
		ImageSmallPath:  "products/small/mug_small.jpg",
		ImageMediumPath: "products/medium/mug_medium.jpg",
		ImageLargePath:  "products/large/mug_large.jpg",
	}

	return &domain.CartSummary{
		Cart:          cart,
		Items:         []domain.CartItem{{ID: 10, CartID: cart.ID, Quantity: 2, Product: product}},
		TotalQuantity: 2,
		TotalPrice:    decimal.RequireFromString("25.00"),
	}
}

func TestCartRoutes_RequireAuthentication(t *testing.T) {
	r := newTestRouter(authedUserService(nil), &mockCatalogService{}, &mockCartService{})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/cart/"},
		{http.MethodPost, "/api/cart/"},
		{http.MethodDelete, "/api/cart/"},
		{http.MethodPut, "/api/cart/10/"},
		{http.MethodDelete, "/api/cart/10/"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := doJSON(t, r, tc.method, tc.path, "", nil)
			require.Equal(t, http.StatusUnauthorized, w.Code)

			body := decodeBody(t, w)
			assert.Equal(t, "Authentication credentials were not provided.", body["detail"])
		})
	}
}

func TestCartRoutes_Get(t *testing.T) {
	user := &domain.User{ID: 42, Username: "alice"}
	cart := domain.Cart{ID: 5, UserID: 42}

	carts := &mockCartService{
		getOrCreateCartFn: func(ctx context.Context, userID int64) (*domain.Cart, error) {
			assert.Equal(t, int64(42), userID)
			return &cart, nil
		},
		getSummaryFn: func(ctx context.Context, c domain.Cart) (*domain.CartSummary, error) {
			return sampleSummary(c), nil
		},
	}

	r := newTestRouter(authedUserService(user), &mockCatalogService{}, carts)

	w := doJSON(t, r, http.MethodGet, "/api/cart/", "valid-token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(5), body["id"])
	assert.Equal(t, float64(42), body["user"])
	assert.Equal(t, float64(2), body["total_quantity"])
	assert.Equal(t, "25.00", body["total_price"])

	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)

	item := items[0].(map[string]any)
	product := item["product"].(map[string]any)
	assert.Equal(t, "12.50", product["price"])

	images := product["images"].(map[string]any)
	assert.Equal(t, "http://example.com/media/products/small/mug_small.jpg", images["small"])
}

func TestCartRoutes_AddItem(t *testing.T) {
	user := &domain.User{ID: 42, Username: "alice"}
	cart := domain.Cart{ID: 5, UserID: 42}

	t.Run("adds and returns the cart with 201", func(t *testing.T) {
		var gotProduct int64
		var gotQuantity int32

		carts := &mockCartService{
			getOrCreateCartFn: func(ctx context.Context, userID int64) (*domain.Cart, error) {
				return &cart, nil
			},
			addItemFn: func(ctx context.Context, cartID, productID int64, quantity int32) (*domain.CartItem, error) {
				gotProduct = productID
				gotQuantity = quantity
				return &domain.CartItem{ID: 10, CartID: cartID, Quantity: quantity}, nil
			},
			getSummaryFn: func(ctx context.Context, c domain.Cart) (*domain.CartSummary, error) {
				return sampleSummary(c), nil
			},
		}

		r := newTestRouter(authedUserService(user), &mockCatalogService{}, carts)

		w := doJSON(t, r, http.MethodPost, "/api/cart/", "valid-token", map[string]any{
			"product":  1,
			"quantity": 2,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, int64(1), gotProduct)
		assert.Equal(t, int32(2), gotQuantity)
	})

	t.Run("rejects quantity below one with a field error", func(t *testing.T) {
		r := newTestRouter(authedUserService(user), &mockCatalogService{}, &mockCartService{})

		w := doJSON(t, r, http.MethodPost, "/api/cart/", "valid-token", map[string]any{
			"product":  1,
			"quantity": 0,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "Ensure this value is greater than or equal to 1.", body["quantity"])
	})

	t.Run("rejects a missing product with a field error", func(t *testing.T) {
		r := newTestRouter(authedUserService(user), &mockCatalogService{}, &mockCartService{})

		w := doJSON(t, r, http.MethodPost, "/api/cart/", "valid-token", map[string]any{
			"quantity": 2,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "This field is required.", body["product"])
	})
}

func TestCartRoutes_UpdateItem(t *testing.T) {
	user := &domain.User{ID: 42, Username: "alice"}
	cart := domain.Cart{ID: 5, UserID: 42}

	t.Run("replaces the quantity", func(t *testing.T) {
		var gotItem int64
		var gotQuantity int32

		carts := &mockCartService{
			getOrCreateCartFn: func(ctx context.Context, userID int64) (*domain.Cart, error) {
				return &cart, nil
			},
			updateItemQuantityFn: func(ctx context.Context, cartID, itemID int64, quantity int32) (*domain.CartItem, error) {
				gotItem = itemID
				gotQuantity = quantity
				return &domain.CartItem{ID: itemID, CartID: cartID, Quantity: quantity}, nil
			},
			getSummaryFn: func(ctx context.Context, c domain.Cart) (*domain.CartSummary, error) {
				return sampleSummary(c), nil
			},
		}

		r := newTestRouter(authedUserService(user), &mockCatalogService{}, carts)

		w := doJSON(t, r, http.MethodPut, "/api/cart/10/", "valid-token", map[string]any{"quantity": 7})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(10), gotItem)
		assert.Equal(t, int32(7), gotQuantity)
	})

	t.Run("reports 404 for an item outside the caller's cart", func(t *testing.T) {
		carts := &mockCartService{
			getOrCreateCartFn: func(ctx context.Context, userID int64) (*domain.Cart, error) {
				return &cart, nil
			},
			updateItemQuantityFn: func(ctx context.Context, cartID, itemID int64, quantity int32) (*domain.CartItem, error) {
				return nil, domain.ErrCartItemNotFound
			},
		}

		r := newTestRouter(authedUserService(user), &mockCatalogService{}, carts)

		w := doJSON(t, r, http.MethodPut, "/api/cart/999/", "valid-token", map[string]any{"quantity": 7})
		require.Equal(t, http.StatusNotFound, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "Cart item not found", body["detail"])
	})
}

func TestCartRoutes_RemoveAndClear(t *testing.T) {
	user := &domain.User{ID: 42, Username: "alice"}
	cart := domain.Cart{ID: 5, UserID: 42}

	t.Run("remove item responds 204", func(t *testing.T) {
		carts := &mockCartService{
			getOrCreateCartFn: func(ctx context.Context, userID int64) (*domain.Cart, error) {
				return &cart, nil
			},
			removeItemFn: func(ctx context.Context, cartID, itemID int64) error {
				assert.Equal(t, int64(10), itemID)
				return nil
			},
		}

		r := newTestRouter(authedUserService(user), &mockCatalogService{}, carts)

		w := doJSON(t, r, http.MethodDelete, "/api/cart/10/", "valid-token", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("clear cart responds 204", func(t *testing.T) {
		cleared := false
		carts := &mockCartService{
			getOrCreateCartFn: func(ctx context.Context, userID int64) (*domain.Cart, error) {
				return &cart, nil
			},
			clearCartFn: func(ctx context.Context, cartID int64) error {
				cleared = true
				return nil
			},
		}

		r := newTestRouter(authedUserService(user), &mockCatalogService{}, carts)

		w := doJSON(t, r, http.MethodDelete, "/api/cart/", "valid-token", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, cleared)
	})
}

func TestCatalogRoutes_PublicReads(t *testing.T) {
	catalog := &mockCatalogService{
		listCategoriesFn: func(ctx context.Context) ([]domain.Category, error) {
			return []domain.Category{
				{
					ID:        1,
					Name:      "Kitchen",
					Slug:      "kitchen",
					ImagePath: "categories/kitchen.jpg",
					SubCategories: []domain.SubCategory{
						{ID: 2, CategoryID: 1, Name: "Drinkware", Slug: "drinkware"},
					},
				},
			}, nil
		},
		listProductsFn: func(ctx context.Context) ([]domain.Product, error) {
			return []domain.Product{
				{ID: 1, Name: "Coffee Mug", Slug: "coffee-mug", Price: decimal.RequireFromString("12.50")},
			}, nil
		},
	}

	r := newTestRouter(authedUserService(nil), catalog, &mockCartService{})

	t.Run("categories list is public", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/categories/", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "Kitchen", body[0]["name"])
		assert.Equal(t, "http://example.com/media/categories/kitchen.jpg", body[0]["image"])

		subs := body[0]["subcategories"].([]any)
		require.Len(t, subs, 1)
		assert.Equal(t, "Drinkware", subs[0].(map[string]any)["name"])
	})

	t.Run("products list is public", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/products/", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "12.50", body[0]["price"])
	})
}

func TestProductWrites_RequireStaff(t *testing.T) {
	customer := &domain.User{ID: 42, Username: "alice"}

	r := newTestRouter(authedUserService(customer), &mockCatalogService{}, &mockCartService{})

	t.Run("anonymous create is 401", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/products/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-staff create is 403", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/products/", "valid-token", nil)
		require.Equal(t, http.StatusForbidden, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "You do not have permission to perform this action.", body["detail"])
	})

	t.Run("non-staff delete is 403", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/api/products/1/", "valid-token", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestProductDelete_Staff(t *testing.T) {
	staff := &domain.User{ID: 1, Username: "admin", IsStaff: true}

	t.Run("deletes and responds 204", func(t *testing.T) {
		var deleted int64
		catalog := &mockCatalogService{
			deleteProductFn: func(ctx context.Context, id int64) error {
				deleted = id
				return nil
			},
		}

		r := newTestRouter(authedUserService(staff), catalog, &mockCartService{})

		w := doJSON(t, r, http.MethodDelete, "/api/products/7/", "valid-token", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, int64(7), deleted)
	})

	t.Run("unknown product is 404", func(t *testing.T) {
		catalog := &mockCatalogService{
			deleteProductFn: func(ctx context.Context, id int64) error {
				return domain.ErrProductNotFound
			},
		}

		r := newTestRouter(authedUserService(staff), catalog, &mockCartService{})

		w := doJSON(t, r, http.MethodDelete, "/api/products/999/", "valid-token", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAuthRoutes_TokenLogin(t *testing.T) {
	t.Run("returns the token", func(t *testing.T) {
		users := &mockUserService{
			loginFn: func(ctx context.Context, username, password string) (string, error) {
				assert.Equal(t, "alice", username)
				assert.Equal(t, "secret password", password)
				return "issued-token", nil
			},
		}

		r := newTestRouter(users, &mockCatalogService{}, &mockCartService{})

		w := doJSON(t, r, http.MethodPost, "/api/auth/token/login/", "", map[string]any{
			"username": "alice",
			"password": "secret password",
		})
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "issued-token", body["auth_token"])
	})

	t.Run("bad credentials are 401", func(t *testing.T) {
		users := &mockUserService{
			loginFn: func(ctx context.Context, username, password string) (string, error) {
				return "", domain.ErrInvalidCredentials
			},
		}

		r := newTestRouter(users, &mockCatalogService{}, &mockCartService{})

		w := doJSON(t, r, http.MethodPost, "/api/auth/token/login/", "", map[string]any{
			"username": "alice",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "Invalid username or password", body["detail"])
	})

	t.Run("missing fields are 400 with field errors", func(t *testing.T) {
		r := newTestRouter(&mockUserService{}, &mockCatalogService{}, &mockCartService{})

		w := doJSON(t, r, http.MethodPost, "/api/auth/token/login/", "", map[string]any{})
		require.Equal(t, http.StatusBadRequest, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "This field is required.", body["username"])
		assert.Equal(t, "This field is required.", body["password"])
	})
}
