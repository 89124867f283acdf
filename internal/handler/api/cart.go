package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/evanshaw/shopd/internal/handler"
	"github.com/evanshaw/shopd/internal/middleware"
	"github.com/evanshaw/shopd/internal/storage"
	"github.com/go-playground/validator/v10"
)

// CartHandler serves the per-user cart endpoints. Every endpoint
// operates on the calling user's own cart; a cart is created lazily on
// first access.
type CartHandler struct {
	carts    domain.CartService
	files    storage.Storage
	validate *validator.Validate
	logger   *slog.Logger
}

func NewCartHandler(carts domain.CartService, files storage.Storage, validate *validator.Validate, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		files:    files,
		validate: validate,
		logger:   logger,
	}
}

type addItemRequest struct {
	Product  int64 `json:"product" validate:"required"`
	Quantity int32 `json:"quantity" validate:"min=1"`
}

type updateItemRequest struct {
	Quantity int32 `json:"quantity" validate:"min=1"`
}

// Get handles GET /api/cart/ and returns the caller's cart with live
// totals.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	cart, err := h.carts.GetOrCreateCart(r.Context(), user.ID)
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	h.respondWithCart(w, r, http.StatusOK, *cart)
}

// AddItem handles POST /api/cart/. Adding a product that is already in
// the cart increments its quantity.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.RespondError(w, r, domain.Invalid("cart.add_item", "Invalid request body."))
		return
	}

	if err := handler.ValidateStruct(h.validate, "cart.add_item", req); err != nil {
		handler.RespondError(w, r, err)
		return
	}

	cart, err := h.carts.GetOrCreateCart(r.Context(), user.ID)
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	if _, err := h.carts.AddItem(r.Context(), cart.ID, req.Product, req.Quantity); err != nil {
		handler.RespondError(w, r, err)
		return
	}

	h.respondWithCart(w, r, http.StatusCreated, *cart)
}

// UpdateItem handles PUT /api/cart/{id}/ and replaces the quantity of a
// single cart item.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handler.RespondError(w, r, domain.NotFound("cart.update_item", "cart item", r.PathValue("id")))
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.RespondError(w, r, domain.Invalid("cart.update_item", "Invalid request body."))
		return
	}

	if err := handler.ValidateStruct(h.validate, "cart.update_item", req); err != nil {
		handler.RespondError(w, r, err)
		return
	}

	cart, err := h.carts.GetOrCreateCart(r.Context(), user.ID)
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	if _, err := h.carts.UpdateItemQuantity(r.Context(), cart.ID, itemID, req.Quantity); err != nil {
		handler.RespondError(w, r, err)
		return
	}

	h.respondWithCart(w, r, http.StatusOK, *cart)
}

// RemoveItem handles DELETE /api/cart/{id}/.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handler.RespondError(w, r, domain.NotFound("cart.remove_item", "cart item", r.PathValue("id")))
		return
	}

	cart, err := h.carts.GetOrCreateCart(r.Context(), user.ID)
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	if err := h.carts.RemoveItem(r.Context(), cart.ID, itemID); err != nil {
		handler.RespondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/cart/ and removes every item from the
// caller's cart. The cart row itself survives.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	cart, err := h.carts.GetOrCreateCart(r.Context(), user.ID)
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	if err := h.carts.ClearCart(r.Context(), cart.ID); err != nil {
		handler.RespondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, status int, cart domain.Cart) {
	summary, err := h.carts.GetSummary(r.Context(), cart)
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	handler.RespondJSON(w, status, newCartPayload(r, h.files, summary))
}
