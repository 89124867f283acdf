package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
)

// Cart is the per-user cart row. Exactly one exists per user; it is
// created lazily on first access and never deleted by the user.
type Cart struct {
	ID     int64
	UserID int64
}

// CartItem is a (product, quantity) line within a cart. The product is
// joined in so responses can render it without extra reads; Price is the
// product's current price, never a snapshot.
type CartItem struct {
	ID       int64
	CartID   int64
	Quantity int32
	Product  Product
}

// CartSummary is a cart with its items and totals. Totals are always
// recomputed from the line items; they are never stored.
type CartSummary struct {
	Cart          Cart
	Items         []CartItem
	TotalQuantity int32
	TotalPrice    decimal.Decimal
}

// CartService provides business logic for shopping cart operations.
type CartService interface {
	// GetOrCreateCart returns the user's cart, creating an empty one if
	// absent. Idempotent; safe under concurrent first access.
	GetOrCreateCart(ctx context.Context, userID int64) (*Cart, error)

	// AddItem adds a product to the cart. If a line item for the product
	// already exists its quantity is incremented by quantity, otherwise a
	// new line item is created. Returns the resulting line item.
	AddItem(ctx context.Context, cartID int64, productID int64, quantity int32) (*CartItem, error)

	// UpdateItemQuantity replaces the quantity of a line item (absolute
	// set, not increment). ErrCartItemNotFound if the item is not in the
	// given cart.
	UpdateItemQuantity(ctx context.Context, cartID int64, itemID int64, quantity int32) (*CartItem, error)

	// RemoveItem deletes a line item. ErrCartItemNotFound if absent.
	RemoveItem(ctx context.Context, cartID int64, itemID int64) error

	// ClearCart deletes all line items. No-op if the cart is empty.
	ClearCart(ctx context.Context, cartID int64) error

	// GetSummary retrieves the cart's items and recomputes the totals.
	GetSummary(ctx context.Context, cart Cart) (*CartSummary, error)
}
