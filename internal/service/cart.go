package service

import (
	"context"
	"errors"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/shopspring/decimal"
)

// CartStore is the persistence surface the cart service needs. The
// postgres implementation guarantees that GetOrCreateCart and UpsertItem
// are atomic, so concurrent requests can never duplicate a cart or a
// line item, nor lose an increment.
type CartStore interface {
	GetOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error)
	UpsertItem(ctx context.Context, cartID, productID int64, quantity int32) (*domain.CartItem, error)
	SetItemQuantity(ctx context.Context, cartID, itemID int64, quantity int32) error
	GetItem(ctx context.Context, cartID, itemID int64) (*domain.CartItem, error)
	DeleteItem(ctx context.Context, cartID, itemID int64) error
	ClearItems(ctx context.Context, cartID int64) error
	ListItems(ctx context.Context, cartID int64) ([]domain.CartItem, error)
}

type cartService struct {
	store CartStore
}

// Compile-time check that cartService implements domain.CartService.
var _ domain.CartService = (*cartService)(nil)

// NewCartService creates the cart mutation service.
func NewCartService(store CartStore) domain.CartService {
	return &cartService{store: store}
}

// GetOrCreateCart returns the user's cart, creating an empty one if absent.
func (s *cartService) GetOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	return s.store.GetOrCreateCart(ctx, userID)
}

// AddItem merges quantity into the (cart, product) line item, creating it
// on first add.
func (s *cartService) AddItem(ctx context.Context, cartID int64, productID int64, quantity int32) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.NewValidationError("cart.add_item", "quantity", "Ensure this value is greater than or equal to 1.")
	}

	item, err := s.store.UpsertItem(ctx, cartID, productID, quantity)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.NewValidationError("cart.add_item", "product", "Invalid product.")
		}
		return nil, err
	}

	return item, nil
}

// UpdateItemQuantity sets the absolute quantity of a line item.
func (s *cartService) UpdateItemQuantity(ctx context.Context, cartID int64, itemID int64, quantity int32) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.NewValidationError("cart.update_item", "quantity", "Ensure this value is greater than or equal to 1.")
	}

	if err := s.store.SetItemQuantity(ctx, cartID, itemID, quantity); err != nil {
		return nil, err
	}

	return s.store.GetItem(ctx, cartID, itemID)
}

// RemoveItem deletes a line item. A repeat delete reports not found.
func (s *cartService) RemoveItem(ctx context.Context, cartID int64, itemID int64) error {
	return s.store.DeleteItem(ctx, cartID, itemID)
}

// ClearCart deletes all line items.
func (s *cartService) ClearCart(ctx context.Context, cartID int64) error {
	return s.store.ClearItems(ctx, cartID)
}

// GetSummary loads the cart's items and recomputes both totals from them.
// The price side uses exact decimal arithmetic against each product's
// current price; nothing here is read from a stored aggregate.
func (s *cartService) GetSummary(ctx context.Context, cart domain.Cart) (*domain.CartSummary, error) {
	items, err := s.store.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	var totalQuantity int32
	totalPrice := decimal.Zero
	for _, item := range items {
		totalQuantity += item.Quantity
		totalPrice = totalPrice.Add(item.Product.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}

	return &domain.CartSummary{
		Cart:          cart,
		Items:         items,
		TotalQuantity: totalQuantity,
		TotalPrice:    totalPrice,
	}, nil
}
