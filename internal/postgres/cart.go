package postgres

import (
	"context"
	"errors"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartStore persists carts and line items.
//
// All write paths that could race are expressed as single atomic
// statements: cart creation upserts on the unique user_id, and item
// addition upserts on the unique (cart_id, product_id) pair with the
// increment folded into the conflict action. There is no
// read-check-write window for concurrent requests to slip through.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore creates a PostgreSQL-backed cart store.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// GetOrCreateCart returns the user's cart, creating it if absent.
// The no-op DO UPDATE makes the statement return the existing row on
// conflict, so concurrent first accesses all resolve to the same cart.
func (s *CartStore) GetOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	const q = `
		INSERT INTO carts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id`

	var cart domain.Cart
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&cart.ID, &cart.UserID); err != nil {
		return nil, domain.Internal(err, "cart.get_or_create", "failed to get or create cart")
	}

	return &cart, nil
}

// UpsertItem adds quantity for a product, creating the line item when it
// does not exist yet and incrementing it when it does.
func (s *CartStore) UpsertItem(ctx context.Context, cartID, productID int64, quantity int32) (*domain.CartItem, error) {
	const q = `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id`

	var itemID int64
	if err := s.pool.QueryRow(ctx, q, cartID, productID, quantity).Scan(&itemID); err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "cart.upsert_item", "failed to upsert cart item")
	}

	return s.GetItem(ctx, cartID, itemID)
}

// SetItemQuantity replaces the quantity of a line item scoped to a cart.
func (s *CartStore) SetItemQuantity(ctx context.Context, cartID, itemID int64, quantity int32) error {
	const q = `UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND id = $2`

	tag, err := s.pool.Exec(ctx, q, cartID, itemID, quantity)
	if err != nil {
		return domain.Internal(err, "cart.set_item_quantity", "failed to update cart item")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}

	return nil
}

// DeleteItem removes a line item scoped to a cart.
func (s *CartStore) DeleteItem(ctx context.Context, cartID, itemID int64) error {
	const q = `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`

	tag, err := s.pool.Exec(ctx, q, cartID, itemID)
	if err != nil {
		return domain.Internal(err, "cart.delete_item", "failed to delete cart item")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}

	return nil
}

// ClearItems deletes every line item in the cart.
func (s *CartStore) ClearItems(ctx context.Context, cartID int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return domain.Internal(err, "cart.clear", "failed to clear cart")
	}
	return nil
}

const cartItemColumns = `
	ci.id, ci.cart_id, ci.quantity,
	p.id, p.subcategory_id, sc.name, c.name,
	p.name, p.slug, p.price::text,
	p.image_path,
	COALESCE(p.image_small_path, ''),
	COALESCE(p.image_medium_path, ''),
	COALESCE(p.image_large_path, '')`

const cartItemJoins = `
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	JOIN subcategories sc ON sc.id = p.subcategory_id
	JOIN categories c ON c.id = sc.category_id`

// GetItem fetches a single line item with its product joined in.
func (s *CartStore) GetItem(ctx context.Context, cartID, itemID int64) (*domain.CartItem, error) {
	q := `SELECT` + cartItemColumns + cartItemJoins + ` WHERE ci.cart_id = $1 AND ci.id = $2`

	item, err := scanCartItem(s.pool.QueryRow(ctx, q, cartID, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCartItemNotFound
		}
		return nil, domain.Internal(err, "cart.get_item", "failed to get cart item")
	}

	return item, nil
}

// ListItems returns all line items in the cart with products joined in,
// oldest first.
func (s *CartStore) ListItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	q := `SELECT` + cartItemColumns + cartItemJoins + ` WHERE ci.cart_id = $1 ORDER BY ci.id`

	rows, err := s.pool.Query(ctx, q, cartID)
	if err != nil {
		return nil, domain.Internal(err, "cart.list_items", "failed to list cart items")
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, domain.Internal(err, "cart.list_items", "failed to scan cart item")
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "cart.list_items", "failed to read cart items")
	}

	return items, nil
}

func scanCartItem(row pgx.Row) (*domain.CartItem, error) {
	var (
		item     domain.CartItem
		priceRaw string
	)

	err := row.Scan(
		&item.ID, &item.CartID, &item.Quantity,
		&item.Product.ID, &item.Product.SubCategoryID,
		&item.Product.SubCategoryName, &item.Product.CategoryName,
		&item.Product.Name, &item.Product.Slug, &priceRaw,
		&item.Product.ImagePath,
		&item.Product.ImageSmallPath,
		&item.Product.ImageMediumPath,
		&item.Product.ImageLargePath,
	)
	if err != nil {
		return nil, err
	}

	if item.Product.Price, err = parsePrice(priceRaw); err != nil {
		return nil, err
	}

	return &item, nil
}
