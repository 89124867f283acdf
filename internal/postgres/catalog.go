package postgres

import (
	"context"
	"errors"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogStore persists the category/subcategory/product hierarchy.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore creates a PostgreSQL-backed catalog store.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// ListCategories returns all categories with their subcategories nested.
// Two queries, grouped in memory, instead of N+1 per category.
func (s *CatalogStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, slug, image_path FROM categories ORDER BY id`)
	if err != nil {
		return nil, domain.Internal(err, "catalog.list_categories", "failed to list categories")
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ImagePath); err != nil {
			return nil, domain.Internal(err, "catalog.list_categories", "failed to scan category")
		}
		c.SubCategories = make([]domain.SubCategory, 0)
		index[c.ID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "catalog.list_categories", "failed to read categories")
	}

	subRows, err := s.pool.Query(ctx, `SELECT id, category_id, name, slug, image_path FROM subcategories ORDER BY id`)
	if err != nil {
		return nil, domain.Internal(err, "catalog.list_categories", "failed to list subcategories")
	}
	defer subRows.Close()

	for subRows.Next() {
		var sc domain.SubCategory
		if err := subRows.Scan(&sc.ID, &sc.CategoryID, &sc.Name, &sc.Slug, &sc.ImagePath); err != nil {
			return nil, domain.Internal(err, "catalog.list_categories", "failed to scan subcategory")
		}
		if i, ok := index[sc.CategoryID]; ok {
			categories[i].SubCategories = append(categories[i].SubCategories, sc)
		}
	}
	if err := subRows.Err(); err != nil {
		return nil, domain.Internal(err, "catalog.list_categories", "failed to read subcategories")
	}

	return categories, nil
}

const productColumns = `
	p.id, p.subcategory_id, sc.name, c.name,
	p.name, p.slug, p.price::text,
	p.image_path,
	COALESCE(p.image_small_path, ''),
	COALESCE(p.image_medium_path, ''),
	COALESCE(p.image_large_path, '')`

const productJoins = `
	FROM products p
	JOIN subcategories sc ON sc.id = p.subcategory_id
	JOIN categories c ON c.id = sc.category_id`

// ListProducts returns all products with category and subcategory names.
func (s *CatalogStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+productColumns+productJoins+` ORDER BY p.id`)
	if err != nil {
		return nil, domain.Internal(err, "catalog.list_products", "failed to list products")
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Internal(err, "catalog.list_products", "failed to scan product")
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "catalog.list_products", "failed to read products")
	}

	return products, nil
}

// GetProduct retrieves a single product by id.
func (s *CatalogStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `SELECT`+productColumns+productJoins+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "catalog.get_product", "failed to get product")
	}
	return p, nil
}

// SubCategoryExists reports whether a subcategory id is present.
func (s *CatalogStore) SubCategoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subcategories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, domain.Internal(err, "catalog.subcategory_exists", "failed to check subcategory")
	}
	return exists, nil
}

// CreateProductParams mirrors the products table; all image paths are
// known up front because renditions are derived before the row is written.
type CreateProductParams struct {
	SubCategoryID   int64
	Name            string
	Slug            string
	Price           string // canonical decimal string, e.g. "150.28"
	ImagePath       string
	ImageSmallPath  string
	ImageMediumPath string
	ImageLargePath  string
}

// CreateProduct inserts a product and returns its id.
func (s *CatalogStore) CreateProduct(ctx context.Context, params CreateProductParams) (int64, error) {
	const q = `
		INSERT INTO products (subcategory_id, name, slug, price, image_path,
			image_small_path, image_medium_path, image_large_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, q,
		params.SubCategoryID, params.Name, params.Slug, params.Price,
		params.ImagePath, params.ImageSmallPath, params.ImageMediumPath, params.ImageLargePath,
	).Scan(&id)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return 0, domain.ErrSlugTaken
		}
		if isPgError(err, pgForeignKeyViolation) {
			return 0, domain.ErrSubCategoryNotFound
		}
		return 0, domain.Internal(err, "catalog.create_product", "failed to create product")
	}

	return id, nil
}

// ProductImagePaths carries the four storage keys for a product's images.
type ProductImagePaths struct {
	ImagePath       string
	ImageSmallPath  string
	ImageMediumPath string
	ImageLargePath  string
}

// UpdateProductImagePaths swaps all four image paths on a product and
// returns the superseded paths so the caller can clean up the files.
func (s *CatalogStore) UpdateProductImagePaths(ctx context.Context, id int64, paths ProductImagePaths) ([]string, error) {
	const q = `
		UPDATE products p
		SET image_path = $2,
			image_small_path = $3,
			image_medium_path = $4,
			image_large_path = $5
		FROM (
			SELECT id, image_path,
				COALESCE(image_small_path, '') AS image_small_path,
				COALESCE(image_medium_path, '') AS image_medium_path,
				COALESCE(image_large_path, '') AS image_large_path
			FROM products WHERE id = $1 FOR UPDATE
		) old
		WHERE p.id = old.id
		RETURNING old.image_path, old.image_small_path, old.image_medium_path, old.image_large_path`

	previous := make([]string, 4)
	err := s.pool.QueryRow(ctx, q, id,
		paths.ImagePath, paths.ImageSmallPath, paths.ImageMediumPath, paths.ImageLargePath,
	).Scan(&previous[0], &previous[1], &previous[2], &previous[3])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "catalog.update_product_image", "failed to update product image paths")
	}

	return previous, nil
}

// DeleteProduct removes a product row and returns the stored image paths
// so the caller can clean up the files.
func (s *CatalogStore) DeleteProduct(ctx context.Context, id int64) ([]string, error) {
	const q = `
		DELETE FROM products WHERE id = $1
		RETURNING image_path,
			COALESCE(image_small_path, ''),
			COALESCE(image_medium_path, ''),
			COALESCE(image_large_path, '')`

	paths := make([]string, 4)
	err := s.pool.QueryRow(ctx, q, id).Scan(&paths[0], &paths[1], &paths[2], &paths[3])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "catalog.delete_product", "failed to delete product")
	}

	return paths, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p        domain.Product
		priceRaw string
	)

	err := row.Scan(
		&p.ID, &p.SubCategoryID, &p.SubCategoryName, &p.CategoryName,
		&p.Name, &p.Slug, &priceRaw,
		&p.ImagePath, &p.ImageSmallPath, &p.ImageMediumPath, &p.ImageLargePath,
	)
	if err != nil {
		return nil, err
	}

	if p.Price, err = parsePrice(priceRaw); err != nil {
		return nil, err
	}

	return &p, nil
}
