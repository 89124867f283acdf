package domain

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG DOMAIN ERRORS
// =============================================================================

var (
	ErrCategoryNotFound    = &Error{Code: ENOTFOUND, Message: "Category not found"}
	ErrSubCategoryNotFound = &Error{Code: ENOTFOUND, Message: "Subcategory not found"}
	ErrProductNotFound     = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrSlugTaken           = &Error{Code: ECONFLICT, Message: "Slug is already in use"}
)

// Category groups subcategories under a single browsable node.
type Category struct {
	ID            int64
	Name          string
	Slug          string
	ImagePath     string
	SubCategories []SubCategory
}

// SubCategory belongs to exactly one category and owns products.
type SubCategory struct {
	ID         int64
	CategoryID int64
	Name       string
	Slug       string
	ImagePath  string
}

// Product is a catalog entry. Image paths are storage keys, not URLs;
// the rendition paths stay empty until derivation has completed.
type Product struct {
	ID              int64
	SubCategoryID   int64
	SubCategoryName string
	CategoryName    string
	Name            string
	Slug            string
	Price           decimal.Decimal
	ImagePath       string
	ImageSmallPath  string
	ImageMediumPath string
	ImageLargePath  string
}

// CreateProductParams carries everything needed to save a product,
// including the original image to derive renditions from.
type CreateProductParams struct {
	SubCategoryID int64
	Name          string
	Slug          string
	Price         decimal.Decimal
	ImageName     string    // original filename, used for deterministic storage keys
	Image         io.Reader // original image content
}

// CatalogService exposes the read-only catalog plus the product write
// path that drives image rendition derivation.
type CatalogService interface {
	// ListCategories returns all categories with their subcategories nested.
	ListCategories(ctx context.Context) ([]Category, error)

	// ListProducts returns all products with category and subcategory names.
	ListProducts(ctx context.Context) ([]Product, error)

	// GetProduct retrieves a single product by id.
	GetProduct(ctx context.Context, id int64) (*Product, error)

	// CreateProduct stores the original image, derives the small, medium
	// and large renditions, and persists the product. A source image that
	// cannot be decoded fails the whole save.
	CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error)

	// UpdateProductImage replaces the product's original image, re-derives
	// all renditions, and removes the superseded files.
	UpdateProductImage(ctx context.Context, id int64, imageName string, image io.Reader) (*Product, error)

	// DeleteProduct removes the product row and all four stored image
	// files. Files that are already gone are skipped silently.
	DeleteProduct(ctx context.Context, id int64) error
}
