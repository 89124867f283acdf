package service

import (
	"bytes"
	"context"
	"io"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/evanshaw/shopd/internal/images"
	"github.com/evanshaw/shopd/internal/postgres"
	"github.com/evanshaw/shopd/internal/storage"
	"github.com/shopspring/decimal"
)

// CatalogStore is the persistence surface the catalog service needs.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	SubCategoryExists(ctx context.Context, id int64) (bool, error)
	CreateProduct(ctx context.Context, params postgres.CreateProductParams) (int64, error)
	UpdateProductImagePaths(ctx context.Context, id int64, paths postgres.ProductImagePaths) ([]string, error)
	DeleteProduct(ctx context.Context, id int64) ([]string, error)
}

type catalogService struct {
	store CatalogStore
	files storage.Storage
}

// Compile-time check that catalogService implements domain.CatalogService.
var _ domain.CatalogService = (*catalogService)(nil)

// NewCatalogService creates the catalog service.
func NewCatalogService(store CatalogStore, files storage.Storage) domain.CatalogService {
	return &catalogService{store: store, files: files}
}

// ListCategories returns all categories with their subcategories nested.
func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

// ListProducts returns all products with category and subcategory names.
func (s *catalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

// GetProduct retrieves a single product by id.
func (s *catalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// CreateProduct runs the full save pipeline: validate, derive the three
// renditions from the original, store all four files, then insert the
// product row referencing them. A source image that cannot be decoded
// fails the save before anything is persisted, so a product row never
// exists without its renditions.
func (s *catalogService) CreateProduct(ctx context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	if err := validateCreateProduct(params); err != nil {
		return nil, err
	}

	ok, err := s.store.SubCategoryExists(ctx, params.SubCategoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewValidationError("catalog.create_product", "subcategory", "Invalid subcategory.")
	}

	// The original is consumed twice (derivation and storage), so buffer it.
	original, err := io.ReadAll(params.Image)
	if err != nil {
		return nil, domain.Internal(err, "catalog.create_product", "failed to read image upload")
	}

	renditions, err := images.Derive(bytes.NewReader(original), params.ImageName)
	if err != nil {
		return nil, &domain.Error{
			Code:    domain.EINVALID,
			Op:      "catalog.create_product",
			Message: "Could not process the product image",
			Err:     err,
		}
	}

	originalKey := images.OriginalKey(params.ImageName)
	storedKeys := make([]string, 0, 1+len(renditions))

	cleanup := func() {
		for _, key := range storedKeys {
			_ = s.files.Delete(ctx, key)
		}
	}

	if _, err := s.files.Put(ctx, originalKey, bytes.NewReader(original)); err != nil {
		return nil, domain.Internal(err, "catalog.create_product", "failed to store original image")
	}
	storedKeys = append(storedKeys, originalKey)

	createParams := postgres.CreateProductParams{
		SubCategoryID: params.SubCategoryID,
		Name:          params.Name,
		Slug:          params.Slug,
		Price:         params.Price.StringFixed(2),
		ImagePath:     originalKey,
	}

	for _, r := range renditions {
		if _, err := s.files.Put(ctx, r.Key, r.Content); err != nil {
			cleanup()
			return nil, domain.Internal(err, "catalog.create_product", "failed to store image rendition")
		}
		storedKeys = append(storedKeys, r.Key)

		switch r.Label {
		case "small":
			createParams.ImageSmallPath = r.Key
		case "medium":
			createParams.ImageMediumPath = r.Key
		case "large":
			createParams.ImageLargePath = r.Key
		}
	}

	id, err := s.store.CreateProduct(ctx, createParams)
	if err != nil {
		cleanup()
		return nil, err
	}

	return s.store.GetProduct(ctx, id)
}

// UpdateProductImage stores a replacement original, re-derives the three
// renditions from it, points the row at the new files, and removes the
// superseded ones. Replacing an image therefore can never leave stale
// renditions behind.
func (s *catalogService) UpdateProductImage(ctx context.Context, id int64, imageName string, image io.Reader) (*domain.Product, error) {
	if imageName == "" || image == nil {
		return nil, domain.NewValidationError("catalog.update_product_image", "image", "This field is required.")
	}

	original, err := io.ReadAll(image)
	if err != nil {
		return nil, domain.Internal(err, "catalog.update_product_image", "failed to read image upload")
	}

	renditions, err := images.Derive(bytes.NewReader(original), imageName)
	if err != nil {
		return nil, &domain.Error{
			Code:    domain.EINVALID,
			Op:      "catalog.update_product_image",
			Message: "Could not process the product image",
			Err:     err,
		}
	}

	originalKey := images.OriginalKey(imageName)
	storedKeys := make([]string, 0, 1+len(renditions))

	cleanup := func() {
		for _, key := range storedKeys {
			_ = s.files.Delete(ctx, key)
		}
	}

	if _, err := s.files.Put(ctx, originalKey, bytes.NewReader(original)); err != nil {
		return nil, domain.Internal(err, "catalog.update_product_image", "failed to store original image")
	}
	storedKeys = append(storedKeys, originalKey)

	paths := postgres.ProductImagePaths{ImagePath: originalKey}
	for _, r := range renditions {
		if _, err := s.files.Put(ctx, r.Key, r.Content); err != nil {
			cleanup()
			return nil, domain.Internal(err, "catalog.update_product_image", "failed to store image rendition")
		}
		storedKeys = append(storedKeys, r.Key)

		switch r.Label {
		case "small":
			paths.ImageSmallPath = r.Key
		case "medium":
			paths.ImageMediumPath = r.Key
		case "large":
			paths.ImageLargePath = r.Key
		}
	}

	previous, err := s.store.UpdateProductImagePaths(ctx, id, paths)
	if err != nil {
		cleanup()
		return nil, err
	}

	// A replacement upload with the same filename reuses the same keys;
	// only genuinely superseded files are removed.
	current := map[string]bool{
		paths.ImagePath:       true,
		paths.ImageSmallPath:  true,
		paths.ImageMediumPath: true,
		paths.ImageLargePath:  true,
	}
	for _, p := range previous {
		if p == "" || current[p] {
			continue
		}
		if err := s.files.Delete(ctx, p); err != nil {
			return nil, domain.Internal(err, "catalog.update_product_image", "failed to delete superseded image file")
		}
	}

	return s.store.GetProduct(ctx, id)
}

// DeleteProduct removes the row and all stored image files. Files that
// are already absent are skipped silently.
func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	paths, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.files.Delete(ctx, p); err != nil {
			return domain.Internal(err, "catalog.delete_product", "failed to delete image file")
		}
	}

	return nil
}

func validateCreateProduct(params domain.CreateProductParams) error {
	fields := make(map[string]string)

	if params.Name == "" {
		fields["name"] = "This field is required."
	}
	if params.Slug == "" {
		fields["slug"] = "This field is required."
	}
	if params.Price.LessThan(decimal.Zero) {
		fields["price"] = "Ensure this value is greater than or equal to 0."
	}
	if params.ImageName == "" || params.Image == nil {
		fields["image"] = "This field is required."
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Op: "catalog.create_product", Fields: fields}
	}
	return nil
}
