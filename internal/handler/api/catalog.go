package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/evanshaw/shopd/internal/handler"
	"github.com/evanshaw/shopd/internal/storage"
	"github.com/shopspring/decimal"
)

// maxUploadSize caps product image uploads at 32 MB.
const maxUploadSize = 32 << 20

// CatalogHandler serves the public catalog reads and the staff-only
// product write endpoints.
type CatalogHandler struct {
	catalog domain.CatalogService
	files   storage.Storage
	logger  *slog.Logger
}

func NewCatalogHandler(catalog domain.CatalogService, files storage.Storage, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		files:   files,
		logger:  logger,
	}
}

// ListCategories handles GET /api/categories/ and returns every
// category with its subcategories nested.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	payload := make([]categoryPayload, 0, len(categories))
	for _, c := range categories {
		payload = append(payload, newCategoryPayload(r, h.files, c))
	}

	handler.RespondJSON(w, http.StatusOK, payload)
}

// ListProducts handles GET /api/products/.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	payload := make([]productPayload, 0, len(products))
	for _, p := range products {
		payload = append(payload, newProductPayload(r, h.files, p))
	}

	handler.RespondJSON(w, http.StatusOK, payload)
}

// GetProduct handles GET /api/products/{id}/.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handler.RespondError(w, r, domain.NotFound("catalog.get_product", "product", r.PathValue("id")))
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, newProductPayload(r, h.files, *product))
}

// CreateProduct handles POST /api/products/. The request is a
// multipart form carrying the product fields plus the original image;
// the small, medium and large renditions are derived before the product
// is saved.
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		handler.RespondError(w, r, domain.Invalid("catalog.create_product", "Invalid multipart form."))
		return
	}

	params := domain.CreateProductParams{
		Name: r.FormValue("name"),
		Slug: r.FormValue("slug"),
	}

	fields := make(map[string]string)

	if raw := r.FormValue("subcategory"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fields["subcategory"] = "Invalid subcategory."
		}
		params.SubCategoryID = id
	} else {
		fields["subcategory"] = "This field is required."
	}

	if raw := r.FormValue("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			fields["price"] = "A valid number is required."
		}
		params.Price = price
	} else {
		fields["price"] = "This field is required."
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		fields["image"] = "This field is required."
	} else {
		defer file.Close()
		params.Image = file
		params.ImageName = header.Filename
	}

	if len(fields) > 0 {
		handler.RespondError(w, r, &domain.ValidationError{Op: "catalog.create_product", Fields: fields})
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), params)
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusCreated, newProductPayload(r, h.files, *product))
}

// UpdateProductImage handles PUT /api/products/{id}/image/. The request
// is a multipart form with a single "image" part; renditions are
// re-derived and the superseded files removed.
func (h *CatalogHandler) UpdateProductImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handler.RespondError(w, r, domain.NotFound("catalog.update_product_image", "product", r.PathValue("id")))
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		handler.RespondError(w, r, domain.Invalid("catalog.update_product_image", "Invalid multipart form."))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		handler.RespondError(w, r, domain.NewValidationError("catalog.update_product_image", "image", "This field is required."))
		return
	}
	defer file.Close()

	product, err := h.catalog.UpdateProductImage(r.Context(), id, header.Filename, file)
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, newProductPayload(r, h.files, *product))
}

// DeleteProduct handles DELETE /api/products/{id}/. The product row and
// all four stored image files go away together.
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handler.RespondError(w, r, domain.NotFound("catalog.delete_product", "product", r.PathValue("id")))
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		handler.RespondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
