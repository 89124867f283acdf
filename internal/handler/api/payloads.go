package api

import (
	"net/http"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/evanshaw/shopd/internal/storage"
)

// Wire representations of domain objects. Prices serialize as exact
// two-decimal strings; image fields serialize as absolute URLs built
// from the request host, the way clients expect to consume them.

type categoryPayload struct {
	ID            int64                `json:"id"`
	Name          string               `json:"name"`
	Slug          string               `json:"slug"`
	Image         string               `json:"image"`
	Subcategories []subCategoryPayload `json:"subcategories"`
}

type subCategoryPayload struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image"`
}

type productImagesPayload struct {
	Original string `json:"original"`
	Small    string `json:"small"`
	Medium   string `json:"medium"`
	Large    string `json:"large"`
}

type productPayload struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Category    string               `json:"category"`
	Subcategory string               `json:"subcategory"`
	Price       string               `json:"price"`
	Images      productImagesPayload `json:"images"`
}

type cartItemPayload struct {
	ID       int64          `json:"id"`
	Product  productPayload `json:"product"`
	Quantity int32          `json:"quantity"`
}

type cartPayload struct {
	ID            int64             `json:"id"`
	User          int64             `json:"user"`
	Items         []cartItemPayload `json:"items"`
	TotalQuantity int32             `json:"total_quantity"`
	TotalPrice    string            `json:"total_price"`
}

func newCategoryPayload(r *http.Request, files storage.Storage, c domain.Category) categoryPayload {
	subs := make([]subCategoryPayload, 0, len(c.SubCategories))
	for _, sc := range c.SubCategories {
		subs = append(subs, subCategoryPayload{
			ID:    sc.ID,
			Name:  sc.Name,
			Slug:  sc.Slug,
			Image: imageURL(r, files, sc.ImagePath),
		})
	}

	return categoryPayload{
		ID:            c.ID,
		Name:          c.Name,
		Slug:          c.Slug,
		Image:         imageURL(r, files, c.ImagePath),
		Subcategories: subs,
	}
}

func newProductPayload(r *http.Request, files storage.Storage, p domain.Product) productPayload {
	return productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Category:    p.CategoryName,
		Subcategory: p.SubCategoryName,
		Price:       p.Price.StringFixed(2),
		Images: productImagesPayload{
			Original: imageURL(r, files, p.ImagePath),
			Small:    imageURL(r, files, p.ImageSmallPath),
			Medium:   imageURL(r, files, p.ImageMediumPath),
			Large:    imageURL(r, files, p.ImageLargePath),
		},
	}
}

func newCartPayload(r *http.Request, files storage.Storage, summary *domain.CartSummary) cartPayload {
	items := make([]cartItemPayload, 0, len(summary.Items))
	for _, item := range summary.Items {
		items = append(items, cartItemPayload{
			ID:       item.ID,
			Product:  newProductPayload(r, files, item.Product),
			Quantity: item.Quantity,
		})
	}

	return cartPayload{
		ID:            summary.Cart.ID,
		User:          summary.Cart.UserID,
		Items:         items,
		TotalQuantity: summary.TotalQuantity,
		TotalPrice:    summary.TotalPrice.StringFixed(2),
	}
}

// imageURL resolves a storage key into an absolute URL. Keys can be
// empty while a rendition has not been derived yet; those serialize as
// an empty string rather than a URL to the media root.
func imageURL(r *http.Request, files storage.Storage, key string) string {
	if key == "" {
		return ""
	}
	return absoluteURL(r, files.URL(key))
}

// absoluteURL rebuilds a path into an absolute URL against the request
// host, honoring X-Forwarded-Proto when the server sits behind a proxy.
func absoluteURL(r *http.Request, path string) string {
	if path == "" {
		return ""
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	return scheme + "://" + r.Host + path
}
