package routes

import (
	"log/slog"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/evanshaw/shopd/internal/handler"
	"github.com/evanshaw/shopd/internal/handler/api"
	"github.com/evanshaw/shopd/internal/middleware"
	"github.com/evanshaw/shopd/internal/router"
	"github.com/evanshaw/shopd/internal/storage"
)

// Deps carries everything the API routes need.
type Deps struct {
	Logger  *slog.Logger
	Users   domain.UserService
	Catalog domain.CatalogService
	Carts   domain.CartService
	Files   storage.Storage
}

// RegisterAPI mounts the JSON API. Catalog reads are public, cart
// endpoints require authentication, and product writes require staff.
func RegisterAPI(r *router.Router, deps Deps) {
	validate := handler.NewValidator()

	authHandler := api.NewAuthHandler(deps.Users, validate, deps.Logger)
	catalogHandler := api.NewCatalogHandler(deps.Catalog, deps.Files, deps.Logger)
	cartHandler := api.NewCartHandler(deps.Carts, deps.Files, validate, deps.Logger)

	r.Post("/api/auth/token/login/{$}", authHandler.TokenLogin)

	r.Get("/api/categories/{$}", catalogHandler.ListCategories)
	r.Get("/api/products/{$}", catalogHandler.ListProducts)
	r.Get("/api/products/{id}/{$}", catalogHandler.GetProduct)

	staff := r.Group(middleware.RequireStaff)
	staff.Post("/api/products/{$}", catalogHandler.CreateProduct)
	staff.Put("/api/products/{id}/image/{$}", catalogHandler.UpdateProductImage)
	staff.Delete("/api/products/{id}/{$}", catalogHandler.DeleteProduct)

	carts := r.Group(middleware.RequireUser)
	carts.Get("/api/cart/{$}", cartHandler.Get)
	carts.Post("/api/cart/{$}", cartHandler.AddItem)
	carts.Delete("/api/cart/{$}", cartHandler.Clear)
	carts.Put("/api/cart/{id}/{$}", cartHandler.UpdateItem)
	carts.Delete("/api/cart/{id}/{$}", cartHandler.RemoveItem)
}
