// Package storage provides the storefront repository: one capability
// interface with an in-memory and a GORM-backed implementation.
package storage

import (
	"context"
	"errors"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultTopReviewsLimit is used by GetTopReviews when limit <= 0.
	DefaultTopReviewsLimit = 5
	// DefaultRankingLimit is used by the trending and top-selling queries when limit <= 0.
	DefaultRankingLimit = 4
)

// ErrConflict is returned when a write would break a uniqueness rule, such as
// a second user with the same username.
var ErrConflict = errors.New("unique constraint violated")

// Storage is the repository contract shared by every backend.
//
// Reads of an absent row return (nil, nil). Updates of an absent row return
// (nil, nil). Deletes report whether a row was removed. Other failures are
// returned as errors.
type Storage interface {
	GetUser(ctx context.Context, id uint) (*shop.User, error)
	GetUserByUsername(ctx context.Context, username string) (*shop.User, error)
	GetUsersByRole(ctx context.Context, role shop.Role) ([]shop.User, error)
	// CreateUser fails with ErrConflict when the username is taken.
	CreateUser(ctx context.Context, in shop.NewUser) (*shop.User, error)
	UpdateUserPassword(ctx context.Context, id uint, password string) (*shop.User, error)

	GetProduct(ctx context.Context, id uint) (*shop.Product, error)
	GetProducts(ctx context.Context, filter shop.ProductFilter) ([]shop.Product, error)
	CreateProduct(ctx context.Context, in shop.NewProduct) (*shop.Product, error)
	UpdateProduct(ctx context.Context, id uint, patch shop.ProductPatch) (*shop.Product, error)
	// DeleteProduct removes the product's inventory rows and reviews before the product.
	DeleteProduct(ctx context.Context, id uint) (bool, error)

	GetOrder(ctx context.Context, id uint) (*shop.Order, error)
	GetOrders(ctx context.Context, filter shop.OrderFilter) ([]shop.Order, error)
	CreateOrder(ctx context.Context, in shop.NewOrder) (*shop.Order, error)
	UpdateOrder(ctx context.Context, id uint, patch shop.OrderPatch) (*shop.Order, error)
	// DeleteOrder removes the order's items before the order.
	DeleteOrder(ctx context.Context, id uint) (bool, error)
	GetOrderItems(ctx context.Context, orderID uint) ([]shop.OrderItem, error)
	AddOrderItem(ctx context.Context, in shop.NewOrderItem) (*shop.OrderItem, error)

	GetCart(ctx context.Context, userID uint) (*shop.Cart, error)
	UpdateCart(ctx context.Context, userID uint, items []shop.CartItem) (*shop.Cart, error)

	GetInventory(ctx context.Context, supplierID uint) ([]shop.SupplierInventory, error)
	// UpdateInventory upserts the (supplier, product) row and writes the same
	// value to the product's stock.
	UpdateInventory(ctx context.Context, supplierID, productID uint, stock int) (*shop.SupplierInventory, error)

	CreateReview(ctx context.Context, in shop.NewReview) (*shop.Review, error)
	// GetReviews returns reviews newest first, optionally for one product.
	GetReviews(ctx context.Context, productID *uint) ([]shop.Review, error)
	GetTopReviews(ctx context.Context, limit int) ([]shop.Review, error)
	DeleteReview(ctx context.Context, id uint) (bool, error)

	GetTrendingProducts(ctx context.Context, limit int) ([]shop.Product, error)
	GetTopSellingProducts(ctx context.Context, limit int) ([]shop.Product, error)

	// SessionStore returns the storage used to persist HTTP sessions.
	SessionStore() fiber.Storage

	// Atomically runs fn as one unit of work. Backends with transactions roll
	// back every write made through the Storage passed to fn when fn fails.
	// The in-memory backend serializes workflows but cannot roll back.
	// fn must not call Atomically again.
	Atomically(ctx context.Context, fn func(Storage) error) error

	Close() error
}
