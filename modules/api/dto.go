package api

import (
	"time"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/modules/orderevents"
	"github.com/shopspring/decimal"
)

// RegisterBody is the POST /api/register payload.
type RegisterBody struct {
	Username string    `json:"username" validate:"required,min=3,max=50"`
	Password string    `json:"password" validate:"required,min=6"`
	Email    string    `json:"email" validate:"omitempty,email"`
	FullName string    `json:"fullName" validate:"max=255"`
	Role     shop.Role `json:"role" validate:"omitempty,oneof=customer supplier"`
}

// LoginBody is the POST /api/login payload.
type LoginBody struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProductBody is the POST /api/products payload. SupplierID is only read
// for admins; suppliers always create products for themselves.
type ProductBody struct {
	Name            string           `json:"name" validate:"required,max=255"`
	Description     string           `json:"description" validate:"max=5000"`
	Price           decimal.Decimal  `json:"price"`
	Discount        *decimal.Decimal `json:"discount"`
	Category        string           `json:"category" validate:"max=100"`
	ImageURLs       []string         `json:"imageUrls" validate:"omitempty,dive,required"`
	AvailableSizes  []string         `json:"availableSizes" validate:"omitempty,dive,required,max=20"`
	AvailableColors []string         `json:"availableColors" validate:"omitempty,dive,required,max=30"`
	SupplierID      uint             `json:"supplierId"`
	Stock           int              `json:"stock" validate:"gte=0"`
	IsActive        *bool            `json:"isActive"`
	ComingSoon      bool             `json:"comingSoon"`
	ReleaseDate     *time.Time       `json:"releaseDate"`
}

// ProductPatchBody is the PATCH /api/products/:id payload.
type ProductPatchBody struct {
	Name            *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description     *string          `json:"description" validate:"omitempty,max=5000"`
	Price           *decimal.Decimal `json:"price"`
	Discount        *decimal.Decimal `json:"discount"`
	Category        *string          `json:"category" validate:"omitempty,max=100"`
	ImageURLs       *[]string        `json:"imageUrls"`
	AvailableSizes  *[]string        `json:"availableSizes"`
	AvailableColors *[]string        `json:"availableColors"`
	Stock           *int             `json:"stock" validate:"omitempty,gte=0"`
	IsActive        *bool            `json:"isActive"`
	ComingSoon      *bool            `json:"comingSoon"`
	ReleaseDate     *time.Time       `json:"releaseDate"`
}

func (b ProductPatchBody) patch() shop.ProductPatch {
	return shop.ProductPatch{
		Name:            b.Name,
		Description:     b.Description,
		Price:           b.Price,
		Discount:        b.Discount,
		Category:        b.Category,
		ImageURLs:       b.ImageURLs,
		AvailableSizes:  b.AvailableSizes,
		AvailableColors: b.AvailableColors,
		Stock:           b.Stock,
		IsActive:        b.IsActive,
		ComingSoon:      b.ComingSoon,
		ReleaseDate:     b.ReleaseDate,
	}
}

// ReviewBody is the POST /api/products/:id/reviews payload.
type ReviewBody struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// AdminReviewBody is the POST /api/admin/reviews payload. A customerId of
// zero or less stores the review without a customer.
type AdminReviewBody struct {
	ProductID  uint   `json:"productId" validate:"required"`
	CustomerID int    `json:"customerId"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	Comment    string `json:"comment" validate:"max=2000"`
}

// OrderLine is one requested checkout line.
type OrderLine struct {
	ProductID uint   `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1,max=1000"`
	Size      string `json:"size" validate:"max=20"`
	Color     string `json:"color" validate:"max=30"`
}

// OrderBody is the POST /api/orders payload.
type OrderBody struct {
	Items            []OrderLine `json:"items" validate:"required,min=1,dive"`
	PaymentReference string      `json:"paymentReference" validate:"max=100"`
}

// OrderPatchBody is the PATCH /api/orders/:id payload.
type OrderPatchBody struct {
	Status        *shop.OrderStatus   `json:"status"`
	PaymentStatus *shop.PaymentStatus `json:"paymentStatus"`
}

// CartBody is the PUT /api/cart payload.
type CartBody struct {
	Items []OrderLine `json:"items" validate:"dive"`
}

// InventoryBody is the PUT /api/inventory/:productId payload.
type InventoryBody struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

// PaymentBody is the POST /api/payment/initialize payload.
type PaymentBody struct {
	Email    string          `json:"email" validate:"required,email"`
	Amount   decimal.Decimal `json:"amount"`
	Metadata map[string]any  `json:"metadata"`
}

// OrderView is an order with its (possibly narrowed) items.
type OrderView struct {
	shop.Order
	Items []shop.OrderItem `json:"items"`
}

// StatsView is the admin dashboard summary.
type StatsView struct {
	Customers    int                     `json:"customers"`
	Suppliers    int                     `json:"suppliers"`
	Products     int                     `json:"products"`
	Orders       int                     `json:"orders"`
	Revenue      decimal.Decimal         `json:"revenue"`
	RecentEvents []orderevents.FeedEntry `json:"recentEvents"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// URLResponse carries the location of an uploaded file.
type URLResponse struct {
	URL string `json:"url"`
}
