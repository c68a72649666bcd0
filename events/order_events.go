package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is emitted after checkout commits an order.
type OrderPlacedEvent struct {
	OrderID     uint            `json:"orderId"`
	CustomerID  uint            `json:"customerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
	PlacedAt    time.Time       `json:"placedAt"`
}

// OrderPlacedV1 is the typed event definition for placed orders.
// Subject: events.order.v1.order-placed
var OrderPlacedV1 = helper.EventDefinition[OrderPlacedEvent](
	"order", "OrderPlaced", "v1",
)

// OrderStatusChangedEvent is emitted when an order's status changes.
type OrderStatusChangedEvent struct {
	OrderID   uint      `json:"orderId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}

// OrderStatusChangedV1 is the typed event definition for order status changes.
// Subject: events.order.v1.order-status-changed
var OrderStatusChangedV1 = helper.EventDefinition[OrderStatusChangedEvent](
	"order", "OrderStatusChanged", "v1",
)

// ProductDeletedEvent is emitted after a product and its dependents are deleted.
type ProductDeletedEvent struct {
	ProductID  uint      `json:"productId"`
	SupplierID uint      `json:"supplierId"`
	DeletedAt  time.Time `json:"deletedAt"`
}

// ProductDeletedV1 is the typed event definition for product deletion.
// Subject: events.product.v1.product-deleted
var ProductDeletedV1 = helper.EventDefinition[ProductDeletedEvent](
	"product", "ProductDeleted", "v1",
)
