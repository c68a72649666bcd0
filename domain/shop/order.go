package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order. Any status may follow any other.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Order is a customer's purchase.
//
// PaymentReference is the gateway reference that paid for the order, if any.
type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	CustomerID       uint            `gorm:"index;not null" json:"customerId"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	Status           OrderStatus     `gorm:"size:20;index;not null" json:"status"`
	PaymentStatus    PaymentStatus   `gorm:"size:20;not null" json:"paymentStatus"`
	PaymentReference string          `gorm:"size:100;index" json:"paymentReference,omitempty"`
	OrderDate        time.Time       `json:"orderDate"`
}

// TableName returns the table name for the Order entity.
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one line of an order. Price is the unit price at purchase time.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"orderId"`
	ProductID uint            `gorm:"index;not null" json:"productId"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Size      string          `gorm:"size:20" json:"size,omitempty"`
	Color     string          `gorm:"size:30" json:"color,omitempty"`
}

// TableName returns the table name for the OrderItem entity.
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrder holds the fields needed to create an order.
type NewOrder struct {
	CustomerID       uint
	TotalAmount      decimal.Decimal
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentReference string
}

// NewOrderItem holds the fields needed to add an item to an order.
type NewOrderItem struct {
	OrderID   uint
	ProductID uint
	Quantity  int
	Price     decimal.Decimal
	Size      string
	Color     string
}

// OrderPatch is a sparse update. Nil fields keep their stored value.
type OrderPatch struct {
	TotalAmount   *decimal.Decimal
	Status        *OrderStatus
	PaymentStatus *PaymentStatus
}

// Apply merges the non-nil fields of the patch into o.
func (op OrderPatch) Apply(o *Order) {
	if op.TotalAmount != nil {
		o.TotalAmount = *op.TotalAmount
	}
	if op.Status != nil {
		o.Status = *op.Status
	}
	if op.PaymentStatus != nil {
		o.PaymentStatus = *op.PaymentStatus
	}
}

// OrderFilter is a conjunction of equality constraints. Nil fields are ignored.
type OrderFilter struct {
	CustomerID *uint
	Status     *OrderStatus
}

// Matches reports whether o satisfies every set constraint.
func (f OrderFilter) Matches(o *Order) bool {
	if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
		return false
	}
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	return true
}
