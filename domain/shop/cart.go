package shop

import "time"

// CartItem is a pending line in a cart.
type CartItem struct {
	ProductID uint   `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Cart holds a user's pending items. There is at most one cart per user and
// its items are always replaced as a whole.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"userId"`
	Items     []CartItem `gorm:"serializer:json;type:text" json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TableName returns the table name for the Cart entity.
func (Cart) TableName() string {
	return "carts"
}

// SupplierInventory is the supplier-scoped stock ledger entry for one product.
type SupplierInventory struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SupplierID     uint      `gorm:"uniqueIndex:idx_inventory_supplier_product;not null" json:"supplierId"`
	ProductID      uint      `gorm:"uniqueIndex:idx_inventory_supplier_product;not null" json:"productId"`
	AvailableStock int       `gorm:"not null" json:"availableStock"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName returns the table name for the SupplierInventory entity.
func (SupplierInventory) TableName() string {
	return "supplier_inventory"
}
