package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item owned by a supplier.
type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Discount        decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount"`
	Category        string          `gorm:"size:100;index" json:"category"`
	ImageURLs       []string        `gorm:"serializer:json;type:text" json:"imageUrls"`
	AvailableSizes  []string        `gorm:"serializer:json;type:text" json:"availableSizes"`
	AvailableColors []string        `gorm:"serializer:json;type:text" json:"availableColors"`
	SupplierID      uint            `gorm:"index;not null" json:"supplierId"`
	Stock           int             `gorm:"not null" json:"stock"`
	IsActive        bool            `gorm:"not null" json:"isActive"`
	ComingSoon      bool            `gorm:"not null" json:"comingSoon"`
	ReleaseDate     *time.Time      `json:"releaseDate"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// TableName returns the table name for the Product entity.
func (Product) TableName() string {
	return "products"
}

// UnitPrice returns the price after the percentage discount, rounded to cents.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.Discount.IsZero() {
		return p.Price
	}
	hundred := decimal.NewFromInt(100)
	return p.Price.Mul(hundred.Sub(p.Discount)).Div(hundred).Round(2)
}

// NewProduct holds the fields needed to create a product.
type NewProduct struct {
	Name            string
	Description     string
	Price           decimal.Decimal
	Discount        decimal.Decimal
	Category        string
	ImageURLs       []string
	AvailableSizes  []string
	AvailableColors []string
	SupplierID      uint
	Stock           int
	IsActive        bool
	ComingSoon      bool
	ReleaseDate     *time.Time
}

// ProductPatch is a sparse update. Nil fields keep their stored value.
type ProductPatch struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	Discount        *decimal.Decimal
	Category        *string
	ImageURLs       *[]string
	AvailableSizes  *[]string
	AvailableColors *[]string
	Stock           *int
	IsActive        *bool
	ComingSoon      *bool
	ReleaseDate     *time.Time
}

// Apply merges the non-nil fields of the patch into p.
func (pp ProductPatch) Apply(p *Product) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Discount != nil {
		p.Discount = *pp.Discount
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.ImageURLs != nil {
		p.ImageURLs = append([]string(nil), (*pp.ImageURLs)...)
	}
	if pp.AvailableSizes != nil {
		p.AvailableSizes = append([]string(nil), (*pp.AvailableSizes)...)
	}
	if pp.AvailableColors != nil {
		p.AvailableColors = append([]string(nil), (*pp.AvailableColors)...)
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.IsActive != nil {
		p.IsActive = *pp.IsActive
	}
	if pp.ComingSoon != nil {
		p.ComingSoon = *pp.ComingSoon
	}
	if pp.ReleaseDate != nil {
		d := *pp.ReleaseDate
		p.ReleaseDate = &d
	}
}

// ProductFilter is a conjunction of equality constraints. Nil fields are ignored.
type ProductFilter struct {
	Category   *string
	SupplierID *uint
	IsActive   *bool
	ComingSoon *bool
}

// Matches reports whether p satisfies every set constraint.
func (f ProductFilter) Matches(p *Product) bool {
	if f.Category != nil && p.Category != *f.Category {
		return false
	}
	if f.SupplierID != nil && p.SupplierID != *f.SupplierID {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.ComingSoon != nil && p.ComingSoon != *f.ComingSoon {
		return false
	}
	return true
}
