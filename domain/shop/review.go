package shop

import "time"

// Review is a product rating. CustomerID is nil for reviews written by an admin.
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uint      `gorm:"index;not null" json:"productId"`
	CustomerID *uint     `gorm:"index" json:"customerId"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName returns the table name for the Review entity.
func (Review) TableName() string {
	return "reviews"
}

// NewReview holds the fields needed to create a review. A CustomerID of zero
// or less means the review has no customer.
type NewReview struct {
	ProductID  uint
	CustomerID int
	Rating     int
	Comment    string
}
