// Package shop provides the storefront domain entities shared by every module.
package shop

import "time"

// Role identifies what a user is allowed to do.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSupplier Role = "supplier"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupplier, RoleCustomer:
		return true
	}
	return false
}

// User represents an account. Password holds the stored credential
// ("digest.salt" hex for hashed values) and is never serialized.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string    `gorm:"not null;type:text" json:"-"`
	Email     string    `gorm:"size:255" json:"email"`
	FullName  string    `gorm:"size:255" json:"fullName"`
	Role      Role      `gorm:"size:20;index;not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// NewUser holds the fields needed to create a user.
type NewUser struct {
	Username string
	Password string
	Email    string
	FullName string
	Role     Role
}
