package auth

import (
	"time"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
)

// UserProfile is a user without credentials. It is the only user shape that
// leaves the auth module.
type UserProfile struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      shop.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileOf strips the credential from u.
func ProfileOf(u *shop.User) UserProfile {
	return UserProfile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string    `json:"username"`
	Password string    `json:"password"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	Role     shop.Role `json:"role"`
}

// UserReply is the reply of the register and login services. Code is set,
// and User left empty, when the call failed with a known error.
type UserReply struct {
	User UserProfile `json:"user"`
	Code string      `json:"code,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID uint `json:"userId"`
}

// GetUserResponse represents a get user response. Found is false when the
// user does not exist.
type GetUserResponse struct {
	Found bool        `json:"found"`
	User  UserProfile `json:"user"`
}
