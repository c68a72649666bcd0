package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"unicode/utf8"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/modules/storage"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidUsername is returned when the username length is out of range.
	ErrInvalidUsername = errors.New("username must be between 3 and 50 characters")
	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = errors.New("password must be at least 6 characters")
	// ErrInvalidEmail is returned when the email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrInvalidRole is returned when self-registration asks for a role other than customer or supplier.
	ErrInvalidRole = errors.New("role must be customer or supplier")
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
)

// UserStore is the subset of storage the auth service needs.
type UserStore interface {
	GetUser(ctx context.Context, id uint) (*shop.User, error)
	GetUserByUsername(ctx context.Context, username string) (*shop.User, error)
	CreateUser(ctx context.Context, in shop.NewUser) (*shop.User, error)
	UpdateUserPassword(ctx context.Context, id uint, password string) (*shop.User, error)
}

// AuthService handles authentication business logic.
type AuthService struct {
	users  UserStore
	hasher *PasswordHasher
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher *PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
	}
}

// Register creates a customer or supplier account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*shop.User, error) {
	if req.Role == "" {
		req.Role = shop.RoleCustomer
	}
	if req.Role != shop.RoleCustomer && req.Role != shop.RoleSupplier {
		return nil, ErrInvalidRole
	}
	return s.create(ctx, req)
}

func (s *AuthService) create(ctx context.Context, req RegisterRequest) (*shop.User, error) {
	if n := utf8.RuneCountInString(req.Username); n < minUsernameLen || n > maxUsernameLen {
		return nil, ErrInvalidUsername
	}
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return nil, ErrInvalidEmail
		}
	}

	existing, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, shop.NewUser{
		Username: req.Username,
		Password: hash,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if errors.Is(err, storage.ErrConflict) {
		// Lost a race with another registration for the same name.
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials. Unknown users and wrong passwords both
// yield ErrInvalidCredentials. A credential stored in a legacy form is
// replaced by a fresh hash once the password has been verified.
func (s *AuthService) Login(ctx context.Context, username, password string) (*shop.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if s.hasher.NeedsRehash(user.Password) {
		s.rehash(ctx, user, password)
	}
	return user, nil
}

// rehash upgrades a stored credential. Failures are logged and leave the
// old credential in place.
func (s *AuthService) rehash(ctx context.Context, user *shop.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		log.Printf("[auth] Failed to rehash password for user %d: %v", user.ID, err)
		return
	}
	updated, err := s.users.UpdateUserPassword(ctx, user.ID, hash)
	if err != nil {
		log.Printf("[auth] Failed to store rehashed password for user %d: %v", user.ID, err)
		return
	}
	if updated != nil {
		user.Password = updated.Password
	}
}

// GetUser retrieves a user by ID. It returns nil when the user does not exist.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*shop.User, error) {
	return s.users.GetUser(ctx, id)
}

// EnsureAdmin creates the admin account unless the username is already taken.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password, email string) (bool, error) {
	existing, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	if existing != nil {
		return false, nil
	}
	if _, err := s.create(ctx, RegisterRequest{
		Username: username,
		Password: password,
		Email:    email,
		FullName: "Administrator",
		Role:     shop.RoleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}
