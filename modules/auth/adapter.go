package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*UserProfile, error)
	Login(ctx context.Context, username, password string) (*UserProfile, error)
	// GetUser returns nil when the user does not exist.
	GetUser(ctx context.Context, userID uint) (*UserProfile, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Register creates an account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*UserProfile, error) {
	return a.callUser(ctx, "register", &req)
}

// Login verifies credentials.
func (a *AuthAdapter) Login(ctx context.Context, username, password string) (*UserProfile, error) {
	req := LoginRequest{Username: username, Password: password}
	return a.callUser(ctx, "login", &req)
}

func (a *AuthAdapter) callUser(ctx context.Context, service string, req any) (*UserProfile, error) {
	var resp UserReply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, err
	}
	if resp.Code != "" {
		return nil, errorOf(resp.Code)
	}
	return &resp.User, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID uint) (*UserProfile, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return &resp.User, nil
}

// errorCodes names the sentinels that may cross the request-reply boundary.
// Handlers reply with the code instead of failing, so callers get the
// sentinel back rather than a transport error carrying its message.
var errorCodes = map[string]error{
	"invalid_credentials": ErrInvalidCredentials,
	"username_taken":      ErrUsernameTaken,
	"invalid_username":    ErrInvalidUsername,
	"weak_password":       ErrWeakPassword,
	"invalid_email":       ErrInvalidEmail,
	"invalid_role":        ErrInvalidRole,
}

// codeOf returns the code of the sentinel err wraps.
func codeOf(err error) (string, bool) {
	for code, sentinel := range errorCodes {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return "", false
}

// errorOf returns the sentinel for code.
func errorOf(code string) error {
	if err, ok := errorCodes[code]; ok {
		return err
	}
	return fmt.Errorf("auth: unknown error code %q", code)
}
