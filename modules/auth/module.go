package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/modules/storage"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AdminConfig describes the administrator seeded on start. Seeding is skipped
// when Username or Password is empty.
type AdminConfig struct {
	Username string
	Password string
	Email    string
}

// AuthModule provides authentication services.
type AuthModule struct {
	storePlugin *storage.PluginModule
	service     *AuthService
	admin       AdminConfig
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)
var _ mono.UsePluginModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(admin AdminConfig) *AuthModule {
	return &AuthModule{
		admin: admin,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// SetPlugin receives the storage plugin from the framework.
func (m *AuthModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "store" {
		if storePlugin, ok := plugin.(*storage.PluginModule); ok {
			m.storePlugin = storePlugin
			log.Println("[auth] Storage plugin injected")
		}
	}
}

// Start initializes the auth module.
func (m *AuthModule) Start(ctx context.Context) error {
	if m.storePlugin == nil || m.storePlugin.Port() == nil {
		return fmt.Errorf("storage plugin not set - ensure 'store' plugin is registered")
	}

	m.service = NewAuthService(m.storePlugin.Port(), NewPasswordHasher())

	if m.admin.Username != "" && m.admin.Password != "" {
		created, err := m.service.EnsureAdmin(ctx, m.admin.Username, m.admin.Password, m.admin.Email)
		if err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
		if created {
			log.Printf("[auth] Seeded admin account %q", m.admin.Username)
		}
	}

	log.Println("[auth] Module started")
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "service not initialized",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"register",
		json.Unmarshal,
		json.Marshal,
		m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"login",
		json.Unmarshal,
		json.Marshal,
		m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-user",
		json.Unmarshal,
		json.Marshal,
		m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, get-user")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserReply, error) {
	return userReply(m.service.Register(ctx, req))
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (UserReply, error) {
	return userReply(m.service.Login(ctx, req.Username, req.Password))
}

// userReply turns known errors into reply codes. Anything else fails the call.
func userReply(user *shop.User, err error) (UserReply, error) {
	if err != nil {
		if code, ok := codeOf(err); ok {
			return UserReply{Code: code}, nil
		}
		return UserReply{}, err
	}
	return UserReply{User: ProfileOf(user)}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{}, err
	}
	if user == nil {
		return GetUserResponse{Found: false}, nil
	}
	return GetUserResponse{Found: true, User: ProfileOf(user)}, nil
}
