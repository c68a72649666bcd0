package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/emmanuel197/kuandorwear-media/events"
	"github.com/emmanuel197/kuandorwear-media/modules/auth"
	"github.com/emmanuel197/kuandorwear-media/modules/orderevents"
	"github.com/emmanuel197/kuandorwear-media/modules/payment"
	"github.com/emmanuel197/kuandorwear-media/modules/storage"
	"github.com/emmanuel197/kuandorwear-media/modules/uploads"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
)

// Session storage backends.
const (
	SessionStoreStorage = "storage"
	SessionStoreRedis   = "redis"
)

// Config configures the HTTP API.
type Config struct {
	Port          int
	SessionTTL    time.Duration
	CookieSecure  bool
	AuthRateLimit int
	// SessionStore selects where sessions live: SessionStoreStorage keeps them
	// with the storage backend, SessionStoreRedis uses RedisAddr.
	SessionStore string
	RedisAddr    string
}

// APIModule is the HTTP API module.
type APIModule struct {
	cfg         Config
	storePlugin *storage.PluginModule
	uploads     *uploads.Module
	authAdapter auth.AuthPort
	payments    payment.Gateway
	feed        orderevents.FeedPort
	eventBus    mono.EventBus

	app           *fiber.App
	redisSessions fiber.Storage
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.UsePluginModule       = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
	_ mono.EventBusAwareModule   = (*APIModule)(nil)
	_ mono.EventEmitterModule    = (*APIModule)(nil)
)

// NewModule creates a new APIModule.
func NewModule(cfg Config) *APIModule {
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.SessionStore == "" {
		cfg.SessionStore = SessionStoreStorage
	}
	return &APIModule{cfg: cfg}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "payment", "orderevents"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "payment":
		m.payments = payment.NewAdapter(container)
	case "orderevents":
		m.feed = orderevents.NewFeedAdapter(container)
	}
}

// SetPlugin receives the storage plugin from the framework.
func (m *APIModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "store" {
		if storePlugin, ok := plugin.(*storage.PluginModule); ok {
			m.storePlugin = storePlugin
			log.Println("[api] Storage plugin injected")
		}
	}
}

// SetUploadsModule sets the uploads module used for image uploads.
func (m *APIModule) SetUploadsModule(u *uploads.Module) {
	m.uploads = u
}

// SetEventBus receives the EventBus from the framework.
func (m *APIModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *APIModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.OrderPlacedV1.ToBase(),
		events.OrderStatusChangedV1.ToBase(),
		events.ProductDeletedV1.ToBase(),
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.storePlugin == nil || m.storePlugin.Port() == nil {
		return fmt.Errorf("storage plugin not set - ensure 'store' plugin is registered")
	}
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.payments == nil {
		return fmt.Errorf("payment dependency not set")
	}

	d := deps{
		Store:    m.storePlugin.Port(),
		Auth:     m.authAdapter,
		Payments: m.payments,
		Feed:     m.feed,
	}
	if m.uploads != nil {
		d.Images = m.uploads.Service()
	}
	if m.eventBus != nil {
		d.Events = busPublisher{bus: m.eventBus}
	}

	switch m.cfg.SessionStore {
	case SessionStoreStorage:
	case SessionStoreRedis:
		m.redisSessions = newRedisStorage(m.cfg.RedisAddr)
		d.Sessions = m.redisSessions
		log.Printf("[api] Sessions stored in Redis at %s", m.cfg.RedisAddr)
	default:
		return fmt.Errorf("unknown session store %q", m.cfg.SessionStore)
	}

	m.app = newServer(m.cfg, d).newApp()

	go func() {
		addr := fmt.Sprintf(":%d", m.cfg.Port)
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%d", m.cfg.Port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app != nil {
		log.Println("[api] Shutting down HTTP server...")
		if err := m.app.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}
	if m.redisSessions != nil {
		if err := m.redisSessions.Close(); err != nil {
			log.Printf("[api] Error closing Redis session storage: %v", err)
		}
	}
	log.Println("[api] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	message := "operational"
	if m.app == nil {
		message = "not started"
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: message,
		Details: map[string]any{
			"port":         m.cfg.Port,
			"sessionStore": m.cfg.SessionStore,
			"uploads":      m.uploads != nil,
		},
	}
}
