package storage

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// DriverMemory selects the in-memory backend.
const DriverMemory = "memory"

const sessionPurgeInterval = 10 * time.Minute

// Config selects and configures the storage backend.
type Config struct {
	Driver string
	// DSN is the SQLite file path or the Postgres connection string.
	DSN   string
	Debug bool
}

// PluginModule provides the Storage backend as a mono plugin.
// Plugins start before regular modules and stop after them.
type PluginModule struct {
	container types.ServiceContainer
	cfg       Config
	store     Storage

	stopPurge chan struct{}
	purgeWG   sync.WaitGroup
}

// Compile-time interface checks.
var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates a storage plugin for the given configuration.
func NewPluginModule(cfg Config) *PluginModule {
	return &PluginModule{cfg: cfg}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "storage"
}

// Start opens the configured backend.
func (m *PluginModule) Start(_ context.Context) error {
	switch m.cfg.Driver {
	case DriverMemory:
		mem := NewMemStorage()
		m.store = mem
		m.startSessionPurge(mem)
		log.Println("[storage] Using in-memory storage")
	case DriverSQLite, DriverPostgres:
		db, err := Open(m.cfg.Driver, m.cfg.DSN, m.cfg.Debug)
		if err != nil {
			return err
		}
		m.store = db
		m.startSessionPurge(db)
		log.Printf("[storage] Using %s storage", m.cfg.Driver)
	default:
		return fmt.Errorf("unknown storage driver %q", m.cfg.Driver)
	}
	log.Println("[storage] Plugin started")
	return nil
}

// Stop closes the backend.
func (m *PluginModule) Stop(_ context.Context) error {
	if m.stopPurge != nil {
		close(m.stopPurge)
		m.purgeWG.Wait()
		m.stopPurge = nil
	}
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			log.Printf("[storage] Error closing storage: %v", err)
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	log.Println("[storage] Plugin stopped")
	return nil
}

// SetContainer sets the service container for this plugin.
func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

// Container returns the service container for this plugin.
func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// Port returns the Storage used by consuming modules. It is nil before Start.
func (m *PluginModule) Port() Storage {
	return m.store
}

// Health returns the current health status.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "storage not initialized",
		}
	}
	if db, ok := m.store.(*DBStorage); ok {
		if err := db.Ping(ctx); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("database ping failed: %v", err),
			}
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.cfg.Driver,
		},
	}
}

// sessionPurger is implemented by every backend that keeps sessions.
type sessionPurger interface {
	PurgeExpiredSessions() (int64, error)
}

func (m *PluginModule) startSessionPurge(store sessionPurger) {
	m.stopPurge = make(chan struct{})
	m.purgeWG.Add(1)
	go func() {
		defer m.purgeWG.Done()
		ticker := time.NewTicker(sessionPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopPurge:
				return
			case <-ticker.C:
				n, err := store.PurgeExpiredSessions()
				if err != nil {
					log.Printf("[storage] Session purge failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("[storage] Purged %d expired sessions", n)
				}
			}
		}
	}()
}
