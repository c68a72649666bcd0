package uploads

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-monolith/mono"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	"github.com/go-monolith/mono/pkg/types"
)

// BucketName is the fs-jetstream bucket holding uploaded images.
const BucketName = "images"

// ErrNotStarted is returned by the module's service before Start binds the bucket.
var ErrNotStarted = errors.New("uploads module not started")

// Module stores uploaded images in the fs-jetstream plugin.
type Module struct {
	files   *fsjetstream.PluginModule
	store   *deferredStore
	service *Service
	logger  types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new uploads module.
func NewModule(maxBytes int64, logger types.Logger) *Module {
	store := &deferredStore{}
	return &Module{
		store:   store,
		service: NewService(store, maxBytes),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "uploads"
}

// SetPlugin receives the file storage plugin from the framework.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "files" {
		files, ok := plugin.(*fsjetstream.PluginModule)
		if !ok {
			m.logger.Error("Invalid plugin type for files",
				"alias", alias,
				"expected", "*fsjetstream.PluginModule")
			return
		}
		m.files = files
		m.logger.Info("Received file storage plugin", "alias", alias)
	}
}

// Start initializes the module and its service.
func (m *Module) Start(_ context.Context) error {
	if m.files == nil {
		return fmt.Errorf("required plugin 'files' not registered")
	}

	bucket := m.files.Bucket(BucketName)
	if bucket == nil {
		return fmt.Errorf("bucket '%s' not found in file storage plugin", BucketName)
	}

	m.store.bind(NewBucketStore(bucket))

	m.logger.Info("Uploads module started", "bucket", BucketName, "maxBytes", m.service.MaxBytes())
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Uploads module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if !m.store.bound() {
		return mono.HealthStatus{
			Healthy: false,
			Message: "bucket not bound",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"bucket":   BucketName,
			"maxBytes": m.service.MaxBytes(),
		},
	}
}

// Service returns the upload service. Its store operations fail with
// ErrNotStarted until Start has bound the bucket.
func (m *Module) Service() *Service {
	return m.service
}

// deferredStore forwards to an ImageStore bound at Start, so consumers can
// hold the service before the module starts.
type deferredStore struct {
	mu    sync.RWMutex
	store ImageStore
}

func (d *deferredStore) bind(store ImageStore) {
	d.mu.Lock()
	d.store = store
	d.mu.Unlock()
}

func (d *deferredStore) bound() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.store != nil
}

func (d *deferredStore) current() (ImageStore, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.store == nil {
		return nil, ErrNotStarted
	}
	return d.store, nil
}

func (d *deferredStore) Put(ctx context.Context, key string, data []byte, headers map[string]string) error {
	store, err := d.current()
	if err != nil {
		return err
	}
	return store.Put(ctx, key, data, headers)
}

func (d *deferredStore) Get(ctx context.Context, key string) ([]byte, map[string]string, bool, error) {
	store, err := d.current()
	if err != nil {
		return nil, nil, false, err
	}
	return store.Get(ctx, key)
}
