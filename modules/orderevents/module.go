package orderevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/emmanuel197/kuandorwear-media/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Config configures event forwarding. Forwarding is disabled when Brokers is empty.
type Config struct {
	Brokers  []string
	Topic    string
	FeedSize int
}

// RecentRequest asks for the most recent events.
type RecentRequest struct {
	Limit int `json:"limit"`
}

// RecentResponse carries events newest first.
type RecentResponse struct {
	Events []FeedEntry `json:"events"`
}

// OrderEventsModule consumes order and product events. It keeps a feed of the
// latest events and forwards every event to Kafka when brokers are configured.
type OrderEventsModule struct {
	cfg  Config
	feed *feed

	// mu guards forwarder. Consumers hold it for reading while forwarding,
	// so Stop never closes a forwarder that is in use.
	mu        sync.RWMutex
	forwarder Forwarder
}

var _ mono.Module = (*OrderEventsModule)(nil)
var _ mono.EventConsumerModule = (*OrderEventsModule)(nil)
var _ mono.ServiceProviderModule = (*OrderEventsModule)(nil)
var _ mono.HealthCheckableModule = (*OrderEventsModule)(nil)

// NewModule creates the module.
func NewModule(cfg Config) *OrderEventsModule {
	if cfg.Topic == "" {
		cfg.Topic = "orders"
	}
	return &OrderEventsModule{
		cfg:  cfg,
		feed: newFeed(cfg.FeedSize),
	}
}

// SetForwarder replaces the forwarder created on Start.
func (m *OrderEventsModule) SetForwarder(f Forwarder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwarder = f
}

func (m *OrderEventsModule) forwarding() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forwarder != nil
}

func (m *OrderEventsModule) Name() string {
	return "orderevents"
}

func (m *OrderEventsModule) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forwarder == nil && len(m.cfg.Brokers) > 0 {
		fwd, err := NewKafkaForwarder(m.cfg.Brokers, m.cfg.Topic)
		if err != nil {
			// The feed still works without Kafka.
			log.Printf("[orderevents] Kafka forwarding disabled: %v", err)
		} else {
			m.forwarder = fwd
		}
	}
	log.Printf("[orderevents] Module started - forwarding=%t topic=%s", m.forwarder != nil, m.cfg.Topic)
	return nil
}

func (m *OrderEventsModule) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forwarder != nil {
		if err := m.forwarder.Close(); err != nil {
			log.Printf("[orderevents] Error closing forwarder: %v", err)
		}
		m.forwarder = nil
	}
	log.Println("[orderevents] Module stopped")
	return nil
}

func (m *OrderEventsModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"forwarding": m.forwarding(),
			"topic":      m.cfg.Topic,
		},
	}
}

func (m *OrderEventsModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.OrderPlacedV1, m.handleOrderPlaced, m); err != nil {
		return fmt.Errorf("failed to register OrderPlaced consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.OrderStatusChangedV1, m.handleOrderStatusChanged, m); err != nil {
		return fmt.Errorf("failed to register OrderStatusChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.ProductDeletedV1, m.handleProductDeleted, m); err != nil {
		return fmt.Errorf("failed to register ProductDeleted consumer: %w", err)
	}

	log.Printf("[orderevents] Registered event consumers: OrderPlaced, OrderStatusChanged, ProductDeleted")
	return nil
}

func (m *OrderEventsModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"recent-order-events",
		json.Unmarshal,
		json.Marshal,
		m.handleRecent,
	); err != nil {
		return fmt.Errorf("failed to register recent-order-events service: %w", err)
	}
	log.Printf("[orderevents] Registered services: recent-order-events")
	return nil
}

func (m *OrderEventsModule) handleOrderPlaced(_ context.Context, event events.OrderPlacedEvent, _ *mono.Msg) error {
	key := strconv.FormatUint(uint64(event.OrderID), 10)
	m.record("order_placed", key,
		fmt.Sprintf("Order #%d placed by customer %d: %d item(s), total %s", event.OrderID, event.CustomerID, event.ItemCount, event.TotalAmount.StringFixed(2)),
		event.PlacedAt, event)
	return nil
}

func (m *OrderEventsModule) handleOrderStatusChanged(_ context.Context, event events.OrderStatusChangedEvent, _ *mono.Msg) error {
	key := strconv.FormatUint(uint64(event.OrderID), 10)
	m.record("order_status_changed", key,
		fmt.Sprintf("Order #%d moved from %s to %s", event.OrderID, event.From, event.To),
		event.ChangedAt, event)
	return nil
}

func (m *OrderEventsModule) handleProductDeleted(_ context.Context, event events.ProductDeletedEvent, _ *mono.Msg) error {
	key := strconv.FormatUint(uint64(event.ProductID), 10)
	m.record("product_deleted", key,
		fmt.Sprintf("Product #%d of supplier %d deleted", event.ProductID, event.SupplierID),
		event.DeletedAt, event)
	return nil
}

func (m *OrderEventsModule) handleRecent(_ context.Context, req RecentRequest, _ *mono.Msg) (RecentResponse, error) {
	return RecentResponse{Events: m.Recent(req.Limit)}, nil
}

// record appends to the feed and forwards. Forwarding errors are logged only.
func (m *OrderEventsModule) record(eventType, key, message string, at time.Time, event any) {
	if at.IsZero() {
		at = time.Now()
	}
	log.Printf("[orderevents] %s", message)
	m.feed.add(FeedEntry{Type: eventType, Key: key, Message: message, Timestamp: at})

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forwarder == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[orderevents] Failed to encode %s: %v", eventType, err)
		return
	}
	if err := m.forwarder.Forward(eventType, key, payload); err != nil {
		log.Printf("[orderevents] Forwarding failed: %v", err)
	}
}

// Recent returns up to limit events, newest first. limit <= 0 returns the whole feed.
func (m *OrderEventsModule) Recent(limit int) []FeedEntry {
	return m.feed.recent(limit)
}
