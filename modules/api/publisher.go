package api

import (
	"log"

	"github.com/emmanuel197/kuandorwear-media/events"
	"github.com/go-monolith/mono"
)

// publisher emits domain events. Publishing is best-effort: failures are
// logged and never fail the request that caused the event.
type publisher interface {
	OrderPlaced(events.OrderPlacedEvent)
	OrderStatusChanged(events.OrderStatusChangedEvent)
	ProductDeleted(events.ProductDeletedEvent)
}

type busPublisher struct {
	bus mono.EventBus
}

func (p busPublisher) OrderPlaced(e events.OrderPlacedEvent) {
	if err := events.OrderPlacedV1.Publish(p.bus, e, nil); err != nil {
		log.Printf("[api] Warning: failed to publish OrderPlaced for order %d: %v", e.OrderID, err)
	}
}

func (p busPublisher) OrderStatusChanged(e events.OrderStatusChangedEvent) {
	if err := events.OrderStatusChangedV1.Publish(p.bus, e, nil); err != nil {
		log.Printf("[api] Warning: failed to publish OrderStatusChanged for order %d: %v", e.OrderID, err)
	}
}

func (p busPublisher) ProductDeleted(e events.ProductDeletedEvent) {
	if err := events.ProductDeletedV1.Publish(p.bus, e, nil); err != nil {
		log.Printf("[api] Warning: failed to publish ProductDeleted for product %d: %v", e.ProductID, err)
	}
}

type noopPublisher struct{}

func (noopPublisher) OrderPlaced(events.OrderPlacedEvent)               {}
func (noopPublisher) OrderStatusChanged(events.OrderStatusChangedEvent) {}
func (noopPublisher) ProductDeleted(events.ProductDeletedEvent)         {}
