package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventCycleStarted     EventType = "cycle_started"
	EventCycleCompleted   EventType = "cycle_completed"
	EventDevicesUpserted  EventType = "devices_upserted"
	EventSnapshotAppended EventType = "snapshot_appended"
	EventLabelUpdated     EventType = "label_updated"
	EventLabelDeleted     EventType = "label_deleted"
	EventDeviceDeleted    EventType = "device_deleted"
	EventConfigReloaded   EventType = "config_reloaded"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers. A nil bus discards the event.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
