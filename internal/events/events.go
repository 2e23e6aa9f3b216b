package events

import (
	"sync"
	"time"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/model"
)

// Event represents a generic event structure
type Event struct {
	Type      string
	Timestamp time.Time
	Data      interface{}
}

// RunFinishedEvent is published after every invocation of the FL CLI
type RunFinishedEvent struct {
	SweepId string
	Index   int
	Total   int
	Summary model.RunSummary
}

// SweepFinishedEvent is published once the result files of a sweep are written
type SweepFinishedEvent struct {
	SweepId      string
	SweepName    string
	Runs         int
	Failed       int
	TimedOut     int
	Canceled     bool
	SummaryFile  string
	RoundsFile   string
	ClassesFile  string
	ErrorMessage string
}

// EventBus represents the event bus that handles event subscription and dispatching
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan<- Event
}

// NewEventBus creates a new instance of the event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan<- Event),
	}
}

// Subscribe adds a new subscriber for a given event type
func (eb *EventBus) Subscribe(eventType string, subscriber chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// Unsubscribe removes a subscriber; the channel is not closed
func (eb *EventBus) Unsubscribe(eventType string, subscriber chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	subscribers := eb.subscribers[eventType]
	for i, s := range subscribers {
		if s == subscriber {
			eb.subscribers[eventType] = append(subscribers[:i], subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers of a given event type
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	subscribers := append([]chan<- Event(nil), eb.subscribers[event.Type]...)
	eb.mu.RUnlock()

	for _, subscriber := range subscribers {
		subscriber <- event
	}
}
