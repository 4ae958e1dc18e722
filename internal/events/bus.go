// Package events carries the trade lifecycle notifications that feed
// logging and the status API.
package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventSignal        EventType = "SIGNAL"
	EventOrderPlaced   EventType = "ORDER_PLACED"
	EventOrderFilled   EventType = "ORDER_FILLED"
	EventOrderRejected EventType = "ORDER_REJECTED"
	EventOrderTimedOut EventType = "ORDER_TIMED_OUT"
	EventTradeSettled  EventType = "TRADE_SETTLED"
	EventDayRollover   EventType = "DAY_ROLLOVER"
	EventGoalMet       EventType = "GOAL_MET"
	EventError         EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// Bus manages event publishing and subscriptions
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (b *Bus) Subscribe(eventType EventType, subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (b *Bus) SubscribeAll(subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.allSubs = append(b.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := b.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	for _, sub := range b.allSubs {
		go sub(event)
	}
}

// PublishSignal publishes a signal detection event
func (b *Bus) PublishSignal(mode, symbol, side, reason string) {
	b.Publish(Event{
		Type: EventSignal,
		Data: map[string]interface{}{
			"mode":   mode,
			"symbol": symbol,
			"side":   side,
			"reason": reason,
		},
	})
}

// PublishOrderPlaced publishes an order submission event
func (b *Bus) PublishOrderPlaced(mode, symbol, side, orderID string, notional float64) {
	b.Publish(Event{
		Type: EventOrderPlaced,
		Data: map[string]interface{}{
			"mode":     mode,
			"symbol":   symbol,
			"side":     side,
			"order_id": orderID,
			"notional": notional,
		},
	})
}

// PublishOrderFilled publishes a confirmed fill
func (b *Bus) PublishOrderFilled(mode, symbol, side, orderID string, fillPrice float64) {
	b.Publish(Event{
		Type: EventOrderFilled,
		Data: map[string]interface{}{
			"mode":       mode,
			"symbol":     symbol,
			"side":       side,
			"order_id":   orderID,
			"fill_price": fillPrice,
		},
	})
}

// PublishOrderRejected publishes an order the exchange refused
func (b *Bus) PublishOrderRejected(mode, symbol, side, reason string) {
	b.Publish(Event{
		Type: EventOrderRejected,
		Data: map[string]interface{}{
			"mode":   mode,
			"symbol": symbol,
			"side":   side,
			"reason": reason,
		},
	})
}

// PublishOrderTimedOut publishes an order whose fill was never confirmed
func (b *Bus) PublishOrderTimedOut(mode, symbol, side, orderID string) {
	b.Publish(Event{
		Type: EventOrderTimedOut,
		Data: map[string]interface{}{
			"mode":     mode,
			"symbol":   symbol,
			"side":     side,
			"order_id": orderID,
		},
	})
}

// PublishGoalMet publishes a mode reaching its daily profit target
func (b *Bus) PublishGoalMet(mode string, target float64) {
	b.Publish(Event{
		Type: EventGoalMet,
		Data: map[string]interface{}{
			"mode":   mode,
			"target": target,
		},
	})
}

// PublishError publishes a contained failure for observability
func (b *Bus) PublishError(component, message string) {
	b.Publish(Event{
		Type: EventError,
		Data: map[string]interface{}{
			"component": component,
			"message":   message,
		},
	})
}

// PublishTradeSettled publishes a settled trade outcome
func (b *Bus) PublishTradeSettled(mode, symbol, side, outcome string, pnl float64) {
	b.Publish(Event{
		Type: EventTradeSettled,
		Data: map[string]interface{}{
			"mode":    mode,
			"symbol":  symbol,
			"side":    side,
			"outcome": outcome,
			"pnl":     pnl,
		},
	})
}

// PublishDayRollover publishes a calendar-day rollover
func (b *Bus) PublishDayRollover(day int) {
	b.Publish(Event{
		Type: EventDayRollover,
		Data: map[string]interface{}{"day": day},
	})
}
