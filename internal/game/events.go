package game

import (
	"time"
)

// EventType identifies a game domain event.
type EventType string

const (
	EventTypeRoundStarted  EventType = "round_started"
	EventTypePlayerActed   EventType = "player_acted"
	EventTypeKnocked       EventType = "knocked"
	EventTypeResponded     EventType = "responded"
	EventTypeSettlementDue EventType = "settlement_due"
	EventTypeRoundSettled  EventType = "round_settled"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Event is any domain event published by the table.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// RoundStartedEvent is published when a round is dealt.
type RoundStartedEvent struct {
	RoundIndex   int
	StartingSeat int
	TargetScore  int
	timestamp    time.Time
}

func (e RoundStartedEvent) EventType() EventType { return EventTypeRoundStarted }
func (e RoundStartedEvent) Timestamp() time.Time { return e.timestamp }

// PlayerActedEvent is published after every committed turn action.
type PlayerActedEvent struct {
	PlayerID  string
	Seat      int
	Action    string
	Detail    string
	Version   int64
	timestamp time.Time
}

func (e PlayerActedEvent) EventType() EventType { return EventTypePlayerActed }
func (e PlayerActedEvent) Timestamp() time.Time { return e.timestamp }

// KnockedEvent is published when a knock opens the showdown.
type KnockedEvent struct {
	KnockerID     string
	HandScore     int
	ResponseOrder []int
	timestamp     time.Time
}

func (e KnockedEvent) EventType() EventType { return EventTypeKnocked }
func (e KnockedEvent) Timestamp() time.Time { return e.timestamp }

// RespondedEvent is published after each accepted showdown response.
type RespondedEvent struct {
	PlayerID  string
	Action    ResponseAction
	Remaining int
	timestamp time.Time
}

func (e RespondedEvent) EventType() EventType { return EventTypeResponded }
func (e RespondedEvent) Timestamp() time.Time { return e.timestamp }

// SettlementDueEvent is published by the transition that flips AllResponded.
// Settlement is scheduled from here rather than by an observer polling the
// flag.
type SettlementDueEvent struct {
	KnockerID string
	timestamp time.Time
}

func (e SettlementDueEvent) EventType() EventType { return EventTypeSettlementDue }
func (e SettlementDueEvent) Timestamp() time.Time { return e.timestamp }

// RoundSettledEvent is published once the round result is recorded.
type RoundSettledEvent struct {
	Record    RoundRecord
	timestamp time.Time
}

func (e RoundSettledEvent) EventType() EventType { return EventTypeRoundSettled }
func (e RoundSettledEvent) Timestamp() time.Time { return e.timestamp }

// Subscriber receives published events.
type Subscriber interface {
	OnEvent(event Event)
}

// EventBus manages event publishing and subscription.
type EventBus interface {
	Subscribe(subscriber Subscriber)
	Unsubscribe(subscriber Subscriber)
	Publish(event Event)
}

// SimpleEventBus is a basic synchronous in-memory event bus.
type SimpleEventBus struct {
	subscribers []Subscriber
}

// NewEventBus creates a new event bus.
func NewEventBus() EventBus {
	return &SimpleEventBus{subscribers: make([]Subscriber, 0)}
}

// Subscribe adds a subscriber to receive events.
func (bus *SimpleEventBus) Subscribe(subscriber Subscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber.
func (bus *SimpleEventBus) Unsubscribe(subscriber Subscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish delivers an event to all subscribers synchronously.
func (bus *SimpleEventBus) Publish(event Event) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
