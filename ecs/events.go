package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

// ActionPhase identifies where in its lifetime an action event was raised.
type ActionPhase string

const (
	ActionStarted  ActionPhase = "started"
	ActionFinished ActionPhase = "finished"
	ProgramDone    ActionPhase = "done"
)

// ActionEventType is the Event.Type used for ActionEvent payloads.
const ActionEventType = "action"

// ActionEvent is emitted by the behavior system when an entity's action
// starts or finishes, and once when its program is exhausted.
type ActionEvent struct {
	Entity Entity
	Phase  ActionPhase
	Kind   string
	X, Y   float64
}

// maxQueuedEvents bounds the queue when nobody drains it (headless runs).
const maxQueuedEvents = 1024

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event, dropping the oldest one when the queue is full.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	if len(q.items) >= maxQueuedEvents {
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
