package orchestrator

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventGenerationStarted indicates a generation took a ticket.
	EventGenerationStarted EventType = "generation_started"
	// EventGenerationCompleted indicates a generated set was installed.
	EventGenerationCompleted EventType = "generation_completed"
	// EventGenerationFallback indicates the fallback set was installed.
	EventGenerationFallback EventType = "generation_fallback"
	// EventGenerationStale indicates a newer generation won the race.
	EventGenerationStale EventType = "generation_stale"
	// EventExecutionStarted indicates an id was resolved and dispatched.
	EventExecutionStarted EventType = "execution_started"
	// EventExecutionCompleted indicates a success result was stored.
	EventExecutionCompleted EventType = "execution_completed"
	// EventExecutionFailed indicates an error result was stored.
	EventExecutionFailed EventType = "execution_failed"
)

// Event is emitted by the orchestrator for UIs and logs.
type Event struct {
	Type EventType
	// ActionID is the id the caller executed, for execution events.
	ActionID string
	// ResolvedID is the recommendation that actually ran.
	ResolvedID string
	// Generation is the ticket of the generation, for generation events.
	Generation uint64
	Message    string
	Err        error
	Timestamp  time.Time
}

// EventEmitter delivers events on a buffered channel.
// It never blocks the pipeline for longer than a short grace period.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
	logger       *zap.Logger
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int, logger *zap.Logger) *EventEmitter {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventEmitter{
		events: make(chan Event, bufferSize),
		logger: logger,
	}
}

// Emit sends an event. If the buffer is full it waits up to 100ms for the
// receiver to drain before dropping the event.
func (e *EventEmitter) Emit(event Event) {
	if e == nil {
		return
	}

	select {
	case e.events <- event:
		return
	default:
	}

	timer := time.NewTimer(100 * time.Millisecond)
	defer timer.Stop()

	select {
	case e.events <- event:
	case <-timer.C:
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // every 10th drop
			e.logger.Warn("event channel full, dropped event",
				zap.Uint64("total_dropped", count),
				zap.String("type", string(event.Type)))
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel. Emit must not be called afterwards.
func (e *EventEmitter) Close() {
	close(e.events)
}
