package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// Dispatcher routes progression events to named handlers. Each handler
// runs with panic recovery and a bounded retry; events that exhaust
// their retries land in the dead letter queue for inspection.
type Dispatcher struct {
	eventBus   shared.EventBus
	registry   map[shared.EventType][]registration
	retry      RetryConfig
	deadLetter *DeadLetterQueue
	logger     *slog.Logger
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
}

type registration struct {
	name    string
	handler shared.EventHandler
}

// RetryConfig bounds redelivery of a failing handler.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig returns the production retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
	}
}

// DispatcherConfig wires the dispatcher.
type DispatcherConfig struct {
	EventBus shared.EventBus

	// RetryConfig defaults to DefaultRetryConfig when zero.
	RetryConfig RetryConfig

	// DeadLetterQueueSize caps retained failed events.
	DeadLetterQueueSize int

	Logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the given bus.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.RetryConfig.MaxRetries <= 0 {
		config.RetryConfig = DefaultRetryConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		eventBus:   config.EventBus,
		registry:   make(map[shared.EventType][]registration),
		retry:      config.RetryConfig,
		deadLetter: NewDeadLetterQueue(config.DeadLetterQueueSize),
		logger:     config.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Register attaches a named handler to an event type.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	if name == "" {
		return errors.New("handler name cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry[eventType] = append(d.registry[eventType], registration{name: name, handler: handler})
	d.logger.Debug("registered handler", "event_type", eventType, "handler", name)
	return nil
}

// Start subscribes the dispatcher to the bus. Registrations made after
// Start still take effect: routing reads the registry per event.
func (d *Dispatcher) Start() error {
	return d.eventBus.SubscribeAll(d.Dispatch)
}

// Dispatch delivers one event to every handler registered for its type.
func (d *Dispatcher) Dispatch(event shared.Event) error {
	d.mu.RLock()
	regs := d.registry[event.EventType()]
	d.mu.RUnlock()

	var firstErr error
	for _, reg := range regs {
		if err := d.run(event, reg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *Dispatcher) run(event shared.Event, reg registration) error {
	var lastErr error
	for attempt := 0; attempt <= d.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-d.ctx.Done():
				return d.ctx.Err()
			case <-time.After(d.backoff(attempt)):
			}
		}

		lastErr = d.invoke(event, reg)
		if lastErr == nil {
			return nil
		}
		d.logger.Warn("handler attempt failed",
			"handler", reg.name,
			"event_type", event.EventType(),
			"attempt", attempt+1,
			"error", lastErr,
		)
	}

	d.deadLetter.Add(DeadLetterEntry{
		Event:       event,
		HandlerName: reg.name,
		Error:       lastErr,
		Attempts:    d.retry.MaxRetries + 1,
		FailedAt:    time.Now(),
	})
	return fmt.Errorf("handler %s failed after %d attempts: %w", reg.name, d.retry.MaxRetries+1, lastErr)
}

func (d *Dispatcher) invoke(event shared.Event, reg registration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic recovered",
				"handler", reg.name,
				"event_type", event.EventType(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return reg.handler(event)
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	wait := float64(d.retry.InitialBackoff)
	for i := 1; i < attempt; i++ {
		wait *= d.retry.Multiplier
	}
	if wait > float64(d.retry.MaxBackoff) {
		wait = float64(d.retry.MaxBackoff)
	}
	return time.Duration(wait)
}

// Stop cancels pending retries.
func (d *Dispatcher) Stop() error {
	d.cancel()
	return nil
}

// DeadLetters returns the queue of events that exhausted their retries.
func (d *Dispatcher) DeadLetters() *DeadLetterQueue {
	return d.deadLetter
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry records an event a handler could not process.
type DeadLetterEntry struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue keeps the most recent failed deliveries, bounded.
type DeadLetterQueue struct {
	mu      sync.RWMutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue creates a queue holding at most maxSize entries.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add appends an entry, evicting the oldest at capacity.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of the retained entries.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]DeadLetterEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Size reports the number of retained entries.
func (q *DeadLetterQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}
