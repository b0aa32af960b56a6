// Package messaging carries progression events from the write path to
// их обработчики: начисление монет, повышение уровня, обновление
// лидерборда. Шина работает внутри одного процесса; команды публикуют
// события после фиксации агрегата, диспетчер доставляет их с повтором.
package messaging

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ErrEventBusClosed is returned for publish or subscribe attempts after Close.
var ErrEventBusClosed = errors.New("event bus is closed")

// InMemoryEventBus delivers events to subscribers inside the process.
// Delivery is asynchronous through a bounded worker pool so a slow
// handler never blocks the command that published the event.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[shared.EventType][]shared.EventHandler
	global   []shared.EventHandler
	workers  chan struct{}
	closing  chan struct{}
	inflight sync.WaitGroup
	logger   *slog.Logger
	closed   bool
}

// InMemoryEventBusConfig tunes the bus.
type InMemoryEventBusConfig struct {
	// WorkerPoolSize bounds concurrent handler executions.
	WorkerPoolSize int

	Logger *slog.Logger
}

// DefaultInMemoryEventBusConfig returns the production defaults.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{WorkerPoolSize: 10}
}

// NewInMemoryEventBus creates a bus ready for subscriptions.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &InMemoryEventBus{
		byType:  make(map[shared.EventType][]shared.EventHandler),
		workers: make(chan struct{}, config.WorkerPoolSize),
		closing: make(chan struct{}),
		logger:  config.Logger,
	}
}

// Subscribe registers a handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.byType[eventType] = append(b.byType[eventType], handler)
	return nil
}

// SubscribeAll registers a handler that receives every event.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.global = append(b.global, handler)
	return nil
}

// Publish fans the event out to every matching subscriber. Handler
// errors are logged, not returned: publication happens after the
// aggregate is already committed, so the write must not fail here.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.byType[event.EventType()])+len(b.global))
	handlers = append(handlers, b.byType[event.EventType()]...)
	handlers = append(handlers, b.global...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.deliver(event, handler)
	}
	return nil
}

func (b *InMemoryEventBus) deliver(event shared.Event, handler shared.EventHandler) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()

		select {
		case b.workers <- struct{}{}:
			defer func() { <-b.workers }()
		case <-b.closing:
			return
		}

		if err := handler(event); err != nil {
			b.logger.Error("event handler failed",
				"event_type", event.EventType(),
				"aggregate_id", event.AggregateID(),
				"error", err,
			)
		}
	}()
}

// Close stops accepting publications and waits for in-flight handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closing)
	b.mu.Unlock()

	b.inflight.Wait()
	return nil
}
