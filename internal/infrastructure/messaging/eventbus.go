// Package messaging implements the in-process event bus that carries domain
// events from the session engine to notification sinks and forwarders.
package messaging

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEventBusClosed is returned when operations are attempted on a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("handler cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps every handler invocation.
type Middleware func(shared.EventHandler) shared.EventHandler

// RecoveryMiddleware turns handler panics into ErrHandlerPanic.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("event handler panicked",
						logger.String("event_type", string(event.EventType())),
						logger.Any("panic", r),
						logger.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs handler latency at debug level.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			log.Debug("event handled",
				logger.String("event_type", string(event.EventType())),
				logger.Latency(time.Since(start)),
				logger.Bool("ok", err == nil),
			)
			return err
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBusConfig contains configuration for InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode runs handlers on a bounded worker pool instead of inline.
	AsyncMode bool

	// WorkerPoolSize is the number of concurrent workers for async processing.
	WorkerPoolSize int

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultInMemoryEventBusConfig returns the synchronous configuration used by
// the CLI: handlers finish before Publish returns.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		WorkerPoolSize: 4,
	}
}

// InMemoryEventBus implements shared.EventBus inside one process.
//
// The session publishes while holding its lock, so handlers must not call
// back into the session synchronously.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	middlewares []Middleware
	asyncMode   bool
	workerPool  chan struct{}
	log         *logger.Logger
	metrics     *EventBusMetrics
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 4
	}

	log := config.Logger.With(logger.Component("eventbus"))
	return &InMemoryEventBus{
		handlers:    make(map[shared.EventType][]shared.EventHandler),
		middlewares: []Middleware{RecoveryMiddleware(log), LoggingMiddleware(log)},
		asyncMode:   config.AsyncMode,
		workerPool:  make(chan struct{}, config.WorkerPoolSize),
		log:         log,
		metrics:     NewEventBusMetrics(),
		closeCh:     make(chan struct{}),
	}
}

// Use appends a middleware applied to handlers subscribed afterwards.
func (b *InMemoryEventBus) Use(m Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middlewares = append(b.middlewares, m)
}

func (b *InMemoryEventBus) wrap(h shared.EventHandler) shared.EventHandler {
	for i := len(b.middlewares) - 1; i >= 0; i-- {
		h = b.middlewares[i](h)
	}
	return h
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], b.wrap(handler))
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.allHandlers = append(b.allHandlers, b.wrap(handler))
	return nil
}

// Publish sends an event to typed handlers first, then catch-all handlers.
// Handler errors are logged and never returned to the publisher.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	b.metrics.RecordPublish(event.EventType())

	for _, handler := range handlers {
		if b.asyncMode {
			b.executeAsync(event, handler)
			continue
		}
		b.execute(event, handler)
	}
	return nil
}

func (b *InMemoryEventBus) execute(event shared.Event, handler shared.EventHandler) {
	err := handler(event)
	b.metrics.RecordHandlerExecution(err == nil)
	if err != nil {
		b.log.Error("event handler failed",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}

func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		select {
		case b.workerPool <- struct{}{}:
			defer func() { <-b.workerPool }()
		case <-b.closeCh:
			return
		}
		b.execute(event, handler)
	}()
}

// Close stops accepting events and waits for running handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()
	b.log.Debug("event bus closed")
	return nil
}

// Metrics returns the bus counters.
func (b *InMemoryEventBus) Metrics() EventBusMetricsSnapshot {
	return b.metrics.Snapshot()
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics counts published events and handler outcomes.
type EventBusMetrics struct {
	mu        sync.Mutex
	published map[shared.EventType]int64
	successes int64
	failures  int64
}

// NewEventBusMetrics creates an empty counter set.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{published: make(map[shared.EventType]int64)}
}

// RecordPublish counts one published event.
func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[eventType]++
}

// RecordHandlerExecution counts one handler run.
func (m *EventBusMetrics) RecordHandlerExecution(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.successes++
	} else {
		m.failures++
	}
}

// Snapshot returns a copy of the counters.
func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	published := make(map[shared.EventType]int64, len(m.published))
	var total int64
	for k, v := range m.published {
		published[k] = v
		total += v
	}
	return EventBusMetricsSnapshot{
		TotalPublished:   total,
		PublishedByType:  published,
		HandlerSuccesses: m.successes,
		HandlerFailures:  m.failures,
	}
}

// EventBusMetricsSnapshot is a point-in-time copy of EventBusMetrics.
type EventBusMetricsSnapshot struct {
	TotalPublished   int64
	PublishedByType  map[shared.EventType]int64
	HandlerSuccesses int64
	HandlerFailures  int64
}

// ══════════════════════════════════════════════════════════════════════════════
// FORWARDING
// ══════════════════════════════════════════════════════════════════════════════

// Forward subscribes a catch-all handler that republishes every event on dst,
// such as the Redis fan-out publisher.
func Forward(bus shared.EventSubscriber, dst shared.EventPublisher) error {
	return bus.SubscribeAll(func(event shared.Event) error {
		return dst.Publish(event)
	})
}
