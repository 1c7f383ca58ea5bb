package audit

import (
	"context"
	"sync"
	"time"

	id "testament/pkg/domain"
)

// Store is the persistence sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOwner(ctx context.Context, owner id.AccountID) ([]Event, error)
}

// Publisher captures structured audit events. By default it appends
// synchronously; with WithAsyncBuffer it decouples emitters from the sink
// through a bounded channel drained by a background goroutine. Close drains
// the buffer before returning.
type Publisher struct {
	store Store

	inbox chan Event
	done  chan struct{}

	// mu protects closed so an Emit racing Close drops its event instead of
	// sending on a closed channel.
	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

type PublisherOption func(*publisherConfig)

type publisherConfig struct {
	bufferSize int
}

// WithAsyncBuffer switches the publisher to asynchronous mode with the given
// channel capacity. When the buffer is full, events are dropped rather than
// blocking the emitting operation; the audit trail is best-effort under
// sustained overload, never a source of backpressure on claims.
func WithAsyncBuffer(size int) PublisherOption {
	return func(cfg *publisherConfig) {
		cfg.bufferSize = size
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	cfg := &publisherConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	p := &Publisher{store: store}
	if cfg.bufferSize > 0 {
		p.inbox = make(chan Event, cfg.bufferSize)
		p.done = make(chan struct{})
		go p.run()
	}
	return p
}

// Emit records an event, stamping the timestamp if the caller left it zero.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		// Publisher shut down; drop.
		return nil
	}
	select {
	case p.inbox <- event:
	default:
		// Buffer full; drop.
	}
	return nil
}

// List returns the events recorded for one owner's will.
func (p *Publisher) List(ctx context.Context, owner id.AccountID) ([]Event, error) {
	return p.store.ListByOwner(ctx, owner)
}

// Close stops the background drain, flushing any buffered events first.
// Safe to call multiple times.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			p.mu.Lock()
			p.closed = true
			p.mu.Unlock()
			close(p.inbox)
			<-p.done
		}
	})
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.inbox {
		// Sink errors are swallowed here: the mutation already committed and
		// must not be failed retroactively by the audit path.
		_ = p.store.Append(context.Background(), event)
	}
}
