package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/logger"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/codec"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/domain"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/event"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/repository"
)

// EventPublisher announces persisted cart states. *event.Producer implements
// it.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart) error
	PublishCartCleared(ctx context.Context, cart *domain.Cart) error
}

type snapshotJob struct {
	version       uint64
	cart          domain.Cart
	cleared       bool
	correlationID string
}

// persister writes cart snapshots in the background. It holds at most one
// pending snapshot: scheduling while a snapshot is pending replaces it, so
// storage always ends up with the newest state.
type persister struct {
	store   repository.SnapshotStore
	events  EventPublisher
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending *snapshotJob
	latest  uint64
	closed  bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func newPersister(store repository.SnapshotStore, events EventPublisher, logger *slog.Logger, timeout time.Duration) *persister {
	p := &persister{
		store:   store,
		events:  events,
		logger:  logger,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// schedule queues job for writing and returns immediately. A job older than
// one already scheduled is dropped.
func (p *persister) schedule(job snapshotJob) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("cart persister closed, dropping snapshot")
		return
	}
	if job.version <= p.latest {
		p.mu.Unlock()
		cartPersistSuperseded.Inc()
		return
	}
	p.latest = job.version
	if p.pending != nil {
		cartPersistSuperseded.Inc()
		// A clear must still be announced even if a later state replaces it.
		job.cleared = job.cleared || p.pending.cleared
	}
	p.pending = &job
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.quit:
			p.drain()
			return
		}
	}
}

func (p *persister) drain() {
	for {
		p.mu.Lock()
		job := p.pending
		p.pending = nil
		p.mu.Unlock()
		if job == nil {
			return
		}
		p.write(job)
	}
}

// write saves one snapshot and then publishes the matching events. Every
// failure is logged and dropped.
func (p *persister) write(job *snapshotJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if job.correlationID != "" {
		ctx = logger.WithCorrelationID(ctx, job.correlationID)
	}

	blob, err := codec.Encode(&job.cart)
	if err != nil {
		cartPersistWrites.WithLabelValues(resultEncodeError).Inc()
		p.logger.ErrorContext(ctx, "failed to encode cart snapshot", slog.String("error", err.Error()))
		return
	}

	start := time.Now()
	err = p.store.Save(ctx, blob)
	cartPersistDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		cartPersistWrites.WithLabelValues(resultError).Inc()
		p.logger.ErrorContext(ctx, "failed to persist cart snapshot",
			slog.Int("item_count", job.cart.ItemCount()),
			slog.String("error", err.Error()),
		)
		return
	}
	cartPersistWrites.WithLabelValues(resultOK).Inc()

	if p.events == nil {
		return
	}
	if job.cleared {
		if err := p.events.PublishCartCleared(ctx, &job.cart); err != nil {
			cartEventFailures.WithLabelValues(event.TopicCartCleared).Inc()
			p.logger.ErrorContext(ctx, "failed to publish cart.cleared event", slog.String("error", err.Error()))
		}
	}
	if err := p.events.PublishCartUpdated(ctx, &job.cart); err != nil {
		cartEventFailures.WithLabelValues(event.TopicCartUpdated).Inc()
		p.logger.ErrorContext(ctx, "failed to publish cart.updated event", slog.String("error", err.Error()))
	}
}

// close stops accepting snapshots, writes the pending one and waits for the
// worker to exit or ctx to expire.
func (p *persister) close(ctx context.Context) error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.quit)
	})
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
