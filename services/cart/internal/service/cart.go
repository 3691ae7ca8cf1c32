package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/errors"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/logger"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/codec"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/domain"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/pricing"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/repository"
)

// Operation names used in logs and metrics.
const (
	OpAddToCart      = "add_to_cart"
	OpRemoveFromCart = "remove_from_cart"
	OpUpdateQuantity = "update_quantity"
	OpSetDuration    = "set_cart_duration"
	OpClearCart      = "clear_cart"
)

// Config tunes the cart service.
type Config struct {
	// DefaultDurationMonths is the term of a cart that starts empty and the
	// fallback for an invalid duration when no previous one exists.
	DefaultDurationMonths int
	// PersistTimeout bounds every background snapshot write.
	PersistTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultDurationMonths: domain.DefaultDurationMonths,
		PersistTimeout:        5 * time.Second,
	}
}

// CartService owns the single app-session cart. Every mutation goes through
// its methods; reads return copies. The cart is hydrated from the snapshot
// store once, on first use or via Load, and every mutation schedules a
// background snapshot write.
//
// No method fails because of bad input. Invalid values are coerced to safe
// defaults and storage problems are logged, never returned.
type CartService struct {
	store     repository.SnapshotStore
	persister *persister
	logger    *slog.Logger
	cfg       Config

	loadGroup singleflight.Group

	mu      sync.Mutex
	cart    *domain.Cart
	loaded  bool
	version uint64
}

// NewCartService creates a cart service and starts its persister. events may
// be nil to disable event publishing. Call Close to flush pending writes.
func NewCartService(store repository.SnapshotStore, events EventPublisher, logger *slog.Logger, cfg Config) *CartService {
	if cfg.DefaultDurationMonths < 1 {
		cfg.DefaultDurationMonths = domain.DefaultDurationMonths
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultConfig().PersistTimeout
	}
	return &CartService{
		store:     store,
		persister: newPersister(store, events, logger, cfg.PersistTimeout),
		logger:    logger,
		cfg:       cfg,
		cart:      domain.New(cfg.DefaultDurationMonths),
	}
}

// Load hydrates the cart from storage if that has not happened yet and
// returns the current cart. Concurrent callers share a single read. A failed
// or unparsable read leaves an empty cart; the service still counts as
// loaded afterwards.
func (s *CartService) Load(ctx context.Context) domain.Cart {
	s.ensureLoaded(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Loaded reports whether hydration has completed.
func (s *CartService) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *CartService) ensureLoaded(ctx context.Context) {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return
	}

	_, _, _ = s.loadGroup.Do("load", func() (any, error) {
		s.mu.Lock()
		if s.loaded {
			s.mu.Unlock()
			return nil, nil
		}
		s.mu.Unlock()

		cart := s.hydrate(ctx)

		s.mu.Lock()
		s.cart = cart
		s.loaded = true
		s.mu.Unlock()
		return nil, nil
	})
}

func (s *CartService) hydrate(ctx context.Context) *domain.Cart {
	blob, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		cartHydrations.WithLabelValues(outcomeEmpty).Inc()
		s.logger.InfoContext(ctx, "no stored cart, starting empty")
		return domain.New(s.cfg.DefaultDurationMonths)
	case err != nil:
		cartHydrations.WithLabelValues(outcomeError).Inc()
		s.logger.ErrorContext(ctx, "failed to read stored cart, starting empty",
			slog.String("error", err.Error()),
		)
		return domain.New(s.cfg.DefaultDurationMonths)
	}

	cart, err := codec.DecodeStrict(blob)
	if err != nil {
		cartHydrations.WithLabelValues(outcomeReset).Inc()
		s.logger.WarnContext(ctx, "discarding unreadable stored cart",
			slog.Int("bytes", len(blob)),
			slog.String("error", err.Error()),
		)
		return domain.New(s.cfg.DefaultDurationMonths)
	}

	cartHydrations.WithLabelValues(outcomeLoaded).Inc()
	s.logger.InfoContext(ctx, "cart restored",
		slog.Int("lines", len(cart.Items)),
		slog.Int("item_count", cart.ItemCount()),
		slog.Int("cart_duration_months", cart.DurationMonths),
	)
	return cart
}

// mutate runs fn on the cart under the lock. When fn reports a change the new
// state is scheduled for persistence before the lock is released, so
// snapshots reach the persister in mutation order.
func (s *CartService) mutate(ctx context.Context, op string, cleared bool, fn func(c *domain.Cart) bool) domain.Cart {
	s.ensureLoaded(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := fn(s.cart)
	snapshot := s.cart.Clone()
	cartOperations.WithLabelValues(op).Inc()
	if changed {
		s.version++
		s.persister.schedule(snapshotJob{
			version:       s.version,
			cart:          snapshot.Clone(),
			cleared:       cleared,
			correlationID: logger.CorrelationIDFromContext(ctx),
		})
	}
	return snapshot
}

// AddToCart puts the payload's product in the cart, merging with an existing
// line for the same product. It reports false, leaving the cart untouched,
// only when the payload has no product id.
func (s *CartService) AddToCart(ctx context.Context, payload domain.AddToCartPayload) (domain.Cart, bool) {
	in, ok := payload.ToLineInput()
	if !ok {
		s.logger.WarnContext(ctx, "add to cart ignored: missing product id",
			slog.String("name", payload.Name),
		)
		return s.Cart(ctx), false
	}
	if !pricing.IsMonotonic(in.BaseMonthlyPrice, in.PricingTiers) {
		s.logger.WarnContext(ctx, "tier ladder charges more for a longer term",
			slog.String("product_id", in.ProductID),
		)
	}

	var line domain.LineItem
	cart := s.mutate(ctx, OpAddToCart, false, func(c *domain.Cart) bool {
		line = c.Add(in)
		return true
	})

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("product_id", in.ProductID),
		slog.Int("added", in.Quantity),
		slog.Int("quantity", line.Quantity),
		slog.String("monthly_price", line.MonthlyPrice.StringFixed(2)),
		slog.Int("cart_duration_months", cart.DurationMonths),
	)
	return cart, true
}

// RemoveFromCart deletes the line with itemID. Unknown ids are a no-op.
func (s *CartService) RemoveFromCart(ctx context.Context, itemID string) domain.Cart {
	var removed bool
	cart := s.mutate(ctx, OpRemoveFromCart, false, func(c *domain.Cart) bool {
		removed = c.Remove(itemID)
		return removed
	})

	if removed {
		s.logger.InfoContext(ctx, "item removed from cart", slog.String("product_id", itemID))
	} else {
		s.logger.DebugContext(ctx, "remove ignored: item not in cart", slog.String("product_id", itemID))
	}
	return cart
}

// UpdateQuantity sets the quantity of itemID to max(1, round(quantity)).
// Unknown ids are a no-op.
func (s *CartService) UpdateQuantity(ctx context.Context, itemID string, quantity any) domain.Cart {
	qty := domain.NormalizeQuantity(quantity)

	var updated bool
	cart := s.mutate(ctx, OpUpdateQuantity, false, func(c *domain.Cart) bool {
		updated = c.SetQuantity(itemID, qty)
		return updated
	})

	if updated {
		s.logger.InfoContext(ctx, "cart item quantity updated",
			slog.String("product_id", itemID),
			slog.Int("quantity", qty),
		)
	} else {
		s.logger.DebugContext(ctx, "quantity update ignored: item not in cart", slog.String("product_id", itemID))
	}
	return cart
}

// SetCartDuration changes the cart-wide rental term and reprices every line.
// Invalid input keeps the current term.
func (s *CartService) SetCartDuration(ctx context.Context, months any) domain.Cart {
	var applied int
	cart := s.mutate(ctx, OpSetDuration, false, func(c *domain.Cart) bool {
		fallback := c.DurationMonths
		if fallback < 1 {
			fallback = s.cfg.DefaultDurationMonths
		}
		applied = domain.NormalizeDuration(months, fallback)
		c.SetDuration(applied)
		return true
	})

	s.logger.InfoContext(ctx, "cart duration set",
		slog.Int("cart_duration_months", applied),
		slog.String("monthly_total", cart.MonthlyTotal().StringFixed(2)),
	)
	return cart
}

// ClearCart removes every line and keeps the duration.
func (s *CartService) ClearCart(ctx context.Context) domain.Cart {
	cart := s.mutate(ctx, OpClearCart, true, func(c *domain.Cart) bool {
		c.Clear()
		return true
	})
	s.logger.InfoContext(ctx, "cart cleared")
	return cart
}

// Cart returns a copy of the current cart.
func (s *CartService) Cart(ctx context.Context) domain.Cart {
	return s.Load(ctx)
}

// ItemCount returns the total number of units in the cart.
func (s *CartService) ItemCount(ctx context.Context) int {
	s.ensureLoaded(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

// MonthlyTotal returns the cart's monthly total.
func (s *CartService) MonthlyTotal(ctx context.Context) decimal.Decimal {
	s.ensureLoaded(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.MonthlyTotal()
}

// Ping checks the snapshot store.
func (s *CartService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close writes any pending snapshot and stops the persister.
func (s *CartService) Close(ctx context.Context) error {
	return s.persister.close(ctx)
}
