package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	pkgkafka "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/kafka"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/domain"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/pricing"
)

// Kafka topics for cart domain events.
var (
	TopicCartUpdated = pkgkafka.Topic("cart", "updated")
	TopicCartCleared = pkgkafka.Topic("cart", "cleared")
)

// Aggregate type constant.
const AggregateTypeCart = "cart"

// Source identifier for events originating from the cart service.
const SourceCartService = "cart-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	Items          []CartItemData  `json:"items"`
	DurationMonths int             `json:"cart_duration_months"`
	ItemCount      int             `json:"item_count"`
	MonthlyTotal   decimal.Decimal `json:"monthly_total"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	PricingMode      pricing.Mode    `json:"pricing_mode"`
	BaseMonthlyPrice decimal.Decimal `json:"base_monthly_price"`
	MonthlyPrice     decimal.Decimal `json:"monthly_price"`
	Quantity         int             `json:"quantity"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	DurationMonths int `json:"cart_duration_months"`
}

// Publisher sends an event envelope to a topic. *pkgkafka.Producer
// implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart domain events.
type Producer struct {
	kafka   Publisher
	slotKey string
	logger  *slog.Logger
}

// NewProducer creates a new event producer. slotKey identifies the cart as
// the event aggregate id.
func NewProducer(kafka Publisher, slotKey string, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:   kafka,
		slotKey: slotKey,
		logger:  logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID:        item.ProductID,
			Name:             item.Name,
			PricingMode:      item.PricingMode,
			BaseMonthlyPrice: item.BaseMonthlyPrice,
			MonthlyPrice:     item.MonthlyPrice,
			Quantity:         item.Quantity,
			LineTotal:        item.LineTotal(),
		}
	}

	data := CartUpdatedData{
		Items:          items,
		DurationMonths: cart.DurationMonths,
		ItemCount:      cart.ItemCount(),
		MonthlyTotal:   cart.MonthlyTotal(),
	}

	if err := p.publish(ctx, TopicCartUpdated, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.Int("item_count", data.ItemCount),
		slog.String("monthly_total", data.MonthlyTotal.StringFixed(2)),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, cart *domain.Cart) error {
	if err := p.publish(ctx, TopicCartCleared, CartClearedData{DurationMonths: cart.DurationMonths}); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "published cart.cleared event")
	return nil
}

func (p *Producer) publish(ctx context.Context, topic string, data any) error {
	event, err := pkgkafka.NewEvent(ctx, topic, p.slotKey, AggregateTypeCart, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
