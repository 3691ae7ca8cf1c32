package event

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/kafka"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/logger"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/domain"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/pricing"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleCart() *domain.Cart {
	c := domain.New(12)
	c.Add(domain.LineInput{
		ProductID:        "chair-1",
		Name:             "Ergonomic Chair",
		BaseMonthlyPrice: decimal.RequireFromString("100"),
		PricingMode:      pricing.ModeTiered,
		PricingTiers:     []pricing.Tier{{MinMonths: 12, MonthlyPrice: decimal.RequireFromString("75")}},
		Quantity:         2,
	})
	return c
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "deskly.cart.updated", TopicCartUpdated)
	assert.Equal(t, "deskly.cart.cleared", TopicCartCleared)
}

func TestPublishCartUpdated(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, "deskly:cart", testLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-42")

	var sent *pkgkafka.Event
	pub.On("Publish", ctx, TopicCartUpdated, mock.AnythingOfType("*kafka.Event")).
		Run(func(args mock.Arguments) { sent = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	require.NoError(t, p.PublishCartUpdated(ctx, sampleCart()))
	pub.AssertExpectations(t)

	require.NotNil(t, sent)
	assert.Equal(t, "deskly:cart", sent.AggregateID)
	assert.Equal(t, AggregateTypeCart, sent.AggregateType)
	assert.Equal(t, SourceCartService, sent.Source)
	assert.Equal(t, "corr-42", sent.CorrelationID)

	var data CartUpdatedData
	require.NoError(t, sent.Decode(&data))
	assert.Equal(t, 12, data.DurationMonths)
	assert.Equal(t, 2, data.ItemCount)
	assert.True(t, decimal.RequireFromString("150").Equal(data.MonthlyTotal))
	require.Len(t, data.Items, 1)
	assert.True(t, decimal.RequireFromString("75").Equal(data.Items[0].MonthlyPrice))
	assert.True(t, decimal.RequireFromString("150").Equal(data.Items[0].LineTotal))
}

func TestPublishCartCleared(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, "deskly:cart", testLogger())

	pub.On("Publish", mock.Anything, TopicCartCleared, mock.AnythingOfType("*kafka.Event")).Return(nil)

	require.NoError(t, p.PublishCartCleared(context.Background(), domain.New(6)))
	pub.AssertExpectations(t)
}

func TestPublish_Error(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, "deskly:cart", testLogger())

	pub.On("Publish", mock.Anything, TopicCartUpdated, mock.Anything).Return(errors.New("broker down"))

	err := p.PublishCartUpdated(context.Background(), sampleCart())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish deskly.cart.updated event")
}
