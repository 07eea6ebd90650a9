package event

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *MockChannel) Close() error {
	args := m.Called()
	return args.Error(0)
}

var logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

func TestNewRabbitMQEventPublisherValidation(t *testing.T) {
	t.Run("nil connection", func(t *testing.T) {
		pub, err := NewRabbitMQEventPublisher(nil, "library-loan", logger)
		assert.Nil(t, pub)
		assert.EqualError(t, err, "RabbitMQ connection cannot be nil")
	})
}

func TestPublishLoanUpdated(t *testing.T) {
	ctx := context.Background()
	ch := new(MockChannel)
	pub := newPublisher(func() (amqpChannel, error) { return ch, nil }, "library-loan", logger)

	evt := LoanUpdatedEvent{
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Payload:   LoanEventPayload{LoanID: 10, CustomerID: 2, BookID: 18, CopyID: 73, Status: "ONGOING"},
	}

	ch.On("PublishWithContext", ctx, "library-loan", "loan.updated", false, false, mock.MatchedBy(func(msg amqp.Publishing) bool {
		var decoded LoanUpdatedEvent
		if err := json.Unmarshal(msg.Body, &decoded); err != nil {
			return false
		}
		return msg.ContentType == "application/json" &&
			msg.DeliveryMode == amqp.Persistent &&
			msg.AppId == "library-loan" &&
			msg.MessageId != "" &&
			decoded.Payload.LoanID == 10
	})).Return(nil)
	ch.On("Close").Return(nil)

	err := pub.PublishLoanUpdated(ctx, evt)

	require.NoError(t, err)
	ch.AssertExpectations(t)
}

func TestPublishLoanOverdueUsesOverdueRoutingKey(t *testing.T) {
	ctx := context.Background()
	ch := new(MockChannel)
	pub := newPublisher(func() (amqpChannel, error) { return ch, nil }, "library-loan", logger)

	ch.On("PublishWithContext", ctx, "library-loan", "loan.overdue", false, false, mock.Anything).Return(nil)
	ch.On("Close").Return(nil)

	err := pub.PublishLoanOverdue(ctx, LoanOverdueEvent{Payload: LoanEventPayload{LoanID: 5}})

	require.NoError(t, err)
	ch.AssertExpectations(t)
}

func TestPublishFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("channel cannot be opened", func(t *testing.T) {
		pub := newPublisher(func() (amqpChannel, error) { return nil, errors.New("connection closed") }, "library-loan", logger)

		err := pub.PublishLoanUpdated(ctx, LoanUpdatedEvent{})

		assert.ErrorContains(t, err, "failed to open channel")
	})

	t.Run("broker rejects publish", func(t *testing.T) {
		ch := new(MockChannel)
		pub := newPublisher(func() (amqpChannel, error) { return ch, nil }, "library-loan", logger)
		ch.On("PublishWithContext", ctx, "library-loan", "loan.updated", false, false, mock.Anything).Return(errors.New("channel closed"))
		ch.On("Close").Return(nil)

		err := pub.PublishLoanUpdated(ctx, LoanUpdatedEvent{})

		assert.ErrorContains(t, err, "failed to publish message")
		ch.AssertExpectations(t)
	})
}
