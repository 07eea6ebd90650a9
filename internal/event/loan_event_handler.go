package event

import (
	"context"
	"encoding/json"
	"library-loan/internal/infrastructure/monitoring"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LoanEventRoutingKeys are the keys the notice queue is bound to.
var LoanEventRoutingKeys = []string{routingKeyLoanUpdated, routingKeyLoanOverdue}

// LoanEventHandler turns loan events into reader notices written to the log.
type LoanEventHandler struct {
	logger *slog.Logger
}

func NewLoanEventHandler(logger *slog.Logger) *LoanEventHandler {
	return &LoanEventHandler{
		logger: logger.With("component", "LoanEventHandler"),
	}
}

func (h *LoanEventHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))

	switch d.RoutingKey {
	case routingKeyLoanOverdue:
		var event LoanOverdueEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			h.discard(ctx, logCtx, d, err)
			return
		}
		logCtx.InfoContext(ctx, "Overdue notice",
			slog.Int64("loanID", event.Payload.LoanID),
			slog.Int64("customerID", event.Payload.CustomerID),
			slog.Int64("bookID", event.Payload.BookID),
			slog.String("dueDate", event.DueDate.Format(time.DateOnly)),
			slog.Int("daysOverdue", daysBetween(event.DueDate, event.Timestamp)),
		)
	case routingKeyLoanUpdated:
		var event LoanUpdatedEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			h.discard(ctx, logCtx, d, err)
			return
		}
		logCtx.InfoContext(ctx, "Loan update notice",
			slog.Int64("loanID", event.Payload.LoanID),
			slog.Int64("customerID", event.Payload.CustomerID),
			slog.String("status", event.Payload.Status),
			slog.Bool("renewed", event.Payload.Renewed),
		)
	default:
		logCtx.WarnContext(ctx, "Received message with unknown routing key. Discarding.")
		monitoring.RecordEventConsumed(d.RoutingKey, "rejected")
		_ = d.Reject(false)
		return
	}

	monitoring.RecordEventConsumed(d.RoutingKey, "processed")
	if err := d.Ack(false); err != nil {
		logCtx.ErrorContext(ctx, "Failed to acknowledge message after successful processing", "error", err)
	}
}

func (h *LoanEventHandler) discard(ctx context.Context, logCtx *slog.Logger, d amqp.Delivery, err error) {
	logCtx.ErrorContext(ctx, "Failed to unmarshal loan event", "error", err, "body", string(d.Body))
	monitoring.RecordEventConsumed(d.RoutingKey, "malformed")
	_ = d.Nack(false, false)
}

// daysBetween counts whole days from due to at, never below zero.
func daysBetween(due, at time.Time) int {
	if !at.After(due) {
		return 0
	}
	return int(at.Sub(due).Hours() / 24)
}
