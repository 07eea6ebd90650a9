package event

import (
	"context"
	"time"
)

type LoanEventPayload struct {
	LoanID             int64      `json:"loanId"`
	CustomerID         int64      `json:"customerId"`
	BookID             int64      `json:"bookId"`
	CopyID             int64      `json:"copyId"`
	Status             string     `json:"status"`
	Renewed            bool       `json:"renewed"`
	ExpectedReturnDate time.Time  `json:"expectedReturnDate"`
	ExtendedReturnDate *time.Time `json:"extendedReturnDate,omitempty"`
	ReturnDate         *time.Time `json:"returnDate,omitempty"`
}

type LoanUpdatedEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	Payload   LoanEventPayload `json:"payload"`
}

type LoanOverdueEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	DueDate   time.Time        `json:"dueDate"`
	Payload   LoanEventPayload `json:"payload"`
}

func (p *RabbitMQEventPublisher) PublishLoanUpdated(ctx context.Context, event LoanUpdatedEvent) error {
	return p.publish(ctx, routingKeyLoanUpdated, event)
}

func (p *RabbitMQEventPublisher) PublishLoanOverdue(ctx context.Context, event LoanOverdueEvent) error {
	return p.publish(ctx, routingKeyLoanOverdue, event)
}
