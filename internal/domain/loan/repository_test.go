package loan

import (
	"context"
	"library-loan/internal/event"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindAll(ctx context.Context) ([]Loan, error) {
	args := m.Called(ctx)
	loans, _ := args.Get(0).([]Loan)
	return loans, args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, loanID int64) (*Loan, error) {
	args := m.Called(ctx, loanID)
	loan, _ := args.Get(0).(*Loan)
	return loan, args.Error(1)
}

func (m *MockRepository) FindAllByCustomerID(ctx context.Context, customerID int64) ([]Loan, error) {
	args := m.Called(ctx, customerID)
	loans, _ := args.Get(0).([]Loan)
	return loans, args.Error(1)
}

func (m *MockRepository) FindAllByStatus(ctx context.Context, status LoanStatus) ([]Loan, error) {
	args := m.Called(ctx, status)
	loans, _ := args.Get(0).([]Loan)
	return loans, args.Error(1)
}

func (m *MockRepository) CheckIfLoanExistForCustomerIDAndBookID(ctx context.Context, customerID, bookID int64) (int, error) {
	args := m.Called(ctx, customerID, bookID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, loan *Loan) (*Loan, error) {
	args := m.Called(ctx, loan)
	saved, _ := args.Get(0).(*Loan)
	return saved, args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLoanUpdated(ctx context.Context, evt event.LoanUpdatedEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishLoanOverdue(ctx context.Context, evt event.LoanOverdueEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}
