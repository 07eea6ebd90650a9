package batch

import (
	"bytes"
	"context"
	"errors"
	"library-loan/internal/domain/loan"
	"library-loan/internal/pkg/apperrors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) FindAll(ctx context.Context) ([]loan.Loan, error) {
	args := m.Called(ctx)
	loans, _ := args.Get(0).([]loan.Loan)
	return loans, args.Error(1)
}

func (m *MockLoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanRepository) FindAllByCustomerID(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	args := m.Called(ctx, customerID)
	loans, _ := args.Get(0).([]loan.Loan)
	return loans, args.Error(1)
}

func (m *MockLoanRepository) FindAllByStatus(ctx context.Context, status loan.LoanStatus) ([]loan.Loan, error) {
	args := m.Called(ctx, status)
	loans, _ := args.Get(0).([]loan.Loan)
	return loans, args.Error(1)
}

func (m *MockLoanRepository) CheckIfLoanExistForCustomerIDAndBookID(ctx context.Context, customerID, bookID int64) (int, error) {
	args := m.Called(ctx, customerID, bookID)
	return args.Int(0), args.Error(1)
}

func (m *MockLoanRepository) Save(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	args := m.Called(ctx, l)
	saved, _ := args.Get(0).(*loan.Loan)
	return saved, args.Error(1)
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) FindAll(ctx context.Context) ([]loan.Loan, error) {
	args := m.Called(ctx)
	loans, _ := args.Get(0).([]loan.Loan)
	return loans, args.Error(1)
}

func (m *MockLoanService) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanService) FindAllByCustomerID(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	args := m.Called(ctx, customerID)
	loans, _ := args.Get(0).([]loan.Loan)
	return loans, args.Error(1)
}

func (m *MockLoanService) CheckIfLoanExistForCustomerIDAndBookID(ctx context.Context, customerID, bookID int64) (bool, error) {
	args := m.Called(ctx, customerID, bookID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoanService) Update(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	args := m.Called(ctx, l)
	updated, _ := args.Get(0).(*loan.Loan)
	return updated, args.Error(1)
}

func (m *MockLoanService) ExtendLoan(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanService) ReturnLoan(ctx context.Context, loanID int64, returnedAt time.Time) (*loan.Loan, error) {
	args := m.Called(ctx, loanID, returnedAt)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanService) MarkOverdue(ctx context.Context, loanID int64, now time.Time) (bool, error) {
	args := m.Called(ctx, loanID, now)
	return args.Bool(0), args.Error(1)
}

var (
	logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	today  = time.Date(2026, 4, 10, 1, 0, 0, 0, time.UTC)
)

func ongoing(id int64, due time.Time) loan.Loan {
	return loan.Loan{
		ID:                 id,
		LoanDate:           due.AddDate(0, 0, -28),
		ExpectedReturnDate: due,
		Status:             loan.StatusOngoing,
	}
}

func newTestJob(repo *MockLoanRepository, svc *MockLoanService) *MarkOverdueLoansJob {
	job := NewMarkOverdueLoansJob(repo, svc, logger)
	job.now = func() time.Time { return today }
	return job
}

func TestNewMarkOverdueLoansJobPanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() { NewMarkOverdueLoansJob(nil, new(MockLoanService), logger) })
	assert.Panics(t, func() { NewMarkOverdueLoansJob(new(MockLoanRepository), nil, logger) })
}

func TestRunMarksOnlyPastDueLoans(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLoanRepository)
	svc := new(MockLoanService)
	job := newTestJob(repo, svc)

	repo.On("FindAllByStatus", ctx, loan.StatusOngoing).Return([]loan.Loan{
		ongoing(1, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
		ongoing(2, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)),
		ongoing(3, time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)),
	}, nil)
	svc.On("MarkOverdue", ctx, int64(1), today).Return(true, nil)
	svc.On("MarkOverdue", ctx, int64(3), today).Return(true, nil)

	err := job.Run(ctx)

	assert.NoError(t, err)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "MarkOverdue", ctx, int64(2), today)
}

func TestRunWithNoOngoingLoans(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLoanRepository)
	svc := new(MockLoanService)
	job := newTestJob(repo, svc)

	repo.On("FindAllByStatus", ctx, loan.StatusOngoing).Return([]loan.Loan{}, nil)

	err := job.Run(ctx)

	assert.NoError(t, err)
	svc.AssertNotCalled(t, "MarkOverdue", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunFailsWhenLoansCannotBeListed(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLoanRepository)
	svc := new(MockLoanService)
	job := newTestJob(repo, svc)

	repo.On("FindAllByStatus", ctx, loan.StatusOngoing).Return(nil, apperrors.ErrDatabase)

	err := job.Run(ctx)

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.ErrorContains(t, err, "failed to get ongoing loans")
}

func TestRunReportsMarkFailures(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLoanRepository)
	svc := new(MockLoanService)
	job := newTestJob(repo, svc)

	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	repo.On("FindAllByStatus", ctx, loan.StatusOngoing).Return([]loan.Loan{ongoing(1, due), ongoing(2, due), ongoing(3, due)}, nil)
	svc.On("MarkOverdue", ctx, int64(1), today).Return(true, nil)
	svc.On("MarkOverdue", ctx, int64(2), today).Return(false, errors.New("connection reset"))
	svc.On("MarkOverdue", ctx, int64(3), today).Return(false, loan.ErrLoanNotFound)

	err := job.Run(ctx)

	assert.EqualError(t, err, "job completed with 1 errors")
	svc.AssertExpectations(t)
}

func TestRunStopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := new(MockLoanRepository)
	svc := new(MockLoanService)
	job := newTestJob(repo, svc)
	job.maxWorkers = 1

	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	repo.On("FindAllByStatus", ctx, loan.StatusOngoing).Return([]loan.Loan{ongoing(1, due)}, nil)
	svc.On("MarkOverdue", ctx, int64(1), today).Return(true, nil).Maybe()

	err := job.Run(ctx)

	assert.True(t, err == nil || errors.Is(err, context.Canceled))
}
