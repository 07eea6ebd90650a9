package loan

import (
	"context"
	"errors"
	"library-loan/internal/event"
	"library-loan/internal/infrastructure/monitoring"
	"library-loan/internal/pkg/apperrors"
	"log/slog"
	"time"
)

// ErrLoanNotFound is returned by every read that expects at least one loan.
var ErrLoanNotFound = &apperrors.AppError{
	Code:    "LOAN_NOT_FOUND",
	Message: "Loan not found in repository",
	Cause:   apperrors.ErrNotFound,
}

type LoanService interface {
	FindAll(ctx context.Context) ([]Loan, error)

	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	FindAllByCustomerID(ctx context.Context, customerID int64) ([]Loan, error)

	CheckIfLoanExistForCustomerIDAndBookID(ctx context.Context, customerID, bookID int64) (bool, error)

	Update(ctx context.Context, loan *Loan) (*Loan, error)

	ExtendLoan(ctx context.Context, loanID int64) (*Loan, error)

	ReturnLoan(ctx context.Context, loanID int64, returnedAt time.Time) (*Loan, error)

	MarkOverdue(ctx context.Context, loanID int64, now time.Time) (bool, error)
}

type loanServiceImpl struct {
	repo           Repository
	pub            event.EventPublisher
	extensionWeeks int
	now            func() time.Time
	logger         *slog.Logger
}

var _ LoanService = (*loanServiceImpl)(nil)

// NewLoanService builds the service. pub may be nil, in which case no events are sent.
func NewLoanService(r Repository, pub event.EventPublisher, extensionWeeks int, logger *slog.Logger) LoanService {
	if r == nil {
		panic("loan repository cannot be nil")
	}
	if extensionWeeks <= 0 {
		extensionWeeks = DefaultExtensionWeeks
	}
	return &loanServiceImpl{
		repo:           r,
		pub:            pub,
		extensionWeeks: extensionWeeks,
		now:            time.Now,
		logger:         logger.With(slog.String("component", "loanService")),
	}
}

func (s *loanServiceImpl) FindAll(ctx context.Context) ([]Loan, error) {
	s.logger.InfoContext(ctx, "Listing all loans")
	loans, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", slog.Any("error", err))
		return nil, err
	}
	if len(loans) == 0 {
		s.logger.WarnContext(ctx, "No loan found in repository")
		return nil, ErrLoanNotFound
	}
	return loans, nil
}

func (s *loanServiceImpl) FindByID(ctx context.Context, loanID int64) (*Loan, error) {
	s.logger.InfoContext(ctx, "Getting loan", "loanID", loanID)
	loan, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, ErrLoanNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, slog.Any("error", err))
		return nil, err
	}
	if loan == nil {
		s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
		return nil, ErrLoanNotFound
	}
	return loan, nil
}

func (s *loanServiceImpl) FindAllByCustomerID(ctx context.Context, customerID int64) ([]Loan, error) {
	s.logger.InfoContext(ctx, "Listing loans of customer", "customerID", customerID)
	loans, err := s.repo.FindAllByCustomerID(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list customer loans", "customerID", customerID, slog.Any("error", err))
		return nil, err
	}
	if len(loans) == 0 {
		s.logger.WarnContext(ctx, "No loan found for customer", "customerID", customerID)
		return nil, ErrLoanNotFound
	}
	return loans, nil
}

// CheckIfLoanExistForCustomerIDAndBookID treats any positive count as an existing loan.
func (s *loanServiceImpl) CheckIfLoanExistForCustomerIDAndBookID(ctx context.Context, customerID, bookID int64) (bool, error) {
	s.logger.InfoContext(ctx, "Checking loan existence", "customerID", customerID, "bookID", bookID)
	count, err := s.repo.CheckIfLoanExistForCustomerIDAndBookID(ctx, customerID, bookID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to check loan existence", "customerID", customerID, "bookID", bookID, slog.Any("error", err))
		return false, err
	}
	return count != 0, nil
}

// Update saves loan as given once a loan with the same id is known to exist.
func (s *loanServiceImpl) Update(ctx context.Context, loan *Loan) (*Loan, error) {
	if loan == nil {
		return nil, apperrors.NewValidationError("loan", "loan cannot be nil")
	}
	s.logger.InfoContext(ctx, "Updating loan", "loanID", loan.ID)
	if _, err := s.FindByID(ctx, loan.ID); err != nil {
		monitoring.RecordLoanOperation("update", outcome(err))
		return nil, err
	}

	saved, err := s.save(ctx, "update", loan)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, saved)
	return saved, nil
}

func (s *loanServiceImpl) ExtendLoan(ctx context.Context, loanID int64) (*Loan, error) {
	s.logger.InfoContext(ctx, "Extending loan", "loanID", loanID)
	loan, err := s.FindByID(ctx, loanID)
	if err != nil {
		monitoring.RecordLoanOperation("extend", outcome(err))
		return nil, err
	}

	switch {
	case loan.Status == StatusReturned:
		s.logger.WarnContext(ctx, "Attempted to extend a returned loan", "loanID", loanID)
		monitoring.RecordLoanOperation("extend", "rejected")
		return nil, apperrors.ErrLoanAlreadyReturned
	case loan.Status != StatusOngoing || loan.IsOverdue(s.now()):
		s.logger.WarnContext(ctx, "Attempted to extend a loan that is not ongoing", "loanID", loanID, "status", loan.Status)
		monitoring.RecordLoanOperation("extend", "rejected")
		return nil, apperrors.ErrLoanNotOngoing
	case loan.Renewed:
		s.logger.WarnContext(ctx, "Attempted to extend an already renewed loan", "loanID", loanID)
		monitoring.RecordLoanOperation("extend", "rejected")
		return nil, apperrors.ErrLoanAlreadyRenewed
	}

	extended := loan.ExpectedReturnDate.AddDate(0, 0, 7*s.extensionWeeks)
	loan.ExtendedReturnDate = &extended
	loan.Renewed = true

	saved, err := s.save(ctx, "extend", loan)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, saved)
	return saved, nil
}

func (s *loanServiceImpl) ReturnLoan(ctx context.Context, loanID int64, returnedAt time.Time) (*Loan, error) {
	s.logger.InfoContext(ctx, "Returning loan", "loanID", loanID)
	loan, err := s.FindByID(ctx, loanID)
	if err != nil {
		monitoring.RecordLoanOperation("return", outcome(err))
		return nil, err
	}
	if loan.Status == StatusReturned {
		s.logger.WarnContext(ctx, "Loan already returned", "loanID", loanID)
		monitoring.RecordLoanOperation("return", "rejected")
		return nil, apperrors.ErrLoanAlreadyReturned
	}
	if returnedAt.IsZero() {
		returnedAt = s.now()
	}
	if returnedAt.Before(loan.LoanDate) {
		monitoring.RecordLoanOperation("return", "rejected")
		return nil, apperrors.NewValidationError("returnDate", "return date is before loan date")
	}

	loan.ReturnDate = &returnedAt
	loan.Status = StatusReturned

	saved, err := s.save(ctx, "return", loan)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, saved)
	return saved, nil
}

// MarkOverdue moves an ongoing loan past its due date to OVERDUE and reports whether it did.
func (s *loanServiceImpl) MarkOverdue(ctx context.Context, loanID int64, now time.Time) (bool, error) {
	loan, err := s.FindByID(ctx, loanID)
	if err != nil {
		return false, err
	}
	if !loan.IsOverdue(now) {
		s.logger.DebugContext(ctx, "Loan is not overdue", "loanID", loanID, "dueDate", loan.DueDate())
		return false, nil
	}

	loan.Status = StatusOverdue
	saved, err := s.save(ctx, "mark_overdue", loan)
	if err != nil {
		return false, err
	}
	s.publishOverdue(ctx, saved)
	return true, nil
}

func (s *loanServiceImpl) save(ctx context.Context, operation string, loan *Loan) (*Loan, error) {
	saved, err := s.repo.Save(ctx, loan)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save loan", "loanID", loan.ID, "operation", operation, slog.Any("error", err))
		monitoring.RecordLoanOperation(operation, "failure")
		return nil, err
	}
	if saved == nil {
		saved = loan
	}
	monitoring.RecordLoanOperation(operation, "success")
	s.logger.InfoContext(ctx, "Loan saved", "loanID", saved.ID, "operation", operation, "status", saved.Status)
	return saved, nil
}

func (s *loanServiceImpl) publishUpdated(ctx context.Context, loan *Loan) {
	if s.pub == nil {
		return
	}
	evt := event.LoanUpdatedEvent{
		Timestamp: s.now(),
		Payload:   NewLoanEventPayload(loan),
	}
	if err := s.pub.PublishLoanUpdated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish loan updated event", "loanID", loan.ID, slog.Any("error", err))
	}
}

func (s *loanServiceImpl) publishOverdue(ctx context.Context, loan *Loan) {
	if s.pub == nil {
		return
	}
	evt := event.LoanOverdueEvent{
		Timestamp: s.now(),
		DueDate:   loan.DueDate(),
		Payload:   NewLoanEventPayload(loan),
	}
	if err := s.pub.PublishLoanOverdue(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish loan overdue event", "loanID", loan.ID, slog.Any("error", err))
	}
}

func NewLoanEventPayload(loan *Loan) event.LoanEventPayload {
	if loan == nil {
		return event.LoanEventPayload{}
	}
	return event.LoanEventPayload{
		LoanID:             loan.ID,
		CustomerID:         loan.CustomerID,
		BookID:             loan.BookID,
		CopyID:             loan.CopyID,
		Status:             loan.Status.Label(),
		Renewed:            loan.Renewed,
		ExpectedReturnDate: loan.ExpectedReturnDate,
		ExtendedReturnDate: loan.ExtendedReturnDate,
		ReturnDate:         loan.ReturnDate,
	}
}

func outcome(err error) string {
	if errors.Is(err, apperrors.ErrNotFound) {
		return "not_found"
	}
	return "failure"
}
