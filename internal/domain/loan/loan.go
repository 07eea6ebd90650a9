package loan

import (
	"fmt"
	"library-loan/internal/pkg/apperrors"
	"strings"
	"time"
)

const DefaultExtensionWeeks = 4

type LoanStatus string

const (
	StatusOngoing  LoanStatus = "ONGOING"
	StatusReturned LoanStatus = "RETURNED"
	StatusOverdue  LoanStatus = "OVERDUE"
)

func (s LoanStatus) Label() string {
	return string(s)
}

func (s LoanStatus) IsValid() bool {
	switch s {
	case StatusOngoing, StatusReturned, StatusOverdue:
		return true
	default:
		return false
	}
}

func ParseLoanStatus(label string) (LoanStatus, error) {
	status := LoanStatus(strings.ToUpper(strings.TrimSpace(label)))
	if !status.IsValid() {
		return "", apperrors.NewValidationError("status", fmt.Sprintf("unknown loan status %q", label))
	}
	return status, nil
}

// Loan is a copy of a book borrowed by a customer.
type Loan struct {
	ID                 int64
	LoanDate           time.Time
	ExpectedReturnDate time.Time
	ExtendedReturnDate *time.Time
	ReturnDate         *time.Time
	Renewed            bool
	Status             LoanStatus
	CustomerID         int64
	CopyID             int64
	BookID             int64
}

// DueDate is the date the copy has to be back: the extended date once renewed.
func (l *Loan) DueDate() time.Time {
	if l.ExtendedReturnDate != nil {
		return *l.ExtendedReturnDate
	}
	return l.ExpectedReturnDate
}

// IsOverdue reports whether an ongoing loan was due before the calendar day of now.
// The due date is a calendar date, so only its year, month and day are compared.
func (l *Loan) IsOverdue(now time.Time) bool {
	if l.Status != StatusOngoing {
		return false
	}
	y, m, d := l.DueDate().Date()
	due := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return due.Before(startOfDay(now))
}

func (l *Loan) Validate() error {
	if !l.Status.IsValid() {
		return apperrors.NewValidationError("status", fmt.Sprintf("unknown loan status %q", l.Status))
	}
	if l.LoanDate.IsZero() {
		return apperrors.NewValidationError("loanDate", "loan date is required")
	}
	if l.ExpectedReturnDate.Before(l.LoanDate) {
		return apperrors.NewValidationError("expectedReturnDate", "expected return date is before loan date")
	}
	if l.ExtendedReturnDate != nil && l.ExtendedReturnDate.Before(l.ExpectedReturnDate) {
		return apperrors.NewValidationError("extendedReturnDate", "extended return date is before expected return date")
	}
	if l.ReturnDate != nil && l.ReturnDate.Before(l.LoanDate) {
		return apperrors.NewValidationError("returnDate", "return date is before loan date")
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
