package loan

import (
	"context"
)

// Repository persists loans. A missing loan is reported as apperrors.ErrNotFound.
type Repository interface {
	FindAll(ctx context.Context) ([]Loan, error)

	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	FindAllByCustomerID(ctx context.Context, customerID int64) ([]Loan, error)

	FindAllByStatus(ctx context.Context, status LoanStatus) ([]Loan, error)

	CheckIfLoanExistForCustomerIDAndBookID(ctx context.Context, customerID, bookID int64) (int, error)

	Save(ctx context.Context, loan *Loan) (*Loan, error)
}
