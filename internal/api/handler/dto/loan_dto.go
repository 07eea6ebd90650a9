package dto

import (
	"fmt"
	"library-loan/internal/domain/loan"
	"time"
)

const DateLayout = time.DateOnly

type UpdateLoanRequest struct {
	ID                 int64   `json:"id"`
	LoanDate           string  `json:"loanDate"`
	ExpectedReturnDate string  `json:"expectedReturnDate"`
	ExtendedReturnDate *string `json:"extendedReturnDate,omitempty"`
	ReturnDate         *string `json:"returnDate,omitempty"`
	Renewed            bool    `json:"renewed"`
	Status             string  `json:"status"`
	CustomerID         int64   `json:"customerId"`
	CopyID             int64   `json:"copyId"`
	BookID             int64   `json:"bookId"`
}

func (r *UpdateLoanRequest) Validate() error {
	if r.CustomerID <= 0 || r.CopyID <= 0 || r.BookID <= 0 {
		return fmt.Errorf("customerId, copyId and bookId must be positive numbers")
	}
	if _, err := loan.ParseLoanStatus(r.Status); err != nil {
		return err
	}
	if _, err := parseDate(r.LoanDate); err != nil {
		return fmt.Errorf("invalid loanDate format (use YYYY-MM-DD): %w", err)
	}
	if _, err := parseDate(r.ExpectedReturnDate); err != nil {
		return fmt.Errorf("invalid expectedReturnDate format (use YYYY-MM-DD): %w", err)
	}
	if _, err := parseOptionalDate(r.ExtendedReturnDate); err != nil {
		return fmt.Errorf("invalid extendedReturnDate format (use YYYY-MM-DD): %w", err)
	}
	if _, err := parseOptionalDate(r.ReturnDate); err != nil {
		return fmt.Errorf("invalid returnDate format (use YYYY-MM-DD): %w", err)
	}
	return nil
}

// ToLoan builds the domain loan for the given id. Call Validate first.
func (r *UpdateLoanRequest) ToLoan(loanID int64) (*loan.Loan, error) {
	status, err := loan.ParseLoanStatus(r.Status)
	if err != nil {
		return nil, err
	}
	loanDate, err := parseDate(r.LoanDate)
	if err != nil {
		return nil, err
	}
	expected, err := parseDate(r.ExpectedReturnDate)
	if err != nil {
		return nil, err
	}
	extended, err := parseOptionalDate(r.ExtendedReturnDate)
	if err != nil {
		return nil, err
	}
	returned, err := parseOptionalDate(r.ReturnDate)
	if err != nil {
		return nil, err
	}

	l := &loan.Loan{
		ID:                 loanID,
		LoanDate:           loanDate,
		ExpectedReturnDate: expected,
		ExtendedReturnDate: extended,
		ReturnDate:         returned,
		Renewed:            r.Renewed,
		Status:             status,
		CustomerID:         r.CustomerID,
		CopyID:             r.CopyID,
		BookID:             r.BookID,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

type ReturnLoanRequest struct {
	ReturnDate string `json:"returnDate,omitempty"`
}

// ReturnedAt is the zero time when no date was sent.
func (r *ReturnLoanRequest) ReturnedAt() (time.Time, error) {
	if r.ReturnDate == "" {
		return time.Time{}, nil
	}
	t, err := parseDate(r.ReturnDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid returnDate format (use YYYY-MM-DD): %w", err)
	}
	return t, nil
}

type LoanResponse struct {
	ID                 int64   `json:"id"`
	LoanDate           string  `json:"loanDate"`
	ExpectedReturnDate string  `json:"expectedReturnDate"`
	ExtendedReturnDate *string `json:"extendedReturnDate,omitempty"`
	ReturnDate         *string `json:"returnDate,omitempty"`
	DueDate            string  `json:"dueDate"`
	Renewed            bool    `json:"renewed"`
	Status             string  `json:"status"`
	CustomerID         int64   `json:"customerId"`
	CopyID             int64   `json:"copyId"`
	BookID             int64   `json:"bookId"`
}

type LoanExistsResponse struct {
	CustomerID int64 `json:"customerId"`
	BookID     int64 `json:"bookId"`
	Exists     bool  `json:"exists"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	return LoanResponse{
		ID:                 l.ID,
		LoanDate:           l.LoanDate.Format(DateLayout),
		ExpectedReturnDate: l.ExpectedReturnDate.Format(DateLayout),
		ExtendedReturnDate: formatOptionalDate(l.ExtendedReturnDate),
		ReturnDate:         formatOptionalDate(l.ReturnDate),
		DueDate:            l.DueDate().Format(DateLayout),
		Renewed:            l.Renewed,
		Status:             l.Status.Label(),
		CustomerID:         l.CustomerID,
		CopyID:             l.CopyID,
		BookID:             l.BookID,
	}
}

func NewLoanListResponse(loans []loan.Loan) []LoanResponse {
	resp := make([]LoanResponse, len(loans))
	for i := range loans {
		resp[i] = NewLoanResponse(&loans[i])
	}
	return resp
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return time.Parse(DateLayout, value)
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
