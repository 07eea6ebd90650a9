package handler

import (
	"fmt"
	"library-loan/internal/api/handler/dto"
	"library-loan/internal/domain/loan"
	"library-loan/internal/pkg/apperrors"
	"log/slog"
	"net/http"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// ListLoans returns every loan.
//
// @Summary List all loans
// @Description Returns every loan known to the repository. Responds 404 when there is none.
// @Tags Loans
// @Produce json
// @Success 200 {array} dto.LoanResponse "Loans"
// @Failure 404 {object} dto.ErrorResponse "No loan found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.FindAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
}

// CheckLoanExists tells whether a customer has ever borrowed a book.
//
// @Summary Check loan existence
// @Description Checks whether at least one loan exists for the customer and book pair.
// @Tags Loans
// @Produce json
// @Param customerId query int true "Customer ID" Minimum(1)
// @Param bookId query int true "Book ID" Minimum(1)
// @Success 200 {object} dto.LoanExistsResponse "Existence flag"
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid query parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/exists [get]
// @Security BearerAuth
func (h *LoanHandler) CheckLoanExists(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromQuery(r, "customerId")
	if err != nil {
		respondError(w, err)
		return
	}
	bookID, err := getIDFromQuery(r, "bookId")
	if err != nil {
		respondError(w, err)
		return
	}

	exists, err := h.service.CheckIfLoanExistForCustomerIDAndBookID(r.Context(), customerID, bookID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.LoanExistsResponse{CustomerID: customerID, BookID: bookID, Exists: exists})
}

// ListCustomerLoans returns the loans of one customer.
//
// @Summary List loans of a customer
// @Tags Loans
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {array} dto.LoanResponse "Loans of the customer"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID"
// @Failure 404 {object} dto.ErrorResponse "No loan found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/customer/{customerID} [get]
// @Security BearerAuth
func (h *LoanHandler) ListCustomerLoans(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.service.FindAllByCustomerID(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
}

// GetLoan retrieves a loan by id.
//
// @Summary Retrieve loan details
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(1)
// @Success 200 {object} dto.LoanResponse "Loan details"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	l, err := h.service.FindByID(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(l))
}

// UpdateLoan replaces a stored loan with the request body.
//
// @Summary Update a loan
// @Description Overwrites an existing loan. The id in the body, when present, must match the path.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(1)
// @Param request body dto.UpdateLoanRequest true "Full loan representation"
// @Success 200 {object} dto.LoanResponse "Updated loan"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID or payload"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [put]
// @Security BearerAuth
func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if req.ID != 0 && req.ID != loanID {
		respondError(w, fmt.Errorf("%w: body id %d does not match path id %d", apperrors.ErrInvalidArgument, req.ID, loanID))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	l, err := req.ToLoan(loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), l)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated))
}

// ExtendLoan renews an ongoing loan once.
//
// @Summary Extend a loan
// @Description Pushes the return date of an ongoing, not yet renewed loan.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(1)
// @Success 200 {object} dto.LoanResponse "Extended loan"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan already renewed, returned or not ongoing"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/extend [post]
// @Security BearerAuth
func (h *LoanHandler) ExtendLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	extended, err := h.service.ExtendLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(extended))
}

// ReturnLoan closes a loan.
//
// @Summary Return a loan
// @Description Marks the loan as returned. The return date defaults to today.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(1)
// @Param request body dto.ReturnLoanRequest false "Optional return date"
// @Success 200 {object} dto.LoanResponse "Returned loan"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID or return date"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan already returned"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/return [post]
// @Security BearerAuth
func (h *LoanHandler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.ReturnLoanRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
			return
		}
	}
	returnedAt, err := req.ReturnedAt()
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	returned, err := h.service.ReturnLoan(r.Context(), loanID, returnedAt)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(returned))
}
