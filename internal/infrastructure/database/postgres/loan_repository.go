package postgres

import (
	"context"
	"errors"
	"fmt"
	"library-loan/internal/domain/loan"
	"library-loan/internal/infrastructure/monitoring"
	"library-loan/internal/pkg/apperrors"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
)

type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

const loansTable = "loans"

var loanColumns = []any{
	"id", "loan_date", "expected_return_date", "extended_return_date", "return_date",
	"renewed", "status", "customer_id", "copy_id", "book_id",
}

const selectLoansSQL = `
	SELECT id, loan_date, expected_return_date, extended_return_date, return_date, renewed, status, customer_id, copy_id, book_id
	FROM loans`

type LoanRepository struct {
	db      DBPool
	dialect goqu.DialectWrapper
	logger  *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{
		db:      db,
		dialect: goqu.Dialect("postgres"),
		logger:  logger.With("component", "LoanRepository"),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.LoanDate, &l.ExpectedReturnDate, &l.ExtendedReturnDate, &l.ReturnDate,
		&l.Renewed, &l.Status, &l.CustomerID, &l.CopyID, &l.BookID,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) FindAll(ctx context.Context) ([]loan.Loan, error) {
	query := selectLoansSQL + `
	ORDER BY id ASC`
	return r.queryLoans(ctx, "FindAllLoans", query)
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := selectLoansSQL + `
	WHERE id = $1`
	status := "success"
	startTime := time.Now()

	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("FindLoanByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

func (r *LoanRepository) FindAllByCustomerID(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	query, args, err := r.dialect.From(loansTable).
		Select(loanColumns...).
		Where(goqu.C("customer_id").Eq(customerID)).
		Order(goqu.C("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build customer loans query: %w", apperrors.ErrInternalServer, err)
	}
	return r.queryLoans(ctx, "FindLoansByCustomerID", query, args...)
}

func (r *LoanRepository) FindAllByStatus(ctx context.Context, status loan.LoanStatus) ([]loan.Loan, error) {
	query, args, err := r.dialect.From(loansTable).
		Select(loanColumns...).
		Where(goqu.C("status").Eq(string(status))).
		Order(goqu.C("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build loans by status query: %w", apperrors.ErrInternalServer, err)
	}
	return r.queryLoans(ctx, "FindLoansByStatus", query, args...)
}

func (r *LoanRepository) CheckIfLoanExistForCustomerIDAndBookID(ctx context.Context, customerID, bookID int64) (int, error) {
	query := `SELECT COUNT(*) FROM loans WHERE customer_id = $1 AND book_id = $2`
	status := "success"
	startTime := time.Now()

	var count int
	err := r.db.QueryRow(ctx, query, customerID, bookID).Scan(&count)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("CountLoansByCustomerAndBook", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to count loans", "customer_id", customerID, "book_id", bookID, "error", err)
		return 0, translateDBError(err, r.logger)
	}
	return count, nil
}

// Save overwrites every mutable column of an existing loan row. Loans are created elsewhere, so an unknown id is reported as not found.
func (r *LoanRepository) Save(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	if l == nil {
		return nil, apperrors.NewValidationError("loan", "loan cannot be nil")
	}
	query := `
	UPDATE loans
	SET loan_date = $1,
		expected_return_date = $2,
		extended_return_date = $3,
		return_date = $4,
		renewed = $5,
		status = $6,
		customer_id = $7,
		copy_id = $8,
		book_id = $9,
		updated_at = NOW()
	WHERE id = $10
	RETURNING id, loan_date, expected_return_date, extended_return_date, return_date, renewed, status, customer_id, copy_id, book_id`
	status := "success"
	startTime := time.Now()

	saved, err := scanLoan(r.db.QueryRow(ctx, query,
		l.LoanDate, l.ExpectedReturnDate, l.ExtendedReturnDate, l.ReturnDate,
		l.Renewed, string(l.Status), l.CustomerID, l.CopyID, l.BookID, l.ID,
	))
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("SaveLoan", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan to save does not exist", "loan_id", l.ID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to save loan", "loan_id", l.ID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Loan saved in DB", "loan_id", saved.ID, "status", saved.Status)
	return saved, nil
}

func (r *LoanRepository) queryLoans(ctx context.Context, queryName, query string, args ...any) ([]loan.Loan, error) {
	logCtx := r.logger.With(slog.String("operation", queryName))
	status := "success"
	startTime := time.Now()
	defer func() {
		monitoring.RecordDBQuery(queryName, status, time.Since(startTime))
	}()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		status = "error"
		logCtx.ErrorContext(ctx, "Failed to query loans", slog.Any("error", err))
		return nil, translateDBError(err, logCtx)
	}
	defer rows.Close()

	loans := make([]loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			status = "error"
			logCtx.ErrorContext(ctx, "Failed to scan loan row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning loan: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, *l)
	}

	if err = rows.Err(); err != nil {
		status = "error"
		logCtx.ErrorContext(ctx, "Error iterating loan rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating loans: %w", apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Finished querying loans", slog.Int("count", len(loans)))
	return loans, nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
