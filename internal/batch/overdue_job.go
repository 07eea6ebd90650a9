package batch

import (
	"context"
	"errors"
	"fmt"
	"library-loan/internal/domain/loan"
	"library-loan/internal/infrastructure/monitoring"
	"library-loan/internal/pkg/apperrors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const defaultMaxWorkers = 8

type MarkOverdueLoansJob struct {
	loanRepo    loan.Repository
	loanService loan.LoanService
	maxWorkers  int
	now         func() time.Time
	logger      *slog.Logger
}

func NewMarkOverdueLoansJob(loanRepo loan.Repository, loanSvc loan.LoanService, logger *slog.Logger) *MarkOverdueLoansJob {
	if loanRepo == nil || loanSvc == nil || logger == nil {
		panic("MarkOverdueLoansJob dependencies cannot be nil")
	}
	return &MarkOverdueLoansJob{
		loanRepo:    loanRepo,
		loanService: loanSvc,
		maxWorkers:  defaultMaxWorkers,
		now:         time.Now,
		logger:      logger.With("job", "MarkOverdueLoans"),
	}
}

// Run moves every ongoing loan whose due date has passed to OVERDUE.
func (j *MarkOverdueLoansJob) Run(ctx context.Context) error {
	startTime := time.Now()
	defer func() {
		monitoring.RecordOverdueJob(time.Since(startTime))
	}()
	j.logger.InfoContext(ctx, "Starting overdue loans job.")

	ongoing, err := j.loanRepo.FindAllByStatus(ctx, loan.StatusOngoing)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to get ongoing loans, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to get ongoing loans: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched ongoing loans.", slog.Int("count", len(ongoing)))

	if len(ongoing) == 0 {
		j.logger.InfoContext(ctx, "No ongoing loans found to process.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	now := j.now()
	var wg sync.WaitGroup
	var checkedCount, markedCount, errorCount atomic.Int32
	sem := make(chan struct{}, j.maxWorkers)

	for _, l := range ongoing {
		if !l.IsOverdue(now) {
			continue
		}

		select {
		case <-ctx.Done():
			j.logger.WarnContext(ctx, "Overdue loans job cancelled before all loans were processed.", slog.Any("error", ctx.Err()))
			wg.Wait()
			monitoring.RecordMarkedOverdue(int(markedCount.Load()))
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(loanID int64) {
			defer wg.Done()
			defer func() { <-sem }()

			logCtx := j.logger.With(slog.Int64("loanID", loanID))
			checkedCount.Add(1)

			marked, markErr := j.loanService.MarkOverdue(ctx, loanID, now)
			if markErr != nil {
				if errors.Is(markErr, apperrors.ErrNotFound) {
					logCtx.WarnContext(ctx, "Loan disappeared before it could be marked overdue", slog.Any("error", markErr))
					return
				}
				logCtx.ErrorContext(ctx, "Failed to mark loan overdue", slog.Any("error", markErr))
				errorCount.Add(1)
				return
			}
			if marked {
				markedCount.Add(1)
				logCtx.InfoContext(ctx, "Loan marked overdue.")
			}
		}(l.ID)
	}

	wg.Wait()
	monitoring.RecordMarkedOverdue(int(markedCount.Load()))

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("ongoing_loans", len(ongoing)),
		slog.Int("loans_past_due", int(checkedCount.Load())),
		slog.Int("loans_marked_overdue", int(markedCount.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)
	if errorCount.Load() > 0 {
		summaryLog.WarnContext(ctx, "Overdue loans job finished with errors.")
		return fmt.Errorf("job completed with %d errors", errorCount.Load())
	}
	summaryLog.InfoContext(ctx, "Overdue loans job finished successfully.")
	return nil
}
