package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// DebtSyncJob reconciles each borrower's current debt with their active
// loans. Loans that have had every installment paid are deactivated first,
// then the remaining active amounts are summed into the customer record.
type DebtSyncJob struct {
	customerRepo customer.Repository
	loanRepo     loan.Repository
	logger       *slog.Logger
}

func NewDebtSyncJob(customerRepo customer.Repository, loanRepo loan.Repository, logger *slog.Logger) *DebtSyncJob {
	if customerRepo == nil || loanRepo == nil || logger == nil {
		panic("DebtSyncJob dependencies cannot be nil")
	}
	return &DebtSyncJob{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
		logger:       logger.With("job", "DebtSync"),
	}
}

func (j *DebtSyncJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting debt sync job.")

	customerIDs, err := j.loanRepo.CustomerIDsWithActiveLoans(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list customers with active loans, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list active borrowers: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched customers with active loans.", slog.Int("count", len(customerIDs)))

	if len(customerIDs) == 0 {
		j.logger.InfoContext(ctx, "Debt sync job finished, nothing to do.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	var wg sync.WaitGroup
	var syncedCount, closedCount, errorCount atomic.Int32

	for _, customerID := range customerIDs {
		wg.Add(1)
		go func(currentCustomerID int64) {
			defer wg.Done()

			closed, err := j.syncCustomer(ctx, currentCustomerID)
			if err != nil {
				j.logger.ErrorContext(ctx, "Failed to sync customer debt",
					slog.Int64("customerID", currentCustomerID), slog.Any("error", err))
				errorCount.Add(1)
				return
			}
			syncedCount.Add(1)
			closedCount.Add(int32(closed))
		}(customerID)
	}

	wg.Wait()
	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("customers_synced", int(syncedCount.Load())),
		slog.Int("loans_closed", int(closedCount.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)
	if errorCount.Load() > 0 {
		summaryLog.WarnContext(ctx, "Debt sync job finished with errors.")
		return fmt.Errorf("job completed with %d errors", errorCount.Load())
	}
	summaryLog.InfoContext(ctx, "Debt sync job finished successfully.")
	return nil
}

func (j *DebtSyncJob) syncCustomer(ctx context.Context, customerID int64) (closed int, err error) {
	loans, err := j.loanRepo.FindByCustomer(ctx, customerID, true)
	if err != nil {
		return 0, fmt.Errorf("find active loans: %w", err)
	}

	debt := decimal.Zero
	for _, l := range loans {
		if l.FullyRepaid() {
			if err := j.loanRepo.Deactivate(ctx, l.LoanID); err != nil {
				if errors.Is(err, loan.ErrNotFound) {
					j.logger.WarnContext(ctx, "Loan vanished before deactivation",
						slog.Int64("loanID", l.LoanID))
					continue
				}
				return closed, fmt.Errorf("deactivate loan %d: %w", l.LoanID, err)
			}
			closed++
			continue
		}
		debt = debt.Add(l.LoanAmount)
	}

	if err := j.customerRepo.UpdateCurrentDebt(ctx, customerID, debt); err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			j.logger.WarnContext(ctx, "Customer missing during debt sync",
				slog.Int64("customerID", customerID))
			return closed, nil
		}
		return closed, fmt.Errorf("update current debt: %w", err)
	}
	return closed, nil
}
