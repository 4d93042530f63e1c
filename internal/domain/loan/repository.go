package loan

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	// Save inserts the loan when LoanID is zero, otherwise updates it.
	Save(ctx context.Context, l *Loan) error

	// SaveWithID inserts the loan keeping its externally assigned ID.
	// Used by the batch importer, which preserves source record IDs.
	SaveWithID(ctx context.Context, l *Loan) error

	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	ExistsByID(ctx context.Context, loanID int64) (bool, error)

	// FindByCustomer returns the customer's loans, optionally restricted to
	// active ones, ordered by loan ID.
	FindByCustomer(ctx context.Context, customerID int64, activeOnly bool) ([]*Loan, error)

	// SumActiveLoanAmounts aggregates the outstanding principal of the
	// customer's active loans; zero when there are none.
	SumActiveLoanAmounts(ctx context.Context, customerID int64) (decimal.Decimal, error)

	// SumActiveMonthlyRepayments aggregates the EMIs of the customer's
	// active loans; zero when there are none.
	SumActiveMonthlyRepayments(ctx context.Context, customerID int64) (decimal.Decimal, error)

	// CustomerIDsWithActiveLoans lists every customer owning at least one
	// active loan. Used by the nightly debt-sync job.
	CustomerIDsWithActiveLoans(ctx context.Context) ([]int64, error)

	Deactivate(ctx context.Context, loanID int64) error
}
