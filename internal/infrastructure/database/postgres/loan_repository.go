package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const loanColumns = `id, customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, is_active, created_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.LoanID,
		&l.CustomerID,
		&l.LoanAmount,
		&l.TenureMonths,
		&l.InterestRate,
		&l.MonthlyRepayment,
		&l.EMIsPaidOnTime,
		&l.StartDate,
		&l.EndDate,
		&l.IsActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}

	if l.LoanID == 0 {
		return r.insertLoan(ctx, l)
	}
	return r.updateLoan(ctx, l)
}

func (r *LoanRepository) insertLoan(ctx context.Context, l *loan.Loan) error {
	query := `
        INSERT INTO loans (customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		l.CustomerID,
		l.LoanAmount,
		l.TenureMonths,
		l.InterestRate,
		l.MonthlyRepayment,
		l.EMIsPaidOnTime,
		l.StartDate,
		l.EndDate,
		l.IsActive,
	).Scan(
		&l.LoanID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Loan inserted successfully", slog.Int64("loanID", l.LoanID))
	return nil
}

// SaveWithID keeps the ID carried by imported records instead of letting the
// sequence assign one.
func (r *LoanRepository) SaveWithID(ctx context.Context, l *loan.Loan) error {
	if l == nil || l.LoanID == 0 {
		return fmt.Errorf("%w: loan with explicit ID required", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO loans (id, customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`

	_, err := r.db.Exec(ctx, query,
		l.LoanID,
		l.CustomerID,
		l.LoanAmount,
		l.TenureMonths,
		l.InterestRate,
		l.MonthlyRepayment,
		l.EMIsPaidOnTime,
		l.StartDate,
		l.EndDate,
		l.IsActive,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan with explicit ID", slog.Any("error", err), slog.Int64("loanID", l.LoanID))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *LoanRepository) updateLoan(ctx context.Context, l *loan.Loan) error {
	query := `
        UPDATE loans
        SET loan_amount = $1,
            tenure = $2,
            interest_rate = $3,
            monthly_repayment = $4,
            emis_paid_on_time = $5,
            start_date = $6,
            end_date = $7,
            is_active = $8,
            updated_at = NOW()
        WHERE id = $9`

	cmdTag, err := r.db.Exec(ctx, query,
		l.LoanAmount,
		l.TenureMonths,
		l.InterestRate,
		l.MonthlyRepayment,
		l.EMIsPaidOnTime,
		l.StartDate,
		l.EndDate,
		l.IsActive,
		l.LoanID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return loan.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	if err != nil {
		translated := translateDBError(err, r.logger)
		if errors.Is(translated, apperrors.ErrNotFound) {
			return nil, loan.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find loan by ID", slog.Any("error", err), slog.Int64("loanID", loanID))
		return nil, translated
	}
	return l, nil
}

func (r *LoanRepository) ExistsByID(ctx context.Context, loanID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM loans WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, loanID).Scan(&exists); err != nil {
		r.logger.ErrorContext(ctx, "Failed to check loan existence", slog.Any("error", err), slog.Int64("loanID", loanID))
		return false, translateDBError(err, r.logger)
	}
	return exists, nil
}

func (r *LoanRepository) FindByCustomer(ctx context.Context, customerID int64, activeOnly bool) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans by customer", slog.Any("error", err), slog.Int64("customerID", customerID))
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning loan: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (r *LoanRepository) SumActiveLoanAmounts(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(loan_amount), 0) FROM loans WHERE customer_id = $1 AND is_active = TRUE`
	return r.sumForCustomer(ctx, query, customerID)
}

func (r *LoanRepository) SumActiveMonthlyRepayments(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(monthly_repayment), 0) FROM loans WHERE customer_id = $1 AND is_active = TRUE`
	return r.sumForCustomer(ctx, query, customerID)
}

func (r *LoanRepository) sumForCustomer(ctx context.Context, query string, customerID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, customerID).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Failed to aggregate loans", slog.Any("error", err), slog.Int64("customerID", customerID))
		return decimal.Zero, translateDBError(err, r.logger)
	}
	return total, nil
}

func (r *LoanRepository) CustomerIDsWithActiveLoans(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT customer_id FROM loans WHERE is_active = TRUE ORDER BY customer_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers with active loans", slog.Any("error", err))
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer ID row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning customer ID: %w", apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return ids, nil
}

func (r *LoanRepository) Deactivate(ctx context.Context, loanID int64) error {
	query := `UPDATE loans SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	cmdTag, err := r.db.Exec(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to deactivate loan", slog.Any("error", err), slog.Int64("loanID", loanID))
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return loan.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Loan deactivated", slog.Int64("loanID", loanID))
	return nil
}
