package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"credit-engine/internal/domain/loan"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var loanColumnNames = []string{"id", "customer_id", "loan_amount", "tenure", "interest_rate", "monthly_repayment", "emis_paid_on_time", "start_date", "end_date", "is_active", "created_at", "updated_at"}

func testLoan() *loan.Loan {
	now := time.Now()
	return &loan.Loan{
		CustomerID:       1,
		LoanAmount:       decimal.NewFromInt(100_000),
		TenureMonths:     12,
		InterestRate:     decimal.NewFromInt(12),
		MonthlyRepayment: decimal.RequireFromString("8884.88"),
		EMIsPaidOnTime:   0,
		StartDate:        now,
		EndDate:          now.AddDate(0, 0, 360),
		IsActive:         true,
	}
}

func loanRow(l *loan.Loan) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(loanColumnNames).AddRow(
		l.LoanID, l.CustomerID, l.LoanAmount, l.TenureMonths, l.InterestRate,
		l.MonthlyRepayment, l.EMIsPaidOnTime, l.StartDate, l.EndDate, l.IsActive,
		now, now)
}

func setupLoanRepo(t *testing.T) (context.Context, *LoanRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewLoanRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func TestSaveNewLoanWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoan()
	now := time.Now()
	mockPool.ExpectQuery(regexp.QuoteMeta(`INSERT INTO loans (customer_id,`)).WithArgs(
		l.CustomerID,
		l.LoanAmount,
		l.TenureMonths,
		l.InterestRate,
		l.MonthlyRepayment,
		l.EMIsPaidOnTime,
		l.StartDate,
		l.EndDate,
		l.IsActive,
	).WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(int64(42), now, now))

	err := repo.Save(ctx, l)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), l.LoanID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveExistingLoanWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoan()
	l.LoanID = 99

	mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE loans`)).WithArgs(
		l.LoanAmount,
		l.TenureMonths,
		l.InterestRate,
		l.MonthlyRepayment,
		l.EMIsPaidOnTime,
		l.StartDate,
		l.EndDate,
		l.IsActive,
		l.LoanID,
	).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Save(ctx, l)
	assert.ErrorIs(t, err, loan.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveLoanWithIDWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoan()
	l.LoanID = 100

	mockPool.ExpectExec(regexp.QuoteMeta(`INSERT INTO loans (id,`)).WithArgs(
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
	).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.SaveWithID(ctx, l)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindLoanByIDWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	stored := testLoan()
	stored.LoanID = 5
	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT `+loanColumns+` FROM loans WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(loanRow(stored))

	l, err := repo.FindByID(ctx, 5)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), l.LoanID)
	assert.Equal(t, "8884.88", l.MonthlyRepayment.StringFixed(2))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindLoanByIDWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT `+loanColumns+` FROM loans WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	l, err := repo.FindByID(ctx, 9)
	assert.ErrorIs(t, err, loan.ErrNotFound)
	assert.Nil(t, l)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindLoansByCustomerActiveOnly(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	stored := testLoan()
	stored.LoanID = 5
	query := `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 AND is_active = TRUE ORDER BY id`
	mockPool.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(int64(1)).
		WillReturnRows(loanRow(stored))

	loans, err := repo.FindByCustomer(ctx, 1, true)
	assert.NoError(t, err)
	assert.Len(t, loans, 1)
	assert.Equal(t, int64(5), loans[0].LoanID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindLoansByCustomerWhenEmpty(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	query := `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 ORDER BY id`
	mockPool.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(loanColumnNames))

	loans, err := repo.FindByCustomer(ctx, 1, false)
	assert.NoError(t, err)
	assert.Empty(t, loans)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSumActiveLoanAmounts(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	query := `SELECT COALESCE(SUM(loan_amount), 0) FROM loans WHERE customer_id = $1 AND is_active = TRUE`
	mockPool.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(decimal.NewFromInt(150_000)))

	sum, err := repo.SumActiveLoanAmounts(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, "150000", sum.String())
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSumActiveMonthlyRepayments(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	query := `SELECT COALESCE(SUM(monthly_repayment), 0) FROM loans WHERE customer_id = $1 AND is_active = TRUE`
	mockPool.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(decimal.Zero))

	sum, err := repo.SumActiveMonthlyRepayments(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, sum.IsZero())
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCustomerIDsWithActiveLoans(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	query := `SELECT DISTINCT customer_id FROM loans WHERE is_active = TRUE ORDER BY customer_id`
	mockPool.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnRows(pgxmock.NewRows([]string{"customer_id"}).AddRow(int64(1)).AddRow(int64(3)))

	ids, err := repo.CustomerIDsWithActiveLoans(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeactivateLoan(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	query := `UPDATE loans SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	mockPool.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Deactivate(ctx, 5))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeactivateLoanWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	query := `UPDATE loans SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	mockPool.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Deactivate(ctx, 9), loan.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
