package loan

import (
	"errors"
	"fmt"
	"time"

	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("loan not found")

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

type Loan struct {
	LoanID           int64
	CustomerID       int64
	LoanAmount       decimal.Decimal
	TenureMonths     int
	InterestRate     decimal.Decimal
	MonthlyRepayment decimal.Decimal
	EMIsPaidOnTime   int
	StartDate        time.Time
	EndDate          time.Time
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewLoan builds an approved loan starting now. The interest rate is the
// corrected rate from the eligibility decision, never the requested one.
func NewLoan(customerID int64, amount decimal.Decimal, annualRate decimal.Decimal, tenureMonths int) (*Loan, error) {
	installment, err := MonthlyInstallment(amount, annualRate, tenureMonths)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	return &Loan{
		CustomerID:       customerID,
		LoanAmount:       amount,
		TenureMonths:     tenureMonths,
		InterestRate:     annualRate,
		MonthlyRepayment: installment,
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, tenureMonths*30),
		IsActive:         true,
	}, nil
}

// RepaymentsLeft is tenure minus EMIs paid on time, floored at zero.
// A closed loan has nothing left to repay.
func (l *Loan) RepaymentsLeft() int {
	if !l.IsActive {
		return 0
	}
	left := l.TenureMonths - l.EMIsPaidOnTime
	if left < 0 {
		return 0
	}
	return left
}

func (l *Loan) FullyRepaid() bool {
	return l.EMIsPaidOnTime >= l.TenureMonths
}

// MonthlyInstallment computes the fixed EMI for an amortizing loan using
// decimal arithmetic throughout:
//
//	r = (annualRate/100)/12
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// with the zero-rate case degenerating to P/n. The result is rounded
// half-up to 2 decimal places.
func MonthlyInstallment(principal decimal.Decimal, annualRate decimal.Decimal, tenureMonths int) (decimal.Decimal, error) {
	if tenureMonths <= 0 {
		return decimal.Zero, fmt.Errorf("%w: tenure must be a positive number of months", apperrors.ErrInvalidArgument)
	}
	if principal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: principal must be positive", apperrors.ErrInvalidArgument)
	}
	if annualRate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: interest rate cannot be negative", apperrors.ErrInvalidArgument)
	}

	tenure := decimal.NewFromInt(int64(tenureMonths))
	monthlyRate := annualRate.Div(hundred).Div(twelve)

	if monthlyRate.IsZero() {
		return principal.Div(tenure).Round(2), nil
	}

	growth := one.Add(monthlyRate).Pow(tenure)
	emi := principal.Mul(monthlyRate).Mul(growth).Div(growth.Sub(one))
	return emi.Round(2), nil
}
