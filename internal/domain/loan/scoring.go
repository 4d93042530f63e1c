package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	maxScore             = 100
	onTimeComponentCap   = 30
	countComponentCap    = 25
	activityComponentCap = 25
	volumeComponentCap   = 20
)

var (
	volumeHigh   = decimal.NewFromInt(1_000_000)
	volumeMedium = decimal.NewFromInt(500_000)
	volumeLow    = decimal.NewFromInt(100_000)
)

// CreditScore summarizes a customer's loan history as an integer in [0,100].
//
// A customer with no loan history scores 0. If the amounts of the active
// loans already exceed the approved limit, the score is 0 regardless of any
// other component. Otherwise four capped components are summed: repayment
// punctuality (30), number of loans taken (25), activity in the current
// calendar year (25) and total approved volume across all loans (20).
//
// The debt cutoff looks at active loans only, while the volume component
// counts every loan ever taken.
func CreditScore(approvedLimit decimal.Decimal, loans []*Loan, now time.Time) int {
	if len(loans) == 0 {
		return 0
	}

	activeDebt := decimal.Zero
	for _, l := range loans {
		if l.IsActive {
			activeDebt = activeDebt.Add(l.LoanAmount)
		}
	}
	if activeDebt.GreaterThan(approvedLimit) {
		return 0
	}

	score := onTimeComponent(loans) +
		countComponent(len(loans)) +
		activityComponent(loans, now.Year()) +
		volumeComponent(loans)

	if score > maxScore {
		return maxScore
	}
	return score
}

func onTimeComponent(loans []*Loan) int {
	var paid, expected int64
	for _, l := range loans {
		paid += int64(l.EMIsPaidOnTime)
		expected += int64(l.TenureMonths)
	}
	if expected == 0 {
		return 0
	}

	ratio := decimal.NewFromInt(paid).Div(decimal.NewFromInt(expected))
	points := int(ratio.Mul(decimal.NewFromInt(onTimeComponentCap)).IntPart())
	if points > onTimeComponentCap {
		return onTimeComponentCap
	}
	return points
}

func countComponent(count int) int {
	switch {
	case count >= 5:
		return countComponentCap
	case count >= 3:
		return 20
	case count >= 1:
		return 15
	default:
		return 0
	}
}

func activityComponent(loans []*Loan, currentYear int) int {
	for _, l := range loans {
		if l.StartDate.Year() == currentYear {
			return activityComponentCap
		}
	}
	return 0
}

func volumeComponent(loans []*Loan) int {
	total := decimal.Zero
	for _, l := range loans {
		total = total.Add(l.LoanAmount)
	}

	switch {
	case total.GreaterThanOrEqual(volumeHigh):
		return volumeComponentCap
	case total.GreaterThanOrEqual(volumeMedium):
		return 15
	case total.GreaterThanOrEqual(volumeLow):
		return 10
	default:
		return 0
	}
}
