package loan

import "github.com/shopspring/decimal"

const (
	MsgCustomerNotFound = "Customer not found"
	MsgLimitExceeded    = "Loan amount exceeds approved limit"
	MsgEMIRatioExceeded = "Current EMIs exceed 50% of monthly salary"
	MsgApproved         = "Loan approved"
	MsgScoreRejected    = "Loan not approved based on credit score"
	MsgLoanCreated      = "Loan approved successfully"
)

var (
	rateFloorMedium = decimal.NewFromInt(12)
	rateFloorLow    = decimal.NewFromInt(16)

	halfSalaryRatio = decimal.NewFromFloat(0.5)
)

type EligibilityRequest struct {
	CustomerID   int64
	LoanAmount   decimal.Decimal
	InterestRate decimal.Decimal
	TenureMonths int
}

// Decision is the outcome of an eligibility check. It is purely
// informational; persisting an approved loan is a separate step.
type Decision struct {
	CustomerID         int64
	Approved           bool
	InterestRate       decimal.Decimal
	CorrectedRate      decimal.Decimal
	TenureMonths       int
	MonthlyInstallment decimal.Decimal
	Message            string
}

// applyRatePolicy maps a credit score and a requested annual rate onto the
// approval outcome and the rate the loan would actually carry. Scores above
// 50 are approved at a 12% floor; the 30 to 50 band only with a rate above 12%;
// the 10–30 band only above 16%; 10 and below is always rejected. Rejected
// slabs still report the floor rate the customer would have needed.
func applyRatePolicy(score int, requested decimal.Decimal) (approved bool, corrected decimal.Decimal) {
	switch {
	case score > 50:
		if requested.LessThan(rateFloorMedium) {
			return true, rateFloorMedium
		}
		return true, requested
	case score > 30:
		if requested.GreaterThan(rateFloorMedium) {
			return true, requested
		}
		return false, rateFloorMedium
	case score > 10:
		if requested.GreaterThan(rateFloorLow) {
			return true, requested
		}
		return false, rateFloorLow
	default:
		return false, rateFloorLow
	}
}
