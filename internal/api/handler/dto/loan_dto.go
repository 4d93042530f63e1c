package dto

import (
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationErrorResponse carries the full list of field errors for a 400.
type ValidationErrorResponse struct {
	Errors []ErrorDetail `json:"errors"`
}

// ErrorResponse is the flat error payload used by the view endpoints,
// e.g. {"error": "Loan not found"}.
type ErrorResponse struct {
	Error string `json:"error"`
}

type LoanApplicationRequest struct {
	CustomerID   int64           `json:"customer_id"`
	LoanAmount   decimal.Decimal `json:"loan_amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Tenure       int             `json:"tenure"`
}

func (r *LoanApplicationRequest) Validate() []ErrorDetail {
	var errs []ErrorDetail
	if r.CustomerID <= 0 {
		errs = append(errs, ErrorDetail{Field: "customer_id", Message: "customer id must be positive"})
	}
	if r.LoanAmount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, ErrorDetail{Field: "loan_amount", Message: "loan amount must be positive"})
	}
	if r.InterestRate.IsNegative() {
		errs = append(errs, ErrorDetail{Field: "interest_rate", Message: "interest rate cannot be negative"})
	}
	if r.Tenure < loan.MinTenureMonths || r.Tenure > loan.MaxTenureMonths {
		errs = append(errs, ErrorDetail{Field: "tenure", Message: "tenure must be between 1 and 120 months"})
	}
	return errs
}

func (r *LoanApplicationRequest) ToEligibilityRequest() loan.EligibilityRequest {
	return loan.EligibilityRequest{
		CustomerID:   r.CustomerID,
		LoanAmount:   r.LoanAmount,
		InterestRate: r.InterestRate,
		TenureMonths: r.Tenure,
	}
}

type EligibilityResponse struct {
	CustomerID            int64  `json:"customer_id"`
	Approval              bool   `json:"approval"`
	InterestRate          string `json:"interest_rate"`
	CorrectedInterestRate string `json:"corrected_interest_rate"`
	Tenure                int    `json:"tenure"`
	MonthlyInstallment    string `json:"monthly_installment"`
}

func NewEligibilityResponse(d *loan.Decision) EligibilityResponse {
	return EligibilityResponse{
		CustomerID:            d.CustomerID,
		Approval:              d.Approved,
		InterestRate:          d.InterestRate.String(),
		CorrectedInterestRate: d.CorrectedRate.String(),
		Tenure:                d.TenureMonths,
		MonthlyInstallment:    d.MonthlyInstallment.StringFixed(2),
	}
}

type CreateLoanResponse struct {
	LoanID             *int64  `json:"loan_id"`
	CustomerID         int64   `json:"customer_id"`
	LoanApproved       bool    `json:"loan_approved"`
	Message            string  `json:"message"`
	MonthlyInstallment *string `json:"monthly_installment"`
}

func NewCreateLoanResponse(created *loan.Loan, d *loan.Decision) CreateLoanResponse {
	resp := CreateLoanResponse{
		CustomerID:   d.CustomerID,
		LoanApproved: d.Approved,
		Message:      d.Message,
	}
	if created != nil {
		resp.LoanID = &created.LoanID
		installment := created.MonthlyRepayment.StringFixed(2)
		resp.MonthlyInstallment = &installment
	}
	return resp
}

type CustomerSummary struct {
	CustomerID  int64  `json:"customer_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Age         int    `json:"age"`
}

type LoanDetailResponse struct {
	LoanID             int64           `json:"loan_id"`
	Customer           CustomerSummary `json:"customer"`
	LoanAmount         string          `json:"loan_amount"`
	InterestRate       string          `json:"interest_rate"`
	MonthlyInstallment string          `json:"monthly_installment"`
	Tenure             int             `json:"tenure"`
}

func NewLoanDetailResponse(l *loan.Loan, cust *customer.Customer) LoanDetailResponse {
	return LoanDetailResponse{
		LoanID: l.LoanID,
		Customer: CustomerSummary{
			CustomerID:  cust.CustomerID,
			FirstName:   cust.FirstName,
			LastName:    cust.LastName,
			PhoneNumber: cust.PhoneNumber,
			Age:         cust.Age,
		},
		LoanAmount:         l.LoanAmount.StringFixed(2),
		InterestRate:       l.InterestRate.String(),
		MonthlyInstallment: l.MonthlyRepayment.StringFixed(2),
		Tenure:             l.TenureMonths,
	}
}

type ActiveLoanResponse struct {
	LoanID             int64  `json:"loan_id"`
	LoanAmount         string `json:"loan_amount"`
	InterestRate       string `json:"interest_rate"`
	MonthlyInstallment string `json:"monthly_installment"`
	RepaymentsLeft     int    `json:"repayments_left"`
}

func NewActiveLoanResponses(loans []*loan.Loan) []ActiveLoanResponse {
	resp := make([]ActiveLoanResponse, len(loans))
	for i, l := range loans {
		resp[i] = ActiveLoanResponse{
			LoanID:             l.LoanID,
			LoanAmount:         l.LoanAmount.StringFixed(2),
			InterestRate:       l.InterestRate.String(),
			MonthlyInstallment: l.MonthlyRepayment.StringFixed(2),
			RepaymentsLeft:     l.RepaymentsLeft(),
		}
	}
	return resp
}

type ImportSummaryResponse struct {
	CustomersImported int `json:"customers_imported"`
	CustomersSkipped  int `json:"customers_skipped"`
	LoansImported     int `json:"loans_imported"`
	LoansSkipped      int `json:"loans_skipped"`
	RowErrors         int `json:"row_errors"`
}
