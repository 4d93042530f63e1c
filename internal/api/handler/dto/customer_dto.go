package dto

import (
	"strings"

	"credit-engine/internal/domain/customer"

	"github.com/shopspring/decimal"
)

type RegisterCustomerRequest struct {
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Age           int             `json:"age"`
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
	PhoneNumber   string          `json:"phone_number"`
}

// Validate returns one entry per offending field, empty when the request is
// well formed.
func (r *RegisterCustomerRequest) Validate() []ErrorDetail {
	var errs []ErrorDetail
	if strings.TrimSpace(r.FirstName) == "" {
		errs = append(errs, ErrorDetail{Field: "first_name", Message: "first name is required"})
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs = append(errs, ErrorDetail{Field: "last_name", Message: "last name is required"})
	}
	if r.Age < customer.MinAge || r.Age > customer.MaxAge {
		errs = append(errs, ErrorDetail{Field: "age", Message: "age must be between 18 and 100"})
	}
	if r.MonthlySalary.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, ErrorDetail{Field: "monthly_salary", Message: "monthly salary must be positive"})
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		errs = append(errs, ErrorDetail{Field: "phone_number", Message: "phone number is required"})
	}
	return errs
}

type RegisterCustomerResponse struct {
	CustomerID    int64  `json:"customer_id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	MonthlySalary string `json:"monthly_salary"`
	ApprovedLimit string `json:"approved_limit"`
	PhoneNumber   string `json:"phone_number"`
}

func NewRegisterCustomerResponse(cust *customer.Customer) RegisterCustomerResponse {
	return RegisterCustomerResponse{
		CustomerID:    cust.CustomerID,
		Name:          cust.FullName(),
		Age:           cust.Age,
		MonthlySalary: cust.MonthlySalary.StringFixed(2),
		ApprovedLimit: cust.ApprovedLimit.StringFixed(2),
		PhoneNumber:   cust.PhoneNumber,
	}
}
