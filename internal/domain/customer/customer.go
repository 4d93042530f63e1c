package customer

import (
	"time"

	"github.com/shopspring/decimal"
)

// lakhUnit is the rounding unit for approved credit limits (100,000).
var lakhUnit = decimal.NewFromInt(100_000)

var salaryMultiplier = decimal.NewFromInt(36)

type Customer struct {
	CustomerID    int64
	FirstName     string
	LastName      string
	Age           int
	PhoneNumber   string
	MonthlySalary decimal.Decimal
	ApprovedLimit decimal.Decimal
	CurrentDebt   decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewCustomer(firstName, lastName string, age int, phoneNumber string, monthlySalary decimal.Decimal) *Customer {
	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           age,
		PhoneNumber:   phoneNumber,
		MonthlySalary: monthlySalary,
		ApprovedLimit: ApprovedLimitFor(monthlySalary),
		CurrentDebt:   decimal.Zero,
	}
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ApprovedLimitFor derives the credit limit from a monthly salary:
// 36x salary, rounded to the nearest 100,000 with ties going to the even
// lakh. The limit is fixed at registration and never recomputed.
func ApprovedLimitFor(monthlySalary decimal.Decimal) decimal.Decimal {
	return monthlySalary.Mul(salaryMultiplier).Div(lakhUnit).RoundBank(0).Mul(lakhUnit)
}
