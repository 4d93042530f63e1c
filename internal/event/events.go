package event

import "time"

type CustomerPayload struct {
	CustomerID    int64  `json:"customer_id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	PhoneNumber   string `json:"phone_number"`
	MonthlySalary string `json:"monthly_salary"`
	ApprovedLimit string `json:"approved_limit"`
}

type CustomerRegisteredEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Payload   CustomerPayload `json:"payload"`
}

type LoanPayload struct {
	LoanID             int64  `json:"loan_id"`
	CustomerID         int64  `json:"customer_id"`
	LoanAmount         string `json:"loan_amount"`
	TenureMonths       int    `json:"tenure"`
	InterestRate       string `json:"interest_rate"`
	MonthlyInstallment string `json:"monthly_installment"`
}

type LoanCreatedEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Payload   LoanPayload `json:"payload"`
}
