package dto

import (
	"testing"

	"credit-engine/internal/domain/customer"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRegisterCustomerRequestValidate(t *testing.T) {
	validRequest := func() RegisterCustomerRequest {
		return RegisterCustomerRequest{
			FirstName:     "Asha",
			LastName:      "Rao",
			Age:           30,
			MonthlySalary: decimal.NewFromInt(50000),
			PhoneNumber:   "9876543210",
		}
	}

	t.Run("should accept a well formed request", func(t *testing.T) {
		req := validRequest()
		assert.Empty(t, req.Validate())
	})

	t.Run("should reject blank names and phone number", func(t *testing.T) {
		req := validRequest()
		req.FirstName = "   "
		req.LastName = ""
		req.PhoneNumber = "\t"

		errs := req.Validate()

		assert.Len(t, errs, 3)
		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			fields = append(fields, e.Field)
		}
		assert.ElementsMatch(t, []string{"first_name", "last_name", "phone_number"}, fields)
	})

	t.Run("should reject age outside the accepted range", func(t *testing.T) {
		req := validRequest()
		req.Age = 17
		errs := req.Validate()
		assert.Len(t, errs, 1)
		assert.Equal(t, "age", errs[0].Field)

		req.Age = 101
		errs = req.Validate()
		assert.Len(t, errs, 1)
		assert.Equal(t, "age", errs[0].Field)
	})

	t.Run("should reject non positive salary", func(t *testing.T) {
		req := validRequest()
		req.MonthlySalary = decimal.Zero
		errs := req.Validate()
		assert.Len(t, errs, 1)
		assert.Equal(t, "monthly_salary", errs[0].Field)
	})
}

func TestNewRegisterCustomerResponse(t *testing.T) {
	cust := &customer.Customer{
		CustomerID:    7,
		FirstName:     "Asha",
		LastName:      "Rao",
		Age:           30,
		PhoneNumber:   "9876543210",
		MonthlySalary: decimal.NewFromInt(50000),
		ApprovedLimit: decimal.NewFromInt(1800000),
	}

	resp := NewRegisterCustomerResponse(cust)

	assert.Equal(t, int64(7), resp.CustomerID)
	assert.Equal(t, "Asha Rao", resp.Name)
	assert.Equal(t, 30, resp.Age)
	assert.Equal(t, "50000.00", resp.MonthlySalary)
	assert.Equal(t, "1800000.00", resp.ApprovedLimit)
	assert.Equal(t, "9876543210", resp.PhoneNumber)
}
