package batch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"credit-engine/internal/batch"
	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	args := m.Called(ctx, cust)
	return args.Error(0)
}

func (m *MockCustomerRepository) SaveWithID(ctx context.Context, cust *customer.Customer) error {
	args := m.Called(ctx, cust)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if cust, ok := args.Get(0).(*customer.Customer); ok {
		return cust, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerRepository) ExistsByID(ctx context.Context, customerID int64) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, customerID int64) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockCustomerRepository) UpdateCurrentDebt(ctx context.Context, customerID int64, debt decimal.Decimal) error {
	args := m.Called(ctx, customerID, debt)
	return args.Error(0)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLoanRepository) SaveWithID(ctx context.Context, l *loan.Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) ExistsByID(ctx context.Context, loanID int64) (bool, error) {
	args := m.Called(ctx, loanID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoanRepository) FindByCustomer(ctx context.Context, customerID int64, activeOnly bool) ([]*loan.Loan, error) {
	args := m.Called(ctx, customerID, activeOnly)
	if loans, ok := args.Get(0).([]*loan.Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) SumActiveLoanAmounts(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID)
	if sum, ok := args.Get(0).(decimal.Decimal); ok {
		return sum, args.Error(1)
	}
	return decimal.Zero, args.Error(1)
}

func (m *MockLoanRepository) SumActiveMonthlyRepayments(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID)
	if sum, ok := args.Get(0).(decimal.Decimal); ok {
		return sum, args.Error(1)
	}
	return decimal.Zero, args.Error(1)
}

func (m *MockLoanRepository) CustomerIDsWithActiveLoans(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) Deactivate(ctx context.Context, loanID int64) error {
	args := m.Called(ctx, loanID)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newImporter(customerRepo customer.Repository, loanRepo loan.Repository) *batch.Importer {
	return batch.NewImporter(customerRepo, loanRepo, config.ImportConfig{}, testLogger())
}

const customerCSV = `Customer ID,First Name,Last Name,Age,Phone Number,Monthly Salary,Approved Limit,Current Debt
1,Asha,Rao,34,9876543210,50000,1800000,0
2,Ravi,Iyer,41,9876543211,75000,2700000,120000
`

const loanCSV = `Customer ID,Loan ID,Loan Amount,Tenure,Interest Rate,Monthly payment,EMIs paid on Time,Date of Approval,End Date
1,100,100000,12,12.0,8884.88,5,2025-03-01,2026-02-24
1,101,50000,6,14.5,8692.50,6,2024-01-15,2024-07-13
`

func TestImportCustomers(t *testing.T) {
	ctx := context.Background()

	t.Run("should import rows preserving source IDs", func(t *testing.T) {
		customerRepo := new(MockCustomerRepository)
		loanRepo := new(MockLoanRepository)
		customerRepo.On("ExistsByID", ctx, mock.AnythingOfType("int64")).Return(false, nil)
		customerRepo.On("SaveWithID", ctx, mock.AnythingOfType("*customer.Customer")).Return(nil)

		im := newImporter(customerRepo, loanRepo)
		summary, err := im.ImportCustomers(ctx, strings.NewReader(customerCSV))

		assert.NoError(t, err)
		assert.Equal(t, 2, summary.CustomersImported)
		assert.Equal(t, 0, summary.CustomersSkipped)
		assert.Equal(t, 0, summary.RowErrors)
		customerRepo.AssertNumberOfCalls(t, "SaveWithID", 2)
	})

	t.Run("should skip rows that were already imported", func(t *testing.T) {
		customerRepo := new(MockCustomerRepository)
		loanRepo := new(MockLoanRepository)
		customerRepo.On("ExistsByID", ctx, int64(1)).Return(true, nil)
		customerRepo.On("ExistsByID", ctx, int64(2)).Return(false, nil)
		customerRepo.On("SaveWithID", ctx, mock.AnythingOfType("*customer.Customer")).Return(nil)

		im := newImporter(customerRepo, loanRepo)
		summary, err := im.ImportCustomers(ctx, strings.NewReader(customerCSV))

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.CustomersImported)
		assert.Equal(t, 1, summary.CustomersSkipped)
		customerRepo.AssertNumberOfCalls(t, "SaveWithID", 1)
	})

	t.Run("should count malformed rows without aborting", func(t *testing.T) {
		csv := `customer_id,first_name,last_name,age,phone_number,monthly_salary,approved_limit
not-a-number,Asha,Rao,34,9876543210,50000,1800000
3,Meena,Pillai,29,9876543212,60000,2200000
`
		customerRepo := new(MockCustomerRepository)
		loanRepo := new(MockLoanRepository)
		customerRepo.On("ExistsByID", ctx, int64(3)).Return(false, nil)
		customerRepo.On("SaveWithID", ctx, mock.AnythingOfType("*customer.Customer")).Return(nil)

		im := newImporter(customerRepo, loanRepo)
		summary, err := im.ImportCustomers(ctx, strings.NewReader(csv))

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.CustomersImported)
		assert.Equal(t, 1, summary.RowErrors)
	})

	t.Run("should default missing optional columns", func(t *testing.T) {
		csv := `customer_id,first_name,last_name,phone_number,monthly_salary,approved_limit
4,Vikram,Nair,9876543213,80000,2900000
`
		customerRepo := new(MockCustomerRepository)
		loanRepo := new(MockLoanRepository)
		customerRepo.On("ExistsByID", ctx, int64(4)).Return(false, nil)
		var saved *customer.Customer
		customerRepo.On("SaveWithID", ctx, mock.AnythingOfType("*customer.Customer")).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*customer.Customer)
		}).Return(nil)

		im := newImporter(customerRepo, loanRepo)
		summary, err := im.ImportCustomers(ctx, strings.NewReader(csv))

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.CustomersImported)
		assert.Equal(t, 25, saved.Age)
		assert.True(t, saved.CurrentDebt.IsZero())
	})

	t.Run("should count rows with malformed optional columns as errors", func(t *testing.T) {
		csv := `customer_id,first_name,last_name,age,phone_number,monthly_salary,approved_limit,current_debt
5,Lata,Menon,abc,9876543214,55000,2000000,0
6,Arjun,Das,38,9876543215,65000,2300000,not-a-number
7,Kavya,Shetty,27,9876543216,45000,1600000,0
`
		customerRepo := new(MockCustomerRepository)
		loanRepo := new(MockLoanRepository)
		customerRepo.On("ExistsByID", ctx, mock.AnythingOfType("int64")).Return(false, nil)
		customerRepo.On("SaveWithID", ctx, mock.AnythingOfType("*customer.Customer")).Return(nil)

		im := newImporter(customerRepo, loanRepo)
		summary, err := im.ImportCustomers(ctx, strings.NewReader(csv))

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.CustomersImported)
		assert.Equal(t, 2, summary.RowErrors)
		customerRepo.AssertNumberOfCalls(t, "SaveWithID", 1)
	})

	t.Run("should fail when the header row cannot be read", func(t *testing.T) {
		im := newImporter(new(MockCustomerRepository), new(MockLoanRepository))
		_, err := im.ImportCustomers(ctx, strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestImportLoans(t *testing.T) {
	ctx := context.Background()

	t.Run("should import loan rows with their owners verified", func(t *testing.T) {
		customerRepo := new(MockCustomerRepository)
		loanRepo := new(MockLoanRepository)
		loanRepo.On("ExistsByID", ctx, mock.AnythingOfType("int64")).Return(false, nil)
		customerRepo.On("ExistsByID", ctx, int64(1)).Return(true, nil)
		var saved []*loan.Loan
		loanRepo.On("SaveWithID", ctx, mock.AnythingOfType("*loan.Loan")).Run(func(args mock.Arguments) {
			saved = append(saved, args.Get(1).(*loan.Loan))
		}).Return(nil)

		im := newImporter(customerRepo, loanRepo)
		summary, err := im.ImportLoans(ctx, strings.NewReader(loanCSV))

		assert.NoError(t, err)
		assert.Equal(t, 2, summary.LoansImported)
		assert.Equal(t, 0, summary.RowErrors)
		assert.Equal(t, int64(100), saved[0].LoanID)
		assert.Equal(t, "8884.88", saved[0].MonthlyRepayment.StringFixed(2))
		assert.Equal(t, 5, saved[0].EMIsPaidOnTime)
		assert.Equal(t, 2025, saved[0].StartDate.Year())
	})

	t.Run("should skip loans that were already imported", func(t *testing.T) {
		customerRepo := new(MockCustomerRepository)
		loanRepo := new(MockLoanRepository)
		loanRepo.On("ExistsByID", ctx, int64(100)).Return(true, nil)
		loanRepo.On("ExistsByID", ctx, int64(101)).Return(false, nil)
		customerRepo.On("ExistsByID", ctx, int64(1)).Return(true, nil)
		loanRepo.On("SaveWithID", ctx, mock.AnythingOfType("*loan.Loan")).Return(nil)

		im := newImporter(customerRepo, loanRepo)
		summary, err := im.ImportLoans(ctx, strings.NewReader(loanCSV))

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.LoansImported)
		assert.Equal(t, 1, summary.LoansSkipped)
	})

	t.Run("should continue past loans referencing unknown customers", func(t *testing.T) {
		customerRepo := new(MockCustomerRepository)
		loanRepo := new(MockLoanRepository)
		loanRepo.On("ExistsByID", ctx, mock.AnythingOfType("int64")).Return(false, nil)
		customerRepo.On("ExistsByID", ctx, int64(1)).Return(false, nil)

		im := newImporter(customerRepo, loanRepo)
		summary, err := im.ImportLoans(ctx, strings.NewReader(loanCSV))

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.LoansImported)
		assert.Equal(t, 2, summary.RowErrors)
		loanRepo.AssertNotCalled(t, "SaveWithID", ctx, mock.Anything)
	})

	t.Run("should surface repository failures as row errors", func(t *testing.T) {
		customerRepo := new(MockCustomerRepository)
		loanRepo := new(MockLoanRepository)
		loanRepo.On("ExistsByID", ctx, mock.AnythingOfType("int64")).Return(false, nil)
		customerRepo.On("ExistsByID", ctx, int64(1)).Return(true, nil)
		loanRepo.On("SaveWithID", ctx, mock.AnythingOfType("*loan.Loan")).Return(errors.New("disk full"))

		im := newImporter(customerRepo, loanRepo)
		summary, err := im.ImportLoans(ctx, strings.NewReader(loanCSV))

		assert.NoError(t, err)
		assert.Equal(t, 2, summary.RowErrors)
	})
}
