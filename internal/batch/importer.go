package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"

	"github.com/shopspring/decimal"
)

// Summary reports the outcome of one import run. Skipped rows are records
// whose primary key already exists; row errors are rows that could not be
// parsed or reference a missing customer. Neither aborts the batch.
type Summary struct {
	CustomersImported int
	CustomersSkipped  int
	LoansImported     int
	LoansSkipped      int
	RowErrors         int
}

const defaultImportAge = 25

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "02/01/2006"}

var errRowSkipped = errors.New("row already imported")

type Importer struct {
	customerRepo customer.Repository
	loanRepo     loan.Repository
	cfg          config.ImportConfig
	logger       *slog.Logger
}

func NewImporter(customerRepo customer.Repository, loanRepo loan.Repository, cfg config.ImportConfig, logger *slog.Logger) *Importer {
	if customerRepo == nil || loanRepo == nil {
		panic("Importer dependencies cannot be nil")
	}
	return &Importer{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "Importer")),
	}
}

// Run imports the configured customer file followed by the loan file.
// Customers go first so that loan rows can resolve their owners.
func (im *Importer) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	if err := im.importFile(ctx, im.cfg.CustomerFile, summary, im.importCustomers); err != nil {
		return nil, err
	}
	if err := im.importFile(ctx, im.cfg.LoanFile, summary, im.importLoans); err != nil {
		return nil, err
	}

	im.logger.InfoContext(ctx, "Import run finished",
		slog.Int("customersImported", summary.CustomersImported),
		slog.Int("customersSkipped", summary.CustomersSkipped),
		slog.Int("loansImported", summary.LoansImported),
		slog.Int("loansSkipped", summary.LoansSkipped),
		slog.Int("rowErrors", summary.RowErrors))
	return summary, nil
}

func (im *Importer) importFile(ctx context.Context, path string, summary *Summary, importFn func(context.Context, io.Reader, *Summary) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file %s: %w", path, err)
	}
	defer f.Close()

	return importFn(ctx, f, summary)
}

// ImportCustomers loads customer records from CSV. Rows whose customer_id
// already exists are skipped, keeping re-imports idempotent.
func (im *Importer) ImportCustomers(ctx context.Context, r io.Reader) (*Summary, error) {
	summary := &Summary{}
	if err := im.importCustomers(ctx, r, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// ImportLoans loads loan records from CSV. Rows whose loan_id already
// exists are skipped; rows referencing an unknown customer are logged and
// counted as row errors without aborting the batch.
func (im *Importer) ImportLoans(ctx context.Context, r io.Reader) (*Summary, error) {
	summary := &Summary{}
	if err := im.importLoans(ctx, r, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (im *Importer) importCustomers(ctx context.Context, r io.Reader, summary *Summary) error {
	return im.importRows(ctx, r, "customers", "customer", summary,
		&summary.CustomersImported, &summary.CustomersSkipped, im.importCustomerRow)
}

func (im *Importer) importLoans(ctx context.Context, r io.Reader, summary *Summary) error {
	return im.importRows(ctx, r, "loans", "loan", summary,
		&summary.LoansImported, &summary.LoansSkipped, im.importLoanRow)
}

func (im *Importer) importRows(ctx context.Context, r io.Reader, source, kind string, summary *Summary, imported, skipped *int, rowFn func(context.Context, row) error) error {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read %s header row: %w", kind, err)
	}
	cols := normalizeHeader(header)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read %s row: %w", kind, err)
		}

		err = rowFn(ctx, row{cols: cols, record: record})
		switch {
		case errors.Is(err, errRowSkipped):
			*skipped++
			monitoring.Business.ImportRowsTotal.WithLabelValues(source, "skipped").Inc()
		case err != nil:
			im.logger.WarnContext(ctx, "Skipping bad import row",
				slog.String("source", source), slog.Any("error", err))
			summary.RowErrors++
			monitoring.Business.ImportRowsTotal.WithLabelValues(source, "error").Inc()
		default:
			*imported++
			monitoring.Business.ImportRowsTotal.WithLabelValues(source, "imported").Inc()
		}
	}
	return nil
}

func (im *Importer) importCustomerRow(ctx context.Context, rw row) error {
	customerID, err := rw.getInt("customer_id")
	if err != nil {
		return err
	}

	exists, err := im.customerRepo.ExistsByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("existence check for customer %d: %w", customerID, err)
	}
	if exists {
		return errRowSkipped
	}

	firstName, err := rw.get("first_name")
	if err != nil {
		return err
	}
	lastName, err := rw.get("last_name")
	if err != nil {
		return err
	}
	phone, err := rw.get("phone_number")
	if err != nil {
		return err
	}
	salary, err := rw.getDecimal("monthly_salary")
	if err != nil {
		return err
	}
	approvedLimit, err := rw.getDecimal("approved_limit")
	if err != nil {
		return err
	}
	age, err := rw.getIntDefault("age", defaultImportAge)
	if err != nil {
		return err
	}
	currentDebt, err := rw.getDecimalDefault("current_debt", decimal.Zero)
	if err != nil {
		return err
	}

	cust := &customer.Customer{
		CustomerID:    customerID,
		FirstName:     firstName,
		LastName:      lastName,
		Age:           int(age),
		PhoneNumber:   phone,
		MonthlySalary: salary,
		ApprovedLimit: approvedLimit,
		CurrentDebt:   currentDebt,
	}

	if err := im.customerRepo.SaveWithID(ctx, cust); err != nil {
		return fmt.Errorf("save customer %d: %w", customerID, err)
	}
	return nil
}

func (im *Importer) importLoanRow(ctx context.Context, rw row) error {
	loanID, err := rw.getInt("loan_id")
	if err != nil {
		return err
	}

	exists, err := im.loanRepo.ExistsByID(ctx, loanID)
	if err != nil {
		return fmt.Errorf("existence check for loan %d: %w", loanID, err)
	}
	if exists {
		return errRowSkipped
	}

	customerID, err := rw.getInt("customer_id")
	if err != nil {
		return err
	}
	ownerExists, err := im.customerRepo.ExistsByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("existence check for customer %d: %w", customerID, err)
	}
	if !ownerExists {
		return fmt.Errorf("customer %d not found for loan %d", customerID, loanID)
	}

	amount, err := rw.getDecimal("loan_amount")
	if err != nil {
		return err
	}
	tenure, err := rw.getInt("tenure")
	if err != nil {
		return err
	}
	rate, err := rw.getDecimal("interest_rate")
	if err != nil {
		return err
	}
	installment, err := rw.getDecimal("monthly_payment")
	if err != nil {
		return err
	}
	startDate, err := rw.getDate("date_of_approval")
	if err != nil {
		return err
	}
	endDate, err := rw.getDate("end_date")
	if err != nil {
		return err
	}
	paidOnTime, err := rw.getIntDefault("emis_paid_on_time", 0)
	if err != nil {
		return err
	}

	l := &loan.Loan{
		LoanID:           loanID,
		CustomerID:       customerID,
		LoanAmount:       amount,
		TenureMonths:     int(tenure),
		InterestRate:     rate,
		MonthlyRepayment: installment,
		EMIsPaidOnTime:   int(paidOnTime),
		StartDate:        startDate,
		EndDate:          endDate,
		IsActive:         true,
	}

	if err := im.loanRepo.SaveWithID(ctx, l); err != nil {
		return fmt.Errorf("save loan %d: %w", loanID, err)
	}
	return nil
}

// header normalization: trim, lowercase, spaces to underscores, so that
// "Customer ID" and "customer_id" address the same column.
func normalizeHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, col := range header {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(col)), " ", "_")
		cols[key] = i
	}
	return cols
}

type row struct {
	cols   map[string]int
	record []string
}

func (r row) has(name string) bool {
	idx, ok := r.cols[name]
	return ok && idx < len(r.record)
}

func (r row) get(name string) (string, error) {
	if !r.has(name) {
		return "", fmt.Errorf("missing column %q", name)
	}
	return strings.TrimSpace(r.record[r.cols[name]]), nil
}

func (r row) getInt(name string) (int64, error) {
	s, err := r.get(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", name, err)
	}
	return v, nil
}

// getIntDefault falls back only when the column is absent; a present but
// unparseable value is still a row error.
func (r row) getIntDefault(name string, fallback int64) (int64, error) {
	if !r.has(name) {
		return fallback, nil
	}
	return r.getInt(name)
}

func (r row) getDecimal(name string) (decimal.Decimal, error) {
	s, err := r.get(name)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %q: %w", name, err)
	}
	return d, nil
}

func (r row) getDecimalDefault(name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if !r.has(name) {
		return fallback, nil
	}
	return r.getDecimal(name)
}

func (r row) getDate(name string) (time.Time, error) {
	s, err := r.get(name)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range dateLayouts {
		if t, parseErr := time.Parse(layout, s); parseErr == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %q: unrecognized date %q", name, s)
}
