package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	MinTenureMonths = 1
	MaxTenureMonths = 120
)

// ScoreCache is an optional read-through cache for computed credit scores.
// Implementations must tolerate concurrent use; a nil cache disables caching.
type ScoreCache interface {
	GetScore(ctx context.Context, customerID int64) (int, bool)
	SetScore(ctx context.Context, customerID int64, score int) error
	InvalidateScore(ctx context.Context, customerID int64) error
}

type Service interface {
	// CheckEligibility evaluates a proposed loan without persisting anything.
	CheckEligibility(ctx context.Context, req EligibilityRequest) (*Decision, error)

	// CreateLoan runs the same eligibility check and, on approval, persists
	// the loan with the corrected rate and computed installment. A negative
	// decision is returned with a nil loan and a nil error.
	CreateLoan(ctx context.Context, req EligibilityRequest) (*Loan, *Decision, error)

	GetLoanDetail(ctx context.Context, loanID int64) (*Loan, *customer.Customer, error)

	// ListActiveLoans returns the customer's active loans, failing with
	// customer.ErrNotFound for an unknown customer.
	ListActiveLoans(ctx context.Context, customerID int64) ([]*Loan, error)

	CreditScore(ctx context.Context, customerID int64) (int, error)
}

var _ Service = (*loanService)(nil)

type loanService struct {
	repo      Repository
	customers customer.Service
	cache     ScoreCache
	pub       event.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, customers customer.Service, cache ScoreCache, pub event.Publisher, logger *slog.Logger) Service {
	if repo == nil {
		panic("loan repository cannot be nil")
	}
	if customers == nil {
		panic("customer service cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewService, using default stderr handler")
	}
	return &loanService{
		repo:      repo,
		customers: customers,
		cache:     cache,
		pub:       pub,
		logger:    logger.With(slog.String("component", "loanService")),
	}
}

func validateRequest(req EligibilityRequest) error {
	if req.CustomerID <= 0 {
		return apperrors.NewValidationError("customer_id", "customer id must be positive")
	}
	if req.LoanAmount.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidationError("loan_amount", "loan amount must be positive")
	}
	if req.InterestRate.IsNegative() {
		return apperrors.NewValidationError("interest_rate", "interest rate cannot be negative")
	}
	if req.TenureMonths < MinTenureMonths || req.TenureMonths > MaxTenureMonths {
		return apperrors.NewValidationError("tenure",
			fmt.Sprintf("tenure must be between %d and %d months", MinTenureMonths, MaxTenureMonths))
	}
	return nil
}

func (s *loanService) CheckEligibility(ctx context.Context, req EligibilityRequest) (*Decision, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	logCtx := s.logger.With(slog.Int64("customerID", req.CustomerID))
	logCtx.InfoContext(ctx, "Checking loan eligibility",
		slog.String("amount", req.LoanAmount.String()),
		slog.String("requestedRate", req.InterestRate.String()),
		slog.Int("tenure", req.TenureMonths))

	rejected := func(message string) *Decision {
		return &Decision{
			CustomerID:         req.CustomerID,
			Approved:           false,
			InterestRate:       req.InterestRate,
			CorrectedRate:      req.InterestRate,
			TenureMonths:       req.TenureMonths,
			MonthlyInstallment: decimal.Zero,
			Message:            message,
		}
	}

	cust, err := s.customers.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			logCtx.WarnContext(ctx, "Eligibility check for unknown customer")
			return rejected(MsgCustomerNotFound), nil
		}
		return nil, fmt.Errorf("failed to load customer %d: %w", req.CustomerID, err)
	}

	activeDebt, err := s.repo.SumActiveLoanAmounts(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate active debt: %w", err)
	}
	if activeDebt.Add(req.LoanAmount).GreaterThan(cust.ApprovedLimit) {
		logCtx.InfoContext(ctx, "Rejected: requested amount exceeds approved limit",
			slog.String("activeDebt", activeDebt.String()),
			slog.String("approvedLimit", cust.ApprovedLimit.String()))
		return rejected(MsgLimitExceeded), nil
	}

	activeEMIs, err := s.repo.SumActiveMonthlyRepayments(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate active EMIs: %w", err)
	}
	if activeEMIs.GreaterThan(cust.MonthlySalary.Mul(halfSalaryRatio)) {
		logCtx.InfoContext(ctx, "Rejected: current EMIs exceed half of monthly salary",
			slog.String("activeEMIs", activeEMIs.String()))
		return rejected(MsgEMIRatioExceeded), nil
	}

	score, err := s.creditScore(ctx, cust)
	if err != nil {
		return nil, err
	}

	approved, corrected := applyRatePolicy(score, req.InterestRate)

	decision := &Decision{
		CustomerID:         req.CustomerID,
		Approved:           approved,
		InterestRate:       req.InterestRate,
		CorrectedRate:      corrected,
		TenureMonths:       req.TenureMonths,
		MonthlyInstallment: decimal.Zero,
		Message:            MsgScoreRejected,
	}

	if approved {
		installment, err := MonthlyInstallment(req.LoanAmount, corrected, req.TenureMonths)
		if err != nil {
			return nil, fmt.Errorf("failed to compute installment: %w", err)
		}
		decision.MonthlyInstallment = installment
		decision.Message = MsgApproved
	}

	logCtx.InfoContext(ctx, "Eligibility decision made",
		slog.Int("creditScore", score),
		slog.Bool("approved", approved),
		slog.String("correctedRate", corrected.String()))
	return decision, nil
}

func (s *loanService) CreateLoan(ctx context.Context, req EligibilityRequest) (*Loan, *Decision, error) {
	decision, err := s.CheckEligibility(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	if !decision.Approved {
		monitoring.Business.LoansRejectedTotal.WithLabelValues(rejectionReason(decision.Message)).Inc()
		return nil, decision, nil
	}

	newLoan, err := NewLoan(req.CustomerID, req.LoanAmount, decision.CorrectedRate, req.TenureMonths)
	if err != nil {
		return nil, nil, err
	}
	newLoan.MonthlyRepayment = decision.MonthlyInstallment

	if err := s.repo.Save(ctx, newLoan); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist approved loan", slog.Any("error", err))
		return nil, nil, fmt.Errorf("failed to save loan: %w", err)
	}

	monitoring.Business.LoansApprovedTotal.Inc()
	decision.Message = MsgLoanCreated

	if s.cache != nil {
		if err := s.cache.InvalidateScore(ctx, req.CustomerID); err != nil {
			s.logger.WarnContext(ctx, "Failed to invalidate cached credit score", slog.Any("error", err))
		}
	}

	created := event.LoanCreatedEvent{
		Timestamp: time.Now(),
		Payload: event.LoanPayload{
			LoanID:             newLoan.LoanID,
			CustomerID:         newLoan.CustomerID,
			LoanAmount:         newLoan.LoanAmount.StringFixed(2),
			TenureMonths:       newLoan.TenureMonths,
			InterestRate:       newLoan.InterestRate.String(),
			MonthlyInstallment: newLoan.MonthlyRepayment.StringFixed(2),
		},
	}
	if pubErr := s.pub.PublishLoanCreated(ctx, created); pubErr != nil {
		s.logger.ErrorContext(ctx, "Loan created, but failed to publish event", slog.Any("error", pubErr))
	}

	s.logger.InfoContext(ctx, "Loan created",
		slog.Int64("loanID", newLoan.LoanID),
		slog.Int64("customerID", newLoan.CustomerID))
	return newLoan, decision, nil
}

func rejectionReason(message string) string {
	switch message {
	case MsgCustomerNotFound:
		return "customer_not_found"
	case MsgLimitExceeded:
		return "limit_exceeded"
	case MsgEMIRatioExceeded:
		return "emi_ratio"
	default:
		return "credit_score"
	}
}

func (s *loanService) GetLoanDetail(ctx context.Context, loanID int64) (*Loan, *customer.Customer, error) {
	l, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}

	cust, err := s.customers.GetCustomer(ctx, l.CustomerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Loan references missing customer",
			slog.Int64("loanID", loanID), slog.Int64("customerID", l.CustomerID), slog.Any("error", err))
		return nil, nil, fmt.Errorf("failed to load owner of loan %d: %w", loanID, err)
	}

	return l, cust, nil
}

func (s *loanService) ListActiveLoans(ctx context.Context, customerID int64) ([]*Loan, error) {
	if _, err := s.customers.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	loans, err := s.repo.FindByCustomer(ctx, customerID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans for customer %d: %w", customerID, err)
	}
	return loans, nil
}

func (s *loanService) CreditScore(ctx context.Context, customerID int64) (int, error) {
	cust, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return s.creditScore(ctx, cust)
}

func (s *loanService) creditScore(ctx context.Context, cust *customer.Customer) (int, error) {
	if s.cache != nil {
		if score, ok := s.cache.GetScore(ctx, cust.CustomerID); ok {
			s.logger.DebugContext(ctx, "Credit score served from cache",
				slog.Int64("customerID", cust.CustomerID), slog.Int("score", score))
			return score, nil
		}
	}

	loans, err := s.repo.FindByCustomer(ctx, cust.CustomerID, false)
	if err != nil {
		return 0, fmt.Errorf("failed to load loan history for customer %d: %w", cust.CustomerID, err)
	}

	score := CreditScore(cust.ApprovedLimit, loans, time.Now())

	if s.cache != nil {
		if err := s.cache.SetScore(ctx, cust.CustomerID, score); err != nil {
			s.logger.WarnContext(ctx, "Failed to cache credit score", slog.Any("error", err))
		}
	}
	return score, nil
}
