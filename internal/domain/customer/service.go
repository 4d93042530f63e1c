package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	MinAge = 18
	MaxAge = 100
)

type Service interface {
	Register(ctx context.Context, firstName, lastName string, age int, monthlySalary decimal.Decimal, phoneNumber string) (*Customer, error)

	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)

	DeleteCustomer(ctx context.Context, customerID int64) error
}

var _ Service = (*customerService)(nil)

type customerService struct {
	repo   Repository
	pub    event.Publisher
	logger *slog.Logger
}

func NewService(repo Repository, pub event.Publisher, logger *slog.Logger) Service {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewService, using default stderr handler")
	}
	return &customerService{
		repo:   repo,
		pub:    pub,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) Register(ctx context.Context, firstName, lastName string, age int, monthlySalary decimal.Decimal, phoneNumber string) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register new customer")

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phoneNumber = strings.TrimSpace(phoneNumber)

	if firstName == "" {
		return nil, apperrors.NewValidationError("first_name", "first name cannot be empty")
	}
	if lastName == "" {
		return nil, apperrors.NewValidationError("last_name", "last name cannot be empty")
	}
	if age < MinAge || age > MaxAge {
		return nil, apperrors.NewValidationError("age", fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge))
	}
	if monthlySalary.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidationError("monthly_salary", "monthly salary must be positive")
	}
	if phoneNumber == "" {
		return nil, apperrors.NewValidationError("phone_number", "phone number cannot be empty")
	}

	cust := NewCustomer(firstName, lastName, age, phoneNumber, monthlySalary)

	if err := s.repo.Save(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	monitoring.Business.CustomersRegisteredTotal.Inc()

	registered := event.CustomerRegisteredEvent{
		Timestamp: time.Now(),
		Payload: event.CustomerPayload{
			CustomerID:    cust.CustomerID,
			Name:          cust.FullName(),
			Age:           cust.Age,
			PhoneNumber:   cust.PhoneNumber,
			MonthlySalary: cust.MonthlySalary.StringFixed(2),
			ApprovedLimit: cust.ApprovedLimit.StringFixed(2),
		},
	}
	if pubErr := s.pub.PublishCustomerRegistered(ctx, registered); pubErr != nil {
		s.logger.ErrorContext(ctx, "Customer registered, but failed to publish event", slog.Any("error", pubErr))
	}

	s.logger.InfoContext(ctx, "Successfully registered new customer",
		slog.Int64("customerID", cust.CustomerID),
		slog.String("approvedLimit", cust.ApprovedLimit.String()))
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found by repository", slog.Int64("customerID", customerID))
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}
	return cust, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	s.logger.InfoContext(ctx, "Attempting to delete customer", slog.Int64("customerID", customerID))

	err := s.repo.Delete(ctx, customerID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			s.logger.WarnContext(ctx, "Customer not found by repository for deletion")
			return ErrNotFound
		case errors.Is(err, ErrHasActiveLoans):
			s.logger.WarnContext(ctx, "Deletion rejected: customer still owns active loans")
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, err)
		default:
			s.logger.ErrorContext(ctx, "Repository error deleting customer", slog.Any("error", err))
			return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
		}
	}

	s.logger.InfoContext(ctx, "Successfully deleted customer")
	return nil
}
