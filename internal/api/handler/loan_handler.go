package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

type LoanHandler struct {
	service loan.Service
	logger  *slog.Logger
}

func NewLoanHandler(s loan.Service, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

func loanIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "loanID")
	if idStr == "" {
		return 0, fmt.Errorf("%w: loanID not found in URL path", apperrors.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid loanID format in URL path: %s", apperrors.ErrInvalidArgument, idStr)
	}
	return id, nil
}

func (h *LoanHandler) decodeApplication(w http.ResponseWriter, r *http.Request) (*dto.LoanApplicationRequest, bool) {
	var req dto.LoanApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondValidationErrors(w, []dto.ErrorDetail{{Message: "malformed request body"}})
		return nil, false
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Int("fieldErrors", len(errs)))
		respondValidationErrors(w, errs)
		return nil, false
	}
	return &req, true
}

// CheckEligibility handles POST /check-eligibility
// @Summary Check loan eligibility
// @Description Evaluates a proposed loan against the customer's credit score and debt limits without creating anything.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanApplicationRequest true "Proposed loan"
// @Success 200 {object} dto.EligibilityResponse "Eligibility decision"
// @Failure 400 {object} dto.ValidationErrorResponse "Invalid request payload"
// @Router /check-eligibility [post]
func (h *LoanHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeApplication(w, r)
	if !ok {
		return
	}

	decision, err := h.service.CheckEligibility(r.Context(), req.ToEligibilityRequest())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to check eligibility", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewEligibilityResponse(decision))
}

// CreateLoan handles POST /create-loan
// @Summary Create a loan
// @Description Runs the eligibility check and persists the loan on approval. Rejections come back as 400 with the rejection message.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanApplicationRequest true "Proposed loan"
// @Success 201 {object} dto.CreateLoanResponse "Loan created"
// @Failure 400 {object} dto.CreateLoanResponse "Loan rejected"
// @Router /create-loan [post]
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeApplication(w, r)
	if !ok {
		return
	}

	created, decision, err := h.service.CreateLoan(r.Context(), req.ToEligibilityRequest())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to create loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewCreateLoanResponse(created, decision)
	if !decision.Approved {
		h.logger.InfoContext(r.Context(), "Loan application rejected",
			slog.Int64("customerID", decision.CustomerID), slog.String("message", decision.Message))
		respondJSON(w, http.StatusBadRequest, resp)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan created successfully", slog.Int64("loanID", created.LoanID))
	respondJSON(w, http.StatusCreated, resp)
}

// ViewLoan handles GET /view-loan/{loanID}
// @Summary View loan details
// @Description Returns a loan together with a summary of the owning customer.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(1)
// @Success 200 {object} dto.LoanDetailResponse "Loan details"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /view-loan/{loanID} [get]
func (h *LoanHandler) ViewLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get loan ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	l, cust, err := h.service.GetLoanDetail(r.Context(), loanID)
	if err != nil {
		if errors.Is(err, loan.ErrNotFound) {
			respondNotFound(w, "Loan not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Service failed to get loan detail", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanDetailResponse(l, cust))
}

// ViewLoans handles GET /view-loans/{customerID}
// @Summary View a customer's active loans
// @Description Lists the customer's active loans with remaining repayments.
// @Tags Loans
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {array} dto.ActiveLoanResponse "Active loans"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /view-loans/{customerID} [get]
func (h *LoanHandler) ViewLoans(w http.ResponseWriter, r *http.Request) {
	customerID, err := customerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	loans, err := h.service.ListActiveLoans(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			respondNotFound(w, "Customer not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Service failed to list active loans", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewActiveLoanResponses(loans))
}
