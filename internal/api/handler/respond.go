package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/pkg/apperrors"
)

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	// Unknown fields in the payload are ignored.
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondValidationErrors(w http.ResponseWriter, errs []dto.ErrorDetail) {
	respondJSON(w, http.StatusBadRequest, dto.ValidationErrorResponse{Errors: errs})
}

func respondNotFound(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: message})
}

func respondError(w http.ResponseWriter, err error) {
	var validationError *apperrors.ValidationError

	switch {
	case errors.As(err, &validationError):
		respondValidationErrors(w, []dto.ErrorDetail{{
			Field:   validationError.Field,
			Message: validationError.Message,
		}})
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidArgument):
		respondJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		respondNotFound(w, "Resource not found")
	case errors.Is(err, apperrors.ErrConflict):
		respondJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
		respondJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "An unexpected error occurred."})
	}
}
