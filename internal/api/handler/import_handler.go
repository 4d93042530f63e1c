package handler

import (
	"log/slog"
	"net/http"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/batch"
)

type ImportHandler struct {
	importer *batch.Importer
	logger   *slog.Logger
}

func NewImportHandler(importer *batch.Importer, l *slog.Logger) *ImportHandler {
	if importer == nil {
		panic("importer cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &ImportHandler{
		importer: importer,
		logger:   l.With("component", "ImportHandler"),
	}
}

// Import handles POST /import
// @Summary Import historical customer and loan data
// @Description Loads the configured customer and loan CSV files. Rows already present are skipped so repeated imports are safe.
// @Tags Import
// @Produce json
// @Success 200 {object} dto.ImportSummaryResponse "Import summary"
// @Failure 500 {object} dto.ErrorResponse "Import failed"
// @Router /import [post]
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	summary, err := h.importer.Run(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Import run failed", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.ImportSummaryResponse{
		CustomersImported: summary.CustomersImported,
		CustomersSkipped:  summary.CustomersSkipped,
		LoansImported:     summary.LoansImported,
		LoansSkipped:      summary.LoansSkipped,
		RowErrors:         summary.RowErrors,
	}
	respondJSON(w, http.StatusOK, resp)
}
