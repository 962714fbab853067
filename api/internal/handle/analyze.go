package handle

import (
	"context"
	"net/http"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/budget"
)

func (h *Handle) AnalyzeTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, r, http.StatusMethodNotAllowed, apperr.Newf(apperr.KindBadRequest, "analyze", "POST only"))
		return
	}
	var req budget.TaskAnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, apperr.Newf(apperr.KindBadRequest, "analyze", "bad json: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), deadline(r, h.opts.AnalyzeTimeout))
	defer cancel()

	out, err := h.analyzer.Analyze(ctx, req)
	if err != nil {
		h.writeError(w, r, analyzeStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// analyzeStatus maps pipeline failures to 400 and only configuration or
// unclassified errors to 500.
func analyzeStatus(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindBadRequest, apperr.KindExtraction, apperr.KindValidation,
		apperr.KindSchema, apperr.KindUpstream:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
