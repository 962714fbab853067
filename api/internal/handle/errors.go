package handle

import (
	"net/http"

	"taskboard/api/internal/apperr"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Success   bool           `json:"success"`
	Error     string         `json:"error"`
	Kind      string         `json:"kind,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func (h *Handle) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	kind := apperr.KindOf(err)
	logger := loggerFrom(r.Context(), h.logger)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "status", status, "kind", kind, "err", err)
	} else {
		logger.WarnContext(r.Context(), "request rejected", "status", status, "kind", kind, "err", err)
	}
	writeJSON(w, status, ErrorResponse{
		Success:   false,
		Error:     err.Error(),
		Kind:      string(kind),
		Details:   apperr.DetailsOf(err),
		RequestID: requestIDFrom(r.Context()),
	})
}
