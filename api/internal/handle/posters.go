package handle

import (
	"context"
	"net/http"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/poster"
)

func (h *Handle) GeneratePosters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, r, http.StatusMethodNotAllowed, apperr.Newf(apperr.KindBadRequest, "posters", "POST only"))
		return
	}
	var req poster.PosterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, apperr.Newf(apperr.KindBadRequest, "posters", "bad json: %v", err))
		return
	}
	if h.posters == nil {
		h.writeError(w, r, http.StatusInternalServerError,
			apperr.Newf(apperr.KindConfiguration, "posters", "poster generation is not configured"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), deadline(r, h.opts.PosterTimeout))
	defer cancel()

	out, err := h.posters.Generate(ctx, req)
	if err != nil {
		status := http.StatusInternalServerError
		if apperr.KindOf(err) == apperr.KindBadRequest {
			status = http.StatusBadRequest
		}
		h.writeError(w, r, status, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
