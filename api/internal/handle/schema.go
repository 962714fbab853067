package handle

import (
	"net/http"
	"sort"

	"github.com/invopop/jsonschema"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/budget"
	"taskboard/api/internal/poster"
)

var schemaTypes = map[string]any{
	"task-analysis-request":  budget.TaskAnalysisRequest{},
	"task-analysis-response": budget.TaskAnalysisResponse{},
	"poster-request":         poster.PosterRequest{},
	"poster-response":        poster.PosterResponse{},
	"error-response":         ErrorResponse{},
}

// SchemaNames lists the documents served under /schemas/{name}.
func SchemaNames() []string {
	names := make([]string, 0, len(schemaTypes))
	for n := range schemaTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SchemaFor reflects the JSON schema of a public request or response type.
func SchemaFor(name string) (*jsonschema.Schema, bool) {
	v, ok := schemaTypes[name]
	if !ok {
		return nil, false
	}
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(v)
	s.Title = name
	return s, true
}

func (h *Handle) Schema(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s, ok := SchemaFor(name)
	if !ok {
		h.writeError(w, r, http.StatusNotFound,
			apperr.Newf(apperr.KindBadRequest, "schema", "unknown schema %q", name).WithDetail("available", SchemaNames()))
		return
	}
	writeJSON(w, http.StatusOK, s)
}
