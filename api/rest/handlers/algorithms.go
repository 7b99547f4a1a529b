package handlers

import (
	"net/http"

	"fitting-console/core/catalog"
	"fitting-console/core/form"
	"fitting-console/core/models"

	"github.com/gorilla/mux"
)

// AlgorithmHandler serves the algorithm catalog
type AlgorithmHandler struct {
	catalog *catalog.Catalog
}

// NewAlgorithmHandler creates a new algorithm handler
func NewAlgorithmHandler(c *catalog.Catalog) *AlgorithmHandler {
	return &AlgorithmHandler{catalog: c}
}

// AlgorithmFormResponse is the form of one algorithm
type AlgorithmFormResponse struct {
	Algorithm *models.AlgorithmSchema `json:"algorithm"`
	Fields    []form.FieldDescriptor  `json:"fields"`
	Defaults  map[string]interface{}  `json:"defaults"`
}

// ListAlgorithms handles GET /v1/algorithms
func (h *AlgorithmHandler) ListAlgorithms(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.catalog.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas)
}

// GetAlgorithmForm handles GET /v1/algorithms/{id}/form
func (h *AlgorithmHandler) GetAlgorithmForm(w http.ResponseWriter, r *http.Request) {
	schema, err := h.catalog.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if models.IsValidation(err) {
			http.Error(w, "Algorithm not found", http.StatusNotFound)
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AlgorithmFormResponse{
		Algorithm: schema,
		Fields:    form.Synthesize(schema),
		Defaults:  form.Defaults(schema),
	})
}
