package handlers

import (
	"context"
	"net/http"

	"fitting-console/core/models"

	"github.com/gorilla/mux"
)

// DatasetSource lists and reads uploaded datasets
type DatasetSource interface {
	ListDatasets(ctx context.Context) ([]models.DatasetInfo, error)
	GetDataset(ctx context.Context, id string) (*models.DatasetDetail, error)
}

// DatasetHandler serves the datasets known to the fitting service
type DatasetHandler struct {
	datasets DatasetSource
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(datasets DatasetSource) *DatasetHandler {
	return &DatasetHandler{datasets: datasets}
}

// ListDatasets handles GET /v1/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.datasets.ListDatasets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if datasets == nil {
		datasets = []models.DatasetInfo{}
	}
	writeJSON(w, http.StatusOK, datasets)
}

// GetDataset handles GET /v1/datasets/{id}
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	detail, err := h.datasets.GetDataset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
