package handlers

import (
	"context"
	"net/http"

	"fitting-console/core/diagnostics"
	"fitting-console/core/inspector"
	"fitting-console/core/models"
	"fitting-console/core/repository"

	"github.com/gorilla/mux"
)

// ModelSource lists and reads trained models
type ModelSource interface {
	ListModels(ctx context.Context) ([]models.TrainedModel, error)
	GetModel(ctx context.Context, id string) (*models.TrainedModel, error)
}

// ReportSaver exports a diagnostics view
type ReportSaver interface {
	SaveReport(ctx context.Context, view *diagnostics.DiagnosticsView) (*repository.ReportRecord, error)
}

// ReportLister reads the index of exported reports
type ReportLister interface {
	GetModelReports(ctx context.Context, modelID string) ([]repository.ReportRecord, error)
}

// QualityRecorder counts the quality tier of presented models
type QualityRecorder interface {
	RecordDiagnostics(b diagnostics.Bucket)
}

// ModelHandler handles trained model requests
type ModelHandler struct {
	models    ModelSource
	inspector *inspector.Inspector
	reports   ReportSaver
	index     ReportLister
	quality   QualityRecorder
}

// NewModelHandler creates a new model handler. reports, index and quality
// may be nil.
func NewModelHandler(source ModelSource, insp *inspector.Inspector, reports ReportSaver, index ReportLister, quality QualityRecorder) *ModelHandler {
	return &ModelHandler{
		models:    source,
		inspector: insp,
		reports:   reports,
		index:     index,
		quality:   quality,
	}
}

// ListModels handles GET /v1/models
func (h *ModelHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	trained, err := h.models.ListModels(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if trained == nil {
		trained = []models.TrainedModel{}
	}
	writeJSON(w, http.StatusOK, trained)
}

// GetModel handles GET /v1/models/{id}
func (h *ModelHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	model, err := h.models.GetModel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

// GetDiagnostics handles GET /v1/models/{id}/diagnostics
func (h *ModelHandler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	view, err := h.diagnostics(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Predict handles POST /v1/models/{id}/predict
func (h *ModelHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	prediction, err := h.inspector.Predict(r.Context(), mux.Vars(r)["id"], req.Features)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PredictionResponse{Prediction: prediction})
}

// CloseView handles DELETE /v1/views/{id}
func (h *ModelHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	h.inspector.CloseView(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// ExportReport handles POST /v1/models/{id}/report
func (h *ModelHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		http.Error(w, "Report export is not configured", http.StatusNotImplemented)
		return
	}

	view, err := h.diagnostics(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.reports.SaveReport(r.Context(), view)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListReports handles GET /v1/models/{id}/reports
func (h *ModelHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		http.Error(w, "Report index is not configured", http.StatusNotImplemented)
		return
	}

	records, err := h.index.GetModelReports(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []repository.ReportRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *ModelHandler) diagnostics(r *http.Request) (*diagnostics.DiagnosticsView, error) {
	query := r.URL.Query()
	view, err := h.inspector.Diagnostics(r.Context(), query.Get("view_id"), mux.Vars(r)["id"], query.Get("dataset_id"))
	if err != nil {
		return nil, err
	}
	if h.quality != nil && view.Headline != nil {
		h.quality.RecordDiagnostics(view.Headline.Bucket)
	}
	return view, nil
}
