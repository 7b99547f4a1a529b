package routes

import (
	"fitting-console/api/rest/handlers"
	"fitting-console/core/catalog"
	"fitting-console/core/inspector"
	"fitting-console/core/monitoring"
	"fitting-console/core/session"

	"github.com/gorilla/mux"
)

// Dependencies are the services the console API is built on. Events,
// Reports and ReportIndex may be nil.
type Dependencies struct {
	Catalog     *catalog.Catalog
	Sessions    *session.Registry
	Events      handlers.EventLister
	Datasets    handlers.DatasetSource
	Models      handlers.ModelSource
	Inspector   *inspector.Inspector
	Reports     handlers.ReportSaver
	ReportIndex handlers.ReportLister
	Outcomes    *monitoring.OutcomeTracker
	Metrics     *monitoring.MetricsExporter
}

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, deps Dependencies) {
	r.Use(requestIDMiddleware, accessLogMiddleware)

	algorithmHandler := handlers.NewAlgorithmHandler(deps.Catalog)
	datasetHandler := handlers.NewDatasetHandler(deps.Datasets)
	sessionHandler := handlers.NewSessionHandler(deps.Sessions, deps.Events)
	modelHandler := handlers.NewModelHandler(deps.Models, deps.Inspector, deps.Reports, deps.ReportIndex, deps.Outcomes)
	healthHandler := handlers.NewHealthHandler(deps.Metrics)

	r.HandleFunc("/health", healthHandler.Health).Methods("GET")
	r.HandleFunc("/metrics", healthHandler.Metrics).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()

	// Algorithm endpoints
	api.HandleFunc("/algorithms", algorithmHandler.ListAlgorithms).Methods("GET")
	api.HandleFunc("/algorithms/{id}/form", algorithmHandler.GetAlgorithmForm).Methods("GET")

	// Dataset endpoints
	api.HandleFunc("/datasets", datasetHandler.ListDatasets).Methods("GET")
	api.HandleFunc("/datasets/{id}", datasetHandler.GetDataset).Methods("GET")

	// Session endpoints
	api.HandleFunc("/sessions", sessionHandler.CreateSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", sessionHandler.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", sessionHandler.DeleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/dataset", sessionHandler.ChooseDataset).Methods("POST")
	api.HandleFunc("/sessions/{id}/columns", sessionHandler.ChooseColumns).Methods("POST")
	api.HandleFunc("/sessions/{id}/algorithm", sessionHandler.ChooseAlgorithm).Methods("POST")
	api.HandleFunc("/sessions/{id}/parameters/{name}", sessionHandler.SetParameter).Methods("PUT")
	api.HandleFunc("/sessions/{id}/options", sessionHandler.SetOptions).Methods("PUT")
	api.HandleFunc("/sessions/{id}/spec", sessionHandler.ApplySpec).Methods("POST")
	api.HandleFunc("/sessions/{id}/submit", sessionHandler.Submit).Methods("POST")
	api.HandleFunc("/sessions/{id}/events", sessionHandler.GetSessionEvents).Methods("GET")

	// Model endpoints
	api.HandleFunc("/models", modelHandler.ListModels).Methods("GET")
	api.HandleFunc("/models/{id}", modelHandler.GetModel).Methods("GET")
	api.HandleFunc("/models/{id}/diagnostics", modelHandler.GetDiagnostics).Methods("GET")
	api.HandleFunc("/models/{id}/predict", modelHandler.Predict).Methods("POST")
	api.HandleFunc("/models/{id}/report", modelHandler.ExportReport).Methods("POST")
	api.HandleFunc("/models/{id}/reports", modelHandler.ListReports).Methods("GET")
	api.HandleFunc("/views/{id}", modelHandler.CloseView).Methods("DELETE")
}
