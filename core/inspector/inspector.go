package inspector

import (
	"context"
	"fmt"
	"math"

	"fitting-console/core/diagnostics"
	"fitting-console/core/inflight"
	"fitting-console/core/models"

	"github.com/rs/zerolog/log"
)

// Backend is the part of the fitting service the inspector reads from
type Backend interface {
	GetModel(ctx context.Context, id string) (*models.TrainedModel, error)
	EvaluateModel(ctx context.Context, modelID, datasetID string) (*models.EvaluationResult, error)
	Predict(ctx context.Context, modelID string, features []float64) (float64, error)
}

// FamilyLookup reports whether a model type has signed coefficients
type FamilyLookup interface {
	Signed(ctx context.Context, modelType string) bool
}

// Inspector builds diagnostics views and runs predictions for trained
// models. Diagnostics requests may name the view they render into; within
// one view only the newest request's result is returned and an older one
// fails with ErrSuperseded. Requests from different views, and predictions,
// never affect each other.
type Inspector struct {
	backend  Backend
	families FamilyLookup
	views    *inflight.Guard
}

// NewInspector creates an inspector
func NewInspector(backend Backend, families FamilyLookup) *Inspector {
	return &Inspector{
		backend:  backend,
		families: families,
		views:    inflight.NewGuard(),
	}
}

// Diagnostics evaluates a model and presents the result. datasetID selects
// an evaluation dataset other than the training one. An empty viewID opts
// out of supersession.
func (i *Inspector) Diagnostics(ctx context.Context, viewID, modelID, datasetID string) (*diagnostics.DiagnosticsView, error) {
	var ticket inflight.Ticket
	if viewID != "" {
		ticket = i.views.Begin(viewID)
	}

	model, err := i.backend.GetModel(ctx, modelID)
	if err != nil {
		if viewID != "" {
			i.views.Release(ticket)
		}
		return nil, fmt.Errorf("failed to load model %s: %w", modelID, err)
	}

	eval, err := i.backend.EvaluateModel(ctx, modelID, datasetID)
	if viewID != "" && !i.views.Accept(ticket) {
		return nil, fmt.Errorf("diagnostics for model %s: %w", modelID, models.ErrSuperseded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate model %s: %w", modelID, err)
	}
	if verr := eval.Validate(); verr != nil {
		log.Warn().Err(verr).Str("model_id", modelID).Msg("Evaluation result has no usable series")
	}

	view := diagnostics.Present(diagnostics.Input{
		Model:      model,
		Evaluation: eval,
		Signed:     i.families.Signed(ctx, model.ModelType),
	})
	return &view, nil
}

// CloseView tears a view down. A diagnostics result for it that arrives
// afterwards is discarded.
func (i *Inspector) CloseView(viewID string) {
	i.views.Forget(viewID)
}

// Predict runs the model on one row of features given in the model's
// feature column order.
func (i *Inspector) Predict(ctx context.Context, modelID string, features []float64) (float64, error) {
	for idx, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, models.NewValidationError("features", "value %d is not a finite number", idx)
		}
	}

	model, err := i.backend.GetModel(ctx, modelID)
	if err != nil {
		return 0, fmt.Errorf("failed to load model %s: %w", modelID, err)
	}
	if len(features) != len(model.FeatureColumns) {
		return 0, models.NewValidationError("features", "model %s expects %d features %v, got %d",
			modelID, len(model.FeatureColumns), model.FeatureColumns, len(features))
	}

	prediction, err := i.backend.Predict(ctx, modelID, features)
	if err != nil {
		return 0, fmt.Errorf("failed to predict with model %s: %w", modelID, err)
	}
	return prediction, nil
}
