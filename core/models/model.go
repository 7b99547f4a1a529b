package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Test size bounds and default for the train/test split
const (
	DefaultTestSize = 0.2
	MinTestSize     = 0.1
	MaxTestSize     = 0.5
)

// Metrics are the regression fit metrics reported by the service
type Metrics struct {
	R2   float64 `json:"r2"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
}

// TrainingRequest is the body of POST /models/train
type TrainingRequest struct {
	DatasetID      string                 `json:"dataset_id"`
	TargetColumn   string                 `json:"target_column"`
	FeatureColumns []string               `json:"feature_columns"`
	TestSize       float64                `json:"test_size"`
	ModelType      string                 `json:"model_type"`
	Parameters     map[string]interface{} `json:"parameters"`
	Name           string                 `json:"name,omitempty"`
	Description    string                 `json:"description,omitempty"`
}

// Validate checks the request invariants that do not need the dataset
func (r *TrainingRequest) Validate() error {
	if r.DatasetID == "" {
		return NewValidationError("dataset_id", "dataset is required")
	}
	if r.TargetColumn == "" {
		return NewValidationError("target_column", "target column is required")
	}
	if len(r.FeatureColumns) == 0 {
		return NewValidationError("feature_columns", "at least one feature column is required")
	}
	for _, f := range r.FeatureColumns {
		if f == r.TargetColumn {
			return NewValidationError("feature_columns", "target column %q cannot also be a feature", f)
		}
	}
	if r.ModelType == "" {
		return NewValidationError("model_type", "model type is required")
	}
	if err := ValidateTestSize(r.TestSize); err != nil {
		return err
	}
	return nil
}

// ValidateTestSize rejects test sizes outside [MinTestSize, MaxTestSize].
// Values are never clamped.
func ValidateTestSize(v float64) error {
	if math.IsNaN(v) || v < MinTestSize || v > MaxTestSize {
		return NewValidationError("test_size", "%v is outside [%v, %v]", v, MinTestSize, MaxTestSize)
	}
	return nil
}

// FeatureWeight is one entry of a model's feature importance mapping
type FeatureWeight struct {
	Feature string
	Value   float64
}

// FeatureImportance keeps the server's key order
type FeatureImportance []FeatureWeight

// UnmarshalJSON decodes an ordered feature -> value object
func (fi *FeatureImportance) UnmarshalJSON(data []byte) error {
	out := make(FeatureImportance, 0)
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("invalid importance for %q: %w", key, err)
		}
		out = append(out, FeatureWeight{Feature: key, Value: v})
		return nil
	})
	if err != nil {
		return err
	}
	*fi = out
	return nil
}

// MarshalJSON encodes the entries as an ordered object
func (fi FeatureImportance) MarshalJSON() ([]byte, error) {
	return encodeOrderedObject(len(fi), func(i int) (string, any) {
		return fi[i].Feature, fi[i].Value
	})
}

// IsIntercept reports whether a feature-importance key is the synthetic
// intercept entry the service appends for linear models.
func IsIntercept(feature string) bool {
	lower := strings.ToLower(strings.TrimSpace(feature))
	return lower == "intercept" || strings.Contains(lower, "(intercept)")
}

// TrainedModel is a model produced by the training service
type TrainedModel struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	Description       *string                `json:"description,omitempty"`
	ModelType         string                 `json:"model_type"`
	DatasetID         string                 `json:"dataset_id"`
	TargetColumn      string                 `json:"target_column"`
	FeatureColumns    []string               `json:"feature_columns"`
	Parameters        map[string]interface{} `json:"parameters"`
	Metrics           Metrics                `json:"metrics"`
	FeatureImportance FeatureImportance      `json:"feature_importance,omitempty"`
	TrainingTime      string                 `json:"training_time"`
}

// EvaluationResult is the response of POST /models/{id}/evaluate
type EvaluationResult struct {
	ID          string    `json:"id,omitempty"`
	ModelID     string    `json:"model_id,omitempty"`
	DatasetID   string    `json:"dataset_id,omitempty"`
	Timestamp   string    `json:"timestamp,omitempty"`
	Metrics     Metrics   `json:"metrics"`
	Actual      []float64 `json:"actual"`
	Predictions []float64 `json:"predictions"`
}

// Validate checks that actual and predicted series are paired and non-empty
func (e *EvaluationResult) Validate() error {
	if len(e.Actual) != len(e.Predictions) {
		return NewValidationError("predictions", "%d predictions for %d actual values", len(e.Predictions), len(e.Actual))
	}
	if len(e.Actual) == 0 {
		return NewValidationError("actual", "evaluation returned no values")
	}
	return nil
}

// PredictionRequest is the body of POST /models/{id}/predict
type PredictionRequest struct {
	Features []float64 `json:"features"`
}

// PredictionResponse is the response of POST /models/{id}/predict
type PredictionResponse struct {
	Prediction float64 `json:"prediction"`
}
