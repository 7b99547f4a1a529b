package session

import (
	"context"
	"time"

	"fitting-console/core/models"
)

// State represents the current stage of a training session
type State string

const (
	StateEmpty           State = "empty"
	StateDatasetChosen   State = "dataset_chosen"
	StateColumnsChosen   State = "columns_chosen"
	StateAlgorithmChosen State = "algorithm_chosen"
	StateReady           State = "ready"
	StateSubmitting      State = "submitting"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
)

func (s State) String() string {
	return string(s)
}

// DatasetSource resolves a dataset id to its declared columns
type DatasetSource interface {
	GetDataset(ctx context.Context, id string) (*models.DatasetDetail, error)
}

// SchemaSource resolves an algorithm id to its schema
type SchemaSource interface {
	Get(ctx context.Context, id string) (*models.AlgorithmSchema, error)
}

// Trainer submits a training request to the fitting service
type Trainer interface {
	TrainModel(ctx context.Context, req models.TrainingRequest) (*models.TrainedModel, error)
}

// Transition is a recorded state change of a session
type Transition struct {
	SessionID string
	From      State
	To        State
	Reason    string
	At        time.Time
	Meta      map[string]interface{}
}

// EventRecorder receives every state transition of a session
type EventRecorder interface {
	RecordTransition(ctx context.Context, t Transition) error
}

type recorders []EventRecorder

// Recorders fans transitions out to every non-nil recorder. All recorders
// see every transition; the first error is returned.
func Recorders(rs ...EventRecorder) EventRecorder {
	var out recorders
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (rs recorders) RecordTransition(ctx context.Context, t Transition) error {
	var first error
	for _, r := range rs {
		if err := r.RecordTransition(ctx, t); err != nil && first == nil {
			first = err
		}
	}
	return first
}
