package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fitting-console/core/form"
	"fitting-console/core/inflight"
	"fitting-console/core/models"

	"github.com/rs/zerolog/log"
)

const datasetRequestKey = "dataset"

// Controller owns every session-scoped selection from dataset choice to
// submission. Its methods are safe for concurrent use; at most one
// submission is in flight at a time.
type Controller struct {
	id       string
	datasets DatasetSource
	schemas  SchemaSource
	trainer  Trainer
	recorder EventRecorder
	requests *inflight.Guard

	mu          sync.Mutex
	submitting  bool
	outcome     State // StateSucceeded or StateFailed until the next change
	dataset     *models.DatasetInfo
	target      string
	features    []string
	schema      *models.AlgorithmSchema
	fields      []form.FieldDescriptor
	params      map[string]interface{}
	testSize    float64
	name        string
	description string
	model       *models.TrainedModel
	lastErr     error
	updatedAt   time.Time
}

// NewController creates a session in the Empty state. recorder may be nil.
func NewController(id string, datasets DatasetSource, schemas SchemaSource, trainer Trainer, recorder EventRecorder) *Controller {
	return &Controller{
		id:        id,
		datasets:  datasets,
		schemas:   schemas,
		trainer:   trainer,
		recorder:  recorder,
		requests:  inflight.NewGuard(),
		params:    map[string]interface{}{},
		testSize:  models.DefaultTestSize,
		updatedAt: time.Now(),
	}
}

// ID returns the session id
func (c *Controller) ID() string {
	return c.id
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// LastActivity returns when the session last changed
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}

// LastError returns the error of the last failed submission
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ChooseDataset selects the dataset to train on and clears the column
// selection. An unknown id is a validation error. If a newer dataset choice
// starts while this one is loading, this one returns ErrSuperseded.
func (c *Controller) ChooseDataset(ctx context.Context, id string) error {
	if id == "" {
		return models.NewValidationError("dataset_id", "dataset is required")
	}
	if err := c.checkIdle("choose dataset"); err != nil {
		return err
	}

	info, err := c.loadDataset(ctx, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return models.InvalidStateError("choose dataset", StateSubmitting)
	}
	from := c.stateLocked()
	c.dataset = info
	c.target = ""
	c.features = nil
	c.touchLocked()
	to := c.stateLocked()
	c.mu.Unlock()

	c.record(ctx, from, to, "dataset_chosen", map[string]interface{}{"dataset_id": id})
	return nil
}

// loadDataset fetches a dataset for selection. A newer load started while
// this one was in flight makes this one return ErrSuperseded.
func (c *Controller) loadDataset(ctx context.Context, id string) (*models.DatasetInfo, error) {
	ticket := c.requests.Begin(datasetRequestKey)
	detail, err := c.datasets.GetDataset(ctx, id)
	if !c.requests.Accept(ticket) {
		return nil, fmt.Errorf("choose dataset %s: %w", id, models.ErrSuperseded)
	}
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewValidationError("dataset_id", "unknown dataset %q", id)
		}
		return nil, fmt.Errorf("failed to load dataset %s: %w", id, err)
	}
	info := detail.Info
	info.Columns = append([]string(nil), detail.Info.Columns...)
	return &info, nil
}

// ChooseColumns selects the target and the input features. The target must
// be a dataset column and must not also be a feature.
func (c *Controller) ChooseColumns(ctx context.Context, target string, features []string) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return models.InvalidStateError("choose columns", StateSubmitting)
	}
	if c.dataset == nil {
		state := c.stateLocked()
		c.mu.Unlock()
		return models.InvalidStateError("choose columns", state)
	}
	if err := validateColumns(c.dataset, target, features); err != nil {
		c.mu.Unlock()
		return err
	}

	from := c.stateLocked()
	c.target = target
	c.features = append([]string(nil), features...)
	c.touchLocked()
	to := c.stateLocked()
	c.mu.Unlock()

	c.record(ctx, from, to, "columns_chosen", map[string]interface{}{
		"target_column":   target,
		"feature_columns": len(features),
	})
	return nil
}

func validateColumns(dataset *models.DatasetInfo, target string, features []string) error {
	if target == "" {
		return models.NewValidationError("target_column", "target column is required")
	}
	if !dataset.HasColumn(target) {
		return models.NewValidationError("target_column", "%q is not a column of dataset %s", target, dataset.ID)
	}
	if len(features) == 0 {
		return models.NewValidationError("feature_columns", "at least one feature column is required")
	}
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		if f == target {
			return models.NewValidationError("feature_columns", "target column %q cannot also be a feature", f)
		}
		if !dataset.HasColumn(f) {
			return models.NewValidationError("feature_columns", "%q is not a column of dataset %s", f, dataset.ID)
		}
		if seen[f] {
			return models.NewValidationError("feature_columns", "%q selected twice", f)
		}
		seen[f] = true
	}
	return nil
}

// ChooseAlgorithm selects the algorithm and replaces the parameter set with
// the new schema's defaults. Parameters of a previous algorithm never carry
// over.
func (c *Controller) ChooseAlgorithm(ctx context.Context, schemaID string) error {
	if err := c.checkIdle("choose algorithm"); err != nil {
		return err
	}

	schema, err := c.schemas.Get(ctx, schemaID)
	if err != nil {
		return err
	}
	fields := form.Synthesize(schema)
	params := form.Defaults(schema)

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return models.InvalidStateError("choose algorithm", StateSubmitting)
	}
	from := c.stateLocked()
	c.schema = schema
	c.fields = fields
	c.params = params
	c.touchLocked()
	to := c.stateLocked()
	c.mu.Unlock()

	c.record(ctx, from, to, "algorithm_chosen", map[string]interface{}{"model_type": schemaID})
	return nil
}

// SetParameter commits a value for one parameter of the chosen algorithm.
// It never changes the selection stage.
func (c *Controller) SetParameter(name string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return models.InvalidStateError("set parameter", StateSubmitting)
	}
	field, ok := form.Find(c.fields, name)
	if !ok {
		return models.NewValidationError(name, "not a parameter of the chosen algorithm")
	}
	committed, err := form.Commit(field, value)
	if err != nil {
		return err
	}
	c.params[name] = committed
	c.touchLocked()
	return nil
}

// SetTestSize stores the test split fraction. Out-of-range values are kept
// as given and keep the session from becoming Ready.
func (c *Controller) SetTestSize(v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return models.InvalidStateError("set test size", StateSubmitting)
	}
	c.testSize = v
	c.touchLocked()
	return nil
}

// SetLabel sets the optional model name and description
func (c *Controller) SetLabel(name, description string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return models.InvalidStateError("set label", StateSubmitting)
	}
	c.name = name
	c.description = description
	c.touchLocked()
	return nil
}

// Selection is a complete set of session choices applied in one step
type Selection struct {
	DatasetID      string
	TargetColumn   string
	FeatureColumns []string
	ModelType      string
	Parameters     map[string]interface{} // committed over the algorithm defaults
	TestSize       float64
	Name           string
	Description    string
}

// Configure replaces every choice of the session at once. The whole
// selection is checked first: the dataset must exist, the columns must fit
// it, the algorithm must be in the catalog and every parameter must commit
// against its field. On any error the session is left as it was.
func (c *Controller) Configure(ctx context.Context, sel Selection) error {
	if sel.DatasetID == "" {
		return models.NewValidationError("dataset_id", "dataset is required")
	}
	if err := c.checkIdle("configure"); err != nil {
		return err
	}

	dataset, err := c.loadDataset(ctx, sel.DatasetID)
	if err != nil {
		return err
	}
	if err := validateColumns(dataset, sel.TargetColumn, sel.FeatureColumns); err != nil {
		return err
	}
	schema, err := c.schemas.Get(ctx, sel.ModelType)
	if err != nil {
		return err
	}
	fields := form.Synthesize(schema)
	params := form.Defaults(schema)

	names := make([]string, 0, len(sel.Parameters))
	for name := range sel.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field, ok := form.Find(fields, name)
		if !ok {
			return models.NewValidationError(name, "not a parameter of %s", schema.ID)
		}
		committed, err := form.Commit(field, sel.Parameters[name])
		if err != nil {
			return err
		}
		params[name] = committed
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return models.InvalidStateError("configure", StateSubmitting)
	}
	from := c.stateLocked()
	c.dataset = dataset
	c.target = sel.TargetColumn
	c.features = append([]string(nil), sel.FeatureColumns...)
	c.schema = schema
	c.fields = fields
	c.params = params
	c.testSize = sel.TestSize
	c.name = sel.Name
	c.description = sel.Description
	c.touchLocked()
	to := c.stateLocked()
	c.mu.Unlock()

	c.record(ctx, from, to, "configured", map[string]interface{}{
		"dataset_id": sel.DatasetID,
		"model_type": sel.ModelType,
	})
	return nil
}

// Request builds the training request the session would submit
func (c *Controller) Request() (models.TrainingRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if issues := c.issuesLocked(); len(issues) > 0 {
		return models.TrainingRequest{}, issues[0]
	}
	return c.requestLocked(), nil
}

// Submit sends the training request. It is only allowed in Ready, or in
// Failed to retry; anything else, including a second submit while one is in
// flight, fails with ErrInvalidState and makes no network call. A failed
// submission leaves every selection intact.
//
// The training call is not cancelled with ctx: once sent it runs until the
// service answers or the transport times out.
func (c *Controller) Submit(ctx context.Context) (*models.TrainedModel, error) {
	c.mu.Lock()
	state := c.stateLocked()
	if state != StateReady && state != StateFailed {
		c.mu.Unlock()
		err := models.InvalidStateError("submit", state)
		if issues := c.Issues(); len(issues) > 0 && state != StateSubmitting {
			err = errors.Join(err, issues[0])
		}
		return nil, err
	}
	if issues := c.issuesLocked(); len(issues) > 0 {
		c.mu.Unlock()
		return nil, errors.Join(models.InvalidStateError("submit", state), issues[0])
	}
	req := c.requestLocked()
	c.submitting = true
	c.outcome = ""
	c.lastErr = nil
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	c.record(ctx, state, StateSubmitting, "submit", map[string]interface{}{
		"dataset_id": req.DatasetID,
		"model_type": req.ModelType,
	})
	log.Info().
		Str("session_id", c.id).
		Str("dataset_id", req.DatasetID).
		Str("model_type", req.ModelType).
		Msg("Submitting training request")

	model, err := c.trainer.TrainModel(ctx, req)

	c.mu.Lock()
	c.submitting = false
	c.updatedAt = time.Now()
	if err != nil {
		c.outcome = StateFailed
		c.lastErr = err
		c.mu.Unlock()

		log.Error().Err(err).Str("session_id", c.id).Msg("Training request failed")
		c.record(ctx, StateSubmitting, StateFailed, "training_failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("failed to train model: %w", err)
	}
	c.outcome = StateSucceeded
	c.model = model
	c.mu.Unlock()

	log.Info().Str("session_id", c.id).Str("model_id", model.ID).Msg("Model trained")
	c.record(ctx, StateSubmitting, StateSucceeded, "training_completed", map[string]interface{}{"model_id": model.ID})
	return model, nil
}

// Issues lists what keeps the session from being Ready
func (c *Controller) Issues() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issuesLocked()
}

// checkIdle fails while a submission is in flight
func (c *Controller) checkIdle(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return models.InvalidStateError(op, StateSubmitting)
	}
	return nil
}

// touchLocked clears the outcome of the last submission after a change
func (c *Controller) touchLocked() {
	c.outcome = ""
	c.model = nil
	c.lastErr = nil
	c.updatedAt = time.Now()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.submitting:
		return StateSubmitting
	case c.outcome != "":
		return c.outcome
	case c.dataset == nil:
		return StateEmpty
	case c.target == "" || len(c.features) == 0:
		return StateDatasetChosen
	case c.schema == nil:
		return StateColumnsChosen
	case len(c.issuesLocked()) > 0:
		return StateAlgorithmChosen
	default:
		return StateReady
	}
}

func (c *Controller) issuesLocked() []error {
	var issues []error
	if c.dataset == nil {
		issues = append(issues, models.NewValidationError("dataset_id", "dataset is required"))
	}
	if c.target == "" {
		issues = append(issues, models.NewValidationError("target_column", "target column is required"))
	}
	if len(c.features) == 0 {
		issues = append(issues, models.NewValidationError("feature_columns", "at least one feature column is required"))
	}
	if c.schema == nil {
		issues = append(issues, models.NewValidationError("model_type", "algorithm is required"))
	} else {
		for _, p := range c.schema.Parameters {
			// a null default marks an optional parameter
			if p.Default != nil && c.params[p.Name] == nil {
				issues = append(issues, models.NewValidationError(p.Name, "parameter is required"))
			}
		}
	}
	if err := models.ValidateTestSize(c.testSize); err != nil {
		issues = append(issues, err)
	}
	return issues
}

func (c *Controller) requestLocked() models.TrainingRequest {
	params := make(map[string]interface{}, len(c.params))
	for k, v := range c.params {
		if tags, ok := v.([]string); ok {
			v = append([]string{}, tags...)
		}
		params[k] = v
	}
	req := models.TrainingRequest{
		DatasetID:      c.dataset.ID,
		TargetColumn:   c.target,
		FeatureColumns: append([]string(nil), c.features...),
		TestSize:       c.testSize,
		ModelType:      c.schema.ID,
		Parameters:     params,
		Name:           c.name,
		Description:    c.description,
	}
	return req
}

func (c *Controller) record(ctx context.Context, from, to State, reason string, meta map[string]interface{}) {
	log.Debug().
		Str("session_id", c.id).
		Str("from", from.String()).
		Str("to", to.String()).
		Str("reason", reason).
		Msg("Session transition")

	if c.recorder == nil {
		return
	}
	t := Transition{
		SessionID: c.id,
		From:      from,
		To:        to,
		Reason:    reason,
		At:        time.Now(),
		Meta:      meta,
	}
	if err := c.recorder.RecordTransition(ctx, t); err != nil {
		log.Warn().Err(err).Str("session_id", c.id).Msg("Failed to record session transition")
	}
}
