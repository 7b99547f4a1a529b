package session

import (
	"fitting-console/core/form"
	"fitting-console/core/models"
)

// Snapshot is a read-only copy of a session
type Snapshot struct {
	ID             string                 `json:"id"`
	State          State                  `json:"state"`
	Dataset        *models.DatasetInfo    `json:"dataset,omitempty"`
	TargetColumn   string                 `json:"target_column,omitempty"`
	FeatureColumns []string               `json:"feature_columns"`
	ModelType      string                 `json:"model_type,omitempty"`
	Fields         []form.FieldDescriptor `json:"fields"`
	Parameters     map[string]interface{} `json:"parameters"`
	TestSize       float64                `json:"test_size"`
	Name           string                 `json:"name,omitempty"`
	Description    string                 `json:"description,omitempty"`
	Issues         []string               `json:"issues,omitempty"`
	Model          *models.TrainedModel   `json:"model,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

// Snapshot returns a copy of the session that shares no mutable state with
// the controller
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		ID:             c.id,
		State:          c.stateLocked(),
		TargetColumn:   c.target,
		FeatureColumns: append([]string{}, c.features...),
		Fields:         append([]form.FieldDescriptor{}, c.fields...),
		Parameters:     make(map[string]interface{}, len(c.params)),
		TestSize:       c.testSize,
		Name:           c.name,
		Description:    c.description,
		Model:          c.model,
	}
	if c.dataset != nil {
		info := *c.dataset
		info.Columns = append([]string(nil), c.dataset.Columns...)
		snap.Dataset = &info
	}
	if c.schema != nil {
		snap.ModelType = c.schema.ID
	}
	for k, v := range c.params {
		if tags, ok := v.([]string); ok {
			v = append([]string{}, tags...)
		}
		snap.Parameters[k] = v
	}
	if snap.State != StateSubmitting {
		for _, issue := range c.issuesLocked() {
			snap.Issues = append(snap.Issues, issue.Error())
		}
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
	}
	return snap
}
