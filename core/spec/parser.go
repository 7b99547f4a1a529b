package spec

import (
	"context"
	"fmt"

	"fitting-console/core/models"
	"fitting-console/core/session"

	"gopkg.in/yaml.v3"
)

// RunSpec represents the YAML training run specification
type RunSpec struct {
	Run RunSpecRun `yaml:"run"`
}

// RunSpecRun represents the run section of the spec
type RunSpecRun struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Dataset     string                 `yaml:"dataset"`
	Target      string                 `yaml:"target"`
	Features    []string               `yaml:"features"`
	Algorithm   string                 `yaml:"algorithm"`
	TestSize    *float64               `yaml:"test_size,omitempty"` // default 0.2
	Parameters  map[string]interface{} `yaml:"parameters"`
}

// ParseRunSpec parses a YAML run specification
func ParseRunSpec(specYAML string) (*RunSpec, error) {
	var spec RunSpec
	if err := yaml.Unmarshal([]byte(specYAML), &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Set defaults
	if spec.Run.TestSize == nil {
		testSize := models.DefaultTestSize
		spec.Run.TestSize = &testSize
	}
	if spec.Run.Parameters == nil {
		spec.Run.Parameters = map[string]interface{}{}
	}

	if _, err := spec.TrainingRequest(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// TrainingRequest converts the spec into a training request. Parameters are
// passed as written; they are not checked against the algorithm schema.
func (s *RunSpec) TrainingRequest() (*models.TrainingRequest, error) {
	testSize := models.DefaultTestSize
	if s.Run.TestSize != nil {
		testSize = *s.Run.TestSize
	}
	params := make(map[string]interface{}, len(s.Run.Parameters))
	for k, v := range s.Run.Parameters {
		params[k] = v
	}

	req := &models.TrainingRequest{
		DatasetID:      s.Run.Dataset,
		TargetColumn:   s.Run.Target,
		FeatureColumns: append([]string(nil), s.Run.Features...),
		TestSize:       testSize,
		ModelType:      s.Run.Algorithm,
		Parameters:     params,
		Name:           s.Run.Name,
		Description:    s.Run.Description,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Session is the part of a training session a spec is applied to
type Session interface {
	Configure(ctx context.Context, sel session.Selection) error
}

// Apply replaces every selection of the session with the spec's in one
// step. Parameters are committed over the algorithm's defaults, so they are
// checked against its schema. A spec that fails any check leaves the session
// unchanged.
func (s *RunSpec) Apply(ctx context.Context, target Session) error {
	testSize := models.DefaultTestSize
	if s.Run.TestSize != nil {
		testSize = *s.Run.TestSize
	}
	return target.Configure(ctx, session.Selection{
		DatasetID:      s.Run.Dataset,
		TargetColumn:   s.Run.Target,
		FeatureColumns: s.Run.Features,
		ModelType:      s.Run.Algorithm,
		Parameters:     s.Run.Parameters,
		TestSize:       testSize,
		Name:           s.Run.Name,
		Description:    s.Run.Description,
	})
}
