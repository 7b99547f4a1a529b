package models

import (
	"encoding/json"
	"fmt"
)

// ParameterType is the declared type of a tunable parameter
type ParameterType string

const (
	ParameterNumber  ParameterType = "number"
	ParameterInteger ParameterType = "integer"
	ParameterBoolean ParameterType = "boolean"
	ParameterString  ParameterType = "string"
	ParameterEnum    ParameterType = "enum"
	ParameterArray   ParameterType = "array" // array of strings

	parameterArrayOfString ParameterType = "array-of-string" // alias of ParameterArray
)

// ParameterSpec describes one tunable parameter of an algorithm
type ParameterSpec struct {
	Name        string        `json:"-"`
	Type        ParameterType `json:"type"`
	Default     interface{}   `json:"default"`
	Description string        `json:"description"`
	Enum        []string      `json:"enum,omitempty"`
}

// Kind normalizes the declared type. A string with an enum list is an enum.
// Unknown types return the empty kind so callers can fall back to free text.
func (p ParameterSpec) Kind() ParameterType {
	switch p.Type {
	case ParameterEnum:
		return ParameterEnum
	case ParameterString:
		if len(p.Enum) > 0 {
			return ParameterEnum
		}
		return ParameterString
	case ParameterNumber, ParameterInteger, ParameterBoolean, ParameterArray:
		return p.Type
	case parameterArrayOfString:
		return ParameterArray
	default:
		return ""
	}
}

// Validate checks the enum invariant: a non-empty option list containing the default.
func (p ParameterSpec) Validate() error {
	if p.Kind() != ParameterEnum {
		return nil
	}
	if len(p.Enum) == 0 {
		return NewValidationError(p.Name, "enum parameter declares no options")
	}
	def, ok := p.Default.(string)
	if !ok {
		return NewValidationError(p.Name, "enum default %v is not a string", p.Default)
	}
	for _, option := range p.Enum {
		if option == def {
			return nil
		}
	}
	return NewValidationError(p.Name, "enum default %q is not one of %v", def, p.Enum)
}

// AlgorithmSchema is the server-declared description of one trainable algorithm.
// Parameters keep the order the server declared them in.
type AlgorithmSchema struct {
	ID          string
	Name        string
	Description string
	Parameters  []ParameterSpec
	Signed      bool // importances are signed coefficients
}

type algorithmSchemaWire struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
	Signed      *bool           `json:"signed,omitempty"`
}

// UnmarshalJSON decodes the wire form, keeping parameter order and deriving
// the signed flag from the algorithm family unless the server sent one.
func (a *AlgorithmSchema) UnmarshalJSON(data []byte) error {
	var wire algorithmSchemaWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	params := make([]ParameterSpec, 0)
	if len(wire.Parameters) > 0 {
		err := decodeOrderedObject(wire.Parameters, func(key string, raw json.RawMessage) error {
			var spec ParameterSpec
			if err := json.Unmarshal(raw, &spec); err != nil {
				return fmt.Errorf("invalid parameter %q: %w", key, err)
			}
			spec.Name = key
			params = append(params, spec)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to decode parameters of %s: %w", wire.ID, err)
		}
	}

	a.ID = wire.ID
	a.Name = wire.Name
	a.Description = wire.Description
	a.Parameters = params
	if wire.Signed != nil {
		a.Signed = *wire.Signed
	} else {
		a.Signed = SignedFamily(wire.ID)
	}
	return nil
}

// MarshalJSON encodes the schema with parameters as an ordered object.
func (a AlgorithmSchema) MarshalJSON() ([]byte, error) {
	params, err := encodeOrderedObject(len(a.Parameters), func(i int) (string, any) {
		return a.Parameters[i].Name, a.Parameters[i]
	})
	if err != nil {
		return nil, err
	}
	signed := a.Signed
	return json.Marshal(algorithmSchemaWire{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Parameters:  params,
		Signed:      &signed,
	})
}

// Parameter looks up a parameter by name
func (a *AlgorithmSchema) Parameter(name string) (ParameterSpec, bool) {
	for _, p := range a.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// Validate checks every parameter of the schema
func (a *AlgorithmSchema) Validate() error {
	if a.ID == "" {
		return NewValidationError("id", "algorithm id is empty")
	}
	seen := make(map[string]bool, len(a.Parameters))
	for _, p := range a.Parameters {
		if seen[p.Name] {
			return NewValidationError(p.Name, "duplicate parameter in %s", a.ID)
		}
		seen[p.Name] = true
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Algorithm identifiers known to the fitting service
const (
	AlgorithmLinearRegression     = "linear_regression"
	AlgorithmRidgeRegression      = "ridge_regression"
	AlgorithmLassoRegression      = "lasso_regression"
	AlgorithmPolynomialRegression = "polynomial_regression"
	AlgorithmSVR                  = "svr"
	AlgorithmRandomForest         = "random_forest"
	AlgorithmGradientBoosting     = "gradient_boosting"
	AlgorithmMLP                  = "mlp"
	AlgorithmTensorFlowDNN        = "tensorflow_dnn"
	AlgorithmPyTorchDNN           = "pytorch_dnn"
)

type algorithmFamily struct {
	displayName string
	signed      bool
}

// Polynomial expansions report coefficients of generated terms, not of the
// input features, so they are not part of the signed family.
var algorithmFamilies = map[string]algorithmFamily{
	AlgorithmLinearRegression:     {"Linear Regression", true},
	AlgorithmRidgeRegression:      {"Ridge Regression", true},
	AlgorithmLassoRegression:      {"Lasso Regression", true},
	AlgorithmPolynomialRegression: {"Polynomial Regression", false},
	AlgorithmSVR:                  {"Support Vector Regression", false},
	AlgorithmRandomForest:         {"Random Forest Regression", false},
	AlgorithmGradientBoosting:     {"Gradient Boosting Regression", false},
	AlgorithmMLP:                  {"Multi-layer Perceptron Regression", false},
	AlgorithmTensorFlowDNN:        {"TensorFlow Deep Neural Network", false},
	AlgorithmPyTorchDNN:           {"PyTorch Deep Neural Network", false},
}

// SignedFamily reports whether the algorithm exposes signed coefficients.
// Unknown algorithms are treated as magnitude-only.
func SignedFamily(modelType string) bool {
	return algorithmFamilies[modelType].signed
}

// AlgorithmDisplayName returns a human-readable name for a model type,
// falling back to the raw identifier.
func AlgorithmDisplayName(modelType string) string {
	if family, ok := algorithmFamilies[modelType]; ok {
		return family.displayName
	}
	return modelType
}
