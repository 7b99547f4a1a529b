// Package form turns a server-declared algorithm schema into typed input
// field descriptors and coerces user-entered values against them.
//
// The mapping from parameter type to control is closed and total: every
// ParameterSpec produces a field, and types the console does not know fall
// back to a free-text input.
package form

import (
	"fitting-console/core/models"
)

// Control is the kind of input control a field renders as
type Control string

const (
	ControlNumber Control = "number" // numeric input
	ControlToggle Control = "toggle" // two-state switch
	ControlSelect Control = "select" // closed single choice
	ControlTags   Control = "tags"   // open multi-value string editor
	ControlText   Control = "text"   // free text
)

// Validator identifiers attached to a field
const (
	ValidatorNumeric = "numeric"
	ValidatorInteger = "integer"
	ValidatorBoolean = "boolean"
	ValidatorOneOf   = "one_of"
	ValidatorStrings = "strings"
)

// Numeric step sizes
const (
	NumberStep  = 0.01
	IntegerStep = 1
)

// TagSeparator splits free-entry tag input
const TagSeparator = ","

// FieldDescriptor describes one synthesized input field
type FieldDescriptor struct {
	Path         []string             `json:"path"`
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	Type         models.ParameterType `json:"type"`
	Control      Control              `json:"control"`
	Step         float64              `json:"step,omitempty"`
	Round        bool                 `json:"round,omitempty"`
	Options      []string             `json:"options,omitempty"`
	Separator    string               `json:"separator,omitempty"`
	DefaultValue interface{}          `json:"default_value"`
	Validators   []string             `json:"validators,omitempty"`
}

// Synthesize produces one field per schema parameter in declaration order.
// It never fails.
func Synthesize(schema *models.AlgorithmSchema) []FieldDescriptor {
	if schema == nil {
		return []FieldDescriptor{}
	}
	fields := make([]FieldDescriptor, 0, len(schema.Parameters))
	for _, param := range schema.Parameters {
		fields = append(fields, synthesizeField(param))
	}
	return fields
}

// Defaults returns a fresh parameter set holding every field's default value.
// Callers replace, never merge, their current parameters with it.
func Defaults(schema *models.AlgorithmSchema) map[string]interface{} {
	fields := Synthesize(schema)
	params := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		params[f.Name] = cloneValue(f.DefaultValue)
	}
	return params
}

// Find returns the field with the given parameter name
func Find(fields []FieldDescriptor, name string) (FieldDescriptor, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

func synthesizeField(param models.ParameterSpec) FieldDescriptor {
	field := FieldDescriptor{
		Path:        []string{"parameters", param.Name},
		Name:        param.Name,
		Description: param.Description,
		Type:        param.Kind(),
	}

	switch param.Kind() {
	case models.ParameterNumber:
		field.Control = ControlNumber
		field.Step = NumberStep
		field.DefaultValue = numericDefault(param.Default, false)
		field.Validators = []string{ValidatorNumeric}
	case models.ParameterInteger:
		field.Control = ControlNumber
		field.Step = IntegerStep
		field.Round = true
		field.DefaultValue = numericDefault(param.Default, true)
		field.Validators = []string{ValidatorNumeric, ValidatorInteger}
	case models.ParameterBoolean:
		field.Control = ControlToggle
		field.DefaultValue = truthy(param.Default)
		field.Validators = []string{ValidatorBoolean}
	case models.ParameterEnum:
		if param.Validate() != nil {
			// a broken enum declaration degrades to free text
			field.Type = models.ParameterString
			field.Control = ControlText
			field.DefaultValue = textDefault(param.Default)
			return field
		}
		field.Control = ControlSelect
		field.Options = append([]string(nil), param.Enum...)
		field.DefaultValue = param.Default
		field.Validators = []string{ValidatorOneOf}
	case models.ParameterArray:
		field.Control = ControlTags
		field.Separator = TagSeparator
		field.DefaultValue = tagsDefault(param.Default)
		field.Validators = []string{ValidatorStrings}
	default:
		field.Type = models.ParameterString
		field.Control = ControlText
		field.DefaultValue = textDefault(param.Default)
	}
	return field
}

// numericDefault keeps a null default as nil ("unset, let the server decide").
func numericDefault(v interface{}, integer bool) interface{} {
	if v == nil {
		return nil
	}
	f, err := toFloat(v)
	if err != nil {
		return nil
	}
	if integer {
		return roundInt(f)
	}
	return f
}

func textDefault(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return stringify(v)
}

func tagsDefault(v interface{}) []string {
	if v == nil {
		return []string{}
	}
	tags, err := toTags(v)
	if err != nil {
		return []string{}
	}
	return tags
}

func cloneValue(v interface{}) interface{} {
	if tags, ok := v.([]string); ok {
		return append([]string{}, tags...)
	}
	return v
}
