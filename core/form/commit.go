package form

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"fitting-console/core/models"
)

// Commit coerces a user-entered value for the field and validates it.
// Integers are rounded to the nearest whole number, tag input given as a
// single string is split on the separator. An incompatible value yields a
// *models.ValidationError.
func Commit(field FieldDescriptor, raw interface{}) (interface{}, error) {
	switch field.Control {
	case ControlNumber:
		if raw == nil {
			return nil, nil
		}
		f, err := toFloat(raw)
		if err != nil {
			return nil, models.NewValidationError(field.Name, "%v", err)
		}
		if field.Round {
			return roundInt(f), nil
		}
		return f, nil
	case ControlToggle:
		b, ok := toBool(raw)
		if !ok {
			return nil, models.NewValidationError(field.Name, "expected a boolean, got %T", raw)
		}
		return b, nil
	case ControlSelect:
		s, ok := raw.(string)
		if !ok {
			return nil, models.NewValidationError(field.Name, "expected one of %v, got %T", field.Options, raw)
		}
		for _, option := range field.Options {
			if option == s {
				return s, nil
			}
		}
		return nil, models.NewValidationError(field.Name, "%q is not one of %v", s, field.Options)
	case ControlTags:
		if raw == nil {
			return []string{}, nil
		}
		tags, err := toTags(raw)
		if err != nil {
			return nil, models.NewValidationError(field.Name, "%v", err)
		}
		return tags, nil
	default:
		if raw == nil {
			return "", nil
		}
		s, ok := raw.(string)
		if !ok {
			return nil, models.NewValidationError(field.Name, "expected text, got %T", raw)
		}
		return s, nil
	}
}

func toFloat(v interface{}) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n.String())
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not a finite number", f)
	}
	return f, nil
}

// roundInt rounds half away from zero
func roundInt(f float64) int {
	return int(math.Round(f))
}

func toBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}

// truthy coerces a declared default to a boolean
func truthy(v interface{}) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
		return b != ""
	default:
		f, err := toFloat(v)
		return err == nil && f != 0
	}
}

func toTags(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case string:
		return splitTags(t), nil
	case []string:
		return cleanTags(t), nil
	case []interface{}:
		tags := make([]string, 0, len(t))
		for _, item := range t {
			switch s := item.(type) {
			case string:
				tags = append(tags, s)
			case float64, float32, int, int64, int32, json.Number, bool:
				tags = append(tags, stringify(s))
			default:
				return nil, fmt.Errorf("unsupported tag value %T", item)
			}
		}
		return cleanTags(tags), nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}

func splitTags(s string) []string {
	return cleanTags(strings.Split(s, TagSeparator))
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}
