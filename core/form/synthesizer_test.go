package form

import (
	"testing"

	"fitting-console/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mlpSchema() *models.AlgorithmSchema {
	return &models.AlgorithmSchema{
		ID: models.AlgorithmMLP,
		Parameters: []models.ParameterSpec{
			{Name: "hidden_layer_sizes", Type: models.ParameterArray, Default: []interface{}{100.0}},
			{Name: "activation", Type: models.ParameterString, Default: "relu", Enum: []string{"identity", "logistic", "tanh", "relu"}},
			{Name: "alpha", Type: models.ParameterNumber, Default: 0.0001},
			{Name: "max_iter", Type: models.ParameterInteger, Default: 200.0},
			{Name: "early_stopping", Type: models.ParameterBoolean, Default: "true"},
			{Name: "solver_label", Type: models.ParameterString, Default: "adam"},
			{Name: "layout", Type: "matrix", Default: nil},
		},
	}
}

func TestSynthesize_MappingIsTotal(t *testing.T) {
	fields := Synthesize(mlpSchema())
	require.Len(t, fields, 7)

	tests := []struct {
		index   int
		name    string
		control Control
		def     interface{}
	}{
		{0, "hidden_layer_sizes", ControlTags, []string{"100"}},
		{1, "activation", ControlSelect, "relu"},
		{2, "alpha", ControlNumber, 0.0001},
		{3, "max_iter", ControlNumber, 200},
		{4, "early_stopping", ControlToggle, true},
		{5, "solver_label", ControlText, "adam"},
		{6, "layout", ControlText, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fields[tt.index]
			assert.Equal(t, tt.name, f.Name)
			assert.Equal(t, []string{"parameters", tt.name}, f.Path)
			assert.Equal(t, tt.control, f.Control)
			assert.Equal(t, tt.def, f.DefaultValue)
		})
	}

	assert.Equal(t, NumberStep, fields[2].Step)
	assert.False(t, fields[2].Round)
	assert.Equal(t, float64(IntegerStep), fields[3].Step)
	assert.True(t, fields[3].Round)
	assert.Equal(t, []string{"identity", "logistic", "tanh", "relu"}, fields[1].Options)
	assert.Equal(t, TagSeparator, fields[0].Separator)
}

func TestSynthesize_ArrayDefaultsToEmpty(t *testing.T) {
	schema := &models.AlgorithmSchema{
		ID:         "custom",
		Parameters: []models.ParameterSpec{{Name: "tags", Type: models.ParameterArray}},
	}
	fields := Synthesize(schema)
	require.Len(t, fields, 1)
	assert.Equal(t, []string{}, fields[0].DefaultValue)
}

func TestSynthesize_ArrayOfStringIsTags(t *testing.T) {
	fields := Synthesize(&models.AlgorithmSchema{ID: "mlp", Parameters: []models.ParameterSpec{
		{Name: "hidden_layer_sizes", Type: "array-of-string", Default: []interface{}{"64", "32"}},
	}})
	require.Len(t, fields, 1)
	assert.Equal(t, ControlTags, fields[0].Control)
	assert.Equal(t, models.ParameterArray, fields[0].Type)
	assert.Equal(t, []string{"64", "32"}, fields[0].DefaultValue)
}

func TestSynthesize_NullNumericDefaultStaysUnset(t *testing.T) {
	schema := &models.AlgorithmSchema{
		ID:         models.AlgorithmRandomForest,
		Parameters: []models.ParameterSpec{{Name: "max_depth", Type: models.ParameterInteger, Default: nil}},
	}
	fields := Synthesize(schema)
	assert.Nil(t, fields[0].DefaultValue)
}

func TestSynthesize_BrokenEnumFallsBackToText(t *testing.T) {
	schema := &models.AlgorithmSchema{
		ID:         "custom",
		Parameters: []models.ParameterSpec{{Name: "mode", Type: models.ParameterEnum, Default: "x"}},
	}
	fields := Synthesize(schema)
	assert.Equal(t, ControlText, fields[0].Control)
	assert.Equal(t, "x", fields[0].DefaultValue)
}

func TestSynthesize_NilSchema(t *testing.T) {
	assert.Empty(t, Synthesize(nil))
	assert.Empty(t, Defaults(nil))
}

func TestDefaults_ReplaceNotMerge(t *testing.T) {
	schemaA := &models.AlgorithmSchema{
		ID: "a",
		Parameters: []models.ParameterSpec{
			{Name: "x", Type: models.ParameterNumber, Default: 1.0},
			{Name: "y", Type: models.ParameterNumber, Default: 2.0},
		},
	}
	schemaB := &models.AlgorithmSchema{
		ID:         "b",
		Parameters: []models.ParameterSpec{{Name: "z", Type: models.ParameterBoolean, Default: true}},
	}

	assert.Equal(t, map[string]interface{}{"x": 1.0, "y": 2.0}, Defaults(schemaA))
	assert.Equal(t, map[string]interface{}{"z": true}, Defaults(schemaB))
}

func TestDefaults_TagsAreCopied(t *testing.T) {
	schema := &models.AlgorithmSchema{
		ID:         "a",
		Parameters: []models.ParameterSpec{{Name: "t", Type: models.ParameterArray, Default: []interface{}{"a"}}},
	}
	first := Defaults(schema)
	first["t"].([]string)[0] = "mutated"

	second := Defaults(schema)
	assert.Equal(t, []string{"a"}, second["t"])
}

func TestCommit(t *testing.T) {
	fields := Synthesize(mlpSchema())
	field := func(name string) FieldDescriptor {
		f, ok := Find(fields, name)
		require.True(t, ok)
		return f
	}

	tests := []struct {
		name    string
		field   string
		raw     interface{}
		want    interface{}
		wantErr bool
	}{
		{"NumberKeepsFraction", "alpha", 0.123456, 0.123456, false},
		{"NumberFromString", "alpha", " 0.5 ", 0.5, false},
		{"NumberNilIsUnset", "alpha", nil, nil, false},
		{"NumberRejectsBool", "alpha", true, nil, true},
		{"NumberRejectsGarbage", "alpha", "abc", nil, true},
		{"IntegerRoundsUp", "max_iter", 2.5, 3, false},
		{"IntegerRoundsDown", "max_iter", 199.4, 199, false},
		{"IntegerFromInt", "max_iter", 7, 7, false},
		{"ToggleBool", "early_stopping", false, false, false},
		{"ToggleString", "early_stopping", "true", true, false},
		{"ToggleRejectsNumber", "early_stopping", 1.0, nil, true},
		{"SelectOption", "activation", "tanh", "tanh", false},
		{"SelectUnknownOption", "activation", "softmax", nil, true},
		{"SelectRejectsNumber", "activation", 3.0, nil, true},
		{"TagsFromString", "hidden_layer_sizes", "64, 32,,", []string{"64", "32"}, false},
		{"TagsFromList", "hidden_layer_sizes", []interface{}{"64", 32.0}, []string{"64", "32"}, false},
		{"TagsRejectsObject", "hidden_layer_sizes", map[string]interface{}{}, nil, true},
		{"TextAcceptsString", "solver_label", "sgd", "sgd", false},
		{"TextRejectsNumber", "solver_label", 1.0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Commit(field(tt.field), tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, models.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
