package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fitting-console/core/catalog"
	"fitting-console/core/diagnostics"
	"fitting-console/core/inspector"
	"fitting-console/core/models"
	"fitting-console/core/monitoring"
	"fitting-console/core/repository"
	"fitting-console/core/session"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFitting struct {
	datasets map[string]models.DatasetInfo
	models   map[string]*models.TrainedModel
	trained  []models.TrainingRequest
	trainErr error
}

func newFakeFitting() *fakeFitting {
	return &fakeFitting{
		datasets: map[string]models.DatasetInfo{
			"ds-1": {ID: "ds-1", Columns: []string{"x1", "x2", "y"}},
		},
		models: map[string]*models.TrainedModel{
			"m-1": {
				ID:             "m-1",
				ModelType:      models.AlgorithmLinearRegression,
				FeatureColumns: []string{"x1", "x2"},
				Metrics:        models.Metrics{R2: 0.8},
				FeatureImportance: models.FeatureImportance{
					{Feature: "x1", Value: 0.5},
					{Feature: "x2", Value: -2},
				},
			},
		},
	}
}

func (f *fakeFitting) ListDatasets(ctx context.Context) ([]models.DatasetInfo, error) {
	return []models.DatasetInfo{f.datasets["ds-1"]}, nil
}

func (f *fakeFitting) GetDataset(ctx context.Context, id string) (*models.DatasetDetail, error) {
	info, ok := f.datasets[id]
	if !ok {
		return nil, &models.RemoteError{Op: "get dataset", StatusCode: http.StatusNotFound}
	}
	return &models.DatasetDetail{Info: info}, nil
}

func (f *fakeFitting) TrainModel(ctx context.Context, req models.TrainingRequest) (*models.TrainedModel, error) {
	f.trained = append(f.trained, req)
	if f.trainErr != nil {
		return nil, f.trainErr
	}
	return &models.TrainedModel{ID: "m-2", ModelType: req.ModelType}, nil
}

func (f *fakeFitting) ListModels(ctx context.Context) ([]models.TrainedModel, error) {
	return []models.TrainedModel{*f.models["m-1"]}, nil
}

func (f *fakeFitting) GetModel(ctx context.Context, id string) (*models.TrainedModel, error) {
	m, ok := f.models[id]
	if !ok {
		return nil, &models.RemoteError{Op: "get model", StatusCode: http.StatusNotFound}
	}
	return m, nil
}

func (f *fakeFitting) EvaluateModel(ctx context.Context, modelID, datasetID string) (*models.EvaluationResult, error) {
	return &models.EvaluationResult{
		Metrics:     models.Metrics{R2: 0.95},
		Actual:      []float64{1, 2, 3},
		Predictions: []float64{1.1, 2.1, 2.9},
	}, nil
}

func (f *fakeFitting) Predict(ctx context.Context, modelID string, features []float64) (float64, error) {
	return 7.5, nil
}

type fakeReports struct {
	saved []*diagnostics.DiagnosticsView
}

func (f *fakeReports) SaveReport(ctx context.Context, view *diagnostics.DiagnosticsView) (*repository.ReportRecord, error) {
	f.saved = append(f.saved, view)
	return &repository.ReportRecord{ID: "r-1", ModelID: view.ModelID, URI: "s3://reports/m-1/r-1.json"}, nil
}

type testAPI struct {
	router   *mux.Router
	fitting  *fakeFitting
	reports  *fakeReports
	outcomes *monitoring.OutcomeTracker
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	fitting := newFakeFitting()
	cat := catalog.NewStaticCatalog([]models.AlgorithmSchema{
		{ID: models.AlgorithmLinearRegression, Name: "Linear Regression", Signed: true},
		{ID: models.AlgorithmMLP, Parameters: []models.ParameterSpec{
			{Name: "hidden_layer_sizes", Type: models.ParameterArray, Default: []interface{}{100.0}},
			{Name: "activation", Type: models.ParameterString, Default: "relu", Enum: []string{"relu", "tanh"}},
			{Name: "alpha", Type: models.ParameterNumber, Default: 0.0001},
		}},
	})
	outcomes := monitoring.NewOutcomeTracker()
	registry := session.NewRegistry(fitting, cat, fitting, outcomes)
	reports := &fakeReports{}

	r := mux.NewRouter()
	SetupRoutes(r, Dependencies{
		Catalog:   cat,
		Sessions:  registry,
		Datasets:  fitting,
		Models:    fitting,
		Inspector: inspector.NewInspector(fitting, cat),
		Reports:   reports,
		Outcomes:  outcomes,
		Metrics:   monitoring.NewMetricsExporter(registry, outcomes),
	})
	return &testAPI{router: r, fitting: fitting, reports: reports, outcomes: outcomes}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func TestAPI_TrainingFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "POST", "/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	id := decodeSnapshot(t, rec).ID
	base := "/v1/sessions/" + id

	rec = api.do(t, "POST", base+"/dataset", `{"dataset_id":"ds-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, session.StateDatasetChosen, decodeSnapshot(t, rec).State)

	rec = api.do(t, "POST", base+"/columns", `{"target_column":"y","feature_columns":["y","x1"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"detail"`)

	rec = api.do(t, "POST", base+"/columns", `{"target_column":"y","feature_columns":["x1","x2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, "POST", base+"/submit", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no algorithm chosen yet")
	assert.Empty(t, api.fitting.trained)

	rec = api.do(t, "POST", base+"/algorithm", `{"model_type":"mlp"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, session.StateReady, snap.State)
	assert.Len(t, snap.Fields, 3)

	rec = api.do(t, "PUT", base+"/parameters/hidden_layer_sizes", `{"value":"64, 32"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, "PUT", base+"/parameters/activation", `{"value":"sigmoid"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, "PUT", base+"/options", `{"test_size":0.3,"name":"mlp-run"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, "POST", base+"/submit", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap = decodeSnapshot(t, rec)
	assert.Equal(t, session.StateSucceeded, snap.State)
	require.NotNil(t, snap.Model)
	assert.Equal(t, "m-2", snap.Model.ID)

	require.Len(t, api.fitting.trained, 1)
	req := api.fitting.trained[0]
	assert.Equal(t, []string{"64", "32"}, req.Parameters["hidden_layer_sizes"])
	assert.Equal(t, "relu", req.Parameters["activation"])
	assert.Equal(t, 0.3, req.TestSize)
	assert.Equal(t, "mlp-run", req.Name)

	rec = api.do(t, "POST", base+"/submit", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, api.fitting.trained, 1)
}

func TestAPI_ApplySpec(t *testing.T) {
	api := newTestAPI(t)
	id := decodeSnapshot(t, api.do(t, "POST", "/v1/sessions", "")).ID

	spec := "run:\n  dataset: ds-1\n  target: y\n  features: [x1, x2]\n  algorithm: linear_regression\n"
	body, err := json.Marshal(map[string]string{"spec_yaml": spec})
	require.NoError(t, err)

	rec := api.do(t, "POST", "/v1/sessions/"+id+"/spec", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, session.StateReady, decodeSnapshot(t, rec).State)

	rec = api.do(t, "POST", "/v1/sessions/"+id+"/spec", `{"spec_yaml":"run: ["}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_FailedTrainingIsBadGateway(t *testing.T) {
	api := newTestAPI(t)
	api.fitting.trainErr = &models.RemoteError{Op: "train model", StatusCode: 500, Detail: "boom"}
	id := decodeSnapshot(t, api.do(t, "POST", "/v1/sessions", "")).ID
	base := "/v1/sessions/" + id

	require.Equal(t, http.StatusOK, api.do(t, "POST", base+"/dataset", `{"dataset_id":"ds-1"}`).Code)
	require.Equal(t, http.StatusOK, api.do(t, "POST", base+"/columns", `{"target_column":"y","feature_columns":["x1"]}`).Code)
	require.Equal(t, http.StatusOK, api.do(t, "POST", base+"/algorithm", `{"model_type":"linear_regression"}`).Code)

	rec := api.do(t, "POST", base+"/submit", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")

	snap := decodeSnapshot(t, api.do(t, "GET", base, ""))
	assert.Equal(t, session.StateFailed, snap.State)
	assert.Equal(t, 1, api.outcomes.Snapshot().Failed)
}

func TestAPI_SessionNotFound(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusNotFound, api.do(t, "GET", "/v1/sessions/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, "DELETE", "/v1/sessions/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, "POST", "/v1/sessions/nope/dataset", `{"dataset_id":"ds-1"}`).Code)
	assert.Equal(t, http.StatusNotImplemented, api.do(t, "GET", "/v1/sessions/nope/events", "").Code)
}

func TestAPI_Algorithms(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "GET", "/v1/algorithms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var schemas []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schemas))
	require.Len(t, schemas, 2)
	assert.Equal(t, models.AlgorithmLinearRegression, schemas[0]["id"])
	assert.Equal(t, true, schemas[0]["signed"])

	rec = api.do(t, "GET", "/v1/algorithms/mlp/form", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var form struct {
		Fields []struct {
			Name    string `json:"name"`
			Control string `json:"control"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &form))
	require.Len(t, form.Fields, 3)
	assert.Equal(t, "hidden_layer_sizes", form.Fields[0].Name)
	assert.Equal(t, "tags", form.Fields[0].Control)

	assert.Equal(t, http.StatusNotFound, api.do(t, "GET", "/v1/algorithms/xgboost/form", "").Code)
}

func TestAPI_Models(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "GET", "/v1/models/m-1/diagnostics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view diagnostics.DiagnosticsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.Headline)
	assert.Equal(t, diagnostics.BucketExcellent, view.Headline.Bucket)
	require.NotNil(t, view.Importance)
	assert.Equal(t, "x2", view.Importance.Entries[0].Feature)
	assert.Equal(t, 1, api.outcomes.Snapshot().Buckets[diagnostics.BucketExcellent])

	assert.Equal(t, http.StatusNotFound, api.do(t, "GET", "/v1/models/missing/diagnostics", "").Code)

	rec = api.do(t, "GET", "/v1/models/m-1/diagnostics?view_id=v-1&dataset_id=ds-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, "DELETE", "/v1/views/v-1", "").Code)

	rec = api.do(t, "POST", "/v1/models/m-1/predict", `{"features":[1,2]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prediction":7.5}`, rec.Body.String())

	rec = api.do(t, "POST", "/v1/models/m-1/predict", `{"features":[1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "POST", "/v1/models/m-1/report", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, api.reports.saved, 1)
	assert.Equal(t, "m-1", api.reports.saved[0].ModelID)
	assert.Equal(t, http.StatusNotImplemented, api.do(t, "GET", "/v1/models/m-1/reports", "").Code)

	assert.Equal(t, http.StatusOK, api.do(t, "GET", "/v1/models", "").Code)
	assert.Equal(t, http.StatusOK, api.do(t, "GET", "/v1/datasets", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, "GET", "/v1/datasets/nope", "").Code)
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, "POST", "/v1/sessions", "")

	rec := api.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = api.do(t, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fitting_sessions{state=\"empty\"} 1")
}
