package fitting

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitting-console/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestClient_ListAlgorithms(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models/available", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		io.WriteString(w, `[
			{"id":"linear_regression","name":"线性回归","description":"","parameters":{}},
			{"id":"svr","name":"SVR","description":"","parameters":{
				"kernel":{"type":"string","default":"rbf","enum":["linear","rbf"]},
				"C":{"type":"number","default":1.0}
			}}
		]`)
	})

	schemas, err := client.ListAlgorithms(context.Background())
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.True(t, schemas[0].Signed)
	assert.False(t, schemas[1].Signed)
	require.Len(t, schemas[1].Parameters, 2)
	assert.Equal(t, "kernel", schemas[1].Parameters[0].Name)
	assert.Equal(t, "C", schemas[1].Parameters[1].Name)
}

func TestClient_TrainModel(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/train", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "linear_regression", body["model_type"])
		assert.Equal(t, map[string]interface{}{}, body["parameters"])
		assert.Equal(t, 0.2, body["test_size"])
		assert.NotContains(t, body, "name")

		io.WriteString(w, `{"id":"m-1","name":"m","model_type":"linear_regression","dataset_id":"ds-1",
			"target_column":"y","feature_columns":["x1","x2"],"parameters":{},
			"metrics":{"r2":0.93,"mse":1,"rmse":1,"mae":0.5},
			"feature_importance":{"x2":-1.5,"x1":0.5,"截距(Intercept)":3},
			"training_time":"20240101_120000"}`)
	})

	model, err := client.TrainModel(context.Background(), models.TrainingRequest{
		DatasetID:      "ds-1",
		TargetColumn:   "y",
		FeatureColumns: []string{"x1", "x2"},
		TestSize:       0.2,
		ModelType:      "linear_regression",
	})
	require.NoError(t, err)
	assert.Equal(t, "m-1", model.ID)
	assert.Equal(t, 0.93, model.Metrics.R2)
	require.Len(t, model.FeatureImportance, 3)
	assert.Equal(t, "x2", model.FeatureImportance[0].Feature)
	assert.True(t, models.IsIntercept(model.FeatureImportance[2].Feature))
}

func TestClient_RemoteErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		notFound   bool
	}{
		{"fastapi detail", http.StatusInternalServerError, `{"detail":"训练模型失败: boom"}`, "训练模型失败: boom", false},
		{"not found", http.StatusNotFound, `{"detail":"数据集 x 不存在"}`, "数据集 x 不存在", true},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","test_size"],"msg":"field required"}]}`, "body.test_size: field required", false},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.GetDataset(context.Background(), "x")
			require.Error(t, err)

			var remote *models.RemoteError
			require.True(t, errors.As(err, &remote))
			assert.Equal(t, "get dataset", remote.Op)
			assert.Equal(t, tt.status, remote.StatusCode)
			assert.Equal(t, tt.wantDetail, remote.Detail)
			assert.Equal(t, tt.notFound, errors.Is(err, models.ErrNotFound))
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.ListDatasets(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsRemote(err))
	assert.False(t, errors.Is(err, models.ErrNotFound))
}

func TestClient_EvaluateModel(t *testing.T) {
	var gotQuery string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/m-1/evaluate", r.URL.Path)
		gotQuery = r.URL.Query().Get("dataset_id")
		io.WriteString(w, `{"id":"r-1","model_id":"m-1","dataset_id":"ds-2","metrics":{"r2":0.5},
			"actual":[1,2,3],"predictions":[1.1,1.9,3.2]}`)
	})

	result, err := client.EvaluateModel(context.Background(), "m-1", "ds-2")
	require.NoError(t, err)
	assert.Equal(t, "ds-2", gotQuery)
	assert.Equal(t, []float64{1, 2, 3}, result.Actual)
	assert.NoError(t, result.Validate())

	_, err = client.EvaluateModel(context.Background(), "m-1", "")
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}

func TestClient_Predict(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/m-1/predict", r.URL.Path)
		var req models.PredictionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []float64{1.5, 2}, req.Features)
		io.WriteString(w, `{"prediction": 42.5}`)
	})

	prediction, err := client.Predict(context.Background(), "m-1", []float64{1.5, 2})
	require.NoError(t, err)
	assert.Equal(t, 42.5, prediction)
}

func TestClient_MalformedBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":`)
	})

	_, err := client.GetModel(context.Background(), "m-1")
	assert.True(t, models.IsRemote(err))
}
