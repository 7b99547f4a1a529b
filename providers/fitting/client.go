package fitting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fitting-console/core/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	requestIDHeader = "X-Request-ID"
	maxDetailBytes  = 1 << 16
)

// Client calls the REST API of the model fitting service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL. A zero timeout
// leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListAlgorithms returns the schemas of every algorithm the service offers
func (c *Client) ListAlgorithms(ctx context.Context) ([]models.AlgorithmSchema, error) {
	var schemas []models.AlgorithmSchema
	if err := c.do(ctx, "list algorithms", http.MethodGet, "/models/available", nil, &schemas); err != nil {
		return nil, err
	}
	return schemas, nil
}

// ListDatasets returns every uploaded dataset
func (c *Client) ListDatasets(ctx context.Context) ([]models.DatasetInfo, error) {
	var datasets []models.DatasetInfo
	if err := c.do(ctx, "list datasets", http.MethodGet, "/datasets", nil, &datasets); err != nil {
		return nil, err
	}
	return datasets, nil
}

// GetDataset returns a dataset with its preview rows and column statistics
func (c *Client) GetDataset(ctx context.Context, id string) (*models.DatasetDetail, error) {
	var detail models.DatasetDetail
	if err := c.do(ctx, "get dataset", http.MethodGet, "/datasets/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListModels returns every trained model
func (c *Client) ListModels(ctx context.Context) ([]models.TrainedModel, error) {
	var trained []models.TrainedModel
	if err := c.do(ctx, "list models", http.MethodGet, "/models", nil, &trained); err != nil {
		return nil, err
	}
	return trained, nil
}

// GetModel returns a trained model
func (c *Client) GetModel(ctx context.Context, id string) (*models.TrainedModel, error) {
	var model models.TrainedModel
	if err := c.do(ctx, "get model", http.MethodGet, "/models/"+url.PathEscape(id), nil, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// TrainModel submits a training request and waits for the trained model.
// Training runs synchronously on the service, so this call can be slow.
func (c *Client) TrainModel(ctx context.Context, req models.TrainingRequest) (*models.TrainedModel, error) {
	if req.Parameters == nil {
		req.Parameters = map[string]interface{}{}
	}
	var model models.TrainedModel
	if err := c.do(ctx, "train model", http.MethodPost, "/models/train", req, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// EvaluateModel evaluates a model on the dataset it was trained on, or on
// datasetID when it is not empty
func (c *Client) EvaluateModel(ctx context.Context, modelID, datasetID string) (*models.EvaluationResult, error) {
	path := "/models/" + url.PathEscape(modelID) + "/evaluate"
	if datasetID != "" {
		path += "?" + url.Values{"dataset_id": {datasetID}}.Encode()
	}
	var result models.EvaluationResult
	if err := c.do(ctx, "evaluate model", http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Predict returns the model's prediction for one row of feature values
func (c *Client) Predict(ctx context.Context, modelID string, features []float64) (float64, error) {
	var resp models.PredictionResponse
	body := models.PredictionRequest{Features: features}
	if err := c.do(ctx, "predict", http.MethodPost, "/models/"+url.PathEscape(modelID)+"/predict", body, &resp); err != nil {
		return 0, err
	}
	return resp.Prediction, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &models.RemoteError{Op: op, Err: err}
	}
	requestID := uuid.New().String()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("op", op).Str("request_id", requestID).Msg("Fitting service call failed")
		return &models.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	log.Debug().
		Str("op", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Fitting service call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetailBytes))
		return &models.RemoteError{Op: op, StatusCode: resp.StatusCode, Detail: parseDetail(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.RemoteError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// parseDetail extracts the message of an error body. The service answers
// {"detail": "..."} for handled errors and a list of field errors for
// rejected request bodies.
func parseDetail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(raw))
	}

	var text string
	if err := json.Unmarshal(body.Detail, &text); err == nil {
		return text
	}

	var fieldErrors []struct {
		Loc []interface{} `json:"loc"`
		Msg string        `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &fieldErrors); err == nil && len(fieldErrors) > 0 {
		msgs := make([]string, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			loc := make([]string, 0, len(fe.Loc))
			for _, part := range fe.Loc {
				loc = append(loc, fmt.Sprint(part))
			}
			msgs = append(msgs, strings.Join(loc, ".")+": "+fe.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(body.Detail)
}
