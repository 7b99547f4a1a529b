package handlers

import (
	"context"
	"net/http"
	"strconv"

	"fitting-console/core/repository"
	"fitting-console/core/session"
	"fitting-console/core/spec"

	"github.com/gorilla/mux"
)

// EventLister reads the persisted transitions of a session
type EventLister interface {
	GetSessionEvents(ctx context.Context, sessionID string, limit int) ([]repository.SessionEvent, error)
}

// SessionHandler handles training session requests
type SessionHandler struct {
	registry *session.Registry
	events   EventLister
}

// NewSessionHandler creates a new session handler. events may be nil when
// transitions are not persisted.
func NewSessionHandler(registry *session.Registry, events EventLister) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		events:   events,
	}
}

// ChooseDatasetRequest represents the request to choose a dataset
type ChooseDatasetRequest struct {
	DatasetID string `json:"dataset_id"`
}

// ChooseColumnsRequest represents the request to choose target and features
type ChooseColumnsRequest struct {
	TargetColumn   string   `json:"target_column"`
	FeatureColumns []string `json:"feature_columns"`
}

// ChooseAlgorithmRequest represents the request to choose an algorithm
type ChooseAlgorithmRequest struct {
	ModelType string `json:"model_type"`
}

// SetParameterRequest represents the request to set one parameter
type SetParameterRequest struct {
	Value interface{} `json:"value"`
}

// SetOptionsRequest represents the request to set run options. Absent
// fields are left unchanged.
type SetOptionsRequest struct {
	TestSize    *float64 `json:"test_size"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
}

// ApplySpecRequest represents the request to apply a YAML run spec
type ApplySpecRequest struct {
	SpecYAML string `json:"spec_yaml"`
}

// CreateSession handles POST /v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	c := h.registry.Create()
	writeJSON(w, http.StatusCreated, c.Snapshot())
}

// GetSession handles GET /v1/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// DeleteSession handles DELETE /v1/sessions/{id}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChooseDataset handles POST /v1/sessions/{id}/dataset
func (h *SessionHandler) ChooseDataset(w http.ResponseWriter, r *http.Request) {
	var req ChooseDatasetRequest
	h.mutate(w, r, &req, func(c *session.Controller) error {
		return c.ChooseDataset(r.Context(), req.DatasetID)
	})
}

// ChooseColumns handles POST /v1/sessions/{id}/columns
func (h *SessionHandler) ChooseColumns(w http.ResponseWriter, r *http.Request) {
	var req ChooseColumnsRequest
	h.mutate(w, r, &req, func(c *session.Controller) error {
		return c.ChooseColumns(r.Context(), req.TargetColumn, req.FeatureColumns)
	})
}

// ChooseAlgorithm handles POST /v1/sessions/{id}/algorithm
func (h *SessionHandler) ChooseAlgorithm(w http.ResponseWriter, r *http.Request) {
	var req ChooseAlgorithmRequest
	h.mutate(w, r, &req, func(c *session.Controller) error {
		return c.ChooseAlgorithm(r.Context(), req.ModelType)
	})
}

// SetParameter handles PUT /v1/sessions/{id}/parameters/{name}
func (h *SessionHandler) SetParameter(w http.ResponseWriter, r *http.Request) {
	var req SetParameterRequest
	h.mutate(w, r, &req, func(c *session.Controller) error {
		return c.SetParameter(mux.Vars(r)["name"], req.Value)
	})
}

// SetOptions handles PUT /v1/sessions/{id}/options
func (h *SessionHandler) SetOptions(w http.ResponseWriter, r *http.Request) {
	var req SetOptionsRequest
	h.mutate(w, r, &req, func(c *session.Controller) error {
		if req.TestSize != nil {
			if err := c.SetTestSize(*req.TestSize); err != nil {
				return err
			}
		}
		if req.Name == nil && req.Description == nil {
			return nil
		}
		current := c.Snapshot()
		name, description := current.Name, current.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		return c.SetLabel(name, description)
	})
}

// ApplySpec handles POST /v1/sessions/{id}/spec
func (h *SessionHandler) ApplySpec(w http.ResponseWriter, r *http.Request) {
	var req ApplySpecRequest
	h.mutate(w, r, &req, func(c *session.Controller) error {
		runSpec, err := spec.ParseRunSpec(req.SpecYAML)
		if err != nil {
			return validationFrom("spec_yaml", err)
		}
		return runSpec.Apply(r.Context(), c)
	})
}

// Submit handles POST /v1/sessions/{id}/submit
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if _, err := c.Submit(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c.Snapshot())
}

// GetSessionEvents handles GET /v1/sessions/{id}/events
func (h *SessionHandler) GetSessionEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		http.Error(w, "Session events are not persisted", http.StatusNotImplemented)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := h.events.GetSessionEvents(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []repository.SessionEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	c, err := h.registry.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return c, true
}

// mutate decodes the body into req, applies fn to the session and answers
// with the resulting snapshot
func (h *SessionHandler) mutate(w http.ResponseWriter, r *http.Request, req interface{}, fn func(*session.Controller) error) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := decodeBody(r, req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := fn(c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}
