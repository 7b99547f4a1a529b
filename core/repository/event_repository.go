package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fitting-console/core/session"

	"github.com/google/uuid"
)

// SessionEvent is a persisted session state transition
type SessionEvent struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id"`
	At        time.Time              `json:"at"`
	FromState *session.State         `json:"from_state,omitempty"`
	ToState   session.State          `json:"to_state"`
	Reason    string                 `json:"reason"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// EventRepository handles database operations for session events
type EventRepository struct {
	db execer
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// RecordTransition stores one session transition
func (r *EventRepository) RecordTransition(ctx context.Context, t session.Transition) error {
	query := `
		INSERT INTO session_events (id, session_id, at, from_state, to_state, reason, meta_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	metaJSON := "{}"
	if t.Meta != nil {
		metaBytes, err := json.Marshal(t.Meta)
		if err == nil {
			metaJSON = string(metaBytes)
		}
	}

	var fromState sql.NullString
	if t.From != "" {
		fromState = sql.NullString{String: t.From.String(), Valid: true}
	}

	at := t.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		uuid.New(),
		t.SessionID,
		at,
		fromState,
		t.To.String(),
		t.Reason,
		metaJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record session event: %w", err)
	}
	return nil
}

// GetSessionEvents retrieves the most recent events of a session
func (r *EventRepository) GetSessionEvents(ctx context.Context, sessionID string, limit int) ([]SessionEvent, error) {
	query := `
		SELECT id, session_id, at, from_state, to_state, reason, meta_json
		FROM session_events
		WHERE session_id = $1
		ORDER BY at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var event SessionEvent
		var fromState sql.NullString
		var toState string
		var metaJSON string

		err := rows.Scan(
			&event.ID,
			&event.SessionID,
			&event.At,
			&fromState,
			&toState,
			&event.Reason,
			&metaJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}

		if fromState.Valid {
			state := session.State(fromState.String)
			event.FromState = &state
		}
		event.ToState = session.State(toState)

		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &event.Meta)
		}

		events = append(events, event)
	}

	return events, rows.Err()
}
