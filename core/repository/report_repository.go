package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportRecord points at an exported diagnostics report
type ReportRecord struct {
	ID        string    `json:"id"`
	ModelID   string    `json:"model_id"`
	URI       string    `json:"uri"`
	R2        float64   `json:"r2"`
	Bucket    string    `json:"bucket"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportRepository handles database operations for exported reports
type ReportRepository struct {
	db execer
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CreateReport records an exported report and returns its id
func (r *ReportRepository) CreateReport(ctx context.Context, rec ReportRecord) (string, error) {
	query := `
		INSERT INTO model_reports (id, model_id, uri, r2, bucket, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.ModelID, rec.URI, rec.R2, rec.Bucket, rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to record report: %w", err)
	}
	return rec.ID, nil
}

// GetModelReports retrieves the reports of a model, newest first
func (r *ReportRepository) GetModelReports(ctx context.Context, modelID string) ([]ReportRecord, error) {
	query := `
		SELECT id, model_id, uri, r2, bucket, created_at
		FROM model_reports
		WHERE model_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []ReportRecord
	for rows.Next() {
		var rec ReportRecord
		if err := rows.Scan(&rec.ID, &rec.ModelID, &rec.URI, &rec.R2, &rec.Bucket, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rec)
	}

	return reports, rows.Err()
}
