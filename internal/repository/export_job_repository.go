package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rosterhub/internal/models"
)

const exportJobColumns = `id, requested_by, category, office, search, format, status, file_path, download_url, expires_at, error, created_at, updated_at`

// ExportJobRepository tracks asynchronous export requests.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository creates a new instance of ExportJobRepository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a pending export job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.ExportStatusPending
	}

	const query = `INSERT INTO export_jobs (id, requested_by, category, office, search, format, status, created_at, updated_at)
		VALUES (:id, :requested_by, :category, :office, :search, :format, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID returns an export job by identifier.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM export_jobs WHERE id = $1 LIMIT 1`, exportJobColumns)
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find export job: %w", err)
	}
	return &job, nil
}

// MarkRunning transitions a job to running.
func (r *ExportJobRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE export_jobs SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusRunning, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job running: %w", err)
	}
	return nil
}

// MarkCompleted stores the rendered file location and signed URL.
func (r *ExportJobRepository) MarkCompleted(ctx context.Context, id, filePath, downloadURL string, expiresAt time.Time) error {
	const query = `UPDATE export_jobs SET status = $2, file_path = $3, download_url = $4, expires_at = $5, error = NULL, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusCompleted, filePath, downloadURL, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE export_jobs SET status = $2, error = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusFailed, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job failed: %w", err)
	}
	return nil
}
