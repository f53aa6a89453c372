package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/linguista/internal/core/domain"
)

const schemaLockID int64 = 2026101701

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS analysis_jobs (
	id TEXT PRIMARY KEY,
	task TEXT NOT NULL,
	request JSONB NOT NULL,
	status TEXT NOT NULL,
	output JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_jobs_status ON analysis_jobs(status);
CREATE INDEX IF NOT EXISTS idx_analysis_jobs_created_at ON analysis_jobs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	requestJSON, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO analysis_jobs (id, task, request, status, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, job.ID, string(job.Request.Task), requestJSON, string(job.Status), job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, request, status, output, error_message, created_at, updated_at
FROM analysis_jobs
WHERE id = $1
`, id)

	var job domain.Job
	var requestRaw, outputRaw []byte
	var status string

	err := row.Scan(&job.ID, &requestRaw, &status, &outputRaw, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get job", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if err := json.Unmarshal(requestRaw, &job.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if len(outputRaw) > 0 {
		var output domain.JobOutput
		if err := json.Unmarshal(outputRaw, &output); err != nil {
			return nil, fmt.Errorf("unmarshal output: %w", err)
		}
		job.Output = &output
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	return r.updateStatus(ctx, id, domain.JobRunning, nil, "")
}

func (r *JobRepository) Complete(ctx context.Context, id string, output domain.JobOutput) error {
	outputJSON, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	return r.updateStatus(ctx, id, domain.JobDone, outputJSON, "")
}

func (r *JobRepository) Fail(ctx context.Context, id string, errMessage string) error {
	return r.updateStatus(ctx, id, domain.JobFailed, nil, errMessage)
}

func (r *JobRepository) updateStatus(ctx context.Context, id string, status domain.JobStatus, output []byte, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE analysis_jobs
SET status = $2, output = $3, error_message = $4, updated_at = $5
WHERE id = $1
`, id, string(status), output, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job status rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrNotFound, "update job status", fmt.Errorf("id=%s", id))
	}
	return nil
}
