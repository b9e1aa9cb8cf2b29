package jobs

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateJob(ctx context.Context, job *RenderJob) error
	GetJob(ctx context.Context, id string) (*RenderJob, error)
	ListJobs(ctx context.Context, limit int) ([]*RenderJob, error)
	ListPendingJobs(ctx context.Context) ([]*RenderJob, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobResult(ctx context.Context, id string, res JobResult) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// JobResult captures the output of a completed render.
type JobResult struct {
	OutputPath      string
	OutputFormat    string
	OutputBytes     int64
	DurationSeconds float64
	SceneCount      int
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const jobColumns = `id, status, template_name, template_json, source_url, content_vars_json,
	output_path, output_format, output_bytes, duration_seconds, scene_count, error,
	created_at, updated_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *RenderJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO render_jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		j.ID, j.Status, j.TemplateName, j.TemplateJSON, j.SourceURL, j.ContentVarsJSON,
		j.OutputPath, j.OutputFormat, j.OutputBytes, j.DurationSeconds, j.SceneCount, j.Error,
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*RenderJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM render_jobs WHERE id = ?
	`, id)
	return scanJob(row)
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*RenderJob, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM render_jobs
		ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*RenderJob, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM render_jobs
		WHERE status = ? ORDER BY created_at ASC
	`, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE render_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, errorMsg, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) UpdateJobResult(ctx context.Context, id string, res JobResult) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE render_jobs
		SET status = ?, output_path = ?, output_format = ?, output_bytes = ?,
		    duration_seconds = ?, scene_count = ?, error = '', updated_at = ?
		WHERE id = ?
	`, StatusCompleted, res.OutputPath, res.OutputFormat, res.OutputBytes,
		res.DurationSeconds, res.SceneCount, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*RenderJob, error) {
	var j RenderJob
	var createdAt, updatedAt string

	err := row.Scan(
		&j.ID, &j.Status, &j.TemplateName, &j.TemplateJSON, &j.SourceURL, &j.ContentVarsJSON,
		&j.OutputPath, &j.OutputFormat, &j.OutputBytes, &j.DurationSeconds, &j.SceneCount, &j.Error,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func scanJobs(rows *sql.Rows) ([]*RenderJob, error) {
	var out []*RenderJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
