package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/clipdeck/clipdeck-engine/internal/compositor"
	"github.com/clipdeck/clipdeck-engine/internal/template"
)

// Renderer runs one compositing pipeline invocation.
type Renderer interface {
	Render(ctx context.Context, tpl *template.Template, sourceURL string, contentVars map[string]string) (*compositor.Result, error)
}

// Service validates and enqueues render jobs, and executes them against the
// compositing engine. Completed outputs are written under outputDir; the
// engine itself never persists results.
type Service struct {
	repo      Repository
	renderer  Renderer
	outputDir string
	logger    *slog.Logger
}

func NewService(repo Repository, renderer Renderer, outputDir string, logger *slog.Logger) *Service {
	return &Service{repo: repo, renderer: renderer, outputDir: outputDir, logger: logger}
}

// Submit validates the request and stores a pending job. Template problems
// are rejected here, synchronously; they are never worth a queue slot.
func (s *Service) Submit(ctx context.Context, tpl *template.Template, sourceURL string, contentVars map[string]string) (*RenderJob, error) {
	if err := tpl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	if sourceURL == "" {
		return nil, fmt.Errorf("source_url is required")
	}

	tplJSON, err := json.Marshal(tpl)
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	varsJSON, err := json.Marshal(contentVars)
	if err != nil {
		return nil, fmt.Errorf("marshal content variables: %w", err)
	}

	now := time.Now()
	job := &RenderJob{
		ID:              NewID(),
		Status:          StatusPending,
		TemplateName:    tpl.Name,
		TemplateJSON:    string(tplJSON),
		SourceURL:       sourceURL,
		ContentVarsJSON: string(varsJSON),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("render job submitted", "job_id", job.ID, "scenes", len(tpl.Scenes))
	return job, nil
}

// Execute runs one pending job to completion and records the outcome.
func (s *Service) Execute(ctx context.Context, job *RenderJob) error {
	if err := s.repo.UpdateJobStatus(ctx, job.ID, StatusRunning, ""); err != nil {
		return err
	}

	var tpl template.Template
	if err := json.Unmarshal([]byte(job.TemplateJSON), &tpl); err != nil {
		return s.fail(ctx, job.ID, fmt.Errorf("unmarshal template: %w", err))
	}
	var vars map[string]string
	if job.ContentVarsJSON != "" {
		if err := json.Unmarshal([]byte(job.ContentVarsJSON), &vars); err != nil {
			return s.fail(ctx, job.ID, fmt.Errorf("unmarshal content variables: %w", err))
		}
	}

	res, err := s.renderer.Render(ctx, &tpl, job.SourceURL, vars)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	outputPath, err := s.writeOutput(job, res)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	result := JobResult{
		OutputPath:      outputPath,
		OutputFormat:    res.Format,
		OutputBytes:     int64(len(res.Data)),
		DurationSeconds: res.Duration,
		SceneCount:      res.SceneCount,
	}
	if err := s.repo.UpdateJobResult(ctx, job.ID, result); err != nil {
		return err
	}

	s.logger.Info("render job completed",
		"job_id", job.ID,
		"output", outputPath,
		"bytes", result.OutputBytes,
	)
	return nil
}

func (s *Service) fail(ctx context.Context, jobID string, cause error) error {
	s.logger.Error("render job failed", "job_id", jobID, "error", cause)
	if err := s.repo.UpdateJobStatus(ctx, jobID, StatusFailed, cause.Error()); err != nil {
		return err
	}
	return cause
}

func (s *Service) writeOutput(job *RenderJob, res *compositor.Result) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	base := SanitizeName(job.TemplateName, 64)
	if base == "" {
		base = "render"
	}
	name := fmt.Sprintf("%s-%s.%s", base, job.ID[:8], res.Format)
	path := filepath.Join(s.outputDir, name)

	if err := os.WriteFile(path, res.Data, 0644); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	return path, nil
}
