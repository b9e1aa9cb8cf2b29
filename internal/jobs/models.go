// Package jobs persists render jobs and drives their background execution.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RenderJob is one queued invocation of the compositing pipeline.
type RenderJob struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	TemplateName    string    `json:"template_name,omitempty"`
	TemplateJSON    string    `json:"-"`
	SourceURL       string    `json:"source_url"`
	ContentVarsJSON string    `json:"-"`
	OutputPath      string    `json:"output_path,omitempty"`
	OutputFormat    string    `json:"output_format,omitempty"`
	OutputBytes     int64     `json:"output_bytes,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	SceneCount      int       `json:"scene_count,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewID returns a fresh job identifier.
func NewID() string {
	return uuid.NewString()
}
