package api

import (
	"time"

	"github.com/clipdeck/clipdeck-engine/internal/jobs"
	"github.com/clipdeck/clipdeck-engine/internal/template"
	"github.com/clipdeck/clipdeck-engine/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State       string               `json:"state"`
	LastError   string               `json:"last_error,omitempty"`
	JobsRunning int                  `json:"jobs_running"`
	ActiveJob   *JobResponse         `json:"active_job,omitempty"`
	Media       *MediaStatusResponse `json:"media,omitempty"`
}

type MediaStatusResponse struct {
	Ready          bool   `json:"ready"`
	FFmpegVersion  string `json:"ffmpeg_version,omitempty"`
	FFprobeVersion string `json:"ffprobe_version,omitempty"`
	LastProbeAt    string `json:"last_probe_at,omitempty"`
}

type RenderRequest struct {
	Template    template.Template `json:"template"`
	SourceURL   string            `json:"source_url"`
	ContentVars map[string]string `json:"content_vars,omitempty"`
}

type RenderResponse struct {
	JobID string `json:"job_id"`
}

type NormalizeRequest struct {
	SourceDuration float64                 `json:"source_duration"`
	Segments       []timeline.SegmentRange `json:"segments"`
}

type NormalizeResponse struct {
	Segments []timeline.SegmentRange `json:"segments"`
	Dropped  int                     `json:"dropped"`
}

type JobResponse struct {
	ID              string  `json:"id"`
	Status          string  `json:"status"`
	TemplateName    string  `json:"template_name"`
	SourceURL       string  `json:"source_url"`
	OutputFormat    string  `json:"output_format,omitempty"`
	OutputBytes     int64   `json:"output_bytes,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	SceneCount      int     `json:"scene_count,omitempty"`
	Error           string  `json:"error,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func JobToResponse(j *jobs.RenderJob) JobResponse {
	return JobResponse{
		ID:              j.ID,
		Status:          j.Status,
		TemplateName:    j.TemplateName,
		SourceURL:       j.SourceURL,
		OutputFormat:    j.OutputFormat,
		OutputBytes:     j.OutputBytes,
		DurationSeconds: j.DurationSeconds,
		SceneCount:      j.SceneCount,
		Error:           j.Error,
		CreatedAt:       j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       j.UpdatedAt.Format(time.RFC3339),
	}
}
