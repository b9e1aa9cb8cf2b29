package jobs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/clipdeck/clipdeck-engine/internal/compositor"
	"github.com/clipdeck/clipdeck-engine/internal/template"
)

type memoryRepo struct {
	jobs   map[string]*RenderJob
	config map[string]string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{jobs: map[string]*RenderJob{}, config: map[string]string{}}
}

func (m *memoryRepo) CreateJob(ctx context.Context, j *RenderJob) error {
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *memoryRepo) GetJob(ctx context.Context, id string) (*RenderJob, error) {
	return m.jobs[id], nil
}

func (m *memoryRepo) ListJobs(ctx context.Context, limit int) ([]*RenderJob, error) {
	var out []*RenderJob
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (m *memoryRepo) ListPendingJobs(ctx context.Context) ([]*RenderJob, error) {
	var out []*RenderJob
	for _, j := range m.jobs {
		if j.Status == StatusPending {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	j := m.jobs[id]
	j.Status = status
	j.Error = errorMsg
	j.UpdatedAt = time.Now()
	return nil
}

func (m *memoryRepo) UpdateJobResult(ctx context.Context, id string, res JobResult) error {
	j := m.jobs[id]
	j.Status = StatusCompleted
	j.Error = ""
	j.OutputPath = res.OutputPath
	j.OutputFormat = res.OutputFormat
	j.OutputBytes = res.OutputBytes
	j.DurationSeconds = res.DurationSeconds
	j.SceneCount = res.SceneCount
	return nil
}

func (m *memoryRepo) GetConfig(ctx context.Context, key string) (string, error) {
	return m.config[key], nil
}

func (m *memoryRepo) SetConfig(ctx context.Context, key, value string) error {
	m.config[key] = value
	return nil
}

type fakeRenderer struct {
	result *compositor.Result
	err    error
	calls  int
}

func (f *fakeRenderer) Render(ctx context.Context, tpl *template.Template, sourceURL string, vars map[string]string) (*compositor.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func validTemplate() *template.Template {
	return &template.Template{
		Name: "My Teaser: Day 1!",
		Scenes: []template.Scene{
			{Kind: template.KindVideoSegment, OutputStart: 0, OutputEnd: 3},
		},
	}
}

func TestService_SubmitRejectsInvalidTemplate(t *testing.T) {
	svc := NewService(newMemoryRepo(), &fakeRenderer{}, t.TempDir(), slog.Default())

	_, err := svc.Submit(context.Background(), &template.Template{}, "http://cdn/v.mp4", nil)
	if !errors.Is(err, template.ErrNoScenes) {
		t.Errorf("Submit(empty template) error = %v, want ErrNoScenes", err)
	}

	_, err = svc.Submit(context.Background(), validTemplate(), "", nil)
	if err == nil {
		t.Error("Submit() accepted an empty source URL")
	}
}

func TestService_SubmitStoresPendingJob(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeRenderer{}, t.TempDir(), slog.Default())

	job, err := svc.Submit(context.Background(), validTemplate(), "http://cdn/v.mp4", map[string]string{"n": "1"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	stored := repo.jobs[job.ID]
	if stored == nil || stored.Status != StatusPending {
		t.Fatalf("stored job = %+v, want pending", stored)
	}
	if !strings.Contains(stored.TemplateJSON, `"scenes"`) {
		t.Errorf("template JSON not persisted: %q", stored.TemplateJSON)
	}
}

func TestService_ExecuteSuccess(t *testing.T) {
	repo := newMemoryRepo()
	outDir := t.TempDir()
	renderer := &fakeRenderer{result: &compositor.Result{
		Data:       []byte("final video"),
		Format:     "mp4",
		Duration:   3,
		SceneCount: 1,
	}}
	svc := NewService(repo, renderer, outDir, slog.Default())

	job, err := svc.Submit(context.Background(), validTemplate(), "http://cdn/v.mp4", nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := svc.Execute(context.Background(), repo.jobs[job.ID]); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	stored := repo.jobs[job.ID]
	if stored.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", stored.Status)
	}
	if stored.OutputBytes != int64(len("final video")) || stored.SceneCount != 1 {
		t.Errorf("result fields = %+v", stored)
	}

	data, err := os.ReadFile(stored.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "final video" {
		t.Errorf("output bytes = %q", data)
	}
	// Template name sanitized into the filename.
	if strings.ContainsAny(stored.OutputPath, ":!") {
		t.Errorf("output path carries unsafe characters: %s", stored.OutputPath)
	}
}

func TestService_ExecuteFailureRecordsError(t *testing.T) {
	repo := newMemoryRepo()
	renderer := &fakeRenderer{err: errors.New("scene 1 render failed: encoder crashed")}
	svc := NewService(repo, renderer, t.TempDir(), slog.Default())

	job, _ := svc.Submit(context.Background(), validTemplate(), "http://cdn/v.mp4", nil)

	if err := svc.Execute(context.Background(), repo.jobs[job.ID]); err == nil {
		t.Fatal("Execute() swallowed the render failure")
	}

	stored := repo.jobs[job.ID]
	if stored.Status != StatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	if !strings.Contains(stored.Error, "encoder crashed") {
		t.Errorf("stored error = %q, want the underlying message", stored.Error)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"My Teaser: Day 1!", 64, "My Teaser_ Day 1_"},
		{"plain-name_ok.v2", 64, "plain-name_ok.v2"},
		{"trim me", 4, "trim"},
		{"", 64, ""},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
