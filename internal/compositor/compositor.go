// Package compositor implements the video timeline-compositing engine: it
// maps an abstract scene template onto a single source video, renders each
// scene through the external compositor, concatenates the results and
// guarantees temp-file cleanup on every exit path.
package compositor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipdeck/clipdeck-engine/internal/media"
	"github.com/clipdeck/clipdeck-engine/internal/template"
	"github.com/clipdeck/clipdeck-engine/internal/timeline"
)

// DefaultJobTimeout bounds one full render job wall-clock.
const DefaultJobTimeout = 60 * time.Second

// MediaService is the external compositor contract the engine consumes.
// Its internal pixel/text compositing is a trusted black box.
type MediaService interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	RenderSegment(ctx context.Context, req media.RenderRequest) error
	Concat(ctx context.Context, manifestPath, outputPath string) error
}

// FootageFetcher obtains source footage by URL.
type FootageFetcher interface {
	Download(ctx context.Context, url, destPath string) (int64, error)
}

// Options configures a Compositor.
type Options struct {
	Media        MediaService
	Footage      FootageFetcher
	WorkDir      string // base directory for per-job workspaces
	SceneWorkers int    // bounded per-scene render concurrency
	JobTimeout   time.Duration
	OutputFormat string // container format tag, e.g. "mp4"
	Logger       *slog.Logger
}

// Result is the finished render: the output bytes plus the container format
// tag. Persisting or uploading the result is the caller's responsibility.
type Result struct {
	Data       []byte
	Format     string
	Duration   float64 // total output duration in seconds
	SceneCount int
}

// Compositor coordinates one render request end to end. It is a stateless
// service handle; all per-job state lives in the job's Workspace.
type Compositor struct {
	media    MediaService
	footage  FootageFetcher
	workDir  string
	workers  int
	timeout  time.Duration
	format   string
	logger   *slog.Logger
	renderer *sceneRenderer
	joiner   *assembler
}

// New creates a Compositor from Options, applying defaults.
func New(opts Options) *Compositor {
	if opts.SceneWorkers <= 0 {
		opts.SceneWorkers = DefaultSceneWorkers
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = DefaultJobTimeout
	}
	if opts.OutputFormat == "" {
		opts.OutputFormat = "mp4"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Compositor{
		media:    opts.Media,
		footage:  opts.Footage,
		workDir:  opts.WorkDir,
		workers:  opts.SceneWorkers,
		timeout:  opts.JobTimeout,
		format:   opts.OutputFormat,
		logger:   opts.Logger,
		renderer: &sceneRenderer{media: opts.Media, workers: opts.SceneWorkers, logger: opts.Logger},
		joiner:   &assembler{media: opts.Media, logger: opts.Logger},
	}
}

// Render runs the full pipeline: download -> probe -> map -> per-scene
// render -> assemble. Every stage failure bubbles up unmodified; cleanup
// failures are strictly local and never override the job's outcome.
func (c *Compositor) Render(
	ctx context.Context,
	tpl *template.Template,
	sourceURL string,
	contentVars map[string]string,
) (*Result, error) {
	if err := tpl.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", timeline.ErrInvalidTemplate, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ws, err := NewWorkspace(c.workDir, c.logger)
	if err != nil {
		return nil, err
	}
	defer ws.Cleanup()

	start := time.Now()

	sourcePath := ws.NewPath("source", ".mp4")
	if _, err := c.footage.Download(ctx, sourceURL, sourcePath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceFetch, err)
	}

	sourceDuration, err := c.media.ProbeDuration(ctx, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDurationProbe, err)
	}

	mappings, err := timeline.MapScenes(tpl.Scenes, sourceDuration)
	if err != nil {
		return nil, err
	}

	clips, err := c.renderer.renderAll(ctx, mappings, sourcePath, sourceDuration, contentVars, ws)
	if err != nil {
		return nil, err
	}

	data, err := c.joiner.assemble(ctx, clips, ws)
	if err != nil {
		return nil, err
	}

	last := mappings[len(mappings)-1]
	result := &Result{
		Data:       data,
		Format:     c.format,
		Duration:   last.OutputEnd - mappings[0].OutputStart,
		SceneCount: len(mappings),
	}

	c.logger.Info("render job complete",
		"scenes", result.SceneCount,
		"output_bytes", len(result.Data),
		"output_duration_s", result.Duration,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// NormalizeSegments exposes segment normalization against a probed source
// file, for callers that select footage intervals ahead of a render.
func (c *Compositor) NormalizeSegments(
	ctx context.Context,
	candidates []timeline.SegmentRange,
	sourcePath string,
) ([]timeline.SegmentRange, error) {
	duration, err := c.media.ProbeDuration(ctx, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDurationProbe, err)
	}
	return timeline.NormalizeSegments(candidates, duration)
}
