// Package media wraps the external ffmpeg/ffprobe tools behind the three
// operations the compositing engine needs: probing footage duration,
// rendering a single trimmed segment with an optional burned-in overlay,
// and stream-copy concatenation of finished clips.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultProbeTimeout  = 15 * time.Second
	DefaultRenderTimeout = 45 * time.Second
	DefaultConcatTimeout = 30 * time.Second
)

// Config holds the adapter's configuration.
type Config struct {
	FFmpegPath    string // path to ffmpeg binary; empty = resolve from PATH
	FFprobePath   string // path to ffprobe binary; empty = resolve from PATH
	ProbeTimeout  time.Duration
	RenderTimeout time.Duration
	ConcatTimeout time.Duration
	Logger        *slog.Logger
}

// Adapter is the production implementation backed by ffmpeg subprocesses.
type Adapter struct {
	cfg     Config
	ffmpeg  string
	ffprobe string
}

// New creates an Adapter, resolving both binaries up front so a missing
// install fails at startup rather than mid-job.
func New(cfg Config) (*Adapter, error) {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultRenderTimeout
	}
	if cfg.ConcatTimeout <= 0 {
		cfg.ConcatTimeout = DefaultConcatTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ffmpeg, err := resolveTool(cfg.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, err
	}
	ffprobe, err := resolveTool(cfg.FFprobePath, "ffprobe")
	if err != nil {
		return nil, err
	}

	cfg.Logger.Info("media adapter initialised", "ffmpeg", ffmpeg, "ffprobe", ffprobe)
	return &Adapter{cfg: cfg, ffmpeg: ffmpeg, ffprobe: ffprobe}, nil
}

// ProbeDuration returns the footage duration in seconds.
func (a *Adapter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ProbeTimeout)
	defer cancel()

	out, err := a.run(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}

	s := strings.TrimSpace(out)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

// RenderSegment renders one scene onto a trimmed slice of source footage and
// writes the result to req.OutputPath. The scene's timing must already be
// local (start at zero); the trim window selects the source slice.
func (a *Adapter) RenderSegment(ctx context.Context, req RenderRequest) error {
	if err := req.validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.RenderTimeout)
	defer cancel()

	args := []string{
		"-y",
		"-ss", fmtSeconds(req.TrimStart),
		"-to", fmtSeconds(req.TrimEnd),
		"-i", req.SourcePath,
	}
	if req.Scene.Overlay != nil {
		args = append(args, "-vf", drawtextFilter(req.Scene.Overlay, req.ContentVars))
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		req.OutputPath,
	)

	if _, err := a.run(ctx, a.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg render segment: %w", err)
	}
	return nil
}

// Concat joins the clips listed in the concat manifest into outputPath using
// stream copy, so the join costs no re-encode and is byte-deterministic for
// identical inputs.
func (a *Adapter) Concat(ctx context.Context, manifestPath, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ConcatTimeout)
	defer cancel()

	_, err := a.run(ctx, a.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		outputPath,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// run executes one tool invocation, keeping a bounded stderr tail for
// diagnostics.
func (a *Adapter) run(ctx context.Context, bin string, args ...string) (string, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout strings.Builder
	stderr := newTailBuffer(maxStderrBytes)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	a.cfg.Logger.Debug("executing media command", "bin", bin, "args", args)

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		tail := stderr.String()
		a.cfg.Logger.Warn("media command failed",
			"bin", bin,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(tail, 512),
		)
		if ctx.Err() != nil {
			return "", fmt.Errorf("%v: %s", ctx.Err(), tail)
		}
		return "", fmt.Errorf("%w: %s", err, tail)
	}

	a.cfg.Logger.Debug("media command succeeded",
		"bin", bin, "duration_ms", elapsed.Milliseconds())
	return stdout.String(), nil
}

func resolveTool(preferred, fallback string) (string, error) {
	name := preferred
	if name == "" {
		name = fallback
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("cannot locate %s: %w", name, err)
	}
	return p, nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}
