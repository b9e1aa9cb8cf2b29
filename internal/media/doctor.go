package media

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const defaultDoctorTTL = 5 * time.Minute

// Prober reports the availability of the external media tooling.
type Prober interface {
	Probe(ctx context.Context) (*Capabilities, error)
}

// Probe checks that ffmpeg and ffprobe respond and records their versions.
func (a *Adapter) Probe(ctx context.Context) (*Capabilities, error) {
	caps := &Capabilities{
		FFmpeg:   a.probeTool(ctx, a.ffmpeg),
		FFprobe:  a.probeTool(ctx, a.ffprobe),
		ProbedAt: time.Now(),
	}

	a.cfg.Logger.Info("media doctor probe complete",
		"ffmpeg", caps.FFmpeg.Available,
		"ffprobe", caps.FFprobe.Available,
		"ffmpeg_version", caps.FFmpeg.Version,
	)
	return caps, nil
}

func (a *Adapter) probeTool(ctx context.Context, bin string) ToolInfo {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ProbeTimeout)
	defer cancel()

	out, err := a.run(ctx, bin, "-version")
	if err != nil {
		return ToolInfo{Available: false, Path: bin, Error: err.Error()}
	}
	return ToolInfo{Available: true, Path: bin, Version: parseToolVersion(out)}
}

// parseToolVersion extracts the version token from the first line of
// `ffmpeg -version` output ("ffmpeg version 6.1.1 Copyright ...").
func parseToolVersion(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return strings.TrimSpace(line)
}

// CachedDoctor wraps a Prober to cache probe results with a TTL, so status
// requests do not spawn a subprocess each time.
type CachedDoctor struct {
	prober Prober
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

// NewCachedDoctor creates a caching wrapper around tool probes.
func NewCachedDoctor(prober Prober, logger *slog.Logger) *CachedDoctor {
	return &CachedDoctor{
		prober: prober,
		ttl:    defaultDoctorTTL,
		logger: logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

// Refresh forces a new probe regardless of cache freshness.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.prober.Probe(ctx)
	if err != nil {
		d.logger.Warn("doctor probe failed", "error", err)
		// Return stale cache if available
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return nil, err
	}

	d.cached = caps
	return caps, nil
}

// Invalidate clears the cached capabilities.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
