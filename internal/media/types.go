package media

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/clipdeck/clipdeck-engine/internal/template"
)

const maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics

var (
	ErrNoSource = errors.New("render request requires a source path")
	ErrNoOutput = errors.New("render request requires an output path")
	ErrBadTrim  = errors.New("trim window is invalid")
)

// RenderRequest describes one single-segment render call. The scene's
// OutputStart/OutputEnd are relative to the clip being produced (a per-call
// zero origin), while TrimStart/TrimEnd select the slice of source footage.
type RenderRequest struct {
	Scene       template.Scene
	SourcePath  string
	TrimStart   float64
	TrimEnd     float64
	ContentVars map[string]string
	OutputPath  string
}

func (r RenderRequest) validate() error {
	if r.SourcePath == "" {
		return ErrNoSource
	}
	if r.OutputPath == "" {
		return ErrNoOutput
	}
	if r.TrimStart < 0 || r.TrimEnd <= r.TrimStart {
		return fmt.Errorf("%w: [%g, %g)", ErrBadTrim, r.TrimStart, r.TrimEnd)
	}
	return nil
}

// ToolInfo reports the availability of one external binary.
type ToolInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Capabilities represents what the installed media tooling can do, as
// reported by a doctor probe.
type Capabilities struct {
	FFmpeg   ToolInfo  `json:"ffmpeg"`
	FFprobe  ToolInfo  `json:"ffprobe"`
	ProbedAt time.Time `json:"-"`
}

// Ready reports whether the engine can render at all.
func (c Capabilities) Ready() bool {
	return c.FFmpeg.Available && c.FFprobe.Available
}

// tailBuffer is an io.Writer that keeps only the last `limit` bytes.
type tailBuffer struct {
	buf   bytes.Buffer
	limit int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if t.buf.Len() > t.limit {
		// Keep only the tail
		b := t.buf.Bytes()
		tail := make([]byte, t.limit)
		copy(tail, b[len(b)-t.limit:])
		t.buf.Reset()
		t.buf.Write(tail)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
