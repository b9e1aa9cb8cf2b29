package compositor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/clipdeck/clipdeck-engine/internal/template"
	"github.com/clipdeck/clipdeck-engine/internal/timeline"
)

func mappingsFor(t *testing.T, scenes []template.Scene, duration float64) []timeline.SceneMapping {
	t.Helper()
	m, err := timeline.MapScenes(scenes, duration)
	if err != nil {
		t.Fatalf("MapScenes() error = %v", err)
	}
	return m
}

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	t.Cleanup(ws.Cleanup)
	return ws
}

func plainScenes(n int, step float64) []template.Scene {
	scenes := make([]template.Scene, n)
	for i := range scenes {
		scenes[i] = template.Scene{
			Kind:        template.KindVideoSegment,
			OutputStart: float64(i) * step,
			OutputEnd:   float64(i+1) * step,
		}
	}
	return scenes
}

func TestRenderAll_OrderPreservedUnderConcurrency(t *testing.T) {
	fm := &fakeMedia{duration: 100, renderDelay: 2 * time.Millisecond}
	r := &sceneRenderer{media: fm, workers: 4, logger: slog.Default()}
	ws := newTestWorkspace(t)

	mappings := mappingsFor(t, plainScenes(8, 1.5), 100)

	clips, err := r.renderAll(context.Background(), mappings, "/src.mp4", 100, nil, ws)
	if err != nil {
		t.Fatalf("renderAll() error = %v", err)
	}
	if len(clips) != len(mappings) {
		t.Fatalf("renderAll() returned %d clips, want %d", len(clips), len(mappings))
	}

	// Clip i must hold scene i's trim window regardless of completion order.
	for i, clip := range clips {
		data, err := os.ReadFile(clip)
		if err != nil {
			t.Fatalf("reading clip %d: %v", i, err)
		}
		want := fmt.Sprintf("clip[%g:%g]", mappings[i].VideoStart, mappings[i].VideoEnd)
		if string(data) != want {
			t.Errorf("clip %d content = %q, want %q", i, data, want)
		}
	}
}

func TestRenderAll_FailFastWithSceneIndex(t *testing.T) {
	fm := &fakeMedia{duration: 100, failTrimAt: 3} // scene at outputStart=3 fails
	r := &sceneRenderer{media: fm, workers: 2, logger: slog.Default()}
	ws := newTestWorkspace(t)

	mappings := mappingsFor(t, plainScenes(5, 1.5), 100)

	_, err := r.renderAll(context.Background(), mappings, "/src.mp4", 100, nil, ws)
	if err == nil {
		t.Fatal("renderAll() succeeded despite a failing scene")
	}
	if !errors.Is(err, ErrSceneRender) {
		t.Errorf("error = %v, want ErrSceneRender", err)
	}

	var sceneErr *SceneRenderError
	if !errors.As(err, &sceneErr) {
		t.Fatalf("error = %T, want *SceneRenderError", err)
	}
	if sceneErr.SceneIndex != 2 {
		t.Errorf("SceneIndex = %d, want 2", sceneErr.SceneIndex)
	}
}

func TestRenderAll_OutOfRangeTrimIsHardError(t *testing.T) {
	fm := &fakeMedia{duration: 10}
	r := &sceneRenderer{media: fm, workers: 2, logger: slog.Default()}
	ws := newTestWorkspace(t)

	// Scene [8, 12) maps to footage [8, 12) which overruns a 10s source.
	mappings := mappingsFor(t, []template.Scene{
		{Kind: template.KindVideoSegment, OutputStart: 8, OutputEnd: 12},
	}, 10)

	_, err := r.renderAll(context.Background(), mappings, "/src.mp4", 10, nil, ws)
	if !errors.Is(err, ErrSceneRender) {
		t.Fatalf("error = %v, want ErrSceneRender (no silent truncation)", err)
	}
	if fm.requestCount() != 0 {
		t.Errorf("render invoked %d times for an out-of-range slice, want 0", fm.requestCount())
	}
}

func TestRenderAll_SceneTimingResetToZeroOrigin(t *testing.T) {
	fm := &fakeMedia{duration: 100}
	r := &sceneRenderer{media: fm, workers: 1, logger: slog.Default()}
	ws := newTestWorkspace(t)

	overlay := &template.TextOverlay{Content: "hi", Position: template.Position{X: 0.5, Y: 0.5}}
	scenes := []template.Scene{
		{Kind: template.KindVideoSegment, OutputStart: 0, OutputEnd: 3},
		{Kind: template.KindTextOverlay, OutputStart: 3, OutputEnd: 3.5, Overlay: overlay},
	}
	mappings := mappingsFor(t, scenes, 100)

	if _, err := r.renderAll(context.Background(), mappings, "/src.mp4", 100, nil, ws); err != nil {
		t.Fatalf("renderAll() error = %v", err)
	}

	for _, req := range fm.requests {
		if req.Scene.OutputStart != 0 {
			t.Errorf("render request scene starts at %g, want 0 (per-call zero origin)", req.Scene.OutputStart)
		}
	}

	// Second request: duration 0.5, trim [3, 3.5).
	second := fm.requests[1]
	if second.Scene.OutputEnd != 0.5 {
		t.Errorf("second scene local end = %g, want 0.5", second.Scene.OutputEnd)
	}
	if second.TrimStart != 3 || second.TrimEnd != 3.5 {
		t.Errorf("second trim window = [%g, %g), want [3, 3.5)", second.TrimStart, second.TrimEnd)
	}

	// The clone handed to the renderer must not share the template's overlay.
	if second.Scene.Overlay == overlay {
		t.Error("render request shares the caller's overlay pointer")
	}
}

func TestRenderAll_ContextCancellation(t *testing.T) {
	fm := &fakeMedia{duration: 100, renderDelay: 50 * time.Millisecond}
	r := &sceneRenderer{media: fm, workers: 2, logger: slog.Default()}
	ws := newTestWorkspace(t)

	mappings := mappingsFor(t, plainScenes(6, 1), 100)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := r.renderAll(ctx, mappings, "/src.mp4", 100, nil, ws); err == nil {
		t.Error("renderAll() succeeded despite cancelled context")
	}
}
