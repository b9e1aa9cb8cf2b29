package compositor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/clipdeck/clipdeck-engine/internal/media"
	"github.com/clipdeck/clipdeck-engine/internal/timeline"
)

// trimEpsilon absorbs float noise from ffprobe's reported duration when
// checking whether a slice runs past the end of the footage.
const trimEpsilon = 1e-3

// DefaultSceneWorkers bounds concurrent per-scene render calls. External
// renders are I/O- and CPU-heavy; a small pool avoids resource exhaustion.
const DefaultSceneWorkers = 3

// sceneRenderer fans mapped scenes out over a bounded worker pool and
// collects the intermediate clip paths in original scene order.
type sceneRenderer struct {
	media   MediaService
	workers int
	logger  *slog.Logger
}

// renderAll renders every mapping to its own clip file inside ws. Results
// are written into index-keyed slots so completion order never reorders the
// clips. The first failure cancels the remaining work and fails the job.
func (r *sceneRenderer) renderAll(
	ctx context.Context,
	mappings []timeline.SceneMapping,
	sourcePath string,
	sourceDuration float64,
	contentVars map[string]string,
	ws *Workspace,
) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := r.workers
	if workers <= 0 {
		workers = DefaultSceneWorkers
	}

	clips := make([]string, len(mappings))
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for i, m := range mappings {
		wg.Add(1)
		go func(i int, m timeline.SceneMapping) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			if ctx.Err() != nil {
				return
			}

			clip, err := r.renderOne(ctx, i, m, sourcePath, sourceDuration, contentVars, ws)
			if err != nil {
				fail(&SceneRenderError{SceneIndex: i, Err: err})
				return
			}
			clips[i] = clip
		}(i, m)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return clips, nil
}

func (r *sceneRenderer) renderOne(
	ctx context.Context,
	index int,
	m timeline.SceneMapping,
	sourcePath string,
	sourceDuration float64,
	contentVars map[string]string,
	ws *Workspace,
) (string, error) {
	// Out-of-range slices are a hard error, not a silent truncation:
	// truncating would desynchronize burned-in overlay timing from the
	// visible footage.
	if m.VideoStart < 0 || m.VideoEnd <= m.VideoStart {
		return "", fmt.Errorf("trim window [%g, %g) is invalid", m.VideoStart, m.VideoEnd)
	}
	if m.VideoEnd > sourceDuration+trimEpsilon {
		return "", fmt.Errorf("trim window [%g, %g) runs past source footage of %gs",
			m.VideoStart, m.VideoEnd, sourceDuration)
	}

	// The external render composites against a per-call zero origin, so the
	// clone's timing is reset to the scene's own duration.
	scene := m.Scene.Clone()
	scene.OutputStart = 0
	scene.OutputEnd = m.OutputEnd - m.OutputStart

	outPath := ws.NewPath(fmt.Sprintf("scene-%03d", index), ".mp4")

	r.logger.Debug("rendering scene",
		"scene", index,
		"trim_start", m.VideoStart,
		"trim_end", m.VideoEnd,
	)

	err := r.media.RenderSegment(ctx, media.RenderRequest{
		Scene:       scene,
		SourcePath:  sourcePath,
		TrimStart:   m.VideoStart,
		TrimEnd:     m.VideoEnd,
		ContentVars: contentVars,
		OutputPath:  outPath,
	})
	if err != nil {
		return "", err
	}
	return outPath, nil
}
