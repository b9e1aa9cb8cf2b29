package timeline

import (
	"errors"
	"fmt"

	"github.com/clipdeck/clipdeck-engine/internal/template"
)

var (
	// ErrInvalidTemplate means the scene list cannot be mapped at all.
	ErrInvalidTemplate = errors.New("invalid template")
	// ErrBadSourceDuration means the probed footage duration is unusable.
	ErrBadSourceDuration = errors.New("source duration must be positive")
)

// SceneMapping pairs one scene with the slice of source footage it samples.
// The slice duration always equals the scene's output duration: scenes
// sample source time 1:1, they never stretch or compress it.
type SceneMapping struct {
	Scene       template.Scene `json:"scene"`
	OutputStart float64        `json:"output_start"`
	OutputEnd   float64        `json:"output_end"`
	VideoStart  float64        `json:"video_start"`
	VideoEnd    float64        `json:"video_end"`
}

// MapScenes computes, for each scene in order, the source-footage slice to
// sample from. The default policy is direct passthrough: a scene samples the
// footage at the same offset as its position on the output timeline, so
// overlay timing lines up with footage timing 1:1. Scenes may override the
// slice explicitly via SourceStart/SourceEnd.
//
// MapScenes does not clamp against sourceDuration. An out-of-range slice is
// reported as a per-scene render failure downstream rather than silently
// truncated, because truncation would desynchronize burned-in overlay timing
// from the visible footage.
func MapScenes(scenes []template.Scene, sourceDuration float64) ([]SceneMapping, error) {
	if len(scenes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTemplate, template.ErrNoScenes)
	}
	if sourceDuration <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrBadSourceDuration, sourceDuration)
	}

	mappings := make([]SceneMapping, len(scenes))
	for i, sc := range scenes {
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("%w: scene %d: %s", ErrInvalidTemplate, i, err)
		}

		videoStart := sc.OutputStart
		if sc.SourceStart != nil {
			videoStart = *sc.SourceStart
		}
		videoEnd := videoStart + sc.Duration()
		if sc.SourceEnd != nil {
			videoEnd = *sc.SourceEnd
		}

		mappings[i] = SceneMapping{
			Scene:       sc.Clone(),
			OutputStart: sc.OutputStart,
			OutputEnd:   sc.OutputEnd,
			VideoStart:  videoStart,
			VideoEnd:    videoEnd,
		}
	}
	return mappings, nil
}
