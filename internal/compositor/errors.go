package compositor

import (
	"errors"
	"fmt"
)

// Stage failure sentinels. A job's caller always sees either a complete
// rendered video or exactly one of these identifying the stage that failed.
var (
	ErrSourceFetch   = errors.New("source fetch failed")
	ErrDurationProbe = errors.New("duration probe failed")
	ErrSceneRender   = errors.New("scene render failed")
	ErrAssembly      = errors.New("assembly failed")
)

// SceneRenderError carries the index of the scene whose render failed.
// Any single failed scene fails the whole job; partial output is never
// returned, because a silently-dropped scene would produce a shorter,
// unannounced video.
type SceneRenderError struct {
	SceneIndex int
	Err        error
}

func (e *SceneRenderError) Error() string {
	return fmt.Sprintf("scene %d render failed: %v", e.SceneIndex, e.Err)
}

func (e *SceneRenderError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSceneRender) match.
func (e *SceneRenderError) Is(target error) bool { return target == ErrSceneRender }
