package compositor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Workspace is the resource-tracking arena for one render job. Every temp
// path the pipeline creates is registered the moment it exists, so a
// mid-pipeline failure still cleans up everything created so far. Teardown
// runs exactly once and is best-effort: an unlinkable file never masks the
// job's real outcome or blocks cleanup of the remaining files.
type Workspace struct {
	root   string
	logger *slog.Logger

	mu      sync.Mutex
	tracked []string
	cleaned bool
}

// NewWorkspace creates a process-unique working directory under baseDir.
// The directory is exclusive to one job.
func NewWorkspace(baseDir string, logger *slog.Logger) (*Workspace, error) {
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
	}
	root, err := os.MkdirTemp(baseDir, "renderjob-")
	if err != nil {
		return nil, fmt.Errorf("create job workspace: %w", err)
	}
	return &Workspace{root: root, logger: logger}, nil
}

// Root returns the job's working directory.
func (w *Workspace) Root() string { return w.root }

// NewPath reserves a unique tracked path inside the workspace. The file is
// tracked before it exists so creation failures still get cleaned up.
func (w *Workspace) NewPath(prefix, ext string) string {
	name := fmt.Sprintf("%s-%s%s", prefix, uuid.NewString()[:8], ext)
	return w.Track(filepath.Join(w.root, name))
}

// Track registers a path for teardown and returns it unchanged.
func (w *Workspace) Track(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked = append(w.tracked, path)
	return path
}

// TrackedCount reports how many paths are registered for teardown.
func (w *Workspace) TrackedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tracked)
}

// Cleanup deletes every tracked path and then the working directory itself.
// Each deletion failure is logged and swallowed. Safe to call more than
// once; only the first call does anything.
func (w *Workspace) Cleanup() {
	w.mu.Lock()
	if w.cleaned {
		w.mu.Unlock()
		return
	}
	w.cleaned = true
	tracked := w.tracked
	w.mu.Unlock()

	for _, p := range tracked {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if w.logger != nil {
				w.logger.Warn("failed to remove temp file", "path", p, "error", err)
			}
		}
	}
	if err := os.RemoveAll(w.root); err != nil {
		if w.logger != nil {
			w.logger.Warn("failed to remove job workspace", "path", w.root, "error", err)
		}
	}
}
