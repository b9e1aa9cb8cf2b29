package compositor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/clipdeck/clipdeck-engine/internal/media"
)

// fakeMedia is an in-memory MediaService. Rendered "clips" are small text
// files describing the request, and Concat joins their bytes in manifest
// order, so ordering and fast-path properties can be asserted on content.
type fakeMedia struct {
	mu          sync.Mutex
	duration    float64
	probeErr    error
	renderErr   error
	failTrimAt  float64 // render fails when TrimStart matches
	renderDelay time.Duration
	concatErr   error

	requests    []media.RenderRequest
	concatCalls int
}

func (f *fakeMedia) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return f.duration, nil
}

func (f *fakeMedia) RenderSegment(ctx context.Context, req media.RenderRequest) error {
	if f.renderDelay > 0 {
		select {
		case <-time.After(f.renderDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.renderErr != nil {
		return f.renderErr
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.failTrimAt != 0 && req.TrimStart == f.failTrimAt {
		return fmt.Errorf("synthetic render failure at trim %g", req.TrimStart)
	}

	content := fmt.Sprintf("clip[%g:%g]", req.TrimStart, req.TrimEnd)
	return os.WriteFile(req.OutputPath, []byte(content), 0644)
}

func (f *fakeMedia) Concat(ctx context.Context, manifestPath, outputPath string) error {
	f.mu.Lock()
	f.concatCalls++
	f.mu.Unlock()

	if f.concatErr != nil {
		return f.concatErr
	}

	manifest, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}

	var joined []byte
	for _, line := range strings.Split(strings.TrimSpace(string(manifest)), "\n") {
		path := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
		path = strings.ReplaceAll(path, `'\''`, "'")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		joined = append(joined, data...)
	}
	return os.WriteFile(outputPath, joined, 0644)
}

func (f *fakeMedia) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// fakeFetcher writes fixed bytes to the destination, or fails.
type fakeFetcher struct {
	payload []byte
	err     error
	calls   int
}

func (f *fakeFetcher) Download(ctx context.Context, url, destPath string) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if err := os.WriteFile(destPath, f.payload, 0644); err != nil {
		return 0, err
	}
	return int64(len(f.payload)), nil
}
