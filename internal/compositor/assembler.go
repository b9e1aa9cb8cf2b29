package compositor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// assembler joins ordered intermediate clips into the final output.
type assembler struct {
	media  MediaService
	logger *slog.Logger
}

// assemble returns the final video bytes. A single clip is returned as-is
// with no re-encode; multiple clips are joined via a concat manifest with
// stream-copy semantics, so cost stays proportional to segment count rather
// than total duration.
func (a *assembler) assemble(ctx context.Context, clipPaths []string, ws *Workspace) ([]byte, error) {
	switch len(clipPaths) {
	case 0:
		return nil, fmt.Errorf("%w: no clips to assemble", ErrAssembly)
	case 1:
		data, err := os.ReadFile(clipPaths[0])
		if err != nil {
			return nil, fmt.Errorf("%w: read clip: %w", ErrAssembly, err)
		}
		return data, nil
	}

	manifestPath := ws.NewPath("concat", ".txt")
	if err := os.WriteFile(manifestPath, []byte(buildConcatManifest(clipPaths)), 0644); err != nil {
		return nil, fmt.Errorf("%w: write manifest: %w", ErrAssembly, err)
	}

	outPath := ws.NewPath("joined", ".mp4")
	if err := a.media.Concat(ctx, manifestPath, outPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssembly, err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read joined output: %w", ErrAssembly, err)
	}

	a.logger.Debug("clips assembled", "clips", len(clipPaths), "bytes", len(data))
	return data, nil
}

// buildConcatManifest lists each clip for the concat demuxer. Paths go
// inside single quotes; an embedded quote is closed, escaped and reopened
// so the tool parses the path as one literal token.
func buildConcatManifest(clipPaths []string) string {
	var b strings.Builder
	for _, p := range clipPaths {
		b.WriteString("file '")
		b.WriteString(escapeConcatPath(p))
		b.WriteString("'\n")
	}
	return b.String()
}

func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}
