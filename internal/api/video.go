package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	errInvalidRange  = errors.New("invalid range format")
	errUnsatisfiable = errors.New("range not satisfiable")
)

type byteRange struct {
	start int64
	end   int64
}

func (b byteRange) length() int64 {
	return b.end - b.start + 1
}

func (b byteRange) contentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", b.start, b.end, total)
}

// parseByteRange interprets a Range header against a file of the given size.
// A nil result with nil error means no range was requested. Only the first
// range of a multi-range header is honored.
func parseByteRange(header string, size int64) (*byteRange, error) {
	if header == "" {
		return nil, nil
	}

	if !strings.HasPrefix(header, "bytes=") {
		return nil, errInvalidRange
	}

	spec := strings.TrimPrefix(header, "bytes=")
	if idx := strings.Index(spec, ","); idx != -1 {
		spec = strings.TrimSpace(spec[:idx])
	}

	parts := strings.Split(spec, "-")
	if len(parts) != 2 {
		return nil, errInvalidRange
	}

	var start, end int64
	var err error

	if parts[0] == "" {
		suffixLen, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || suffixLen <= 0 {
			return nil, errInvalidRange
		}
		start = size - suffixLen
		if start < 0 {
			start = 0
		}
		end = size - 1
	} else {
		start, err = strconv.ParseInt(parts[0], 10, 64)
		if err != nil || start < 0 {
			return nil, errInvalidRange
		}

		if parts[1] == "" {
			end = size - 1
		} else {
			end, err = strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return nil, errInvalidRange
			}
		}
	}

	if start > end || start >= size {
		return nil, errUnsatisfiable
	}

	if end >= size {
		end = size - 1
	}

	return &byteRange{start: start, end: end}, nil
}

// serveVideo streams a rendered output file, honoring byte-range requests so
// the dashboard's player can seek.
func serveVideo(w http.ResponseWriter, r *http.Request, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			WriteError(w, http.StatusNotFound, "output file missing", "NOT_FOUND")
			return nil
		}
		return fmt.Errorf("open output: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	rng, err := parseByteRange(r.Header.Get("Range"), size)

	if errors.Is(err, errUnsatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}
	// A malformed Range header degrades to a full response.
	if err != nil && !errors.Is(err, errInvalidRange) {
		return err
	}

	if rng == nil || errors.Is(err, errInvalidRange) {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", strconv.FormatInt(rng.length(), 10))
	w.Header().Set("Content-Range", rng.contentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(rng.start, io.SeekStart); err != nil {
		return fmt.Errorf("seek output: %w", err)
	}

	io.CopyN(w, file, rng.length())
	return nil
}
