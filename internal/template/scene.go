// Package template defines the timed scene model a render request is built
// from. A template is an ordered list of scenes; each scene occupies a window
// on the output timeline and may carry a text overlay that gets burned into
// the footage.
package template

import (
	"errors"
	"fmt"
)

// SceneKind is a closed set of scene variants. Malformed kind/field
// combinations are rejected by Validate, not at render time.
type SceneKind string

const (
	// KindVideoSegment is a plain slice of source footage.
	KindVideoSegment SceneKind = "video_segment"
	// KindTextOverlay is a slice of source footage with text burned on top.
	KindTextOverlay SceneKind = "text_overlay"
)

var (
	ErrNoScenes     = errors.New("template must declare at least one scene")
	ErrUnknownKind  = errors.New("unknown scene kind")
	ErrBadWindow    = errors.New("scene output window is invalid")
	ErrMissingText  = errors.New("text_overlay scene requires overlay content")
	ErrStrayOverlay = errors.New("video_segment scene must not carry an overlay")
)

// Position is a normalized overlay anchor: 0,0 is the top-left corner of the
// frame, 1,1 the bottom-right.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style describes how overlay text is drawn.
type Style struct {
	FontSize    int     `json:"font_size"`
	FontWeight  string  `json:"font_weight,omitempty"`
	Color       string  `json:"color,omitempty"`
	StrokeColor string  `json:"stroke_color,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Background  string  `json:"background,omitempty"`
}

// TextOverlay is owned exclusively by one scene. Content may contain
// {{variable}} placeholders resolved against the request's content variables.
type TextOverlay struct {
	Content  string   `json:"content"`
	Position Position `json:"position"`
	Style    Style    `json:"style"`
}

// Clone returns an independent copy. Position and Style are value fields, so
// copying the struct is a deep copy.
func (o *TextOverlay) Clone() *TextOverlay {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

// Scene is one entry in a template's ordered scene list. OutputStart and
// OutputEnd position the scene on the final output timeline, in seconds.
// SourceStart/SourceEnd optionally override where in the source footage the
// scene samples from; when absent the mapper derives them.
type Scene struct {
	Kind        SceneKind    `json:"kind"`
	OutputStart float64      `json:"output_start"`
	OutputEnd   float64      `json:"output_end"`
	Overlay     *TextOverlay `json:"overlay,omitempty"`
	SourceStart *float64     `json:"source_start,omitempty"`
	SourceEnd   *float64     `json:"source_end,omitempty"`
}

// Duration returns the scene's length on the output timeline.
func (s Scene) Duration() float64 {
	return s.OutputEnd - s.OutputStart
}

// Clone returns a copy whose overlay is independently owned. Later edits to
// one clone's overlay never leak into a sibling already queued for rendering.
func (s Scene) Clone() Scene {
	c := s
	c.Overlay = s.Overlay.Clone()
	if s.SourceStart != nil {
		v := *s.SourceStart
		c.SourceStart = &v
	}
	if s.SourceEnd != nil {
		v := *s.SourceEnd
		c.SourceEnd = &v
	}
	return c
}

// Validate checks the scene's invariants.
func (s Scene) Validate() error {
	switch s.Kind {
	case KindVideoSegment:
		if s.Overlay != nil {
			return ErrStrayOverlay
		}
	case KindTextOverlay:
		if s.Overlay == nil || s.Overlay.Content == "" {
			return ErrMissingText
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}

	if s.OutputStart < 0 || s.OutputEnd <= s.OutputStart {
		return fmt.Errorf("%w: [%g, %g)", ErrBadWindow, s.OutputStart, s.OutputEnd)
	}
	return nil
}

// Template is an ordered collection of scenes plus an overall target duration.
type Template struct {
	Name           string  `json:"name,omitempty"`
	TargetDuration float64 `json:"target_duration,omitempty"`
	Scenes         []Scene `json:"scenes"`
}

// Validate checks the template and every scene in it.
func (t *Template) Validate() error {
	if len(t.Scenes) == 0 {
		return ErrNoScenes
	}
	for i, sc := range t.Scenes {
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("scene %d: %w", i, err)
		}
	}
	return nil
}
