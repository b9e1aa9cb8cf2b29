package template

import (
	"errors"
	"testing"
)

func overlay(content string) *TextOverlay {
	return &TextOverlay{
		Content:  content,
		Position: Position{X: 0.5, Y: 0.8},
		Style:    Style{FontSize: 42, Color: "#ffffff"},
	}
}

func TestScene_Validate(t *testing.T) {
	tests := []struct {
		name    string
		scene   Scene
		wantErr error
	}{
		{"plain segment", Scene{Kind: KindVideoSegment, OutputStart: 0, OutputEnd: 3}, nil},
		{"overlay segment", Scene{Kind: KindTextOverlay, OutputStart: 1, OutputEnd: 2, Overlay: overlay("hi")}, nil},
		{"unknown kind", Scene{Kind: "gif", OutputStart: 0, OutputEnd: 1}, ErrUnknownKind},
		{"empty kind", Scene{OutputStart: 0, OutputEnd: 1}, ErrUnknownKind},
		{"overlay on plain segment", Scene{Kind: KindVideoSegment, OutputStart: 0, OutputEnd: 1, Overlay: overlay("x")}, ErrStrayOverlay},
		{"overlay kind without text", Scene{Kind: KindTextOverlay, OutputStart: 0, OutputEnd: 1}, ErrMissingText},
		{"overlay kind with empty content", Scene{Kind: KindTextOverlay, OutputStart: 0, OutputEnd: 1, Overlay: overlay("")}, ErrMissingText},
		{"zero-length window", Scene{Kind: KindVideoSegment, OutputStart: 2, OutputEnd: 2}, ErrBadWindow},
		{"inverted window", Scene{Kind: KindVideoSegment, OutputStart: 3, OutputEnd: 1}, ErrBadWindow},
		{"negative start", Scene{Kind: KindVideoSegment, OutputStart: -1, OutputEnd: 1}, ErrBadWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScene_CloneIsolatesOverlay(t *testing.T) {
	orig := Scene{Kind: KindTextOverlay, OutputStart: 0, OutputEnd: 2, Overlay: overlay("hello")}

	clone := orig.Clone()
	clone.Overlay.Content = "changed"
	clone.Overlay.Position.X = 0.1
	clone.Overlay.Style.FontSize = 7

	if orig.Overlay.Content != "hello" {
		t.Errorf("original content mutated: %q", orig.Overlay.Content)
	}
	if orig.Overlay.Position.X != 0.5 {
		t.Errorf("original position mutated: %v", orig.Overlay.Position)
	}
	if orig.Overlay.Style.FontSize != 42 {
		t.Errorf("original style mutated: %v", orig.Overlay.Style)
	}
}

func TestScene_CloneIsolatesSourceOverrides(t *testing.T) {
	start, end := 2.0, 5.0
	orig := Scene{Kind: KindVideoSegment, OutputStart: 0, OutputEnd: 3, SourceStart: &start, SourceEnd: &end}

	clone := orig.Clone()
	*clone.SourceStart = 9
	*clone.SourceEnd = 12

	if *orig.SourceStart != 2.0 || *orig.SourceEnd != 5.0 {
		t.Errorf("source overrides shared between clones: start=%v end=%v", *orig.SourceStart, *orig.SourceEnd)
	}
}

func TestScene_Duration(t *testing.T) {
	s := Scene{Kind: KindVideoSegment, OutputStart: 3, OutputEnd: 3.5}
	if got := s.Duration(); got != 0.5 {
		t.Errorf("Duration() = %v, want 0.5", got)
	}
}

func TestTemplate_Validate(t *testing.T) {
	empty := Template{}
	if err := empty.Validate(); !errors.Is(err, ErrNoScenes) {
		t.Errorf("empty template error = %v, want %v", err, ErrNoScenes)
	}

	bad := Template{Scenes: []Scene{
		{Kind: KindVideoSegment, OutputStart: 0, OutputEnd: 3},
		{Kind: KindVideoSegment, OutputStart: 3, OutputEnd: 3},
	}}
	if err := bad.Validate(); !errors.Is(err, ErrBadWindow) {
		t.Errorf("bad scene error = %v, want %v", err, ErrBadWindow)
	}

	ok := Template{Scenes: []Scene{
		{Kind: KindVideoSegment, OutputStart: 0, OutputEnd: 3},
		{Kind: KindTextOverlay, OutputStart: 3, OutputEnd: 3.5, Overlay: overlay("outro")},
	}}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid template error = %v", err)
	}
}
