package media

import (
	"fmt"
	"strings"

	"github.com/clipdeck/clipdeck-engine/internal/template"
)

// drawtextFilter builds the -vf expression that burns an overlay onto the
// clip. The overlay position is normalized (0..1) and anchored so the text
// block slides fully inside the frame at the extremes.
func drawtextFilter(o *template.TextOverlay, vars map[string]string) string {
	text := ExpandContent(o.Content, vars)

	parts := []string{
		"drawtext=text='" + escapeDrawtext(text) + "'",
		fmt.Sprintf("x=(w-text_w)*%g", o.Position.X),
		fmt.Sprintf("y=(h-text_h)*%g", o.Position.Y),
	}

	size := o.Style.FontSize
	if size <= 0 {
		size = 36
	}
	parts = append(parts, fmt.Sprintf("fontsize=%d", size))

	color := o.Style.Color
	if color == "" {
		color = "white"
	}
	parts = append(parts, "fontcolor="+color)

	if strings.EqualFold(o.Style.FontWeight, "bold") {
		parts = append(parts, "font='Sans Bold'")
	}
	if o.Style.StrokeWidth > 0 {
		stroke := o.Style.StrokeColor
		if stroke == "" {
			stroke = "black"
		}
		parts = append(parts,
			fmt.Sprintf("borderw=%g", o.Style.StrokeWidth),
			"bordercolor="+stroke,
		)
	}
	if o.Style.Background != "" {
		parts = append(parts, "box=1", "boxcolor="+o.Style.Background, "boxborderw=8")
	}

	return strings.Join(parts, ":")
}

// ExpandContent substitutes {{name}} placeholders with the matching content
// variable. Unknown placeholders are left intact so a missing variable is
// visible in the output instead of silently vanishing.
func ExpandContent(content string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(content, "{{") {
		return content
	}
	out := content
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

// escapeDrawtext escapes the characters that terminate or alter a drawtext
// text argument inside a single-quoted filtergraph value.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\\\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}
