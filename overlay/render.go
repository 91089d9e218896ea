package overlay

import (
	"fmt"
	"io"
	"strings"

	"memscene/coloransi"
)

// clearScreen homes the cursor and clears the terminal.
const clearScreen = "\033[H\033[2J"

// TextRenderer writes frames as plain text, one line per target.
type TextRenderer struct {
	w     io.Writer
	color bool
	clear bool
}

type RendererOption func(*TextRenderer)

// WithColor colors health tiers and names with ANSI sequences.
func WithColor(on bool) RendererOption {
	return func(r *TextRenderer) { r.color = on }
}

// WithClear clears the terminal before every frame.
func WithClear(on bool) RendererOption {
	return func(r *TextRenderer) { r.clear = on }
}

func NewTextRenderer(w io.Writer, opts ...RendererOption) *TextRenderer {
	r := &TextRenderer{w: w}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TextRenderer) paint(fg coloransi.ColorCode, s string) string {
	if !r.color {
		return s
	}
	return coloransi.Foreground(fg, s)
}

// Format renders f without writing it.
func (r *TextRenderer) Format(f Frame) string {
	var b strings.Builder
	if r.clear {
		b.WriteString(clearScreen)
	}

	fmt.Fprintf(&b, "cycle %d place %d players %d viewport %.0fx%.0f\n",
		f.Cycle, f.PlaceID, f.Players, f.Viewport.Width, f.Viewport.Height)

	for _, t := range f.Targets {
		var parts []string
		if t.Name != "" {
			parts = append(parts, r.paint(ColorName, t.Name))
		}
		if t.HealthBar != nil {
			parts = append(parts, r.paint(t.Tier.Color(), fmt.Sprintf("hp %.0f/%.0f %s", t.Health, t.Max, t.Tier)))
		}
		if t.ShowDistance {
			parts = append(parts, fmt.Sprintf("[%dm]", int(t.Distance)))
		}
		parts = append(parts, fmt.Sprintf("@ %.0f,%.0f", t.Anchor.X, t.Anchor.Y))
		if t.DrawBox {
			parts = append(parts, r.paint(ColorEnemy, fmt.Sprintf("box %.0f,%.0f %.0fx%.0f", t.Box.X, t.Box.Y, t.Box.W, t.Box.H)))
		}
		if t.Snapline != nil {
			parts = append(parts, fmt.Sprintf("line %.0f,%.0f->%.0f,%.0f", t.Snapline.From.X, t.Snapline.From.Y, t.Snapline.To.X, t.Snapline.To.Y))
		}
		b.WriteString("  ")
		b.WriteString(strings.Join(parts, " "))
		b.WriteByte('\n')
	}

	if len(f.Crosshair) > 0 {
		c := f.Viewport
		b.WriteString(r.paint(ColorCrosshair, fmt.Sprintf("crosshair %.0f,%.0f", c.Width/2, c.Height/2)))
		b.WriteByte('\n')
	}
	if f.FOV != nil {
		b.WriteString(r.paint(ColorFOV, fmt.Sprintf("fov r=%.0f", f.FOV.Radius)))
		b.WriteByte('\n')
	}
	if f.LocalPosition != nil {
		p := f.LocalPosition
		fmt.Fprintf(&b, "position %.1f %.1f %.1f\n", p.X, p.Y, p.Z)
	}
	if f.LocalSpeed != nil {
		fmt.Fprintf(&b, "speed %.1f\n", *f.LocalSpeed)
	}
	return b.String()
}

func (r *TextRenderer) WriteFrame(f Frame) error {
	_, err := io.WriteString(r.w, r.Format(f))
	return err
}
