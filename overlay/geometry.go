package overlay

import "memscene/camera"

// Box sizing. With a projected head the box spans BoxHeadScale times the
// foot-to-head pixel delta; without one it shrinks with distance.
var (
	BoxHeadScale      float32 = 3.8
	BoxMinHeight      float32 = 20
	BoxFallbackMin    float32 = 30
	BoxFallbackMax    float32 = 400
	BoxFallbackFactor float32 = 2000
	BoxAspect         float32 = 0.5

	HealthBarWidth float32 = 4
	HealthBarGap   float32 = 3

	CrosshairSize float32 = 10
	CrosshairGap  float32 = 4
)

type Rect struct {
	X, Y, W, H float32
}

func (r Rect) Bottom() float32 { return r.Y + r.H }

type Line struct {
	From, To camera.Vector2
}

type Circle struct {
	Center camera.Vector2
	Radius float32
}

// Box returns the outline centered on the projected root point.
func Box(anchor camera.Vector2, head *camera.Vector2, distance float32) Rect {
	var h float32
	if head != nil {
		delta := anchor.Y - head.Y
		if delta < 0 {
			delta = -delta
		}
		h = max(BoxMinHeight, delta*BoxHeadScale)
	} else {
		h = max(BoxFallbackMin, min(BoxFallbackMax, BoxFallbackFactor/max(distance, 5)))
	}
	w := h * BoxAspect
	return Rect{X: anchor.X - w/2, Y: anchor.Y - h/2, W: w, H: h}
}

// Bar is a vertical health bar; Fill grows from the bottom of Background.
type Bar struct {
	Background, Fill Rect
}

// HealthBar places the bar just left of box.
func HealthBar(box Rect, ratio float32) Bar {
	bg := Rect{X: box.X - HealthBarWidth - HealthBarGap, Y: box.Y, W: HealthBarWidth, H: box.H}
	filled := box.H * ratio
	return Bar{
		Background: bg,
		Fill:       Rect{X: bg.X, Y: bg.Bottom() - filled, W: HealthBarWidth, H: filled},
	}
}

// Snapline runs from the bottom center of the viewport to the bottom of box.
func Snapline(vp camera.Viewport, anchor camera.Vector2, box Rect) Line {
	return Line{
		From: camera.Vector2{X: vp.Width / 2, Y: vp.Height},
		To:   camera.Vector2{X: anchor.X, Y: box.Bottom()},
	}
}

// Crosshair returns the four arms around the viewport center.
func Crosshair(vp camera.Viewport) []Line {
	cx, cy := vp.Width/2, vp.Height/2
	outer := CrosshairSize + CrosshairGap
	return []Line{
		{From: camera.Vector2{X: cx - outer, Y: cy}, To: camera.Vector2{X: cx - CrosshairGap, Y: cy}},
		{From: camera.Vector2{X: cx + CrosshairGap, Y: cy}, To: camera.Vector2{X: cx + outer, Y: cy}},
		{From: camera.Vector2{X: cx, Y: cy - outer}, To: camera.Vector2{X: cx, Y: cy - CrosshairGap}},
		{From: camera.Vector2{X: cx, Y: cy + CrosshairGap}, To: camera.Vector2{X: cx, Y: cy + outer}},
	}
}
