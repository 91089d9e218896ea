// Package camera holds the view transform and projects world points to pixels.
package camera

// MinClipW rejects points behind or too close to the camera.
const MinClipW = 0.1

// Matrix is a row-major 4x4 view-projection transform.
type Matrix [16]float32

// Viewport is the target surface size in pixels.
type Viewport struct {
	Width, Height float32
}

// Project maps p to pixel coordinates. It reports false for the zero point,
// a nil matrix, points behind the camera, non-finite results and anything
// outside [0,width]x[0,height].
func Project(p Vector3, m *Matrix, width, height float32) (Vector2, bool) {
	if m == nil || p.IsZero() || !p.Finite() {
		return Vector2{}, false
	}

	clipX := p.X*m[0] + p.Y*m[1] + p.Z*m[2] + m[3]
	clipY := p.X*m[4] + p.Y*m[5] + p.Z*m[6] + m[7]
	clipW := p.X*m[12] + p.Y*m[13] + p.Z*m[14] + m[15]
	if !(clipW >= MinClipW) {
		return Vector2{}, false
	}

	ndcX := clipX / clipW
	ndcY := clipY / clipW

	screen := Vector2{
		X: width / 2 * (1 + ndcX),
		Y: height / 2 * (1 - ndcY),
	}
	if !finite(screen.X) || !finite(screen.Y) {
		return Vector2{}, false
	}
	if screen.X < 0 || screen.X > width || screen.Y < 0 || screen.Y > height {
		return Vector2{}, false
	}
	return screen, true
}

// Project is Project against this viewport.
func (v Viewport) Project(p Vector3, m *Matrix) (Vector2, bool) {
	return Project(p, m, v.Width, v.Height)
}
