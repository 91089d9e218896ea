package camera

import "math"

// Vector3 is a world-space point in the target's units.
type Vector3 struct {
	X, Y, Z float32
}

// FromArray converts the layout returned by remote reads.
func FromArray(v [3]float32) Vector3 {
	return Vector3{X: v[0], Y: v[1], Z: v[2]}
}

// IsZero reports the all-zero sentinel used for "unknown position".
func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vector3) Length() float32 {
	return float32(math.Sqrt(float64(v.X)*float64(v.X) + float64(v.Y)*float64(v.Y) + float64(v.Z)*float64(v.Z)))
}

func (v Vector3) Distance(o Vector3) float32 {
	return v.Sub(o).Length()
}

// Finite reports whether every component is a real number.
func (v Vector3) Finite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// Vector2 is a pixel coordinate with the origin at the top-left corner.
type Vector2 struct {
	X, Y float32
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
