// Package overlay turns published snapshots into a display list and renders
// it. It only reads snapshots and flags.
package overlay

import (
	"math"

	"memscene/coloransi"
)

// Health ratios strictly above these are high and medium respectively.
var (
	HighHealthThreshold   float32 = 0.66
	MediumHealthThreshold float32 = 0.33
)

var (
	ColorHealthHigh   = coloransi.RGB(46, 213, 115)
	ColorHealthMedium = coloransi.RGB(255, 165, 2)
	ColorHealthLow    = coloransi.RGB(255, 71, 87)
	ColorEnemy        = coloransi.RGB(255, 71, 87)
	ColorName         = coloransi.RGB(255, 255, 255)
	ColorCrosshair    = coloransi.RGB(0, 255, 170)
	ColorFOV          = coloransi.RGB(255, 255, 255)
)

type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

func (t Tier) Color() coloransi.ColorCode {
	switch t {
	case TierHigh:
		return ColorHealthHigh
	case TierMedium:
		return ColorHealthMedium
	default:
		return ColorHealthLow
	}
}

// HealthRatio is health/max clamped to [0,1], with max floored at 1.
func HealthRatio(health, max float32) float32 {
	if max < 1 {
		max = 1
	}
	r := health / max
	if math.IsNaN(float64(r)) || r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// TierOf buckets a ratio: above HighHealthThreshold is high, above
// MediumHealthThreshold medium, anything else low.
func TierOf(ratio float32) Tier {
	switch {
	case ratio > HighHealthThreshold:
		return TierHigh
	case ratio > MediumHealthThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

func HealthTier(health, max float32) Tier {
	return TierOf(HealthRatio(health, max))
}
