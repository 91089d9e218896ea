package overlay

import (
	"memscene/camera"
	"memscene/entity"
	"memscene/features"
	"memscene/process"
)

// Target is everything drawn for one remote player.
type Target struct {
	Address  process.ProcessMemoryAddress
	Anchor   camera.Vector2
	Box      Rect
	DrawBox  bool
	Tier     Tier
	Health   float32
	Max      float32
	Distance float32

	// Optional parts; zero when the matching flag is off.
	Name         string
	ShowDistance bool
	HealthBar    *Bar
	Snapline     *Line
}

// Frame is the display list for one presented snapshot.
type Frame struct {
	Cycle    uint64
	PlaceID  int64
	Players  int
	Viewport camera.Viewport
	Targets  []Target

	Crosshair []Line
	FOV       *Circle

	LocalPosition *camera.Vector3
	LocalSpeed    *float32
}

// Compose builds the display list. Local, off-screen and dead entities are
// never targets.
func Compose(snap *entity.Snapshot, flags features.View) Frame {
	f := Frame{Viewport: camera.Viewport{Width: 1920, Height: 1080}}
	if snap == nil {
		return f
	}
	f.Cycle = snap.Cycle
	f.PlaceID = snap.PlaceID
	f.Players = len(snap.Entities)
	if snap.Viewport.Width > 0 && snap.Viewport.Height > 0 {
		f.Viewport = snap.Viewport
	}

	if flags.ESPEnabled {
		for _, e := range snap.Entities {
			if e.IsLocal || e.ScreenPosition == nil || e.Health <= 0 {
				continue
			}
			f.Targets = append(f.Targets, target(e, f.Viewport, flags))
		}
	}

	if flags.CrosshairEnabled {
		f.Crosshair = Crosshair(f.Viewport)
	}
	if flags.FOVCircle {
		f.FOV = &Circle{
			Center: camera.Vector2{X: f.Viewport.Width / 2, Y: f.Viewport.Height / 2},
			Radius: float32(flags.FOVCircleRadius),
		}
	}

	if snap.Local != nil {
		if flags.ShowPosition {
			p := snap.Local.Position
			f.LocalPosition = &p
		}
		if flags.ShowSpeed {
			s := snap.Local.WalkSpeed
			f.LocalSpeed = &s
		}
	}
	return f
}

func target(e entity.Entity, vp camera.Viewport, flags features.View) Target {
	anchor := *e.ScreenPosition
	box := Box(anchor, e.ScreenHeadPosition, e.Distance)
	ratio := HealthRatio(e.Health, e.MaxHealth)

	t := Target{
		Address:      e.Address,
		Anchor:       anchor,
		Box:          box,
		DrawBox:      flags.ESPBox,
		Tier:         TierOf(ratio),
		Health:       e.Health,
		Max:          e.MaxHealth,
		Distance:     e.Distance,
		ShowDistance: flags.ESPDistance,
	}
	if flags.ESPName {
		t.Name = e.Name
		if t.Name == "" {
			t.Name = "Player"
		}
	}
	if flags.ESPHealth {
		bar := HealthBar(box, ratio)
		t.HealthBar = &bar
	}
	if flags.ESPSnaplines {
		line := Snapline(vp, anchor, box)
		t.Snapline = &line
	}
	return t
}
