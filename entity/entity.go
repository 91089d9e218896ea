// Package entity keeps a differential cache of player entities read from the
// target's instance tree and publishes an immutable snapshot every cycle.
package entity

import (
	"math"
	"time"

	"memscene/camera"
	"memscene/process"
)

// PlayerClass is the class name that marks a child of the Players service as a player.
const PlayerClass = "Player"

// RootPartNames are tried in order when resolving a character's root part.
// The first covers R15 rigs, the rest R6.
var RootPartNames = []string{"HumanoidRootPart", "Torso", "Head"}

// Entity is the cached view of one Player instance.
type Entity struct {
	Address process.ProcessMemoryAddress
	Name    string
	UserID  int64
	IsLocal bool

	CharacterAddress process.ProcessMemoryAddress
	RootPartAddress  process.ProcessMemoryAddress
	HumanoidAddress  process.ProcessMemoryAddress

	Position     camera.Vector3
	HeadPosition camera.Vector3
	Health       float32
	MaxHealth    float32
	WalkSpeed    float32

	// nil when the point is unknown, behind the camera or off screen
	ScreenPosition     *camera.Vector2
	ScreenHeadPosition *camera.Vector2

	// Distance to the local entity; zero when either position is unknown.
	Distance float32
}

// HealthRatio is Health/MaxHealth clamped to [0,1].
func (e Entity) HealthRatio() float32 {
	if e.MaxHealth <= 0 {
		return 0
	}
	r := e.Health / e.MaxHealth
	switch {
	case math.IsNaN(float64(r)), r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// Snapshot is one published cycle. It is never modified after publication.
type Snapshot struct {
	Entities   []Entity
	Local      *Entity
	ViewMatrix *camera.Matrix
	Viewport   camera.Viewport
	PlaceID    int64
	Cycle      uint64
	Time       time.Time
}

// Options holds the tuned constants of the refresh cycle.
type Options struct {
	RescanInterval   time.Duration
	PositionBound    float32
	HeadOffset       float32
	DefaultMaxHealth float32
	Viewport         camera.Viewport

	// DiagnosticEvery throttles debug output to one cycle in N; 0 disables it.
	DiagnosticEvery uint64

	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		RescanInterval:   time.Second,
		PositionBound:    50000,
		HeadOffset:       1.5,
		DefaultMaxHealth: 100,
		Viewport:         camera.Viewport{Width: 1920, Height: 1080},
		DiagnosticEvery:  60,
		Now:              time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RescanInterval <= 0 {
		o.RescanInterval = d.RescanInterval
	}
	if o.PositionBound <= 0 {
		o.PositionBound = d.PositionBound
	}
	if o.DefaultMaxHealth <= 0 {
		o.DefaultMaxHealth = d.DefaultMaxHealth
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = d.Viewport
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}
