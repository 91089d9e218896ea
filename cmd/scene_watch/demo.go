//go:build linux

package main

import (
	"context"
	"math"
	"time"

	"memscene/offsets"
	"memscene/scenefixture"
)

// demo is a synthetic scene: a local player at the origin of the view and
// two others, one of them circling.
type demo struct {
	name   string
	world  *scenefixture.World
	runner scenefixture.Character
}

func newDemo(table *offsets.Table) *demo {
	w := scenefixture.New(table)
	w.SetPlaceID(1818)

	local := w.AddPlayer("LocalPlayer", 1)
	w.SetLocalPlayer(local)
	lc := w.SpawnCharacter(local, "HumanoidRootPart")
	w.SetPosition(lc, 1, 0, 1)
	w.SetWalkSpeed(lc, 16)

	guard := w.AddPlayer("Guard", 2)
	gc := w.SpawnCharacter(guard, "Torso")
	w.SetPosition(gc, -40, 5, 30)
	w.SetHealth(gc, 30, 100)

	r := w.AddPlayer("Runner", 3)
	rc := w.SpawnCharacter(r, "HumanoidRootPart")
	w.SetHealth(rc, 90, 100)

	return &demo{name: scenefixture.ProcessName, world: w, runner: rc}
}

func (d *demo) animate(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a := now.Sub(start).Seconds()
			d.world.SetPosition(d.runner, float32(60*math.Cos(a)), 0, float32(60*math.Sin(a)))
		}
	}
}
