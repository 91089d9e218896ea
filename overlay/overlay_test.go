package overlay

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"memscene/camera"
	"memscene/coloransi"
	"memscene/entity"
	"memscene/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthTier(t *testing.T) {
	tests := []struct {
		health, max float32
		want        Tier
	}{
		{70, 100, TierHigh},
		{50, 100, TierMedium},
		{20, 100, TierLow},
		{66, 100, TierMedium},
		{33, 100, TierLow},
		{67, 100, TierHigh},
		{34, 100, TierMedium},
		{150, 100, TierHigh},
		{-10, 100, TierLow},
		{0.5, 0, TierMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HealthTier(tt.health, tt.max), "%v/%v", tt.health, tt.max)
	}
	assert.Equal(t, TierHigh, TierOf(0.7))
	assert.Equal(t, TierLow, TierOf(0.33))
	assert.Equal(t, "medium", TierMedium.String())
	assert.Equal(t, ColorHealthLow, TierLow.Color())
}

func TestBoxFromHead(t *testing.T) {
	head := camera.Vector2{X: 500, Y: 480}
	box := Box(camera.Vector2{X: 500, Y: 500}, &head, 10)
	assert.InDelta(t, 76, box.H, 1e-4)
	assert.InDelta(t, 38, box.W, 1e-4)
	assert.InDelta(t, 481, box.X, 1e-4)
	assert.InDelta(t, 462, box.Y, 1e-4)

	head = camera.Vector2{X: 500, Y: 499}
	assert.Equal(t, BoxMinHeight, Box(camera.Vector2{X: 500, Y: 500}, &head, 10).H)
}

func TestBoxFallbackByDistance(t *testing.T) {
	anchor := camera.Vector2{X: 100, Y: 100}
	assert.Equal(t, float32(400), Box(anchor, nil, 0).H, "clamped at close range")
	assert.Equal(t, float32(100), Box(anchor, nil, 20).H)
	assert.Equal(t, float32(30), Box(anchor, nil, 1000).H)
}

func TestHealthBar(t *testing.T) {
	bar := HealthBar(Rect{X: 100, Y: 50, W: 40, H: 80}, 0.25)
	assert.Equal(t, Rect{X: 93, Y: 50, W: 4, H: 80}, bar.Background)
	assert.Equal(t, Rect{X: 93, Y: 110, W: 4, H: 20}, bar.Fill)
}

func TestCrosshairAndSnapline(t *testing.T) {
	vp := camera.Viewport{Width: 200, Height: 100}
	arms := Crosshair(vp)
	require.Len(t, arms, 4)
	assert.Equal(t, Line{From: camera.Vector2{X: 86, Y: 50}, To: camera.Vector2{X: 96, Y: 50}}, arms[0])

	line := Snapline(vp, camera.Vector2{X: 20, Y: 30}, Rect{Y: 10, H: 40})
	assert.Equal(t, camera.Vector2{X: 100, Y: 100}, line.From)
	assert.Equal(t, camera.Vector2{X: 20, Y: 50}, line.To)
}

func screen(x, y float32) *camera.Vector2 {
	return &camera.Vector2{X: x, Y: y}
}

func sampleSnapshot() *entity.Snapshot {
	local := entity.Entity{Name: "Me", IsLocal: true, Health: 100, MaxHealth: 100,
		Position: camera.Vector3{X: 1, Y: 2, Z: 3}, WalkSpeed: 16, ScreenPosition: screen(960, 540)}
	return &entity.Snapshot{
		Cycle:    7,
		PlaceID:  42,
		Viewport: camera.Viewport{Width: 1920, Height: 1080},
		Local:    &local,
		Entities: []entity.Entity{
			local,
			{Name: "Enemy", Health: 50, MaxHealth: 100, Distance: 12.7,
				ScreenPosition: screen(1000, 500), ScreenHeadPosition: screen(1000, 480)},
			{Name: "Dead", Health: 0, MaxHealth: 100, ScreenPosition: screen(10, 10)},
			{Name: "Hidden", Health: 100, MaxHealth: 100},
		},
	}
}

func allOn() features.View {
	return features.View{
		ESPEnabled: true, ESPBox: true, ESPName: true, ESPHealth: true, ESPDistance: true,
		ESPSnaplines: true, ShowSpeed: true, ShowPosition: true, CrosshairEnabled: true,
		FOVCircle: true, FOVCircleRadius: 150,
	}
}

func TestComposeFilters(t *testing.T) {
	f := Compose(sampleSnapshot(), allOn())

	assert.Equal(t, uint64(7), f.Cycle)
	assert.Equal(t, 4, f.Players)
	require.Len(t, f.Targets, 1, "local, dead and off-screen entities are skipped")

	target := f.Targets[0]
	assert.Equal(t, "Enemy", target.Name)
	assert.Equal(t, TierMedium, target.Tier)
	assert.True(t, target.DrawBox)
	assert.NotNil(t, target.HealthBar)
	require.NotNil(t, target.Snapline)
	assert.Equal(t, target.Box.Bottom(), target.Snapline.To.Y)

	assert.Len(t, f.Crosshair, 4)
	require.NotNil(t, f.FOV)
	assert.Equal(t, float32(150), f.FOV.Radius)
	require.NotNil(t, f.LocalPosition)
	assert.Equal(t, camera.Vector3{X: 1, Y: 2, Z: 3}, *f.LocalPosition)
	require.NotNil(t, f.LocalSpeed)
	assert.Equal(t, float32(16), *f.LocalSpeed)
}

func TestComposeRespectsFlags(t *testing.T) {
	f := Compose(sampleSnapshot(), features.View{})
	assert.Empty(t, f.Targets)
	assert.Nil(t, f.Crosshair)
	assert.Nil(t, f.FOV)
	assert.Nil(t, f.LocalPosition)
	assert.Nil(t, f.LocalSpeed)

	f = Compose(sampleSnapshot(), features.View{ESPEnabled: true})
	require.Len(t, f.Targets, 1)
	assert.Empty(t, f.Targets[0].Name)
	assert.False(t, f.Targets[0].DrawBox)
	assert.Nil(t, f.Targets[0].HealthBar)
	assert.Nil(t, f.Targets[0].Snapline)

	f = Compose(&entity.Snapshot{}, allOn())
	assert.Empty(t, f.Targets)
	assert.Equal(t, camera.Viewport{Width: 1920, Height: 1080}, f.Viewport)

	f = Compose(nil, allOn())
	assert.Empty(t, f.Targets)
}

func TestComposeDoesNotMutateSnapshot(t *testing.T) {
	snap := sampleSnapshot()
	before := *snap.Entities[1].ScreenPosition
	Compose(snap, allOn())
	assert.Equal(t, before, *snap.Entities[1].ScreenPosition)
	assert.Len(t, snap.Entities, 4)
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf)
	require.NoError(t, r.WriteFrame(Compose(sampleSnapshot(), allOn())))

	out := buf.String()
	assert.Contains(t, out, "cycle 7 place 42 players 4 viewport 1920x1080")
	assert.Contains(t, out, "Enemy hp 50/100 medium [12m] @ 1000,500")
	assert.Contains(t, out, "fov r=150")
	assert.Contains(t, out, "position 1.0 2.0 3.0")
	assert.Contains(t, out, "speed 16.0")
	assert.NotContains(t, out, "Dead")
	assert.NotContains(t, out, "\033[")

	colored := NewTextRenderer(nil, WithColor(true), WithClear(true)).Format(Compose(sampleSnapshot(), allOn()))
	assert.Contains(t, colored, clearScreen)
	assert.Contains(t, coloransi.Strip(colored), "Enemy hp 50/100 medium")
}

type snapshotSource struct {
	snap atomic.Pointer[entity.Snapshot]
}

func (s *snapshotSource) Snapshot() *entity.Snapshot { return s.snap.Load() }

type frameSink struct {
	frames []Frame
	err    error
}

func (s *frameSink) WriteFrame(f Frame) error {
	s.frames = append(s.frames, f)
	return s.err
}

func TestPresenterDrawsOnChange(t *testing.T) {
	src := &snapshotSource{}
	src.snap.Store(sampleSnapshot())
	flags := features.New(map[string]interface{}{"esp_enabled": true})
	sink := &frameSink{}
	p := NewPresenter(src, flags, sink, 0)

	assert.True(t, p.Present())
	assert.False(t, p.Present(), "nothing changed")

	flags.Set("esp_box", true)
	assert.True(t, p.Present())

	src.snap.Store(sampleSnapshot())
	sink.err = errors.New("closed pipe")
	assert.True(t, p.Present(), "write errors are logged, not fatal")
	assert.Len(t, sink.frames, 3)
	assert.True(t, sink.frames[1].Targets[0].DrawBox)
}

func TestPresenterRunStopsOnCancel(t *testing.T) {
	src := &snapshotSource{}
	src.snap.Store(sampleSnapshot())
	p := NewPresenter(src, features.New(nil), &frameSink{}, 1000)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("presenter did not stop")
	}
}
