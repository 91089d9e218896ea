package runner

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"memscene/entity"
	"memscene/instance"
	"memscene/offsets"
	"memscene/process"
	"memscene/remote"
	"memscene/scenefixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	world   *scenefixture.World
	mem     *remote.Accessor
	cache   *entity.Cache
	session *Session
}

func newStack(t *testing.T) *stack {
	t.Helper()
	world := scenefixture.New(offsets.Default())
	p := world.AddPlayer("Alpha", 1)
	c := world.SpawnCharacter(p, "HumanoidRootPart")
	world.SetPosition(c, 3, 0, 4)

	mem := remote.New(remote.WithOpener(world.Opener()))
	cache := entity.NewCache(mem, instance.NewWalker(mem, world.Offsets), world.Offsets, entity.DefaultOptions())
	return &stack{world: world, mem: mem, cache: cache, session: NewSession(mem, cache)}
}

func (s *stack) attach(t *testing.T) {
	t.Helper()
	res := s.session.Attach(scenefixture.ProcessName)
	require.True(t, res.OK)
}

func TestAttachAsync(t *testing.T) {
	s := newStack(t)

	select {
	case res := <-s.session.AttachAsync("notepad.exe"):
		assert.False(t, res.OK)
		assert.Equal(t, "notepad.exe", res.Name)
		assert.Zero(t, res.PID)
	case <-time.After(2 * time.Second):
		t.Fatal("no attach result")
	}

	select {
	case res := <-s.session.AttachAsync(scenefixture.ProcessName):
		assert.True(t, res.OK)
		assert.Equal(t, scenefixture.FixturePID, res.PID)
	case <-time.After(2 * time.Second):
		t.Fatal("no attach result")
	}
	assert.True(t, s.session.Attached())
}

func TestCycleRequiresAttachment(t *testing.T) {
	s := newStack(t)
	assert.False(t, s.session.Cycle())

	s.attach(t)
	assert.True(t, s.session.Cycle())
	assert.Equal(t, "Alpha", s.cache.Snapshot().Entities[0].Name)

	s.session.Detach()
	s.session.Detach()
	assert.False(t, s.session.Attached())
	assert.False(t, s.world.Image.IsOpen(), "handle released")
	assert.Empty(t, s.cache.Snapshot().Entities)
	assert.False(t, s.session.Cycle())
}

func TestUpdaterRunPublishes(t *testing.T) {
	s := newStack(t)
	s.attach(t)
	u := NewUpdater(s.session, WithInterval(time.Millisecond), WithLiveness(time.Second, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- u.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(s.cache.Snapshot().Entities) == 1
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("updater did not stop")
	}
	assert.NotZero(t, u.Stats().Published)
}

type panickyCache struct {
	calls atomic.Int32
}

func (p *panickyCache) Update() bool {
	if p.calls.Add(1) <= 2 {
		panic("torn read")
	}
	return true
}

func (p *panickyCache) Reset() {}

type fakeAccessor struct {
	attached atomic.Bool
	pid      process.ProcessID
	detaches atomic.Int32
}

func (f *fakeAccessor) Attach(string) bool     { f.attached.Store(true); return true }
func (f *fakeAccessor) Detach()                { f.detaches.Add(1); f.attached.Store(false) }
func (f *fakeAccessor) Attached() bool         { return f.attached.Load() }
func (f *fakeAccessor) PID() process.ProcessID { return f.pid }

func TestStepRecoversPanics(t *testing.T) {
	mem := &fakeAccessor{pid: 7}
	mem.attached.Store(true)
	cache := &panickyCache{}
	u := NewUpdater(NewSession(mem, cache), WithLiveness(time.Second, nil))

	assert.False(t, u.Step())
	assert.False(t, u.Step())
	assert.True(t, u.Step())
	assert.Equal(t, Stats{Cycles: 3, Published: 1, Panics: 2}, u.Stats())
}

func TestLivenessDetachesExitedProcess(t *testing.T) {
	s := newStack(t)
	s.attach(t)

	now := time.Unix(1700000000, 0)
	var alive atomic.Bool
	alive.Store(true)
	checks := 0
	u := NewUpdater(s.session,
		WithClock(func() time.Time { return now }),
		WithLiveness(time.Second, func(pid process.ProcessID) bool {
			checks++
			assert.Equal(t, scenefixture.FixturePID, pid)
			return alive.Load()
		}))

	assert.True(t, u.Step())
	assert.True(t, u.Step())
	assert.Equal(t, 1, checks, "checked at most once per interval")

	alive.Store(false)
	assert.True(t, u.Step(), "not due yet")

	now = now.Add(time.Second)
	assert.False(t, u.Step())
	assert.Equal(t, 2, checks)
	assert.False(t, s.mem.Attached())
	assert.Empty(t, s.cache.Snapshot().Entities)
}

func TestDetachIfIgnoresStalePID(t *testing.T) {
	mem := &fakeAccessor{pid: 10}
	mem.attached.Store(true)
	s := NewSession(mem, &panickyCache{})

	assert.False(t, s.DetachIf(9))
	assert.True(t, mem.Attached())
	assert.True(t, s.DetachIf(10))
	assert.False(t, mem.Attached())
	assert.False(t, s.DetachIf(10))
}

type blockingCache struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCache) Update() bool {
	close(b.entered)
	<-b.release
	return true
}

func (b *blockingCache) Reset() {}

func TestDetachWaitsForCycle(t *testing.T) {
	mem := &fakeAccessor{pid: 3}
	mem.attached.Store(true)
	cache := &blockingCache{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewSession(mem, cache)

	go s.Cycle()
	<-cache.entered

	detached := make(chan struct{})
	go func() {
		s.Detach()
		close(detached)
	}()

	select {
	case <-detached:
		t.Fatal("detach ran during a cycle")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Zero(t, mem.detaches.Load())

	close(cache.release)
	select {
	case <-detached:
	case <-time.After(2 * time.Second):
		t.Fatal("detach never ran")
	}
	assert.Equal(t, int32(1), mem.detaches.Load())
}

func TestPidAlive(t *testing.T) {
	assert.True(t, PidAlive(process.ProcessID(os.Getpid())))
}

func TestEndToEndProjection(t *testing.T) {
	s := newStack(t)
	s.attach(t)
	local := s.world.AddPlayer("Local", 2)
	s.world.SetLocalPlayer(local)
	lc := s.world.SpawnCharacter(local, "HumanoidRootPart")
	s.world.SetPosition(lc, 3, 0, -1)

	require.True(t, s.session.Cycle())
	snap := s.cache.Snapshot()
	require.Len(t, snap.Entities, 2)
	require.NotNil(t, snap.Entities[0].ScreenPosition)
	assert.InDelta(t, 960*1.03, snap.Entities[0].ScreenPosition.X, 1e-3)
	assert.InDelta(t, 5.0, snap.Entities[0].Distance, 1e-5)
	require.NotNil(t, snap.Local)
	assert.Equal(t, local, snap.Local.Address)
}
