package entity

import (
	"math"
	"sync/atomic"
	"unicode/utf8"

	"memscene/camera"
	"memscene/coloransi"
	"memscene/offsets"
	"memscene/process"

	"github.com/Moonlight-Companies/gologger/logger"
)

// Memory is the subset of the remote accessor the cache reads through.
type Memory interface {
	Attached() bool
	BaseAddress() process.ProcessMemoryAddress
	ReadPointer(addr process.ProcessMemoryAddress) process.ProcessMemoryAddress
	ReadInt64(addr process.ProcessMemoryAddress) int64
	ReadFloat32(addr process.ProcessMemoryAddress) float32
	ReadVector3f(addr process.ProcessMemoryAddress) [3]float32
	ReadMatrix16f(addr process.ProcessMemoryAddress) ([16]float32, bool)
}

// Walker is the subset of instance.Walker the cache needs.
type Walker interface {
	ListChildren(parent process.ProcessMemoryAddress) []process.ProcessMemoryAddress
	ResolveChildByName(parent process.ProcessMemoryAddress, name string) process.ProcessMemoryAddress
	ReadName(node process.ProcessMemoryAddress) string
	ReadClassName(node process.ProcessMemoryAddress) string
}

// Cache is the single writer of entity state. Update and Reset must not run
// concurrently; Snapshot and SetViewport are safe from any goroutine.
type Cache struct {
	mem     Memory
	walker  Walker
	offsets *offsets.Table
	opts    Options
	log     *logger.Logger

	entities map[process.ProcessMemoryAddress]*Entity
	order    []process.ProcessMemoryAddress
	scanned  bool
	lastScan int64 // unix nanos of the last structural rescan

	dataModel   process.ProcessMemoryAddress
	workspace   process.ProcessMemoryAddress
	cameraAddr  process.ProcessMemoryAddress
	players     process.ProcessMemoryAddress
	localPlayer process.ProcessMemoryAddress
	placeID     int64
	viewMatrix  *camera.Matrix
	cycle       uint64

	viewport  atomic.Pointer[camera.Viewport]
	published atomic.Pointer[Snapshot]
}

// NewCache builds an empty cache. Options should start from DefaultOptions.
func NewCache(mem Memory, walker Walker, table *offsets.Table, opts Options) *Cache {
	c := &Cache{
		mem:      mem,
		walker:   walker,
		offsets:  table,
		opts:     opts.withDefaults(),
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorOrange, coloransi.Black, "entity")),
		entities: make(map[process.ProcessMemoryAddress]*Entity),
	}
	vp := c.opts.Viewport
	c.viewport.Store(&vp)
	c.published.Store(&Snapshot{Viewport: vp})
	return c
}

// Snapshot returns the last published cycle. It is never nil.
func (c *Cache) Snapshot() *Snapshot {
	return c.published.Load()
}

// SetViewport changes the surface that subsequent cycles project onto.
func (c *Cache) SetViewport(vp camera.Viewport) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return
	}
	c.viewport.Store(&vp)
}

func (c *Cache) Viewport() camera.Viewport {
	return *c.viewport.Load()
}

// Cached returns the addresses of every cached entity in scan order.
func (c *Cache) Cached() []process.ProcessMemoryAddress {
	return append([]process.ProcessMemoryAddress(nil), c.order...)
}

// Entity returns the live cache entry for addr. Callers must not retain it
// across Update.
func (c *Cache) Entity(addr process.ProcessMemoryAddress) (*Entity, bool) {
	e, ok := c.entities[addr]
	return e, ok
}

// Reset forgets all cached state and publishes an empty snapshot.
func (c *Cache) Reset() {
	c.entities = make(map[process.ProcessMemoryAddress]*Entity)
	c.order = nil
	c.scanned = false
	c.lastScan = 0
	c.dataModel, c.workspace, c.cameraAddr, c.players, c.localPlayer = 0, 0, 0, 0, 0
	c.placeID = 0
	c.viewMatrix = nil
	c.published.Store(&Snapshot{Viewport: c.Viewport(), Cycle: c.cycle, Time: c.opts.Now()})
}

// Update runs one refresh cycle and reports whether a new snapshot was
// published. On false the previous snapshot stays in place.
func (c *Cache) Update() bool {
	c.cycle++

	if !c.mem.Attached() {
		return false
	}
	if !c.resolveBases() {
		return false
	}

	c.viewMatrix = c.readViewMatrix()

	if c.players == 0 {
		c.players = c.walker.ResolveChildByName(c.dataModel, "Players")
		if c.players == 0 {
			c.diagnose("Players service not found under DataModel", c.dataModel.ToString())
			return false
		}
		c.scanned = false
	}
	c.localPlayer = c.mem.ReadPointer(c.players.Add(c.offsets.Get(offsets.PlayerLocalPlayer)))

	now := c.opts.Now()
	if !c.scanned || now.UnixNano()-c.lastScan > int64(c.opts.RescanInterval) {
		c.rescan()
		c.scanned = true
		c.lastScan = now.UnixNano()
	}

	vp := c.Viewport()
	var local camera.Vector3
	for _, addr := range c.order {
		e := c.entities[addr]
		c.refresh(e, vp)
		if e.IsLocal && !e.Position.IsZero() {
			local = e.Position
		}
	}

	snap := &Snapshot{
		Entities: make([]Entity, 0, len(c.order)),
		Viewport: vp,
		PlaceID:  c.placeID,
		Cycle:    c.cycle,
		Time:     now,
	}
	if c.viewMatrix != nil {
		m := *c.viewMatrix
		snap.ViewMatrix = &m
	}
	for _, addr := range c.order {
		e := c.entities[addr]
		e.Distance = 0
		if !local.IsZero() && !e.Position.IsZero() {
			e.Distance = e.Position.Distance(local)
		}
		if utf8.RuneCountInString(e.Name) > 1 {
			snap.Entities = append(snap.Entities, *e)
		}
	}
	if e, ok := c.entities[c.localPlayer]; ok && c.localPlayer != 0 {
		copied := *e
		snap.Local = &copied
	}

	c.published.Store(snap)
	c.diagnose("cycle", c.cycle, "cached", len(c.entities), "published", len(snap.Entities))
	return true
}

// resolveBases follows the fixed root chain. Only the DataModel is required.
func (c *Cache) resolveBases() bool {
	base := c.mem.BaseAddress()
	fake := c.mem.ReadPointer(base.Add(c.offsets.Get(offsets.FakeDataModelPointer)))
	if fake == 0 {
		c.diagnose("FakeDataModel is 0")
		return false
	}
	dataModel := c.mem.ReadPointer(fake.Add(c.offsets.Get(offsets.FakeDataModelReal)))
	if dataModel == 0 {
		c.diagnose("DataModel is 0")
		return false
	}
	if dataModel != c.dataModel {
		if c.dataModel != 0 {
			c.log.Infoln("DataModel changed", c.dataModel.ToString(), "->", dataModel.ToString())
		}
		c.dataModel = dataModel
		c.players = 0
	}

	c.workspace = c.mem.ReadPointer(dataModel.Add(c.offsets.Get(offsets.DataModelWorkspace)))
	c.cameraAddr = 0
	if c.workspace == 0 {
		c.diagnose("Workspace is 0")
	} else if c.cameraAddr = c.mem.ReadPointer(c.workspace.Add(c.offsets.Get(offsets.WorkspaceCurrentCamera))); c.cameraAddr == 0 {
		c.diagnose("CurrentCamera is 0")
	}
	c.placeID = c.mem.ReadInt64(dataModel.Add(c.offsets.Get(offsets.DataModelPlaceID)))
	return true
}

func (c *Cache) readViewMatrix() *camera.Matrix {
	engine := c.mem.ReadPointer(c.mem.BaseAddress().Add(c.offsets.Get(offsets.VisualEnginePointer)))
	if engine == 0 {
		c.diagnose("VisualEngine is 0")
		return nil
	}
	raw, ok := c.mem.ReadMatrix16f(engine.Add(c.offsets.Get(offsets.VisualEngineViewMatrix)))
	if !ok || raw[0] == 0 {
		c.diagnose("view matrix unreadable")
		return nil
	}
	m := camera.Matrix(raw)
	return &m
}

// rescan diffs the Players children against the cache.
func (c *Cache) rescan() {
	children := c.walker.ListChildren(c.players)
	current := make(map[process.ProcessMemoryAddress]struct{}, len(children))
	order := make([]process.ProcessMemoryAddress, 0, len(children))

	for _, child := range children {
		if _, dup := current[child]; dup {
			continue
		}
		if c.walker.ReadClassName(child) != PlayerClass {
			continue
		}
		current[child] = struct{}{}
		order = append(order, child)

		if _, ok := c.entities[child]; !ok {
			c.entities[child] = &Entity{
				Address:   child,
				Name:      c.walker.ReadName(child),
				UserID:    c.mem.ReadInt64(child.Add(c.offsets.Get(offsets.PlayerUserID))),
				Health:    c.opts.DefaultMaxHealth,
				MaxHealth: c.opts.DefaultMaxHealth,
			}
		}
	}

	for addr := range c.entities {
		if _, ok := current[addr]; !ok {
			delete(c.entities, addr)
		}
	}
	c.order = order
}

// refresh updates the dynamic fields of one entity.
func (c *Cache) refresh(e *Entity, vp camera.Viewport) {
	e.IsLocal = e.Address == c.localPlayer

	character := c.mem.ReadPointer(e.Address.Add(c.offsets.Get(offsets.PlayerModelInstance)))
	if character != e.CharacterAddress {
		e.CharacterAddress = character
		e.RootPartAddress = 0
		e.HumanoidAddress = 0
		if character != 0 {
			e.RootPartAddress = c.resolveRootPart(character)
			e.HumanoidAddress = c.walker.ResolveChildByName(character, "Humanoid")
		}
	}

	e.Position = camera.Vector3{}
	e.HeadPosition = camera.Vector3{}
	if e.RootPartAddress != 0 {
		e.Position = c.readPartPosition(e.RootPartAddress)
		if !e.Position.IsZero() {
			e.HeadPosition = e.Position.Add(camera.Vector3{Y: c.opts.HeadOffset})
		}
	}

	if e.HumanoidAddress != 0 {
		e.Health = c.mem.ReadFloat32(e.HumanoidAddress.Add(c.offsets.Get(offsets.HumanoidHealth)))
		e.MaxHealth = c.mem.ReadFloat32(e.HumanoidAddress.Add(c.offsets.Get(offsets.HumanoidMaxHealth)))
		if !(e.MaxHealth > 0) {
			e.MaxHealth = c.opts.DefaultMaxHealth
		}
		e.WalkSpeed = c.mem.ReadFloat32(e.HumanoidAddress.Add(c.offsets.Get(offsets.HumanoidWalkspeed)))
	}

	e.ScreenPosition = nil
	e.ScreenHeadPosition = nil
	if !e.Position.IsZero() {
		if p, ok := vp.Project(e.Position, c.viewMatrix); ok {
			e.ScreenPosition = &p
		}
		if p, ok := vp.Project(e.HeadPosition, c.viewMatrix); ok {
			e.ScreenHeadPosition = &p
		}
	}
}

func (c *Cache) resolveRootPart(character process.ProcessMemoryAddress) process.ProcessMemoryAddress {
	for _, name := range RootPartNames {
		if part := c.walker.ResolveChildByName(character, name); part != 0 {
			return part
		}
	}
	return 0
}

// readPartPosition follows part -> primitive -> position. Out-of-bound or
// non-finite components yield the zero vector.
func (c *Cache) readPartPosition(part process.ProcessMemoryAddress) camera.Vector3 {
	primitive := c.mem.ReadPointer(part.Add(c.offsets.Get(offsets.BasePartPrimitive)))
	if primitive == 0 {
		return camera.Vector3{}
	}
	pos := camera.FromArray(c.mem.ReadVector3f(primitive.Add(c.offsets.Get(offsets.BasePartPosition))))
	if !pos.Finite() {
		return camera.Vector3{}
	}
	bound := float64(c.opts.PositionBound)
	for _, v := range []float32{pos.X, pos.Y, pos.Z} {
		if math.Abs(float64(v)) > bound {
			return camera.Vector3{}
		}
	}
	return pos
}

// diagnose logs at debug level once every DiagnosticEvery cycles.
func (c *Cache) diagnose(v ...interface{}) {
	if c.opts.DiagnosticEvery == 0 || (c.cycle-1)%c.opts.DiagnosticEvery != 0 {
		return
	}
	c.log.Debugln(v...)
}

// Roots are the graph roots resolved by the most recent cycle.
type Roots struct {
	DataModel   process.ProcessMemoryAddress
	Workspace   process.ProcessMemoryAddress
	Camera      process.ProcessMemoryAddress
	Players     process.ProcessMemoryAddress
	LocalPlayer process.ProcessMemoryAddress
}

func (c *Cache) Roots() Roots {
	return Roots{
		DataModel:   c.dataModel,
		Workspace:   c.workspace,
		Camera:      c.cameraAddr,
		Players:     c.players,
		LocalPlayer: c.localPlayer,
	}
}
