// Package scenefixture lays out a synthetic instance tree inside a
// process_blob image using an offset table, for tests and offline demos.
package scenefixture

import (
	"memscene/offsets"
	"memscene/process"
	"memscene/process_blob"
)

const (
	heapStart    = 0x10000000
	instanceSize = 0x800
	stringSize   = 0x40
	containerSz  = 0x20
	primitiveSz  = 0x200
)

const (
	// FixturePID is the pid reported by fixture images.
	FixturePID = process.ProcessID(31337)

	// ProcessName is the only name Opener answers to.
	ProcessName = "RobloxPlayerBeta.exe"
)

// World is a mutable synthetic scene.
type World struct {
	Image   *process_blob.ProcessImage
	Offsets *offsets.Table

	DataModel    process.ProcessMemoryAddress
	Workspace    process.ProcessMemoryAddress
	Camera       process.ProcessMemoryAddress
	Players      process.ProcessMemoryAddress
	VisualEngine process.ProcessMemoryAddress

	fake       process.ProcessMemoryAddress
	next       process.ProcessMemoryAddress
	names      map[process.ProcessMemoryAddress]string
	containers map[process.ProcessMemoryAddress]process.ProcessMemoryAddress
	children   map[process.ProcessMemoryAddress][]process.ProcessMemoryAddress
}

// Character is the model spawned for a player.
type Character struct {
	Model     process.ProcessMemoryAddress
	RootPart  process.ProcessMemoryAddress
	Primitive process.ProcessMemoryAddress
	Humanoid  process.ProcessMemoryAddress
}

// New builds DataModel, Workspace, Camera, the Players service and the
// visual engine, wired through the table's root offsets.
func New(table *offsets.Table) *World {
	w := &World{
		Image:      process_blob.NewProcessImage(FixturePID, process.BASEADDRESS),
		Offsets:    table,
		next:       heapStart,
		names:      make(map[process.ProcessMemoryAddress]string),
		containers: make(map[process.ProcessMemoryAddress]process.ProcessMemoryAddress),
		children:   make(map[process.ProcessMemoryAddress][]process.ProcessMemoryAddress),
	}

	w.fake = w.Alloc(0x400)
	w.DataModel = w.NewInstance("Game", "DataModel")
	w.Image.PutPointer(process.BASEADDRESS.Add(table.Get(offsets.FakeDataModelPointer)), w.fake)
	w.RestoreDataModel()

	w.Workspace = w.NewInstance("Workspace", "Workspace")
	w.Camera = w.NewInstance("Camera", "Camera")
	w.Players = w.NewInstance("Players", "Players")
	w.AddChild(w.DataModel, w.Workspace)
	w.AddChild(w.DataModel, w.Players)
	w.AddChild(w.Workspace, w.Camera)
	w.Image.PutPointer(w.DataModel.Add(table.Get(offsets.DataModelWorkspace)), w.Workspace)
	w.Image.PutPointer(w.Workspace.Add(table.Get(offsets.WorkspaceCurrentCamera)), w.Camera)

	w.VisualEngine = w.Alloc(0x400)
	w.Image.PutPointer(process.BASEADDRESS.Add(table.Get(offsets.VisualEnginePointer)), w.VisualEngine)
	w.SetViewMatrix(ScaleMatrix(0.01))

	return w
}

// Opener returns a process.Opener that reopens the fixture image for ProcessName.
func (w *World) Opener() process.Opener {
	return process_blob.Opener(w.Image, ProcessName)
}

// ScaleMatrix maps world x and y to device coordinates scaled by s, with w fixed at 1.
func ScaleMatrix(s float32) [16]float32 {
	return [16]float32{
		s, 0, 0, 0,
		0, s, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Alloc returns a fresh zeroed block aligned to 0x100.
func (w *World) Alloc(size uint64) process.ProcessMemoryAddress {
	addr := w.next
	size = (size + 0xff) &^ 0xff
	w.next += process.ProcessMemoryAddress(size)
	w.Image.PutBytes(addr, make([]byte, size))
	return addr
}

// NewInstance allocates a detached node with a name, class and empty children.
func (w *World) NewInstance(name, class string) process.ProcessMemoryAddress {
	node := w.Alloc(instanceSize)
	w.SetName(node, name)

	descriptor := w.Alloc(0x40)
	w.Image.PutPointer(node.Add(w.Offsets.Get(offsets.InstanceClassDesc)), descriptor)
	w.Image.PutPointer(descriptor.Add(w.Offsets.Get(offsets.ClassDescriptorName)), w.NewString(class))

	w.SetChildren(node)
	return node
}

// NewString allocates a string object holding s.
func (w *World) NewString(s string) process.ProcessMemoryAddress {
	obj := w.Alloc(stringSize)
	w.PutString(obj, s)
	return obj
}

// PutString stores s at obj, inline when it fits, otherwise behind a heap pointer.
func (w *World) PutString(obj process.ProcessMemoryAddress, s string) {
	if len(s) <= 16 {
		buf := make([]byte, stringSize)
		copy(buf, s)
		w.Image.PutBytes(obj, buf)
		return
	}
	heap := w.Alloc(uint64(len(s)) + 1)
	w.Image.PutBytes(heap, append([]byte(s), 0))
	w.Image.PutBytes(obj, make([]byte, stringSize))
	w.Image.PutPointer(obj, heap)
}

func (w *World) SetName(node process.ProcessMemoryAddress, name string) {
	w.names[node] = name
	w.Image.PutPointer(node.Add(w.Offsets.Get(offsets.InstanceName)), w.NewString(name))
}

// SetChildren replaces node's children array.
func (w *World) SetChildren(node process.ProcessMemoryAddress, children ...process.ProcessMemoryAddress) {
	container, ok := w.containers[node]
	if !ok {
		container = w.Alloc(containerSz)
		w.containers[node] = container
		w.Image.PutPointer(node.Add(w.Offsets.Get(offsets.InstanceChildrenStart)), container)
	}

	array := w.Alloc(uint64(len(children)+1) * process.PointerSize)
	for i, child := range children {
		w.Image.PutPointer(array+process.ProcessMemoryAddress(i*process.PointerSize), child)
	}
	end := array + process.ProcessMemoryAddress(len(children)*process.PointerSize)

	w.Image.PutPointer(container, array)
	w.Image.PutPointer(container.Add(w.Offsets.Get(offsets.InstanceChildrenEnd)), end)
	w.children[node] = append([]process.ProcessMemoryAddress(nil), children...)
}

// SetChildRange writes raw start and end pointers into node's container.
func (w *World) SetChildRange(node, start, end process.ProcessMemoryAddress) {
	w.SetChildren(node)
	container := w.containers[node]
	w.Image.PutPointer(container, start)
	w.Image.PutPointer(container.Add(w.Offsets.Get(offsets.InstanceChildrenEnd)), end)
}

func (w *World) AddChild(parent, child process.ProcessMemoryAddress) {
	w.SetChildren(parent, append(w.Children(parent), child)...)
}

func (w *World) RemoveChild(parent, child process.ProcessMemoryAddress) {
	var kept []process.ProcessMemoryAddress
	for _, c := range w.children[parent] {
		if c != child {
			kept = append(kept, c)
		}
	}
	w.SetChildren(parent, kept...)
}

func (w *World) Children(parent process.ProcessMemoryAddress) []process.ProcessMemoryAddress {
	return append([]process.ProcessMemoryAddress(nil), w.children[parent]...)
}

// AddPlayer creates a Player node under the Players service.
func (w *World) AddPlayer(name string, userID int64) process.ProcessMemoryAddress {
	player := w.NewInstance(name, "Player")
	w.Image.PutUint64(player.Add(w.Offsets.Get(offsets.PlayerUserID)), uint64(userID))
	w.AddChild(w.Players, player)
	return player
}

func (w *World) RemovePlayer(player process.ProcessMemoryAddress) {
	w.RemoveChild(w.Players, player)
}

func (w *World) SetLocalPlayer(player process.ProcessMemoryAddress) {
	w.Image.PutPointer(w.Players.Add(w.Offsets.Get(offsets.PlayerLocalPlayer)), player)
}

// SpawnCharacter gives player a fresh model with a root part named rootName
// and a humanoid.
func (w *World) SpawnCharacter(player process.ProcessMemoryAddress, rootName string) Character {
	c := Character{
		Model:    w.NewInstance(w.names[player], "Model"),
		RootPart: w.NewInstance(rootName, "Part"),
		Humanoid: w.NewInstance("Humanoid", "Humanoid"),
	}
	c.Primitive = w.Alloc(primitiveSz)
	w.Image.PutPointer(c.RootPart.Add(w.Offsets.Get(offsets.BasePartPrimitive)), c.Primitive)
	w.SetChildren(c.Model, c.RootPart, c.Humanoid)
	w.Image.PutPointer(player.Add(w.Offsets.Get(offsets.PlayerModelInstance)), c.Model)
	w.SetHealth(c, 100, 100)
	return c
}

// ClearCharacter leaves player without a model, as after death.
func (w *World) ClearCharacter(player process.ProcessMemoryAddress) {
	w.Image.PutPointer(player.Add(w.Offsets.Get(offsets.PlayerModelInstance)), 0)
}

func (w *World) SetPosition(c Character, x, y, z float32) {
	w.Image.PutFloats(c.Primitive.Add(w.Offsets.Get(offsets.BasePartPosition)), x, y, z)
}

func (w *World) SetHealth(c Character, health, max float32) {
	w.Image.PutFloat32(c.Humanoid.Add(w.Offsets.Get(offsets.HumanoidHealth)), health)
	w.Image.PutFloat32(c.Humanoid.Add(w.Offsets.Get(offsets.HumanoidMaxHealth)), max)
}

func (w *World) SetWalkSpeed(c Character, speed float32) {
	w.Image.PutFloat32(c.Humanoid.Add(w.Offsets.Get(offsets.HumanoidWalkspeed)), speed)
}

func (w *World) SetPlaceID(id int64) {
	w.Image.PutUint64(w.DataModel.Add(w.Offsets.Get(offsets.DataModelPlaceID)), uint64(id))
}

func (w *World) SetViewMatrix(m [16]float32) {
	w.Image.PutFloats(w.VisualEngine.Add(w.Offsets.Get(offsets.VisualEngineViewMatrix)), m[:]...)
}

// BreakDataModel nulls the DataModel link, as seen while the client is between places.
func (w *World) BreakDataModel() {
	w.Image.PutPointer(w.fake.Add(w.Offsets.Get(offsets.FakeDataModelReal)), 0)
}

// ReplaceDataModel points the fake DataModel at a brand new, empty DataModel
// with its own Players service, as after a teleport.
func (w *World) ReplaceDataModel() {
	w.DataModel = w.NewInstance("Game", "DataModel")
	w.Players = w.NewInstance("Players", "Players")
	w.AddChild(w.DataModel, w.Workspace)
	w.AddChild(w.DataModel, w.Players)
	w.Image.PutPointer(w.DataModel.Add(w.Offsets.Get(offsets.DataModelWorkspace)), w.Workspace)
	w.RestoreDataModel()
}

func (w *World) RestoreDataModel() {
	w.Image.PutPointer(w.fake.Add(w.Offsets.Get(offsets.FakeDataModelReal)), w.DataModel)
}
