// Package remote is the fail-safe boundary over a foreign process's memory.
// Every read returns the type's zero value when detached or on any fault, and
// every write reports success as a boolean. Nothing below this package is
// allowed to surface an error or a panic to the refresh loop.
package remote

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unicode/utf8"

	"memscene/coloransi"
	"memscene/process"

	"github.com/Moonlight-Companies/gologger/logger"
)

// MaxReadSize bounds a single read so a corrupt length can never allocate unbounded memory.
const MaxReadSize = 1 << 20

// Accessor owns the attachment to one foreign process.
type Accessor struct {
	mu   sync.RWMutex
	proc process.Process
	pid  process.ProcessID
	base process.ProcessMemoryAddress

	open process.Opener
	log  *logger.Logger
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithOpener sets how Attach resolves a process name.
func WithOpener(open process.Opener) Option {
	return func(a *Accessor) {
		a.open = open
	}
}

// New creates a detached accessor.
func New(opts ...Option) *Accessor {
	a := &Accessor{
		log: logger.NewLogger(coloransi.Color(coloransi.ColorLimeGreen, coloransi.Black, "remote")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attach opens the first process named name. Any previous attachment is released first.
func (a *Accessor) Attach(name string) bool {
	if a.open == nil {
		a.log.Warn("attach ", name, ": no opener configured")
		return false
	}

	proc, err := a.openSafe(name)
	if err != nil {
		a.log.Warn("attach ", name, ": ", err)
		return false
	}
	return a.AttachProcess(proc)
}

func (a *Accessor) openSafe(name string) (proc process.Process, err error) {
	defer func() {
		if r := recover(); r != nil {
			proc, err = nil, fmt.Errorf("opener panic: %v", r)
		}
	}()
	return a.open(name)
}

// AttachProcess adopts an already opened process.
func (a *Accessor) AttachProcess(proc process.Process) bool {
	if proc == nil {
		return false
	}

	pid := proc.GetPID()
	base := proc.BaseAddress()

	a.Detach()

	a.mu.Lock()
	a.proc = proc
	a.pid = pid
	a.base = base
	a.mu.Unlock()

	a.log.Infoln("attached to pid", pid, "base", base.ToString())
	return true
}

// Detach releases the process handle. It is idempotent.
func (a *Accessor) Detach() {
	a.mu.Lock()
	proc := a.proc
	pid := a.pid
	a.proc = nil
	a.pid = 0
	a.base = 0
	a.mu.Unlock()

	if proc == nil {
		return
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				a.log.Warn("close pid ", pid, " panicked: ", r)
			}
		}()
		if err := proc.Close(); err != nil {
			a.log.Warn("close pid ", pid, ": ", err)
		}
	}()

	a.log.Infoln("detached from pid", pid)
}

func (a *Accessor) Attached() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.proc != nil
}

func (a *Accessor) PID() process.ProcessID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pid
}

// BaseAddress is the load address of the attached process's main module.
func (a *Accessor) BaseAddress() process.ProcessMemoryAddress {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.base
}

// read returns exactly size bytes or nil.
func (a *Accessor) read(addr process.ProcessMemoryAddress, size int) (data []byte) {
	if addr == 0 || size <= 0 || size > MaxReadSize {
		return nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.proc == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			data = nil
		}
	}()

	data, err := a.proc.ReadMemory(addr, process.ProcessMemorySize(size))
	if err != nil || len(data) != size {
		return nil
	}
	return data
}

func (a *Accessor) write(addr process.ProcessMemoryAddress, data []byte) (ok bool) {
	if addr == 0 {
		return false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.proc == nil {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	return a.proc.WriteMemory(addr, data) == nil
}

// ReadBytes returns length bytes at addr, or nil on failure.
func (a *Accessor) ReadBytes(addr process.ProcessMemoryAddress, length int) []byte {
	return a.read(addr, length)
}

func (a *Accessor) ReadInt32(addr process.ProcessMemoryAddress) int32 {
	data := a.read(addr, 4)
	if data == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(data))
}

func (a *Accessor) ReadInt64(addr process.ProcessMemoryAddress) int64 {
	data := a.read(addr, 8)
	if data == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(data))
}

func (a *Accessor) ReadFloat32(addr process.ProcessMemoryAddress) float32 {
	data := a.read(addr, 4)
	if data == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

func (a *Accessor) ReadFloat64(addr process.ProcessMemoryAddress) float64 {
	data := a.read(addr, 8)
	if data == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data))
}

// ReadPointer reads a 64-bit pointer.
func (a *Accessor) ReadPointer(addr process.ProcessMemoryAddress) process.ProcessMemoryAddress {
	return process.ProcessMemoryAddress(a.ReadInt64(addr))
}

// ReadVector3f reads three consecutive float32 values.
func (a *Accessor) ReadVector3f(addr process.ProcessMemoryAddress) [3]float32 {
	var v [3]float32
	data := a.read(addr, 12)
	if data == nil {
		return v
	}
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v
}

// ReadMatrix16f reads a row-major 4x4 float32 matrix. ok is false when the read failed.
func (a *Accessor) ReadMatrix16f(addr process.ProcessMemoryAddress) (m [16]float32, ok bool) {
	data := a.read(addr, 64)
	if data == nil {
		return m, false
	}
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return m, true
}

// ReadString reads a null-terminated string of at most maxLength bytes.
// Invalid UTF-8 sequences are dropped.
func (a *Accessor) ReadString(addr process.ProcessMemoryAddress, maxLength int) string {
	data := a.read(addr, maxLength)
	if data == nil {
		return ""
	}
	for i, b := range data {
		if b == 0 {
			data = data[:i]
			break
		}
	}
	if utf8.Valid(data) {
		return string(data)
	}
	out := make([]rune, 0, len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size > 1 {
			out = append(out, r)
		}
		data = data[size:]
	}
	return string(out)
}

// ReadChain follows base+offsets[0] -> ptr, ptr+offsets[1] -> ptr, ... and
// returns the pointer stored at the final displacement, or zero.
func (a *Accessor) ReadChain(base process.ProcessMemoryAddress, offsets ...process.ProcessMemorySize) process.ProcessMemoryAddress {
	if base == 0 {
		return 0
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.proc == nil {
		return 0
	}

	var v uint64
	func() {
		defer func() {
			if r := recover(); r != nil {
				v = 0
			}
		}()
		var err error
		v, err = process.ReadPath[uint64](a.proc, base, offsets...)
		if err != nil {
			v = 0
		}
	}()
	return process.ProcessMemoryAddress(v)
}

func (a *Accessor) WriteInt32(addr process.ProcessMemoryAddress, value int32) bool {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(value))
	return a.write(addr, buf[:])
}

func (a *Accessor) WriteFloat32(addr process.ProcessMemoryAddress, value float32) bool {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(value))
	return a.write(addr, buf[:])
}
