// Package process_blob provides an in-memory process image that satisfies
// process.Process. Pages are allocated on first write; reads of pages that
// were never written fail with process.ErrAddressNotMapped.
package process_blob

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"

	"memscene/process"
	"memscene/process/memory_map"
)

const pageSize = 0x1000

// ProcessImage is a sparse, writable memory image.
type ProcessImage struct {
	mu    sync.RWMutex
	pid   process.ProcessID
	base  process.ProcessMemoryAddress
	open  bool
	pages map[uint64][]byte

	// Faults makes reads touching the listed addresses fail, emulating pages
	// that vanish between two reads.
	faults map[process.ProcessMemoryAddress]bool
	// PanicOnRead makes every read panic, emulating a broken backend.
	PanicOnRead bool
}

var _ process.Process = (*ProcessImage)(nil)

// NewProcessImage creates an open image with the given pid and main module base.
func NewProcessImage(pid process.ProcessID, base process.ProcessMemoryAddress) *ProcessImage {
	return &ProcessImage{
		pid:    pid,
		base:   base,
		open:   true,
		pages:  make(map[uint64][]byte),
		faults: make(map[process.ProcessMemoryAddress]bool),
	}
}

func (p *ProcessImage) Open(pid process.ProcessID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pid = pid
	p.open = true
	return nil
}

func (p *ProcessImage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	return nil
}

// IsOpen reports whether Close has not been called since the last Open.
func (p *ProcessImage) IsOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.open
}

func (p *ProcessImage) GetPID() process.ProcessID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.open {
		return 0
	}
	return p.pid
}

func (p *ProcessImage) BaseAddress() process.ProcessMemoryAddress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.base
}

func (p *ProcessImage) UpdateMemoryMap() error {
	return nil // pages are the memory map
}

func (p *ProcessImage) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.pages[pageOf(uint64(addr))]
	return ok
}

// GetMemoryMap reports one read-write region per allocated page.
func (p *ProcessImage) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]memory_map.MemoryMapItem, 0, len(p.pages))
	for page := range p.pages {
		result = append(result, memory_map.MemoryMapItem{Address: page, Size: pageSize, Perms: "rw-p"})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Address < result[j].Address })
	return result, nil
}

func (p *ProcessImage) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.PanicOnRead {
		panic(fmt.Sprintf("read %s: backend failure", addr.ToString()))
	}
	if !p.open {
		return nil, process.ErrProcessNotOpen
	}
	if p.faults[addr] {
		return nil, fmt.Errorf("read %s: injected fault: %w", addr.ToString(), process.ErrAddressNotMapped)
	}

	out := make([]byte, size)
	cur := uint64(addr)
	for done := uint64(0); done < uint64(size); {
		page, ok := p.pages[pageOf(cur)]
		if !ok {
			return nil, fmt.Errorf("read %s: %w", process.ProcessMemoryAddress(cur).ToString(), process.ErrAddressNotMapped)
		}
		n := uint64(copy(out[done:], page[cur-pageOf(cur):]))
		done += n
		cur += n
	}
	return out, nil
}

// WriteMemory writes data, allocating zeroed pages as needed.
func (p *ProcessImage) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return process.ErrProcessNotOpen
	}
	p.writeLocked(addr, data)
	return nil
}

func (p *ProcessImage) writeLocked(addr process.ProcessMemoryAddress, data []byte) {
	cur := uint64(addr)
	for done := 0; done < len(data); {
		start := pageOf(cur)
		page, ok := p.pages[start]
		if !ok {
			page = make([]byte, pageSize)
			p.pages[start] = page
		}
		n := copy(page[cur-start:], data[done:])
		done += n
		cur += uint64(n)
	}
}

// Fault toggles an injected read failure at exactly addr.
func (p *ProcessImage) Fault(addr process.ProcessMemoryAddress, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if on {
		p.faults[addr] = true
	} else {
		delete(p.faults, addr)
	}
}

// PutPointer stores a 64-bit pointer.
func (p *ProcessImage) PutPointer(addr, value process.ProcessMemoryAddress) {
	p.PutUint64(addr, uint64(value))
}

func (p *ProcessImage) PutUint64(addr process.ProcessMemoryAddress, value uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	p.mustWrite(addr, buf[:])
}

func (p *ProcessImage) PutUint32(addr process.ProcessMemoryAddress, value uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	p.mustWrite(addr, buf[:])
}

func (p *ProcessImage) PutFloat32(addr process.ProcessMemoryAddress, value float32) {
	p.PutUint32(addr, math.Float32bits(value))
}

// PutFloats stores consecutive float32 values, e.g. a vector or a matrix.
func (p *ProcessImage) PutFloats(addr process.ProcessMemoryAddress, values ...float32) {
	for i, v := range values {
		p.PutFloat32(addr+process.ProcessMemoryAddress(4*i), v)
	}
}

// PutBytes stores raw bytes.
func (p *ProcessImage) PutBytes(addr process.ProcessMemoryAddress, data []byte) {
	p.mustWrite(addr, data)
}

// mustWrite edits the fixture regardless of the open state.
func (p *ProcessImage) mustWrite(addr process.ProcessMemoryAddress, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeLocked(addr, data)
}

func pageOf(addr uint64) uint64 {
	return addr &^ (pageSize - 1)
}
