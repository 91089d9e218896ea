package process

import (
	"memscene/process/memory_map"
)

// BASEADDRESS is the conventional image base of a 64-bit PE module. Test images use it as their base.
var BASEADDRESS = ProcessMemoryAddress(0x140000000)

// Process is the interface that defines operations for interacting with a foreign process
type Process interface {
	// Open opens a process with the given PID for memory operations
	Open(pid ProcessID) error

	// Close closes the process and releases resources. Closing twice is not an error.
	Close() error

	// GetPID returns the process ID, zero when not open
	GetPID() ProcessID

	// BaseAddress returns the load address of the main executable module
	BaseAddress() ProcessMemoryAddress

	// UpdateMemoryMap refreshes the memory map for the process
	UpdateMemoryMap() error

	// IsValidAddress checks if the given memory address is valid and readable
	IsValidAddress(addr ProcessMemoryAddress) bool

	// GetMemoryMap returns a copy of the current memory map
	GetMemoryMap() ([]memory_map.MemoryMapItem, error)

	// ReadMemory reads memory from the process at the specified address
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// WriteMemory writes data to the process memory at the specified address
	WriteMemory(addr ProcessMemoryAddress, data []byte) error
}
