package process

import (
	"fmt"
)

// PointerSize is the width of a pointer in the target process. Only 64-bit targets are supported.
const PointerSize = 8

// ProcessMemoryAddress represents a memory address within a foreign process.
// Zero means null; it is never dereferenced directly.
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

func (pma ProcessMemoryAddress) IsNull() bool {
	return pma == 0
}

// Add returns the address displaced by off bytes.
func (pma ProcessMemoryAddress) Add(off ProcessMemorySize) ProcessMemoryAddress {
	return pma + ProcessMemoryAddress(off)
}

// ProcessMemorySize represents a size or byte offset within a memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}
