package process

import (
	"fmt"
	"unsafe"
)

// ReadPath reads a value of type T at the end of a pointer path.
// It starts at base, adds the first offset, reads a pointer, adds the next offset, reads a pointer, etc.
// The last offset is added to the final pointer, and then T is read from that address.
// If offsets is empty, it reads T from base.
func ReadPath[T any](proc Process, base ProcessMemoryAddress, offsets ...ProcessMemorySize) (T, error) {
	var zero T
	currentAddr := base

	for i := 0; i < len(offsets)-1; i++ {
		ptrAddr := currentAddr.Add(offsets[i])

		ptrVal, err := Read[uint64](proc, ptrAddr)
		if err != nil {
			return zero, fmt.Errorf("failed to read pointer at step %d (addr 0x%x): %w", i, uint64(ptrAddr), err)
		}

		if ptrVal == 0 {
			return zero, fmt.Errorf("pointer at step %d (addr 0x%x) is null: %w", i, uint64(ptrAddr), ErrInvalidPointer)
		}

		currentAddr = ProcessMemoryAddress(ptrVal)
	}

	finalOffset := ProcessMemorySize(0)
	if len(offsets) > 0 {
		finalOffset = offsets[len(offsets)-1]
	}

	finalAddr := currentAddr.Add(finalOffset)

	val, err := Read[T](proc, finalAddr)
	if err != nil {
		return zero, fmt.Errorf("failed to read final value at 0x%x: %w", uint64(finalAddr), err)
	}

	return val, nil
}

// Read reads a single plain value of type T from memory using the host layout.
// T must not contain Go pointers.
func Read[T any](proc Process, addr ProcessMemoryAddress) (T, error) {
	var t T
	size := ProcessMemorySize(unsafe.Sizeof(t))
	if size == 0 {
		return t, nil
	}

	data, err := proc.ReadMemory(addr, size)
	if err != nil {
		return t, err
	}
	if len(data) < int(size) {
		return t, fmt.Errorf("short read at 0x%x: %d of %d bytes", uint64(addr), len(data), size)
	}

	copy(unsafe.Slice((*byte)(unsafe.Pointer(&t)), int(size)), data)
	return t, nil
}
