// Package process defines the raw foreign-process memory capability shared by
// the platform backends and the in-memory image used for replay and tests.
package process

import "errors"

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrRegionNotWritable is returned by WriteMemory when the target region lacks write permission.
	ErrRegionNotWritable = errors.New("region not writable")

	ErrInvalidPointer = errors.New("invalid pointer read")
)
