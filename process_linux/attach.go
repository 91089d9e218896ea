//go:build linux

package process_linux

import (
	"fmt"

	"memscene/process"
)

// OpenByName opens the lowest PID process matching name. It satisfies process.Opener.
func OpenByName(name string) (process.Process, error) {
	info, err := NewProcessFinder().OneByName(name)
	if err != nil {
		return nil, err
	}

	proc, err := NewWithPID(info.PID)
	if err != nil {
		return nil, fmt.Errorf("open %s (pid %d): %w", name, info.PID, err)
	}
	return proc, nil
}

var _ process.Opener = OpenByName
