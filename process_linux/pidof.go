//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"memscene/process"
)

// comm is truncated by the kernel to TASK_COMM_LEN-1 bytes
const commLength = 15

// LinuxProcessFinder implements the process.ProcessFinder interface over /proc
type LinuxProcessFinder struct {
	procRoot string
}

var _ process.ProcessFinder = (*LinuxProcessFinder)(nil)

// NewProcessFinder creates a new LinuxProcessFinder
func NewProcessFinder() *LinuxProcessFinder {
	return &LinuxProcessFinder{procRoot: "/proc"}
}

// FindProcessByName returns all processes whose comm, exe basename or argv[0] basename equals name.
// Windows style executables hosted by Wine are matched through argv[0], case-insensitively.
func (f *LinuxProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, errors.New("empty name")
	}

	entries, err := os.ReadDir(f.procRoot)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.procRoot, err)
	}

	selfPID := os.Getpid()
	var out []process.ProcessInfo

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue // not a PID dir
		}
		if pid == selfPID {
			continue
		}

		info := f.readInfo(pid)
		if matchesName(info, name) {
			out = append(out, info)
		}
	}

	return out, nil
}

// OneByName returns the first match for name (lowest PID), or os.ErrNotExist if none.
func (f *LinuxProcessFinder) OneByName(name string) (process.ProcessInfo, error) {
	ps, err := f.FindProcessByName(name)
	if err != nil {
		return process.ProcessInfo{}, err
	}
	if len(ps) == 0 {
		return process.ProcessInfo{}, fmt.Errorf("no process named %q: %w", name, os.ErrNotExist)
	}
	// pick the lowest PID for determinism
	minIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i].PID < ps[minIdx].PID {
			minIdx = i
		}
	}
	return ps[minIdx], nil
}

// readInfo is best-effort: zombies and foreign users leave fields empty.
func (f *LinuxProcessFinder) readInfo(pid int) process.ProcessInfo {
	dir := filepath.Join(f.procRoot, strconv.Itoa(pid))
	info := process.ProcessInfo{PID: process.ProcessID(pid)}

	if comm, err := os.ReadFile(filepath.Join(dir, "comm")); err == nil {
		info.Name = strings.TrimSpace(string(comm))
	}
	if exe, err := os.Readlink(filepath.Join(dir, "exe")); err == nil {
		info.Exe = exe
	}
	if cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil {
		info.Argv0, _, _ = strings.Cut(string(cmdline), "\x00")
	}
	return info
}

func matchesName(info process.ProcessInfo, name string) bool {
	if info.Name != "" {
		if info.Name == name {
			return true
		}
		if len(name) > commLength && info.Name == name[:commLength] {
			return true
		}
	}
	if info.Exe != "" && filepath.Base(info.Exe) == name {
		return true
	}
	if info.Argv0 != "" && strings.EqualFold(windowsBase(info.Argv0), name) {
		return true
	}
	return false
}
