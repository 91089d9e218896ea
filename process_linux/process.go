//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"memscene/coloransi"
	"memscene/process"
	"memscene/process/memory_map"

	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess implements the process.Process interface for Linux systems
type LinuxProcess struct {
	pid  process.ProcessID
	base process.ProcessMemoryAddress
	log  *logger.Logger
	mm   []memory_map.MemoryMapItem
	mu   sync.Mutex
}

var _ process.Process = (*LinuxProcess)(nil)

// New creates a new LinuxProcess instance
func New() process.Process {
	return &LinuxProcess{
		log: closedLogger(),
	}
}

// NewWithPID creates a new LinuxProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (process.Process, error) {
	p := &LinuxProcess{log: closedLogger()}
	err := p.Open(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func closedLogger() *logger.Logger {
	return logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))
}

func (p *LinuxProcess) Open(pid process.ProcessID) error {
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return fmt.Errorf("process with PID %d does not exist", pid)
	}

	p.mu.Lock()
	p.pid = pid
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
	p.mu.Unlock()

	if err := p.UpdateMemoryMap(); err != nil {
		p.reset()
		return fmt.Errorf("failed to initialize memory map: %w", err)
	}

	base := p.resolveBase(pid)

	p.mu.Lock()
	p.base = base
	p.mu.Unlock()

	if base == 0 {
		p.log.Warn("Main module base not found for pid ", pid)
	}

	p.log.Infoln("Process opened, base", base.ToString())

	return nil
}

// resolveBase finds the main module in the memory map. The exe link is tried first,
// then argv[0] (Wine hosts report the loader as exe), then comm.
func (p *LinuxProcess) resolveBase(pid process.ProcessID) process.ProcessMemoryAddress {
	p.mu.Lock()
	mm := p.mm
	p.mu.Unlock()

	procPath := fmt.Sprintf("/proc/%d", pid)
	var candidates []string

	if exe, err := os.Readlink(filepath.Join(procPath, "exe")); err == nil {
		candidates = append(candidates, filepath.Base(exe))
	}
	if cmdline, err := os.ReadFile(filepath.Join(procPath, "cmdline")); err == nil {
		argv0, _, _ := strings.Cut(string(cmdline), "\x00")
		if argv0 != "" {
			candidates = append(candidates, windowsBase(argv0))
		}
	}
	if comm, err := os.ReadFile(filepath.Join(procPath, "comm")); err == nil {
		candidates = append(candidates, strings.TrimSpace(string(comm)))
	}

	for _, name := range candidates {
		if base, ok := memory_map.ModuleBase(name, mm); ok {
			return process.ProcessMemoryAddress(base)
		}
	}
	return 0
}

func (p *LinuxProcess) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pid = 0
	p.base = 0
	p.mm = nil
	p.log = closedLogger()
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	wasOpen := p.pid != 0
	p.mu.Unlock()

	if !wasOpen {
		return nil
	}

	p.log.Infoln("Closing process")
	p.reset()

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *LinuxProcess) BaseAddress() process.ProcessMemoryAddress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base
}

func (p *LinuxProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.NewLinuxMemoryMap().ReadMemoryMap(int(pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	// FindRegion requires the memory map to be sorted by address
	memory_map.SortByAddress(mm)

	p.mu.Lock()
	p.mm = mm
	p.mu.Unlock()
	return nil
}

func (p *LinuxProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.isValidAddressInternal(addr)
}

// Internal helper function that assumes the mutex is already locked
func (p *LinuxProcess) isValidAddressInternal(addr process.ProcessMemoryAddress) bool {
	if addr <= 0x10000 {
		return false
	}

	if addr > 0x7FFFFFFFFFFF {
		return false
	}

	if item := memory_map.FindRegion(uint64(addr), p.mm); item != nil {
		return item.IsReadable()
	}

	return false
}

func (p *LinuxProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	// Make a copy of the memory map to prevent external modification
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)

	return result, nil
}

func windowsBase(p string) string {
	if i := strings.LastIndexAny(p, `\/`); i >= 0 {
		return p[i+1:]
	}
	return p
}
