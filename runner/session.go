// Package runner drives the refresh loop and serializes attach and detach
// against it.
package runner

import (
	"sync"

	"memscene/coloransi"
	"memscene/process"

	"github.com/Moonlight-Companies/gologger/logger"
)

// Accessor is the attachment half of remote.Accessor.
type Accessor interface {
	Attach(name string) bool
	Detach()
	Attached() bool
	PID() process.ProcessID
}

// Refresher is one refresh cycle plus a way to forget state, normally *entity.Cache.
type Refresher interface {
	Update() bool
	Reset()
}

type AttachResult struct {
	Name string
	PID  process.ProcessID
	OK   bool
}

// Session owns the lock that keeps attach and detach out of in-flight cycles.
type Session struct {
	mu    sync.Mutex
	mem   Accessor
	cache Refresher
	log   *logger.Logger
}

func NewSession(mem Accessor, cache Refresher) *Session {
	return &Session{
		mem:   mem,
		cache: cache,
		log:   logger.NewLogger(coloransi.Color(coloransi.Cyan, coloransi.Black, "session")),
	}
}

// Attach blocks until no cycle is running, then attaches by name.
func (s *Session) Attach(name string) AttachResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Reset()
	if !s.mem.Attach(name) {
		s.log.Warn("attach ", name, " failed")
		return AttachResult{Name: name}
	}
	pid := s.mem.PID()
	s.log.Infoln("attached to", name, "pid", pid)
	return AttachResult{Name: name, PID: pid, OK: true}
}

// AttachAsync attaches off the caller's goroutine; the channel receives
// exactly one result.
func (s *Session) AttachAsync(name string) <-chan AttachResult {
	done := make(chan AttachResult, 1)
	go func() {
		done <- s.Attach(name)
	}()
	return done
}

// Detach releases the process and publishes an empty snapshot. Safe to call
// when already detached.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachLocked()
}

func (s *Session) detachLocked() {
	if s.mem.Attached() {
		s.log.Infoln("detaching from pid", s.mem.PID())
	}
	s.mem.Detach()
	s.cache.Reset()
}

func (s *Session) Attached() bool {
	return s.mem.Attached()
}

func (s *Session) PID() process.ProcessID {
	return s.mem.PID()
}

// Cycle runs one refresh when attached.
func (s *Session) Cycle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mem.Attached() {
		return false
	}
	return s.cache.Update()
}

// DetachIf detaches when still attached to pid, so a stale liveness verdict
// cannot drop a newer attachment.
func (s *Session) DetachIf(pid process.ProcessID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mem.Attached() || s.mem.PID() != pid {
		return false
	}
	s.detachLocked()
	return true
}
