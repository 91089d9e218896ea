package runner

import (
	"context"
	"sync/atomic"
	"time"

	"memscene/coloransi"
	"memscene/process"

	"github.com/Moonlight-Companies/gologger/logger"
	gopsprocess "github.com/shirou/gopsutil/v3/process"
)

const (
	DefaultInterval         = 5 * time.Millisecond
	DefaultLivenessInterval = time.Second
)

// Liveness reports whether pid still exists.
type Liveness func(pid process.ProcessID) bool

// PidAlive asks the OS through gopsutil. Lookup errors count as alive so a
// transient failure never drops the attachment.
func PidAlive(pid process.ProcessID) bool {
	ok, err := gopsprocess.PidExists(int32(pid))
	if err != nil {
		return true
	}
	return ok
}

// Updater is the only goroutine that runs refresh cycles.
type Updater struct {
	session          *Session
	interval         time.Duration
	livenessInterval time.Duration
	alive            Liveness
	now              func() time.Time
	log              *logger.Logger

	lastLiveness time.Time
	cycles       atomic.Uint64
	published    atomic.Uint64
	panics       atomic.Uint64
}

type Option func(*Updater)

func WithInterval(d time.Duration) Option {
	return func(u *Updater) {
		if d > 0 {
			u.interval = d
		}
	}
}

// WithLiveness checks the attached pid with alive every interval; a nil
// alive disables the check.
func WithLiveness(interval time.Duration, alive Liveness) Option {
	return func(u *Updater) {
		if interval > 0 {
			u.livenessInterval = interval
		}
		u.alive = alive
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *Updater) { u.now = now }
}

func NewUpdater(session *Session, opts ...Option) *Updater {
	u := &Updater{
		session:          session,
		interval:         DefaultInterval,
		livenessInterval: DefaultLivenessInterval,
		alive:            PidAlive,
		now:              time.Now,
		log:              logger.NewLogger(coloransi.Color(coloransi.Magenta, coloransi.Black, "updater")),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run loops until ctx is done. A panicking cycle is logged and skipped.
func (u *Updater) Run(ctx context.Context) error {
	u.log.Infoln("refreshing every", u.interval)
	defer func() {
		st := u.Stats()
		u.log.Infoln("stopped after", st.Cycles, "cycles,", st.Published, "published,", st.Panics, "panics")
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		u.Step()
		timer.Reset(u.interval)
	}
}

// Step runs the liveness check when due and one cycle. It never panics.
func (u *Updater) Step() (published bool) {
	defer func() {
		if r := recover(); r != nil {
			u.panics.Add(1)
			u.log.Warn("cycle panicked: ", r)
			published = false
		}
	}()

	u.cycles.Add(1)
	u.checkLiveness()
	if u.session.Cycle() {
		u.published.Add(1)
		return true
	}
	return false
}

func (u *Updater) checkLiveness() {
	if u.alive == nil || !u.session.Attached() {
		return
	}
	now := u.now()
	if !u.lastLiveness.IsZero() && now.Sub(u.lastLiveness) < u.livenessInterval {
		return
	}
	u.lastLiveness = now

	pid := u.session.PID()
	if pid == 0 || u.alive(pid) {
		return
	}
	u.log.Warn("pid ", pid, " exited")
	u.session.DetachIf(pid)
}

// Stats are counters since construction.
type Stats struct {
	Cycles, Published, Panics uint64
}

func (u *Updater) Stats() Stats {
	return Stats{Cycles: u.cycles.Load(), Published: u.published.Load(), Panics: u.panics.Load()}
}
