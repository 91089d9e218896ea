package overlay

import (
	"context"
	"time"

	"memscene/coloransi"
	"memscene/entity"
	"memscene/features"

	"github.com/Moonlight-Companies/gologger/logger"
)

// DefaultFrameRate is how often the presenter samples the published snapshot.
const DefaultFrameRate = 60

// Source is anything that publishes snapshots, normally *entity.Cache.
type Source interface {
	Snapshot() *entity.Snapshot
}

type FrameWriter interface {
	WriteFrame(Frame) error
}

// Presenter samples the snapshot and flags at a fixed rate and writes a
// frame whenever either changed.
type Presenter struct {
	source   Source
	flags    *features.Flags
	out      FrameWriter
	interval time.Duration
	log      *logger.Logger

	last     *entity.Snapshot
	lastView features.View
	drawn    bool
}

func NewPresenter(source Source, flags *features.Flags, out FrameWriter, frameRate int) *Presenter {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return &Presenter{
		source:   source,
		flags:    flags,
		out:      out,
		interval: time.Second / time.Duration(frameRate),
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorTeal, coloransi.Black, "overlay")),
	}
}

// Present draws one frame if anything changed since the last one and
// reports whether it did.
func (p *Presenter) Present() bool {
	snap := p.source.Snapshot()
	view := p.flags.View()
	if p.drawn && snap == p.last && view == p.lastView {
		return false
	}
	p.last, p.lastView, p.drawn = snap, view, true

	if err := p.out.WriteFrame(Compose(snap, view)); err != nil {
		p.log.Warn("write frame: ", err)
	}
	return true
}

// Run presents until ctx is done.
func (p *Presenter) Run(ctx context.Context) error {
	p.log.Infoln("presenting every", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Present()
		}
	}
}
