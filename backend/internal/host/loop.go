// Package host runs the per-frame loop that feeds controller frames through
// the input mapping and publishes what came out.
package host

import (
	"context"
	"log/slog"
	"time"

	"github.com/soar/vrinput/backend/internal/controller"
	"github.com/soar/vrinput/backend/internal/engine"
	"github.com/soar/vrinput/backend/internal/mapper"
	"github.com/soar/vrinput/backend/internal/vrmath"
)

// Mapper is the per-frame mapping routine.
type Mapper interface {
	Update(f controller.Frame) mapper.Output
	SnapTurn() float64
}

// Report is the result of one frame.
type Report struct {
	Seq    int64          `json:"seq"`
	Time   time.Time      `json:"time"`
	Output mapper.Output  `json:"output"`
	Events []engine.Event `json:"events,omitempty"`
}

// Options configure a Loop.
type Options struct {
	// FollowSnapTurn derives the frame's view yaw from the headset yaw and the
	// accumulated snap turn, standing in for an engine that applies snap turns.
	FollowSnapTurn bool
	// Buffer is the report channel capacity.
	Buffer int
}

// Loop runs the mapping once per incoming frame and reports the result.
type Loop struct {
	mapper  Mapper
	rec     *engine.Recorder
	opts    Options
	reports chan Report
	seq     int64
	dropped int64
}

// NewLoop creates a loop that calls m once per frame. rec must be one of the
// dispatchers m sends to; its events are drained into each Report.
func NewLoop(m Mapper, rec *engine.Recorder, opts Options) *Loop {
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	return &Loop{
		mapper:  m,
		rec:     rec,
		opts:    opts,
		reports: make(chan Report, opts.Buffer),
	}
}

// Reports returns the channel on which reports are sent. It is closed when Run returns.
func (l *Loop) Reports() <-chan Report {
	return l.reports
}

// Run processes frames until the channel is closed or ctx is done.
func (l *Loop) Run(ctx context.Context, frames <-chan controller.Frame) error {
	defer close(l.reports)

	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-frames:
			if !ok {
				if l.dropped > 0 {
					slog.Warn("Reports dropped", "count", l.dropped)
				}
				return nil
			}
			l.step(f)
		}
	}
}

func (l *Loop) step(f controller.Frame) {
	if l.opts.FollowSnapTurn {
		f.ViewYaw = vrmath.NormalizeYaw(f.HMDAngles[vrmath.Yaw] + l.mapper.SnapTurn())
	}

	out := l.mapper.Update(f)
	events := l.rec.Drain()

	l.seq++
	r := Report{Seq: l.seq, Time: f.Time, Output: out, Events: events}
	for _, e := range events {
		slog.Debug("Engine event", "seq", r.Seq, "event", e.String())
	}

	select {
	case l.reports <- r:
	default:
		// Drop if nobody is keeping up; the next full sync repairs viewers.
		l.dropped++
	}
}
