package trace

import (
	"context"
	"log/slog"
	"time"

	"github.com/soar/vrinput/backend/internal/controller"
)

// Source plays a trace back in real time, stamping each frame with the wall
// clock time it is sent at.
type Source struct {
	trace  *Trace
	loop   bool
	frames chan controller.Frame
}

// NewSource returns a source that plays tr once, or forever when loop is set.
func NewSource(tr *Trace, loop bool) *Source {
	return &Source{
		trace:  tr,
		loop:   loop,
		frames: make(chan controller.Frame, 64),
	}
}

// Frames returns the channel on which frames are sent. It is closed when Run returns.
func (s *Source) Frames() <-chan controller.Frame {
	return s.frames
}

// Run sends every step at its offset from the start, repeating the trace
// when looping, until the trace ends or ctx is done.
func (s *Source) Run(ctx context.Context) error {
	defer close(s.frames)

	slog.Info("Trace playback started", "name", s.trace.Name, "steps", len(s.trace.Steps), "loop", s.loop)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	start := time.Now()
	period := s.trace.Duration()

	for cycle := 0; ; cycle++ {
		base := start.Add(time.Duration(cycle) * period)
		for _, step := range s.trace.Steps {
			due := base.Add(step.Offset)
			timer.Reset(time.Until(due))
			select {
			case <-ctx.Done():
				return nil
			case <-timer.C:
			}

			f := step.Frame
			f.Time = due
			select {
			case s.frames <- f:
			case <-ctx.Done():
				return nil
			}
		}

		if !s.loop {
			slog.Info("Trace playback finished", "name", s.trace.Name)
			return nil
		}
	}
}
