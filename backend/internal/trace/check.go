package trace

import (
	"fmt"
	"strings"

	"github.com/soar/vrinput/backend/internal/controller"
	"github.com/soar/vrinput/backend/internal/engine"
	"github.com/soar/vrinput/backend/internal/mapper"
)

// Mapper is the per-frame mapping routine a trace is replayed through.
type Mapper interface {
	Update(f controller.Frame) mapper.Output
}

// Mismatch is a checked step whose console lines differ from the expectation.
type Mismatch struct {
	Step     int
	Expected []string
	Actual   []string
}

// MismatchError lists every checked step of a trace whose output differed.
type MismatchError struct {
	Trace      string
	Steps      int
	Mismatches []Mismatch
}

func (e *MismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "trace %q: %d of %d steps mismatched", e.Trace, len(e.Mismatches), e.Steps)
	for _, m := range e.Mismatches {
		fmt.Fprintf(&b, "\n  step %d: expected %q, got %q", m.Step, m.Expected, m.Actual)
	}
	return b.String()
}

// Check replays every step through m without pacing and compares what rec
// captured for each checked step. It returns a *MismatchError if any differ.
func Check(tr *Trace, m Mapper, rec *engine.Recorder) error {
	rec.Drain()

	var mismatches []Mismatch
	for i, s := range tr.Steps {
		m.Update(s.Frame)
		got := engine.Lines(rec.Drain())
		if !s.Checked() || equalLines(s.Expect, got) {
			continue
		}
		mismatches = append(mismatches, Mismatch{Step: i, Expected: s.Expect, Actual: got})
	}

	if len(mismatches) > 0 {
		return &MismatchError{Trace: tr.Name, Steps: len(tr.Steps), Mismatches: mismatches}
	}
	return nil
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
