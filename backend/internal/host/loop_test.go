package host

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/soar/vrinput/backend/internal/controller"
	"github.com/soar/vrinput/backend/internal/cvar"
	"github.com/soar/vrinput/backend/internal/engine"
	"github.com/soar/vrinput/backend/internal/mapper"
	"github.com/soar/vrinput/backend/internal/vrmath"
)

func newLoop(opts Options) *Loop {
	cvars := cvar.NewRegistry()
	mapper.RegisterCvars(cvars)
	rec := engine.NewRecorder()
	return NewLoop(mapper.New(cvars, rec), rec, opts)
}

func frames(fs ...controller.Frame) <-chan controller.Frame {
	ch := make(chan controller.Frame, len(fs))
	for _, f := range fs {
		ch <- f
	}
	close(ch)
	return ch
}

func frameAt(i int, change func(f *controller.Frame)) controller.Frame {
	f := controller.EmulatedFrame(time.Unix(0, 0).Add(time.Duration(i) * 10 * time.Millisecond))
	if change != nil {
		change(&f)
	}
	return f
}

func drain(l *Loop) []Report {
	var out []Report
	for r := range l.Reports() {
		out = append(out, r)
	}
	return out
}

func TestLoopReportsEvents(t *testing.T) {
	l := newLoop(Options{})
	in := frames(
		frameAt(0, nil),
		frameAt(1, func(f *controller.Frame) { f.Left.Buttons = controller.ButtonTrigger }),
		frameAt(2, nil),
	)
	if err := l.Run(context.Background(), in); err != nil {
		t.Fatal(err)
	}

	reports := drain(l)
	if len(reports) != 3 {
		t.Fatalf("reports = %d, want 3", len(reports))
	}
	for i, r := range reports {
		if r.Seq != int64(i+1) {
			t.Errorf("report %d seq = %d", i, r.Seq)
		}
	}
	if len(reports[0].Events) != 0 {
		t.Errorf("report 0 events = %v", reports[0].Events)
	}
	got := engine.Lines(reports[1].Events)
	if len(got) != 1 || got[0] != "+attack" {
		t.Errorf("report 1 lines = %q", got)
	}
	if got := engine.Lines(reports[2].Events); len(got) != 1 || got[0] != "-attack" {
		t.Errorf("report 2 lines = %q", got)
	}
	if !reports[2].Time.Equal(time.Unix(0, 0).Add(20 * time.Millisecond)) {
		t.Errorf("report time = %v", reports[2].Time)
	}
}

func TestLoopDropsWhenFull(t *testing.T) {
	l := newLoop(Options{Buffer: 2})
	in := frames(frameAt(0, nil), frameAt(1, nil), frameAt(2, nil), frameAt(3, nil))
	if err := l.Run(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	reports := drain(l)
	if len(reports) != 2 || reports[1].Seq != 2 {
		t.Errorf("reports = %+v, want the first two", reports)
	}
	if l.dropped != 2 {
		t.Errorf("dropped = %d, want 2", l.dropped)
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	l := newLoop(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, make(chan controller.Frame)) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, ok := <-l.Reports(); ok {
		t.Error("reports channel not closed")
	}
}

func TestLoopFollowSnapTurn(t *testing.T) {
	l := newLoop(Options{FollowSnapTurn: true})
	stick := func(x float64) func(f *controller.Frame) {
		return func(f *controller.Frame) {
			f.Left.Joystick = mgl64.Vec2{x, 0}
			f.HMDAngles[vrmath.Yaw] = 10
			f.LeftPose.Position = mgl64.Vec3{0.1, 1.2, -0.3}
		}
	}
	in := frames(frameAt(0, stick(0.9)), frameAt(1, stick(0)))
	if err := l.Run(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	reports := drain(l)

	if got := reports[0].Output.Mode.SnapTurn; got != -45 {
		t.Fatalf("snap = %v, want -45", got)
	}
	// First frame: view yaw equals head yaw so the weapon yaw is unchanged.
	if got := reports[0].Output.Weapon.Angles.Unadjusted[vrmath.Yaw]; got != 0 {
		t.Errorf("frame 0 weapon yaw = %v, want 0", got)
	}
	// Second frame: view yaw lags the head by the snap turn.
	if got := reports[1].Output.Weapon.Angles.Unadjusted[vrmath.Yaw]; got != -45 {
		t.Errorf("frame 1 weapon yaw = %v, want -45", got)
	}
}

// feedLoop runs the loop over everything pushed to a controller feed, the way
// the gamepad reader delivers one frame per poll tick.
func feedLoop(t *testing.T, cvars map[string]string, push func(feed *controller.Feed)) []Report {
	t.Helper()
	reg := cvar.NewRegistry()
	mapper.RegisterCvars(reg)
	if err := reg.Apply(cvars); err != nil {
		t.Fatal(err)
	}
	rec := engine.NewRecorder()
	l := NewLoop(mapper.New(reg, rec), rec, Options{})

	feed := controller.NewFeed(frameAt(0, nil), 32)
	push(feed)
	feed.Close()
	if err := l.Run(context.Background(), feed.Frames()); err != nil {
		t.Fatal(err)
	}
	return drain(l)
}

func TestLoopFinishesReloadOnIdleFrames(t *testing.T) {
	reports := feedLoop(t, nil, func(feed *controller.Feed) {
		feed.Push(frameAt(1, func(f *controller.Frame) { f.Left.Buttons = controller.ButtonGripTrigger }))
		for i := 2; i < 6; i++ {
			feed.Push(frameAt(i, nil))
		}
	})

	var lines []string
	for _, r := range reports {
		lines = append(lines, engine.Lines(r.Events)...)
	}
	if len(lines) != 2 || lines[0] != "+reload" || lines[1] != "-reload" {
		t.Errorf("lines = %q, want [+reload -reload]", lines)
	}
}

func TestLoopRepeatsSmallSnapTurnWhileHeld(t *testing.T) {
	reports := feedLoop(t, map[string]string{mapper.CvarSnapTurnAngle: "5"}, func(feed *controller.Feed) {
		for i := 1; i <= 4; i++ {
			feed.Push(frameAt(i, func(f *controller.Frame) { f.Left.Joystick = mgl64.Vec2{0.9, 0} }))
		}
	})

	if len(reports) != 4 {
		t.Fatalf("reports = %d, want 4", len(reports))
	}
	if got := reports[3].Output.Mode.SnapTurn; got != -20 {
		t.Errorf("snap = %v, want -20", got)
	}
}
