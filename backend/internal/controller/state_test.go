package controller

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestTransitionEdges(t *testing.T) {
	tests := []struct {
		name      string
		old, new_ Button
		b         Button
		changed   bool
		wentDown  bool
		wentUp    bool
		down      bool
	}{
		{"idle", 0, 0, ButtonA, false, false, false, false},
		{"press", 0, ButtonA, ButtonA, true, true, false, true},
		{"held", ButtonA, ButtonA, ButtonA, false, false, false, true},
		{"release", ButtonA, 0, ButtonA, true, false, true, false},
		{"other button changes", ButtonB, ButtonA | ButtonB, ButtonB, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Transition{Old: RemoteState{Buttons: tt.old}, New: RemoteState{Buttons: tt.new_}}
			if got := tr.Changed(tt.b); got != tt.changed {
				t.Errorf("Changed = %v, want %v", got, tt.changed)
			}
			if got := tr.WentDown(tt.b); got != tt.wentDown {
				t.Errorf("WentDown = %v, want %v", got, tt.wentDown)
			}
			if got := tr.WentUp(tt.b); got != tt.wentUp {
				t.Errorf("WentUp = %v, want %v", got, tt.wentUp)
			}
			if got := tr.Down(tt.b); got != tt.down {
				t.Errorf("Down = %v, want %v", got, tt.down)
			}
		})
	}
}

func TestParseButtons(t *testing.T) {
	b, err := ParseButtons([]string{"grip", " Trigger", "menu"})
	if err != nil {
		t.Fatalf("ParseButtons() error = %v", err)
	}
	want := ButtonGripTrigger | ButtonTrigger | ButtonEnter
	if b != want {
		t.Errorf("ParseButtons() = %#x, want %#x", b, want)
	}

	_, err = ParseButtons([]string{"a", "select"})
	if !errors.Is(err, ErrUnknownButton) {
		t.Errorf("ParseButtons(select) error = %v, want ErrUnknownButton", err)
	}
}

func TestButtonNames(t *testing.T) {
	got := (ButtonA | ButtonEnter | ButtonJoystick).String()
	if got != "a|enter|joystick" {
		t.Errorf("String() = %q", got)
	}
	if got := Button(0).String(); got != "" {
		t.Errorf("empty String() = %q", got)
	}
}

func TestComputeDelta(t *testing.T) {
	base := Frame{
		LeftPose:  EmulatedPose(LeftHand),
		RightPose: EmulatedPose(RightHand),
	}

	t.Run("identical", func(t *testing.T) {
		if d := ComputeDelta(base, base); !d.IsEmpty() {
			t.Errorf("delta = %+v, want empty", d)
		}
	})

	t.Run("stick jitter below threshold", func(t *testing.T) {
		next := base
		next.Left.Joystick = mgl64.Vec2{0.005, 0}
		if d := ComputeDelta(base, next); !d.IsEmpty() {
			t.Errorf("delta = %+v, want empty", d)
		}
	})

	t.Run("button press", func(t *testing.T) {
		next := base
		next.Right.Buttons = ButtonA
		d := ComputeDelta(base, next)
		if d.Right == nil || d.Left != nil {
			t.Errorf("delta = %+v, want right only", d)
		}
	})

	t.Run("tracking lost", func(t *testing.T) {
		next := base
		next.LeftPose.Status = OrientationTracked
		d := ComputeDelta(base, next)
		if d.LeftPose == nil || d.RightPose != nil {
			t.Errorf("delta = %+v, want left pose only", d)
		}
	})
}

func TestTrackingPositionTracked(t *testing.T) {
	if !EmulatedPose(RightHand).PositionTracked() {
		t.Error("emulated pose should be position tracked")
	}
	if (Tracking{Status: OrientationTracked}).PositionTracked() {
		t.Error("orientation-only pose reported as position tracked")
	}
}
