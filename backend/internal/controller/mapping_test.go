package controller

import (
	"math"
	"testing"
)

func TestNormalizeTrigger(t *testing.T) {
	tests := []struct {
		raw, min, max int16
		want          float64
	}{
		{-32768, -32768, 32767, 0},
		{32767, -32768, 32767, 1},
		{0, 0, 32767, 0},
		{5, 5, 5, 0},
	}
	for _, tt := range tests {
		if got := NormalizeTrigger(tt.raw, tt.min, tt.max); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeTrigger(%d, %d, %d) = %v, want %v", tt.raw, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestGetMapping(t *testing.T) {
	if m := GetMapping(0x054C, 0x0CE6); m.Name != "playstation" {
		t.Errorf("DualSense mapping = %s", m.Name)
	}
	if m := GetMapping(0x1234, 0x5678); m.Name != "generic" {
		t.Errorf("unknown device mapping = %s", m.Name)
	}
}

func TestRemotes(t *testing.T) {
	in := RawInput{
		Axes: map[int32]int16{
			0: 32767,  // left stick full right
			1: -32767, // left stick up, inverted
			3: 100,    // right stick y inside deadzone
			4: 32767,  // left trigger pulled
			5: -32768, // right trigger released
		},
		Buttons: map[int32]bool{
			0: true, // A
			4: true, // LB -> left grip
			7: true, // start -> menu
		},
	}

	left, right := xboxMapping.Remotes(in, DefaultDeadzone)

	if left.Joystick.X() != 1 || left.Joystick.Y() != 1 {
		t.Errorf("left joystick = %v, want [1 1]", left.Joystick)
	}
	if right.Joystick.Y() != 0 {
		t.Errorf("right joystick y = %v, want 0", right.Joystick.Y())
	}

	wantLeft := ButtonTrigger | ButtonGripTrigger | ButtonEnter
	if left.Buttons != wantLeft {
		t.Errorf("left buttons = %v, want %v", left.Buttons, wantLeft)
	}
	if right.Buttons != ButtonA {
		t.Errorf("right buttons = %v, want a", right.Buttons)
	}
}
