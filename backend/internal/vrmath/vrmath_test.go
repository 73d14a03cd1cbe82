package vrmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-6

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestRotateAboutOrigin(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		degrees float64
		want    mgl64.Vec2
	}{
		{"zero", 1, 0, 0, mgl64.Vec2{1, 0}},
		{"quarter", 1, 0, 90, mgl64.Vec2{0, 1}},
		{"negative quarter", 1, 0, -90, mgl64.Vec2{0, -1}},
		{"half", 0, 1, 180, mgl64.Vec2{0, -1}},
		{"forward to left", 0, 1, 90, mgl64.Vec2{-1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RotateAboutOrigin(tt.x, tt.y, tt.degrees)
			if !near(got.X(), tt.want.X()) || !near(got.Y(), tt.want.Y()) {
				t.Errorf("RotateAboutOrigin(%v, %v, %v) = %v, want %v", tt.x, tt.y, tt.degrees, got, tt.want)
			}
		})
	}
}

func TestRotateXZKeepsHeight(t *testing.T) {
	got := RotateXZ(mgl64.Vec3{1, 0.7, 0}, 90)
	if !near(got.X(), 0) || !near(got.Y(), 0.7) || !near(got.Z(), 1) {
		t.Errorf("RotateXZ = %v, want [0 0.7 1]", got)
	}
}

func TestQuatToAngles(t *testing.T) {
	tests := []struct {
		name        string
		q           mgl64.Quat
		pitchAdjust float64
		want        Angles
	}{
		{"identity", mgl64.QuatIdent(), 0, Angles{0, 0, 0}},
		{"turned left", mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}), 0, Angles{0, 90, 0}},
		{"turned right", mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{0, 1, 0}), 0, Angles{0, -90, 0}},
		{"looking up", mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{1, 0, 0}), 0, Angles{-45, 0, 0}},
		{"pitch adjust down", mgl64.QuatIdent(), -30, Angles{30, 0, 0}},
		{"pitch adjust cancels", mgl64.QuatRotate(mgl64.DegToRad(20), mgl64.Vec3{1, 0, 0}), -20, Angles{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuatToAngles(tt.q, tt.pitchAdjust)
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-4 {
					t.Errorf("QuatToAngles() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestQuatToAnglesRoll(t *testing.T) {
	// Rolling clockwise about the forward axis.
	q := mgl64.QuatRotate(mgl64.DegToRad(-30), mgl64.Vec3{0, 0, -1})
	got := QuatToAngles(q, 0)
	if math.Abs(math.Abs(got[Roll])-30) > 1e-4 {
		t.Errorf("roll = %v, want magnitude 30", got[Roll])
	}
	if math.Abs(got[Pitch]) > 1e-4 || math.Abs(got[Yaw]) > 1e-4 {
		t.Errorf("pitch/yaw = %v/%v, want 0/0", got[Pitch], got[Yaw])
	}
}

func TestNonLinearFilter(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.05, 0},
		{1, 1},
		{1.4, 1},
		{0.525, 0.5},
	}
	for _, tt := range tests {
		if got := NonLinearFilter(tt.in); !near(got, tt.want) {
			t.Errorf("NonLinearFilter(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBetween(t *testing.T) {
	if !Between(0.4, 0.4, 1) || !Between(0.4, 1, 1) {
		t.Error("Between should be inclusive")
	}
	if Between(0.4, 0.39, 1) || Between(-1, -0.3, -0.4) {
		t.Error("Between accepted an out of range value")
	}
}

func TestNormalizeYaw(t *testing.T) {
	tests := map[float64]float64{
		0:    0,
		180:  180,
		-180: 180,
		190:  -170,
		-370: -10,
		540:  180,
	}
	for in, want := range tests {
		if got := NormalizeYaw(in); !near(got, want) {
			t.Errorf("NormalizeYaw(%v) = %v, want %v", in, got, want)
		}
	}
}
