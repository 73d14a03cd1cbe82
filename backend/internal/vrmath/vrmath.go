// Package vrmath holds the small amount of vector math needed to express
// controller poses in the engine's yaw-relative space.
package vrmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Indices into Angles, in engine order.
const (
	Pitch = 0
	Yaw   = 1
	Roll  = 2
)

const (
	stickDeadzone = 0.05
	angleEpsilon  = 1e-6
)

// Angles is a pitch/yaw/roll triple in degrees.
type Angles [3]float64

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return mgl64.RadToDeg(rad)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return mgl64.DegToRad(deg)
}

// Length returns the length of the 2-D vector (x, y).
func Length(x, y float64) float64 {
	return math.Hypot(x, y)
}

// Between reports whether min <= v <= max.
func Between(min, v, max float64) bool {
	return v >= min && v <= max
}

// RotateAboutOrigin rotates (x, y) counter-clockwise by the given angle in degrees.
func RotateAboutOrigin(x, y, degrees float64) mgl64.Vec2 {
	return mgl64.Rotate2D(Radians(degrees)).Mul2x1(mgl64.Vec2{x, y})
}

// RotateXZ rotates the horizontal components of v, leaving height untouched.
func RotateXZ(v mgl64.Vec3, degrees float64) mgl64.Vec3 {
	r := RotateAboutOrigin(v.X(), v.Z(), degrees)
	return mgl64.Vec3{r.X(), v.Y(), r.Y()}
}

// NonLinearFilter maps a stick deflection length to a multiplier for the
// stick axes. Deflections inside the dead zone give zero; the response is
// quadratic once the axes are scaled by the result.
func NonLinearFilter(length float64) float64 {
	if length <= stickDeadzone {
		return 0
	}
	v := (length - stickDeadzone) / (1 - stickDeadzone)
	if v > 1 {
		v = 1
	}
	return v
}

// QuatToAngles converts a VR runtime orientation into engine angles.
// pitchAdjust tilts the forward axis about the controller's local X axis
// before the conversion, in degrees.
func QuatToAngles(q mgl64.Quat, pitchAdjust float64) Angles {
	mat := q.Normalize().Mat4()
	if pitchAdjust != 0 {
		mat = mat.Mul4(mgl64.HomogRotate3DX(Radians(pitchAdjust)))
	}

	forward := toEngineAxes(mat.Mul4x1(mgl64.Vec4{0, 0, -1, 0}))
	right := toEngineAxes(mat.Mul4x1(mgl64.Vec4{1, 0, 0, 0}))
	up := toEngineAxes(mat.Mul4x1(mgl64.Vec4{0, 1, 0, 0}))

	return anglesFromVectors(forward, right, up)
}

// toEngineAxes maps the VR frame (x right, y up, -z forward) onto the
// engine frame (x forward, y left, z up).
func toEngineAxes(v mgl64.Vec4) mgl64.Vec3 {
	out := mgl64.Vec3{-v.Z(), -v.X(), v.Y()}
	if out.Len() == 0 {
		return out
	}
	return out.Normalize()
}

func anglesFromVectors(forward, right, up mgl64.Vec3) Angles {
	sp := -forward.Z()
	cpCy := forward.X()
	cpSy := forward.Y()
	cpSr := -right.Z()
	cpCr := up.Z()

	yaw := math.Atan2(cpSy, cpCy)
	roll := math.Atan2(cpSr, cpCr)

	cy, sy := math.Cos(yaw), math.Sin(yaw)
	cr, sr := math.Cos(roll), math.Sin(roll)

	var cp float64
	switch {
	case math.Abs(cy) > angleEpsilon:
		cp = cpCy / cy
	case math.Abs(sy) > angleEpsilon:
		cp = cpSy / sy
	case math.Abs(sr) > angleEpsilon:
		cp = cpSr / sr
	case math.Abs(cr) > angleEpsilon:
		cp = cpCr / cr
	default:
		cp = math.Cos(math.Asin(sp))
	}

	return Angles{
		Degrees(math.Atan2(sp, cp)),
		Degrees(yaw),
		Degrees(roll),
	}
}

// NormalizeYaw folds an angle into (-180, 180].
func NormalizeYaw(v float64) float64 {
	for v <= -180 {
		v += 360
	}
	for v > 180 {
		v -= 360
	}
	return v
}
