package controller

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Hand selects which emulated tracked remote a gamepad input drives.
type Hand int

const (
	LeftHand Hand = iota
	RightHand
)

// AxisMapping defines how a raw gamepad axis drives a remote.
type AxisMapping struct {
	Index  int32
	Hand   Hand
	Target string // "stick_x", "stick_y", "trigger", "grip"
	Invert bool
	// For triggers: raw range. Some devices use -32768..32767, others 0..32767.
	RawMin int16
	RawMax int16
}

// ButtonMapping defines how a raw gamepad button drives a remote button.
type ButtonMapping struct {
	Index  int32
	Hand   Hand
	Button Button
}

// DeviceMapping lets a desktop gamepad stand in for a pair of tracked remotes.
type DeviceMapping struct {
	Name    string
	Axes    []AxisMapping
	Buttons []ButtonMapping
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

// NormalizeTrigger converts a raw trigger value to 0.0..1.0.
func NormalizeTrigger(raw int16, rawMin, rawMax int16) float64 {
	if rawMax == rawMin {
		return 0
	}
	v := (float64(raw) - float64(rawMin)) / (float64(rawMax) - float64(rawMin))
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}

// ApplyDeadzone returns 0 if the value is within the deadzone threshold.
func ApplyDeadzone(v float64, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

// DefaultDeadzone is the stick dead zone applied to raw gamepad axes.
const DefaultDeadzone = 0.05

// triggerPressThreshold is where an analog gamepad trigger counts as a
// digital remote trigger or grip press.
const triggerPressThreshold = 0.5

// Layout of a two-handed player standing at the origin, used for emulated poses.
var (
	defaultHMDPosition   = mgl64.Vec3{0, 1.6, 0}
	defaultLeftPosition  = mgl64.Vec3{-0.2, 1.2, -0.3}
	defaultRightPosition = mgl64.Vec3{0.2, 1.2, -0.3}
)

// EmulatedPose returns the fixed pose an emulated remote reports.
func EmulatedPose(h Hand) Tracking {
	pos := defaultLeftPosition
	if h == RightHand {
		pos = defaultRightPosition
	}
	return Tracking{
		Status:      FullyTracked,
		Position:    pos,
		Orientation: mgl64.QuatIdent(),
	}
}

// Built-in mappings. Face buttons follow the remote that carries them:
// A/B on the right remote, X/Y on the left.

var xboxMapping = &DeviceMapping{
	Name: "xbox",
	Axes: []AxisMapping{
		{Index: 0, Hand: LeftHand, Target: "stick_x"},
		{Index: 1, Hand: LeftHand, Target: "stick_y", Invert: true},
		{Index: 2, Hand: RightHand, Target: "stick_x"},
		{Index: 3, Hand: RightHand, Target: "stick_y", Invert: true},
		{Index: 4, Hand: LeftHand, Target: "trigger", RawMin: -32768, RawMax: 32767},
		{Index: 5, Hand: RightHand, Target: "trigger", RawMin: -32768, RawMax: 32767},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Hand: RightHand, Button: ButtonA},
		{Index: 1, Hand: RightHand, Button: ButtonB},
		{Index: 2, Hand: LeftHand, Button: ButtonX},
		{Index: 3, Hand: LeftHand, Button: ButtonY},
		{Index: 4, Hand: LeftHand, Button: ButtonGripTrigger},
		{Index: 5, Hand: RightHand, Button: ButtonGripTrigger},
		{Index: 7, Hand: LeftHand, Button: ButtonEnter},
		{Index: 8, Hand: LeftHand, Button: ButtonJoystick},
		{Index: 9, Hand: RightHand, Button: ButtonJoystick},
	},
}

var playstationMapping = &DeviceMapping{
	Name: "playstation",
	Axes: xboxMapping.Axes,
	Buttons: []ButtonMapping{
		{Index: 0, Hand: RightHand, Button: ButtonA}, // Cross
		{Index: 1, Hand: RightHand, Button: ButtonB}, // Circle
		{Index: 2, Hand: LeftHand, Button: ButtonX},  // Square
		{Index: 3, Hand: LeftHand, Button: ButtonY},  // Triangle
		{Index: 6, Hand: LeftHand, Button: ButtonEnter},
		{Index: 7, Hand: LeftHand, Button: ButtonJoystick},
		{Index: 8, Hand: RightHand, Button: ButtonJoystick},
		{Index: 9, Hand: LeftHand, Button: ButtonGripTrigger},   // L1
		{Index: 10, Hand: RightHand, Button: ButtonGripTrigger}, // R1
	},
}

var switchProMapping = &DeviceMapping{
	Name: "switch_pro",
	Axes: []AxisMapping{
		{Index: 0, Hand: LeftHand, Target: "stick_x"},
		{Index: 1, Hand: LeftHand, Target: "stick_y", Invert: true},
		{Index: 2, Hand: RightHand, Target: "stick_x"},
		{Index: 3, Hand: RightHand, Target: "stick_y", Invert: true},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Hand: RightHand, Button: ButtonA},
		{Index: 1, Hand: RightHand, Button: ButtonB},
		{Index: 2, Hand: LeftHand, Button: ButtonX},
		{Index: 3, Hand: LeftHand, Button: ButtonY},
		{Index: 4, Hand: LeftHand, Button: ButtonGripTrigger},
		{Index: 5, Hand: RightHand, Button: ButtonGripTrigger},
		{Index: 7, Hand: LeftHand, Button: ButtonEnter},
		{Index: 8, Hand: LeftHand, Button: ButtonJoystick},
		{Index: 9, Hand: RightHand, Button: ButtonJoystick},
		// No analog triggers: ZL/ZR arrive as buttons.
		{Index: 11, Hand: LeftHand, Button: ButtonTrigger},
		{Index: 12, Hand: RightHand, Button: ButtonTrigger},
	},
}

var genericMapping = &DeviceMapping{
	Name:    "generic",
	Axes:    xboxMapping.Axes,
	Buttons: xboxMapping.Buttons,
}

// Known vendor/product IDs.
type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping, // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping, // DualShock 4 v1
	// Nintendo Switch Pro Controller
	{0x057E, 0x2009}: switchProMapping,
}

// GetMapping returns the appropriate mapping for a device identified by vendor/product ID.
// Falls back to generic mapping if no specific mapping is found.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	key := deviceKey{VendorID: vendorID, ProductID: productID}
	if m, ok := knownDevices[key]; ok {
		return m
	}
	return genericMapping
}

// RawInput is one poll of a gamepad, indexed the way the device reports it.
type RawInput struct {
	Axes    map[int32]int16
	Buttons map[int32]bool
}

// Remotes converts a raw gamepad poll into the two emulated remote states.
func (m *DeviceMapping) Remotes(in RawInput, deadzone float64) (left, right RemoteState) {
	remotes := [2]*RemoteState{&left, &right}

	for _, am := range m.Axes {
		raw, ok := in.Axes[am.Index]
		if !ok {
			continue
		}
		r := remotes[am.Hand]
		switch am.Target {
		case "trigger", "grip":
			val := ApplyDeadzone(NormalizeTrigger(raw, am.RawMin, am.RawMax), deadzone)
			if val < triggerPressThreshold {
				continue
			}
			if am.Target == "trigger" {
				r.Buttons |= ButtonTrigger
			} else {
				r.Buttons |= ButtonGripTrigger
			}
		default:
			val := NormalizeAxis(raw)
			if am.Invert {
				val = -val
			}
			val = ApplyDeadzone(val, deadzone)
			if am.Target == "stick_x" {
				r.Joystick[0] = val
			} else {
				r.Joystick[1] = val
			}
		}
	}

	for _, bm := range m.Buttons {
		if in.Buttons[bm.Index] {
			remotes[bm.Hand].Buttons |= bm.Button
		}
	}
	return left, right
}

// EmulatedFrame returns a frame with both remotes at rest in front of the headset.
func EmulatedFrame(now time.Time) Frame {
	return Frame{
		Time:        now,
		LeftPose:    EmulatedPose(LeftHand),
		RightPose:   EmulatedPose(RightHand),
		HMDPosition: defaultHMDPosition,
	}
}
