package controller

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Button is a tracked remote button bitmask, using the VR runtime's bit values.
type Button uint32

const (
	ButtonA           Button = 0x00000001
	ButtonB           Button = 0x00000002
	ButtonRThumb      Button = 0x00000004
	ButtonRShoulder   Button = 0x00000008
	ButtonX           Button = 0x00000100
	ButtonY           Button = 0x00000200
	ButtonLThumb      Button = 0x00000400
	ButtonLShoulder   Button = 0x00000800
	ButtonUp          Button = 0x00010000
	ButtonDown        Button = 0x00020000
	ButtonLeft        Button = 0x00040000
	ButtonRight       Button = 0x00080000
	ButtonEnter       Button = 0x00100000
	ButtonBack        Button = 0x00200000
	ButtonGripTrigger Button = 0x04000000
	ButtonTrigger     Button = 0x20000000
	ButtonJoystick    Button = 0x80000000
)

// ErrUnknownButton is returned by ParseButtons for names it does not know.
var ErrUnknownButton = errors.New("unknown button")

var buttonNames = map[string]Button{
	"a":         ButtonA,
	"b":         ButtonB,
	"rthumb":    ButtonRThumb,
	"rshoulder": ButtonRShoulder,
	"x":         ButtonX,
	"y":         ButtonY,
	"lthumb":    ButtonLThumb,
	"lshoulder": ButtonLShoulder,
	"up":        ButtonUp,
	"down":      ButtonDown,
	"left":      ButtonLeft,
	"right":     ButtonRight,
	"enter":     ButtonEnter,
	"menu":      ButtonEnter,
	"back":      ButtonBack,
	"grip":      ButtonGripTrigger,
	"trigger":   ButtonTrigger,
	"joystick":  ButtonJoystick,
}

// ParseButtons turns a list of button names into a mask.
func ParseButtons(names []string) (Button, error) {
	var b Button
	for _, n := range names {
		v, ok := buttonNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, errors.Wrapf(ErrUnknownButton, "%q", n)
		}
		b |= v
	}
	return b, nil
}

// Names lists the canonical names of the buttons set in b, sorted.
func (b Button) Names() []string {
	var out []string
	for name, v := range buttonNames {
		if name == "menu" {
			continue
		}
		if b&v != 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (b Button) String() string {
	return strings.Join(b.Names(), "|")
}

// TrackingStatus flags reported with every pose.
type TrackingStatus uint32

const (
	OrientationTracked TrackingStatus = 1 << 0
	PositionTracked    TrackingStatus = 1 << 1
	OrientationValid   TrackingStatus = 1 << 2
	PositionValid      TrackingStatus = 1 << 3
)

// FullyTracked is the status of a remote the runtime can see.
const FullyTracked = OrientationTracked | PositionTracked | OrientationValid | PositionValid

// RemoteState is the button and stick input of one tracked remote.
type RemoteState struct {
	Buttons  Button     `json:"buttons"`
	Joystick mgl64.Vec2 `json:"joystick"`
}

// Down reports whether any button in b is held.
func (s RemoteState) Down(b Button) bool {
	return s.Buttons&b != 0
}

// Tracking is the 6-DoF pose of a remote.
type Tracking struct {
	Status         TrackingStatus `json:"status"`
	Position       mgl64.Vec3     `json:"position"`
	Orientation    mgl64.Quat     `json:"orientation"`
	LinearVelocity mgl64.Vec3     `json:"linearVelocity"`
}

// PositionTracked reports whether the runtime currently tracks the remote's position.
func (t Tracking) PositionTracked() bool {
	return t.Status&PositionTracked != 0
}

// Frame is everything the mapping routine reads for one rendered frame.
type Frame struct {
	Time time.Time `json:"time"`

	Left      RemoteState `json:"left"`
	Right     RemoteState `json:"right"`
	LeftPose  Tracking    `json:"leftPose"`
	RightPose Tracking    `json:"rightPose"`

	HMDPosition mgl64.Vec3 `json:"hmdPosition"`
	// HMDAngles is pitch/yaw/roll of the headset in degrees.
	HMDAngles [3]float64 `json:"hmdAngles"`
	// ViewYaw is the engine's current view yaw, which includes snap turns.
	ViewYaw float64 `json:"viewYaw"`
	// PositionDelta is the headset translation since the previous frame.
	PositionDelta mgl64.Vec3 `json:"positionDelta"`

	Multiplayer bool `json:"multiplayer"`
	InMenu      bool `json:"inMenu"`
	Crouching   bool `json:"crouching"`
}

// Transition pairs the previous and current state of one remote.
type Transition struct {
	Old RemoteState
	New RemoteState
}

// Changed reports whether b differs between the two states.
func (t Transition) Changed(b Button) bool {
	return t.Old.Buttons&b != t.New.Buttons&b
}

// Down reports whether b is held now.
func (t Transition) Down(b Button) bool {
	return t.New.Down(b)
}

// WentDown reports a press edge.
func (t Transition) WentDown(b Button) bool {
	return t.Changed(b) && t.New.Down(b)
}

// WentUp reports a release edge.
func (t Transition) WentUp(b Button) bool {
	return t.Changed(b) && t.Old.Down(b)
}

// DeltaChanges holds the parts of a frame that differ from the previous one.
type DeltaChanges struct {
	Left      *RemoteState `json:"left,omitempty"`
	Right     *RemoteState `json:"right,omitempty"`
	LeftPose  *Tracking    `json:"leftPose,omitempty"`
	RightPose *Tracking    `json:"rightPose,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Left == nil &&
		d.Right == nil &&
		d.LeftPose == nil &&
		d.RightPose == nil
}

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

func remoteEqual(a, b RemoteState) bool {
	return a.Buttons == b.Buttons &&
		floatEqual(a.Joystick.X(), b.Joystick.X()) &&
		floatEqual(a.Joystick.Y(), b.Joystick.Y())
}

func trackingEqual(a, b Tracking) bool {
	if a.Status != b.Status {
		return false
	}
	for i := 0; i < 3; i++ {
		if !floatEqual(a.Position[i], b.Position[i]) {
			return false
		}
	}
	return a.Orientation.ApproxEqualThreshold(b.Orientation, analogThreshold)
}

// ComputeDelta compares the controller parts of two frames.
func ComputeDelta(old, new_ Frame) *DeltaChanges {
	d := &DeltaChanges{}

	if !remoteEqual(old.Left, new_.Left) {
		d.Left = &new_.Left
	}
	if !remoteEqual(old.Right, new_.Right) {
		d.Right = &new_.Right
	}
	if !trackingEqual(old.LeftPose, new_.LeftPose) {
		d.LeftPose = &new_.LeftPose
	}
	if !trackingEqual(old.RightPose, new_.RightPose) {
		d.RightPose = &new_.RightPose
	}

	return d
}
