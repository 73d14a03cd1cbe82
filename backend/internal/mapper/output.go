package mapper

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/soar/vrinput/backend/internal/vrmath"
)

// Duck is the player's crouch state as the engine sees it.
type Duck int

const (
	NotDucked Duck = iota
	// DuckButton is a crouch held with the X button.
	DuckButton
	// DuckCrouched is a physical crouch reported by the host.
	DuckCrouched
)

func (d Duck) String() string {
	switch d {
	case DuckButton:
		return "button"
	case DuckCrouched:
		return "crouched"
	default:
		return "none"
	}
}

// WeaponAngles are the three aim variants the engine picks from per weapon.
type WeaponAngles struct {
	Adjusted   vrmath.Angles `json:"adjusted"`
	Unadjusted vrmath.Angles `json:"unadjusted"`
	Melee      vrmath.Angles `json:"melee"`
}

// WeaponState is the dominant remote as the engine weapon model sees it.
type WeaponState struct {
	Offset   mgl64.Vec3   `json:"offset"`
	Velocity mgl64.Vec3   `json:"velocity"`
	Angles   WeaponAngles `json:"angles"`
}

// FlashlightState is the off-hand remote pose.
type FlashlightState struct {
	Offset mgl64.Vec3    `json:"offset"`
	Angles vrmath.Angles `json:"angles"`
}

// MovementState holds movement axis values in engine move units.
type MovementState struct {
	PositionalSideways float64 `json:"positionalSideways"`
	PositionalForward  float64 `json:"positionalForward"`
	RemoteSideways     float64 `json:"remoteSideways"`
	RemoteForward      float64 `json:"remoteForward"`
	PlayerMoving       bool    `json:"playerMoving"`
}

// ModeState holds the toggles and modes the mapping keeps between frames.
type ModeState struct {
	SnapTurn           float64 `json:"snapTurn"`
	Duck               Duck    `json:"duck"`
	ShowingScreenLayer bool    `json:"showingScreenLayer"`
	WeaponStabilised   bool    `json:"weaponStabilised"`
	LaserSight         bool    `json:"laserSight"`
	SelectingWeapon    bool    `json:"selectingWeapon"`
	MeleeGrab          bool    `json:"meleeGrab"`
}

// Output is every scalar the view and movement layers consume after a frame.
// Values not recomputed in a frame (menu mode) keep their previous value.
type Output struct {
	Weapon     WeaponState     `json:"weapon"`
	Flashlight FlashlightState `json:"flashlight"`
	Movement   MovementState   `json:"movement"`
	Mode       ModeState       `json:"mode"`
}

// DeltaChanges holds the sections of an Output that changed.
type DeltaChanges struct {
	Weapon     *WeaponState     `json:"weapon,omitempty"`
	Flashlight *FlashlightState `json:"flashlight,omitempty"`
	Movement   *MovementState   `json:"movement,omitempty"`
	Mode       *ModeState       `json:"mode,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Weapon == nil &&
		d.Flashlight == nil &&
		d.Movement == nil &&
		d.Mode == nil
}

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

func vecEqual(a, b []float64) bool {
	for i := range a {
		if !floatEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func weaponEqual(a, b WeaponState) bool {
	return vecEqual(a.Offset[:], b.Offset[:]) &&
		vecEqual(a.Velocity[:], b.Velocity[:]) &&
		vecEqual(a.Angles.Adjusted[:], b.Angles.Adjusted[:]) &&
		vecEqual(a.Angles.Unadjusted[:], b.Angles.Unadjusted[:]) &&
		vecEqual(a.Angles.Melee[:], b.Angles.Melee[:])
}

func flashlightEqual(a, b FlashlightState) bool {
	return vecEqual(a.Offset[:], b.Offset[:]) && vecEqual(a.Angles[:], b.Angles[:])
}

func movementEqual(a, b MovementState) bool {
	return a.PlayerMoving == b.PlayerMoving &&
		floatEqual(a.PositionalSideways, b.PositionalSideways) &&
		floatEqual(a.PositionalForward, b.PositionalForward) &&
		floatEqual(a.RemoteSideways, b.RemoteSideways) &&
		floatEqual(a.RemoteForward, b.RemoteForward)
}

// ComputeDelta compares two outputs section by section.
func ComputeDelta(old, new_ Output) *DeltaChanges {
	d := &DeltaChanges{}

	if !weaponEqual(old.Weapon, new_.Weapon) {
		d.Weapon = &new_.Weapon
	}
	if !flashlightEqual(old.Flashlight, new_.Flashlight) {
		d.Flashlight = &new_.Flashlight
	}
	if !movementEqual(old.Movement, new_.Movement) {
		d.Movement = &new_.Movement
	}
	if old.Mode != new_.Mode {
		d.Mode = &new_.Mode
	}

	return d
}
