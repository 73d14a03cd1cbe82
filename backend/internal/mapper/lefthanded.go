// Package mapper turns per-frame tracked remote input into engine commands
// and view values.
package mapper

import (
	"log/slog"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/soar/vrinput/backend/internal/controller"
	"github.com/soar/vrinput/backend/internal/cvar"
	"github.com/soar/vrinput/backend/internal/engine"
	"github.com/soar/vrinput/backend/internal/vrmath"
)

const (
	// Remotes closer than this when the off-hand grip goes down enable stabilisation.
	stabiliseEnableDistance = 0.50
	// Below this the hands are holding a one-handed weapon together.
	stabiliseMinDistance = 0.15

	meleePitchAdjust      = -30.0
	flashlightPitchAdjust = 15.0
	duckedMoveMultiplier  = 3.0
	movingThreshold       = 0.01

	weaponScrollMin = 0.4
	snapTrigger     = 0.6
	snapRearm       = 0.4
	// Snap angles at or below this repeat every frame while the stick is held.
	snapContinuousMax = 10.0

	meleeVibrateDuration  = 80 * time.Millisecond
	meleeVibrateIntensity = 0.8

	touchYawRange   = 40.0
	touchPitchRange = 22.5
)

// LeftHanded maps input for a player holding the weapon in the left hand.
// The left remote aims, fires, reloads and scrolls weapons; the right remote
// carries the flashlight and moves the player.
//
// Update must be called once per frame from a single goroutine.
type LeftHanded struct {
	cvars *cvar.Registry
	d     engine.Dispatcher
	log   *slog.Logger

	oldLeft  controller.RemoteState
	oldRight controller.RemoteState

	dominantGripPushed    bool
	dominantGripPushTime  time.Time
	grabMeleeWeapon       bool
	finishReloadNextFrame bool
	firingPrimary         bool
	sendUnAttackNextFrame bool

	selectingWeapon bool
	scrollCount     int
	weaponSwitched  bool

	increaseSnap bool
	decreaseSnap bool

	touchStart mgl64.Vec2

	out Output
}

// New returns the left-handed mapping with snap turn hysteresis armed.
// Commands and haptics go to d; settings are read from cvars each frame.
func New(cvars *cvar.Registry, d engine.Dispatcher) *LeftHanded {
	return &LeftHanded{
		cvars:        cvars,
		d:            d,
		log:          slog.Default().With("scheme", "left"),
		increaseSnap: true,
		decreaseSnap: true,
	}
}

// Output returns the result of the last Update.
func (m *LeftHanded) Output() Output {
	return m.out
}

// SnapTurn returns the accumulated snap turn yaw in degrees.
func (m *LeftHanded) SnapTurn() float64 {
	return m.out.Mode.SnapTurn
}

func (m *LeftHanded) reloadTimeout() time.Duration {
	return time.Duration(m.cvars.Int(CvarReloadTimeoutMS)) * time.Millisecond
}

// Update processes one frame and returns the values for the view layer.
func (m *LeftHanded) Update(f controller.Frame) Output {
	left := controller.Transition{Old: m.oldLeft, New: f.Left}
	right := controller.Transition{Old: m.oldRight, New: f.Right}

	if err := m.cvars.SetForce(CvarHand, "1"); err != nil {
		m.log.Warn("Failed to set handedness", "error", err)
	}
	m.applyCrouch(f.Crouching)

	// Show screen view (if in multiplayer toggle scoreboard)
	if right.WentDown(controller.ButtonB) {
		m.out.Mode.ShowingScreenLayer = !m.out.Mode.ShowingScreenLayer
		if f.Multiplayer {
			engine.ButtonAction(m.d, "+showscores", m.out.Mode.ShowingScreenLayer)
		}
	}

	engine.KeyEdge(m.d, left, controller.ButtonEnter, engine.KeyEscape)

	if f.InMenu || m.out.Mode.ShowingScreenLayer {
		m.interactWithTouchScreen(f, left)
	} else {
		distance := f.RightPose.Position.Sub(f.LeftPose.Position).Len()
		m.updateStabilisation(right, distance)

		viewDelta := f.ViewYaw - f.HMDAngles[vrmath.Yaw]
		m.updateWeapon(f, distance, viewDelta)
		m.handleDominantButtons(f, left)
		heading := m.updateFlashlight(f, viewDelta)
		m.handleDominantHand(f, left, right)
		m.handleOffHand(f, left, right, heading)
	}

	m.out.Mode.WeaponStabilised = m.cvars.Bool(CvarWeaponStabilised)
	m.out.Mode.LaserSight = m.cvars.Bool(CvarLaserSight)
	m.out.Mode.SelectingWeapon = m.selectingWeapon
	m.out.Mode.MeleeGrab = m.grabMeleeWeapon

	m.oldLeft = f.Left
	m.oldRight = f.Right
	return m.out
}

func (m *LeftHanded) applyCrouch(crouching bool) {
	switch {
	case crouching:
		m.out.Mode.Duck = DuckCrouched
	case m.out.Mode.Duck == DuckCrouched:
		m.out.Mode.Duck = NotDucked
	}
}

func (m *LeftHanded) updateStabilisation(right controller.Transition, distance float64) {
	if !right.Changed(controller.ButtonGripTrigger) {
		return
	}
	value := "0"
	if right.Down(controller.ButtonGripTrigger) {
		if distance >= stabiliseEnableDistance {
			return
		}
		value = "1"
	}
	if err := m.cvars.SetForce(CvarWeaponStabilised, value); err != nil {
		m.log.Warn("Failed to set weapon stabilisation", "error", err)
	}
}

func (m *LeftHanded) updateWeapon(f controller.Frame, distance, viewDelta float64) {
	w := &m.out.Weapon

	w.Offset = vrmath.RotateXZ(f.LeftPose.Position.Sub(f.HMDPosition), -viewDelta)
	m.log.Debug("Weapon offset", "x", w.Offset.X(), "y", w.Offset.Y(), "z", w.Offset.Z())

	w.Velocity = vrmath.RotateXZ(f.LeftPose.LinearVelocity, -f.ViewYaw)
	m.log.Debug("Weapon velocity", "x", w.Velocity.X(), "y", w.Velocity.Y(), "z", w.Velocity.Z())

	q := f.LeftPose.Orientation
	w.Angles.Adjusted = vrmath.QuatToAngles(q, m.cvars.Float(CvarWeaponPitchAdjust))
	w.Angles.Unadjusted = vrmath.QuatToAngles(q, 0)
	w.Angles.Melee = vrmath.QuatToAngles(q, meleePitchAdjust)

	all := []*vrmath.Angles{&w.Angles.Adjusted, &w.Angles.Unadjusted, &w.Angles.Melee}

	if m.cvars.Bool(CvarWeaponStabilised) && distance > stabiliseMinDistance {
		between := f.RightPose.Position.Sub(f.LeftPose.Position)
		x, y, z := between.X(), between.Y(), between.Z()
		zxDist := vrmath.Length(x, z)
		if zxDist != 0 && z != 0 {
			pitch := vrmath.Degrees(math.Atan(y / zxDist))
			yaw := viewDelta - vrmath.Degrees(math.Atan2(x, -z))
			for _, a := range all {
				a[vrmath.Pitch] = pitch
				a[vrmath.Yaw] = yaw
			}
		}
		return
	}

	for _, a := range all {
		a[vrmath.Yaw] += viewDelta
		a[vrmath.Pitch] *= -1
	}
}

// handleDominantButtons covers use, reload and the melee grab on the left remote.
func (m *LeftHanded) handleDominantButtons(f controller.Frame, left controller.Transition) {
	if left.Changed(controller.ButtonJoystick) {
		engine.ButtonAction(m.d, "+use", left.Down(controller.ButtonJoystick))
	}

	if m.finishReloadNextFrame {
		m.d.Command("-reload")
		m.finishReloadNextFrame = false
	}

	if !left.Changed(controller.ButtonGripTrigger) {
		return
	}
	m.dominantGripPushed = left.Down(controller.ButtonGripTrigger)

	switch {
	case !m.grabMeleeWeapon && f.LeftPose.PositionTracked():
		if m.dominantGripPushed {
			m.dominantGripPushTime = f.Time
		} else if f.Time.Sub(m.dominantGripPushTime) < m.reloadTimeout() {
			m.d.Command("+reload")
			m.finishReloadNextFrame = true
		}
	case !m.grabMeleeWeapon:
		// Hand behind the back, out of tracking: pull the crowbar from the backpack.
		if m.dominantGripPushed {
			m.d.Command("weapon_crowbar")
			m.d.Vibrate(meleeVibrateDuration, 0, meleeVibrateIntensity)
			m.grabMeleeWeapon = true
		}
	case !m.dominantGripPushed:
		// Restore the last used weapon
		m.d.Command("lastinv")
		m.grabMeleeWeapon = false
	}
}

// updateFlashlight places the flashlight on the right remote and returns the
// heading that stick movement is relative to.
func (m *LeftHanded) updateFlashlight(f controller.Frame, viewDelta float64) float64 {
	fl := &m.out.Flashlight
	fl.Offset = vrmath.RotateXZ(f.RightPose.Position.Sub(f.HMDPosition), -viewDelta)
	fl.Angles = vrmath.QuatToAngles(f.RightPose.Orientation, flashlightPitchAdjust)
	fl.Angles[vrmath.Yaw] += viewDelta

	if m.cvars.Int(CvarWalkDirection) == 0 {
		return fl.Angles[vrmath.Yaw] - f.ViewYaw
	}
	return 0
}

func (m *LeftHanded) handleDominantHand(f controller.Frame, left, right controller.Transition) {
	mv := &m.out.Movement

	// Head movement is in world space but the engine moves relative to where
	// the player faces.
	speed := m.cvars.Float(CvarForwardSpeed)
	if right.Down(controller.ButtonTrigger) {
		speed *= m.cvars.Float(CvarMoveSpeedKey)
	}
	multiplier := 0.0
	if speed != 0 {
		multiplier = m.cvars.Float(CvarPositionalFactor) / speed
	}
	if m.out.Mode.Duck != NotDucked {
		multiplier *= duckedMoveMultiplier
	}
	v := vrmath.RotateAboutOrigin(-f.PositionDelta.X()*multiplier, f.PositionDelta.Z()*multiplier, -f.HMDAngles[vrmath.Yaw])
	mv.PositionalSideways = v.X()
	mv.PositionalForward = v.Y()
	m.log.Debug("Positional movement", "sideways", mv.PositionalSideways, "forward", mv.PositionalForward)

	engine.KeyEdge(m.d, left, controller.ButtonY, engine.KeySpace)

	// Once primary fire has started, releasing the trigger must stop it even
	// if the grip went down in the meantime.
	if !m.firingPrimary && m.dominantGripPushed && f.Time.Sub(m.dominantGripPushTime) > m.reloadTimeout() {
		if left.Changed(controller.ButtonTrigger) {
			engine.ButtonAction(m.d, "+attack2", left.Down(controller.ButtonTrigger))
		}
	} else if left.Changed(controller.ButtonTrigger) {
		m.firingPrimary = left.Down(controller.ButtonTrigger)
		engine.ButtonAction(m.d, "+attack", m.firingPrimary)
	}

	if left.Changed(controller.ButtonX) && m.out.Mode.Duck != DuckCrouched {
		down := left.Down(controller.ButtonX)
		m.out.Mode.Duck = NotDucked
		if down {
			m.out.Mode.Duck = DuckButton
		}
		engine.ButtonAction(m.d, "+duck", down)
	}

	if m.sendUnAttackNextFrame {
		m.sendUnAttackNextFrame = false
		m.d.Command("-attack")
	}

	m.chooseWeapon(f, right)
}

func (m *LeftHanded) chooseWeapon(f controller.Frame, right controller.Transition) {
	if right.Changed(controller.ButtonB) {
		m.selectingWeapon = right.Down(controller.ButtonB)
		if m.selectingWeapon {
			m.scrollCount++
			m.d.Command("invnext")
		} else {
			if m.scrollCount == 0 {
				m.d.Command("cancelselect")
			} else {
				// Confirm the selection with a one-frame attack.
				m.sendUnAttackNextFrame = true
				m.d.Command("+attack")
			}
			m.scrollCount = 0
		}
	}

	if !m.selectingWeapon {
		return
	}
	x := f.Left.Joystick.X()
	forward := vrmath.Between(weaponScrollMin, x, 1)
	back := vrmath.Between(-1, x, -weaponScrollMin)
	if !forward && !back {
		m.weaponSwitched = false
		return
	}
	if m.weaponSwitched {
		return
	}
	if forward {
		m.scrollCount++
		m.d.Command("invnext")
	} else {
		m.scrollCount--
		m.d.Command("invprev")
	}
	m.weaponSwitched = true
}

func (m *LeftHanded) handleOffHand(f controller.Frame, left, right controller.Transition, heading float64) {
	if right.WentDown(controller.ButtonJoystick) {
		if err := m.cvars.SetFloat(CvarLaserSight, 1-m.cvars.Float(CvarLaserSight)); err != nil {
			m.log.Warn("Failed to toggle laser sight", "error", err)
		}
	}

	// Filter and scale so small movements are easier to make.
	stick := f.Right.Joystick
	nlf := vrmath.NonLinearFilter(vrmath.Length(stick.X(), stick.Y()))
	x := nlf * stick.X()
	y := nlf * stick.Y()

	mv := &m.out.Movement
	mv.PlayerMoving = math.Abs(x)+math.Abs(y) > movingThreshold

	v := vrmath.RotateAboutOrigin(x, y, heading)
	mv.RemoteSideways = v.X()
	mv.RemoteForward = v.Y()
	m.log.Debug("Remote movement", "sideways", mv.RemoteSideways, "forward", mv.RemoteForward)

	// Flashlight toggles on release.
	if right.WentUp(controller.ButtonA) {
		m.d.Command("impulse 100")
	}

	engine.KeyEdge(m.d, right, controller.ButtonTrigger, engine.KeyShift)

	if !m.selectingWeapon {
		m.snapTurn(left.New.Joystick.X())
	}
}

func (m *LeftHanded) snapTurn(x float64) {
	angle := m.cvars.Float(CvarSnapTurnAngle)
	snap := &m.out.Mode.SnapTurn

	if x > snapTrigger {
		if m.increaseSnap {
			*snap -= angle
			if angle > snapContinuousMax {
				m.increaseSnap = false
			}
			if *snap < -180 {
				*snap += 360
			}
		}
	} else if x < snapRearm {
		m.increaseSnap = true
	}

	if x < -snapTrigger {
		if m.decreaseSnap {
			*snap += angle
			if angle > snapContinuousMax {
				m.decreaseSnap = false
			}
			if *snap > 180 {
				*snap -= 360
			}
		}
	} else if x > -snapRearm {
		m.decreaseSnap = true
	}
}

// interactWithTouchScreen points the left remote at the flat menu surface and
// uses its trigger as a finger.
func (m *LeftHanded) interactWithTouchScreen(f controller.Frame, left controller.Transition) {
	angles := vrmath.QuatToAngles(f.LeftPose.Orientation, 0)
	yaw := vrmath.NormalizeYaw(angles[vrmath.Yaw] - f.HMDAngles[vrmath.Yaw])
	pitch := angles[vrmath.Pitch]

	if math.Abs(yaw) >= touchYawRange || math.Abs(pitch) >= touchPitchRange {
		return
	}

	pos := mgl64.Vec2{
		(touchYawRange - yaw) / (2 * touchYawRange),
		(pitch + touchPitchRange) / (2 * touchPitchRange),
	}

	ev := engine.TouchEvent{Type: engine.TouchMotion}
	if left.Changed(controller.ButtonTrigger) {
		ev.Type = engine.TouchUp
		if left.Down(controller.ButtonTrigger) {
			ev.Type = engine.TouchDown
			m.touchStart = pos
		}
	}
	ev.X, ev.Y = pos.X(), pos.Y()
	ev.DX = m.touchStart.X() - pos.X()
	ev.DY = m.touchStart.Y() - pos.Y()
	m.d.Touch(ev)
}
