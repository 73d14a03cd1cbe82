// Package gamepad drives a pair of emulated tracked remotes from a desktop
// gamepad through the SDL3 joystick API.
package gamepad

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/jupiterrider/purego-sdl3/sdl"
	"github.com/pkg/errors"
	"github.com/soar/vrinput/backend/internal/controller"
)

const pollDelayNS = 13_888_888 // ~72Hz, the headset refresh rate

type joystickInfo struct {
	joystick *sdl.Joystick
	mapping  *controller.DeviceMapping
	name     string
	id       sdl.JoystickID
}

// Reader drives a pair of emulated tracked remotes from a desktop gamepad
// read through the SDL3 Joystick API, and emits a frame on every poll tick.
type Reader struct {
	feed      *controller.Feed
	joysticks map[sdl.JoystickID]*joystickInfo
	activeID  sdl.JoystickID // the first connected joystick
	hasActive bool
}

// NewReader creates a reader with both remotes at rest. Call Run to start polling.
func NewReader() *Reader {
	return &Reader{
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
		feed:      controller.NewFeed(controller.EmulatedFrame(time.Now()), 64),
	}
}

// Frames returns the channel on which frames are sent. It is closed when Run returns.
func (r *Reader) Frames() <-chan controller.Frame {
	return r.feed.Frames()
}

// CurrentFrame returns a snapshot of the latest frame.
func (r *Reader) CurrentFrame() controller.Frame {
	return r.feed.Current()
}

// Run initializes SDL and runs the event+polling loop on the current thread
// until ctx is done.
func (r *Reader) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer r.feed.Close()

	if !sdl.Init(sdl.InitJoystick) {
		return errors.Errorf("SDL init failed: %s", sdl.GetError())
	}
	defer sdl.Quit()

	slog.Info("SDL3 joystick subsystem initialized")

	for _, id := range sdl.GetJoysticks() {
		r.openJoystick(id)
	}

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			if n := r.feed.Dropped(); n > 0 {
				slog.Warn("Frames dropped while the host loop was busy", "count", n)
			}
			return nil
		default:
		}

		r.processEvents()
		r.pollState()
		sdl.DelayNS(pollDelayNS)
	}
}

func (r *Reader) processEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			r.openJoystick(event.JDevice().Which)
		case sdl.EventJoystickRemoved:
			r.removeJoystick(event.JDevice().Which)
		}
	}
}

func (r *Reader) openJoystick(instanceID sdl.JoystickID) {
	if _, exists := r.joysticks[instanceID]; exists {
		return
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		slog.Warn("Failed to open joystick", "id", instanceID, "error", sdl.GetError())
		return
	}

	jsID := sdl.GetJoystickID(js)
	vendorID := sdl.GetJoystickVendor(js)
	productID := sdl.GetJoystickProduct(js)
	name := sdl.GetJoystickName(js)
	mapping := controller.GetMapping(vendorID, productID)

	r.joysticks[jsID] = &joystickInfo{
		joystick: js,
		mapping:  mapping,
		name:     name,
		id:       jsID,
	}

	slog.Info("Joystick connected",
		"name", name,
		"vid", vendorID,
		"pid", productID,
		"mapping", mapping.Name,
		"axes", sdl.GetNumJoystickAxes(js),
		"buttons", sdl.GetNumJoystickButtons(js),
	)

	if !r.hasActive {
		r.activeID = jsID
		r.hasActive = true
		slog.Info("Active joystick set", "name", name, "id", jsID)
	}
}

func (r *Reader) removeJoystick(instanceID sdl.JoystickID) {
	info, exists := r.joysticks[instanceID]
	if !exists {
		return
	}

	slog.Info("Joystick disconnected", "name", info.name)
	sdl.CloseJoystick(info.joystick)
	delete(r.joysticks, instanceID)

	if !r.hasActive || r.activeID != instanceID {
		return
	}
	r.hasActive = false

	// Promote the next available joystick
	for id, js := range r.joysticks {
		if sdl.JoystickConnected(js.joystick) {
			r.activeID = id
			r.hasActive = true
			slog.Info("Active joystick switched", "name", js.name, "id", id)
			return
		}
	}
	// Nothing left: the next poll sends released remotes.
}

func (r *Reader) closeAll() {
	for id, info := range r.joysticks {
		sdl.CloseJoystick(info.joystick)
		delete(r.joysticks, id)
	}
}

// pollState sends one frame per tick. Without an active joystick both
// remotes rest with nothing pressed.
func (r *Reader) pollState() {
	frame := controller.EmulatedFrame(time.Now())
	if info, ok := r.active(); ok {
		frame.Left, frame.Right = info.mapping.Remotes(readRaw(info), controller.DefaultDeadzone)
	}

	if delta := r.feed.Push(frame); !delta.IsEmpty() {
		slog.Debug("Remote input changed",
			"left", frame.Left.Buttons,
			"right", frame.Right.Buttons,
			"leftStick", frame.Left.Joystick,
			"rightStick", frame.Right.Joystick,
		)
	}
}

func (r *Reader) active() (*joystickInfo, bool) {
	if !r.hasActive {
		return nil, false
	}
	info, exists := r.joysticks[r.activeID]
	if !exists || !sdl.JoystickConnected(info.joystick) {
		return nil, false
	}
	return info, true
}

func readRaw(info *joystickInfo) controller.RawInput {
	js := info.joystick
	in := controller.RawInput{
		Axes:    make(map[int32]int16),
		Buttons: make(map[int32]bool),
	}
	numAxes := sdl.GetNumJoystickAxes(js)
	for _, am := range info.mapping.Axes {
		if am.Index < numAxes {
			in.Axes[am.Index] = sdl.GetJoystickAxis(js, am.Index)
		}
	}
	numButtons := sdl.GetNumJoystickButtons(js)
	for _, bm := range info.mapping.Buttons {
		if bm.Index < numButtons {
			in.Buttons[bm.Index] = sdl.GetJoystickButton(js, bm.Index)
		}
	}
	return in
}
