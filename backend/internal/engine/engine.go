// Package engine describes the game engine's input surface: the console
// command buffer, raw key events, menu touch events and controller haptics.
package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/soar/vrinput/backend/internal/controller"
)

// Key is an engine key number.
type Key int

const (
	KeyEscape Key = 27
	KeySpace  Key = 32
	KeyShift  Key = 134
)

func (k Key) String() string {
	switch k {
	case KeyEscape:
		return "ESCAPE"
	case KeySpace:
		return "SPACE"
	case KeyShift:
		return "SHIFT"
	default:
		return fmt.Sprintf("KEY%d", int(k))
	}
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(b []byte) error {
	s := string(b)
	for _, known := range []Key{KeyEscape, KeySpace, KeyShift} {
		if s == known.String() {
			*k = known
			return nil
		}
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "KEY"))
	if err != nil {
		return errors.Errorf("unknown key %q", s)
	}
	*k = Key(n)
	return nil
}

// TouchType is the phase of a menu touch.
type TouchType int

const (
	TouchDown TouchType = iota
	TouchUp
	TouchMotion
)

func (t TouchType) String() string {
	switch t {
	case TouchDown:
		return "down"
	case TouchUp:
		return "up"
	default:
		return "motion"
	}
}

func (t TouchType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TouchType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "down":
		*t = TouchDown
	case "up":
		*t = TouchUp
	case "motion":
		*t = TouchMotion
	default:
		return errors.Errorf("unknown touch type %q", b)
	}
	return nil
}

// TouchEvent is a pointer event on the flat menu surface, in 0..1 coordinates.
type TouchEvent struct {
	Type TouchType `json:"type"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	DX   float64   `json:"dx"`
	DY   float64   `json:"dy"`
}

// Dispatcher receives everything the input mapping sends to the engine.
// Calls are fire-and-forget.
type Dispatcher interface {
	Command(text string)
	Key(k Key, down bool)
	Touch(ev TouchEvent)
	Vibrate(duration time.Duration, channel int, intensity float64)
}

// ButtonAction sends a +command on press and the matching -command on release.
func ButtonAction(d Dispatcher, action string, pressed bool) {
	if !pressed && len(action) > 0 {
		action = "-" + action[1:]
	}
	d.Command(action)
}

// KeyEdge forwards a button edge on one remote as a key event.
func KeyEdge(d Dispatcher, t controller.Transition, b controller.Button, k Key) {
	if t.Changed(b) {
		d.Key(k, t.Down(b))
	}
}

type tee []Dispatcher

// Tee returns a Dispatcher that forwards every call to each of ds in order.
func Tee(ds ...Dispatcher) Dispatcher {
	return tee(ds)
}

func (t tee) Command(text string) {
	for _, d := range t {
		d.Command(text)
	}
}

func (t tee) Key(k Key, down bool) {
	for _, d := range t {
		d.Key(k, down)
	}
}

func (t tee) Touch(ev TouchEvent) {
	for _, d := range t {
		d.Touch(ev)
	}
}

func (t tee) Vibrate(duration time.Duration, channel int, intensity float64) {
	for _, d := range t {
		d.Vibrate(duration, channel, intensity)
	}
}
