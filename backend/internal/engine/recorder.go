package engine

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// EventKind tells which Dispatcher method produced an Event.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventKey     EventKind = "key"
	EventTouch   EventKind = "touch"
	EventVibrate EventKind = "vibrate"
)

// Event is one recorded Dispatcher call.
type Event struct {
	Kind      EventKind     `json:"kind"`
	Text      string        `json:"text,omitempty"`
	Key       Key           `json:"key,omitempty"`
	Down      bool          `json:"down,omitempty"`
	Touch     *TouchEvent   `json:"touch,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Channel   int           `json:"channel,omitempty"`
	Intensity float64       `json:"intensity,omitempty"`
}

// String renders the event as a single console line.
func (e Event) String() string {
	switch e.Kind {
	case EventCommand:
		return e.Text
	case EventKey:
		state := "up"
		if e.Down {
			state = "down"
		}
		return fmt.Sprintf("key %s %s", e.Key, state)
	case EventTouch:
		if e.Touch == nil {
			return "touch"
		}
		return fmt.Sprintf("touch %s %.3f %.3f %.3f %.3f", e.Touch.Type,
			milli(e.Touch.X), milli(e.Touch.Y), milli(e.Touch.DX), milli(e.Touch.DY))
	case EventVibrate:
		return fmt.Sprintf("vibrate %s %d %.2f", e.Duration, e.Channel, e.Intensity)
	default:
		return string(e.Kind)
	}
}

// milli rounds v to three decimals with no negative zero.
func milli(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0
	}
	return r
}

// Recorder is a Dispatcher that keeps every call in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Command(text string) {
	r.add(Event{Kind: EventCommand, Text: text})
}

func (r *Recorder) Key(k Key, down bool) {
	r.add(Event{Kind: EventKey, Key: k, Down: down})
}

func (r *Recorder) Touch(ev TouchEvent) {
	r.add(Event{Kind: EventTouch, Touch: &ev})
}

func (r *Recorder) Vibrate(duration time.Duration, channel int, intensity float64) {
	r.add(Event{Kind: EventVibrate, Duration: duration, Channel: channel, Intensity: intensity})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Drain returns everything recorded so far and clears the log.
func (r *Recorder) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

// Lines renders events as console lines.
func Lines(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.String())
	}
	return out
}

// Commands returns only the console commands recorded so far.
func (r *Recorder) Commands() []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == EventCommand {
			out = append(out, e.Text)
		}
	}
	return out
}
