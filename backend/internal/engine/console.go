package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Console writes every call as one line of console text, the way the engine's
// command buffer receives it.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole returns a Dispatcher printing one line per event to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) write(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintln(c.w, e.String()); err != nil {
		slog.Warn("Console write failed", "error", err)
	}
}

func (c *Console) Command(text string) {
	c.write(Event{Kind: EventCommand, Text: text})
}

func (c *Console) Key(k Key, down bool) {
	c.write(Event{Kind: EventKey, Key: k, Down: down})
}

func (c *Console) Touch(ev TouchEvent) {
	c.write(Event{Kind: EventTouch, Touch: &ev})
}

func (c *Console) Vibrate(duration time.Duration, channel int, intensity float64) {
	c.write(Event{Kind: EventVibrate, Duration: duration, Channel: channel, Intensity: intensity})
}
