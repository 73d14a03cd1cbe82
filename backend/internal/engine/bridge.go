package engine

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lxzan/gws"
	"github.com/pkg/errors"
)

const bridgeHandshakeTimeout = 5 * time.Second

// Bridge streams dispatched events as JSON text frames to a remote engine
// console listening on a websocket.
type Bridge struct {
	conn   *gws.Conn
	closed atomic.Bool
	done   chan struct{}
}

type bridgeHandler struct {
	gws.BuiltinEventHandler
	b *Bridge
}

func (h *bridgeHandler) OnOpen(socket *gws.Conn) {
	slog.Info("Engine bridge connected", "remote", socket.RemoteAddr())
}

func (h *bridgeHandler) OnClose(socket *gws.Conn, err error) {
	h.b.closed.Store(true)
	slog.Info("Engine bridge closed", "error", err)
}

func (h *bridgeHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	slog.Debug("Engine bridge message", "payload", message.Data.String())
}

// DialBridge connects to the engine console bridge at url (ws:// or wss://).
func DialBridge(url string) (*Bridge, error) {
	b := &Bridge{done: make(chan struct{})}
	conn, _, err := gws.NewClient(&bridgeHandler{b: b}, &gws.ClientOption{
		Addr:             url,
		HandshakeTimeout: bridgeHandshakeTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "dial engine bridge %s", url)
	}
	b.conn = conn
	go func() {
		conn.ReadLoop()
		close(b.done)
	}()
	return b, nil
}

func (b *Bridge) send(e Event) {
	if b.closed.Load() {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("Error marshaling bridge event", "error", err)
		return
	}
	if err := b.conn.WriteMessage(gws.OpcodeText, data); err != nil {
		slog.Warn("Engine bridge write failed", "event", e.String(), "error", err)
	}
}

func (b *Bridge) Command(text string) {
	b.send(Event{Kind: EventCommand, Text: text})
}

func (b *Bridge) Key(k Key, down bool) {
	b.send(Event{Kind: EventKey, Key: k, Down: down})
}

func (b *Bridge) Touch(ev TouchEvent) {
	b.send(Event{Kind: EventTouch, Touch: &ev})
}

func (b *Bridge) Vibrate(duration time.Duration, channel int, intensity float64) {
	b.send(Event{Kind: EventVibrate, Duration: duration, Channel: channel, Intensity: intensity})
}

// Close sends a close frame and waits for the read loop to finish.
func (b *Bridge) Close() {
	if b.closed.CompareAndSwap(false, true) {
		b.conn.WriteClose(1000, nil)
	}
	select {
	case <-b.done:
	case <-time.After(bridgeHandshakeTimeout):
	}
}
