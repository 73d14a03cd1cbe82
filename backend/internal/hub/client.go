package hub

import (
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/soar/vrinput/backend/internal/cvar"
)

// CvarSetter applies cvar changes requested by viewers.
type CvarSetter interface {
	Set(name, value string) error
	Get(name string) (cvar.Cvar, bool)
}

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer func() {
		c.conn.Close()
	}()

	for msg := range c.send {
		err := c.conn.WriteMessage(websocket.TextMessage, msg)
		if err != nil {
			break
		}
	}
}

// ReadPumpWithHandler reads messages from the WebSocket and handles client commands.
func (c *Client) ReadPumpWithHandler(cvars CvarSetter) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			slog.Warn("Invalid viewer message", "error", err)
			c.reply(NewErrorMessage(errors.Wrap(err, "parse message")))
			continue
		}

		c.reply(handleMessage(cvars, clientMsg))
	}
}

func handleMessage(cvars CvarSetter, msg ClientMessage) *WSMessage {
	switch msg.Type {
	case TypeSetCvar:
		if err := cvars.Set(msg.Name, msg.Value); err != nil {
			slog.Warn("Viewer failed to set cvar", "name", msg.Name, "error", err)
			return NewErrorMessage(err)
		}
		cv, _ := cvars.Get(msg.Name)
		slog.Info("Cvar set by viewer", "name", cv.Name, "value", cv.String)
		return NewCvarSetMessage(cv)
	default:
		return NewErrorMessage(errors.Errorf("unknown message type %q", msg.Type))
	}
}

func (c *Client) reply(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal reply", "error", err)
		return
	}
	c.hub.SendTo(c, data)
}
