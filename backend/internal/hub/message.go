package hub

import (
	"time"

	"github.com/soar/vrinput/backend/internal/cvar"
	"github.com/soar/vrinput/backend/internal/engine"
	"github.com/soar/vrinput/backend/internal/mapper"
)

// Message types sent to viewers.
const (
	TypeFull    = "full"
	TypeDelta   = "delta"
	TypeCvarSet = "cvar_set"
	TypeError   = "error"
)

// Message types accepted from viewers.
const (
	TypeSetCvar = "set_cvar"
)

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type      string               `json:"type"`              // "full", "delta", "cvar_set" or "error"
	Seq       int64                `json:"seq"`               // report sequence number
	Timestamp int64                `json:"timestamp"`         // Unix timestamp in milliseconds
	Data      *mapper.Output       `json:"data,omitempty"`    // complete output for "full"
	Changes   *mapper.DeltaChanges `json:"changes,omitempty"` // changed sections for "delta"
	Events    []engine.Event       `json:"events,omitempty"`  // engine events of the frame
	Cvar      *cvar.Cvar           `json:"cvar,omitempty"`    // new value for "cvar_set"
	Error     string               `json:"error,omitempty"`
}

// NewFullMessage creates a "full" type message containing the complete output.
func NewFullMessage(seq int64, out *mapper.Output, events []engine.Event) *WSMessage {
	return &WSMessage{
		Type:      TypeFull,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Data:      out,
		Events:    events,
	}
}

// NewDeltaMessage creates a "delta" type message containing only changed sections.
func NewDeltaMessage(seq int64, changes *mapper.DeltaChanges, events []engine.Event) *WSMessage {
	return &WSMessage{
		Type:      TypeDelta,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Changes:   changes,
		Events:    events,
	}
}

// NewCvarSetMessage confirms a cvar change requested by a client.
func NewCvarSetMessage(c cvar.Cvar) *WSMessage {
	return &WSMessage{
		Type:      TypeCvarSet,
		Timestamp: time.Now().UnixMilli(),
		Cvar:      &c,
	}
}

func NewErrorMessage(err error) *WSMessage {
	return &WSMessage{
		Type:      TypeError,
		Timestamp: time.Now().UnixMilli(),
		Error:     err.Error(),
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}
