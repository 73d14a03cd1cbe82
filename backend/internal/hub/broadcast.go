package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/soar/vrinput/backend/internal/host"
	"github.com/soar/vrinput/backend/internal/mapper"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster listens for frame reports and broadcasts them to the hub.
type Broadcaster struct {
	hub     *Hub
	reports <-chan host.Report

	mu      sync.Mutex
	last    mapper.Output
	lastSeq int64
	seen    bool
}

// NewBroadcaster creates a broadcaster fed by the host loop reports.
func NewBroadcaster(h *Hub, reports <-chan host.Report) *Broadcaster {
	return &Broadcaster{
		hub:     h,
		reports: reports,
	}
}

// Run starts the broadcaster loop until the report channel closes or ctx is
// done. Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var deltaCount int

	for {
		select {
		case <-ctx.Done():
			return

		case r, ok := <-b.reports:
			if !ok {
				return
			}

			b.mu.Lock()
			delta := mapper.ComputeDelta(b.last, r.Output)
			b.last = r.Output
			b.lastSeq = r.Seq
			first := !b.seen
			b.seen = true
			b.mu.Unlock()

			if !first && delta.IsEmpty() && len(r.Events) == 0 {
				continue
			}

			deltaCount++

			// Send full sync periodically
			if first || deltaCount >= deltaCountSync {
				b.send(NewFullMessage(r.Seq, &r.Output, r.Events))
				deltaCount = 0
			} else {
				b.send(NewDeltaMessage(r.Seq, delta, r.Events))
			}

		case <-ticker.C:
			b.mu.Lock()
			out, seq, seen := b.last, b.lastSeq, b.seen
			b.mu.Unlock()
			if seen {
				b.send(NewFullMessage(seq, &out, nil))
			}
		}
	}
}

// SendInitialState sends the current full output to a newly connected client.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	out, seq := b.last, b.lastSeq
	b.mu.Unlock()

	data, err := json.Marshal(NewFullMessage(seq, &out, nil))
	if err != nil {
		slog.Error("Failed to marshal initial state", "error", err)
		return
	}
	b.hub.SendTo(c, data)
}

func (b *Broadcaster) send(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal message", "type", msg.Type, "error", err)
		return
	}
	b.hub.Broadcast(data)
}
