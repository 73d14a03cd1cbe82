package controller

import (
	"sync"
	"sync/atomic"
)

// Feed hands frames from a polling source to a single consumer. Every poll
// tick produces a frame, changed or not, so per-frame consumers keep running
// while the input is idle.
type Feed struct {
	mu      sync.RWMutex
	frame   Frame
	frames  chan Frame
	dropped atomic.Int64
}

// NewFeed returns a feed whose current frame is initial.
func NewFeed(initial Frame, buffer int) *Feed {
	return &Feed{
		frame:  initial,
		frames: make(chan Frame, buffer),
	}
}

// Frames returns the channel frames are sent on. It is closed by Close.
func (f *Feed) Frames() <-chan Frame {
	return f.frames
}

// Current returns the most recently pushed frame.
func (f *Feed) Current() Frame {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frame
}

// Dropped is the number of frames discarded because the consumer fell behind.
func (f *Feed) Dropped() int64 {
	return f.dropped.Load()
}

// Push makes frame current and sends it without blocking. The returned delta
// describes what changed since the previous frame; it does not gate sending.
func (f *Feed) Push(frame Frame) *DeltaChanges {
	f.mu.Lock()
	delta := ComputeDelta(f.frame, frame)
	f.frame = frame
	f.mu.Unlock()

	select {
	case f.frames <- frame:
	default:
		// Drop if channel is full to avoid blocking the polling thread
		f.dropped.Add(1)
	}
	return delta
}

// Close closes the frame channel. Push must not be called afterwards.
func (f *Feed) Close() {
	close(f.frames)
}
