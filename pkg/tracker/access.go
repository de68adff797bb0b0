package tracker

import (
	"sync"

	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
)

// accessHandshake hands processed frames to one waiting accessor at a
// time. exclusive serialises accessors, mu guards the pending request
// and the snapshot.
type accessHandshake struct {
	exclusive sync.Mutex

	mu       sync.Mutex
	pending  chan *videoframe.Frame
	snapshot *videoframe.Frame
	closed   bool
}

// request registers a pending request. Fails once the handshake is closed.
func (a *accessHandshake) request() (chan *videoframe.Frame, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, false
	}
	req := make(chan *videoframe.Frame, 1)
	a.pending = req
	return req, true
}

func (a *accessHandshake) withdraw(req chan *videoframe.Frame) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == req {
		a.pending = nil
	}
}

func (a *accessHandshake) isPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// deliver copies the view into a fresh snapshot and hands the pending
// accessor its own copy. Never blocks, reports false when nobody asked.
func (a *accessHandshake) deliver(view videoframe.View, timestamp float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return false
	}

	dims := view.Dimensions()
	snapshot := videoframe.New(view.Bytes(), dims.W, dims.H, timestamp, nil)
	if a.snapshot != nil {
		a.snapshot.Release()
	}
	a.snapshot = snapshot

	a.pending <- snapshot.Clone()
	a.pending = nil
	return true
}

// close fails any pending accessor and drops the snapshot. Idempotent.
func (a *accessHandshake) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	if a.pending != nil {
		close(a.pending)
		a.pending = nil
	}
	if a.snapshot != nil {
		a.snapshot.Release()
		a.snapshot = nil
	}
}
