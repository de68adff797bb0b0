package tracker_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/tauraamui/nvtracker/pkg/model"
	"github.com/tauraamui/nvtracker/pkg/video/videobackend"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
)

type stubModel struct {
	mu         sync.Mutex
	calls      int
	closeCalls int
	result     model.Result
	trackErr   error
	seen       [][]byte
	onTrack    func(videoframe.View)
}

func (m *stubModel) Track(view videoframe.View) (model.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.seen = append(m.seen, view.Bytes())
	if m.onTrack != nil {
		m.onTrack(view)
	}
	return m.result, m.trackErr
}

func (m *stubModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	return nil
}

func (m *stubModel) trackCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *stubModel) closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

type stubBackend struct {
	model   *stubModel
	loadErr error
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Connect(ctx context.Context, s videobackend.ConnectSettings) (videobackend.Connection, error) {
	return videobackend.Mock().Connect(ctx, s)
}

func (b *stubBackend) NewView(f *videoframe.Frame) (videoframe.View, error) {
	return videobackend.Mock().NewView(f)
}

func (b *stubBackend) LoadModel(string) (model.Model, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.model, nil
}

// recycler counts buffers handed back by the tracker, keyed by the
// first byte of each buffer.
type recycler struct {
	mu     sync.Mutex
	counts map[byte]int
	total  int
}

func newRecycler() *recycler {
	return &recycler{counts: map[byte]int{}}
}

func (r *recycler) recycle(b []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	if len(b) > 0 {
		r.counts[b[0]]++
	}
}

func (r *recycler) count(id byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[id]
}

func (r *recycler) recycled() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// frameBuf returns a w*h buffer filled with id.
func frameBuf(id byte, w, h int) []byte {
	b := make([]byte, w*h)
	for i := range b {
		b[i] = id
	}
	return b
}

func faceResult() model.Result {
	return model.Result{Face: image.Rect(40, 40, 60, 60)}
}

func callW3sTimeout(f func()) error {
	return callWTimeout(f, time.After(3*time.Second), "test timeout 3s limit exceeded")
}

func callWTimeout(f func(), t <-chan time.Time, errmsg string) error {
	done := make(chan interface{})
	go func(d chan interface{}, f func()) {
		defer close(d)
		f()
	}(done, f)

	select {
	case <-t:
		return errors.New(errmsg)
	case <-done:
		return nil
	}
}

// waitUntil polls cond until it holds or 3s pass.
func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
