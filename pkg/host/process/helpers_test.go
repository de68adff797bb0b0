package process_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

type stubConn struct {
	mu       sync.Mutex
	reads    int
	failFrom int
	failTo   int
	closed   bool
}

func (c *stubConn) UUID() string { return "stub-conn" }

func (c *stubConn) Read() (*videoframe.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.reads >= c.failFrom && c.reads < c.failTo {
		return nil, xerror.New("camera unplugged")
	}
	return videoframe.New([]byte{byte(c.reads), 0, 0, 0}, 2, 2, float64(c.reads), nil), nil
}

func (c *stubConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// stubPusher records calls in the order they were made.
type stubPusher struct {
	mu     sync.Mutex
	events []string
	pushed int
}

func (p *stubPusher) PushImage(w, h int, buf []byte, ts float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed++
	if len(p.events) == 0 || p.events[len(p.events)-1] != "push" {
		p.events = append(p.events, "push")
	}
	return true
}

func (p *stubPusher) NotifyCameraReady() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "ready")
}

func (p *stubPusher) NotifyCameraWait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "wait")
}

func (p *stubPusher) pushes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pushed
}

func (p *stubPusher) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.events...)
}

type stubPopper struct {
	mu       sync.Mutex
	requests int
	fail     bool
}

func (p *stubPopper) PopImageWithCancel(ctx context.Context) (*videoframe.Frame, bool) {
	p.mu.Lock()
	p.requests++
	n := p.requests
	fail := p.fail
	p.mu.Unlock()
	if fail {
		<-ctx.Done()
		return nil, false
	}
	return videoframe.New([]byte{byte(n)}, 1, 1, float64(n), nil), true
}

func (p *stubPopper) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}

func callW3sTimeout(f func()) error {
	done := make(chan interface{})
	go func() {
		defer close(done)
		f()
	}()

	select {
	case <-time.After(3 * time.Second):
		return errors.New("test timeout 3s limit exceeded")
	case <-done:
		return nil
	}
}

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
