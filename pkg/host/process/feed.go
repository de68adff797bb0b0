package process

import (
	"context"
	"fmt"
	"time"

	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/nvtracker/pkg/video/videobackend"
)

// Pusher is the producer side of the tracker.
type Pusher interface {
	PushImage(width, height int, buf []byte, timestamp float64) bool
	NotifyCameraReady()
	NotifyCameraWait()
}

const readRetryDelay = 50 * time.Millisecond

// NewFeedProcess reads frames from conn and pushes them into dest, at
// most fps per second (unpaced when fps <= 0). dest is told the camera
// is ready on the first good read and whenever reads recover, and to
// wait once when reads start failing.
func NewFeedProcess(conn videobackend.Connection, dest Pusher, fps int) Process {
	f := &feed{conn: conn, dest: dest}
	if fps > 0 {
		f.interval = time.Second / time.Duration(fps)
	}
	return New(Settings{
		WaitForShutdownMsg: fmt.Sprintf("Stopping camera feed [%s]...", conn.UUID()),
		Process:            f.run,
	})
}

type feed struct {
	conn     videobackend.Connection
	dest     Pusher
	interval time.Duration
	ready    bool
	waiting  bool
}

func (f *feed) run(ctx context.Context) []chan interface{} {
	stopping := make(chan interface{})
	go func() {
		defer close(stopping)
		log.Info("Feeding frames from camera [%s]", f.conn.UUID())
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if !pause(ctx, f.step()) {
					return
				}
			}
		}
	}()
	return []chan interface{}{stopping}
}

// step reads and pushes a single frame, returning how long to wait
// before the next one.
func (f *feed) step() time.Duration {
	if !f.conn.IsOpen() {
		f.cameraWait("connection closed")
		return readRetryDelay
	}

	frame, err := f.conn.Read()
	if err != nil {
		f.cameraWait(err.Error())
		return readRetryDelay
	}

	if !f.ready || f.waiting {
		log.Info("Camera [%s] is ready", f.conn.UUID())
		f.ready = true
		f.waiting = false
		f.dest.NotifyCameraReady()
	}

	dims := frame.Dimensions()
	if !f.dest.PushImage(dims.W, dims.H, frame.Data(), frame.Timestamp()) {
		log.Debug("Frame from camera [%s] refused", f.conn.UUID())
	}
	return f.interval
}

func (f *feed) cameraWait(reason string) {
	if f.waiting {
		return
	}
	log.Error("Unable to read frame from camera [%s]: %s", f.conn.UUID(), reason)
	f.waiting = true
	f.dest.NotifyCameraWait()
}

// pause sleeps for d unless ctx finishes first, reporting whether to
// carry on.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
