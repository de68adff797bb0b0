package process

import (
	"context"
	"time"

	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
)

// Popper is the accessor side of the tracker.
type Popper interface {
	PopImageWithCancel(context.Context) (*videoframe.Frame, bool)
}

// NewAccessProcess asks src for a processed frame every interval and hands
// each one it gets to onFrame. A request is given up after interval.
func NewAccessProcess(src Popper, interval time.Duration, onFrame func(*videoframe.Frame)) Process {
	return New(Settings{
		WaitForShutdownMsg: "Stopping processed frame access...",
		Process: func(ctx context.Context) []chan interface{} {
			stopping := make(chan interface{})
			go func() {
				defer close(stopping)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						popFrame(ctx, src, interval, onFrame)
					}
				}
			}()
			return []chan interface{}{stopping}
		},
	})
}

func popFrame(ctx context.Context, src Popper, timeout time.Duration, onFrame func(*videoframe.Frame)) {
	popCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	frame, ok := src.PopImageWithCancel(popCtx)
	if !ok {
		log.Debug("No processed frame available")
		return
	}
	defer frame.Release()
	onFrame(frame)
}
