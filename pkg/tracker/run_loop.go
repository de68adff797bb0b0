package tracker

import (
	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/nvtracker/pkg/metrics"
	"github.com/tauraamui/nvtracker/pkg/model"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
)

func (t *Tracker) run() {
	defer close(t.done)
	log.Info("Tracker [%s] run loop started", t.uuid)

	for t.isLooping() {
		t.awaitMessage()
		if frame, ok := t.step(); ok {
			t.track(frame)
		}
	}

	log.Info("Tracker [%s] run loop stopped", t.uuid)
}

func (t *Tracker) isLooping() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.looping
}

// awaitMessage parks the run loop while there is nothing to do.
func (t *Tracker) awaitMessage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.msg == MsgNone && t.looping {
		t.wake.Wait()
	}
}

// step performs one tick for the current message. The captured frame is
// returned for tracking, the caller owns it.
func (t *Tracker) step() (*videoframe.Frame, bool) {
	t.mu.Lock()
	msg := t.msg
	t.metrics.SetState(msg.String())

	switch msg {
	case MsgFrameAvailable:
		consumer := t.slots.consumerIndex()
		frame := t.slots.capture()
		t.msg = MsgNone
		t.mu.Unlock()

		if frame == nil {
			log.Warn("Tracker [%s] frame available but slot %d empty", t.uuid, consumer)
			return nil, false
		}
		log.Debug("Tracker [%s] captured frame at %f", t.uuid, frame.Timestamp())
		return frame, true

	case MsgWaitReady:
		t.mu.Unlock()
		log.Info("Tracker [%s] waiting for camera", t.uuid)
		t.gate.wait()

		t.mu.Lock()
		if t.msg == MsgWaitReady {
			// frames pushed while waiting are picked up straight away
			t.msg = MsgNone
			if t.processing && t.slots.pending() {
				t.msg = MsgFrameAvailable
			}
		}
		t.mu.Unlock()
		return nil, false

	case MsgLoopExit:
		log.Info("Tracker [%s] exiting run loop", t.uuid)
		t.looping = false
		held := t.slots.reset()
		t.msg = MsgNone
		t.mu.Unlock()

		t.releaseAll(held)
		t.teardown()
		return nil, false

	default:
		t.mu.Unlock()
		return nil, false
	}
}

// track flips the captured frame into place, runs the model on it and
// serves a pending accessor. While paused only the flip happens.
func (t *Tracker) track(frame *videoframe.Frame) {
	defer frame.Release()
	t.metrics.Inc(metrics.FrameCaptured)

	view, err := t.backend.NewView(frame)
	if err != nil {
		log.Error("Tracker [%s] unable to view captured frame: %v", t.uuid, err)
		return
	}
	defer view.Close()

	if err := view.FlipVertical(); err != nil {
		log.Error("Tracker [%s] unable to flip captured frame: %v", t.uuid, err)
		return
	}

	if t.IsPaused() {
		return
	}

	result, err := t.model.Track(view)
	if err != nil {
		log.Error("Tracker [%s] model failed on frame at %f: %v", t.uuid, frame.Timestamp(), err)
		result = model.Result{}
	}
	t.metrics.Inc(metrics.FrameTracked)
	if result.Found() {
		t.metrics.Inc(metrics.FaceFound)
	}

	dims := view.Dimensions()
	region := result.Region(dims.W, dims.H)
	t.mu.Lock()
	t.lastResult = result
	t.lastRegion = region
	t.mu.Unlock()

	if t.onDetection != nil {
		t.onDetection(model.Detection{
			TrackerUUID: t.uuid,
			Timestamp:   frame.Timestamp(),
			Result:      result,
			Region:      region,
		})
	}

	if t.access.deliver(view, frame.Timestamp()) {
		log.Debug("Tracker [%s] delivered frame at %f", t.uuid, frame.Timestamp())
		t.metrics.Inc(metrics.FrameDelivered)
	}
}

// teardown closes the model exactly once and fails pending accessors.
func (t *Tracker) teardown() {
	t.closeModel.Do(func() {
		if err := t.model.Close(); err != nil {
			log.Error("Tracker [%s] unable to close model: %v", t.uuid, err)
		}
	})
	t.access.close()
}
