package tracker

import (
	"context"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/tauraamui/nvtracker/pkg/host/process"
	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/nvtracker/pkg/metrics"
	"github.com/tauraamui/nvtracker/pkg/model"
	"github.com/tauraamui/nvtracker/pkg/video/videobackend"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

type Settings struct {
	// AppContext is the host's handle, kept for callers and never used
	// by the tracker itself.
	AppContext interface{}
	// Path is the directory holding the model file.
	Path    string
	Backend videobackend.Backend
	// Recycle receives every pushed buffer exactly once, when the
	// tracker is done with it.
	Recycle func([]byte)
	Metrics metrics.Recorder
	// OnDetection is called from the run loop after every tracked frame
	// and must not block.
	OnDetection func(model.Detection)
}

// Tracker exchanges camera frames with a tracking run loop through a
// two slot double buffer.
type Tracker struct {
	uuid        string
	appContext  interface{}
	backend     videobackend.Backend
	recycle     func([]byte)
	metrics     metrics.Recorder
	onDetection func(model.Detection)

	mu         sync.Mutex
	wake       *sync.Cond
	msg        Message
	slots      slotStore
	looping    bool
	started    bool
	destroyed  bool
	processing bool
	paused     bool
	lastResult model.Result
	lastRegion image.Rectangle

	model      model.Model
	closeModel sync.Once
	gate       *gate
	access     accessHandshake
	done       chan interface{}
}

// New loads the model from <settings.Path>/face2.tracker. The returned
// tracker is idle until Start.
func New(settings Settings) (*Tracker, error) {
	if settings.Backend == nil {
		return nil, xerror.New("tracker requires a video backend")
	}

	m, err := model.Load(settings.Path, settings.Backend.LoadModel)
	if err != nil {
		return nil, err
	}

	recorder := settings.Metrics
	if recorder == nil {
		recorder = metrics.Noop()
	}

	t := &Tracker{
		uuid:        uuid.NewString(),
		appContext:  settings.AppContext,
		backend:     settings.Backend,
		recycle:     settings.Recycle,
		metrics:     recorder,
		onDetection: settings.OnDetection,
		model:       m,
		gate:        newGate(),
		done:        make(chan interface{}),
	}
	t.wake = sync.NewCond(&t.mu)

	log.Info("Tracker [%s] loaded model %s with %s backend", t.uuid, model.Path(settings.Path), settings.Backend.Name())
	return t, nil
}

func (t *Tracker) UUID() string { return t.uuid }

func (t *Tracker) AppContext() interface{} { return t.appContext }

func (t *Tracker) Setup() process.Process { return t }

// Start launches the run loop. Only the first call has any effect, and
// none at all once destroyed.
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.started || t.destroyed {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.looping = true
	if t.msg == MsgNone {
		t.msg = MsgWaitReady
	}
	t.mu.Unlock()

	go t.run()
}

func (t *Tracker) Stop() { t.Destroy() }

// Wait blocks until the tracker has released everything it owns.
func (t *Tracker) Wait() { <-t.done }

func (t *Tracker) Resume() {
	log.Info("Tracker [%s] lifecycle resume", t.uuid)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = false
}

func (t *Tracker) Pause() {
	log.Info("Tracker [%s] lifecycle pause", t.uuid)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = true
}

func (t *Tracker) IsPaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

func (t *Tracker) IsProcessing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.processing
}

// State is the message the run loop will act on next.
func (t *Tracker) State() Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.msg
}

// LastResult is the most recent model output and its equalisation region.
func (t *Tracker) LastResult() (model.Result, image.Rectangle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastResult, t.lastRegion
}

func (t *Tracker) NotifyCameraReady() {
	log.Info("Tracker [%s] lifecycle camera ready", t.uuid)
	t.gate.notify()
}

func (t *Tracker) NotifyCameraWait() {
	log.Info("Tracker [%s] lifecycle camera wait", t.uuid)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	t.msg = MsgWaitReady
	t.gate.clear()
	t.wake.Signal()
}

// Destroy asks the run loop to exit and release everything. Repeated
// calls are no-ops. A tracker that never started is torn down inline.
func (t *Tracker) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		log.Debug("Tracker [%s] already destroyed", t.uuid)
		return
	}
	log.Info("Tracker [%s] lifecycle destroy, sending exit", t.uuid)
	t.destroyed = true
	t.processing = false
	t.msg = MsgLoopExit

	if !t.started {
		held := t.slots.reset()
		t.msg = MsgNone
		t.mu.Unlock()
		t.releaseAll(held)
		t.teardown()
		close(t.done)
		return
	}

	t.wake.Broadcast()
	t.mu.Unlock()

	log.Info("Tracker [%s] lifecycle destroy, notify run loop", t.uuid)
	t.gate.notify()
}

// PushImage hands buf to the tracker as the newest camera frame. It never
// waits on the run loop. False means the frame was refused and buf has
// already been released.
func (t *Tracker) PushImage(width, height int, buf []byte, timestamp float64) bool {
	frame := videoframe.New(buf, width, height, timestamp, t.release)

	dims := frame.Dimensions()
	if !dims.Valid() || len(buf) < dims.Area() {
		log.Warn("Tracker [%s] refused frame %dx%d with %d bytes", t.uuid, width, height, len(buf))
		t.metrics.Inc(metrics.FrameRejected)
		frame.Release()
		return false
	}

	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		t.metrics.Inc(metrics.FrameRejected)
		frame.Release()
		return false
	}

	index := t.slots.producerIndex()
	displaced := t.slots.put(frame)
	if !t.processing {
		if index == capacity-1 {
			t.processing = true
		}
		t.slots.flip()
	}

	if t.processing && t.msg.acceptsFrame() {
		t.msg = MsgFrameAvailable
		t.wake.Signal()
	}
	t.mu.Unlock()

	log.Debug("Tracker [%s] pushed frame into slot %d at %f", t.uuid, index, timestamp)
	t.metrics.Inc(metrics.FramePushed)
	if displaced != nil {
		t.metrics.Inc(metrics.FrameDropped)
		displaced.Release()
	}
	return true
}

// PopImage blocks until the run loop delivers its next processed frame.
// Fails immediately when tracking has not started.
func (t *Tracker) PopImage() (*videoframe.Frame, bool) {
	return t.PopImageWithCancel(context.Background())
}

// PopImageWithCancel is PopImage which gives up when ctx is done.
// Concurrent callers are served one after another.
func (t *Tracker) PopImageWithCancel(ctx context.Context) (*videoframe.Frame, bool) {
	if !t.IsProcessing() {
		return nil, false
	}

	t.access.exclusive.Lock()
	defer t.access.exclusive.Unlock()

	if !t.IsProcessing() {
		return nil, false
	}

	req, ok := t.access.request()
	if !ok {
		return nil, false
	}

	log.Debug("Tracker [%s] waiting for processed frame", t.uuid)
	select {
	case frame, ok := <-req:
		return frame, ok && frame != nil
	case <-ctx.Done():
		t.access.withdraw(req)
		select {
		case frame, ok := <-req:
			if ok && frame != nil {
				return frame, true
			}
		default:
		}
		return nil, false
	}
}

func (t *Tracker) release(buf []byte) {
	t.metrics.Inc(metrics.FrameReleased)
	if t.recycle != nil {
		t.recycle(buf)
	}
}

func (t *Tracker) releaseAll(frames []*videoframe.Frame) {
	for _, f := range frames {
		f.Release()
	}
}
