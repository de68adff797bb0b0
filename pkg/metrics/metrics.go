package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Event string

const (
	FramePushed    Event = "pushed"
	FrameRejected  Event = "rejected"
	FrameDropped   Event = "dropped"
	FrameCaptured  Event = "captured"
	FrameTracked   Event = "tracked"
	FaceFound      Event = "face_found"
	FrameDelivered Event = "delivered"
	FrameReleased  Event = "released"
)

var Events = []Event{
	FramePushed, FrameRejected, FrameDropped, FrameCaptured,
	FrameTracked, FaceFound, FrameDelivered, FrameReleased,
}

// Recorder receives tracker events.
type Recorder interface {
	Inc(Event)
	SetState(string)
}

func Noop() Recorder { return noop{} }

type noop struct{}

func (noop) Inc(Event)       {}
func (noop) SetState(string) {}

// Prometheus records events as counters labelled by event and the run
// loop state as a gauge per state name.
type Prometheus struct {
	frames *prometheus.CounterVec
	state  *prometheus.GaugeVec

	mu        sync.Mutex
	lastState string
}

func NewPrometheus(reg prometheus.Registerer, trackerID string) (*Prometheus, error) {
	labels := prometheus.Labels{"tracker": trackerID}
	p := &Prometheus{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "nvtracker",
			Name:        "frames_total",
			Help:        "Frame exchange events seen by the tracker.",
			ConstLabels: labels,
		}, []string{"event"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "nvtracker",
			Name:        "run_loop_state",
			Help:        "Set to 1 for the run loop's current message state.",
			ConstLabels: labels,
		}, []string{"state"}),
	}

	for _, c := range []prometheus.Collector{p.frames, p.state} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	for _, e := range Events {
		p.frames.WithLabelValues(string(e))
	}
	return p, nil
}

func (p *Prometheus) Inc(e Event) {
	p.frames.WithLabelValues(string(e)).Inc()
}

func (p *Prometheus) SetState(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastState == s {
		return
	}
	if len(p.lastState) > 0 {
		p.state.WithLabelValues(p.lastState).Set(0)
	}
	p.state.WithLabelValues(s).Set(1)
	p.lastState = s
}

// Counter is a Recorder keeping counts in memory.
type Counter struct {
	mu     sync.Mutex
	counts map[Event]int
	states []string
}

func NewCounter() *Counter {
	return &Counter{counts: map[Event]int{}}
}

func (c *Counter) Inc(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[e]++
}

func (c *Counter) SetState(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, s)
}

func (c *Counter) Count(e Event) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[e]
}

func (c *Counter) States() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.states...)
}
