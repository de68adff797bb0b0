package tracker

import (
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
)

func newTestFrame(ts float64) *videoframe.Frame {
	return videoframe.New([]byte{byte(ts)}, 1, 1, ts, nil)
}

func TestSlotPutHandsBackDisplacedFrame(t *testing.T) {
	is := is.New(t)

	s := slot{}
	a, b := newTestFrame(1), newTestFrame(2)
	is.True(s.put(a) == nil)
	is.Equal(s.put(b), a)

	ts, ok := s.timestamp()
	is.True(ok)
	is.Equal(ts, 2.0)

	is.Equal(s.take(), b)
	is.True(s.take() == nil)
	_, ok = s.timestamp()
	is.True(!ok)
}

func TestSlotStoreIndexesAlwaysComplementary(t *testing.T) {
	is := is.New(t)

	store := slotStore{}
	is.Equal(store.producerIndex(), 0)
	is.Equal(store.consumerIndex(), 1)

	for i := 0; i < 5; i++ {
		store.flip()
		is.Equal(store.producerIndex()+store.consumerIndex(), capacity-1)
	}
	is.Equal(store.producerIndex(), 1)
}

func TestSlotStoreCaptureTakesLastWrittenSlot(t *testing.T) {
	is := is.New(t)

	store := slotStore{}
	a, b := newTestFrame(1), newTestFrame(2)
	store.put(a)
	store.flip()
	store.put(b)
	store.flip()

	is.Equal(store.capture(), a)
	is.Equal(store.producerIndex(), 1)
	is.Equal(store.consumerIndex(), 0)

	is.Equal(store.capture(), b)
	is.True(store.capture() == nil)
}

func TestSlotStorePendingFollowsProducerSlot(t *testing.T) {
	is := is.New(t)

	store := slotStore{}
	is.True(!store.pending())
	store.put(newTestFrame(1))
	is.True(store.pending())

	store.flip()
	is.True(!store.pending())
	store.put(newTestFrame(2))
	store.flip()

	is.True(store.capture() != nil)
	is.True(store.pending())
	is.True(store.capture() != nil)
	is.True(!store.pending())
}

func TestSlotStoreResetReturnsHeldFrames(t *testing.T) {
	is := is.New(t)

	store := slotStore{}
	store.put(newTestFrame(1))
	store.flip()
	store.put(newTestFrame(2))

	held := store.reset()
	is.Equal(len(held), 2)
	is.Equal(store.producerIndex(), 0)
	is.Equal(len(store.reset()), 0)
}

func TestGateLatchesSingleNotify(t *testing.T) {
	g := newGate()
	g.notify()
	g.notify()

	waited := make(chan struct{})
	go func() {
		g.wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(3 * time.Second):
		t.Fatal("latched notify did not release wait")
	}

	// the second notify was not remembered
	select {
	case <-g.signal:
		t.Fatal("second notify was latched")
	default:
	}
}

func TestGateClearDropsLatchedNotify(t *testing.T) {
	g := newGate()
	g.notify()
	g.clear()

	waited := make(chan struct{})
	go func() {
		g.wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("wait returned after clear")
	case <-time.After(20 * time.Millisecond):
	}

	g.notify()
	select {
	case <-waited:
	case <-time.After(3 * time.Second):
		t.Fatal("notify did not release wait")
	}
}

func TestAccessDeliverWithoutRequestIsNoop(t *testing.T) {
	is := is.New(t)

	a := accessHandshake{}
	view := &stubView{data: []byte{1, 2, 3, 4}, dims: videoframe.Dimensions{W: 2, H: 2}}
	is.True(!a.deliver(view, 1))

	req, ok := a.request()
	is.True(ok)
	is.True(a.deliver(view, 2))
	frame := <-req
	is.Equal(frame.Data(), []byte{1, 2, 3, 4})
	is.Equal(frame.Timestamp(), 2.0)
	is.True(!a.isPending())

	a.close()
	a.close()
	_, ok = a.request()
	is.True(!ok)
}

func TestAccessCloseFailsPendingRequest(t *testing.T) {
	is := is.New(t)

	a := accessHandshake{}
	req, ok := a.request()
	is.True(ok)
	a.close()

	frame, ok := <-req
	is.True(!ok)
	is.True(frame == nil)
}

type stubView struct {
	data []byte
	dims videoframe.Dimensions
}

func (v *stubView) DataRef() interface{}             { return v.data }
func (v *stubView) Dimensions() videoframe.Dimensions { return v.dims }
func (v *stubView) FlipVertical() error               { return nil }
func (v *stubView) Bytes() []byte                     { return append([]byte{}, v.data...) }
func (v *stubView) Close()                            {}
