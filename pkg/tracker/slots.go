package tracker

import "github.com/tauraamui/nvtracker/pkg/video/videoframe"

const capacity = 2

// slot holds at most one owned frame.
type slot struct {
	frame *videoframe.Frame
}

// put stores f and hands back the frame it displaced, which the caller
// must release.
func (s *slot) put(f *videoframe.Frame) *videoframe.Frame {
	prev := s.frame
	s.frame = f
	return prev
}

// take moves the frame out, leaving the slot empty.
func (s *slot) take() *videoframe.Frame {
	f := s.frame
	s.frame = nil
	return f
}

func (s *slot) timestamp() (float64, bool) {
	if s.frame == nil {
		return 0, false
	}
	return s.frame.Timestamp(), true
}

// slotStore is the double buffer. The producer writes slots[index], the
// run loop reads slots[capacity-1-index]. Callers hold the tracker's
// control lock for every method.
type slotStore struct {
	slots [capacity]slot
	index int
}

func (s *slotStore) producerIndex() int { return s.index }

func (s *slotStore) consumerIndex() int { return capacity - 1 - s.index }

func (s *slotStore) flip() {
	s.index = capacity - 1 - s.index
}

func (s *slotStore) put(f *videoframe.Frame) *videoframe.Frame {
	return s.slots[s.index].put(f)
}

// pending reports whether a pushed frame is waiting to be captured.
func (s *slotStore) pending() bool {
	return s.slots[s.index].frame != nil
}

// capture flips the index so the slot last written by the producer
// becomes the consumer side, then moves its frame out.
func (s *slotStore) capture() *videoframe.Frame {
	s.flip()
	return s.slots[s.consumerIndex()].take()
}

// reset empties every slot and returns the index to zero. The returned
// frames must be released by the caller.
func (s *slotStore) reset() []*videoframe.Frame {
	held := []*videoframe.Frame{}
	for i := range s.slots {
		if f := s.slots[i].take(); f != nil {
			held = append(held, f)
		}
	}
	s.index = 0
	return held
}
