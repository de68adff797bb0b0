package tracker

// Step runs a single run loop tick on the caller's goroutine and reports
// whether a frame was captured.
func (t *Tracker) Step() bool {
	frame, ok := t.step()
	if ok {
		t.track(frame)
	}
	return ok
}

func (t *Tracker) Indexes() (producer, consumer int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slots.producerIndex(), t.slots.consumerIndex()
}

func (t *Tracker) HasPendingAccess() bool {
	return t.access.isPending()
}

func (t *Tracker) SlotTimestamps() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts := []float64{}
	for i := range t.slots.slots {
		if v, ok := t.slots.slots[i].timestamp(); ok {
			ts = append(ts, v)
		}
	}
	return ts
}
