package tracker

// gate is the camera ready handshake. A notify given while nobody waits
// is latched so the next wait returns straight away, at most one notify
// is remembered.
type gate struct {
	signal chan struct{}
}

func newGate() *gate {
	return &gate{signal: make(chan struct{}, 1)}
}

func (g *gate) notify() {
	select {
	case g.signal <- struct{}{}:
	default:
	}
}

// clear drops a latched notify.
func (g *gate) clear() {
	select {
	case <-g.signal:
	default:
	}
}

func (g *gate) wait() {
	<-g.signal
}
