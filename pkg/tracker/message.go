package tracker

// Message is the request the run loop acts on during its next tick.
type Message int

const (
	MsgNone Message = iota
	MsgWaitReady
	MsgFrameAvailable
	MsgLoopExit
)

func (m Message) String() string {
	switch m {
	case MsgNone:
		return "NONE"
	case MsgWaitReady:
		return "WAIT_READY"
	case MsgFrameAvailable:
		return "FRAME_AVAILABLE"
	case MsgLoopExit:
		return "LOOP_EXIT"
	default:
		return "UNKNOWN"
	}
}

// acceptsFrame reports whether a push may replace m with MsgFrameAvailable.
// Pending waits and exits always win over new frames.
func (m Message) acceptsFrame() bool {
	return m == MsgNone || m == MsgFrameAvailable
}
