package process

import (
	"context"

	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/nvtracker/pkg/model"
)

// Journal buffers detections from the run loop for a slower writer.
type Journal struct {
	detections chan model.Detection
}

func NewJournal(size int) *Journal {
	return &Journal{detections: make(chan model.Detection, size)}
}

// Record queues d without blocking. Detections arriving while the queue
// is full are dropped.
func (j *Journal) Record(d model.Detection) {
	select {
	case j.detections <- d:
	default:
		log.Debug("Journal full, dropping detection at %f", d.Timestamp)
	}
}

// NewJournalProcess hands every recorded detection to write until stopped.
// Detections still queued on stop are written before it finishes.
func NewJournalProcess(journal *Journal, write func(model.Detection) error) Process {
	return New(Settings{
		WaitForShutdownMsg: "Stopping detection journal...",
		Process: func(ctx context.Context) []chan interface{} {
			stopping := make(chan interface{})
			go func() {
				defer close(stopping)
				for {
					select {
					case <-ctx.Done():
						journal.drain(write)
						return
					case d := <-journal.detections:
						writeDetection(write, d)
					}
				}
			}()
			return []chan interface{}{stopping}
		},
	})
}

func (j *Journal) drain(write func(model.Detection) error) {
	for {
		select {
		case d := <-j.detections:
			writeDetection(write, d)
		default:
			return
		}
	}
}

func writeDetection(write func(model.Detection) error, d model.Detection) {
	if err := write(d); err != nil {
		log.Error("Unable to journal detection from tracker [%s]: %v", d.TrackerUUID, err)
	}
}
