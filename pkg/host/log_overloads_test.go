package host_test

import (
	"fmt"
	"sync"

	"github.com/tauraamui/nvtracker/pkg/log"
)

type logRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *logRecorder) record(format string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, a...))
}

func (r *logRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.lines...)
}

func overloadInfoLog(overload func(string, ...interface{})) func() {
	logInfoRef := log.Info
	log.Info = overload
	return func() { log.Info = logInfoRef }
}
