package process_test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/matryer/is"
	"github.com/tauraamui/nvtracker/pkg/host/process"
	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/nvtracker/pkg/model"
)

func overloadErrorLog(overload func(string, ...interface{})) func() {
	logErrorRef := log.Error
	log.Error = overload
	return func() { log.Error = logErrorRef }
}

func (suite *ProcessTestSuite) TestJournalWritesRecordedDetections() {
	is := is.New(suite.T())

	mu := sync.Mutex{}
	written := []float64{}
	journal := process.NewJournal(8)
	proc := process.NewJournalProcess(journal, func(d model.Detection) error {
		mu.Lock()
		defer mu.Unlock()
		written = append(written, d.Timestamp)
		return nil
	})
	proc.Setup().Start()

	for i := 1; i <= 3; i++ {
		journal.Record(model.Detection{TrackerUUID: "t", Timestamp: float64(i)})
	}
	is.True(waitUntil(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(written) == 3
	}))
	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))

	is.Equal(written, []float64{1, 2, 3})
}

func (suite *ProcessTestSuite) TestJournalDropsWhenFullAndDrainsOnStop() {
	is := is.New(suite.T())

	journal := process.NewJournal(2)
	for i := 1; i <= 5; i++ {
		journal.Record(model.Detection{Timestamp: float64(i)})
	}

	written := []float64{}
	proc := process.NewJournalProcess(journal, func(d model.Detection) error {
		written = append(written, d.Timestamp)
		return nil
	})
	proc.Setup().Start()
	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))

	is.Equal(written, []float64{1, 2})
}

func (suite *ProcessTestSuite) TestJournalLogsWriteFailures() {
	is := is.New(suite.T())

	mu := sync.Mutex{}
	errorLogs := []string{}
	reset := overloadErrorLog(func(format string, a ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		errorLogs = append(errorLogs, fmt.Sprintf(format, a...))
	})
	defer reset()

	journal := process.NewJournal(1)
	journal.Record(model.Detection{TrackerUUID: "tracker-1"})
	proc := process.NewJournalProcess(journal, func(model.Detection) error {
		return errors.New("database is locked")
	})
	proc.Setup().Start()
	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))

	mu.Lock()
	defer mu.Unlock()
	is.Equal(errorLogs, []string{"Unable to journal detection from tracker [tracker-1]: database is locked"})
}
