package process_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tauraamui/nvtracker/pkg/host/process"
	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
)

func overloadInfoLog(overload func(string, ...interface{})) func() {
	logInfoRef := log.Info
	log.Info = overload
	return func() { log.Info = logInfoRef }
}

type ProcessTestSuite struct {
	suite.Suite
	mu                    sync.Mutex
	infoLogs              []string
	resetLogging          func()
	resetInfoLogsOverload func()
}

func (suite *ProcessTestSuite) SetupSuite() {
	suite.resetLogging = log.Silence()
}

func (suite *ProcessTestSuite) TearDownSuite() {
	suite.resetLogging()
}

func (suite *ProcessTestSuite) SetupTest() {
	suite.infoLogs = []string{}
	suite.resetInfoLogsOverload = overloadInfoLog(func(format string, a ...interface{}) {
		suite.mu.Lock()
		defer suite.mu.Unlock()
		suite.infoLogs = append(suite.infoLogs, fmt.Sprintf(format, a...))
	})
}

func (suite *ProcessTestSuite) TearDownTest() {
	suite.resetInfoLogsOverload()
}

func (suite *ProcessTestSuite) logs() []string {
	suite.mu.Lock()
	defer suite.mu.Unlock()
	return append([]string{}, suite.infoLogs...)
}

func TestProcessTestSuite(t *testing.T) {
	suite.Run(t, &ProcessTestSuite{})
}

func (suite *ProcessTestSuite) TestGenericProcessRunsUntilStopped() {
	is := is.New(suite.T())

	started := 0
	proc := process.New(process.Settings{
		WaitForShutdownMsg: "Stopping test process...",
		Process: func(ctx context.Context) []chan interface{} {
			started++
			done := make(chan interface{})
			go func() {
				<-ctx.Done()
				close(done)
			}()
			return []chan interface{}{done}
		},
	})

	proc.Setup().Start()
	proc.Start()
	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))
	is.Equal(started, 1)
	assert.Contains(suite.T(), suite.logs(), "Stopping test process...")
}

func (suite *ProcessTestSuite) TestWaitOnUnstartedProcessReturns() {
	is := is.New(suite.T())

	proc := process.New(process.Settings{})
	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))
}

func (suite *ProcessTestSuite) TestFeedNotifiesReadyThenPushes() {
	is := is.New(suite.T())

	conn := &stubConn{}
	dest := &stubPusher{}
	proc := process.NewFeedProcess(conn, dest, 0)
	proc.Setup().Start()

	is.True(waitUntil(func() bool { return dest.pushes() >= 10 }))
	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))

	is.Equal(dest.recorded(), []string{"ready", "push"})
	assert.Contains(suite.T(), suite.logs(), "Stopping camera feed [stub-conn]...")
}

func (suite *ProcessTestSuite) TestFeedWaitsOnceWhileReadsFailAndRecovers() {
	is := is.New(suite.T())

	conn := &stubConn{failFrom: 3, failTo: 6}
	dest := &stubPusher{}
	proc := process.NewFeedProcess(conn, dest, 0)
	proc.Setup().Start()

	is.True(waitUntil(func() bool {
		events := dest.recorded()
		return len(events) >= 5
	}))
	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))

	is.Equal(dest.recorded()[:5], []string{"ready", "push", "wait", "ready", "push"})
}

func (suite *ProcessTestSuite) TestFeedOnClosedConnectionWaitsForCamera() {
	is := is.New(suite.T())

	conn := &stubConn{closed: true}
	dest := &stubPusher{}
	proc := process.NewFeedProcess(conn, dest, 0)
	proc.Setup().Start()

	is.True(waitUntil(func() bool { return len(dest.recorded()) == 1 }))
	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))

	is.Equal(dest.recorded(), []string{"wait"})
	is.Equal(dest.pushes(), 0)
}

func (suite *ProcessTestSuite) TestFeedPacedByFPS() {
	is := is.New(suite.T())

	conn := &stubConn{}
	dest := &stubPusher{}
	proc := process.NewFeedProcess(conn, dest, 10)
	proc.Setup().Start()

	time.Sleep(250 * time.Millisecond)
	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))

	is.True(dest.pushes() >= 1)
	is.True(dest.pushes() <= 5)
}

func (suite *ProcessTestSuite) TestAccessHandsFramesToCallback() {
	is := is.New(suite.T())

	src := &stubPopper{}
	mu := sync.Mutex{}
	got := []float64{}
	proc := process.NewAccessProcess(src, time.Millisecond, func(f *videoframe.Frame) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, f.Timestamp())
	})
	proc.Setup().Start()

	is.True(waitUntil(func() bool { return src.count() >= 3 }))
	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))

	mu.Lock()
	defer mu.Unlock()
	is.True(len(got) >= 3)
	is.Equal(got[:3], []float64{1, 2, 3})
}

func (suite *ProcessTestSuite) TestAccessStopsWhilePopPending() {
	is := is.New(suite.T())

	src := &stubPopper{fail: true}
	called := false
	proc := process.NewAccessProcess(src, time.Hour, func(*videoframe.Frame) { called = true })
	proc.Setup().Start()

	proc.Stop()
	is.NoErr(callW3sTimeout(proc.Wait))
	is.True(!called)
}

func (suite *ProcessTestSuite) TestGroupStopsEveryProcess() {
	is := is.New(suite.T())

	dest := &stubPusher{}
	src := &stubPopper{}
	grp := process.Group(
		process.NewFeedProcess(&stubConn{}, dest, 0),
		process.NewAccessProcess(src, time.Millisecond, func(*videoframe.Frame) {}),
	)
	grp.Setup().Start()

	is.True(waitUntil(func() bool { return dest.pushes() > 0 && src.count() > 0 }))
	grp.Stop()
	is.NoErr(callW3sTimeout(grp.Wait))
}
