package process

import (
	"context"
	"sync"

	"github.com/tauraamui/nvtracker/pkg/log"
)

// Process is anything the host runs for the lifetime of the service.
type Process interface {
	Setup() Process
	Start()
	Stop()
	Wait()
}

type Settings struct {
	// WaitForShutdownMsg is logged at info level when the process is asked to stop.
	WaitForShutdownMsg string
	// Process starts the work and returns channels which close once it has finished.
	Process func(context.Context) []chan interface{}
}

func New(settings Settings) Process {
	return &process{
		waitForShutdownMsg: settings.WaitForShutdownMsg,
		process:            settings.Process,
	}
}

type process struct {
	mu                 sync.Mutex
	process            func(context.Context) []chan interface{}
	waitForShutdownMsg string
	started            bool
	canceller          context.CancelFunc
	signals            []chan interface{}
}

func (p *process) Setup() Process { return p }

// Start runs the process func once. Later calls do nothing.
func (p *process) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.process == nil {
		return
	}
	p.started = true

	ctx, canceller := context.WithCancel(context.Background())
	p.canceller = canceller
	p.signals = append(p.signals, p.process(ctx)...)
}

func (p *process) Stop() {
	p.mu.Lock()
	canceller := p.canceller
	p.mu.Unlock()

	if len(p.waitForShutdownMsg) > 0 {
		log.Info(p.waitForShutdownMsg)
	}
	if canceller != nil {
		canceller()
	}
}

// Wait returns straight away for a process which never started.
func (p *process) Wait() {
	p.mu.Lock()
	signals := append([]chan interface{}{}, p.signals...)
	p.mu.Unlock()

	for _, sig := range signals {
		<-sig
	}
}

// Group runs several processes as one, stopping them all together.
func Group(procs ...Process) Process {
	return &group{procs: procs}
}

type group struct {
	procs []Process
}

func (g *group) Setup() Process {
	for _, p := range g.procs {
		p.Setup()
	}
	return g
}

func (g *group) Start() {
	for _, p := range g.procs {
		p.Start()
	}
}

func (g *group) Stop() {
	for _, p := range g.procs {
		p.Stop()
	}
}

func (g *group) Wait() {
	wg := sync.WaitGroup{}
	wg.Add(len(g.procs))
	for _, p := range g.procs {
		go func(wg *sync.WaitGroup, p Process) {
			defer wg.Done()
			p.Wait()
		}(&wg, p)
	}
	wg.Wait()
}
