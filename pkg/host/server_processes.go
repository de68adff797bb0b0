package host

import (
	"context"
	"net/http"

	"github.com/tauraamui/nvtracker/pkg/configdef"
	"github.com/tauraamui/nvtracker/pkg/database/models"
	"github.com/tauraamui/nvtracker/pkg/database/repos"
	"github.com/tauraamui/nvtracker/pkg/host/process"
	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/nvtracker/pkg/model"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
)

// SetupProcesses builds the tracker, feed, access, journal and metrics
// processes. Connect must have succeeded first.
func (s *Server) SetupProcesses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		log.Error("Unable to setup processes without a connected camera")
		return
	}

	procs := []process.Process{
		s.tracker.Setup(),
		process.NewFeedProcess(s.conn, s.tracker, s.config.Camera.FPS),
		process.NewAccessProcess(s.tracker, s.config.PopInterval(), logFrame(s.config.Camera.Title)),
	}
	if s.journal != nil {
		repo := repos.DetectionRepository{DB: s.db}
		procs = append(procs, process.NewJournalProcess(s.journal, func(d model.Detection) error {
			return repo.Create(models.NewDetection(d))
		}))
	}
	if len(s.config.MetricsAddress) > 0 {
		procs = append(procs, s.metricsProcess(s.config.MetricsAddress))
	}

	s.processes = process.Group(procs...).Setup()
}

func (s *Server) RunProcesses() {
	s.mu.Lock()
	procs := s.processes
	s.mu.Unlock()
	if procs == nil {
		return
	}
	procs.Start()
}

// WatchConfiguration applies config file changes until ctx is done.
func (s *Server) WatchConfiguration(ctx context.Context, watcher configdef.Watcher) (<-chan interface{}, error) {
	return watcher.Watch(ctx, s.ApplyConfig)
}

func (s *Server) shutdownProcesses() {
	s.mu.Lock()
	procs := s.processes
	s.processes = nil
	s.mu.Unlock()
	if procs == nil {
		return
	}
	procs.Stop()
	procs.Wait()
}

func (s *Server) metricsProcess(addr string) process.Process {
	return process.New(process.Settings{
		WaitForShutdownMsg: "Stopping metrics endpoint...",
		Process: func(ctx context.Context) []chan interface{} {
			mux := http.NewServeMux()
			mux.Handle("/metrics", s.MetricsHandler())
			srv := &http.Server{Addr: addr, Handler: mux}

			stopping := make(chan interface{})
			go func() {
				<-ctx.Done()
				if err := srv.Shutdown(context.Background()); err != nil {
					log.Error("Unable to stop metrics endpoint: %v", err)
				}
			}()
			go func() {
				defer close(stopping)
				log.Info("Serving metrics on %s", addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("Metrics endpoint failed: %v", err)
				}
			}()
			return []chan interface{}{stopping}
		},
	})
}

func logFrame(title string) func(*videoframe.Frame) {
	return func(f *videoframe.Frame) {
		dims := f.Dimensions()
		log.Debug("Processed frame from camera [%s]: %dx%d at %f", title, dims.W, dims.H, f.Timestamp())
	}
}
