package host

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tauraamui/nvtracker/pkg/configdef"
	"github.com/tauraamui/nvtracker/pkg/database"
	"github.com/tauraamui/nvtracker/pkg/database/dbconn"
	"github.com/tauraamui/nvtracker/pkg/database/repos"
	"github.com/tauraamui/nvtracker/pkg/host/process"
	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/nvtracker/pkg/metrics"
	"github.com/tauraamui/nvtracker/pkg/tracker"
	"github.com/tauraamui/nvtracker/pkg/video"
	"github.com/tauraamui/nvtracker/pkg/video/videobackend"
	"github.com/tauraamui/xerror"
)

const journalSize = 256

var connectDB = database.Connect

// Server owns one camera connection, the tracker fed from it and the
// processes around them.
type Server struct {
	configResolver configdef.Resolver
	videoBackend   videobackend.Backend
	registry       *prometheus.Registry

	mu           sync.Mutex
	config       configdef.Values
	conn         videobackend.Connection
	tracker      *tracker.Tracker
	journal      *process.Journal
	db           dbconn.GormWrapper
	processes    process.Process
	shutdownOnce sync.Once
	shutdownDone chan interface{}
}

// NewServer loads the configuration straight away. A nil backend is
// resolved from the configured video_backend.
func NewServer(cr configdef.Resolver, backend videobackend.Backend) (*Server, error) {
	s := Server{
		configResolver: cr,
		videoBackend:   backend,
		registry:       prometheus.NewRegistry(),
		shutdownDone:   make(chan interface{}),
	}
	if err := s.LoadConfiguration(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Server) LoadConfiguration() error {
	config, err := s.configResolver.Resolve()
	if err != nil {
		return xerror.Errorf("unable to load configuration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
	if s.videoBackend == nil {
		backend, err := video.ResolveBackend(config.VideoBackend)
		if err != nil {
			return err
		}
		s.videoBackend = backend
	}
	return nil
}

// Connect opens the camera and loads the tracker's model.
func (s *Server) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cam := s.config.Camera
	log.Info("Connecting to camera: [%s@%s]...", cam.Title, cam.Address)
	conn, err := s.videoBackend.Connect(ctx, videobackend.ConnectSettings{
		Title:   cam.Title,
		Address: cam.Address,
		Width:   cam.Width,
		Height:  cam.Height,
	})
	if err != nil {
		return xerror.Errorf("unable to connect to camera [%s]: %w", cam.Title, err)
	}
	log.Info("Connected successfully to camera: [%s]", cam.Title)

	recorder, err := metrics.NewPrometheus(s.registry, cam.Title)
	if err != nil {
		conn.Close()
		return xerror.Errorf("unable to register metrics: %w", err)
	}

	settings := tracker.Settings{
		AppContext: s,
		Path:       s.config.ModelPath,
		Backend:    s.videoBackend,
		Metrics:    recorder,
	}
	if s.config.Journal {
		db, err := connectDB()
		if err != nil {
			conn.Close()
			return xerror.Errorf("unable to open detection journal: %w", err)
		}
		s.db = db
		s.journal = process.NewJournal(journalSize)
		settings.OnDetection = s.journal.Record
	}

	t, err := tracker.New(settings)
	if err != nil {
		s.closeResources(conn)
		return err
	}

	s.conn = conn
	s.tracker = t
	if s.config.Paused {
		t.Pause()
	}
	return nil
}

// ApplyConfig takes on the parts of values which can change at runtime.
func (s *Server) ApplyConfig(values configdef.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.Paused = values.Paused
	s.config.Debug = values.Debug
	if s.tracker == nil {
		return
	}
	if values.Paused {
		s.tracker.Pause()
		return
	}
	s.tracker.Resume()
}

func (s *Server) Config() configdef.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Server) Tracker() *tracker.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker
}

func (s *Server) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func (s *Server) closeResources(conn videobackend.Connection) {
	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Error("Unable to close camera connection: %v", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error("Unable to close detection journal: %v", err)
		}
		s.db = nil
	}
}

func (s *Server) shutdown() {
	s.shutdownProcesses()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker != nil {
		s.tracker.Destroy()
		s.tracker.Wait()
	}
	if s.db != nil && s.tracker != nil {
		s.logLastDetection(s.tracker.UUID())
	}
	if s.conn != nil {
		log.Warn("Closing camera connection: [%s]...", s.config.Camera.Title)
	}
	s.closeResources(s.conn)
	s.conn = nil
	close(s.shutdownDone)
}

func (s *Server) logLastDetection(trackerUUID string) {
	repo := repos.DetectionRepository{DB: s.db}
	latest, err := repo.Latest(trackerUUID, 1)
	if err != nil {
		log.Error("Unable to read detection journal: %v", err)
		return
	}
	if len(latest) == 0 {
		log.Info("No detections journalled for tracker [%s]", trackerUUID)
		return
	}
	log.Info("Last journalled detection for tracker [%s] at %f, face found: %t", trackerUUID, latest[0].Timestamp, latest[0].FaceFound)
}

// Shutdown stops everything and returns a channel closed once done.
// Repeated calls return the same channel.
func (s *Server) Shutdown() chan interface{} {
	s.shutdownOnce.Do(s.shutdown)
	return s.shutdownDone
}
