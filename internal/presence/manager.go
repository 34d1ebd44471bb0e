package presence

import (
	"context"
	"sync"
	"time"

	"go2office/internal/models"

	"github.com/sirupsen/logrus"
)

// OpenSessionSource returns the persisted open session of a user, or nil.
type OpenSessionSource interface {
	GetOpen(userID uint) (*models.OfficeSession, error)
}

// Manager keeps one Pipeline per user. Its mutex guards only the registry;
// session state lives inside each pipeline goroutine.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     Config
	sink    SessionSink
	source  OpenSessionSource
	logger  *logrus.Logger
	options []PipelineOption

	mu        sync.Mutex
	pipelines map[uint]*Pipeline
	closed    bool
}

func NewManager(cfg Config, sink SessionSink, source OpenSessionSource, logger *logrus.Logger, opts ...PipelineOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		sink:      sink,
		source:    source,
		logger:    logger,
		options:   append([]PipelineOption{WithLogger(logger)}, opts...),
		pipelines: make(map[uint]*Pipeline),
	}
}

// Submit routes a fix to the user's pipeline, starting it on first use.
func (m *Manager) Submit(ctx context.Context, userID uint, fix LocationFix) error {
	p, err := m.pipeline(userID)
	if err != nil {
		return err
	}
	return p.Submit(ctx, fix)
}

// Resume starts the user's pipeline without a fix so that a persisted open
// session is watched by the stale guard.
func (m *Manager) Resume(userID uint) error {
	_, err := m.pipeline(userID)
	return err
}

// Status returns the latest snapshot of a user's pipeline.
func (m *Manager) Status(userID uint) (Status, bool) {
	m.mu.Lock()
	p, ok := m.pipelines[userID]
	m.mu.Unlock()
	if !ok {
		return Status{UserID: userID}, false
	}
	return p.Status(), true
}

// SweepStale asks every pipeline to force-close sessions stale at now.
func (m *Manager) SweepStale(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pipelines {
		p.Sweep(now)
	}
	return len(m.pipelines)
}

// Shutdown stops all pipelines and their timers.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	pipelines := make([]*Pipeline, 0, len(m.pipelines))
	for _, p := range m.pipelines {
		pipelines = append(pipelines, p)
	}
	m.pipelines = make(map[uint]*Pipeline)
	m.mu.Unlock()

	m.cancel()
	for _, p := range pipelines {
		p.Close()
	}
	m.logger.WithField("pipelines", len(pipelines)).Info("Presence pipelines stopped")
}

func (m *Manager) pipeline(userID uint) (*Pipeline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrPipelineClosed
	}
	if p, ok := m.pipelines[userID]; ok {
		return p, nil
	}

	opts := append([]PipelineOption{}, m.options...)
	if m.source != nil {
		open, err := m.source.GetOpen(userID)
		if err != nil {
			return nil, err
		}
		if open != nil {
			m.logger.WithFields(logrus.Fields{
				"user_id":    userID,
				"session_id": open.ID,
			}).Info("Resuming open office session")
			opts = append(opts, WithOpenSession(*open))
		}
	}

	p := StartPipeline(m.ctx, userID, m.cfg, m.sink, opts...)
	m.pipelines[userID] = p
	return p, nil
}
