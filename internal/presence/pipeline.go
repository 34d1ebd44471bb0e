package presence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go2office/internal/models"

	"github.com/sirupsen/logrus"
)

var ErrPipelineClosed = errors.New("presence pipeline is closed")

// SessionSink receives the tracker's output. Calls come from the pipeline
// goroutine only, one at a time.
type SessionSink interface {
	SessionOpened(ctx context.Context, session models.OfficeSession) error
	SessionClosed(ctx context.Context, session models.OfficeSession) error
	AnomalyDetected(ctx context.Context, userID uint, anomaly Anomaly)
}

type Config struct {
	Filter             FilterConfig
	MaxSessionDuration time.Duration
	QueueSize          int
}

// Status is an immutable snapshot published after every pipeline step.
type Status struct {
	UserID      uint
	Active      bool
	OpenSession *models.OfficeSession
	Stats       FilterStats
	Anomalies   uint64
	// LastError is the last failed sink call. A failed close leaves the open
	// marker stored until the sink manages to write the closed session.
	LastError   string
	UpdatedAt   time.Time
}

// Pipeline is the single consumer of one user's location fixes. The filter,
// the tracker and both timers are owned by its goroutine.
type Pipeline struct {
	userID  uint
	filter  *Filter
	tracker *Tracker
	sink    SessionSink
	logger  *logrus.Logger
	clock   func() time.Time

	fixes  chan LocationFix
	sweeps chan time.Time
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	anomalies uint64
	lastError string
	status    atomic.Pointer[Status]
}

// PipelineOption customises a Pipeline.
type PipelineOption func(*Pipeline)

func WithClock(clock func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.clock = clock }
}

func WithLogger(logger *logrus.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// WithOpenSession resumes a session that was open before a restart.
func WithOpenSession(session models.OfficeSession) PipelineOption {
	return func(p *Pipeline) {
		if p.tracker.Restore(session) {
			p.filter.Seed(true)
		}
	}
}

// StartPipeline launches the consumer goroutine; it stops when ctx is done or
// Close is called.
func StartPipeline(ctx context.Context, userID uint, cfg Config, sink SessionSink, opts ...PipelineOption) *Pipeline {
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 64
	}

	p := &Pipeline{
		userID:  userID,
		filter:  NewFilter(cfg.Filter),
		tracker: NewTracker(userID, cfg.MaxSessionDuration),
		sink:    sink,
		logger:  logrus.StandardLogger(),
		clock:   time.Now,
		fixes:   make(chan LocationFix, queue),
		sweeps:  make(chan time.Time, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.publish()

	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
	return p
}

// Submit enqueues a fix. It blocks only while the queue is full.
func (p *Pipeline) Submit(ctx context.Context, fix LocationFix) error {
	select {
	case <-p.done:
		return ErrPipelineClosed
	default:
	}

	select {
	case p.fixes <- fix:
		return nil
	case <-p.done:
		return ErrPipelineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep asks the pipeline to force-close a stale session as of now.
func (p *Pipeline) Sweep(now time.Time) {
	select {
	case p.sweeps <- now:
	default:
		// a sweep is already queued
	}
}

func (p *Pipeline) Status() Status {
	return *p.status.Load()
}

// Close stops the goroutine, cancels its timers and waits for it to exit.
func (p *Pipeline) Close() {
	p.once.Do(p.cancel)
	<-p.done
}

// Done is closed once the consumer goroutine has exited.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

func (p *Pipeline) run(ctx context.Context) {
	dwell := time.NewTimer(time.Hour)
	stale := time.NewTimer(time.Hour)
	defer func() {
		dwell.Stop()
		stale.Stop()
		p.filter.Reset()
		close(p.done)
	}()

	for {
		deadline, ok := p.filter.Deadline()
		p.arm(dwell, deadline, ok)
		deadline, ok = p.tracker.StaleDeadline()
		p.arm(stale, deadline, ok)

		select {
		case <-ctx.Done():
			return
		case fix := <-p.fixes:
			if ev, ok := p.filter.Process(fix); ok {
				p.apply(ctx, p.tracker.Handle(ev))
			}
		case <-dwell.C:
			if ev, ok := p.filter.Confirm(p.clock()); ok {
				p.apply(ctx, p.tracker.Handle(ev))
			}
		case <-stale.C:
			p.apply(ctx, p.tracker.Expire(p.clock()))
		case now := <-p.sweeps:
			p.apply(ctx, p.tracker.Expire(now))
		}
		p.publish()
	}
}

// arm points timer at deadline, or stops it when there is none.
func (p *Pipeline) arm(timer *time.Timer, deadline time.Time, ok bool) {
	if !ok {
		timer.Stop()
		return
	}
	wait := deadline.Sub(p.clock())
	if wait < 0 {
		wait = 0
	}
	// one nanosecond past the deadline so that strict comparisons are satisfied
	timer.Reset(wait + time.Nanosecond)
}

func (p *Pipeline) apply(ctx context.Context, out Outcome) {
	for _, a := range out.Anomalies {
		p.anomalies++
		p.logger.WithFields(logrus.Fields{
			"user_id": p.userID,
			"anomaly": a.Kind,
			"time":    a.Time.Format(time.RFC3339),
		}).Warn(a.Detail)
		p.sink.AnomalyDetected(ctx, p.userID, a)
	}

	if out.Closed != nil {
		if out.Closed.AnomalyReason == string(AnomalyStaleSession) && !p.tracker.IsActive() {
			// start over from outside so the next stay inside opens a session
			p.filter.Seed(false)
		}
		if err := p.sink.SessionClosed(ctx, *out.Closed); err != nil {
			p.fail("close session", out.Closed.ID, err)
		}
	}
	if out.Opened != nil {
		if err := p.sink.SessionOpened(ctx, *out.Opened); err != nil {
			p.fail("open session", out.Opened.ID, err)
		}
	}
}

func (p *Pipeline) fail(op, sessionID string, err error) {
	p.lastError = op + ": " + err.Error()
	p.logger.WithError(err).WithFields(logrus.Fields{
		"user_id":    p.userID,
		"session_id": sessionID,
	}).Errorf("Failed to %s", op)
}

func (p *Pipeline) publish() {
	st := &Status{
		UserID:    p.userID,
		Active:    p.tracker.IsActive(),
		Stats:     p.filter.Stats(),
		Anomalies: p.anomalies,
		LastError: p.lastError,
		UpdatedAt: p.clock(),
	}
	if open, ok := p.tracker.Open(); ok {
		st.OpenSession = &open
	}
	p.status.Store(st)
}
