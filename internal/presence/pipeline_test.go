package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go2office/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu        sync.Mutex
	opened    []models.OfficeSession
	closed    []models.OfficeSession
	anomalies []Anomaly
	closeErr  error
}

func (s *recordingSink) SessionOpened(_ context.Context, session models.OfficeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, session)
	return nil
}

func (s *recordingSink) SessionClosed(_ context.Context, session models.OfficeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, session)
	return s.closeErr
}

func (s *recordingSink) AnomalyDetected(_ context.Context, _ uint, a Anomaly) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anomalies = append(s.anomalies, a)
}

func (s *recordingSink) counts() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.opened), len(s.closed), len(s.anomalies)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testConfig() Config {
	return Config{Filter: testFilterConfig(), MaxSessionDuration: 16 * time.Hour, QueueSize: 8}
}

// fixedClock keeps the pipeline timers far from firing during the test.
func fixedClock(at time.Time) PipelineOption {
	return WithClock(func() time.Time { return at })
}

func TestPipelineOpensAndClosesSession(t *testing.T) {
	sink := &recordingSink{}
	p := StartPipeline(context.Background(), 1, testConfig(), sink, WithLogger(quietLogger()), fixedClock(t0))
	defer p.Close()

	ctx := context.Background()
	require.NoError(t, p.Submit(ctx, inside(t0)))
	require.NoError(t, p.Submit(ctx, inside(t0.Add(4*time.Minute))))
	require.NoError(t, p.Submit(ctx, outside(t0.Add(8*time.Hour))))
	require.NoError(t, p.Submit(ctx, outside(t0.Add(8*time.Hour+6*time.Minute))))

	require.Eventually(t, func() bool {
		_, closed, _ := sink.counts()
		return closed == 1
	}, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.opened, 1)
	assert.Equal(t, t0, sink.opened[0].EntryTime)
	assert.Equal(t, sink.opened[0].ID, sink.closed[0].ID)
	assert.Equal(t, t0.Add(8*time.Hour), *sink.closed[0].ExitTime)
}

func TestPipelineDwellTimerConfirmsWithoutNewFix(t *testing.T) {
	cfg := testConfig()
	cfg.Filter.EnterDwell = 30 * time.Millisecond
	sink := &recordingSink{}
	p := StartPipeline(context.Background(), 1, cfg, sink, WithLogger(quietLogger()))
	defer p.Close()

	require.NoError(t, p.Submit(context.Background(), inside(time.Now())))

	require.Eventually(t, func() bool {
		opened, _, _ := sink.counts()
		return opened == 1
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return p.Status().Active }, time.Second, 5*time.Millisecond)
}

func TestPipelineStaleTimerForceCloses(t *testing.T) {
	cfg := testConfig()
	cfg.Filter.EnterDwell = 0
	cfg.MaxSessionDuration = 40 * time.Millisecond
	sink := &recordingSink{}
	p := StartPipeline(context.Background(), 1, cfg, sink, WithLogger(quietLogger()))
	defer p.Close()

	require.NoError(t, p.Submit(context.Background(), inside(time.Now())))

	require.Eventually(t, func() bool {
		_, closed, anomalies := sink.counts()
		return closed == 1 && anomalies == 1
	}, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.True(t, sink.closed[0].IsAnomalous)
	assert.Equal(t, AnomalyStaleSession, sink.anomalies[0].Kind)
}

func TestPipelineSweep(t *testing.T) {
	cfg := testConfig()
	cfg.Filter.EnterDwell = 0
	sink := &recordingSink{}
	p := StartPipeline(context.Background(), 1, cfg, sink, WithLogger(quietLogger()), fixedClock(t0))
	defer p.Close()

	require.NoError(t, p.Submit(context.Background(), inside(t0)))
	require.Eventually(t, func() bool { return p.Status().Active }, time.Second, 5*time.Millisecond)

	p.Sweep(t0.Add(17 * time.Hour))

	require.Eventually(t, func() bool {
		_, closed, _ := sink.counts()
		return closed == 1
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return !p.Status().Active }, time.Second, 5*time.Millisecond)
}

func TestPipelineOpensNewSessionAfterStaleClose(t *testing.T) {
	sink := &recordingSink{}
	p := StartPipeline(context.Background(), 1, testConfig(), sink, WithLogger(quietLogger()), fixedClock(t0))
	defer p.Close()

	ctx := context.Background()
	require.NoError(t, p.Submit(ctx, inside(t0)))
	require.NoError(t, p.Submit(ctx, inside(t0.Add(4*time.Minute))))
	require.Eventually(t, func() bool { return p.Status().Active }, time.Second, 5*time.Millisecond)

	p.Sweep(t0.Add(17 * time.Hour))
	require.Eventually(t, func() bool {
		_, closed, _ := sink.counts()
		return closed == 1 && !p.Status().Active
	}, time.Second, 5*time.Millisecond)

	nextDay := t0.Add(24 * time.Hour)
	for i := 0; i < 60; i++ {
		require.NoError(t, p.Submit(ctx, inside(nextDay.Add(time.Duration(i)*5*time.Minute))))
	}

	require.Eventually(t, func() bool {
		opened, _, _ := sink.counts()
		return opened == 2 && p.Status().Active
	}, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, nextDay, sink.opened[1].EntryTime)
	require.Len(t, sink.anomalies, 1)
	assert.Equal(t, AnomalyStaleSession, sink.anomalies[0].Kind)
}

func TestPipelineReportsPersistenceFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Filter.EnterDwell = 0
	cfg.Filter.ExitDwell = 0
	sink := &recordingSink{closeErr: errors.New("database is locked")}
	p := StartPipeline(context.Background(), 1, cfg, sink, WithLogger(quietLogger()), fixedClock(t0))
	defer p.Close()

	ctx := context.Background()
	require.NoError(t, p.Submit(ctx, inside(t0)))
	require.NoError(t, p.Submit(ctx, outside(t0.Add(time.Hour))))

	require.Eventually(t, func() bool {
		return p.Status().LastError != ""
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, p.Status().LastError, "database is locked")
	assert.False(t, p.Status().Active)
}

func TestPipelineResumesOpenSession(t *testing.T) {
	cfg := testConfig()
	cfg.Filter.ExitDwell = 0
	sink := &recordingSink{}
	open := models.OfficeSession{ID: "resumed", UserID: 1, EntryTime: t0}
	p := StartPipeline(context.Background(), 1, cfg, sink, WithLogger(quietLogger()), fixedClock(t0), WithOpenSession(open))
	defer p.Close()

	assert.True(t, p.Status().Active)
	require.NoError(t, p.Submit(context.Background(), outside(t0.Add(2*time.Hour))))

	require.Eventually(t, func() bool {
		_, closed, _ := sink.counts()
		return closed == 1
	}, time.Second, 5*time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "resumed", sink.closed[0].ID)
}

func TestPipelineSubmitAfterClose(t *testing.T) {
	p := StartPipeline(context.Background(), 1, testConfig(), &recordingSink{}, WithLogger(quietLogger()))
	p.Close()

	assert.ErrorIs(t, p.Submit(context.Background(), inside(t0)), ErrPipelineClosed)
	p.Close()
}

func TestPipelineConcurrentSubmitters(t *testing.T) {
	cfg := testConfig()
	cfg.Filter.EnterDwell = 0
	sink := &recordingSink{}
	p := StartPipeline(context.Background(), 1, cfg, sink, WithLogger(quietLogger()), fixedClock(t0))
	defer p.Close()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_ = p.Submit(context.Background(), inside(t0.Add(time.Duration(w*20+i)*time.Second)))
			}
		}(w)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		st := p.Status()
		return st.Stats.Accepted+st.Stats.OutOfOrder == 160
	}, time.Second, 5*time.Millisecond)
	opened, closed, _ := sink.counts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 0, closed)
}
