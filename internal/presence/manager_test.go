package presence

import (
	"context"
	"testing"
	"time"

	"go2office/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOpenSessions map[uint]*models.OfficeSession

func (s stubOpenSessions) GetOpen(userID uint) (*models.OfficeSession, error) {
	return s[userID], nil
}

func TestManagerRoutesPerUser(t *testing.T) {
	cfg := testConfig()
	cfg.Filter.EnterDwell = 0
	sink := &recordingSink{}
	m := NewManager(cfg, sink, nil, quietLogger(), fixedClock(t0))
	defer m.Shutdown()

	ctx := context.Background()
	require.NoError(t, m.Submit(ctx, 1, inside(t0)))
	require.NoError(t, m.Submit(ctx, 2, inside(t0)))

	require.Eventually(t, func() bool {
		opened, _, _ := sink.counts()
		return opened == 2
	}, time.Second, 5*time.Millisecond)

	st, ok := m.Status(1)
	require.True(t, ok)
	assert.True(t, st.Active)
	_, ok = m.Status(3)
	assert.False(t, ok)
}

func TestManagerRestoresOpenSession(t *testing.T) {
	source := stubOpenSessions{5: {ID: "open-5", UserID: 5, EntryTime: t0}}
	m := NewManager(testConfig(), &recordingSink{}, source, quietLogger(), fixedClock(t0))
	defer m.Shutdown()

	require.NoError(t, m.Submit(context.Background(), 5, inside(t0.Add(time.Minute))))

	st, ok := m.Status(5)
	require.True(t, ok)
	require.NotNil(t, st.OpenSession)
	assert.Equal(t, "open-5", st.OpenSession.ID)
}

func TestManagerShutdownRejectsSubmits(t *testing.T) {
	m := NewManager(testConfig(), &recordingSink{}, nil, quietLogger())
	require.NoError(t, m.Submit(context.Background(), 1, inside(t0)))

	m.Shutdown()

	assert.ErrorIs(t, m.Submit(context.Background(), 1, inside(t0.Add(time.Minute))), ErrPipelineClosed)
	assert.Equal(t, 0, m.SweepStale(t0))
}

func TestManagerResumeLetsSweepCloseStaleSession(t *testing.T) {
	source := stubOpenSessions{8: {ID: "open-8", UserID: 8, EntryTime: t0}}
	sink := &recordingSink{}
	m := NewManager(testConfig(), sink, source, quietLogger(), fixedClock(t0))
	defer m.Shutdown()

	require.NoError(t, m.Resume(8))
	assert.Equal(t, 1, m.SweepStale(t0.Add(17*time.Hour)))

	require.Eventually(t, func() bool {
		_, closed, anomalies := sink.counts()
		return closed == 1 && anomalies == 1
	}, time.Second, 5*time.Millisecond)
}
