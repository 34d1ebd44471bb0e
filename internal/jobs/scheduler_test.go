package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go2office/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recomputeCall struct {
	from, to time.Time
}

type fakeRecomputer struct {
	calls []recomputeCall
}

func (f *fakeRecomputer) RecomputeRange(_ context.Context, from, to time.Time) (int, error) {
	f.calls = append(f.calls, recomputeCall{from: from, to: to})
	return 1, nil
}

type fakeSweeper struct {
	sweeps atomic.Int32
}

func (f *fakeSweeper) SweepStale(time.Time) int {
	f.sweeps.Add(1)
	return 0
}

func TestRunRecomputeTargetsYesterday(t *testing.T) {
	s := NewScheduler(time.FixedZone("CEST", 2*60*60))
	// 23:30 UTC on May 4 is already May 5 at UTC+2
	s.clock = func() time.Time { return time.Date(2026, time.May, 4, 23, 30, 0, 0, time.UTC) }

	r := &fakeRecomputer{}
	s.RunRecompute(r)

	require.Len(t, r.calls, 1)
	assert.Equal(t, models.Date(2026, time.May, 4), r.calls[0].from)
	assert.Equal(t, r.calls[0].from, r.calls[0].to)
}

func TestAddNightlyRecomputeRejectsBadSpec(t *testing.T) {
	s := NewScheduler(time.UTC)
	assert.Error(t, s.AddNightlyRecompute("not a cron spec", &fakeRecomputer{}))
	assert.NoError(t, s.AddNightlyRecompute("5 0 * * *", &fakeRecomputer{}))
}

func TestStaleSweepRuns(t *testing.T) {
	s := NewScheduler(time.UTC)
	sweeper := &fakeSweeper{}
	s.AddStaleSweep(time.Second, sweeper)

	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return sweeper.sweeps.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
