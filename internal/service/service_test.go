package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go2office/internal/attendance"
	"go2office/internal/models"
	"go2office/internal/presence"
	"go2office/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fixture struct {
	sessions *repository.GormOfficeSessionRepository
	entries  *repository.GormDailyEntryRepository
	holidays *repository.GormHolidayRepository
	settings *repository.GormOfficeSettingsRepository
	users    *repository.GormUserRepository
	stats    *repository.GormMonthlyStatRepository

	attendance *AttendanceService
	progress   *ProgressService
	holiday    *HolidayService
	setting    *SettingsService
	user       *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })

	f := &fixture{}
	f.sessions, err = repository.NewGormOfficeSessionRepository(db)
	require.NoError(t, err)
	f.entries, err = repository.NewGormDailyEntryRepository(db)
	require.NoError(t, err)
	f.holidays, err = repository.NewGormHolidayRepository(db)
	require.NoError(t, err)
	f.settings, err = repository.NewGormOfficeSettingsRepository(db)
	require.NoError(t, err)
	f.users, err = repository.NewGormUserRepository(db)
	require.NoError(t, err)
	f.stats, err = repository.NewGormMonthlyStatRepository(db)
	require.NoError(t, err)

	f.attendance = NewAttendanceService(f.sessions, f.entries, f.users, time.UTC)
	f.progress = NewProgressService(f.settings, f.holidays, f.entries, f.stats)
	f.holiday = NewHolidayService(f.holidays)
	f.setting = NewSettingsService(f.settings)
	f.user = NewUserService(f.users)
	return f
}

var mayPrefs = []time.Weekday{time.Monday, time.Wednesday, time.Friday, time.Tuesday, time.Thursday}

func may(day, hour, minute int) time.Time {
	return time.Date(2026, time.May, day, hour, minute, 0, 0, time.UTC)
}

func closedSession(userID uint, entry, exit time.Time) models.OfficeSession {
	return models.OfficeSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		EntryTime:      entry,
		ExitTime:       &exit,
		IsAutoDetected: true,
	}
}

func TestAttendanceService_SessionOpenedStoresMarker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open := models.OfficeSession{ID: uuid.NewString(), UserID: 1, EntryTime: may(4, 9, 0), IsAutoDetected: true}
	require.NoError(t, f.attendance.SessionOpened(ctx, open))

	stored, err := f.sessions.GetOpen(1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, open.ID, stored.ID)

	entry, err := f.entries.Get(1, models.Date(2026, time.May, 4))
	require.NoError(t, err)
	assert.Nil(t, entry, "open sessions do not produce entries")
}

func TestAttendanceService_SessionClosedSplitsAtMidnight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := closedSession(1, may(4, 22, 0), may(5, 2, 0))
	require.NoError(t, f.attendance.SessionOpened(ctx, models.OfficeSession{ID: s.ID, UserID: 1, EntryTime: s.EntryTime}))
	require.NoError(t, f.attendance.SessionClosed(ctx, s))

	open, err := f.sessions.GetOpen(1)
	require.NoError(t, err)
	assert.Nil(t, open)

	first, err := f.entries.Get(1, models.Date(2026, time.May, 4))
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 2.0, first.HoursWorked)

	second, err := f.entries.Get(1, models.Date(2026, time.May, 5))
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 2.0, second.HoursWorked)
	assert.True(t, second.WasInOffice)
}

type flakySessionRepo struct {
	*repository.GormOfficeSessionRepository
	fail bool
}

func (r *flakySessionRepo) Upsert(session *models.OfficeSession) error {
	if r.fail {
		return errors.New("database is locked")
	}
	return r.GormOfficeSessionRepository.Upsert(session)
}

func TestAttendanceService_FailedCloseIsStoredLater(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := &flakySessionRepo{GormOfficeSessionRepository: f.sessions}
	svc := NewAttendanceService(repo, f.entries, f.users, time.UTC)

	s := closedSession(1, may(4, 9, 0), may(4, 17, 0))
	require.NoError(t, svc.SessionOpened(ctx, models.OfficeSession{ID: s.ID, UserID: 1, EntryTime: s.EntryTime}))

	repo.fail = true
	require.Error(t, svc.SessionClosed(ctx, s))

	open, err := f.sessions.GetOpen(1)
	require.NoError(t, err)
	require.NotNil(t, open, "marker stays until the close is stored")

	stored, err := svc.FlushUnsaved(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, stored)

	repo.fail = false
	stored, err = svc.FlushUnsaved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	open, err = f.sessions.GetOpen(1)
	require.NoError(t, err)
	assert.Nil(t, open)

	entry, err := f.entries.Get(1, models.Date(2026, time.May, 4))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 8.0, entry.HoursWorked)

	stored, err = svc.FlushUnsaved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stored)
}

func TestAttendanceService_RecomputeRangeStoresFailedClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := &flakySessionRepo{GormOfficeSessionRepository: f.sessions}
	svc := NewAttendanceService(repo, f.entries, f.users, time.UTC)

	repo.fail = true
	require.Error(t, svc.SessionClosed(ctx, closedSession(1, may(6, 8, 0), may(6, 10, 0))))
	repo.fail = false

	_, err := svc.RecomputeRange(ctx, models.Date(2026, time.May, 6), models.Date(2026, time.May, 6))
	require.NoError(t, err)

	sessions, err := f.sessions.ListByUser(1, 10)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestAttendanceService_ManualEntryWinsUntilForced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := models.Date(2026, time.May, 4)

	_, err := f.attendance.SetManualDay(ctx, 1, day, 5, "client visit")
	require.NoError(t, err)

	require.NoError(t, f.attendance.SessionClosed(ctx, closedSession(1, may(4, 9, 0), may(4, 17, 0))))

	entry, err := f.entries.Get(1, day)
	require.NoError(t, err)
	assert.Equal(t, 5.0, entry.HoursWorked)
	assert.True(t, entry.IsManual)

	recomputed, err := f.attendance.RecomputeDay(ctx, 1, day, true)
	require.NoError(t, err)
	assert.Equal(t, 8.0, recomputed.HoursWorked)
	assert.False(t, recomputed.IsManual)

	entry, err = f.entries.Get(1, day)
	require.NoError(t, err)
	assert.Equal(t, 8.0, entry.HoursWorked)
	assert.False(t, entry.IsManual)
}

func TestAttendanceService_SetManualDayRejectsBadHours(t *testing.T) {
	f := newFixture(t)

	_, err := f.attendance.SetManualDay(context.Background(), 1, models.Date(2026, time.May, 4), 30, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAttendanceService_RecomputeRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, _, err := f.user.Register(10, "alice", "Alice", "")
	require.NoError(t, err)
	_, _, err = f.user.Register(11, "bob", "Bob", "")
	require.NoError(t, err)

	require.NoError(t, f.sessions.Upsert(ptr(closedSession(alice.ID, may(6, 8, 0), may(6, 12, 30)))))

	processed, err := f.attendance.RecomputeRange(ctx, models.Date(2026, time.May, 5), models.Date(2026, time.May, 7))
	require.NoError(t, err)
	assert.Equal(t, 6, processed)

	entry, err := f.entries.Get(alice.ID, models.Date(2026, time.May, 6))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 4.5, entry.HoursWorked)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.attendance.RecomputeRange(cancelled, models.Date(2026, time.May, 5), models.Date(2026, time.May, 7))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAttendanceService_AnomalyNotifier(t *testing.T) {
	f := newFixture(t)

	var got []presence.Anomaly
	f.attendance.SetAnomalyNotifier(func(_ context.Context, userID uint, a presence.Anomaly) {
		assert.Equal(t, uint(3), userID)
		got = append(got, a)
	})

	f.attendance.AnomalyDetected(context.Background(), 3, presence.Anomaly{Kind: presence.AnomalyStaleSession, Time: may(4, 9, 0)})
	require.Len(t, got, 1)
	assert.Equal(t, presence.AnomalyStaleSession, got[0].Kind)
}

func TestSettingsService(t *testing.T) {
	f := newFixture(t)

	_, err := f.setting.Get(1)
	assert.ErrorIs(t, err, models.ErrSettingsNotConfigured)

	_, err = f.setting.Configure(1, 6, 40, mayPrefs)
	assert.ErrorIs(t, err, models.ErrValidation)

	saved, err := f.setting.Configure(1, 3, 24, mayPrefs)
	require.NoError(t, err)
	assert.Equal(t, 8.0, saved.HoursPerDay())

	got, err := f.setting.Get(1)
	require.NoError(t, err)
	assert.Equal(t, mayPrefs, got.Preferences())
	assert.Contains(t, f.setting.FormatSettings(got), "1. Monday")
}

func TestHolidayService_AddVacation(t *testing.T) {
	f := newFixture(t)

	n, err := f.holiday.AddVacation(1, models.Date(2026, time.May, 8), models.Date(2026, time.May, 11), "trip")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = f.holiday.AddVacation(1, models.Date(2026, time.May, 11), models.Date(2026, time.May, 8), "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.holiday.AddVacation(1, models.Date(2026, time.January, 1), models.Date(2026, time.June, 1), "")
	assert.ErrorIs(t, err, models.ErrValidation)

	list, err := f.holiday.ListMonth(1, models.NewYearMonth(2026, time.May))
	require.NoError(t, err)
	assert.Len(t, list, 4)

	require.NoError(t, f.holiday.RemoveVacation(1, models.Date(2026, time.May, 9)))
	list, err = f.holiday.ListMonth(1, models.NewYearMonth(2026, time.May))
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Contains(t, f.holiday.FormatHolidays(models.NewYearMonth(2026, time.May), list), "trip")
}

func TestHolidayService_LoadPublicCalendar(t *testing.T) {
	f := newFixture(t)

	path := filepath.Join(t.TempDir(), "2026.json")
	data := `{"year":2026,"months":[{"month":5,"days":"1,2,3,9,10"}],"descriptions":{"2026-05-01":"Labour Day"}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	n, err := f.holiday.LoadPublicCalendar(path)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// loading twice keeps one row per date
	_, err = f.holiday.LoadPublicCalendar(path)
	require.NoError(t, err)

	list, err := f.holiday.ListMonth(42, models.NewYearMonth(2026, time.May))
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "Labour Day", list[0].Description)
}

func TestProgressService_RequiresSettings(t *testing.T) {
	f := newFixture(t)

	_, err := f.progress.Requirements(1, models.NewYearMonth(2026, time.May))
	assert.ErrorIs(t, err, models.ErrSettingsNotConfigured)

	_, err = f.progress.Progress(1, models.NewYearMonth(2026, time.May))
	assert.ErrorIs(t, err, models.ErrSettingsNotConfigured)
}

func seedMay(t *testing.T, f *fixture) {
	t.Helper()
	_, err := f.setting.Configure(1, 3, 24, mayPrefs)
	require.NoError(t, err)
	_, err = f.holiday.AddPublicHoliday(models.Date(2026, time.May, 1), "Labour Day")
	require.NoError(t, err)
	require.NoError(t, f.entries.Upsert(&models.DailyEntry{
		UserID: 1, Date: datatypes.Date(models.Date(2026, time.May, 4)), WasInOffice: true, HoursWorked: 8,
	}))
}

func TestProgressService_ProgressStoresSnapshot(t *testing.T) {
	f := newFixture(t)
	seedMay(t, f)
	ym := models.NewYearMonth(2026, time.May)

	req, err := f.progress.Requirements(1, ym)
	require.NoError(t, err)
	assert.Equal(t, 12, req.RequiredDays)
	assert.Equal(t, 96.0, req.RequiredHours)
	assert.Equal(t, 1, req.HolidaysCount)

	report, err := f.progress.Progress(1, ym)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Progress.CompletedDays)
	assert.Equal(t, 8.0, report.Progress.CompletedHours)
	assert.False(t, report.Progress.IsComplete)

	history, err := f.progress.History(1, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].CompletedDays)
	assert.Equal(t, 12, history[0].RequiredDays)

	text := f.progress.FormatProgress(report.Progress)
	assert.Contains(t, text, "1 / 12")
	assert.Contains(t, text, "11 days")
}

func TestProgressService_Suggestions(t *testing.T) {
	f := newFixture(t)
	seedMay(t, f)
	ym := models.NewYearMonth(2026, time.May)

	result, report, err := f.progress.Suggestions(1, ym, may(20, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, 11, report.Progress.RemainingDays())

	require.Len(t, result.Days, 8)
	assert.True(t, result.Unmeetable)
	assert.Equal(t, 3, result.Shortfall)
	assert.Equal(t, models.Date(2026, time.May, 25), result.Days[0].Date)
	assert.Equal(t, attendance.ReasonNeededForQuota, result.Days[0].Reason)
	for _, d := range result.Days {
		assert.False(t, d.Date.Before(models.Date(2026, time.May, 20)))
	}

	text := f.progress.FormatSuggestions(ym, result)
	assert.Contains(t, text, "3 day(s) short")
}

func TestUserService(t *testing.T) {
	f := newFixture(t)

	user, created, err := f.user.Register(5, "sam", "", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "sam", user.FirstName)

	again, created, err := f.user.Register(5, "sam", "Sam", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	_, err = f.user.Get(99)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	require.NoError(t, f.user.InitializeAdmin(5))
	isAdmin, err := f.user.IsAdmin(5)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	require.NoError(t, f.user.InitializeAdmin(77))
	isAdmin, err = f.user.IsAdmin(77)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "8h", formatHours(8))
	assert.Equal(t, "7h 30m", formatHours(7.5))
	assert.Equal(t, "0h 05m", formatHours(0.0833))
}

func ptr[T any](v T) *T {
	return &v
}
