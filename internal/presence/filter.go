package presence

import "time"

type side int

const (
	sideUnknown side = iota
	sideInside
	sideOutside
)

type FilterConfig struct {
	Geofence Geofence
	// MaxAccuracyMeters drops fixes with a larger accuracy radius. Zero disables the check.
	MaxAccuracyMeters float64
	// EnterDwell is the continuous time inside required before Enter.
	EnterDwell time.Duration
	// ExitDwell is the continuous time outside required before Exit.
	ExitDwell time.Duration
}

// FilterStats counts what the filter did with the fixes it was given.
type FilterStats struct {
	Accepted    uint64
	LowAccuracy uint64
	OutOfOrder  uint64
	Enters      uint64
	Exits       uint64
}

// Filter turns raw fixes into stable Enter/Exit events. It is not safe for
// concurrent use; a Pipeline owns exactly one.
//
// Hysteresis state is explicit: stable is the last confirmed side, pending the
// side observed since pendingSince that has not yet dwelled long enough.
type Filter struct {
	cfg FilterConfig

	lastAccepted time.Time
	stable       side
	pending      side
	pendingSince time.Time

	stats FilterStats
}

func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Process classifies one fix. It returns an event only when a transition has
// become stable.
func (f *Filter) Process(fix LocationFix) (GeofenceEvent, bool) {
	if f.cfg.MaxAccuracyMeters > 0 && fix.AccuracyMeters > f.cfg.MaxAccuracyMeters {
		f.stats.LowAccuracy++
		return GeofenceEvent{}, false
	}
	if !f.lastAccepted.IsZero() && !fix.Time.After(f.lastAccepted) {
		f.stats.OutOfOrder++
		return GeofenceEvent{}, false
	}
	f.lastAccepted = fix.Time
	f.stats.Accepted++

	observed := sideOutside
	if f.cfg.Geofence.Contains(fix) {
		observed = sideInside
	}

	if observed == f.stable {
		f.pending = sideUnknown
		return GeofenceEvent{}, false
	}
	if f.pending != observed {
		f.pending = observed
		f.pendingSince = fix.Time
	}
	return f.settle(fix.Time)
}

// Deadline returns when the pending transition becomes stable if no
// contradicting fix arrives.
func (f *Filter) Deadline() (time.Time, bool) {
	if f.pending == sideUnknown {
		return time.Time{}, false
	}
	return f.pendingSince.Add(f.dwell(f.pending)), true
}

// Confirm settles a pending transition once its dwell has elapsed at now.
// It covers the case where the device stops reporting after a move.
func (f *Filter) Confirm(now time.Time) (GeofenceEvent, bool) {
	return f.settle(now)
}

// Reset drops all hysteresis state but keeps the counters.
func (f *Filter) Reset() {
	f.lastAccepted = time.Time{}
	f.stable = sideUnknown
	f.pending = sideUnknown
	f.pendingSince = time.Time{}
}

// Seed sets the confirmed side without emitting, used when resuming a session.
func (f *Filter) Seed(inside bool) {
	f.stable = sideOutside
	if inside {
		f.stable = sideInside
	}
	f.pending = sideUnknown
}

func (f *Filter) Stats() FilterStats {
	return f.stats
}

func (f *Filter) settle(now time.Time) (GeofenceEvent, bool) {
	if f.pending == sideUnknown || now.Sub(f.pendingSince) < f.dwell(f.pending) {
		return GeofenceEvent{}, false
	}

	previous := f.stable
	f.stable = f.pending
	f.pending = sideUnknown

	switch {
	case f.stable == sideInside:
		f.stats.Enters++
		return GeofenceEvent{Kind: Enter, Time: f.pendingSince}, true
	case previous == sideInside:
		f.stats.Exits++
		return GeofenceEvent{Kind: Exit, Time: f.pendingSince}, true
	default:
		// first classification outside: nothing to leave
		return GeofenceEvent{}, false
	}
}

func (f *Filter) dwell(s side) time.Duration {
	if s == sideInside {
		return f.cfg.EnterDwell
	}
	return f.cfg.ExitDwell
}
