package presence

import (
	"fmt"
	"time"

	"go2office/internal/models"

	"github.com/google/uuid"
)

// DefaultMaxSessionDuration bounds sessions nobody closed (app killed, phone off).
const DefaultMaxSessionDuration = 16 * time.Hour

type AnomalyKind string

const (
	AnomalyUnexpectedExit AnomalyKind = "unexpected_exit"
	AnomalyStaleSession   AnomalyKind = "stale_session"
	AnomalyOutOfOrder     AnomalyKind = "out_of_order_event"
)

// Anomaly is reported, never returned as an error.
type Anomaly struct {
	Kind   AnomalyKind
	Time   time.Time
	Detail string
}

// Outcome is what one tracker step produced. Closed is set before Opened when
// a stale session is force-closed and a new one opens in the same step.
type Outcome struct {
	Closed    *models.OfficeSession
	Opened    *models.OfficeSession
	Anomalies []Anomaly
}

func (o Outcome) Empty() bool {
	return o.Closed == nil && o.Opened == nil && len(o.Anomalies) == 0
}

// trackerState is either idleState or activeState; there is no way to hold two
// open sessions.
type trackerState interface {
	isTrackerState()
}

type idleState struct{}

type activeState struct {
	sessionID string
	entry     time.Time
}

func (idleState) isTrackerState()   {}
func (activeState) isTrackerState() {}

// Tracker is the Idle/Active session state machine of one user.
// It is not safe for concurrent use; a Pipeline owns exactly one.
type Tracker struct {
	userID      uint
	maxDuration time.Duration
	newID       func() string

	state     trackerState
	lastEvent time.Time
}

func NewTracker(userID uint, maxDuration time.Duration) *Tracker {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxSessionDuration
	}
	return &Tracker{
		userID:      userID,
		maxDuration: maxDuration,
		newID:       uuid.NewString,
		state:       idleState{},
	}
}

// Restore resumes an open session persisted before a restart. It is ignored
// unless the tracker is idle and the session is open.
func (t *Tracker) Restore(session models.OfficeSession) bool {
	if _, idle := t.state.(idleState); !idle || !session.IsOpen() {
		return false
	}
	t.state = activeState{sessionID: session.ID, entry: session.EntryTime}
	if session.EntryTime.After(t.lastEvent) {
		t.lastEvent = session.EntryTime
	}
	return true
}

// Handle applies one geofence event.
func (t *Tracker) Handle(ev GeofenceEvent) Outcome {
	var out Outcome

	if ev.Time.Before(t.lastEvent) {
		out.Anomalies = append(out.Anomalies, Anomaly{
			Kind:   AnomalyOutOfOrder,
			Time:   ev.Time,
			Detail: fmt.Sprintf("%s at %s precedes %s", ev.Kind, ev.Time.Format(time.RFC3339), t.lastEvent.Format(time.RFC3339)),
		})
		return out
	}
	t.lastEvent = ev.Time

	out = t.Expire(ev.Time)

	switch st := t.state.(type) {
	case idleState:
		if ev.Kind == Enter {
			t.state = activeState{sessionID: t.newID(), entry: ev.Time}
			opened := t.session(t.state.(activeState), nil)
			out.Opened = &opened
			return out
		}
		if out.Closed != nil {
			// the late exit of the session just force-closed
			return out
		}
		out.Anomalies = append(out.Anomalies, Anomaly{
			Kind:   AnomalyUnexpectedExit,
			Time:   ev.Time,
			Detail: "exit received with no open session",
		})
	case activeState:
		if ev.Kind == Exit {
			exit := ev.Time
			closed := t.session(st, &exit)
			t.state = idleState{}
			out.Closed = &closed
		}
		// a repeated Enter keeps the original entry time
	}
	return out
}

// Expire force-closes the open session if it has been open longer than the
// maximum duration at now. The session is closed at entry + max, not at now.
func (t *Tracker) Expire(now time.Time) Outcome {
	var out Outcome

	st, active := t.state.(activeState)
	if !active {
		return out
	}
	limit := st.entry.Add(t.maxDuration)
	if !now.After(limit) {
		return out
	}

	closed := t.session(st, &limit)
	closed.IsAnomalous = true
	closed.AnomalyReason = string(AnomalyStaleSession)
	t.state = idleState{}

	out.Closed = &closed
	out.Anomalies = append(out.Anomalies, Anomaly{
		Kind:   AnomalyStaleSession,
		Time:   limit,
		Detail: fmt.Sprintf("session open since %s closed after %s", st.entry.Format(time.RFC3339), t.maxDuration),
	})
	return out
}

// StaleDeadline returns when the open session would be force-closed.
func (t *Tracker) StaleDeadline() (time.Time, bool) {
	st, active := t.state.(activeState)
	if !active {
		return time.Time{}, false
	}
	return st.entry.Add(t.maxDuration), true
}

// Open returns a copy of the open session, if any.
func (t *Tracker) Open() (models.OfficeSession, bool) {
	st, active := t.state.(activeState)
	if !active {
		return models.OfficeSession{}, false
	}
	return t.session(st, nil), true
}

func (t *Tracker) IsActive() bool {
	_, active := t.state.(activeState)
	return active
}

func (t *Tracker) session(st activeState, exit *time.Time) models.OfficeSession {
	return models.OfficeSession{
		ID:             st.sessionID,
		UserID:         t.userID,
		EntryTime:      st.entry,
		ExitTime:       exit,
		IsAutoDetected: true,
	}
}
