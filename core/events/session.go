package events

const (
	KindSessionStarted Kind = "session.started"
	KindSessionReset   Kind = "session.reset"
	KindPhaseChanged   Kind = "session.phase_changed"
	KindStateChanged   Kind = "session.state_changed"
	KindRemainingTurns Kind = "session.remaining_turns"
	KindStatusUpdated  Kind = "session.status_updated"
	KindReportReady    Kind = "session.report_ready"
)

type SessionStarted struct {
	Base
	SessionID string
	Mode      string
}

func NewSessionStarted(sessionID, mode string) SessionStarted {
	return SessionStarted{Base: NewBase(KindSessionStarted), SessionID: sessionID, Mode: mode}
}

type SessionReset struct {
	Base
	Mode string
}

func NewSessionReset(mode string) SessionReset {
	return SessionReset{Base: NewBase(KindSessionReset), Mode: mode}
}

type PhaseChanged struct {
	Base
	Phase string
}

func NewPhaseChanged(phase string) PhaseChanged {
	return PhaseChanged{Base: NewBase(KindPhaseChanged), Phase: phase}
}

type StateChanged struct {
	Base
	State string
}

func NewStateChanged(state string) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), State: state}
}

type RemainingTurnsUpdated struct {
	Base
	Remaining int
}

func NewRemainingTurnsUpdated(remaining int) RemainingTurnsUpdated {
	return RemainingTurnsUpdated{Base: NewBase(KindRemainingTurns), Remaining: remaining}
}

// StatusUpdated carries the last user-visible status or error message. An
// empty message clears the previous one.
type StatusUpdated struct {
	Base
	Message string
	IsError bool
}

func NewStatusUpdated(message string, isError bool) StatusUpdated {
	return StatusUpdated{Base: NewBase(KindStatusUpdated), Message: message, IsError: isError}
}

// ReportReady signals that finalization produced an evaluation report. The
// report itself is read through the orchestrator's observation API.
type ReportReady struct {
	Base
}

func NewReportReady() ReportReady {
	return ReportReady{Base: NewBase(KindReportReady)}
}
