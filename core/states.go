package orchestration

// Phase is the coarse lifecycle of an interview session. Exactly one session
// is associated with the active/finalizing/finished phases; a mode change or
// restart returns the orchestrator to idle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseActive     Phase = "active"
	PhaseFinalizing Phase = "finalizing"
	PhaseFinished   Phase = "finished"
)

// TurnState is the fine-grained position inside the turn cycle
// "assistant speaks, mic arms, candidate speaks, submit".
type TurnState string

const (
	StateWaitingForStart   TurnState = "waiting-for-start"
	StateAwaitingAssistant TurnState = "awaiting-assistant"
	StateSpeaking          TurnState = "speaking"
	StateAwaitingCandidate TurnState = "awaiting-candidate"
	StateSubmitting        TurnState = "submitting"
	StateFinalizing        TurnState = "finalizing"
	StateFinished          TurnState = "finished"
)

// MicState gates whether voice capture may run. listening and received are
// only reachable from ready; disabled is the only state outside an active
// phase or while synthesis is speaking.
type MicState string

const (
	MicDisabled  MicState = "disabled"
	MicReady     MicState = "ready"
	MicListening MicState = "listening"
	MicReceived  MicState = "received"
)

// Role identifies the speaker of a transcript entry.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleCandidate Role = "candidate"
)

// Label returns the display name used when flattening the transcript.
func (r Role) Label() string {
	switch r {
	case RoleAssistant:
		return "Interviewer"
	case RoleCandidate:
		return "Candidate"
	}
	return string(r)
}

// UtteranceSource records how a candidate answer was produced. A failed
// voice submission re-arms the mic; a failed typed submission does not, so
// the typed draft is not silently discarded.
type UtteranceSource string

const (
	SourceVoice UtteranceSource = "voice"
	SourceTyped UtteranceSource = "typed"
)
