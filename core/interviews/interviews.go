// Package interviews defines the request/response contract between the turn
// orchestrator and an interview backend: the opening question, the per-turn
// chat exchange, and the transcript evaluation.
package interviews

type OpeningQuestionRequest struct {
	SessionID string
	Mode      string
}

type OpeningQuestion struct {
	Prompt string
	// Part labels the section of the interview the question belongs to
	// (e.g. "Part 1 - Introduction"). May be empty.
	Part           string
	RemainingTurns int
}

type ChatTurnRequest struct {
	SessionID string
	Mode      string
	// Text is the full candidate utterance for this turn.
	Text string
	// APIKey is the optional per-request credential. Backends that hold
	// their own credentials may ignore it.
	APIKey string
}

type ChatTurnReply struct {
	// Reply is the next assistant prompt. Empty when the backend has nothing
	// further to say (typically together with LimitReached).
	Reply string
	// RemainingTurns is the authoritative number of candidate turns left.
	RemainingTurns int
	// LimitReached reports that the turn budget is exhausted. RemainingTurns
	// of zero implies the same.
	LimitReached bool
}

type EvaluationRequest struct {
	// Transcript is the flattened conversation, one "<Role>: <text>" line
	// per entry.
	Transcript string
	Mode       string
	APIKey     string
}
