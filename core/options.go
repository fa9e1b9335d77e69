package orchestration

import (
	"context"

	"github.com/oralprep/interview-core/core/events"
	"github.com/oralprep/interview-core/core/interviews"
	"github.com/oralprep/interview-core/core/speechcapture"
	"github.com/oralprep/interview-core/core/speechoutput"
)

type OrchestratorOption func(*Orchestrator)

// InterviewClient is the backend collaborator driving the conversation: the
// opening question, one chat turn per candidate answer, and the final
// transcript evaluation.
type InterviewClient interface {
	OpeningQuestion(ctx context.Context, req interviews.OpeningQuestionRequest) (*interviews.OpeningQuestion, error)
	ChatTurn(ctx context.Context, req interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error)
	Evaluate(ctx context.Context, req interviews.EvaluationRequest) (*interviews.Report, error)
}

func WithInterviewClient(client InterviewClient) OrchestratorOption {
	return func(o *Orchestrator) {
		o.client = client
	}
}

// SpeechCapture wraps a platform speech-to-text facility. Listen arms one
// capture session; the registered callbacks report its outcome.
type SpeechCapture interface {
	Listen(ctx context.Context, opts ...speechcapture.CaptureOption) error
	Stop() error
}

func WithSpeechCapture(client SpeechCapture) OrchestratorOption {
	return func(o *Orchestrator) {
		o.capture.set(client)
	}
}

// SpeechOutput wraps a platform text-to-speech facility. Speak returns once
// synthesis is accepted; the completion callback fires when playback ends.
type SpeechOutput interface {
	Speak(ctx context.Context, text string, opts ...speechoutput.SpeakOption) error
	Cancel() error
}

func WithSpeechOutput(client SpeechOutput) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speech.set(client)
	}
}

// CredentialSource supplies the backend credential. Configuring one makes a
// present, non-empty key a local precondition for submissions.
type CredentialSource interface {
	APIKey() string
}

func WithCredentialSource(source CredentialSource) OrchestratorOption {
	return func(o *Orchestrator) {
		o.credentials = source
	}
}

// WithTurnBudget overrides the default number of candidate turns per
// session. The server-reported remaining count stays authoritative; the
// budget only seeds the display before the first response arrives.
func WithTurnBudget(budget int) OrchestratorOption {
	return func(o *Orchestrator) {
		if budget > 0 {
			o.turnBudget = budget
		}
	}
}

// WithAlwaysOnCapture makes the orchestrator begin listening as soon as the
// mic gate arms, instead of waiting for an explicit user gesture.
func WithAlwaysOnCapture() OrchestratorOption {
	return func(o *Orchestrator) {
		o.alwaysOnCapture = true
	}
}

type OrchestrateOptions struct {
	onEvent           func(events.Event)
	onPhaseChanged    func(phase string)
	onStateChanged    func(state string)
	onMicStateChanged func(state string)
	onTranscript      func()
	onRemainingTurns  func(remaining int)
	onPlaybackEnded   func(text string)
	onStatus          func(message string, isError bool)
	onReportReady     func()
}

type OrchestrateOption func(*OrchestrateOptions)

// WithEventCallback registers a callback for every event the orchestrator
// publishes. The callback must not call back into the orchestrator's
// mutation operations synchronously.
func WithEventCallback(callback func(events.Event)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onEvent = callback
	}
}

func WithPhaseChangedCallback(callback func(phase string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPhaseChanged = callback
	}
}

func WithStateChangedCallback(callback func(state string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onStateChanged = callback
	}
}

func WithMicStateChangedCallback(callback func(state string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onMicStateChanged = callback
	}
}

// WithTranscriptCallback registers a callback invoked whenever the
// transcript changes. Consumers pull the new state through
// [Orchestrator.TranscriptSnapshot].
func WithTranscriptCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscript = callback
	}
}

func WithRemainingTurnsCallback(callback func(remaining int)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onRemainingTurns = callback
	}
}

func WithPlaybackEndedCallback(callback func(text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPlaybackEnded = callback
	}
}

func WithStatusCallback(callback func(message string, isError bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onStatus = callback
	}
}

func WithReportReadyCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onReportReady = callback
	}
}
