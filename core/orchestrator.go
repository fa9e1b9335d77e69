// Package orchestration coordinates one spoken interview session: network
// request/response turns, speech capture, and speech output, sequenced into
// the cycle "assistant speaks, mic arms, candidate answers, submit" until
// the turn budget runs out and the transcript is handed to evaluation.
//
// All state lives behind a single mutex and every handler runs to
// completion before the next is applied. The awaited external operations
// (opening question, chat turn, evaluation, capture results, playback
// completion) re-enter through handlers that check a monotonic generation
// counter first, so a call that resolves after a reset cannot resurrect a
// superseded session.
package orchestration

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/codes"

	"github.com/oralprep/interview-core/core/events"
	"github.com/oralprep/interview-core/core/interviews"
	"github.com/oralprep/interview-core/core/speechcapture"
)

const defaultTurnBudget = 5

type Orchestrator struct {
	mu sync.Mutex

	client      InterviewClient
	capture     *speechCapture
	speech      *speechOutput
	gate        *micGate
	transcript  *TranscriptStore
	credentials CredentialSource

	turnBudget      int
	alwaysOnCapture bool

	// generation advances on every hard reset; asynchronous completions
	// captured under an older generation are discarded.
	generation uint64

	sessionID string
	mode      string
	phase     Phase
	state     TurnState
	remaining *int
	report    *interviews.Report

	lastStatus  string
	statusIsErr bool

	emit        eventEmitter
	baseContext context.Context

	// pendingEvents and pendingActions accumulate while the lock is held
	// and are drained after release, so callbacks never run under the lock.
	pendingEvents  []events.Event
	pendingActions []func()
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		capture:     newSpeechCapture(nil),
		speech:      newSpeechOutput(nil),
		transcript:  newTranscriptStore(),
		turnBudget:  defaultTurnBudget,
		phase:       PhaseIdle,
		state:       StateWaitingForStart,
		emit:        noopEventEmitter,
		baseContext: context.Background(),
	}
	o.gate = newMicGate(func(state MicState) {
		o.pendingEvents = append(o.pendingEvents, events.NewMicStateChanged(string(state)))
	})

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Orchestrate wires the observation callbacks and the base context used for
// capture and playback.
//
// Contract: call Orchestrate at most once per orchestrator instance, before
// the first operation.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	options := OrchestrateOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	o.mu.Lock()
	o.baseContext = ctx
	o.emit = newCallbackEventEmitter(options)
	o.mu.Unlock()
}

func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.generation++
	o.mu.Unlock()

	o.speech.Reset()
	if err := o.capture.Close(o.baseContext); err != nil {
		logger.Warn("failed to close capture client", "error", err)
	}
}

// StartInterview resets session state and requests the opening question for
// mode. Valid only before a session exists or after one finished; on
// failure no partial state is retained.
func (o *Orchestrator) StartInterview(ctx context.Context, mode string) error {
	ctx, span := tracer.Start(ctx, "start interview")
	defer span.End()

	o.mu.Lock()
	if o.state != StateWaitingForStart && o.state != StateFinished {
		o.mu.Unlock()
		return newValidationError("an interview is already in progress")
	}
	mode = strings.TrimSpace(mode)
	if mode == "" {
		o.mu.Unlock()
		return newValidationError("no interview mode selected")
	}
	if o.client == nil {
		o.mu.Unlock()
		return newValidationError("no interview client configured")
	}

	o.resetLocked(mode)
	o.sessionID = uuid.NewString()
	o.setStateLocked(StateAwaitingAssistant)

	gen := o.generation
	req := interviews.OpeningQuestionRequest{SessionID: o.sessionID, Mode: mode}
	o.unlockAndDrain()

	opening, err := o.client.OpeningQuestion(ctx, req)

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		logger.Debug("discarding stale opening question", "mode", mode)
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.setStateLocked(StateWaitingForStart)
		o.setPhaseLocked(PhaseIdle)
		o.setStatusLocked("could not start the interview: "+err.Error(), true)
		o.unlockAndDrain()
		return &TransportError{Op: "opening question", Err: err}
	}

	o.setPhaseLocked(PhaseActive)
	o.pendingEvents = append(o.pendingEvents, events.NewSessionStarted(o.sessionID, mode))
	o.setRemainingLocked(opening.RemainingTurns)
	o.appendAssistantLocked(gen, opening.Prompt)
	o.unlockAndDrain()
	return nil
}

// SubmitUtterance submits one candidate answer. Valid only while a turn is
// awaiting the candidate. Validation failures reject locally; transport
// failures roll the optimistic transcript entry back and return control to
// the candidate, re-arming the mic only for voice submissions.
func (o *Orchestrator) SubmitUtterance(ctx context.Context, text string, source UtteranceSource) error {
	ctx, span := tracer.Start(ctx, "submit candidate utterance")
	defer span.End()

	o.mu.Lock()
	if o.state != StateAwaitingCandidate {
		o.mu.Unlock()
		return newValidationError("no turn is awaiting an answer")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		o.mu.Unlock()
		return newValidationError("answer is empty")
	}
	if o.mode == "" {
		o.mu.Unlock()
		return newValidationError("no interview mode selected")
	}
	apiKey := ""
	if o.credentials != nil {
		apiKey = o.credentials.APIKey()
		if apiKey == "" {
			o.mu.Unlock()
			return newValidationError("no API key configured")
		}
	}

	gen := o.generation
	index := o.transcript.Append(Entry{Role: RoleCandidate, Text: text})
	o.pendingEvents = append(o.pendingEvents, events.NewCandidateAnswerAdded(index, text, string(source)))
	o.gate.Disarm()
	o.setStateLocked(StateSubmitting)
	req := interviews.ChatTurnRequest{SessionID: o.sessionID, Mode: o.mode, Text: text, APIKey: apiKey}
	o.unlockAndDrain()

	_ = o.capture.Stop()

	reply, err := o.client.ChatTurn(ctx, req)

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		logger.Debug("discarding stale chat turn result")
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if removed := o.transcript.RollbackLast(); removed != nil {
			o.pendingEvents = append(o.pendingEvents, events.NewCandidateAnswerRevoked(o.transcript.Len(), removed.Text))
		}
		o.setStateLocked(StateAwaitingCandidate)
		o.setStatusLocked("could not send your answer: "+err.Error(), true)
		if source == SourceVoice {
			o.armMicLocked()
		}
		o.unlockAndDrain()
		return &TransportError{Op: "chat turn", Err: err}
	}

	o.setRemainingLocked(reply.RemainingTurns)
	exhausted := reply.LimitReached || reply.RemainingTurns <= 0

	if exhausted {
		// Finalization takes priority over re-arming the mic. The closing
		// line, if any, is still spoken on a best-effort basis while the
		// evaluation call runs.
		o.setPhaseLocked(PhaseFinalizing)
		o.setStateLocked(StateFinalizing)
		if reply.Reply != "" {
			o.appendAssistantLocked(gen, reply.Reply)
		}
		o.unlockAndDrain()
		return o.finalize(ctx, gen)
	}

	if reply.Reply != "" {
		o.appendAssistantLocked(gen, reply.Reply)
	} else {
		o.setStateLocked(StateAwaitingCandidate)
		o.armMicLocked()
	}
	o.unlockAndDrain()
	return nil
}

// ChangeMode performs a hard reset: transcript cleared, mic gate forced to
// disabled, phase back to idle. Results of calls still in flight are
// discarded by the generation check when they resolve.
func (o *Orchestrator) ChangeMode(mode string) {
	o.mu.Lock()
	o.resetLocked(strings.TrimSpace(mode))
	o.pendingEvents = append(o.pendingEvents, events.NewSessionReset(o.mode))
	o.unlockAndDrain()

	_ = o.capture.Stop()
}

// StartListening is the user gesture moving the mic gate from ready to
// listening and starting a capture session.
func (o *Orchestrator) StartListening() error {
	o.mu.Lock()
	if o.gate.PermissionDenied() {
		o.mu.Unlock()
		return newValidationError("microphone permission was denied; type your answer instead")
	}
	if !o.gate.BeginListening() {
		o.mu.Unlock()
		return newValidationError("microphone is not ready")
	}
	gen := o.generation
	o.unlockAndDrain()

	err := o.capture.Listen(o.baseContext, captureCallbacks{
		onTranscript: func(transcript string) { o.handleCaptureResult(gen, transcript) },
		onError:      func(kind speechcapture.ErrorKind, err error) { o.handleCaptureError(gen, kind, err) },
		onEnded:      func() { o.handleCaptureEnded(gen) },
	})
	if err != nil {
		o.mu.Lock()
		if gen == o.generation {
			o.gate.Retry()
			o.setStatusLocked("could not start the microphone: "+err.Error(), true)
		}
		o.unlockAndDrain()
		return err
	}

	return nil
}

// StopListening returns the gate from listening to ready without submitting
// anything.
func (o *Orchestrator) StopListening() {
	o.mu.Lock()
	o.gate.Retry()
	o.unlockAndDrain()

	_ = o.capture.Stop()
}

// Evaluate re-runs the evaluation manually after finalization, optionally
// with an edited transcript. An empty transcript evaluates the stored one.
func (o *Orchestrator) Evaluate(ctx context.Context, transcript string) error {
	o.mu.Lock()
	if o.phase != PhaseFinished {
		o.mu.Unlock()
		return newValidationError("the interview has not finished yet")
	}
	if transcript == "" {
		transcript = o.transcript.Flatten()
	}
	if strings.TrimSpace(transcript) == "" {
		o.mu.Unlock()
		return newValidationError("transcript is empty")
	}
	gen := o.generation
	req := interviews.EvaluationRequest{Transcript: transcript, Mode: o.mode, APIKey: o.credentialKeyLocked()}
	o.mu.Unlock()

	return o.evaluate(ctx, gen, req)
}

// finalize flattens the transcript and requests the evaluation. The session
// reaches the finished phase whether or not the call succeeds.
func (o *Orchestrator) finalize(ctx context.Context, gen uint64) error {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return nil
	}
	req := interviews.EvaluationRequest{
		Transcript: o.transcript.Flatten(),
		Mode:       o.mode,
		APIKey:     o.credentialKeyLocked(),
	}
	o.mu.Unlock()

	return o.evaluate(ctx, gen, req)
}

func (o *Orchestrator) evaluate(ctx context.Context, gen uint64, req interviews.EvaluationRequest) error {
	ctx, span := tracer.Start(ctx, "evaluate transcript")
	defer span.End()

	report, err := o.client.Evaluate(ctx, req)

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		logger.Debug("discarding stale evaluation result")
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.setStatusLocked("evaluation failed: "+err.Error(), true)
	} else {
		o.report = report
		o.pendingEvents = append(o.pendingEvents, events.NewReportReady())
	}
	o.gate.Disarm()
	o.setPhaseLocked(PhaseFinished)
	o.setStateLocked(StateFinished)
	o.unlockAndDrain()

	if err != nil {
		return &FinalizationError{Err: err}
	}
	return nil
}

// appendAssistantLocked appends an assistant prompt, moves to speaking, and
// schedules deduplicated playback.
func (o *Orchestrator) appendAssistantLocked(gen uint64, text string) {
	index := o.transcript.Append(Entry{Role: RoleAssistant, Text: text})
	o.pendingEvents = append(o.pendingEvents, events.NewAssistantPromptAdded(index, text))
	if o.state != StateFinalizing && o.state != StateFinished {
		o.setStateLocked(StateSpeaking)
	}
	o.speakLocked(gen, index, text)
}

// speakLocked schedules playback of one transcript line. The speech client
// is invoked after the lock is released; its completion re-enters through
// the generation-checked handlers.
func (o *Orchestrator) speakLocked(gen uint64, index int, text string) {
	signature := utteranceSignature{generation: o.transcript.Generation(), index: index, text: text}
	o.pendingActions = append(o.pendingActions, func() {
		result := o.speech.Speak(o.baseContext, signature,
			func() { o.handleSpeechFinished(gen, text) },
			func(err error) { o.handleSpeechFailed(gen, text, err) },
		)
		switch result {
		case speakStarted:
			o.emit(events.NewPlaybackStarted(text))
		case speakUnavailable:
			// No output client: treat the line as spoken instantly so the
			// turn cycle still advances.
			o.handleSpeechFinished(gen, text)
		}
	})
}

func (o *Orchestrator) handleSpeechFinished(gen uint64, text string) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return
	}
	o.completeSpeechLocked(text)
	o.unlockAndDrain()
}

// handleSpeechFailed treats playback failure as recoverable: the line is
// surfaced in the transcript either way, so the turn proceeds as if spoken.
func (o *Orchestrator) handleSpeechFailed(gen uint64, text string, err error) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return
	}
	o.setStatusLocked("speech playback failed: "+err.Error(), true)
	o.completeSpeechLocked(text)
	o.unlockAndDrain()
}

// completeSpeechLocked applies a synthesis completion: speaking moves on to
// awaiting the candidate unless finalization has already begun, in which
// case completion has no state effect.
func (o *Orchestrator) completeSpeechLocked(text string) {
	o.pendingEvents = append(o.pendingEvents, events.NewPlaybackEnded(text))

	if o.phase == PhaseFinalizing || o.phase == PhaseFinished {
		return
	}
	if o.state != StateSpeaking {
		return
	}
	o.setStateLocked(StateAwaitingCandidate)
	o.armMicLocked()
}

func (o *Orchestrator) handleCaptureResult(gen uint64, transcript string) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return
	}
	if o.gate.State() != MicListening {
		o.mu.Unlock()
		return
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		o.gate.Retry()
		o.unlockAndDrain()
		return
	}
	o.gate.Received()
	o.gate.Disarm()
	o.unlockAndDrain()

	// The handed-off transcript enters the same submission path as typed
	// input, on the capture adapter's goroutine.
	if err := o.SubmitUtterance(o.baseContext, transcript, SourceVoice); err != nil {
		logger.Warn("voice submission failed", "error", err)
	}
}

func (o *Orchestrator) handleCaptureError(gen uint64, kind speechcapture.ErrorKind, err error) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return
	}

	o.pendingEvents = append(o.pendingEvents, events.NewCaptureFailed(string(kind)))
	switch kind {
	case speechcapture.ErrorKindPermissionDenied:
		o.gate.DenyPermission()
		o.setStatusLocked("microphone permission denied; type your answer instead", true)
	case speechcapture.ErrorKindNoInput:
		o.gate.Retry()
		o.setStatusLocked("no speech detected, try again", false)
	default:
		o.gate.Retry()
		message := "speech recognition failed, try again"
		if err != nil {
			message = "speech recognition failed: " + err.Error()
		}
		o.setStatusLocked(message, true)
	}
	o.unlockAndDrain()
}

func (o *Orchestrator) handleCaptureEnded(gen uint64) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return
	}
	o.gate.Retry()
	o.unlockAndDrain()
}

// armMicLocked arms the gate only in the exact window the invariants allow:
// active phase, a turn awaiting the candidate, and no playback in progress.
func (o *Orchestrator) armMicLocked() {
	if o.phase != PhaseActive || o.state != StateAwaitingCandidate {
		return
	}
	if o.speech.IsSpeaking() {
		return
	}
	if !o.gate.Arm() {
		return
	}
	if o.alwaysOnCapture {
		o.pendingActions = append(o.pendingActions, func() {
			if err := o.StartListening(); err != nil {
				logger.Warn("always-on capture failed to start", "error", err)
			}
		})
	}
}

func (o *Orchestrator) resetLocked(mode string) {
	o.generation++
	o.sessionID = ""
	o.mode = mode
	o.transcript.Clear()
	o.pendingEvents = append(o.pendingEvents, events.NewTranscriptCleared())
	o.speech.Reset()
	o.gate.Reset()
	o.setPhaseLocked(PhaseIdle)
	o.setStateLocked(StateWaitingForStart)
	o.remaining = nil
	o.report = nil
	o.lastStatus = ""
	o.statusIsErr = false
}

func (o *Orchestrator) setPhaseLocked(phase Phase) {
	if o.phase == phase {
		return
	}
	o.phase = phase
	o.pendingEvents = append(o.pendingEvents, events.NewPhaseChanged(string(phase)))
}

func (o *Orchestrator) setStateLocked(state TurnState) {
	if o.state == state {
		return
	}
	o.state = state
	o.pendingEvents = append(o.pendingEvents, events.NewStateChanged(string(state)))
}

func (o *Orchestrator) setRemainingLocked(remaining int) {
	if remaining < 0 {
		remaining = 0
	}
	o.remaining = &remaining
	o.pendingEvents = append(o.pendingEvents, events.NewRemainingTurnsUpdated(remaining))
}

func (o *Orchestrator) setStatusLocked(message string, isError bool) {
	o.lastStatus = message
	o.statusIsErr = isError
	o.pendingEvents = append(o.pendingEvents, events.NewStatusUpdated(message, isError))
}

func (o *Orchestrator) credentialKeyLocked() string {
	if o.credentials == nil {
		return ""
	}
	return o.credentials.APIKey()
}

// unlockAndDrain releases the lock, then delivers accumulated events and
// runs deferred actions. Callbacks therefore never observe the lock held.
func (o *Orchestrator) unlockAndDrain() {
	pendingEvents := o.pendingEvents
	pendingActions := o.pendingActions
	o.pendingEvents = nil
	o.pendingActions = nil
	o.mu.Unlock()

	for _, event := range pendingEvents {
		o.emit(event)
	}
	for _, action := range pendingActions {
		action()
	}
}

// Observations. All return copies; none mutate state.

func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

func (o *Orchestrator) State() TurnState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) MicState() MicState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gate.State()
}

func (o *Orchestrator) MicPermissionDenied() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gate.PermissionDenied()
}

// VoiceAvailable reports whether a capture client is configured and the
// permission latch is clear.
func (o *Orchestrator) VoiceAvailable() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.capture.isConfigured() && !o.gate.PermissionDenied()
}

func (o *Orchestrator) Mode() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// RemainingTurns returns the server-reported remaining turn count. ok is
// false before the first server response of the session.
func (o *Orchestrator) RemainingTurns() (remaining int, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.remaining == nil {
		return o.turnBudget, false
	}
	return *o.remaining, true
}

func (o *Orchestrator) TranscriptSnapshot() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transcript.Snapshot()
}

func (o *Orchestrator) FlattenTranscript() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transcript.Flatten()
}

// Report returns a deep copy of the evaluation report, or nil before
// finalization succeeded.
func (o *Orchestrator) Report() *interviews.Report {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.report == nil {
		return nil
	}
	report := &interviews.Report{}
	if err := copier.CopyWithOption(report, o.report, copier.Option{DeepCopy: true}); err != nil {
		snapshot := *o.report
		return &snapshot
	}
	return report
}

// LastStatus returns the last user-visible status message and whether it
// was an error.
func (o *Orchestrator) LastStatus() (message string, isError bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastStatus, o.statusIsErr
}
