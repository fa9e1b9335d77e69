package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/oralprep/interview-core/core/interviews"
	"github.com/oralprep/interview-core/core/speechcapture"
	"github.com/oralprep/interview-core/core/speechoutput"
)

func TestStartInterviewSpeaksOpeningPrompt(t *testing.T) {
	client := &interviewClientStub{
		openingQuestion: func(req interviews.OpeningQuestionRequest) (*interviews.OpeningQuestion, error) {
			if req.SessionID == "" {
				t.Fatalf("expected a session id on the opening request")
			}
			if req.Mode != "toefl" {
				t.Fatalf("expected mode toefl, got %q", req.Mode)
			}
			return &interviews.OpeningQuestion{Prompt: "Tell me about yourself.", RemainingTurns: 5}, nil
		},
	}
	output := &playbackClientStub{}
	orchestrator := NewOrchestrator(WithInterviewClient(client), WithSpeechOutput(output))

	if err := orchestrator.StartInterview(context.Background(), "toefl"); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	if orchestrator.Phase() != PhaseActive {
		t.Fatalf("expected active phase, got %v", orchestrator.Phase())
	}
	if orchestrator.State() != StateSpeaking {
		t.Fatalf("expected speaking while the prompt plays, got %v", orchestrator.State())
	}
	if remaining, ok := orchestrator.RemainingTurns(); !ok || remaining != 5 {
		t.Fatalf("expected remaining turns 5, got %d (ok=%t)", remaining, ok)
	}

	entries := orchestrator.TranscriptSnapshot()
	if len(entries) != 1 || entries[0].Role != RoleAssistant || entries[0].Text != "Tell me about yourself." {
		t.Fatalf("expected transcript with the opening prompt, got %+v", entries)
	}

	output.complete()
	if orchestrator.State() != StateAwaitingCandidate {
		t.Fatalf("expected awaiting-candidate after playback, got %v", orchestrator.State())
	}
	if orchestrator.MicState() != MicReady {
		t.Fatalf("expected mic armed after playback, got %v", orchestrator.MicState())
	}
}

func TestStartInterviewFailureRetainsNoPartialState(t *testing.T) {
	client := &interviewClientStub{
		openingQuestion: func(interviews.OpeningQuestionRequest) (*interviews.OpeningQuestion, error) {
			return nil, errors.New("connection refused")
		},
	}
	orchestrator := NewOrchestrator(WithInterviewClient(client))

	err := orchestrator.StartInterview(context.Background(), "toefl")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected a transport error, got %v", err)
	}

	if orchestrator.Phase() != PhaseIdle {
		t.Fatalf("expected idle phase after failure, got %v", orchestrator.Phase())
	}
	if orchestrator.State() != StateWaitingForStart {
		t.Fatalf("expected waiting-for-start after failure, got %v", orchestrator.State())
	}
	if len(orchestrator.TranscriptSnapshot()) != 0 {
		t.Fatalf("expected empty transcript after failure")
	}
	if message, isError := orchestrator.LastStatus(); message == "" || !isError {
		t.Fatalf("expected an error status, got %q (error=%t)", message, isError)
	}
}

func TestSubmitUtteranceAppendsTurnAndCyclesBack(t *testing.T) {
	client := &interviewClientStub{
		openingQuestion: openingStub("Tell me about yourself.", 5),
		chatTurn: func(req interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
			if req.Text != "I am a backend engineer." {
				t.Fatalf("expected the candidate text, got %q", req.Text)
			}
			return &interviews.ChatTurnReply{Reply: "What languages do you use?", RemainingTurns: 4}, nil
		},
	}
	output := &playbackClientStub{}
	orchestrator := NewOrchestrator(WithInterviewClient(client), WithSpeechOutput(output))

	mustStart(t, orchestrator, output)

	if err := orchestrator.SubmitUtterance(context.Background(), "I am a backend engineer.", SourceTyped); err != nil {
		t.Fatalf("expected submission to succeed, got %v", err)
	}

	entries := orchestrator.TranscriptSnapshot()
	if len(entries) != 3 {
		t.Fatalf("expected three transcript entries, got %d", len(entries))
	}
	if entries[1].Role != RoleCandidate || entries[2].Role != RoleAssistant {
		t.Fatalf("expected candidate then assistant entries, got %+v", entries)
	}
	if remaining, _ := orchestrator.RemainingTurns(); remaining != 4 {
		t.Fatalf("expected remaining turns 4, got %d", remaining)
	}

	output.complete()
	if orchestrator.State() != StateAwaitingCandidate {
		t.Fatalf("expected the cycle back at awaiting-candidate, got %v", orchestrator.State())
	}
}

func TestSubmitUtteranceAlternationAcrossTurns(t *testing.T) {
	turn := 0
	client := &interviewClientStub{
		openingQuestion: openingStub("Question one?", 5),
		chatTurn: func(interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
			turn++
			return &interviews.ChatTurnReply{Reply: "Next question?", RemainingTurns: 5 - turn}, nil
		},
	}
	output := &playbackClientStub{}
	orchestrator := NewOrchestrator(WithInterviewClient(client), WithSpeechOutput(output))
	mustStart(t, orchestrator, output)

	for i := 0; i < 3; i++ {
		if err := orchestrator.SubmitUtterance(context.Background(), "Answer.", SourceTyped); err != nil {
			t.Fatalf("turn %d: expected submission to succeed, got %v", i, err)
		}
		output.complete()
	}

	entries := orchestrator.TranscriptSnapshot()
	candidates, assistants := 0, 0
	for i, entry := range entries {
		switch entry.Role {
		case RoleCandidate:
			candidates++
			if i%2 != 1 {
				t.Fatalf("expected strict alternation starting with assistant, got %+v", entries)
			}
		case RoleAssistant:
			assistants++
			if i%2 != 0 {
				t.Fatalf("expected strict alternation starting with assistant, got %+v", entries)
			}
		}
	}
	if candidates != 3 || assistants != 4 {
		t.Fatalf("expected 3 candidate and 4 assistant entries, got %d and %d", candidates, assistants)
	}
}

func TestSubmitUtteranceValidationFailsLocally(t *testing.T) {
	calls := 0
	client := &interviewClientStub{
		openingQuestion: openingStub("Question?", 5),
		chatTurn: func(interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
			calls++
			return &interviews.ChatTurnReply{RemainingTurns: 4}, nil
		},
	}
	output := &playbackClientStub{}
	orchestrator := NewOrchestrator(
		WithInterviewClient(client),
		WithSpeechOutput(output),
		WithCredentialSource(credentialStub("")),
	)
	mustStart(t, orchestrator, output)
	output.complete()

	var validationErr *ValidationError

	if err := orchestrator.SubmitUtterance(context.Background(), "   ", SourceTyped); !errors.As(err, &validationErr) {
		t.Fatalf("expected a validation error for empty text, got %v", err)
	}
	if err := orchestrator.SubmitUtterance(context.Background(), "Answer.", SourceTyped); !errors.As(err, &validationErr) {
		t.Fatalf("expected a validation error for the missing credential, got %v", err)
	}

	if calls != 0 {
		t.Fatalf("expected no network call on validation failure, got %d", calls)
	}
	if len(orchestrator.TranscriptSnapshot()) != 1 {
		t.Fatalf("expected the transcript untouched by validation failures")
	}
}

func TestSubmitUtteranceTransportFailureRollsBack(t *testing.T) {
	failing := true
	client := &interviewClientStub{
		openingQuestion: openingStub("Question?", 5),
		chatTurn: func(interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
			if failing {
				return nil, errors.New("gateway timeout")
			}
			return &interviews.ChatTurnReply{Reply: "Next?", RemainingTurns: 4}, nil
		},
	}
	output := &playbackClientStub{}
	orchestrator := NewOrchestrator(WithInterviewClient(client), WithSpeechOutput(output))
	mustStart(t, orchestrator, output)
	output.complete()

	before := orchestrator.FlattenTranscript()

	err := orchestrator.SubmitUtterance(context.Background(), "Answer.", SourceTyped)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected a transport error, got %v", err)
	}

	if after := orchestrator.FlattenTranscript(); after != before {
		t.Fatalf("expected the transcript restored byte-identically,\nbefore: %q\nafter:  %q", before, after)
	}
	if orchestrator.State() != StateAwaitingCandidate {
		t.Fatalf("expected control returned to the candidate, got %v", orchestrator.State())
	}
	if orchestrator.MicState() != MicDisabled {
		t.Fatalf("expected no mic re-arm for a typed submission, got %v", orchestrator.MicState())
	}

	// The same failure on the voice path re-arms the mic.
	failing = false
	if err := orchestrator.SubmitUtterance(context.Background(), "Answer.", SourceTyped); err != nil {
		t.Fatalf("expected recovery submission to succeed, got %v", err)
	}
	output.complete()
	failing = true
	if err := orchestrator.SubmitUtterance(context.Background(), "Another answer.", SourceVoice); err == nil {
		t.Fatalf("expected the voice submission to fail")
	}
	if orchestrator.MicState() != MicReady {
		t.Fatalf("expected the mic re-armed for a voice submission, got %v", orchestrator.MicState())
	}
}

func TestBudgetExhaustionFinalizesWithoutMicArming(t *testing.T) {
	evaluated := ""
	client := &interviewClientStub{
		openingQuestion: openingStub("Final question?", 1),
		chatTurn: func(interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
			return &interviews.ChatTurnReply{RemainingTurns: 0, LimitReached: true}, nil
		},
		evaluate: func(req interviews.EvaluationRequest) (*interviews.Report, error) {
			evaluated = req.Transcript
			return &interviews.Report{Mode: req.Mode, OverallScore: 21, CEFRLevel: "B2"}, nil
		},
	}
	output := &playbackClientStub{}
	orchestrator := NewOrchestrator(WithInterviewClient(client), WithSpeechOutput(output))

	micStates := []string{}
	orchestrator.Orchestrate(context.Background(), WithMicStateChangedCallback(func(state string) {
		micStates = append(micStates, state)
	}))

	mustStart(t, orchestrator, output)
	output.complete()

	if err := orchestrator.SubmitUtterance(context.Background(), "My final answer.", SourceTyped); err != nil {
		t.Fatalf("expected the final submission to succeed, got %v", err)
	}

	if orchestrator.Phase() != PhaseFinished {
		t.Fatalf("expected the finished phase, got %v", orchestrator.Phase())
	}
	if orchestrator.State() != StateFinished {
		t.Fatalf("expected the finished state, got %v", orchestrator.State())
	}
	if evaluated == "" {
		t.Fatalf("expected the flattened transcript handed to evaluation")
	}
	report := orchestrator.Report()
	if report == nil || report.CEFRLevel != "B2" {
		t.Fatalf("expected the stored report, got %+v", report)
	}

	// After the submission disarmed the mic, no further arming may occur.
	sawDisabled := false
	for _, state := range micStates {
		if sawDisabled && state == string(MicReady) {
			t.Fatalf("expected no mic arming after finalization, transitions %v", micStates)
		}
		if state == string(MicDisabled) {
			sawDisabled = true
		}
	}
}

func TestFinalizationFailureStillFinishes(t *testing.T) {
	client := &interviewClientStub{
		openingQuestion: openingStub("Question?", 1),
		chatTurn: func(interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
			return &interviews.ChatTurnReply{RemainingTurns: 0}, nil
		},
		evaluate: func(interviews.EvaluationRequest) (*interviews.Report, error) {
			return nil, errors.New("model overloaded")
		},
	}
	output := &playbackClientStub{}
	orchestrator := NewOrchestrator(WithInterviewClient(client), WithSpeechOutput(output))
	mustStart(t, orchestrator, output)
	output.complete()

	err := orchestrator.SubmitUtterance(context.Background(), "Answer.", SourceTyped)
	var finalizationErr *FinalizationError
	if !errors.As(err, &finalizationErr) {
		t.Fatalf("expected a finalization error, got %v", err)
	}

	if orchestrator.Phase() != PhaseFinished {
		t.Fatalf("expected finished despite the evaluation failure, got %v", orchestrator.Phase())
	}
	if orchestrator.Report() != nil {
		t.Fatalf("expected no report after a failed evaluation")
	}

	// Manual retry with an edited transcript is still possible.
	client.evaluate = func(req interviews.EvaluationRequest) (*interviews.Report, error) {
		if req.Transcript != "Interviewer: Question?\nCandidate: Edited answer." {
			t.Fatalf("expected the edited transcript, got %q", req.Transcript)
		}
		return &interviews.Report{OverallScore: 18}, nil
	}
	if err := orchestrator.Evaluate(context.Background(), "Interviewer: Question?\nCandidate: Edited answer."); err != nil {
		t.Fatalf("expected the manual evaluation to succeed, got %v", err)
	}
	if report := orchestrator.Report(); report == nil || report.OverallScore != 18 {
		t.Fatalf("expected the retried report stored, got %+v", report)
	}
}

func TestVoiceCaptureFlowSubmitsTranscript(t *testing.T) {
	client := &interviewClientStub{
		openingQuestion: openingStub("Question?", 5),
		chatTurn: func(req interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
			if req.Text != "I am a backend engineer." {
				t.Fatalf("expected the captured transcript submitted, got %q", req.Text)
			}
			return &interviews.ChatTurnReply{Reply: "Next?", RemainingTurns: 4}, nil
		},
	}
	output := &playbackClientStub{}
	capture := &captureClientStub{}
	orchestrator := NewOrchestrator(
		WithInterviewClient(client),
		WithSpeechOutput(output),
		WithSpeechCapture(capture),
	)
	mustStart(t, orchestrator, output)
	output.complete()

	if err := orchestrator.StartListening(); err != nil {
		t.Fatalf("expected listening to start, got %v", err)
	}
	if orchestrator.MicState() != MicListening {
		t.Fatalf("expected the mic listening, got %v", orchestrator.MicState())
	}

	capture.emitTranscript("I am a backend engineer.")

	entries := orchestrator.TranscriptSnapshot()
	if len(entries) != 3 || entries[1].Text != "I am a backend engineer." {
		t.Fatalf("expected the voice answer in the transcript, got %+v", entries)
	}
}

func TestCapturePermissionDeniedDisablesVoiceForTheSession(t *testing.T) {
	client := &interviewClientStub{
		openingQuestion: openingStub("Question?", 5),
		chatTurn: func(interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
			return &interviews.ChatTurnReply{Reply: "Next?", RemainingTurns: 4}, nil
		},
	}
	output := &playbackClientStub{}
	capture := &captureClientStub{}
	orchestrator := NewOrchestrator(
		WithInterviewClient(client),
		WithSpeechOutput(output),
		WithSpeechCapture(capture),
	)
	mustStart(t, orchestrator, output)
	output.complete()

	if err := orchestrator.StartListening(); err != nil {
		t.Fatalf("expected listening to start, got %v", err)
	}
	capture.emitError(speechcapture.ErrorKindPermissionDenied, errors.New("denied"))

	if orchestrator.MicState() != MicDisabled {
		t.Fatalf("expected the mic disabled after permission denial, got %v", orchestrator.MicState())
	}
	if orchestrator.VoiceAvailable() {
		t.Fatalf("expected voice unavailable after permission denial")
	}

	// Typed submission remains the fallback, and the following playback
	// window must not re-arm the mic.
	if err := orchestrator.SubmitUtterance(context.Background(), "Typed answer.", SourceTyped); err != nil {
		t.Fatalf("expected the typed fallback to work, got %v", err)
	}
	output.complete()
	if orchestrator.State() != StateAwaitingCandidate {
		t.Fatalf("expected awaiting-candidate, got %v", orchestrator.State())
	}
	if orchestrator.MicState() != MicDisabled {
		t.Fatalf("expected no automatic re-arm after permission denial, got %v", orchestrator.MicState())
	}
}

func TestCaptureNoInputRetriesListening(t *testing.T) {
	client := &interviewClientStub{openingQuestion: openingStub("Question?", 5)}
	output := &playbackClientStub{}
	capture := &captureClientStub{}
	orchestrator := NewOrchestrator(
		WithInterviewClient(client),
		WithSpeechOutput(output),
		WithSpeechCapture(capture),
	)
	mustStart(t, orchestrator, output)
	output.complete()

	if err := orchestrator.StartListening(); err != nil {
		t.Fatalf("expected listening to start, got %v", err)
	}
	capture.emitError(speechcapture.ErrorKindNoInput, nil)

	if orchestrator.MicState() != MicReady {
		t.Fatalf("expected the mic back at ready for a retry, got %v", orchestrator.MicState())
	}
	if err := orchestrator.StartListening(); err != nil {
		t.Fatalf("expected the retry to start listening again, got %v", err)
	}
}

func TestChangeModeDiscardsStaleResults(t *testing.T) {
	turnStarted := make(chan struct{})
	turnRelease := make(chan struct{})
	client := &interviewClientStub{
		openingQuestion: openingStub("Question?", 5),
		chatTurn: func(interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
			close(turnStarted)
			<-turnRelease
			return &interviews.ChatTurnReply{Reply: "Stale reply.", RemainingTurns: 4}, nil
		},
	}
	output := &playbackClientStub{}
	orchestrator := NewOrchestrator(WithInterviewClient(client), WithSpeechOutput(output))
	mustStart(t, orchestrator, output)
	output.complete()

	done := make(chan error, 1)
	go func() {
		done <- orchestrator.SubmitUtterance(context.Background(), "Answer.", SourceTyped)
	}()

	<-turnStarted
	orchestrator.ChangeMode("ielts")
	close(turnRelease)

	if err := <-done; err != nil {
		t.Fatalf("expected the superseded submission to be dropped silently, got %v", err)
	}

	if orchestrator.Phase() != PhaseIdle {
		t.Fatalf("expected the hard reset to hold, got %v", orchestrator.Phase())
	}
	if orchestrator.State() != StateWaitingForStart {
		t.Fatalf("expected waiting-for-start after the reset, got %v", orchestrator.State())
	}
	if len(orchestrator.TranscriptSnapshot()) != 0 {
		t.Fatalf("expected the stale reply discarded, transcript %+v", orchestrator.TranscriptSnapshot())
	}
	if orchestrator.Mode() != "ielts" {
		t.Fatalf("expected the new mode selected, got %q", orchestrator.Mode())
	}
}

func TestMicGateNeverReadyOutsideActivePhase(t *testing.T) {
	client := &interviewClientStub{
		openingQuestion: openingStub("Question?", 1),
		chatTurn: func(interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
			return &interviews.ChatTurnReply{RemainingTurns: 0}, nil
		},
		evaluate: func(interviews.EvaluationRequest) (*interviews.Report, error) {
			return &interviews.Report{}, nil
		},
	}
	output := &playbackClientStub{}
	orchestrator := NewOrchestrator(WithInterviewClient(client), WithSpeechOutput(output))

	type observation struct {
		mic   string
		phase Phase
	}
	observations := []observation{}
	orchestrator.Orchestrate(context.Background(), WithMicStateChangedCallback(func(state string) {
		observations = append(observations, observation{mic: state, phase: orchestrator.Phase()})
	}))

	mustStart(t, orchestrator, output)
	output.complete()
	if err := orchestrator.SubmitUtterance(context.Background(), "Answer.", SourceTyped); err != nil {
		t.Fatalf("expected the final submission to succeed, got %v", err)
	}
	orchestrator.ChangeMode("ielts")

	for _, obs := range observations {
		if (obs.mic == string(MicReady) || obs.mic == string(MicListening)) && obs.phase != PhaseActive {
			t.Fatalf("observed mic %q outside the active phase (%v)", obs.mic, obs.phase)
		}
	}
}

func TestOpeningLineIsNotRespokenOnRedundantCompletion(t *testing.T) {
	client := &interviewClientStub{openingQuestion: openingStub("Question?", 5)}
	output := &playbackClientStub{}
	orchestrator := NewOrchestrator(WithInterviewClient(client), WithSpeechOutput(output))
	mustStart(t, orchestrator, output)

	output.complete()
	output.complete()

	if len(output.spoken) != 1 {
		t.Fatalf("expected the opening line spoken once, spoke %v", output.spoken)
	}
	if orchestrator.State() != StateAwaitingCandidate {
		t.Fatalf("expected awaiting-candidate, got %v", orchestrator.State())
	}
}

func openingStub(prompt string, remaining int) func(interviews.OpeningQuestionRequest) (*interviews.OpeningQuestion, error) {
	return func(interviews.OpeningQuestionRequest) (*interviews.OpeningQuestion, error) {
		return &interviews.OpeningQuestion{Prompt: prompt, RemainingTurns: remaining}, nil
	}
}

func mustStart(t *testing.T, orchestrator *Orchestrator, output *playbackClientStub) {
	t.Helper()
	if err := orchestrator.StartInterview(context.Background(), "toefl"); err != nil {
		t.Fatalf("expected the interview to start, got %v", err)
	}
	if len(output.spoken) == 0 {
		t.Fatalf("expected the opening prompt to be spoken")
	}
}

type interviewClientStub struct {
	openingQuestion func(interviews.OpeningQuestionRequest) (*interviews.OpeningQuestion, error)
	chatTurn        func(interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error)
	evaluate        func(interviews.EvaluationRequest) (*interviews.Report, error)
}

func (stub *interviewClientStub) OpeningQuestion(_ context.Context, req interviews.OpeningQuestionRequest) (*interviews.OpeningQuestion, error) {
	if stub.openingQuestion == nil {
		return nil, errors.New("unexpected opening question call")
	}
	return stub.openingQuestion(req)
}

func (stub *interviewClientStub) ChatTurn(_ context.Context, req interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
	if stub.chatTurn == nil {
		return nil, errors.New("unexpected chat turn call")
	}
	return stub.chatTurn(req)
}

func (stub *interviewClientStub) Evaluate(_ context.Context, req interviews.EvaluationRequest) (*interviews.Report, error) {
	if stub.evaluate == nil {
		return nil, errors.New("unexpected evaluation call")
	}
	return stub.evaluate(req)
}

type playbackClientStub struct {
	spoken      []string
	cancelled   int
	completions []func()
}

func (stub *playbackClientStub) Speak(_ context.Context, text string, opts ...speechoutput.SpeakOption) error {
	options := speechoutput.SpeakOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	stub.spoken = append(stub.spoken, text)
	stub.completions = append(stub.completions, options.CompletionCallback)
	return nil
}

func (stub *playbackClientStub) Cancel() error {
	stub.cancelled++
	return nil
}

// complete fires the completion callback of the oldest unfinished
// utterance; extra calls are no-ops, mirroring redundant platform
// completion events.
func (stub *playbackClientStub) complete() {
	if len(stub.completions) == 0 {
		return
	}
	callback := stub.completions[0]
	stub.completions = stub.completions[1:]
	if callback != nil {
		callback()
	}
}

type captureClientStub struct {
	options   speechcapture.CaptureOptions
	listening bool
	stopped   int
}

func (stub *captureClientStub) Listen(_ context.Context, opts ...speechcapture.CaptureOption) error {
	options := speechcapture.CaptureOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	stub.options = options
	stub.listening = true
	return nil
}

func (stub *captureClientStub) Stop() error {
	stub.stopped++
	stub.listening = false
	return nil
}

func (stub *captureClientStub) emitTranscript(transcript string) {
	if stub.options.TranscriptCallback != nil {
		stub.options.TranscriptCallback(transcript)
	}
}

func (stub *captureClientStub) emitError(kind speechcapture.ErrorKind, err error) {
	if stub.options.ErrorCallback != nil {
		stub.options.ErrorCallback(kind, err)
	}
}

type credentialStub string

func (stub credentialStub) APIKey() string { return string(stub) }
