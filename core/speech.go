package orchestration

import (
	"context"
	"sync"

	"github.com/oralprep/interview-core/core/speechoutput"
)

type speakResult int

const (
	// speakStarted means synthesis began; a completion or error callback
	// will follow.
	speakStarted speakResult = iota
	// speakSkipped means this signature was already spoken (or is in
	// flight); no new callback will fire.
	speakSkipped
	// speakUnavailable means no output client is configured; the caller
	// treats synthesis as instantly complete.
	speakUnavailable
)

// speechOutput serializes utterances through the configured output client
// and deduplicates them by utterance signature: the same assistant line is
// never spoken twice, no matter how often playback is re-triggered.
type speechOutput struct {
	client SpeechOutput

	mu       sync.Mutex
	spoken   map[utteranceSignature]struct{}
	inFlight *utteranceSignature
}

func newSpeechOutput(client SpeechOutput) *speechOutput {
	return &speechOutput{
		client: client,
		spoken: map[utteranceSignature]struct{}{},
	}
}

func (s *speechOutput) set(client SpeechOutput) {
	if s != nil {
		s.client = client
	}
}

func (s *speechOutput) isConfigured() bool {
	return s != nil && s.client != nil
}

// Speak synthesizes text once per signature. A new utterance supersedes any
// utterance still in progress.
func (s *speechOutput) Speak(ctx context.Context, signature utteranceSignature, onDone func(), onErr func(error)) speakResult {
	s.mu.Lock()

	if _, seen := s.spoken[signature]; seen {
		s.mu.Unlock()
		return speakSkipped
	}
	if s.inFlight != nil && *s.inFlight == signature {
		s.mu.Unlock()
		return speakSkipped
	}

	if !s.isConfigured() {
		s.spoken[signature] = struct{}{}
		s.mu.Unlock()
		return speakUnavailable
	}

	superseded := s.inFlight != nil
	sig := signature
	s.inFlight = &sig
	s.mu.Unlock()

	if superseded {
		_ = s.client.Cancel()
	}

	err := s.client.Speak(ctx, signature.text,
		speechoutput.WithCompletionCallback(func() {
			s.settle(signature)
			onDone()
		}),
		speechoutput.WithErrorCallback(func(err error) {
			s.settle(signature)
			onErr(err)
		}),
	)
	if err != nil {
		s.settle(signature)
		onErr(err)
	}

	return speakStarted
}

// settle records the signature as spoken and releases the in-flight slot.
// Failed utterances are recorded too: retrying a line that already failed to
// synthesize would loop, and playback failures are non-fatal to the turn.
func (s *speechOutput) settle(signature utteranceSignature) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spoken[signature] = struct{}{}
	if s.inFlight != nil && *s.inFlight == signature {
		s.inFlight = nil
	}
}

func (s *speechOutput) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight != nil
}

// Reset cancels any in-flight utterance and forgets all dedup state. Called
// on every hard reset, together with the transcript generation bump.
func (s *speechOutput) Reset() {
	s.mu.Lock()
	hadInFlight := s.inFlight != nil
	s.inFlight = nil
	s.spoken = map[utteranceSignature]struct{}{}
	s.mu.Unlock()

	if hadInFlight && s.isConfigured() {
		_ = s.client.Cancel()
	}
}
