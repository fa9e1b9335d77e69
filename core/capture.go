package orchestration

import (
	"context"
	"fmt"

	"github.com/oralprep/interview-core/core/speechcapture"
)

// captureCallbacks is the finite set of capture events the orchestrator
// responds to. Each platform callback maps to exactly one of these.
type captureCallbacks struct {
	onTranscript func(transcript string)
	onError      func(kind speechcapture.ErrorKind, err error)
	onEnded      func()
}

// speechCapture normalizes optional capture-client wiring: every method is
// safe to call with no client configured.
type speechCapture struct {
	client SpeechCapture
}

func newSpeechCapture(client SpeechCapture) *speechCapture {
	return &speechCapture{client: client}
}

func (s *speechCapture) set(client SpeechCapture) {
	if s != nil {
		s.client = client
	}
}

func (s *speechCapture) isConfigured() bool {
	return s != nil && s.client != nil
}

func (s *speechCapture) Listen(ctx context.Context, callbacks captureCallbacks) error {
	if !s.isConfigured() {
		return fmt.Errorf("no speech capture client configured")
	}

	opts := []speechcapture.CaptureOption{
		speechcapture.WithTranscriptCallback(callbacks.onTranscript),
		speechcapture.WithErrorCallback(callbacks.onError),
		speechcapture.WithEndedCallback(callbacks.onEnded),
	}

	if err := s.client.Listen(ctx, opts...); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	return nil
}

func (s *speechCapture) Stop() error {
	if !s.isConfigured() {
		return nil
	}

	return s.client.Stop()
}

func (s *speechCapture) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close capture client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close capture client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}
