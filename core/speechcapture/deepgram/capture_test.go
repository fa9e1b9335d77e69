package deepgram

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/oralprep/interview-core/core/audio"
	"github.com/oralprep/interview-core/core/speechcapture"
)

type sourceStub struct {
	stopCalls atomic.Int32
}

func (s *sourceStub) StartCapture(context.Context, func([]byte)) error { return nil }
func (s *sourceStub) StopCapture() error {
	s.stopCalls.Add(1)
	return nil
}
func (s *sourceStub) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func finalResult(transcript string, speechFinal bool) []byte {
	msg := `{"type":"Results","is_final":true,"speech_final":`
	if speechFinal {
		msg += "true"
	} else {
		msg += "false"
	}
	return []byte(msg + `,"channel":{"alternatives":[{"transcript":"` + transcript + `"}]}}`)
}

func TestCaptureSessionAccumulatesFinalSegments(t *testing.T) {
	source := &sourceStub{}
	var got string
	session := &captureSession{options: speechcapture.CaptureOptions{
		TranscriptCallback: func(transcript string) { got = transcript },
		ErrorCallback: func(kind speechcapture.ErrorKind, err error) {
			t.Fatalf("unexpected error callback: %v (%v)", kind, err)
		},
	}}

	session.processMessage(source, finalResult("tell me about", false))
	session.processMessage(source, finalResult("your experience", true))

	if got != "tell me about your experience" {
		t.Fatalf("expected accumulated transcript, got %q", got)
	}
	if calls := source.stopCalls.Load(); calls != 1 {
		t.Fatalf("expected capture stopped once, got %d", calls)
	}
}

func TestCaptureSessionReportsNoInputForEmptyUtterance(t *testing.T) {
	source := &sourceStub{}
	var gotKind speechcapture.ErrorKind
	session := &captureSession{options: speechcapture.CaptureOptions{
		TranscriptCallback: func(transcript string) {
			t.Fatalf("unexpected transcript %q", transcript)
		},
		ErrorCallback: func(kind speechcapture.ErrorKind, _ error) { gotKind = kind },
	}}

	session.processMessage(source, []byte(`{"type":"SpeechStarted"}`))
	session.processMessage(source, []byte(`{"type":"UtteranceEnd"}`))

	if gotKind != speechcapture.ErrorKindNoInput {
		t.Fatalf("expected no-input error, got %q", gotKind)
	}
}

func TestCaptureSessionSettlesOnlyOnce(t *testing.T) {
	source := &sourceStub{}
	calls := atomic.Int32{}
	session := &captureSession{options: speechcapture.CaptureOptions{
		TranscriptCallback: func(string) { calls.Add(1) },
	}}

	session.processMessage(source, finalResult("one answer", true))
	// A trailing utterance-end for the same speech must not re-deliver.
	session.processMessage(source, []byte(`{"type":"SpeechStarted"}`))
	session.processMessage(source, []byte(`{"type":"UtteranceEnd"}`))

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single transcript delivery, got %d", got)
	}
}

func TestAbandonedCaptureSessionStaysSilent(t *testing.T) {
	source := &sourceStub{}
	session := &captureSession{options: speechcapture.CaptureOptions{
		TranscriptCallback: func(transcript string) {
			t.Fatalf("unexpected transcript %q", transcript)
		},
		ErrorCallback: func(kind speechcapture.ErrorKind, err error) {
			t.Fatalf("unexpected error callback: %v (%v)", kind, err)
		},
		EndedCallback: func() { t.Fatalf("unexpected ended callback") },
	}}

	session.abandon()
	session.processMessage(source, finalResult("stale words", true))
}

func TestIsPermissionErrorClassification(t *testing.T) {
	if !isPermissionError(errString("Operation not permitted: microphone permission denied")) {
		t.Fatalf("expected permission error to be recognized")
	}
	if isPermissionError(errString("device busy")) {
		t.Fatalf("expected transient device error to stay unclassified")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
