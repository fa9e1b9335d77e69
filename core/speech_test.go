package orchestration

import (
	"context"
	"testing"

	"github.com/oralprep/interview-core/core/speechoutput"
)

func TestSpeechOutputSpeaksEachSignatureAtMostOnce(t *testing.T) {
	client := &speechOutputClientStub{}
	output := newSpeechOutput(client)

	signature := utteranceSignature{generation: 1, index: 0, text: "Tell me about yourself."}

	completions := 0
	onDone := func() { completions++ }
	onErr := func(error) { t.Fatalf("unexpected error callback") }

	if result := output.Speak(context.Background(), signature, onDone, onErr); result != speakStarted {
		t.Fatalf("expected first speak to start, got %v", result)
	}
	if result := output.Speak(context.Background(), signature, onDone, onErr); result != speakSkipped {
		t.Fatalf("expected redundant speak to be skipped, got %v", result)
	}

	client.complete()
	if result := output.Speak(context.Background(), signature, onDone, onErr); result != speakSkipped {
		t.Fatalf("expected spoken signature to stay deduplicated, got %v", result)
	}

	if len(client.spoken) != 1 {
		t.Fatalf("expected the client to speak once, spoke %v", client.spoken)
	}
	if completions != 1 {
		t.Fatalf("expected one completion, got %d", completions)
	}
}

func TestSpeechOutputNewUtteranceSupersedesInFlight(t *testing.T) {
	client := &speechOutputClientStub{}
	output := newSpeechOutput(client)

	first := utteranceSignature{generation: 1, index: 0, text: "First."}
	second := utteranceSignature{generation: 1, index: 1, text: "Second."}

	output.Speak(context.Background(), first, func() {}, func(error) {})
	output.Speak(context.Background(), second, func() {}, func(error) {})

	if client.cancelled != 1 {
		t.Fatalf("expected the in-flight utterance to be cancelled once, got %d", client.cancelled)
	}
	if len(client.spoken) != 2 || client.spoken[1] != "Second." {
		t.Fatalf("expected both utterances sent in order, got %v", client.spoken)
	}
}

func TestSpeechOutputResetForgetsDedupState(t *testing.T) {
	client := &speechOutputClientStub{}
	output := newSpeechOutput(client)

	signature := utteranceSignature{generation: 1, index: 0, text: "Repeated line."}
	output.Speak(context.Background(), signature, func() {}, func(error) {})
	client.complete()

	output.Reset()

	// Same index and text but a new generation: a fresh session may repeat
	// an opening line and it must be spoken again.
	fresh := utteranceSignature{generation: 2, index: 0, text: "Repeated line."}
	if result := output.Speak(context.Background(), fresh, func() {}, func(error) {}); result != speakStarted {
		t.Fatalf("expected post-reset speak to start, got %v", result)
	}
}

func TestSpeechOutputWithoutClientReportsUnavailable(t *testing.T) {
	output := newSpeechOutput(nil)

	signature := utteranceSignature{generation: 1, index: 0, text: "Line."}
	if result := output.Speak(context.Background(), signature, func() {}, func(error) {}); result != speakUnavailable {
		t.Fatalf("expected unavailable without a client, got %v", result)
	}
	if result := output.Speak(context.Background(), signature, func() {}, func(error) {}); result != speakSkipped {
		t.Fatalf("expected the signature to be recorded even without a client, got %v", result)
	}
}

type speechOutputClientStub struct {
	spoken      []string
	cancelled   int
	completions []func()
	failures    []func(error)
}

func (stub *speechOutputClientStub) Speak(_ context.Context, text string, opts ...speechoutput.SpeakOption) error {
	options := speechoutput.SpeakOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	stub.spoken = append(stub.spoken, text)
	stub.completions = append(stub.completions, options.CompletionCallback)
	stub.failures = append(stub.failures, options.ErrorCallback)
	return nil
}

func (stub *speechOutputClientStub) Cancel() error {
	stub.cancelled++
	return nil
}

// complete fires the completion callback of the oldest unfinished utterance.
func (stub *speechOutputClientStub) complete() {
	if len(stub.completions) == 0 {
		return
	}
	callback := stub.completions[0]
	stub.completions = stub.completions[1:]
	stub.failures = stub.failures[1:]
	if callback != nil {
		callback()
	}
}
