package speechoutput

type SpeakOptions struct {
	// CompletionCallback is called exactly once when the utterance has been
	// fully synthesized and played back.
	//
	// It is not called for utterances superseded by [Cancel] or by a newer
	// Speak call.
	CompletionCallback func()
	// ErrorCallback is called when synthesis or playback fails. The
	// completion callback is not called afterwards.
	ErrorCallback func(error)
}

type SpeakOption func(*SpeakOptions)

func WithCompletionCallback(callback func()) SpeakOption {
	return func(o *SpeakOptions) {
		o.CompletionCallback = callback
	}
}

func WithErrorCallback(callback func(error)) SpeakOption {
	return func(o *SpeakOptions) {
		o.ErrorCallback = callback
	}
}
