package speechcapture

// ErrorKind classifies capture failures so the orchestrator can pick the
// right recovery path without inspecting adapter-specific errors.
type ErrorKind string

const (
	// ErrorKindPermissionDenied means the platform refused microphone
	// access. Fatal for the session's voice path.
	ErrorKindPermissionDenied ErrorKind = "permission-denied"
	// ErrorKindNoInput means the capture window closed without any speech.
	ErrorKindNoInput ErrorKind = "no-input"
	// ErrorKindOther covers transient recognition failures that are safe to
	// retry.
	ErrorKindOther ErrorKind = "other"
)

type CaptureOptions struct {
	// TranscriptCallback is called with the final, non-empty transcript of a
	// completed utterance.
	TranscriptCallback func(transcript string)
	// ErrorCallback is called when capture fails. err may be nil for
	// conditions that carry no underlying error (e.g. no input).
	ErrorCallback func(kind ErrorKind, err error)
	// EndedCallback is called once when the capture session ends, whether or
	// not a transcript was produced.
	EndedCallback func()
}

type CaptureOption func(*CaptureOptions)

func WithTranscriptCallback(callback func(transcript string)) CaptureOption {
	return func(o *CaptureOptions) {
		o.TranscriptCallback = callback
	}
}

func WithErrorCallback(callback func(kind ErrorKind, err error)) CaptureOption {
	return func(o *CaptureOptions) {
		o.ErrorCallback = callback
	}
}

func WithEndedCallback(callback func()) CaptureOption {
	return func(o *CaptureOptions) {
		o.EndedCallback = callback
	}
}
