package events

const (
	KindMicStateChanged Kind = "voice.mic_state_changed"
	KindPlaybackStarted Kind = "voice.playback_started"
	KindPlaybackEnded   Kind = "voice.playback_ended"
	KindCaptureFailed   Kind = "voice.capture_failed"
)

type MicStateChanged struct {
	Base
	State string
}

func NewMicStateChanged(state string) MicStateChanged {
	return MicStateChanged{Base: NewBase(KindMicStateChanged), State: state}
}

type PlaybackStarted struct {
	Base
	Text string
}

func NewPlaybackStarted(text string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), Text: text}
}

type PlaybackEnded struct {
	Base
	Text string
}

func NewPlaybackEnded(text string) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), Text: text}
}

type CaptureFailed struct {
	Base
	Reason string
}

func NewCaptureFailed(reason string) CaptureFailed {
	return CaptureFailed{Base: NewBase(KindCaptureFailed), Reason: reason}
}
