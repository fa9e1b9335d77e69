package orchestration

import "github.com/oralprep/interview-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.PhaseChanged:
			if opts.onPhaseChanged != nil {
				opts.onPhaseChanged(typedEvent.Phase)
			}
		case events.StateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(typedEvent.State)
			}
		case events.MicStateChanged:
			if opts.onMicStateChanged != nil {
				opts.onMicStateChanged(typedEvent.State)
			}
		case events.AssistantPromptAdded:
			if opts.onTranscript != nil {
				opts.onTranscript()
			}
		case events.CandidateAnswerAdded:
			if opts.onTranscript != nil {
				opts.onTranscript()
			}
		case events.CandidateAnswerRevoked:
			if opts.onTranscript != nil {
				opts.onTranscript()
			}
		case events.TranscriptCleared:
			if opts.onTranscript != nil {
				opts.onTranscript()
			}
		case events.RemainingTurnsUpdated:
			if opts.onRemainingTurns != nil {
				opts.onRemainingTurns(typedEvent.Remaining)
			}
		case events.PlaybackEnded:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(typedEvent.Text)
			}
		case events.StatusUpdated:
			if opts.onStatus != nil {
				opts.onStatus(typedEvent.Message, typedEvent.IsError)
			}
		case events.ReportReady:
			if opts.onReportReady != nil {
				opts.onReportReady()
			}
		}
	}
}
