package events

const (
	KindAssistantPromptAdded   Kind = "transcript.assistant_prompt_added"
	KindCandidateAnswerAdded   Kind = "transcript.candidate_answer_added"
	KindCandidateAnswerRevoked Kind = "transcript.candidate_answer_revoked"
	KindTranscriptCleared      Kind = "transcript.cleared"
)

type AssistantPromptAdded struct {
	Base
	Index int
	Text  string
}

func NewAssistantPromptAdded(index int, text string) AssistantPromptAdded {
	return AssistantPromptAdded{Base: NewBase(KindAssistantPromptAdded), Index: index, Text: text}
}

type CandidateAnswerAdded struct {
	Base
	Index  int
	Text   string
	Source string
}

func NewCandidateAnswerAdded(index int, text, source string) CandidateAnswerAdded {
	return CandidateAnswerAdded{Base: NewBase(KindCandidateAnswerAdded), Index: index, Text: text, Source: source}
}

// CandidateAnswerRevoked is emitted when an optimistically appended candidate
// entry is rolled back after a failed submission.
type CandidateAnswerRevoked struct {
	Base
	Index int
	Text  string
}

func NewCandidateAnswerRevoked(index int, text string) CandidateAnswerRevoked {
	return CandidateAnswerRevoked{Base: NewBase(KindCandidateAnswerRevoked), Index: index, Text: text}
}

type TranscriptCleared struct {
	Base
}

func NewTranscriptCleared() TranscriptCleared {
	return TranscriptCleared{Base: NewBase(KindTranscriptCleared)}
}
