package deepgram

// Voice is a Deepgram Aura voice model.
type Voice string

const (
	VoiceAsteria Voice = "aura-2-asteria-en"
	VoiceThalia  Voice = "aura-2-thalia-en"
	VoiceOrion   Voice = "aura-2-orion-en"
	VoiceArcas   Voice = "aura-2-arcas-en"
	VoiceLuna    Voice = "aura-2-luna-en"
	VoiceOrpheus Voice = "aura-2-orpheus-en"
)

const defaultVoice = VoiceAsteria

func AvailableVoices() []Voice {
	return []Voice{
		VoiceAsteria,
		VoiceThalia,
		VoiceOrion,
		VoiceArcas,
		VoiceLuna,
		VoiceOrpheus,
	}
}
