package deepgram

type Voice string

const (
	VoiceAsteria Voice = "aura-2-asteria-en"
	VoiceThalia  Voice = "aura-2-thalia-en"
	VoiceLuna    Voice = "aura-2-luna-en"
	VoiceOrion   Voice = "aura-2-orion-en"
	VoiceArcas   Voice = "aura-2-arcas-en"
	VoiceHelena  Voice = "aura-2-helena-en"
)

const defaultVoice = VoiceThalia

func GetAvailableVoices() []Voice {
	return []Voice{
		VoiceAsteria,
		VoiceThalia,
		VoiceLuna,
		VoiceOrion,
		VoiceArcas,
		VoiceHelena,
	}
}
