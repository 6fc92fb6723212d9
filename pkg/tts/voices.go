package tts

// ElevenLabsVoices maps preset names to ElevenLabs voice IDs.
var ElevenLabsVoices = map[string]string{
	"charlotte": "XB0fDUnXU5powFXDhCwa",
	"aria":      "9BWtsMINqrJLrRacOk9x",
	"sarah":     "EXAVITQu4vr4xnSDxMaL",
	"rachel":    "21m00Tcm4TlvDq8ikWAM",
	"josh":      "TxGEqnHWrfWFTfGW9XjX",
	"adam":      "pNInz6obpgDQGcFmaJgB",
}

// DefaultElevenLabsVoice is the preset used when none is configured.
const DefaultElevenLabsVoice = "charlotte"

// ResolveElevenLabsVoice returns the voice ID for a preset name, or name
// itself when it is not a preset.
func ResolveElevenLabsVoice(name string) string {
	if id, ok := ElevenLabsVoices[name]; ok {
		return id
	}
	return name
}
