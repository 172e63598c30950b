package types

// Speaker is the display name attributed to a transcript turn
type Speaker string

const (
	SpeakerAssistant Speaker = "AI Assistant"
	SpeakerSystem    Speaker = "System"
)

// String returns the string representation of the speaker
func (s Speaker) String() string {
	return string(s)
}
