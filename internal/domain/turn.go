package domain

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
	SpeakerSystem    Speaker = "system"
)

// Turn is one attributed message in the conversation log. Ordinal is the
// insertion index, starting at zero.
type Turn struct {
	Ordinal int     `json:"ordinal"`
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// IsUser reports whether the turn renders on the user side. System turns
// are shown on the assistant side.
func (t Turn) IsUser() bool {
	return t.Speaker == SpeakerUser
}
