package model

import (
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

// Turn is a single transcript entry: a user, assistant, or system message
type Turn struct {
	ID          types.TurnID
	Time        time.Time
	Speaker     types.Speaker
	Text        string
	IsAI        bool
	IsStreaming bool
}

// NewTurn creates a completed (non-streaming) turn
func NewTurn(speaker types.Speaker, text string) Turn {
	return Turn{
		ID:      types.NewTurnID(),
		Time:    time.Now().UTC(),
		Speaker: speaker,
		Text:    text,
		IsAI:    speaker == types.SpeakerAssistant,
	}
}

// NewSystemTurn creates a completed turn attributed to the system
func NewSystemTurn(text string) Turn {
	return NewTurn(types.SpeakerSystem, text)
}
