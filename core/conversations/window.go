package conversations

import (
	"github.com/jinzhu/copier"
)

const DefaultMaxTurns = 16

// Window holds the committed history of a conversation, bounded to
// 2 x maxTurns entries (user/assistant pairs), oldest dropped first.
//
// Window is not safe for concurrent use; the conversation runtime owns it
// and mutates it from a single goroutine.
type Window struct {
	maxTurns int
	turns    []Turn
}

type WindowOption func(*Window)

// WithMaxTurns caps the number of retained exchanges. Values below 1 are
// ignored.
func WithMaxTurns(maxTurns int) WindowOption {
	return func(w *Window) {
		if maxTurns >= 1 {
			w.maxTurns = maxTurns
		}
	}
}

func NewWindow(opts ...WindowOption) *Window {
	window := &Window{maxTurns: DefaultMaxTurns}
	for _, opt := range opts {
		opt(window)
	}
	return window
}

// Commit appends the completed exchange as a user turn followed by an
// assistant turn, then truncates to the bound from the tail.
func (w *Window) Commit(userText string, assistantText string) {
	w.turns = append(w.turns,
		NewTurn(RoleUser, userText),
		NewTurn(RoleAssistant, assistantText),
	)
	if bound := 2 * w.maxTurns; len(w.turns) > bound {
		w.turns = w.turns[len(w.turns)-bound:]
	}
}

// Turns returns a deep copy of the committed history, oldest first.
func (w *Window) Turns() []Turn {
	turns := make([]Turn, 0, len(w.turns))
	if err := copier.Copy(&turns, w.turns); err != nil {
		return append([]Turn(nil), w.turns...)
	}
	return turns
}

func (w *Window) Len() int {
	return len(w.turns)
}
