package events

const (
	// KindTurnStarted identifies the start of user turn processing.
	KindTurnStarted Kind = "turn_state.started"
	// KindTurnCompleted identifies successful turn completion.
	KindTurnCompleted Kind = "turn_state.completed"
	// KindTurnFailed identifies turn failure.
	KindTurnFailed Kind = "turn_state.failed"
	// KindTurnCancelled identifies turn cancellation.
	KindTurnCancelled Kind = "turn_state.cancelled"
)

// TurnStarted marks the start of processing for a user turn.
type TurnStarted struct {
	Base
	Trigger string
}

// NewTurnStarted creates a turn started event.
func NewTurnStarted(trigger string) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), Trigger: trigger}
}

// TurnCompleted marks successful completion of the current turn.
type TurnCompleted struct{ Base }

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted() TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted)}
}

// TurnFailed marks failure of the current turn. Cause is the underlying
// generation or synthesis error.
type TurnFailed struct {
	Base
	Cause error
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(cause error) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), Cause: cause}
}

// TurnCancelled marks cancellation of the current turn. Spoken holds the
// transcript confirmed as played before the cut.
type TurnCancelled struct {
	Base
	Spoken string
}

// NewTurnCancelled creates a turn cancelled event.
func NewTurnCancelled(spoken string) TurnCancelled {
	return TurnCancelled{Base: NewBase(KindTurnCancelled), Spoken: spoken}
}
