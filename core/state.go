package orchestration

// State describes what the orchestrator is doing with respect to the
// conversation. Transitions are driven by the turn queue consumer, so reads
// are eventually consistent with in-flight work.
type State int32

const (
	// StateIdle means the orchestrator has not been started, or has been
	// closed.
	StateIdle State = iota
	// StateListening means the orchestrator is accepting user input and no
	// response is in flight.
	StateListening
	// StateResponding means a turn is being processed and the assistant
	// response is being generated or played.
	StateResponding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateResponding:
		return "responding"
	default:
		return "unknown"
	}
}
