package events

const (
	// KindLinkError identifies a transcription link failure.
	KindLinkError Kind = "link.error"
	// KindLinkDegraded identifies the link crossing its consecutive-error threshold.
	KindLinkDegraded Kind = "link.degraded"
	// KindLinkReconnected identifies re-establishment of the transcription link.
	KindLinkReconnected Kind = "link.reconnected"
)

// LinkError carries a transcription link failure. The session keeps
// listening; recovery is the orchestrator's concern.
type LinkError struct {
	Base
	Cause error
}

// NewLinkError creates a link error event.
func NewLinkError(cause error) LinkError {
	return LinkError{Base: NewBase(KindLinkError), Cause: cause}
}

// LinkDegraded marks the link as degraded after consecutive errors.
type LinkDegraded struct {
	Base
	ConsecutiveErrors int
}

// NewLinkDegraded creates a link degraded event.
func NewLinkDegraded(consecutiveErrors int) LinkDegraded {
	return LinkDegraded{Base: NewBase(KindLinkDegraded), ConsecutiveErrors: consecutiveErrors}
}

// LinkReconnected marks the transcription link as re-established. Attempts is
// the number of connection attempts the recovery took.
type LinkReconnected struct {
	Base
	Attempts int
}

// NewLinkReconnected creates a link reconnected event.
func NewLinkReconnected(attempts int) LinkReconnected {
	return LinkReconnected{Base: NewBase(KindLinkReconnected), Attempts: attempts}
}
