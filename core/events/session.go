package events

const (
	// KindSessionReady identifies session readiness.
	KindSessionReady Kind = "session.ready"
	// KindSessionError identifies a session-level failure.
	KindSessionError Kind = "session.error"
	// KindSessionClosed identifies session teardown.
	KindSessionClosed Kind = "session.closed"
)

// SessionReady marks the session as attached, connected and listening.
type SessionReady struct {
	Base
	ID string
}

// NewSessionReady creates a session ready event.
func NewSessionReady(id string) SessionReady {
	return SessionReady{Base: NewBase(KindSessionReady), ID: id}
}

// SessionError carries a session-level failure the transport boundary should
// surface to its client.
type SessionError struct {
	Base
	Cause error
}

// NewSessionError creates a session error event.
func NewSessionError(cause error) SessionError {
	return SessionError{Base: NewBase(KindSessionError), Cause: cause}
}

// SessionClosed marks session teardown.
type SessionClosed struct{ Base }

// NewSessionClosed creates a session closed event.
func NewSessionClosed() SessionClosed {
	return SessionClosed{Base: NewBase(KindSessionClosed)}
}
