package orchestration

import (
	"errors"
	"fmt"
)

// ErrTurnCancelled signals that response generation stopped because the turn
// was cancelled, not because of a failure.
var ErrTurnCancelled = errors.New("turn cancelled")

// ConfigurationError reports a component that was wired with unusable
// settings or not wired at all where required.
type ConfigurationError struct {
	Component string
	Err       error
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("%s misconfigured: %v", e.Component, e.Err)
}

func (e ConfigurationError) Unwrap() error { return e.Err }

// DeviceError reports a failure in a local audio device (capture or playback).
type DeviceError struct {
	Device string
	Err    error
}

func (e DeviceError) Error() string {
	return fmt.Sprintf("%s device failed: %v", e.Device, e.Err)
}

func (e DeviceError) Unwrap() error { return e.Err }

// LinkError reports a failure on a streaming service link. Link errors are
// transient by default; repeated consecutive failures degrade the link.
type LinkError struct {
	Service string
	Err     error
}

func (e LinkError) Error() string {
	return fmt.Sprintf("%s link failed: %v", e.Service, e.Err)
}

func (e LinkError) Unwrap() error { return e.Err }

// GenerationError reports a failure while generating the assistant response.
type GenerationError struct {
	Err error
}

func (e GenerationError) Error() string {
	return fmt.Sprintf("response generation failed: %v", e.Err)
}

func (e GenerationError) Unwrap() error { return e.Err }
