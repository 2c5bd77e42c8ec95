package orchestration

import (
	"reflect"

	"github.com/miralabs/mira-core/core/audio"
)

// audioOutput wraps the configured output client so per-turn code never has
// to care whether output is wired at all.
//
// A turn should use a Snapshot() so later runtime reconfiguration does not
// change behavior mid-turn.
//
// NOTE: methods intentionally do best-effort forwarding and ignore client
// return errors because the orchestration pipeline treats audio output as
// non-fatal side effects.
type audioOutput struct {
	// base stores the configured output client.
	base AudioOutput
}

func newAudioOutput(client AudioOutput) *audioOutput {
	audioOutput := audioOutput{}
	audioOutput.Set(client)
	return &audioOutput
}

// Set replaces the configured output client. Nil and typed-nil clients are
// treated as unconfigured.
func (a *audioOutput) Set(client AudioOutput) {
	if a == nil {
		return
	}

	a.base = nil
	if isNilAudioOutput(client) {
		return
	}
	a.base = client
}

func (a *audioOutput) isConfigured() bool {
	return a != nil && a.base != nil
}

// Snapshot returns a per-turn copy of the facade state. The copy intentionally
// keeps the same underlying client instance while freezing routing for the
// lifetime of the turn.
func (a *audioOutput) Snapshot() *audioOutput {
	if a == nil {
		return a
	}

	return newAudioOutput(a.base)
}

// SendAudio forwards a chunk to the configured output client. If no client is
// configured, the chunk is dropped.
func (a *audioOutput) SendAudio(audio []byte) {
	if a.isConfigured() {
		a.base.SendAudio(audio)
	}
}

// Mark coordinates transcript marks with output playback.
//
// Without output configured, the callback is invoked immediately so turn
// state can continue progressing.
func (a *audioOutput) Mark(mark string, callback func(string)) {
	if a.isConfigured() {
		a.base.Mark(mark, callback)
		return
	}

	callback(mark)
}

// Clear flushes buffered output on the configured client.
func (a *audioOutput) Clear() {
	if a.isConfigured() {
		a.base.ClearBuffer()
	}
}

// EncodingInfo returns the active output encoding metadata.
//
// If no client is configured, the project default encoding is used.
func (a *audioOutput) EncodingInfo() audio.EncodingInfo {
	if a.isConfigured() {
		return a.base.EncodingInfo()
	}

	return audio.GetDefaultEncodingInfo()
}

// isNilAudioOutput detects nil and typed-nil interface values so Set can
// avoid storing unusable interface wrappers as configured clients.
func isNilAudioOutput(client AudioOutput) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
