package orchestration

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/miralabs/mira-core/core/audio"
	events "github.com/miralabs/mira-core/core/events"
	"github.com/miralabs/mira-core/core/speechtotext"
)

const (
	// maxConsecutiveLinkErrors is how many link errors in a row degrade the
	// link and start reconnecting.
	maxConsecutiveLinkErrors = 3
	// reconnectEscalationAttempts is how many failed reconnects escalate to
	// a session error. Reconnection keeps going afterwards.
	reconnectEscalationAttempts = 5
)

var (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

type speechToText struct {
	// client stores the configured speech-to-text implementation.
	client SpeechToText

	emitEvent eventEmitter

	// encodingInfo is kept from the initial start so reconnects reuse it.
	encodingInfo audio.EncodingInfo

	consecutiveErrors atomic.Int32
	reconnecting      atomic.Bool
	closed            atomic.Bool
}

func newSpeechToText(client SpeechToText) *speechToText {
	return &speechToText{
		client:    client,
		emitEvent: noopEventEmitter,
	}
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) Start(ctx context.Context, encodingInfo *audio.EncodingInfo) error {
	if !s.isConfigured() {
		return nil
	}

	s.encodingInfo = *encodingInfo
	if err := s.Transcribe(ctx, s.transcriptionOptions(ctx)...); err != nil {
		return LinkError{Service: "speech-to-text", Err: fmt.Errorf("failed to start transcribing: %w", err)}
	}

	return nil
}

func (s *speechToText) transcriptionOptions(ctx context.Context) []speechtotext.TranscriptionOption {
	return []speechtotext.TranscriptionOption{
		speechtotext.WithSpeechStartedCallback(s.invokeSpeechStarted),
		speechtotext.WithSpeechEndedCallback(s.invokeSpeechEnded),
		speechtotext.WithPartialInterimTranscriptionCallback(s.invokePartialInterimTranscription),
		speechtotext.WithInterimTranscriptionCallback(s.invokeInterimTranscription),
		speechtotext.WithPartialTranscriptionCallback(s.invokePartialTranscription),
		speechtotext.WithTranscriptionCallback(s.invokeTranscription),
		speechtotext.WithErrorCallback(func(err error) { s.onLinkError(ctx, err) }),
		speechtotext.WithEncodingInfo(s.encodingInfo),
	}
}

func (s *speechToText) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	if !s.isConfigured() {
		return nil
	}

	return s.client.Transcribe(ctx, opts...)
}

func (s *speechToText) SendAudio(audio []byte) error {
	if !s.isConfigured() {
		return nil
	}

	return s.client.SendAudio(audio)
}

func (s *speechToText) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	s.closed.Store(true)

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

func (s *speechToText) SetEventEmitter(emitEvent eventEmitter) {
	if s != nil {
		if emitEvent != nil {
			s.emitEvent = emitEvent
		} else {
			s.emitEvent = noopEventEmitter
		}
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}

// onLinkError counts consecutive link failures. A single error is reported
// and tolerated; hitting maxConsecutiveLinkErrors degrades the link and
// starts background reconnection.
func (s *speechToText) onLinkError(ctx context.Context, err error) {
	if s == nil || s.closed.Load() {
		return
	}

	linkErr := LinkError{Service: "speech-to-text", Err: err}
	logger.WarnContext(ctx, "Speech-to-text link error", "error", linkErr)
	linkErrorCounter.Add(ctx, 1)
	s.emitEvent(events.NewLinkError(linkErr))

	if errorCount := int(s.consecutiveErrors.Add(1)); errorCount >= maxConsecutiveLinkErrors {
		if s.reconnecting.CompareAndSwap(false, true) {
			s.emitEvent(events.NewLinkDegraded(errorCount))
			go s.reconnect(ctx)
		}
	}
}

// reconnect retries the transcription link with exponential backoff. Success
// resets the error count. Failing reconnectEscalationAttempts times escalates
// to a session error, but retries continue at the capped delay until the link
// recovers or the session closes; the transport boundary decides whether an
// escalated session is worth keeping.
func (s *speechToText) reconnect(ctx context.Context) {
	defer s.reconnecting.Store(false)

	delay := reconnectBaseDelay
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if s.closed.Load() {
			return
		}

		if err := s.Transcribe(ctx, s.transcriptionOptions(ctx)...); err != nil {
			logger.WarnContext(ctx, "Speech-to-text reconnect failed",
				"attempt", attempt, "error", err)
			if attempt == reconnectEscalationAttempts {
				s.emitEvent(events.NewSessionError(LinkError{
					Service: "speech-to-text",
					Err:     fmt.Errorf("link still down after %d reconnect attempts", attempt),
				}))
			}
			delay = min(delay*2, reconnectMaxDelay)
			continue
		}

		s.consecutiveErrors.Store(0)
		s.emitEvent(events.NewLinkReconnected(attempt))
		return
	}
}

func (s *speechToText) invokeSpeechStarted() {
	s.emitEvent(events.NewUserSpeechStarted())
}

func (s *speechToText) invokeSpeechEnded() {
	s.emitEvent(events.NewUserUtteranceEnded())
}

func (s *speechToText) invokeInterimTranscription(transcript string) {
	s.emitEvent(events.NewUserTranscriptInterimUpdated(transcript))
}

func (s *speechToText) invokePartialInterimTranscription(transcript string) {
	s.emitEvent(events.NewUserTranscriptInterimSegmentUpdated(transcript))
}

func (s *speechToText) invokePartialTranscription(transcript string) {
	s.emitEvent(events.NewUserTranscriptSegment(transcript))
}

func (s *speechToText) invokeTranscription(transcript string) {
	s.consecutiveErrors.Store(0)
	s.emitEvent(events.NewUserTranscriptInterimSegmentUpdated(""))
	s.emitEvent(events.NewUserTranscriptInterimUpdated(""))
	s.emitEvent(events.NewUserTranscriptFinal(transcript))
}
