// Package deepgram implements streaming transcription over the Deepgram
// listen v1 websocket.
package deepgram

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

const (
	defaultModel              = "nova-3"
	defaultLanguage           = "en-US"
	defaultUtteranceSilenceMs = 1000
	defaultEndpointingMs      = 300
)

type TranscriptionClient struct {
	config transcriptionConfig

	conn   *websocket.Conn
	connMu sync.Mutex

	// lastMsgNanos is the unix-nano timestamp of the last caller-sent audio
	// write. Read by the silence generator goroutine.
	lastMsgNanos atomic.Int64
	closeOnce    sync.Once

	accumulatedTranscript string
	unendedSegment        bool
}

type transcriptionConfig struct {
	model              string
	language           string
	smartFormatting    bool
	utteranceSilenceMs int
	endpointingMs      int
}

type TranscriptionClientOption func(*transcriptionConfig)

func WithModel(model string) TranscriptionClientOption {
	return func(c *transcriptionConfig) {
		c.model = model
	}
}

func WithLanguage(language string) TranscriptionClientOption {
	return func(c *transcriptionConfig) {
		c.language = language
	}
}

func WithSmartFormatting(enabled bool) TranscriptionClientOption {
	return func(c *transcriptionConfig) {
		c.smartFormatting = enabled
	}
}

// WithUtteranceSilence sets how long a silence ends an utterance. Values
// below 0 are ignored.
func WithUtteranceSilence(milliseconds int) TranscriptionClientOption {
	return func(c *transcriptionConfig) {
		if milliseconds >= 0 {
			c.utteranceSilenceMs = milliseconds
		}
	}
}

// WithEndpointing sets the service's endpointing window. Values below 0 are
// ignored.
func WithEndpointing(milliseconds int) TranscriptionClientOption {
	return func(c *transcriptionConfig) {
		if milliseconds >= 0 {
			c.endpointingMs = milliseconds
		}
	}
}

func NewTranscriptionClient(opts ...TranscriptionClientOption) *TranscriptionClient {
	config := transcriptionConfig{
		model:              defaultModel,
		language:           defaultLanguage,
		smartFormatting:    true,
		utteranceSilenceMs: defaultUtteranceSilenceMs,
		endpointingMs:      defaultEndpointingMs,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &TranscriptionClient{config: config}
}
