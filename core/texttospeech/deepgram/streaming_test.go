package deepgram

import (
	"testing"

	"github.com/miralabs/mira-core/core/texttospeech"
)

func newTestRequest(opts ...texttospeech.TextToSpeechOption) *streamingRequest {
	req := &streamingRequest{
		options: streamingRequestOptions{
			TextToSpeechOptions: texttospeech.TextToSpeechOptions{
				SpeechAudioCallback: func([]byte) {},
				SpeechMarkCallback:  func(string) {},
				SpeechEndedCallback: func(texttospeech.SpeechEndedReport) {},
				ErrorCallback:       func(error) {},
			},
		},
	}
	for _, opt := range opts {
		opt(&req.options.TextToSpeechOptions)
	}
	return req
}

func TestStreamingRequestRejectsTextAfterEndOfText(t *testing.T) {
	req := newTestRequest()

	if err := req.EndOfText(); err != nil {
		t.Fatalf("expected end of text to succeed, got %v", err)
	}
	if err := req.SendText("more"); err == nil {
		t.Fatalf("expected send after end of text to error")
	}
	if err := req.Mark(); err == nil {
		t.Fatalf("expected mark after end of text to error")
	}
}

func TestStreamingRequestEndOfTextWithoutPendingTextEndsSpeech(t *testing.T) {
	ended := 0
	req := newTestRequest(
		texttospeech.WithSpeechEndedCallback(func(texttospeech.SpeechEndedReport) { ended++ }),
	)

	if err := req.EndOfText(); err != nil {
		t.Fatalf("expected end of text to succeed, got %v", err)
	}
	if ended != 1 {
		t.Fatalf("expected speech-ended callback once, got %d", ended)
	}
	if !req.closed {
		t.Fatalf("expected request to close itself")
	}
}

func TestStreamingRequestCloseIsIdempotent(t *testing.T) {
	req := newTestRequest()

	if err := req.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if err := req.Close(); err != nil {
		t.Fatalf("expected repeated close to be ignored, got %v", err)
	}
	if err := req.Cancel(); err == nil {
		t.Fatalf("expected cancel after close to error")
	}
}

func TestStreamingRequestFlushedAdvancesMarks(t *testing.T) {
	var marks []string
	ended := 0
	req := newTestRequest(
		texttospeech.WithSpeechMarkCallback(func(mark string) { marks = append(marks, mark) }),
		texttospeech.WithSpeechEndedCallback(func(texttospeech.SpeechEndedReport) { ended++ }),
	)

	req.textBuffer = []string{"first sentence", "second sentence"}
	req.textComplete = true

	req.onFlushed()
	if len(marks) != 1 || marks[0] != "first sentence" {
		t.Fatalf("expected first mark after flush, got %v", marks)
	}
	if ended != 0 {
		t.Fatalf("expected speech not ended while text is pending")
	}

	req.onFlushed()
	if len(marks) != 2 || marks[1] != "second sentence" {
		t.Fatalf("expected second mark after flush, got %v", marks)
	}
	if ended != 1 {
		t.Fatalf("expected speech-ended callback once, got %d", ended)
	}
}
