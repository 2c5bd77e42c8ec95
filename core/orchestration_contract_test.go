package orchestration

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miralabs/mira-core/core/audio"
)

func TestResponseEndCallbackFiresWithoutLLM(t *testing.T) {
	o := NewOrchestrator()
	defer o.Close(context.Background())

	responseEnded := make(chan struct{}, 1)
	responseEndCalls := atomic.Int32{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithResponseEndCallback(func() {
		if responseEndCalls.Add(1) == 1 {
			select {
			case responseEnded <- struct{}{}:
			default:
			}
		}
	}))

	o.SendPrompt("no llm configured")

	select {
	case <-responseEnded:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for response end callback")
	}

	time.Sleep(50 * time.Millisecond)
	if got := responseEndCalls.Load(); got != 1 {
		t.Fatalf("expected one response end callback, got %d", got)
	}
}

func TestSendPromptDoesNotTriggerTranscriptionCallback(t *testing.T) {
	o := NewOrchestrator()
	defer o.Close(context.Background())

	transcriptionCalls := atomic.Int32{}
	responseEnded := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx,
		WithTranscriptionCallback(func(string) {
			transcriptionCalls.Add(1)
		}),
		WithResponseEndCallback(func() {
			select {
			case responseEnded <- struct{}{}:
			default:
			}
		}),
	)

	o.SendPrompt("typed, not spoken")

	select {
	case <-responseEnded:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for prompt turn processing")
	}

	time.Sleep(50 * time.Millisecond)
	if got := transcriptionCalls.Load(); got != 0 {
		t.Fatalf("expected prompt to skip transcription callback, got %d callback calls", got)
	}
}

func TestWithInputAudioCallbackReceivesInputAudio(t *testing.T) {
	expected := [][]byte{{0x01, 0x02}, {0x03, 0x04}}

	o := NewOrchestrator(WithAudioInput(&scriptedAudioInputClient{chunks: expected}))
	defer o.Close(context.Background())

	received := make(chan []byte, len(expected))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithInputAudioCallback(func(audio []byte) {
		copied := append([]byte(nil), audio...)
		select {
		case received <- copied:
		default:
		}
	}))

	for i, want := range expected {
		select {
		case got := <-received:
			if !bytes.Equal(got, want) {
				t.Fatalf("expected audio chunk %d to be %v, got %v", i, want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for audio chunk %d", i)
		}
	}
}

type scriptedAudioInputClient struct {
	chunks [][]byte
}

func (s *scriptedAudioInputClient) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (s *scriptedAudioInputClient) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	for _, chunk := range s.chunks {
		select {
		case <-ctx.Done():
			return nil
		default:
			onAudio(chunk)
		}
	}

	return nil
}

func (s *scriptedAudioInputClient) Close() {}
