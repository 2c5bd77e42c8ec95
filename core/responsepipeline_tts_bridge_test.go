package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miralabs/mira-core/core/audio"
	"github.com/miralabs/mira-core/core/texttospeech"
)

func TestResponsePipelineBridgesTTSEventsToSpeechPlayerAndAudioOutput(t *testing.T) {
	output := &bridgeAudioOutputStub{}
	o := NewOrchestrator(
		WithStreamingLLM(scriptedStreamLLMStub{chunks: []string{"bridge coverage."}}),
		WithTextToSpeechClient(&bridgeTTSStub{}),
		WithAudioOutput(output),
	)
	defer o.Close(context.Background())

	responseEnded := make(chan struct{}, 1)
	var callbackAudioChunks atomic.Int32
	var callbackPlaybackAudioChunks atomic.Int32
	spokenText := atomic.Value{}
	spokenText.Store("")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx,
		WithAudioCallback(func(audio []byte) {
			if len(audio) > 0 {
				callbackAudioChunks.Add(1)
			}
		}),
		WithPlaybackAudioCallback(func(audio []byte) {
			if len(audio) > 0 {
				callbackPlaybackAudioChunks.Add(1)
			}
		}),
		WithSpokenTextCallback(func(text string) {
			spokenText.Store(text)
		}),
		WithResponseEndCallback(func() {
			select {
			case responseEnded <- struct{}{}:
			default:
			}
		}),
	)

	o.SendPrompt("bridge prompt")

	select {
	case <-responseEnded:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for response end callback")
	}

	waitForCondition(t, 2*time.Second, "tts bridge audio output", func() bool {
		return output.nonEmptyAudioChunks() > 0
	})

	if got := callbackAudioChunks.Load(); got == 0 {
		t.Fatalf("expected WithAudioCallback to receive bridged tts audio")
	}
	waitForCondition(t, 2*time.Second, "playback audio callback", func() bool {
		return callbackPlaybackAudioChunks.Load() > 0
	})
	waitForCondition(t, 2*time.Second, "bridged marks to reach audio output", func() bool {
		return output.marks() > 0
	})
	waitForCondition(t, 2*time.Second, "spoken text to advance past confirmed mark", func() bool {
		return spokenText.Load() == "bridge coverage."
	})
}

type bridgeTTSStub struct{}

func (stub *bridgeTTSStub) NewSpeechGenerator(
	ctx context.Context,
	opts ...texttospeech.TextToSpeechOption,
) (texttospeech.SpeechGenerator, error) {
	_ = stub
	_ = ctx
	config := texttospeech.TextToSpeechOptions{}
	for _, opt := range opts {
		opt(&config)
	}

	return &bridgeSpeechGeneratorStub{config: config}, nil
}

type bridgeSpeechGeneratorStub struct {
	mu      sync.Mutex
	config  texttospeech.TextToSpeechOptions
	pending strings.Builder
	closed  bool
}

func (stub *bridgeSpeechGeneratorStub) SendText(text string) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()

	if stub.closed {
		return fmt.Errorf("generator already closed")
	}

	stub.pending.WriteString(text)
	if stub.config.SpeechAudioCallback != nil {
		stub.config.SpeechAudioCallback([]byte(text))
	}

	return nil
}

func (stub *bridgeSpeechGeneratorStub) Mark() error {
	stub.mu.Lock()
	defer stub.mu.Unlock()

	if stub.closed {
		return fmt.Errorf("generator already closed")
	}

	if stub.config.SpeechMarkCallback != nil {
		stub.config.SpeechMarkCallback(stub.pending.String())
	}
	stub.pending.Reset()

	return nil
}

func (stub *bridgeSpeechGeneratorStub) EndOfText() error {
	stub.mu.Lock()
	defer stub.mu.Unlock()

	if stub.closed {
		return fmt.Errorf("generator already closed")
	}

	if stub.pending.Len() > 0 && stub.config.SpeechMarkCallback != nil {
		stub.config.SpeechMarkCallback(stub.pending.String())
		stub.pending.Reset()
	}
	if stub.config.SpeechEndedCallback != nil {
		stub.config.SpeechEndedCallback(texttospeech.SpeechEndedReport{})
	}

	return nil
}

func (stub *bridgeSpeechGeneratorStub) Cancel() error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.closed = true
	return nil
}

func (stub *bridgeSpeechGeneratorStub) Close() error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.closed = true
	return nil
}

type bridgeAudioOutputStub struct {
	mu         sync.Mutex
	audio      [][]byte
	markCount  int
	clearCount int
}

func (output *bridgeAudioOutputStub) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (output *bridgeAudioOutputStub) SendAudio(audio []byte) error {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.audio = append(output.audio, append([]byte(nil), audio...))
	return nil
}

func (output *bridgeAudioOutputStub) ClearBuffer() {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.clearCount++
}

func (output *bridgeAudioOutputStub) Mark(mark string, callback func(string)) error {
	output.mu.Lock()
	output.markCount++
	output.mu.Unlock()

	callback(mark)
	return nil
}

func (output *bridgeAudioOutputStub) nonEmptyAudioChunks() int {
	output.mu.Lock()
	defer output.mu.Unlock()

	nonEmpty := 0
	for _, chunk := range output.audio {
		if len(chunk) > 0 {
			nonEmpty++
		}
	}

	return nonEmpty
}

func (output *bridgeAudioOutputStub) marks() int {
	output.mu.Lock()
	defer output.mu.Unlock()
	return output.markCount
}
