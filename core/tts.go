package orchestration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/miralabs/mira-core/core/audio"
	"github.com/miralabs/mira-core/core/texttospeech"
)

type textToSpeech struct {
	// client creates per-turn speech generators.
	client TextToSpeech

	// generator is the per-turn speech generator, set once by init.
	generator texttospeech.SpeechGenerator

	// initialized closes when init completes so workers can safely proceed.
	initialized chan struct{}
	// initOnce ensures per-turn initialization is executed once.
	initOnce sync.Once
	// initErr stores the one-time initialization result.
	initErr error

	generatorMu sync.RWMutex
	// connected reports whether a speech generator was initialized.
	connected atomic.Bool
	// closeStarted makes Close idempotent under concurrent shutdown paths.
	closeStarted atomic.Bool

	// isMuted indicates whether synthesized speech is currently passed to
	// audio output.
	isMuted atomic.Bool

	// onAudio is called when a speech chunk is forwarded to output processing.
	onAudio func([]byte)
}

func newTextToSpeech(client TextToSpeech, isMuted bool) *textToSpeech {
	textToSpeech := textToSpeech{
		client:      client,
		initialized: make(chan struct{}),
		onAudio:     func([]byte) {},
	}
	textToSpeech.isMuted.Store(isMuted)
	return &textToSpeech
}

func (t *textToSpeech) set(client TextToSpeech) {
	if t == nil {
		return
	}
	t.client = client
}

func (t *textToSpeech) Snapshot() *textToSpeech {
	if t == nil {
		return t
	}

	snapshot := newTextToSpeech(t.client, t.isMuted.Load())
	snapshot.SetCallbacks(t.onAudio)
	return snapshot
}

func (t *textToSpeech) SetCallbacks(onAudio func([]byte)) {
	if t == nil {
		return
	}

	if onAudio != nil {
		t.onAudio = onAudio
	}
}

// init creates the per-turn speech generator wired into the speech player.
// Safe to call from multiple workers; only the first call does the work.
func (t *textToSpeech) init(ctx context.Context, speechPlayer *speechPlayer, encodingInfo audio.EncodingInfo, onLinkError func(error)) error {
	if t == nil {
		return nil
	}

	t.initOnce.Do(func() {
		defer close(t.initialized)
		t.connected.Store(false)
		if t.closeStarted.Load() || t.client == nil {
			return
		}

		ttsOptions := []texttospeech.TextToSpeechOption{
			texttospeech.WithSpeechAudioCallback(func(audio []byte) {
				speechPlayer.AddAudioChunk(audio)
				t.onAudio(audio)
			}),
			texttospeech.WithSpeechMarkCallback(speechPlayer.AddAudioMark),
			texttospeech.WithSpeechEndedCallback(func(texttospeech.SpeechEndedReport) {
				speechPlayer.AllAudioLoaded()
			}),
			texttospeech.WithEncodingInfo(encodingInfo),
		}
		if onLinkError != nil {
			ttsOptions = append(ttsOptions, texttospeech.WithErrorCallback(onLinkError))
		}

		speechGenerator, err := t.client.NewSpeechGenerator(ctx, ttsOptions...)
		if err != nil {
			t.initErr = LinkError{Service: "text-to-speech", Err: fmt.Errorf("failed to create speech generator: %w", err)}
			return
		}
		if t.closeStarted.Load() {
			_ = speechGenerator.Close()
			return
		}
		t.generatorMu.Lock()
		if t.closeStarted.Load() {
			t.generatorMu.Unlock()
			_ = speechGenerator.Close()
			return
		}
		t.generator = speechGenerator
		t.generatorMu.Unlock()
		t.connected.Store(true)
	})

	return t.initErr
}

func (t *textToSpeech) waitUntilInitialized(ctx context.Context) bool {
	if t != nil && t.initialized != nil {
		select {
		case <-t.initialized:
			return t.connected.Load()
		case <-ctx.Done():
			return false
		}
	}
	return false
}

func (t *textToSpeech) IsConnected() bool { return t != nil && t.connected.Load() }

func (t *textToSpeech) Close(ctx context.Context) error {
	if t == nil {
		return nil
	}

	if !t.closeStarted.CompareAndSwap(false, true) {
		return nil
	}

	t.generatorMu.Lock()
	generator := t.generator
	t.generator = nil
	t.connected.Store(false)
	t.generatorMu.Unlock()

	if generator == nil {
		return nil
	}

	if err := generator.Close(); err != nil {
		return fmt.Errorf("failed to close speech generator: %w", err)
	}

	return nil
}

func (t *textToSpeech) currentGenerator() texttospeech.SpeechGenerator {
	if t == nil {
		return nil
	}

	t.generatorMu.RLock()
	defer t.generatorMu.RUnlock()
	return t.generator
}

func (t *textToSpeech) SendText(text string) error {
	generator := t.currentGenerator()
	if generator == nil {
		return nil
	}

	if err := generator.SendText(text); err != nil {
		return fmt.Errorf("failed to send text to tts: %w", err)
	}

	return nil
}

func (t *textToSpeech) Mark() error {
	generator := t.currentGenerator()
	if generator == nil {
		return nil
	}

	if err := generator.Mark(); err != nil {
		return fmt.Errorf("failed to send mark to tts: %w", err)
	}

	return nil
}

func (t *textToSpeech) EndOfText() error {
	generator := t.currentGenerator()
	if generator == nil {
		return nil
	}

	if err := generator.Mark(); err != nil {
		return fmt.Errorf("failed to send closing mark to tts: %w", err)
	}
	if err := generator.EndOfText(); err != nil {
		return fmt.Errorf("failed to send end of text to tts: %w", err)
	}

	return nil
}

func (t *textToSpeech) Cancel() error {
	generator := t.currentGenerator()
	if generator == nil {
		return nil
	}

	if err := generator.Cancel(); err != nil {
		return fmt.Errorf("failed to cancel tts: %w", err)
	}

	return nil
}

func (t *textToSpeech) IsMuted() bool { return t != nil && t.isMuted.Load() }

func (t *textToSpeech) Mute() {
	if t != nil {
		t.isMuted.Store(true)
	}
}

func (t *textToSpeech) Unmute() {
	if t != nil {
		t.isMuted.Store(false)
	}
}
