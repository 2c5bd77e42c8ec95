package orchestration

import (
	"context"

	"github.com/miralabs/mira-core/core/audio"
	"github.com/miralabs/mira-core/core/conversations"
	"github.com/miralabs/mira-core/core/events"
	"github.com/miralabs/mira-core/core/interruptions"
	"github.com/miralabs/mira-core/core/llms"
	"github.com/miralabs/mira-core/core/speechtotext"
	"github.com/miralabs/mira-core/core/texttospeech"
)

type OrchestratorOption func(*Orchestrator)

type LLMWithStream interface {
	PromptWithStream(ctx context.Context, prompt *string, opts ...llms.PromptOption) llms.Stream
}

func WithStreamingLLM(client LLMWithStream) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm.set(client)
	}
}

type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speechToText.set(client)
	}
}

type TextToSpeech interface {
	NewSpeechGenerator(ctx context.Context, opts ...texttospeech.TextToSpeechOption) (texttospeech.SpeechGenerator, error)
}

func WithTextToSpeechClient(client TextToSpeech) OrchestratorOption {
	return func(o *Orchestrator) {
		o.textToSpeech.set(client)
	}
}

type AudioInput interface {
	audioInputBase
}

type AudioInputFine interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

func WithAudioInput(client AudioInput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput.Set(client) }
}

type AudioOutput interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	Mark(mark string, onPlayed func(mark string)) error
}

func WithAudioOutput(client AudioOutput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioOutput.Set(client) }
}

// WithInterruptionPolicy replaces the policy consulted when user speech
// arrives while a response is playing. Passing nil restores the default
// threshold policy.
func WithInterruptionPolicy(policy interruptions.Policy) OrchestratorOption {
	return func(o *Orchestrator) {
		if policy == nil {
			policy = interruptions.NewThresholdPolicy()
		}
		o.interruptionPolicy = policy
	}
}

// WithInstructions sets the system instructions prepended to every model
// context.
func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) { o.instructions = instructions }
}

// WithMemory attaches a long-term memory used to enrich the model context and
// persist completed turns.
func WithMemory(memory conversations.Memory) OrchestratorOption {
	return func(o *Orchestrator) { o.memory = memory }
}

// WithMaxTurns bounds how many conversation turns are retained and replayed
// into the model context.
func WithMaxTurns(maxTurns int) OrchestratorOption {
	return func(o *Orchestrator) {
		if maxTurns > 0 {
			o.maxTurns = maxTurns
		}
	}
}

type OrchestrateOptions struct {
	onTranscription               func(transcript string)
	onPartialTranscription        func(transcript string)
	onInterimTranscription        func(transcript string)
	onPartialInterimTranscription func(transcript string)
	onSpeakingStateChanged        func(isSpeaking bool)
	onResponse                    func(response string)
	onResponseEnd                 func()
	onCancellation                func()
	onInputAudio                  func(audio []byte)
	onAudio                       func(audio []byte)
	onPlaybackAudio               func(audio []byte)
	onAudioEnded                  func(transcript string)
	onSpokenText                  func(spokenText string)
	onSpokenTextDelta             func(spokenTextDelta string)
	onEvent                       func(event events.Event)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithTranscriptionCallback registers a callback for final transcriptions
// produced by the configured speech-to-text client.
//
// Prompts submitted through [Orchestrator.SendPrompt] do not trigger this
// callback.
func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscription = callback
	}
}

// WithPartialTranscriptionCallback registers a callback for finalized
// transcription segments produced by the configured speech-to-text client.
func WithPartialTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPartialTranscription = callback
	}
}

// WithInterimTranscriptionCallback registers a callback for interim
// transcriptions produced by the configured speech-to-text client.
func WithInterimTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onInterimTranscription = callback
	}
}

// WithPartialInterimTranscriptionCallback registers a callback for partial
// interim transcriptions produced by the configured speech-to-text client.
func WithPartialInterimTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPartialInterimTranscription = callback
	}
}

// WithSpeakingStateChangedCallback registers a callback for user
// speaking-state updates produced by the configured speech-to-text client.
func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpeakingStateChanged = callback
	}
}

func WithResponseCallback(callback func(response string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponse = callback
	}
}

func WithResponseEndCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponseEnd = callback
	}
}

func WithCancellationCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onCancellation = callback
	}
}

// WithAudioCallback registers a callback for audio chunks as they arrive from
// speech synthesis, before playback pacing.
func WithAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onAudio = callback
	}
}

// WithPlaybackAudioCallback registers a callback for audio chunks as they are
// handed to the audio output, paced by playback.
func WithPlaybackAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPlaybackAudio = callback
	}
}

func WithAudioEndedCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onAudioEnded = callback
	}
}

// WithSpokenTextCallback registers a callback for spoken-text progress updates.
//
// The callback receives mark-confirmed text plus a best-effort approximation of
// the current in-flight segment while audio is playing.
func WithSpokenTextCallback(callback func(spokenText string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpokenText = callback
	}
}

// WithSpokenTextDeltaCallback registers a callback for spoken-text deltas.
//
// The callback receives append-only incremental transcript segments. If
// playback progress regresses, a replacement segment is emitted instead.
func WithSpokenTextDeltaCallback(callback func(spokenTextDelta string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpokenTextDelta = callback
	}
}

// WithInputAudioCallback registers a callback for raw input audio chunks.
//
// The provided slice is passed through as-is (no defensive copy). Receivers
// can choose whether to process it immediately, copy it, or retain it. The
// callback runs inline on the input-audio path and should not block.
func WithInputAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onInputAudio = callback
	}
}

// WithEventCallback registers a callback that receives every event the
// orchestrator emits, including kinds that have no dedicated callback. The
// callback runs inline on emitting goroutines and should not block.
func WithEventCallback(callback func(event events.Event)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onEvent = callback
	}
}

type audioInputBase interface {
	EncodingInfo() audio.EncodingInfo
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	Close()
}
