package orchestration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/miralabs/mira-core/core/conversations"
	"github.com/miralabs/mira-core/core/events"
	"github.com/miralabs/mira-core/core/interruptions"
	"go.opentelemetry.io/otel/codes"
)

// Orchestrator wires audio capture, speech-to-text, response generation,
// speech synthesis and playback into a single spoken conversation. Configure
// it through options, then call Orchestrate to start the session.
//
// All exported methods are safe for concurrent use and are no-ops on a nil
// receiver.
type Orchestrator struct {
	id string

	state     atomic.Int32
	speaking  atomic.Bool
	closeOnce sync.Once

	runtime          *conversationRuntime
	responsePipeline atomic.Pointer[responsePipeline]

	llm          llm
	speechToText *speechToText
	textToSpeech *textToSpeech
	audioInput   *audioInput
	audioOutput  *audioOutput
	speechPlayer *speechPlayer

	window         *conversations.Window
	contextBuilder *conversations.ContextBuilder
	memory         conversations.Memory
	instructions   string
	maxTurns       int

	interruptionPolicy interruptions.Policy

	emitEvent          eventEmitter
	orchestrateOptions OrchestrateOptions
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		id:                 uuid.NewString(),
		runtime:            newConversationRuntime(),
		llm:                newLLM(),
		speechToText:       newSpeechToText(nil),
		textToSpeech:       newTextToSpeech(nil, false),
		audioOutput:        newAudioOutput(nil),
		speechPlayer:       newSpeechPlayer(),
		maxTurns:           conversations.DefaultMaxTurns,
		interruptionPolicy: interruptions.NewThresholdPolicy(),
		emitEvent:          noopEventEmitter,
	}
	o.audioInput = newAudioInput(nil, func(audio []byte) {
		o.emitEvent(events.NewUserAudioFrame(audio))
		if err := o.speechToText.SendAudio(audio); err != nil {
			logger.Warn("failed to forward captured audio to speech-to-text", "error", err)
		}
	})
	o.state.Store(int32(StateIdle))

	for _, opt := range opts {
		opt(o)
	}

	o.window = conversations.NewWindow(conversations.WithMaxTurns(o.maxTurns))

	return o
}

// ID returns the session identifier assigned at construction.
func (o *Orchestrator) ID() string {
	if o == nil {
		return ""
	}
	return o.id
}

// Orchestrate starts the conversation session: it connects the configured
// speech-to-text link, begins audio capture, and starts consuming queued user
// input. It returns once the session is up; processing continues in the
// background until Close is called or ctx is cancelled.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) error {
	if o == nil {
		return fmt.Errorf("orchestrator is required")
	}
	if o.runtime.isEnded() {
		return fmt.Errorf("conversation is closed")
	}

	ctx, span := tracer.Start(ctx, "orchestrate conversation")
	defer span.End()

	for _, opt := range opts {
		opt(&o.orchestrateOptions)
	}
	o.emitEvent = newCallbackEventEmitter(o.orchestrateOptions)

	o.contextBuilder = conversations.NewContextBuilder(
		conversations.WithInstructions(o.instructions),
		conversations.WithMemory(o.memory),
		conversations.WithContextMaxTurns(o.maxTurns),
	)

	o.llm.setResponseCallbacks(
		func(segment string) { o.emitEvent(events.NewAssistantResponseSegment(segment)) },
		func(response string) { o.emitEvent(events.NewAssistantResponseFinal(response)) },
	)
	o.speechPlayer.SetCallbacks(func(transcript string) {
		o.emitEvent(events.NewAssistantPlaybackEnded(transcript))
	})
	o.speechPlayer.SetSpokenTextCallback(func(spokenText string) {
		o.emitEvent(events.NewAssistantPlaybackTranscriptUpdated(spokenText))
	})
	o.speechPlayer.SetSpokenTextDeltaCallback(o.orchestrateOptions.onSpokenTextDelta)
	o.textToSpeech.SetCallbacks(func(audio []byte) {
		o.emitEvent(events.NewAssistantSpeechFrame(audio))
	})
	o.audioInput.SetDeviceErrorCallback(func(err error) {
		o.emitEvent(events.NewSessionError(err))
	})
	o.speechToText.SetEventEmitter(o.routeUserEvent)

	o.runtime.start(o)
	go func() {
		select {
		case <-ctx.Done():
			o.Close(context.WithoutCancel(ctx))
		case <-o.runtime.closeCh:
		}
	}()

	if o.speechToText.isConfigured() {
		encodingInfo := o.audioInput.EncodingInfo()
		if err := o.speechToText.Start(ctx, &encodingInfo); err != nil {
			err = fmt.Errorf("failed to start transcription: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.emitEvent(events.NewSessionError(err))
			return err
		}
	}

	o.audioInput.Start(ctx)

	o.setState(StateListening)
	o.emitEvent(events.NewSessionReady(o.id))

	return nil
}

// routeUserEvent fans user-side events out to callbacks and reacts to them:
// speech activity consults the interruption policy, final transcripts are
// queued for turn processing.
func (o *Orchestrator) routeUserEvent(event events.Event) {
	o.emitEvent(event)

	switch event := event.(type) {
	case events.UserSpeechStarted:
		o.maybeInterrupt(interruptions.Signal{SpeechStarted: true})
	case events.UserTranscriptInterimUpdated:
		o.maybeInterrupt(interruptions.Signal{PartialText: event.Transcript})
	case events.UserTranscriptFinal:
		// Blocks when the queue is full; enqueue only fails once the
		// conversation is closed.
		if err := o.runtime.enqueue(event); err != nil {
			logger.Warn("discarding transcript after close", "error", err)
		}
	}
}

func (o *Orchestrator) maybeInterrupt(signal interruptions.Signal) {
	// User speech only counts as a barge-in while response audio is
	// playing; before first audio (or on a muted turn) the response runs to
	// completion and the transcript queues behind it.
	if !o.speaking.Load() {
		return
	}

	pipeline := o.responsePipeline.Load()
	if pipeline == nil || pipeline.IsCancelled() || o.interruptionPolicy == nil {
		return
	}

	if o.interruptionPolicy.ShouldInterrupt(o.runtime.baseContext, signal) {
		pipeline.Cancel()
	}
}

// SendAudio feeds an audio chunk into the conversation as if it had been
// captured from the input device.
func (o *Orchestrator) SendAudio(audio []byte) error {
	if o == nil {
		return fmt.Errorf("orchestrator is required")
	}

	o.emitEvent(events.NewUserAudioFrame(audio))
	return o.speechToText.SendAudio(audio)
}

// SendPrompt queues a text prompt for processing, bypassing transcription. It
// may be called before Orchestrate; the prompt is held until the session
// starts.
func (o *Orchestrator) SendPrompt(prompt string) error {
	if o == nil {
		return fmt.Errorf("orchestrator is required")
	}

	event := events.NewUserPromptSubmitted(prompt)
	if err := o.runtime.enqueue(event); err != nil {
		return err
	}
	o.emitEvent(event)

	return nil
}

// CancelTurn interrupts the in-flight response, if any. Playback stops, the
// exchange is not committed to history, and the spoken portion of the
// response is reported through the cancellation event.
func (o *Orchestrator) CancelTurn() {
	if o == nil {
		return
	}

	o.responsePipeline.Load().Cancel()
}

// PauseTurn pauses playback of the in-flight response. Synthesis continues in
// the background; UnpauseTurn resumes from the last confirmed mark.
func (o *Orchestrator) PauseTurn() {
	if o == nil {
		return
	}

	o.responsePipeline.Load().Pause()
}

func (o *Orchestrator) UnpauseTurn() {
	if o == nil {
		return
	}

	o.responsePipeline.Load().Unpause()
}

// Mute suppresses playback of synthesized speech. Generation still runs, so
// the transcript and history are unaffected.
func (o *Orchestrator) Mute() {
	if o == nil {
		return
	}

	o.textToSpeech.Mute()
	if pipeline := o.responsePipeline.Load(); pipeline != nil {
		pipeline.textToSpeech.Mute()
	}
}

func (o *Orchestrator) Unmute() {
	if o == nil {
		return
	}

	o.textToSpeech.Unmute()
	if pipeline := o.responsePipeline.Load(); pipeline != nil {
		pipeline.textToSpeech.Unmute()
	}
}

func (o *Orchestrator) IsMuted() bool {
	if o == nil {
		return false
	}

	return o.textToSpeech.IsMuted()
}

// State reports the conversation state: idle before Orchestrate and after
// Close, listening between turns, responding while a turn is in flight.
func (o *Orchestrator) State() State {
	if o == nil {
		return StateIdle
	}

	return State(o.state.Load())
}

func (o *Orchestrator) setState(state State) {
	if o == nil {
		return
	}

	o.state.Store(int32(state))
}

// IsSpeaking reports whether response audio is currently playing.
func (o *Orchestrator) IsSpeaking() bool {
	return o != nil && o.speaking.Load()
}

func (o *Orchestrator) setSpeaking(speaking bool) {
	if o == nil {
		return
	}

	o.speaking.Store(speaking)
}

// History returns a copy of the committed conversation history, oldest first.
// Cancelled and failed turns are not included.
func (o *Orchestrator) History() []conversations.Turn {
	if o == nil {
		return nil
	}

	return o.window.Turns()
}

func (o *Orchestrator) StartRecording(ctx context.Context) error {
	if o == nil {
		return fmt.Errorf("orchestrator is required")
	}

	return o.audioInput.RequestCapture(ctx)
}

func (o *Orchestrator) StopRecording(ctx context.Context) error {
	if o == nil {
		return fmt.Errorf("orchestrator is required")
	}

	return o.audioInput.ReleaseCapture(ctx)
}

func (o *Orchestrator) EnableAlwaysRecording(ctx context.Context) error {
	if o == nil {
		return fmt.Errorf("orchestrator is required")
	}

	return o.audioInput.EnableAlwaysCapture(ctx)
}

func (o *Orchestrator) DisableAlwaysRecording(ctx context.Context) error {
	if o == nil {
		return fmt.Errorf("orchestrator is required")
	}

	return o.audioInput.DisableAlwaysCapture(ctx)
}

func (o *Orchestrator) IsAlwaysRecording() bool {
	return o != nil && o.audioInput.IsAlwaysRecording()
}

// Close ends the session: the in-flight turn is cancelled, audio capture and
// service links are shut down, and queued input is discarded. Close is
// idempotent.
func (o *Orchestrator) Close(ctx context.Context) {
	if o == nil {
		return
	}

	o.closeOnce.Do(func() {
		ctx, span := tracer.Start(ctx, "close conversation")
		defer span.End()

		o.runtime.end()
		o.responsePipeline.Load().Cancel()

		if err := o.audioInput.Close(); err != nil {
			err = fmt.Errorf("failed to close audio input: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if err := o.speechToText.Close(ctx); err != nil {
			err = fmt.Errorf("failed to close transcription: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		o.runtime.waitUntilEnded(ctx)

		o.setState(StateIdle)
		o.emitEvent(events.NewSessionClosed())
	})
}
