package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miralabs/mira-core/core/events"
	"github.com/miralabs/mira-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// responseMarkBoundaryChars are the characters that end a spoken-text segment
// and trigger a synthesis mark.
const responseMarkBoundaryChars = ".?!"

// responsePipeline drives one assistant turn: response generation, speech
// synthesis, and playback run as three concurrent workers connected through
// the speech player's buffers.
type responsePipeline struct {
	ctxMu sync.RWMutex
	ctx   context.Context

	llm          llm
	textToSpeech *textToSpeech
	speechPlayer *speechPlayer
	audioOutput  *audioOutput

	emitEvent eventEmitter

	// setSpeaking reports playback state changes back to the orchestrator.
	setSpeaking func(bool)
	// onPlaybackAudio is called for each chunk handed to the audio output.
	onPlaybackAudio func([]byte)
	// onCancel is called once when the pipeline is cancelled, with the text
	// confirmed as spoken before cancellation.
	onCancel func(spokenText string)

	startedAt  time.Time
	firstAudio sync.Once

	// responseText is written by the generation worker before Run's
	// WaitGroup completes, so Run can read it without extra locking.
	responseText string

	cancelled atomic.Bool
}

type responsePipelineConfig struct {
	llm             llm
	textToSpeech    *textToSpeech
	speechPlayer    *speechPlayer
	audioOutput     *audioOutput
	emitEvent       eventEmitter
	setSpeaking     func(bool)
	onPlaybackAudio func([]byte)
	onCancel        func(spokenText string)
}

func newResponsePipeline(config responsePipelineConfig) *responsePipeline {
	pipeline := &responsePipeline{
		llm:             config.llm,
		textToSpeech:    config.textToSpeech,
		speechPlayer:    config.speechPlayer,
		audioOutput:     config.audioOutput,
		emitEvent:       config.emitEvent,
		setSpeaking:     config.setSpeaking,
		onPlaybackAudio: config.onPlaybackAudio,
		onCancel:        config.onCancel,
	}
	if pipeline.emitEvent == nil {
		pipeline.emitEvent = noopEventEmitter
	}
	if pipeline.setSpeaking == nil {
		pipeline.setSpeaking = func(bool) {}
	}
	if pipeline.onPlaybackAudio == nil {
		pipeline.onPlaybackAudio = func([]byte) {}
	}
	pipeline.speechPlayer.InitBuffers(pipeline.audioOutput.EncodingInfo(), responseMarkBoundaryChars)
	return pipeline
}

func (p *responsePipeline) Run(ctx context.Context, messages []llms.Message) (string, error) {
	if p == nil {
		return "", fmt.Errorf("response pipeline is required")
	}

	p.ctxMu.Lock()
	p.ctx = ctx
	p.ctxMu.Unlock()
	p.startedAt = time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var workerErr error
	workerErrMu := sync.Mutex{}
	addWorkerErr := func(err error) {
		if err == nil {
			return
		}
		workerErrMu.Lock()
		workerErr = errors.Join(workerErr, err)
		workerErrMu.Unlock()
	}

	run := func(name string, f func(context.Context) error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				addWorkerErr(fmt.Errorf("%s worker panicked: %v", name, recovered))
				cancel()
			}
		}()

		if err := f(ctx); err != nil {
			addWorkerErr(fmt.Errorf("%s worker failed: %w", name, err))
			cancel()
		}
	}

	wg := &sync.WaitGroup{}
	wg.Add(3)
	go func() {
		defer wg.Done()
		run("llm generation", func(ctx context.Context) error {
			return p.generateLLM(ctx, messages)
		})
	}()
	go func() {
		defer wg.Done()
		run("response text processing", p.processResponseText)
	}()
	go func() {
		defer wg.Done()
		run("speech processing", p.processSpeech)
	}()

	wg.Wait()

	finaliseErr := func() (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("pipeline finalise panicked: %v", recovered)
			}
		}()

		p.Close()
		return nil
	}()
	addWorkerErr(finaliseErr)

	if workerErr != nil {
		return p.responseText, fmt.Errorf("one or more turn processes failed: %w", workerErr)
	}

	return p.responseText, nil
}

func (p *responsePipeline) generateLLM(ctx context.Context, messages []llms.Message) error {
	ctx, span := tracer.Start(ctx, "generate llm")
	defer span.End()

	response, err := p.llm.generate(ctx, messages, p.speechPlayer.AddTextChunk, p.IsCancelled)
	p.speechPlayer.TextComplete()
	if err != nil && !errors.Is(err, ErrTurnCancelled) {
		err := fmt.Errorf("failed to generate llm response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	p.responseText = response
	return nil
}

func (p *responsePipeline) processResponseText(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.speechPlayer.ClearText()
		case <-done:
		}
	}()

	_, span := tracer.Start(ctx, "passing text to tts")
	defer span.End()

	if err := p.textToSpeech.init(ctx, p.speechPlayer, p.audioOutput.EncodingInfo(), func(err error) {
		linkErrorCounter.Add(ctx, 1)
		p.emitEvent(events.NewLinkError(LinkError{Service: "text-to-speech", Err: err}))
	}); err != nil {
		// Degrade to a text-only turn rather than failing response
		// generation.
		span.RecordError(err)
		p.emitEvent(events.NewLinkError(err))
	}

textLoop:
	for textOrMark := range p.speechPlayer.TextOrMarks {
		if p.IsCancelled() {
			break textLoop
		}

		switch textOrMark.Type {
		case textOrMarkTypeText:
			if err := p.textToSpeech.SendText(textOrMark.Text); err != nil {
				span.RecordError(fmt.Errorf("failed to send text to tts: %w", err))
			}
		case textOrMarkTypeMark:
			if err := p.textToSpeech.Mark(); err != nil {
				span.RecordError(fmt.Errorf("failed to send mark to tts: %w", err))
			}
		}
	}

	if err := p.textToSpeech.EndOfText(); err != nil {
		span.RecordError(fmt.Errorf("failed to end of text to tts: %w", err))
	}

	return nil
}

func (p *responsePipeline) processSpeech(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			p.speechPlayer.StopAudio()
		case <-done:
		}
	}()

	if ok := p.textToSpeech.waitUntilInitialized(ctx); !ok {
		return nil
	}
	if !p.textToSpeech.IsConnected() {
		return nil
	}

	_, span := tracer.Start(ctx, "passing speech to audio output")
	defer span.End()

bufferReadingLoop:
	for audioOrMark := range p.speechPlayer.Audio {
		switch audioOrMark.Type {
		case "audio":
			audio := audioOrMark.Audio

			if p.textToSpeech.IsMuted() || p.IsCancelled() {
				p.audioOutput.Clear()
				break bufferReadingLoop
			}

			p.firstAudio.Do(func() {
				p.setSpeaking(true)
				p.emitEvent(events.NewAssistantPlaybackStarted())
				timeToFirstAudio.Record(ctx, time.Since(p.startedAt).Seconds())
			})

			p.audioOutput.SendAudio(audio)
			p.onPlaybackAudio(audio)

		case "mark":
			mark := audioOrMark.Mark
			span.AddEvent("received mark", trace.WithAttributes(attribute.String("mark", mark)))
			p.audioOutput.Mark(mark, func(mark string) {
				span.AddEvent("mark played", trace.WithAttributes(attribute.String("mark", mark)))
				if transcript := p.speechPlayer.OnAudioOutputMarkPlayed(mark); transcript != nil {
					p.emitEvent(events.NewAssistantPlaybackMarkPlayed(mark, *transcript))
				}
			})
		}
	}

	p.setSpeaking(false)
	p.speechPlayer.OnAudioEnded(p.speechPlayer.FullText())
	p.audioOutput.SendAudio([]byte{})
	p.audioOutput.Clear()

	return nil
}

func (p *responsePipeline) Pause() {
	if p == nil {
		return
	}

	p.speechPlayer.PauseAudio()
	p.audioOutput.Clear()
}

func (p *responsePipeline) Unpause() {
	if p == nil {
		return
	}

	p.speechPlayer.ResumeAudio()
}

// Cancel stops the turn mid-flight. Safe to call from any goroutine,
// including service link callbacks; only the first call has effect.
func (p *responsePipeline) Cancel() {
	if p == nil || !p.cancelled.CompareAndSwap(false, true) {
		return
	}

	p.Close()
	p.textToSpeech.Cancel()
	p.speechPlayer.StopAudio()
	p.audioOutput.Clear()
	p.setSpeaking(false)
	if p.onCancel != nil {
		p.onCancel(p.speechPlayer.SpokenTextSoFar())
	}
}

func (p *responsePipeline) IsCancelled() bool {
	if p == nil {
		return false
	}

	return p.cancelled.Load()
}

func (p *responsePipeline) Close() {
	if p == nil {
		return
	}

	pipelineCtx := p.Ctx()
	if err := p.textToSpeech.Close(pipelineCtx); err != nil {
		err = fmt.Errorf("failed to close tts resources: %w", err)
		span := trace.SpanFromContext(pipelineCtx)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func (p *responsePipeline) Ctx() context.Context {
	if p == nil {
		return nil
	}

	p.ctxMu.RLock()
	defer p.ctxMu.RUnlock()

	return p.ctx
}
