package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miralabs/mira-core/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const conversationEventQueueCapacity = 10

type eventQueueItem struct {
	event    events.Event
	queuedAt time.Time
}

// conversationRuntime serialises turn processing: queued user events are
// consumed one at a time by a single goroutine, so turns never overlap and
// transcripts are answered in arrival order.
type conversationRuntime struct {
	baseContext context.Context

	queue   chan eventQueueItem
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once
}

func newConversationRuntime() *conversationRuntime {
	return &conversationRuntime{
		baseContext: context.Background(),
		queue:       make(chan eventQueueItem, conversationEventQueueCapacity),
		closeCh:     make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// enqueue registers a user event for processing. Events may be queued before
// the runtime is started; they are held until the consumer comes up. When the
// queue is full the send blocks until a slot frees, so transcripts and
// prompts are never dropped; only closing the conversation unblocks it.
func (r *conversationRuntime) enqueue(event events.Event) error {
	select {
	case <-r.closeCh:
		return fmt.Errorf("conversation is closed")
	default:
	}

	select {
	case r.queue <- eventQueueItem{event: event, queuedAt: time.Now()}:
		return nil
	case <-r.closeCh:
		return fmt.Errorf("conversation is closed")
	}
}

func (r *conversationRuntime) start(o *Orchestrator) {
	r.startOnce.Do(func() {
		go func() {
			defer close(r.done)
			for {
				select {
				case <-r.closeCh:
					return
				case item := <-r.queue:
					r.processQueuedEvent(o, item)
				}
			}
		}()
	})
}

func (r *conversationRuntime) end() {
	r.endOnce.Do(func() {
		close(r.closeCh)
	})
}

func (r *conversationRuntime) isEnded() bool {
	select {
	case <-r.closeCh:
		return true
	default:
		return false
	}
}

func (r *conversationRuntime) waitUntilEnded(ctx context.Context) {
	select {
	case <-r.done:
	case <-ctx.Done():
	}
}

func (r *conversationRuntime) processQueuedEvent(o *Orchestrator, item eventQueueItem) {
	var text, trigger string
	switch event := item.event.(type) {
	case events.UserTranscriptFinal:
		text, trigger = event.Transcript, "transcription"
	case events.UserPromptSubmitted:
		text, trigger = event.Prompt, "prompt"
	default:
		return
	}

	if strings.TrimSpace(text) == "" {
		return
	}

	o.setState(StateResponding)
	o.emitEvent(events.NewTurnStarted(trigger))

	ctx, detach := withContextCancelHook(r.baseContext, r.closeCh)
	defer detach()

	ctx, span := tracer.Start(ctx, "process turn", trace.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.Float64("queued_time_s", time.Since(item.queuedAt).Seconds()),
	))
	defer span.End()

	messages := o.contextBuilder.Build(ctx, o.window, text)

	pipeline := newResponsePipeline(responsePipelineConfig{
		llm:          o.llm.snapshot(),
		textToSpeech: o.textToSpeech.Snapshot(),
		speechPlayer: o.speechPlayer.Snapshot(),
		audioOutput:  o.audioOutput.Snapshot(),
		emitEvent:    o.emitEvent,
		setSpeaking:  o.setSpeaking,
		onPlaybackAudio: func(audio []byte) {
			if o.orchestrateOptions.onPlaybackAudio != nil {
				o.orchestrateOptions.onPlaybackAudio(audio)
			}
		},
		onCancel: func(spoken string) {
			interruptionCounter.Add(r.baseContext, 1)
			o.emitEvent(events.NewTurnCancelled(spoken))
		},
	})

	o.responsePipeline.Store(pipeline)

	response, err := pipeline.Run(ctx, messages)
	// Cleared before the state transition so a finished turn is never
	// observed as both listening and cancellable.
	o.responsePipeline.Store(nil)

	switch {
	case pipeline.IsCancelled():
		// Cancellation already emitted its event; the exchange is not
		// committed to history.
	case err != nil:
		err = fmt.Errorf("turn processing failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.emitEvent(events.NewTurnFailed(err))
	default:
		o.window.Commit(text, response)
		if o.memory != nil {
			go func() {
				if err := o.memory.Persist(r.baseContext, text, response); err != nil {
					logger.WarnContext(r.baseContext, "failed to persist exchange to memory", "error", err)
				}
			}()
		}
		o.emitEvent(events.NewTurnCompleted())
	}

	if r.isEnded() {
		o.setState(StateIdle)
	} else {
		o.setState(StateListening)
	}
}
