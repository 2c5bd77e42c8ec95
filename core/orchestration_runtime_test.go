package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/miralabs/mira-core/core/audio"
	"github.com/miralabs/mira-core/core/events"
	"github.com/miralabs/mira-core/core/interruptions"
	"github.com/miralabs/mira-core/core/llms"
)

func TestCloseBeforeOrchestrateMarksClosed(t *testing.T) {
	o := NewOrchestrator()
	o.Close(context.Background())

	if !o.runtime.isEnded() {
		t.Fatalf("expected orchestrator to be closed")
	}

	if err := o.Orchestrate(context.Background()); err == nil {
		t.Fatalf("expected orchestrate on a closed conversation to fail")
	}
	if !o.runtime.isEnded() {
		t.Fatalf("expected orchestrator to stay closed")
	}
}

func TestSendPromptBeforeOrchestrateIsProcessed(t *testing.T) {
	o := NewOrchestrator(WithStreamingLLM(scriptedStreamLLMStub{chunks: []string{"queued response"}}))
	defer o.Close(context.Background())

	if err := o.SendPrompt("queued prompt"); err != nil {
		t.Fatalf("expected prompt to queue before orchestrate, got %v", err)
	}

	responseReceived := make(chan string, 1)
	responseEnded := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx,
		WithResponseCallback(func(response string) {
			select {
			case responseReceived <- response:
			default:
			}
		}),
		WithResponseEndCallback(func() {
			select {
			case responseEnded <- struct{}{}:
			default:
			}
		}),
	)

	select {
	case <-responseEnded:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for queued prompt to finish")
	}

	select {
	case response := <-responseReceived:
		if response != "queued response" {
			t.Fatalf("expected queued response, got %q", response)
		}
	default:
		t.Fatalf("expected a response callback")
	}
}

func TestCancelTurnCancelsActiveTurn(t *testing.T) {
	o := NewOrchestrator(WithStreamingLLM(repeatingStreamLLMStub{chunk: "chunk", interval: 10 * time.Millisecond}))
	defer o.Close(context.Background())

	responseReceived := make(chan struct{}, 1)
	cancelled := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx,
		WithResponseCallback(func(string) {
			select {
			case responseReceived <- struct{}{}:
			default:
			}
		}),
		WithCancellationCallback(func() {
			select {
			case cancelled <- struct{}{}:
			default:
			}
		}),
	)

	o.SendPrompt("please start")

	select {
	case <-responseReceived:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for active turn to start")
	}

	o.CancelTurn()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for cancellation callback")
	}
}

func TestCancelledTurnIsNotCommittedToHistory(t *testing.T) {
	o := NewOrchestrator(WithStreamingLLM(repeatingStreamLLMStub{chunk: "chunk", interval: 10 * time.Millisecond}))
	defer o.Close(context.Background())

	responseReceived := make(chan struct{}, 1)
	cancelled := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx,
		WithResponseCallback(func(string) {
			select {
			case responseReceived <- struct{}{}:
			default:
			}
		}),
		WithCancellationCallback(func() {
			select {
			case cancelled <- struct{}{}:
			default:
			}
		}),
	)

	o.SendPrompt("never mind")

	select {
	case <-responseReceived:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for active turn to start")
	}

	o.CancelTurn()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for cancellation callback")
	}

	waitForCondition(t, 2*time.Second, "turn to unwind", func() bool {
		return o.responsePipeline.Load() == nil
	})

	if turns := o.History(); len(turns) != 0 {
		t.Fatalf("expected cancelled turn to be excluded from history, got %d turns", len(turns))
	}
}

func TestCompletedTurnIsCommittedToHistory(t *testing.T) {
	o := NewOrchestrator(WithStreamingLLM(scriptedStreamLLMStub{chunks: []string{"committed ", "response"}}))
	defer o.Close(context.Background())

	responseEnded := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithResponseEndCallback(func() {
		select {
		case responseEnded <- struct{}{}:
		default:
		}
	}))

	o.SendPrompt("remember this")

	select {
	case <-responseEnded:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for turn to finish")
	}

	waitForCondition(t, 2*time.Second, "history to be committed", func() bool {
		return len(o.History()) == 2
	})

	turns := o.History()
	if turns[0].Text != "remember this" {
		t.Fatalf("expected user turn %q, got %q", "remember this", turns[0].Text)
	}
	if turns[1].Text != "committed response" {
		t.Fatalf("expected assistant turn %q, got %q", "committed response", turns[1].Text)
	}
}

func TestGenerationErrorFailsTurnWithoutCommit(t *testing.T) {
	o := NewOrchestrator(WithStreamingLLM(failingStreamLLMStub{
		chunks: []string{"partial "},
		err:    errors.New("upstream reset"),
	}))
	defer o.Close(context.Background())

	failed := make(chan events.TurnFailed, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithEventCallback(func(event events.Event) {
		if event, ok := event.(events.TurnFailed); ok {
			select {
			case failed <- event:
			default:
			}
		}
	}))

	o.SendPrompt("doomed prompt")

	select {
	case event := <-failed:
		if event.Cause == nil {
			t.Fatalf("expected turn failure to carry its cause")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for turn failure")
	}

	waitForCondition(t, 2*time.Second, "turn to unwind", func() bool {
		return o.responsePipeline.Load() == nil
	})

	if turns := o.History(); len(turns) != 0 {
		t.Fatalf("expected failed turn to be excluded from history, got %d turns", len(turns))
	}
	if got := o.State(); got != StateListening {
		t.Fatalf("expected listening state after failed turn, got %v", got)
	}
}

func TestQueuedPromptsAreAnsweredInOrder(t *testing.T) {
	o := NewOrchestrator(WithStreamingLLM(echoStreamLLMStub{}))
	defer o.Close(context.Background())

	mu := sync.Mutex{}
	responses := []string{}
	ended := make(chan struct{}, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx,
		WithResponseCallback(func(response string) {
			mu.Lock()
			responses = append(responses, response)
			mu.Unlock()
		}),
		WithResponseEndCallback(func() {
			ended <- struct{}{}
		}),
	)

	o.SendPrompt("first")
	o.SendPrompt("second")

	for range 2 {
		select {
		case <-ended:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for queued prompts to finish")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[0] != "echo: first" || responses[1] != "echo: second" {
		t.Fatalf("expected responses in submission order, got %v", responses)
	}
}

func TestInterimSpeechBelowThresholdDoesNotCancelTurn(t *testing.T) {
	o := NewOrchestrator(WithStreamingLLM(repeatingStreamLLMStub{chunk: "chunk", interval: 10 * time.Millisecond}))
	defer o.Close(context.Background())

	responseReceived := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithResponseCallback(func(string) {
		select {
		case responseReceived <- struct{}{}:
		default:
		}
	}))

	o.SendPrompt("please start")

	select {
	case <-responseReceived:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for active turn to start")
	}
	o.setSpeaking(true)

	o.maybeInterrupt(interruptions.Signal{PartialText: "uh"})

	if pipeline := o.responsePipeline.Load(); pipeline == nil || pipeline.IsCancelled() {
		t.Fatalf("expected short interim speech to leave the turn running")
	}

	o.CancelTurn()
}

func TestSpeechOnsetBeforePlaybackDoesNotCancelTurn(t *testing.T) {
	o := NewOrchestrator(WithStreamingLLM(repeatingStreamLLMStub{chunk: "chunk", interval: 10 * time.Millisecond}))
	defer o.Close(context.Background())

	responseReceived := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithResponseCallback(func(string) {
		select {
		case responseReceived <- struct{}{}:
		default:
		}
	}))

	o.SendPrompt("please start")

	select {
	case <-responseReceived:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for active turn to start")
	}

	if o.IsSpeaking() {
		t.Fatalf("expected no playback for a text-only turn")
	}

	o.maybeInterrupt(interruptions.Signal{SpeechStarted: true})

	if pipeline := o.responsePipeline.Load(); pipeline == nil || pipeline.IsCancelled() {
		t.Fatalf("expected speech onset before playback to leave the turn running")
	}

	o.CancelTurn()
}

func TestSpeechOnsetCancelsTurnThroughPolicy(t *testing.T) {
	o := NewOrchestrator(WithStreamingLLM(repeatingStreamLLMStub{chunk: "chunk", interval: 10 * time.Millisecond}))
	defer o.Close(context.Background())

	responseReceived := make(chan struct{}, 1)
	cancelled := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx,
		WithResponseCallback(func(string) {
			select {
			case responseReceived <- struct{}{}:
			default:
			}
		}),
		WithCancellationCallback(func() {
			select {
			case cancelled <- struct{}{}:
			default:
			}
		}),
	)

	o.SendPrompt("please start")

	select {
	case <-responseReceived:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for active turn to start")
	}
	o.setSpeaking(true)

	o.maybeInterrupt(interruptions.Signal{SpeechStarted: true})

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for barge-in cancellation")
	}

	if o.IsSpeaking() {
		t.Fatalf("expected barge-in to stop playback")
	}
	if turns := o.History(); len(turns) != 0 {
		t.Fatalf("expected interrupted turn to be excluded from history, got %d turns", len(turns))
	}
}

func TestFullQueueBlocksTranscriptsInsteadOfDropping(t *testing.T) {
	r := newConversationRuntime()

	for i := range conversationEventQueueCapacity {
		if err := r.enqueue(events.NewUserTranscriptFinal(fmt.Sprintf("queued %d", i))); err != nil {
			t.Fatalf("expected enqueue %d to succeed, got %v", i, err)
		}
	}

	blocked := make(chan error, 1)
	go func() {
		blocked <- r.enqueue(events.NewUserTranscriptFinal("over capacity"))
	}()

	select {
	case err := <-blocked:
		t.Fatalf("expected enqueue on a full queue to block, got %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	// Draining a slot unblocks the producer without losing the transcript.
	item := <-r.queue
	if transcript, ok := item.event.(events.UserTranscriptFinal); !ok || transcript.Transcript != "queued 0" {
		t.Fatalf("expected oldest transcript first, got %+v", item.event)
	}

	select {
	case err := <-blocked:
		if err != nil {
			t.Fatalf("expected blocked enqueue to complete, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for blocked enqueue to complete")
	}
}

func TestClosingRuntimeUnblocksPendingEnqueue(t *testing.T) {
	r := newConversationRuntime()

	for i := range conversationEventQueueCapacity {
		if err := r.enqueue(events.NewUserTranscriptFinal(fmt.Sprintf("queued %d", i))); err != nil {
			t.Fatalf("expected enqueue %d to succeed, got %v", i, err)
		}
	}

	blocked := make(chan error, 1)
	go func() {
		blocked <- r.enqueue(events.NewUserTranscriptFinal("over capacity"))
	}()

	select {
	case err := <-blocked:
		t.Fatalf("expected enqueue on a full queue to block, got %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	r.end()

	select {
	case err := <-blocked:
		if err == nil {
			t.Fatalf("expected enqueue to fail once the conversation closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for close to unblock the producer")
	}
}

func TestCancelAfterCompletionDoesNotEmitCancellation(t *testing.T) {
	o := NewOrchestrator(WithStreamingLLM(scriptedStreamLLMStub{chunks: []string{"done"}}))
	defer o.Close(context.Background())

	responseEnded := make(chan struct{}, 1)
	cancelled := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx,
		WithResponseEndCallback(func() {
			select {
			case responseEnded <- struct{}{}:
			default:
			}
		}),
		WithCancellationCallback(func() {
			select {
			case cancelled <- struct{}{}:
			default:
			}
		}),
	)

	o.SendPrompt("quick turn")

	select {
	case <-responseEnded:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for turn to finish")
	}

	waitForCondition(t, 2*time.Second, "turn to unwind", func() bool {
		return o.responsePipeline.Load() == nil
	})

	o.CancelTurn()

	select {
	case <-cancelled:
		t.Fatalf("expected cancelling a finished turn to be a no-op")
	case <-time.After(100 * time.Millisecond):
	}

	if turns := o.History(); len(turns) != 2 {
		t.Fatalf("expected completed turn to stay committed, got %d turns", len(turns))
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	o := NewOrchestrator()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx)
	o.Close(context.Background())
	o.Close(context.Background())

	if got := o.State(); got != StateIdle {
		t.Fatalf("expected idle state after close, got %v", got)
	}
}

func waitForCondition(t *testing.T, timeout time.Duration, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", description)
}

type scriptedStreamLLMStub struct {
	chunks []string
}

func (stub scriptedStreamLLMStub) PromptWithStream(context.Context, *string, ...llms.PromptOption) llms.Stream {
	return scriptedStreamStub{chunks: stub.chunks}
}

type scriptedStreamStub struct {
	chunks []string
}

func (stub scriptedStreamStub) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		for _, chunk := range stub.chunks {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if !yield(streamContentChunkStub{content: chunk}, nil) {
				return
			}
		}
	}
}

type failingStreamLLMStub struct {
	chunks []string
	err    error
}

func (stub failingStreamLLMStub) PromptWithStream(context.Context, *string, ...llms.PromptOption) llms.Stream {
	return failingStreamStub{chunks: stub.chunks, err: stub.err}
}

type failingStreamStub struct {
	chunks []string
	err    error
}

func (stub failingStreamStub) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		for _, chunk := range stub.chunks {
			if !yield(streamContentChunkStub{content: chunk}, nil) {
				return
			}
		}
		yield(nil, stub.err)
	}
}

type echoStreamLLMStub struct{}

func (stub echoStreamLLMStub) PromptWithStream(_ context.Context, _ *string, opts ...llms.PromptOption) llms.Stream {
	promptOptions := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&promptOptions)
	}

	lastUserText := ""
	for _, message := range promptOptions.Messages {
		if message.Role == llms.MessageRoleUser {
			lastUserText = message.Content
		}
	}

	return scriptedStreamStub{chunks: []string{"echo: " + lastUserText}}
}

type repeatingStreamLLMStub struct {
	chunk    string
	interval time.Duration
}

func (stub repeatingStreamLLMStub) PromptWithStream(context.Context, *string, ...llms.PromptOption) llms.Stream {
	return repeatingStreamStub{
		chunk:    stub.chunk,
		interval: stub.interval,
	}
}

type repeatingStreamStub struct {
	chunk    string
	interval time.Duration
}

func (stub repeatingStreamStub) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		ticker := time.NewTicker(stub.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !yield(streamContentChunkStub{content: stub.chunk}, nil) {
					return
				}
			}
		}
	}
}

type streamContentChunkStub struct {
	content string
}

func (chunk streamContentChunkStub) FinishReason() *string {
	return nil
}

func (chunk streamContentChunkStub) Content() string {
	return chunk.content
}

type recordingAudioOutput struct {
	mu         sync.Mutex
	clearCount int
	sent       [][]byte
}

func (output *recordingAudioOutput) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (output *recordingAudioOutput) SendAudio(chunk []byte) error {
	output.mu.Lock()
	output.sent = append(output.sent, chunk)
	output.mu.Unlock()
	return nil
}

func (output *recordingAudioOutput) ClearBuffer() {
	output.mu.Lock()
	output.clearCount++
	output.mu.Unlock()
}

func (output *recordingAudioOutput) Mark(mark string, onPlayed func(mark string)) error {
	if onPlayed != nil {
		onPlayed(mark)
	}
	return nil
}

func (output *recordingAudioOutput) clearCalls() int {
	output.mu.Lock()
	defer output.mu.Unlock()
	return output.clearCount
}

func (output *recordingAudioOutput) sentChunks() int {
	output.mu.Lock()
	defer output.mu.Unlock()
	return len(output.sent)
}
