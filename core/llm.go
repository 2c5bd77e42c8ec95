package orchestration

import (
	"context"
	"strings"

	"github.com/miralabs/mira-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type llm struct {
	// client is the configured streaming LLM implementation.
	client LLMWithStream

	// onResponse is called for each streamed response chunk.
	onResponse func(string)
	// onResponseEnd is called once response streaming is finished, with the
	// full response generated so far.
	onResponseEnd func(string)
}

func newLLM() llm {
	return llm{
		onResponse:    func(string) {},
		onResponseEnd: func(string) {},
	}
}

func (runtime *llm) set(client LLMWithStream) {
	if runtime == nil {
		return
	}

	runtime.client = client
}

func (runtime *llm) setResponseCallbacks(onResponse func(string), onResponseEnd func(string)) {
	if runtime == nil {
		return
	}

	if onResponse != nil {
		runtime.onResponse = onResponse
	}
	if onResponseEnd != nil {
		runtime.onResponseEnd = onResponseEnd
	}
}

func (runtime *llm) snapshot() llm {
	if runtime == nil {
		return llm{}
	}

	snapshot := llm{client: runtime.client}
	snapshot.setResponseCallbacks(runtime.onResponse, runtime.onResponseEnd)
	return snapshot
}

func (runtime *llm) isConfigured() bool {
	return runtime != nil && runtime.client != nil
}

// generate streams a model response for the prepared context. Chunks are
// forwarded to onChunk and the response callback as they arrive. Returns
// [ErrTurnCancelled] when cancelled reports true mid-stream.
//
// onResponseEnd fires exactly once per call, also when no model is
// configured, so downstream turn accounting always completes.
func (runtime *llm) generate(
	ctx context.Context,
	messages []llms.Message,
	onChunk func(string),
	cancelled func() bool,
) (response string, err error) {
	var message strings.Builder
	defer func() { runtime.onResponseEnd(message.String()) }()

	if runtime == nil || runtime.client == nil {
		return "", nil
	}

	span := trace.SpanFromContext(ctx)

	stream := runtime.client.PromptWithStream(ctx, nil, llms.WithMessages(messages...))
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			err = GenerationError{Err: err}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return message.String(), err
		}

		if cancelled != nil && cancelled() {
			return message.String(), ErrTurnCancelled
		}

		switch chunk := chunk.(type) {
		case llms.StreamContentChunk:
			message.WriteString(chunk.Content())
			if onChunk != nil {
				onChunk(chunk.Content())
			}
			runtime.onResponse(chunk.Content())

		case llms.StreamUsageChunk:
			usage := chunk.Usage()
			span.AddEvent("usage reported", trace.WithAttributes(
				attribute.Int("llm.input_tokens", usage.InputTokens),
				attribute.Int("llm.output_tokens", usage.OutputTokens),
			))
		}
	}

	return message.String(), nil
}
