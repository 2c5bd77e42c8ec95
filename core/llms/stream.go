package llms

import "context"

// Stream is a lazy sequence of response increments. The sequence is finite
// and terminates either with completion or with a terminal error yielded
// through the iterator. Cancelling the context passed to Chunks aborts the
// underlying network call, not merely consumption.
//
// A Stream is restartable only by prompting again; it is not resumable.
type Stream interface {
	Chunks(context.Context) func(func(StreamChunk, error) bool)
}

type StreamChunk interface {
	FinishReason() *string
}

// StreamContentChunk carries a response text increment.
type StreamContentChunk interface {
	StreamChunk
	Content() string
}

// StreamUsageChunk carries token and timing accounting, emitted at most once
// at the end of a stream.
type StreamUsageChunk interface {
	StreamChunk
	Usage() Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int

	// QueueTime is the time the request spent queued before processing, in
	// seconds. Provider approximation.
	QueueTime float64
	// PromptTime is the time spent processing the input, in seconds.
	PromptTime float64
	// CompletionTime is the time spent generating the output, in seconds.
	CompletionTime float64
	// TotalTime is the total request time, in seconds.
	TotalTime float64
}
