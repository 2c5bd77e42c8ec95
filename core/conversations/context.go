package conversations

import (
	"context"
	"fmt"

	"github.com/miralabs/mira-core/core/llms"
)

// ContextBuilder assembles the message sequence for a response generation
// from the committed history, an optional memory collaborator, and the new
// user utterance.
type ContextBuilder struct {
	instructions string
	memory       Memory
	maxTurns     int
}

type ContextBuilderOption func(*ContextBuilder)

func WithInstructions(instructions string) ContextBuilderOption {
	return func(b *ContextBuilder) {
		b.instructions = instructions
	}
}

func WithMemory(memory Memory) ContextBuilderOption {
	return func(b *ContextBuilder) {
		b.memory = memory
	}
}

// WithContextMaxTurns caps how many history entries are included in a
// built context. Values below 1 are ignored.
func WithContextMaxTurns(maxTurns int) ContextBuilderOption {
	return func(b *ContextBuilder) {
		if maxTurns >= 1 {
			b.maxTurns = maxTurns
		}
	}
}

func NewContextBuilder(opts ...ContextBuilderOption) *ContextBuilder {
	builder := &ContextBuilder{maxTurns: DefaultMaxTurns}
	for _, opt := range opts {
		opt(builder)
	}
	return builder
}

// Build returns the messages for a generation in fixed order: system
// instructions, the memory block (when present), the most recent history
// entries, and the new user utterance. Memory query failures are logged
// and treated as an empty block.
func (b *ContextBuilder) Build(ctx context.Context, window *Window, userText string) []llms.Message {
	ctx, span := tracer.Start(ctx, "build conversation context")
	defer span.End()

	messages := make([]llms.Message, 0, 2*b.maxTurns+3)
	if b.instructions != "" {
		messages = append(messages, llms.Message{
			Role:    llms.MessageRoleSystem,
			Content: b.instructions,
		})
	}

	if b.memory != nil {
		block, err := b.memory.Query(ctx, userText)
		if err != nil {
			logger.WarnContext(ctx, "Memory query failed", "error", err)
		} else if block != "" {
			messages = append(messages, llms.Message{
				Role:    llms.MessageRoleSystem,
				Content: fmt.Sprintf("Relevant prior context:\n%s", block),
			})
		}
	}

	turns := window.Turns()
	if len(turns) > b.maxTurns {
		turns = turns[len(turns)-b.maxTurns:]
	}
	for _, turn := range turns {
		role := llms.MessageRoleUser
		if turn.Role == RoleAssistant {
			role = llms.MessageRoleAssistant
		}
		messages = append(messages, llms.Message{Role: role, Content: turn.Text})
	}

	return append(messages, llms.Message{
		Role:    llms.MessageRoleUser,
		Content: userText,
	})
}
