package conversations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/miralabs/mira-core/core/llms"
)

type staticMemory struct {
	block string
	err   error
}

func (m *staticMemory) Query(context.Context, string) (string, error) {
	return m.block, m.err
}

func (m *staticMemory) Persist(context.Context, string, string) error {
	return nil
}

func TestBuildContextOrder(t *testing.T) {
	window := NewWindow()
	window.Commit("first question", "first answer")

	builder := NewContextBuilder(
		WithInstructions("You are a helpful voice assistant."),
		WithMemory(&staticMemory{block: "User prefers short answers."}),
	)

	messages := builder.Build(t.Context(), window, "second question")
	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}

	if messages[0].Role != llms.MessageRoleSystem ||
		messages[0].Content != "You are a helpful voice assistant." {
		t.Fatalf("expected instructions first, got %s %q", messages[0].Role, messages[0].Content)
	}
	if messages[1].Role != llms.MessageRoleSystem ||
		!strings.Contains(messages[1].Content, "User prefers short answers.") {
		t.Fatalf("expected memory block second, got %s %q", messages[1].Role, messages[1].Content)
	}
	if messages[2].Content != "first question" || messages[3].Content != "first answer" {
		t.Fatalf("expected history in order, got %q then %q", messages[2].Content, messages[3].Content)
	}
	if messages[4].Role != llms.MessageRoleUser || messages[4].Content != "second question" {
		t.Fatalf("expected new user turn last, got %s %q", messages[4].Role, messages[4].Content)
	}
}

func TestBuildContextIsIdempotent(t *testing.T) {
	window := NewWindow()
	window.Commit("hello", "hi")

	builder := NewContextBuilder(WithInstructions("Be brief."))

	first := builder.Build(t.Context(), window, "again")
	second := builder.Build(t.Context(), window, "again")

	if len(first) != len(second) {
		t.Fatalf("expected identical lengths, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected message %d to match, got %v and %v", i, first[i], second[i])
		}
	}
}

func TestBuildContextTruncatesHistory(t *testing.T) {
	window := NewWindow()
	window.Commit("one", "uno")
	window.Commit("two", "dos")

	builder := NewContextBuilder(WithContextMaxTurns(2))

	messages := builder.Build(t.Context(), window, "three")
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].Content != "two" || messages[1].Content != "dos" {
		t.Fatalf("expected most recent exchange, got %q then %q", messages[0].Content, messages[1].Content)
	}
}

func TestBuildContextSwallowsMemoryFailure(t *testing.T) {
	window := NewWindow()
	builder := NewContextBuilder(
		WithMemory(&staticMemory{err: errors.New("store unavailable")}),
	)

	messages := builder.Build(t.Context(), window, "hello")
	if len(messages) != 1 {
		t.Fatalf("expected only the user turn, got %d messages", len(messages))
	}
	if messages[0].Content != "hello" {
		t.Fatalf("expected user turn, got %q", messages[0].Content)
	}
}
