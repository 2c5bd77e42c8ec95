// Package llm provides an interruption policy that asks a structured-output
// language model whether user speech during playback is a genuine barge-in
// or a backchannel acknowledgement.
package llm

import (
	"context"
	"fmt"

	"github.com/miralabs/mira-core/core/interruptions"
	"github.com/miralabs/mira-core/core/llms"
	"github.com/miralabs/mira-core/core/llms/groq"
)

const classifierSystemPrompt = `You are classifying speech a user produced while a voice assistant was talking.

Classify the utterance as exactly one of:
- "backchannel": an acknowledgement that does not ask for anything ("mm-hm", "right", "okay", "yeah")
- "noise": a non-speech sound or fragment with no discernible intent
- "repetition": the user repeating what the assistant just said
- "cancellation": the user asking the assistant to stop
- "clarification": the user asking a question about what is being said
- "new prompt": the user starting a new, unrelated request

Respond with the classification only.`

type classification struct {
	Type string `json:"type" jsonschema:"title=Type,description=The kind of utterance the user produced while the assistant was speaking,enum=backchannel,enum=noise,enum=repetition,enum=cancellation,enum=clarification,enum=new prompt"`
}

// Policy classifies interim transcripts with a language model before
// deciding on a barge-in. Signals the model cannot judge, and classifier
// failures, fall back to the threshold policy.
type Policy struct {
	client   *groq.Client
	history  func() []llms.Message
	fallback interruptions.Policy
}

type PolicyOption func(*Policy)

// WithHistory supplies recent conversation turns as classifier context.
func WithHistory(history func() []llms.Message) PolicyOption {
	return func(p *Policy) {
		p.history = history
	}
}

// WithFallback overrides the policy used when classification is not
// possible.
func WithFallback(fallback interruptions.Policy) PolicyOption {
	return func(p *Policy) {
		if fallback != nil {
			p.fallback = fallback
		}
	}
}

func NewPolicy(client *groq.Client, opts ...PolicyOption) *Policy {
	policy := &Policy{
		client:   client,
		fallback: interruptions.NewThresholdPolicy(),
	}
	for _, opt := range opts {
		opt(policy)
	}
	return policy
}

func (p *Policy) ShouldInterrupt(ctx context.Context, signal interruptions.Signal) bool {
	if signal.PartialText == "" {
		return p.fallback.ShouldInterrupt(ctx, signal)
	}

	ctx, span := tracer.Start(ctx, "classify interruption")
	defer span.End()

	opts := []llms.PromptOption{llms.WithSystemPrompt(classifierSystemPrompt)}
	if p.history != nil {
		opts = append(opts, llms.WithMessages(p.history()...))
	}

	result, err := groq.PromptJSONSchema(ctx, p.client, signal.PartialText, classification{}, opts...)
	if err != nil {
		logger.WarnContext(ctx, "Interruption classification failed", "error", err)
		return p.fallback.ShouldInterrupt(ctx, signal)
	}

	interrupt, err := isBargeIn(result.Type)
	if err != nil {
		logger.WarnContext(ctx, "Interruption classification unusable", "error", err)
		return p.fallback.ShouldInterrupt(ctx, signal)
	}
	return interrupt
}

func isBargeIn(classification string) (bool, error) {
	switch classification {
	case "backchannel", "noise", "repetition":
		return false, nil
	case "cancellation", "clarification", "new prompt":
		return true, nil
	default:
		return false, fmt.Errorf("unknown classification: %s", classification)
	}
}
