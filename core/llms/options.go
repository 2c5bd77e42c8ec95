package llms

type PromptOptions struct {
	Instructions string
	Messages     []Message
}

type PromptOption func(*PromptOptions)

// WithSystemPrompt sets the system prompt for the prompt. Repeating this
// option overwrites the previous system prompt.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *PromptOptions) {
		opts.Instructions = prompt
	}
}

// WithMessages appends messages to the prompt context. Repeating this option
// sequentially adds more messages; order is preserved.
func WithMessages(messages ...Message) PromptOption {
	return func(opts *PromptOptions) {
		opts.Messages = append(opts.Messages, messages...)
	}
}
