package llms

// Message is a single entry in the ordered context submitted to a language
// model. Order is significant: system prompt first, then memory context,
// history, and the new user turn.
type Message struct {
	Role    MessageRole
	Content string
}

// MessageRole describes who a context message is from.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)
