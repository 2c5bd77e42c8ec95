package conversations

import "context"

// Memory supplies prior context relevant to the current utterance and
// records completed exchanges. Implementations live outside this module.
type Memory interface {
	// Query returns a bounded block of relevant prior context for the
	// given utterance. An empty string means nothing relevant.
	Query(ctx context.Context, text string) (string, error)

	// Persist records a completed exchange. Failures must not affect the
	// conversation; callers log and move on.
	Persist(ctx context.Context, userText string, assistantText string) error
}
