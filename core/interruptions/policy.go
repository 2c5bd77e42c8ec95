package interruptions

import "context"

// DefaultInterruptMinChars is the interim-transcript length above which
// user speech during playback counts as a barge-in.
const DefaultInterruptMinChars = 5

// Signal describes user activity observed while the assistant is speaking.
type Signal struct {
	// PartialText is the latest interim transcript, empty when the signal
	// came from voice activity alone.
	PartialText string

	// SpeechStarted is true when the transcription service detected the
	// onset of user speech.
	SpeechStarted bool
}

// Policy decides whether user activity during assistant playback is a
// barge-in. Implementations must be safe to call from the transcription
// link's callback goroutine.
type Policy interface {
	ShouldInterrupt(ctx context.Context, signal Signal) bool
}

// ThresholdPolicy interrupts on any speech onset, or on interim text longer
// than a minimum character count. It is the default policy.
type ThresholdPolicy struct {
	minChars int
}

type ThresholdPolicyOption func(*ThresholdPolicy)

// WithMinChars overrides the interim-text length threshold. Values below 0
// are ignored.
func WithMinChars(minChars int) ThresholdPolicyOption {
	return func(p *ThresholdPolicy) {
		if minChars >= 0 {
			p.minChars = minChars
		}
	}
}

func NewThresholdPolicy(opts ...ThresholdPolicyOption) *ThresholdPolicy {
	policy := &ThresholdPolicy{minChars: DefaultInterruptMinChars}
	for _, opt := range opts {
		opt(policy)
	}
	return policy
}

func (p *ThresholdPolicy) ShouldInterrupt(_ context.Context, signal Signal) bool {
	if signal.SpeechStarted {
		return true
	}
	return len(signal.PartialText) > p.minChars
}
