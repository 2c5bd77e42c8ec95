package interruptions

import "testing"

func TestThresholdPolicyInterruptsOnSpeechStarted(t *testing.T) {
	policy := NewThresholdPolicy()

	if !policy.ShouldInterrupt(t.Context(), Signal{SpeechStarted: true}) {
		t.Fatalf("expected speech onset to interrupt")
	}
}

func TestThresholdPolicyInterruptsAboveMinChars(t *testing.T) {
	policy := NewThresholdPolicy()

	if policy.ShouldInterrupt(t.Context(), Signal{PartialText: "mm-hm"}) {
		t.Fatalf("expected text at threshold not to interrupt")
	}
	if !policy.ShouldInterrupt(t.Context(), Signal{PartialText: "hold on"}) {
		t.Fatalf("expected text above threshold to interrupt")
	}
}

func TestThresholdPolicyWithMinChars(t *testing.T) {
	policy := NewThresholdPolicy(WithMinChars(0))

	if !policy.ShouldInterrupt(t.Context(), Signal{PartialText: "a"}) {
		t.Fatalf("expected any text to interrupt with zero threshold")
	}
}
