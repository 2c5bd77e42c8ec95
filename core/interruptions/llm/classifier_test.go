package llm

import "testing"

func TestIsBargeIn(t *testing.T) {
	for _, kind := range []string{"backchannel", "noise", "repetition"} {
		interrupt, err := isBargeIn(kind)
		if err != nil {
			t.Fatalf("expected no error for %q, got %v", kind, err)
		}
		if interrupt {
			t.Fatalf("expected %q not to be a barge-in", kind)
		}
	}

	for _, kind := range []string{"cancellation", "clarification", "new prompt"} {
		interrupt, err := isBargeIn(kind)
		if err != nil {
			t.Fatalf("expected no error for %q, got %v", kind, err)
		}
		if !interrupt {
			t.Fatalf("expected %q to be a barge-in", kind)
		}
	}

	if _, err := isBargeIn("gibberish"); err == nil {
		t.Fatalf("expected unknown classification to error")
	}
}
