package conversations

import "testing"

func TestWindowCommitBoundsHistory(t *testing.T) {
	window := NewWindow(WithMaxTurns(2))

	window.Commit("one", "uno")
	window.Commit("two", "dos")
	window.Commit("three", "tres")

	turns := window.Turns()
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns after truncation, got %d", len(turns))
	}

	expected := []struct {
		role Role
		text string
	}{
		{RoleUser, "two"},
		{RoleAssistant, "dos"},
		{RoleUser, "three"},
		{RoleAssistant, "tres"},
	}
	for i, want := range expected {
		if turns[i].Role != want.role || turns[i].Text != want.text {
			t.Fatalf("expected turn %d to be %s %q, got %s %q",
				i, want.role, want.text, turns[i].Role, turns[i].Text)
		}
	}
}

func TestWindowCommitKeepsPairsOrdered(t *testing.T) {
	window := NewWindow()

	window.Commit("hello", "hi there")

	turns := window.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Fatalf("expected user then assistant, got %s then %s", turns[0].Role, turns[1].Role)
	}
	if turns[0].ID == "" || turns[1].ID == "" {
		t.Fatalf("expected turns to carry ids")
	}
}

func TestWindowTurnsReturnsCopy(t *testing.T) {
	window := NewWindow()
	window.Commit("hello", "hi there")

	turns := window.Turns()
	turns[0].Text = "mutated"

	if got := window.Turns()[0].Text; got != "hello" {
		t.Fatalf("expected stored turn to stay %q, got %q", "hello", got)
	}
}
