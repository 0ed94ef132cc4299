package live

import (
	"reflect"
	"testing"
)

func TestTranscriptAggregator_FragmentConcatenation(t *testing.T) {
	a := NewTranscriptAggregator()
	a.Append(SpeakerUser, "Nice ")
	a.Append(SpeakerUser, "jacket")

	if got := a.Pending(SpeakerUser); got != "Nice jacket" {
		t.Errorf("Pending(user) = %q, want %q", got, "Nice jacket")
	}

	turns := a.CompleteTurn()
	want := []Turn{{Speaker: SpeakerUser, Text: "Nice jacket"}}
	if !reflect.DeepEqual(turns, want) {
		t.Errorf("CompleteTurn() = %v, want %v", turns, want)
	}
}

func TestTranscriptAggregator_UserThenModelOrder(t *testing.T) {
	a := NewTranscriptAggregator()
	a.Append(SpeakerModel, "It fits you well.")
	a.Append(SpeakerUser, "What do you think?")

	turns := a.CompleteTurn()
	if len(turns) != 2 {
		t.Fatalf("committed %d turns, want 2", len(turns))
	}
	if turns[0].Speaker != SpeakerUser || turns[1].Speaker != SpeakerModel {
		t.Errorf("turn order = %s, %s; want user, model", turns[0].Speaker, turns[1].Speaker)
	}
}

func TestTranscriptAggregator_EmptyTurn(t *testing.T) {
	a := NewTranscriptAggregator()
	if turns := a.CompleteTurn(); len(turns) != 0 {
		t.Errorf("CompleteTurn() on empty aggregator = %v, want none", turns)
	}

	a.Append(SpeakerUser, "   ")
	if turns := a.CompleteTurn(); len(turns) != 0 {
		t.Errorf("whitespace-only fragment committed as turn: %v", turns)
	}
}

func TestTranscriptAggregator_ModelOnlyTurn(t *testing.T) {
	a := NewTranscriptAggregator()
	a.Append(SpeakerModel, "Hello! Show me your outfit.")

	turns := a.CompleteTurn()
	if len(turns) != 1 || turns[0].Speaker != SpeakerModel {
		t.Fatalf("CompleteTurn() = %v, want single model turn", turns)
	}
}

func TestTranscriptAggregator_Trimming(t *testing.T) {
	a := NewTranscriptAggregator()
	a.Append(SpeakerUser, "  Nice jacket \n")

	turns := a.CompleteTurn()
	if len(turns) != 1 || turns[0].Text != "Nice jacket" {
		t.Errorf("CompleteTurn() = %v, want trimmed text", turns)
	}
}

func TestTranscriptAggregator_ClearsPendingAfterCommit(t *testing.T) {
	a := NewTranscriptAggregator()
	a.Append(SpeakerUser, "first")
	a.CompleteTurn()

	if got := a.Pending(SpeakerUser); got != "" {
		t.Errorf("Pending(user) after commit = %q, want empty", got)
	}
	if turns := a.CompleteTurn(); len(turns) != 0 {
		t.Errorf("second CompleteTurn() = %v, want none", turns)
	}
}

func TestTranscriptAggregator_TurnsAccumulate(t *testing.T) {
	a := NewTranscriptAggregator()
	a.Append(SpeakerUser, "one")
	a.CompleteTurn()
	a.Append(SpeakerModel, "two")
	a.CompleteTurn()

	turns := a.Turns()
	if len(turns) != 2 {
		t.Fatalf("Turns() has %d entries, want 2", len(turns))
	}

	// Mutating the copy must not affect the aggregator.
	turns[0].Text = "mutated"
	if a.Turns()[0].Text != "one" {
		t.Error("Turns() did not return a copy")
	}
}

func TestTranscriptAggregator_Reset(t *testing.T) {
	a := NewTranscriptAggregator()
	a.Append(SpeakerUser, "hello")
	a.CompleteTurn()
	a.Append(SpeakerModel, "pending")
	a.Reset()

	if len(a.Turns()) != 0 {
		t.Error("Reset() did not clear committed turns")
	}
	if a.Pending(SpeakerModel) != "" {
		t.Error("Reset() did not clear pending fragments")
	}
}
