package live

import (
	"strings"
	"sync"
)

// TranscriptAggregator accumulates transcription fragments for the current
// exchange and commits them into ordered turns when the model's turn
// completes. All methods are safe for concurrent use.
type TranscriptAggregator struct {
	mu    sync.Mutex
	user  strings.Builder
	model strings.Builder
	turns []Turn
}

// NewTranscriptAggregator returns an empty aggregator.
func NewTranscriptAggregator() *TranscriptAggregator {
	return &TranscriptAggregator{}
}

// Append adds a transcript fragment for the given speaker. Fragments arrive
// as raw deltas and are concatenated without separators.
func (a *TranscriptAggregator) Append(speaker Speaker, delta string) {
	if delta == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	switch speaker {
	case SpeakerUser:
		a.user.WriteString(delta)
	case SpeakerModel:
		a.model.WriteString(delta)
	}
}

// Pending returns the uncommitted fragment for the given speaker.
func (a *TranscriptAggregator) Pending(speaker Speaker) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if speaker == SpeakerUser {
		return a.user.String()
	}
	return a.model.String()
}

// CompleteTurn commits the accumulated fragments as finished turns, user
// before model, skipping sides whose trimmed text is empty. It returns the
// turns committed by this call and clears the pending fragments.
func (a *TranscriptAggregator) CompleteTurn() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()

	var committed []Turn
	if text := strings.TrimSpace(a.user.String()); text != "" {
		committed = append(committed, Turn{Speaker: SpeakerUser, Text: text})
	}
	if text := strings.TrimSpace(a.model.String()); text != "" {
		committed = append(committed, Turn{Speaker: SpeakerModel, Text: text})
	}
	a.user.Reset()
	a.model.Reset()
	a.turns = append(a.turns, committed...)
	return committed
}

// Turns returns a copy of all committed turns in order.
func (a *TranscriptAggregator) Turns() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Turn, len(a.turns))
	copy(out, a.turns)
	return out
}

// Reset discards all committed turns and pending fragments.
func (a *TranscriptAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user.Reset()
	a.model.Reset()
	a.turns = nil
}
