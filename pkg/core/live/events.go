package live

// Event is the interface for all inbound channel events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// InputTranscriptionEvent carries a fragment of the user's speech transcript.
type InputTranscriptionEvent struct {
	Text string `json:"text"`
}

func (e *InputTranscriptionEvent) EventType() string { return "transcription.input" }

// OutputTranscriptionEvent carries a fragment of the model's speech transcript.
type OutputTranscriptionEvent struct {
	Text string `json:"text"`
}

func (e *OutputTranscriptionEvent) EventType() string { return "transcription.output" }

// AudioChunkEvent carries decoded model audio ready for playback.
type AudioChunkEvent struct {
	// Data is raw signed 16-bit little-endian PCM.
	Data []byte `json:"data"`
	// SampleRate in Hz, parsed from the chunk's media type.
	SampleRate int `json:"sample_rate"`
	// Channels is the channel count, 1 unless stated otherwise.
	Channels int `json:"channels"`
}

func (e *AudioChunkEvent) EventType() string { return "audio.chunk" }

// Config returns the playback format of the chunk.
func (e *AudioChunkEvent) Config() AudioConfig {
	rate := e.SampleRate
	if rate == 0 {
		rate = OutputSampleRate
	}
	ch := e.Channels
	if ch == 0 {
		ch = 1
	}
	return AudioConfig{SampleRate: rate, Channels: ch, BitsPerSample: 16}
}

// InterruptedEvent signals that the user barged in and all queued model
// audio must be discarded immediately.
type InterruptedEvent struct{}

func (e *InterruptedEvent) EventType() string { return "interrupted" }

// TurnCompleteEvent signals that the model finished its response and the
// accumulated transcripts form a complete exchange.
type TurnCompleteEvent struct{}

func (e *TurnCompleteEvent) EventType() string { return "turn.complete" }

// ErrorEvent carries a channel-level failure. The session ends after it.
type ErrorEvent struct {
	Err error `json:"-"`
}

func (e *ErrorEvent) EventType() string { return "error" }

// ClosedEvent signals that the channel was closed by the remote side.
type ClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *ClosedEvent) EventType() string { return "closed" }
