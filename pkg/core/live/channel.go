package live

import "context"

// Blob is a single outbound media chunk.
type Blob struct {
	// MimeType describes the payload, e.g. "audio/pcm;rate=16000" or "image/jpeg".
	MimeType string `json:"mimeType"`
	// Data is the base64-encoded payload.
	Data string `json:"data"`
}

// ChannelConfig holds everything needed to establish a live channel.
type ChannelConfig struct {
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string
}

// Channel is an established bidirectional media stream. Implementations
// deliver inbound events on a single channel, in arrival order, and close
// it when the stream ends.
type Channel interface {
	// Events returns the inbound event stream. It is closed after an
	// ErrorEvent or ClosedEvent is delivered.
	Events() <-chan Event

	// SendRealtimeInput transmits one media chunk to the remote side.
	SendRealtimeInput(blob Blob) error

	// Close tears the channel down. Safe to call more than once.
	Close() error
}

// Dialer opens a Channel. It returns only once the remote side has
// acknowledged the session setup, so a successful return means media may
// flow immediately.
type Dialer func(ctx context.Context, cfg ChannelConfig) (Channel, error)
