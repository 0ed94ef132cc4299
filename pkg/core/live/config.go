package live

import "time"

// SessionState represents the current state of the live session.
type SessionState int

const (
	// StateIdle is the resting state, before activation or after teardown.
	StateIdle SessionState = iota
	// StateConnecting is when media is being acquired and the channel dialed.
	StateConnecting
	// StateOpen is when the channel is established and media flows both ways.
	StateOpen
	// StateClosing is when a local deactivation is tearing the session down.
	StateClosing
	// StateClosed is when the remote side ended the session.
	StateClosed
	// StateErrored is when the session failed; the error message is retained
	// through the transition back to idle.
	StateErrored
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	case StateErrored:
		return "ERRORED"
	default:
		return "UNKNOWN"
	}
}

const (
	// InputSampleRate is the microphone capture rate in Hz.
	InputSampleRate = 16000
	// InputBlockSize is the number of float32 samples per outbound audio block.
	InputBlockSize = 4096
	// OutputSampleRate is the default playback rate for model audio in Hz.
	OutputSampleRate = 24000
)

// DefaultModel is the live conversation model.
const DefaultModel = "gemini-2.5-flash-native-audio-preview-12-2025"

// DefaultVoice is the prebuilt voice used for model speech.
const DefaultVoice = "Zephyr"

// DefaultSystemInstruction steers the model into the personal stylist role.
const DefaultSystemInstruction = `You are a world-class AI fashion stylist having a friendly, real-time voice conversation. Your goal is to provide helpful, concise, and encouraging feedback on a user's outfit as you see it through their camera. Keep your responses short and conversational.

Analyze the outfit in the image and comment on what you see. Provide actionable suggestions for improvement. Acknowledge the user's speech and respond naturally.

If the image is unclear, the person is not wearing a clear outfit, or the image is inappropriate, politely ask them to adjust the camera.`

// Speaker identifies which side of the conversation produced a transcript.
type Speaker string

const (
	// SpeakerUser is the person talking into the microphone.
	SpeakerUser Speaker = "user"
	// SpeakerModel is the remote model.
	SpeakerModel Speaker = "model"
)

// Turn is one committed utterance of the conversation.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Status is a snapshot of the conversational flow, suitable for driving UI
// indicators.
type Status struct {
	// State is the current lifecycle state.
	State SessionState `json:"state"`
	// Listening is true while the model is transcribing user speech.
	Listening bool `json:"listening"`
	// Speaking is true while model audio is arriving or playing.
	Speaking bool `json:"speaking"`
	// InputLevel is the RMS energy of the last microphone block, 0.0 to 1.0.
	InputLevel float64 `json:"input_level"`
	// Err holds the most recent session error message, if any.
	Err string `json:"err,omitempty"`
}

// SessionConfig holds all configuration for a live session.
type SessionConfig struct {
	// APIKey authenticates the channel. Required.
	APIKey string `json:"-"`

	// Model is the live conversation model.
	Model string `json:"model"`

	// Voice selects the prebuilt voice for model speech.
	Voice string `json:"voice"`

	// SystemInstruction is the system prompt establishing the model's role.
	SystemInstruction string `json:"system_instruction,omitempty"`

	// VideoInterval is how often a camera frame is sent. Zero disables video.
	VideoInterval time.Duration `json:"video_interval"`

	// JPEGQuality is the encoder quality for outbound frames, 1 to 100.
	JPEGQuality int `json:"jpeg_quality"`

	// OnTurn is invoked for each committed conversation turn, in order.
	OnTurn func(Turn) `json:"-"`

	// OnStatus is invoked whenever the session status changes.
	OnStatus func(Status) `json:"-"`
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Model:             DefaultModel,
		Voice:             DefaultVoice,
		SystemInstruction: DefaultSystemInstruction,
		VideoInterval:     time.Second,
		JPEGQuality:       80,
	}
}

// AudioConfig specifies audio format parameters.
type AudioConfig struct {
	// SampleRate in Hz. Common values: 16000, 24000, 44100, 48000.
	SampleRate int `json:"sample_rate"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `json:"channels"`

	// BitsPerSample: typically 16 for PCM.
	BitsPerSample int `json:"bits_per_sample"`
}

// InputAudioConfig returns the microphone capture format.
func InputAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate:    InputSampleRate,
		Channels:      1,
		BitsPerSample: 16,
	}
}

// OutputAudioConfig returns the default playback format for model audio.
func OutputAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate:    OutputSampleRate,
		Channels:      1,
		BitsPerSample: 16,
	}
}

// BytesPerSecond returns the audio byte rate.
func (c AudioConfig) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// DurationMs returns the duration in milliseconds for the given byte count.
func (c AudioConfig) DurationMs(bytes int) int {
	if c.BytesPerSecond() == 0 {
		return 0
	}
	return (bytes * 1000) / c.BytesPerSecond()
}

// Duration returns the playback duration of the given byte count.
func (c AudioConfig) Duration(bytes int) time.Duration {
	bps := c.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(bytes) * time.Second / time.Duration(bps)
}

// BytesForDurationMs returns the byte count for the given duration in milliseconds.
func (c AudioConfig) BytesForDurationMs(ms int) int {
	return (c.BytesPerSecond() * ms) / 1000
}
