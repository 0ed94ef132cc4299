package live

import "context"

// Microphone captures audio as blocks of float32 samples in [-1, 1] at
// InputSampleRate, InputBlockSize samples per block.
type Microphone interface {
	// Start begins capture, invoking onBlock for every full block. The
	// callback must not retain the slice past its return.
	Start(onBlock func(block []float32)) error

	// Stop halts capture. Safe to call more than once.
	Stop() error
}

// Camera provides the most recent still frame.
type Camera interface {
	// Frame returns the latest captured JPEG, or nil if none is available yet.
	Frame() []byte
}

// Media is the set of capture devices acquired for a session.
type Media struct {
	Mic Microphone

	// Camera is nil when video capture is unavailable. The session proceeds
	// audio-only in that case.
	Camera Camera

	// CameraErr describes why the camera is missing, for surfacing to the user.
	CameraErr string
}

// MediaAdapter acquires and releases capture devices.
type MediaAdapter interface {
	// Acquire opens the devices. A missing camera is reported through
	// Media.CameraErr rather than an error; a missing microphone fails.
	Acquire(ctx context.Context) (Media, error)

	// Release closes all acquired devices. Safe to call more than once.
	Release() error
}

// Playback is a handle to one in-flight audio chunk.
type Playback interface {
	// Stop halts the chunk immediately.
	Stop()
}

// Sink plays raw PCM audio.
type Sink interface {
	// Play starts immediate playback of s16le PCM and returns a handle to it.
	Play(pcm []byte, cfg AudioConfig) (Playback, error)

	// Close stops all playback and releases the output device.
	Close() error
}
