// Package live implements real-time bidirectional voice and video conversations.
//
// A live session streams microphone audio and periodic camera frames to a
// remote model over a bidirectional channel, and plays the model's audio
// response back gaplessly while surfacing rolling transcripts for both sides.
//
// # Architecture
//
// The live package provides several core components:
//
//   - Controller: The main orchestrator driving the session lifecycle
//   - Scheduler: Queues inbound audio chunks for gapless playback
//   - TranscriptAggregator: Accumulates transcription fragments into turns
//   - Channel: The bidirectional transport abstraction (see pkg/gemini)
//   - MediaAdapter: Capture device abstraction (see internal/capture)
//
// # Data Flow
//
//	Mic (16 kHz f32 blocks) → EncodeAudioBlock → Channel.SendRealtimeInput
//	Camera (JPEG, 1/s)      → EncodeVideoFrame → Channel.SendRealtimeInput
//
//	Channel.Events() → Controller dispatch → Scheduler (audio)
//	                                       → TranscriptAggregator (text)
//
// # State Machine
//
// The session progresses through these states:
//
//	IDLE → CONNECTING → OPEN → CLOSING → IDLE
//	           │          │
//	           └──────────┴──→ ERRORED → IDLE
//
// An OPEN session that the server closes transitions through CLOSED before
// returning to IDLE.
//
// # Usage
//
//	cfg := live.DefaultSessionConfig()
//	cfg.OnTurn = func(turn live.Turn) {
//	    fmt.Printf("[%s] %s\n", turn.Speaker, turn.Text)
//	}
//
//	ctrl := live.NewController(cfg, live.Deps{
//	    Media: adapter,
//	    Sink:  speaker,
//	    Dial:  gemini.Dial,
//	})
//
//	if err := ctrl.Activate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Deactivate()
package live
