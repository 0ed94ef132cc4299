package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/internal/metrics"
)

// ErrSessionActive is returned by Activate when a session is already running.
var ErrSessionActive = errors.New("live session is already active")

// Deps are the external collaborators a Controller drives. Media, Sink and
// Dial are required; Metrics may be nil.
type Deps struct {
	Media   MediaAdapter
	Sink    Sink
	Dial    Dialer
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Controller orchestrates one live session at a time: it acquires capture
// devices, dials the channel, pumps microphone and camera media out, and
// dispatches inbound events to the playback scheduler and transcript
// aggregator. All exported methods are safe for concurrent use.
type Controller struct {
	cfg  SessionConfig
	deps Deps

	mu         sync.Mutex
	state      SessionState
	errMsg     string
	generation int

	channel    Channel
	media      Media
	scheduler  *Scheduler
	transcript *TranscriptAggregator
	stopVideo  chan struct{}

	listening  bool
	speaking   bool
	inputLevel float64
}

// NewController creates an idle controller.
func NewController(cfg SessionConfig, deps Deps) *Controller {
	return &Controller{
		cfg:        cfg,
		deps:       deps,
		state:      StateIdle,
		transcript: NewTranscriptAggregator(),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the most recent session error message, if any. It is retained
// after the session returns to idle and cleared on the next activation.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Status returns a snapshot of the conversational flow.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Turns returns all committed conversation turns in order. The transcript
// survives session teardown and is cleared on the next activation.
func (c *Controller) Turns() []Turn {
	return c.transcript.Turns()
}

func (c *Controller) statusLocked() Status {
	return Status{
		State:      c.state,
		Listening:  c.listening,
		Speaking:   c.speaking,
		InputLevel: c.inputLevel,
		Err:        c.errMsg,
	}
}

func (c *Controller) notify(st Status) {
	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(st)
	}
}

// Activate acquires media, dials the channel and starts streaming. It
// returns once the session is open, or with an error after cleanup. Only an
// idle controller can be activated; a second concurrent session is refused.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.generation++
	gen := c.generation
	c.state = StateConnecting
	c.errMsg = ""
	c.listening = false
	c.speaking = false
	c.inputLevel = 0
	c.transcript.Reset()
	st := c.statusLocked()
	c.mu.Unlock()
	c.notify(st)

	c.deps.Logger.Info().Str("model", c.cfg.Model).Msg("activating live session")

	media, err := c.deps.Media.Acquire(ctx)
	if err != nil {
		c.deps.Logger.Error().Err(err).Msg("media acquisition failed")
		return c.fail(gen, err)
	}
	if media.CameraErr != "" {
		c.deps.Logger.Warn().Str("reason", media.CameraErr).Msg("camera unavailable, continuing audio-only")
	}

	channel, err := c.deps.Dial(ctx, ChannelConfig{
		APIKey:            c.cfg.APIKey,
		Model:             c.cfg.Model,
		Voice:             c.cfg.Voice,
		SystemInstruction: c.cfg.SystemInstruction,
	})
	if err != nil {
		c.deps.Logger.Error().Err(err).Msg("channel dial failed")
		c.deps.Media.Release()
		return c.fail(gen, err)
	}

	c.mu.Lock()
	if c.generation != gen {
		// Deactivated while connecting.
		c.mu.Unlock()
		channel.Close()
		c.deps.Media.Release()
		return errors.New("live session cancelled during connect")
	}
	c.channel = channel
	c.media = media
	c.scheduler = NewScheduler(c.deps.Sink, c.deps.Logger)
	c.stopVideo = make(chan struct{})
	c.state = StateOpen
	st = c.statusLocked()
	stopVideo := c.stopVideo
	c.mu.Unlock()
	c.notify(st)

	if err := media.Mic.Start(func(block []float32) {
		c.onMicBlock(gen, block)
	}); err != nil {
		c.deps.Logger.Error().Err(err).Msg("microphone start failed")
		channel.Close()
		c.deps.Media.Release()
		return c.fail(gen, err)
	}

	if media.Camera != nil && c.cfg.VideoInterval > 0 {
		go c.videoLoop(gen, media.Camera, stopVideo)
	}
	go c.dispatch(gen, channel)

	if m := c.deps.Metrics; m != nil {
		m.SessionActive.Set(1)
	}
	c.deps.Logger.Info().Msg("live session open")
	return nil
}

// fail moves a partially-activated session to ERRORED and back to idle,
// retaining the error message.
func (c *Controller) fail(gen int, err error) error {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return err
	}
	c.state = StateErrored
	c.errMsg = err.Error()
	c.channel = nil
	c.media = Media{}
	c.scheduler = nil
	c.stopVideo = nil
	st := c.statusLocked()
	c.mu.Unlock()
	c.notify(st)

	if m := c.deps.Metrics; m != nil {
		m.SessionErrors.Inc()
	}

	c.mu.Lock()
	c.state = StateIdle
	c.listening = false
	c.speaking = false
	c.inputLevel = 0
	st = c.statusLocked()
	c.mu.Unlock()
	c.notify(st)
	return err
}

// Deactivate tears the session down and returns the controller to idle.
// Calling it on an idle controller is a no-op, as is calling it while a
// teardown is already running on another goroutine.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	switch c.state {
	case StateIdle, StateClosing, StateClosed, StateErrored:
		c.mu.Unlock()
		return
	}
	c.generation++
	c.state = StateClosing
	st := c.statusLocked()
	channel := c.channel
	media := c.media
	scheduler := c.scheduler
	stopVideo := c.stopVideo
	c.channel = nil
	c.media = Media{}
	c.scheduler = nil
	c.stopVideo = nil
	c.mu.Unlock()
	c.notify(st)

	c.teardown(channel, media, scheduler, stopVideo)

	c.mu.Lock()
	c.state = StateIdle
	c.listening = false
	c.speaking = false
	c.inputLevel = 0
	st = c.statusLocked()
	c.mu.Unlock()
	c.notify(st)
	c.deps.Logger.Info().Msg("live session closed")
}

func (c *Controller) teardown(channel Channel, media Media, scheduler *Scheduler, stopVideo chan struct{}) {
	if stopVideo != nil {
		close(stopVideo)
	}
	if media.Mic != nil {
		media.Mic.Stop()
	}
	if channel != nil {
		channel.Close()
	}
	if scheduler != nil {
		scheduler.Interrupt()
	}
	c.deps.Media.Release()
	if m := c.deps.Metrics; m != nil {
		m.SessionActive.Set(0)
	}
}

func (c *Controller) onMicBlock(gen int, block []float32) {
	c.mu.Lock()
	if c.generation != gen || c.state != StateOpen {
		c.mu.Unlock()
		if m := c.deps.Metrics; m != nil {
			m.AudioBlocksDropped.Inc()
		}
		return
	}
	c.inputLevel = BlockRMS(block)
	channel := c.channel
	st := c.statusLocked()
	c.mu.Unlock()
	c.notify(st)

	if err := channel.SendRealtimeInput(EncodeAudioBlock(block)); err != nil {
		c.deps.Logger.Warn().Err(err).Msg("audio block send failed")
		return
	}
	if m := c.deps.Metrics; m != nil {
		m.AudioBlocksSent.Inc()
	}
}

func (c *Controller) videoLoop(gen int, camera Camera, stop chan struct{}) {
	ticker := time.NewTicker(c.cfg.VideoInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		frame := camera.Frame()
		if frame == nil {
			continue
		}
		blob, err := EncodeVideoFrame(frame)
		if err != nil {
			c.deps.Logger.Warn().Err(err).Msg("video frame rejected")
			continue
		}

		c.mu.Lock()
		if c.generation != gen || c.state != StateOpen {
			c.mu.Unlock()
			return
		}
		channel := c.channel
		c.mu.Unlock()

		if err := channel.SendRealtimeInput(blob); err != nil {
			c.deps.Logger.Warn().Err(err).Msg("video frame send failed")
			continue
		}
		if m := c.deps.Metrics; m != nil {
			m.FramesSent.Inc()
		}
	}
}

func (c *Controller) dispatch(gen int, channel Channel) {
	for event := range channel.Events() {
		c.handleEvent(gen, event)
	}
}

func (c *Controller) handleEvent(gen int, event Event) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}

	var (
		turns    []Turn
		notifySt bool
	)

	switch e := event.(type) {
	case *InputTranscriptionEvent:
		c.transcript.Append(SpeakerUser, e.Text)
		if !c.listening {
			c.listening = true
			notifySt = true
		}

	case *OutputTranscriptionEvent:
		c.transcript.Append(SpeakerModel, e.Text)
		if c.listening || !c.speaking {
			c.listening = false
			c.speaking = true
			notifySt = true
		}

	case *AudioChunkEvent:
		if c.scheduler != nil {
			if _, err := c.scheduler.Enqueue(e); err == nil {
				if m := c.deps.Metrics; m != nil {
					m.ChunksScheduled.Inc()
				}
			}
		}
		if c.listening || !c.speaking {
			c.listening = false
			c.speaking = true
			notifySt = true
		}

	case *InterruptedEvent:
		c.deps.Logger.Debug().Msg("model audio interrupted")
		if c.scheduler != nil {
			c.scheduler.Interrupt()
		}
		if m := c.deps.Metrics; m != nil {
			m.PlaybackInterrupts.Inc()
		}

	case *TurnCompleteEvent:
		turns = c.transcript.CompleteTurn()
		c.listening = false
		c.speaking = false
		notifySt = true
		if m := c.deps.Metrics; m != nil {
			m.TurnsCommitted.Add(float64(len(turns)))
		}

	case *ErrorEvent:
		c.deps.Logger.Error().Err(e.Err).Msg("channel error")
		c.remoteEndLocked(StateErrored, e.Err.Error())
		return

	case *ClosedEvent:
		c.deps.Logger.Info().Str("reason", e.Reason).Msg("channel closed by server")
		c.remoteEndLocked(StateClosed, "")
		return
	}

	st := c.statusLocked()
	c.mu.Unlock()

	if notifySt {
		c.notify(st)
	}
	if c.cfg.OnTurn != nil {
		for _, turn := range turns {
			c.cfg.OnTurn(turn)
		}
	}
}

// remoteEndLocked handles a session ended by the remote side. Called with
// the mutex held; releases it.
func (c *Controller) remoteEndLocked(terminal SessionState, errMsg string) {
	c.generation++
	c.state = terminal
	c.errMsg = errMsg
	channel := c.channel
	media := c.media
	scheduler := c.scheduler
	stopVideo := c.stopVideo
	c.channel = nil
	c.media = Media{}
	c.scheduler = nil
	c.stopVideo = nil
	st := c.statusLocked()
	c.mu.Unlock()
	c.notify(st)

	if terminal == StateErrored {
		if m := c.deps.Metrics; m != nil {
			m.SessionErrors.Inc()
		}
	}

	c.teardown(channel, media, scheduler, stopVideo)

	c.mu.Lock()
	c.state = StateIdle
	c.listening = false
	c.speaking = false
	c.inputLevel = 0
	st = c.statusLocked()
	c.mu.Unlock()
	c.notify(st)
}
