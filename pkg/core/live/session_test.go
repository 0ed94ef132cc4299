package live

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeMic struct {
	mu      sync.Mutex
	onBlock func([]float32)
	stops   int
}

func (m *fakeMic) Start(onBlock func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onBlock = onBlock
	return nil
}

func (m *fakeMic) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

func (m *fakeMic) emit(block []float32) {
	m.mu.Lock()
	onBlock := m.onBlock
	m.mu.Unlock()
	if onBlock != nil {
		onBlock(block)
	}
}

type fakeCamera struct {
	mu    sync.Mutex
	frame []byte
}

func (c *fakeCamera) Frame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

type fakeAdapter struct {
	mu       sync.Mutex
	mic      *fakeMic
	camera   Camera
	err      error
	releases int

	inRelease  atomic.Int32
	overlapped atomic.Bool
}

func (a *fakeAdapter) Acquire(ctx context.Context) (Media, error) {
	if a.err != nil {
		return Media{}, a.err
	}
	return Media{Mic: a.mic, Camera: a.camera}, nil
}

func (a *fakeAdapter) Release() error {
	// A second goroutine entering while one is still releasing is a bug in
	// the caller's teardown serialization.
	if a.inRelease.Add(1) > 1 {
		a.overlapped.Store(true)
	}
	time.Sleep(2 * time.Millisecond)
	a.inRelease.Add(-1)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.releases++
	return nil
}

func (a *fakeAdapter) released() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.releases
}

type fakeChannel struct {
	mu     sync.Mutex
	events chan Event
	sent   []Blob
	closed bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{events: make(chan Event, 32)}
}

func (c *fakeChannel) Events() <-chan Event { return c.events }

func (c *fakeChannel) SendRealtimeInput(blob Blob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, blob)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return nil
}

func (c *fakeChannel) push(ev Event) { c.events <- ev }

func (c *fakeChannel) sentBlobs() []Blob {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Blob, len(c.sent))
	copy(out, c.sent)
	return out
}

type harness struct {
	mic     *fakeMic
	camera  *fakeCamera
	adapter *fakeAdapter
	channel *fakeChannel
	sink    *fakeSink
	ctrl    *Controller

	mu       sync.Mutex
	turns    []Turn
	statuses []Status
}

func newHarness(t *testing.T, mutate func(*SessionConfig)) *harness {
	t.Helper()
	h := &harness{
		mic:    &fakeMic{},
		camera: &fakeCamera{},
		sink:   &fakeSink{},
	}
	h.adapter = &fakeAdapter{mic: h.mic, camera: h.camera}

	cfg := DefaultSessionConfig()
	cfg.APIKey = "test-key"
	cfg.VideoInterval = 0
	cfg.OnTurn = func(turn Turn) {
		h.mu.Lock()
		h.turns = append(h.turns, turn)
		h.mu.Unlock()
	}
	cfg.OnStatus = func(st Status) {
		h.mu.Lock()
		h.statuses = append(h.statuses, st)
		h.mu.Unlock()
	}
	if mutate != nil {
		mutate(&cfg)
	}

	dial := func(ctx context.Context, cc ChannelConfig) (Channel, error) {
		ch := newFakeChannel()
		h.mu.Lock()
		h.channel = ch
		h.mu.Unlock()
		return ch, nil
	}

	h.ctrl = NewController(cfg, Deps{
		Media:  h.adapter,
		Sink:   h.sink,
		Dial:   dial,
		Logger: zerolog.Nop(),
	})
	return h
}

func (h *harness) activeChannel() *fakeChannel {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.channel
}

func (h *harness) committedTurns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

func (h *harness) lastStatus() (Status, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.statuses) == 0 {
		return Status{}, false
	}
	return h.statuses[len(h.statuses)-1], true
}

func TestController_ActivateOpensSession(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	defer h.ctrl.Deactivate()

	if got := h.ctrl.State(); got != StateOpen {
		t.Errorf("State() = %v, want OPEN", got)
	}
	if err := h.ctrl.Activate(context.Background()); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Activate() error = %v, want ErrSessionActive", err)
	}
}

func TestController_MicBlocksSentWhileOpen(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	block := make([]float32, InputBlockSize)
	for i := range block {
		block[i] = 0.25
	}
	h.mic.emit(block)

	ch := h.activeChannel()
	waitUntil(t, time.Second, func() bool { return len(ch.sentBlobs()) == 1 })
	if got := ch.sentBlobs()[0].MimeType; got != AudioBlockMimeType {
		t.Errorf("sent mime = %q, want %q", got, AudioBlockMimeType)
	}

	h.ctrl.Deactivate()
	h.mic.emit(block)
	time.Sleep(20 * time.Millisecond)
	if got := len(ch.sentBlobs()); got != 1 {
		t.Errorf("blocks sent after deactivate: %d, want 1", got)
	}
}

func TestController_VideoFramesSent(t *testing.T) {
	h := newHarness(t, func(cfg *SessionConfig) {
		cfg.VideoInterval = 10 * time.Millisecond
	})
	h.camera.frame = []byte{0xFF, 0xD8, 0x01, 0xFF, 0xD9}

	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	defer h.ctrl.Deactivate()

	ch := h.activeChannel()
	waitUntil(t, time.Second, func() bool {
		for _, blob := range ch.sentBlobs() {
			if blob.MimeType == VideoFrameMimeType {
				return true
			}
		}
		return false
	})
}

func TestController_TurnCommit(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	defer h.ctrl.Deactivate()

	ch := h.activeChannel()
	ch.push(&InputTranscriptionEvent{Text: "Nice "})
	ch.push(&InputTranscriptionEvent{Text: "jacket"})
	ch.push(&OutputTranscriptionEvent{Text: "Thanks, it "})
	ch.push(&OutputTranscriptionEvent{Text: "suits you."})
	ch.push(&TurnCompleteEvent{})

	waitUntil(t, time.Second, func() bool { return len(h.committedTurns()) == 2 })

	turns := h.committedTurns()
	if turns[0].Speaker != SpeakerUser || turns[0].Text != "Nice jacket" {
		t.Errorf("turn 0 = %+v, want user %q", turns[0], "Nice jacket")
	}
	if turns[1].Speaker != SpeakerModel || turns[1].Text != "Thanks, it suits you." {
		t.Errorf("turn 1 = %+v, want model %q", turns[1], "Thanks, it suits you.")
	}
}

func TestController_StatusFlags(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	defer h.ctrl.Deactivate()

	ch := h.activeChannel()
	ch.push(&InputTranscriptionEvent{Text: "hello"})
	waitUntil(t, time.Second, func() bool { return h.ctrl.Status().Listening })

	ch.push(&AudioChunkEvent{Data: make([]byte, 480), SampleRate: OutputSampleRate})
	waitUntil(t, time.Second, func() bool {
		st := h.ctrl.Status()
		return st.Speaking && !st.Listening
	})

	ch.push(&TurnCompleteEvent{})
	waitUntil(t, time.Second, func() bool {
		st := h.ctrl.Status()
		return !st.Speaking && !st.Listening
	})
}

func TestController_InterruptedKeepsTranscript(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	defer h.ctrl.Deactivate()

	ch := h.activeChannel()
	ch.push(&OutputTranscriptionEvent{Text: "As I was say"})
	ch.push(&AudioChunkEvent{Data: make([]byte, 48000), SampleRate: OutputSampleRate})
	ch.push(&InterruptedEvent{})
	ch.push(&InputTranscriptionEvent{Text: "actually, stop"})
	ch.push(&TurnCompleteEvent{})

	waitUntil(t, time.Second, func() bool { return len(h.committedTurns()) == 2 })

	turns := h.committedTurns()
	if turns[1].Speaker != SpeakerModel || !strings.Contains(turns[1].Text, "As I was say") {
		t.Errorf("interrupted model fragment lost: %+v", turns[1])
	}
}

func TestController_DeactivateIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	h.ctrl.Deactivate()
	h.ctrl.Deactivate()

	if got := h.ctrl.State(); got != StateIdle {
		t.Errorf("State() = %v, want IDLE", got)
	}
	if h.adapter.released() != 1 {
		t.Errorf("adapter released %d times, want 1", h.adapter.released())
	}
}

func TestController_RemoteErrorOverlappingDeactivate(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := newHarness(t, nil)
		if err := h.ctrl.Activate(context.Background()); err != nil {
			t.Fatalf("iteration %d: Activate() error = %v", i, err)
		}

		h.activeChannel().push(&ErrorEvent{Err: errors.New("stream reset")})
		time.Sleep(time.Duration(i%5) * time.Millisecond)
		h.ctrl.Deactivate()

		waitUntil(t, time.Second, func() bool { return h.ctrl.State() == StateIdle })
		if h.adapter.overlapped.Load() {
			t.Fatalf("iteration %d: Media.Release entered concurrently", i)
		}
		if got := h.adapter.released(); got != 1 {
			t.Fatalf("iteration %d: adapter released %d times, want 1", i, got)
		}
	}
}

func TestController_RemoteClose(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	h.activeChannel().push(&ClosedEvent{Reason: "server going away"})
	waitUntil(t, time.Second, func() bool { return h.ctrl.State() == StateIdle })

	// A fresh session can be started after a remote close.
	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("reactivate after remote close: %v", err)
	}
	h.ctrl.Deactivate()
}

func TestController_ErrorRetained(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	h.activeChannel().push(&ErrorEvent{Err: errors.New("stream reset")})
	waitUntil(t, time.Second, func() bool { return h.ctrl.State() == StateIdle })

	if got := h.ctrl.Err(); got != "stream reset" {
		t.Errorf("Err() = %q, want %q", got, "stream reset")
	}

	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("reactivate after error: %v", err)
	}
	defer h.ctrl.Deactivate()
	if got := h.ctrl.Err(); got != "" {
		t.Errorf("Err() after reactivation = %q, want empty", got)
	}
}

func TestController_AcquireFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.adapter.err = errors.New("no microphone")

	if err := h.ctrl.Activate(context.Background()); err == nil {
		t.Fatal("Activate() succeeded with failing media adapter")
	}
	if got := h.ctrl.State(); got != StateIdle {
		t.Errorf("State() = %v, want IDLE", got)
	}
	if got := h.ctrl.Err(); got != "no microphone" {
		t.Errorf("Err() = %q, want %q", got, "no microphone")
	}
}

func TestController_TranscriptResetOnActivate(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	ch := h.activeChannel()
	ch.push(&InputTranscriptionEvent{Text: "first session"})
	ch.push(&TurnCompleteEvent{})
	waitUntil(t, time.Second, func() bool { return len(h.ctrl.Turns()) == 1 })

	h.ctrl.Deactivate()
	if len(h.ctrl.Turns()) != 1 {
		t.Error("transcript should survive deactivation")
	}

	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	defer h.ctrl.Deactivate()
	if len(h.ctrl.Turns()) != 0 {
		t.Error("transcript should be cleared on activation")
	}
}

func TestController_StatusCallbackSeesLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	h.ctrl.Deactivate()

	st, ok := h.lastStatus()
	if !ok {
		t.Fatal("no status callbacks received")
	}
	if st.State != StateIdle {
		t.Errorf("final status state = %v, want IDLE", st.State)
	}

	h.mu.Lock()
	var sawConnecting, sawOpen bool
	for _, s := range h.statuses {
		if s.State == StateConnecting {
			sawConnecting = true
		}
		if s.State == StateOpen {
			sawOpen = true
		}
	}
	h.mu.Unlock()
	if !sawConnecting || !sawOpen {
		t.Errorf("lifecycle states missing: connecting=%v open=%v", sawConnecting, sawOpen)
	}
}
