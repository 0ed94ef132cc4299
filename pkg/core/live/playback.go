package live

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var errSchedulerClosed = errors.New("scheduler is shut down")

// Scheduler queues inbound audio chunks for gapless playback against a
// virtual clock. Each chunk starts at the later of the queue's tail and the
// current time, so back-to-back chunks play seamlessly while a gap in the
// stream simply restarts playback at "now".
type Scheduler struct {
	mu     sync.Mutex
	sink   Sink
	logger zerolog.Logger

	// now is the virtual clock, measured from an arbitrary epoch.
	now func() time.Duration

	nextStart time.Duration
	active    map[*scheduledChunk]struct{}
	closed    bool
}

type scheduledChunk struct {
	start    time.Duration
	duration time.Duration
	startT   *time.Timer
	doneT    *time.Timer
	handle   Playback
}

// NewScheduler creates a scheduler playing through sink.
func NewScheduler(sink Sink, logger zerolog.Logger) *Scheduler {
	epoch := time.Now()
	return &Scheduler{
		sink:   sink,
		logger: logger,
		now:    func() time.Duration { return time.Since(epoch) },
		active: make(map[*scheduledChunk]struct{}),
	}
}

// Enqueue schedules one chunk and returns its start time on the virtual
// clock. Chunks enqueued in order never overlap and never leave a gap
// between them.
func (s *Scheduler) Enqueue(chunk *AudioChunkEvent) (time.Duration, error) {
	cfg := chunk.Config()
	dur := cfg.Duration(len(chunk.Data))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, errSchedulerClosed
	}

	now := s.now()
	start := s.nextStart
	if now > start {
		start = now
	}
	s.nextStart = start + dur

	sc := &scheduledChunk{start: start, duration: dur}
	s.active[sc] = struct{}{}

	data := chunk.Data
	sc.startT = time.AfterFunc(start-now, func() {
		s.begin(sc, data, cfg)
	})
	s.mu.Unlock()

	return start, nil
}

func (s *Scheduler) begin(sc *scheduledChunk, data []byte, cfg AudioConfig) {
	s.mu.Lock()
	if _, ok := s.active[sc]; !ok {
		// Interrupted before the start timer fired.
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	handle, err := s.sink.Play(data, cfg)
	if err != nil {
		s.logger.Warn().Err(err).Msg("audio sink rejected chunk")
		s.mu.Lock()
		delete(s.active, sc)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if _, ok := s.active[sc]; !ok {
		// Interrupted while the sink was starting up.
		s.mu.Unlock()
		handle.Stop()
		return
	}
	sc.handle = handle
	sc.doneT = time.AfterFunc(sc.duration, func() {
		s.finish(sc)
	})
	s.mu.Unlock()
}

func (s *Scheduler) finish(sc *scheduledChunk) {
	s.mu.Lock()
	if _, ok := s.active[sc]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.active, sc)
	handle := sc.handle
	s.mu.Unlock()

	if handle != nil {
		handle.Stop()
	}
}

// Interrupt discards every queued and playing chunk and rewinds the queue,
// so the next chunk starts immediately.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	var handles []Playback
	for sc := range s.active {
		if sc.startT != nil {
			sc.startT.Stop()
		}
		if sc.doneT != nil {
			sc.doneT.Stop()
		}
		if sc.handle != nil {
			handles = append(handles, sc.handle)
		}
	}
	s.active = make(map[*scheduledChunk]struct{})
	s.nextStart = 0
	s.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

// Playing reports whether any chunk is queued or playing.
func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) > 0
}

// Shutdown interrupts all playback and closes the sink. Safe to call more
// than once.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Interrupt()
	return s.sink.Close()
}
