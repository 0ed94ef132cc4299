package capture

import (
	"bytes"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core"
	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core/live"
)

// speakerBufferDuration is the device buffer depth. 100ms keeps scheduling
// latency well under one audio chunk.
const speakerBufferDuration = 100 * time.Millisecond

// oto allows one context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func speakerContextOptions() *oto.NewContextOptions {
	return &oto.NewContextOptions{
		SampleRate:   live.OutputSampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   speakerBufferDuration,
	}
}

func speakerContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(speakerContextOptions())
		if err != nil {
			otoErr = core.NewDeviceUnavailableError("speaker unavailable: " + err.Error())
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// Speaker plays model audio through the default output device. It implements
// live.Sink.
type Speaker struct {
	ctx *oto.Context

	mu      sync.Mutex
	players map[*oto.Player]struct{}
	closed  bool
}

// NewSpeaker opens the output device.
func NewSpeaker() (*Speaker, error) {
	ctx, err := speakerContext()
	if err != nil {
		return nil, err
	}
	return &Speaker{
		ctx:     ctx,
		players: make(map[*oto.Player]struct{}),
	}, nil
}

// Play starts immediate playback of s16le PCM.
func (s *Speaker) Play(pcm []byte, cfg live.AudioConfig) (live.Playback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.NewDeviceUnavailableError("speaker is closed")
	}

	player := s.ctx.NewPlayer(bytes.NewReader(pcm))
	s.players[player] = struct{}{}
	player.Play()
	return &speakerPlayback{speaker: s, player: player}, nil
}

// Close stops all playback. The underlying output device stays open for the
// lifetime of the process.
func (s *Speaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	players := make([]*oto.Player, 0, len(s.players))
	for p := range s.players {
		players = append(players, p)
	}
	s.players = nil
	s.mu.Unlock()

	for _, p := range players {
		p.Close()
	}
	return nil
}

func (s *Speaker) release(player *oto.Player) {
	s.mu.Lock()
	if s.players != nil {
		delete(s.players, player)
	}
	s.mu.Unlock()
}

type speakerPlayback struct {
	speaker *Speaker
	player  *oto.Player
	once    sync.Once
}

func (p *speakerPlayback) Stop() {
	p.once.Do(func() {
		p.player.Close()
		p.speaker.release(p.player)
	})
}
