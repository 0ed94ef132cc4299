package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core"
	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core/live"
)

// DefaultEndpoint is the Gemini Live WebSocket endpoint.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

const defaultConnectTimeout = 15 * time.Second

// Option customizes the dialer.
type Option func(*dialerOptions)

type dialerOptions struct {
	endpoint string
	logger   zerolog.Logger
}

// WithEndpoint overrides the WebSocket endpoint. Used for testing against a
// local server.
func WithEndpoint(endpoint string) Option {
	return func(o *dialerOptions) { o.endpoint = endpoint }
}

// WithLogger sets the logger for channel-level diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *dialerOptions) { o.logger = logger }
}

// NewDialer returns a live.Dialer bound to the given options.
func NewDialer(opts ...Option) live.Dialer {
	options := dialerOptions{
		endpoint: DefaultEndpoint,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return func(ctx context.Context, cfg live.ChannelConfig) (live.Channel, error) {
		return dial(ctx, cfg, options)
	}
}

// Dial opens a live channel with default options. It satisfies live.Dialer.
func Dial(ctx context.Context, cfg live.ChannelConfig) (live.Channel, error) {
	return dial(ctx, cfg, dialerOptions{endpoint: DefaultEndpoint, logger: zerolog.Nop()})
}

func dial(ctx context.Context, cfg live.ChannelConfig, opts dialerOptions) (live.Channel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key must not be empty")
	}
	if cfg.Model == "" {
		return nil, errors.New("model must not be empty")
	}

	wsURL := opts.endpoint + "?key=" + url.QueryEscape(cfg.APIKey)

	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, core.NewConnectionError(
				fmt.Sprintf("websocket dial failed (status %d)", resp.StatusCode), err)
		}
		return nil, core.NewConnectionError("websocket dial failed", err)
	}

	if err := conn.WriteJSON(buildSetup(cfg)); err != nil {
		conn.Close()
		return nil, core.NewConnectionError("send session setup", err)
	}

	conn.SetReadDeadline(time.Now().Add(defaultConnectTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, core.NewConnectionError("read setup acknowledgement", err)
	}
	conn.SetReadDeadline(time.Time{})

	var first serverMessage
	if err := json.Unmarshal(payload, &first); err != nil {
		conn.Close()
		return nil, core.NewMalformedResponseError("undecodable setup acknowledgement: " + err.Error())
	}
	if first.SetupComplete == nil {
		conn.Close()
		return nil, core.NewConnectionError("server did not acknowledge session setup", nil)
	}

	ch := &channel{
		conn:   conn,
		events: make(chan live.Event, 256),
		stop:   make(chan struct{}),
		logger: opts.logger,
	}
	go ch.readLoop()
	return ch, nil
}

// channel is an open BidiGenerateContent stream.
type channel struct {
	conn   *websocket.Conn
	events chan live.Event
	stop   chan struct{}
	logger zerolog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
}

func (c *channel) Events() <-chan live.Event { return c.events }

func (c *channel) SendRealtimeInput(blob live.Blob) error {
	if c.closed.Load() {
		return errors.New("channel is closed")
	}
	msg := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{MimeType: blob.MimeType, Data: blob.Data}},
		},
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *channel) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.stop)
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		c.writeMu.Unlock()
		c.conn.Close()
	})
	return nil
}

func (c *channel) readLoop() {
	defer close(c.events)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if closeErr := (&websocket.CloseError{}); errors.As(err, &closeErr) {
				c.emit(&live.ClosedEvent{Reason: closeErr.Text})
			} else {
				c.emit(&live.ErrorEvent{Err: core.NewConnectionError("stream read failed", err)})
			}
			return
		}

		msg, err := parseServerMessage(data)
		if err != nil {
			// Malformed frames are skipped, not fatal.
			c.logger.Warn().Err(err).Msg("skipping malformed server frame")
			continue
		}
		if msg.GoAway != nil {
			c.logger.Warn().Str("time_left", msg.GoAway.TimeLeft).Msg("server going away")
		}

		events, err := msg.events()
		if err != nil {
			c.logger.Warn().Err(err).Msg("skipping malformed server frame")
			continue
		}
		for _, event := range events {
			if !c.emit(event) {
				return
			}
		}
	}
}

// emit delivers one event in order, giving up only when the channel is being
// closed. It reports whether delivery happened.
func (c *channel) emit(event live.Event) bool {
	select {
	case c.events <- event:
		return true
	case <-c.stop:
		return false
	}
}
