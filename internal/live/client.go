// Package live manages the persistent bidirectional streaming session to the
// vision classifier: frame and audio upload, response parsing, session
// rotation before expiry, and bounded reconnection with exponential backoff.
//
// A Client is an explicitly owned resource: construct it, Connect it, and
// Disconnect it when done. There is no ambient singleton.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sayboard/sayboard/internal/common"
	"github.com/sayboard/sayboard/internal/model"
)

const (
	defaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent"
	defaultModel    = "gemini-2.0-flash-exp"

	// Audio+video sessions are limited upstream; rotate shortly before the
	// limit so the stream never drops mid-session.
	defaultSessionLimit    = 2 * time.Minute
	defaultReconnectBuffer = 10 * time.Second

	defaultMaxReconnects  = 5
	defaultReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay     = 15 * time.Second

	mimeJPEG     = "image/jpeg"
	mimePCM16kHz = "audio/pcm;rate=16000"
)

// Config holds the live channel settings.
type Config struct {
	APIKey          string
	Model           string
	Endpoint        string
	SystemPrompt    string
	SessionLimit    time.Duration
	ReconnectBuffer time.Duration
	MaxReconnects   int
	ReconnectDelay  time.Duration
}

// Events are the client's callbacks. All are optional; nil callbacks are
// skipped. Callbacks are invoked from the client's read goroutine and must
// not block.
type Events struct {
	OnConnect         func()
	OnContext         func(model.Classification)
	OnTiles           func([]model.DisplayTile)
	OnAudio           func([]byte)
	OnSessionExpiring func()
	OnReconnecting    func(attempt int)
	OnError           func(error)
	OnDisconnect      func()
}

// Client is a live channel session. Safe for concurrent use; writes are
// serialized internally.
type Client struct {
	cfg          Config
	events       Events
	conn         *websocket.Conn
	sessionTimer *time.Timer
	sessionStart time.Time
	// gen identifies the connection a read goroutine belongs to. Teardown
	// and every dial bump it, so a stale reader's error cannot clobber a
	// newer connection or trigger a competing reconnect.
	gen uint64
	mu  sync.Mutex
}

// NewClient creates a live channel client. It does not connect.
func NewClient(cfg Config, events Events) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: live channel API key", common.ErrMissingConfig)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = BuildSystemPrompt("")
	}
	if cfg.SessionLimit <= 0 {
		cfg.SessionLimit = defaultSessionLimit
	}
	if cfg.ReconnectBuffer <= 0 {
		cfg.ReconnectBuffer = defaultReconnectBuffer
	}
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = defaultMaxReconnects
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	return &Client{cfg: cfg, events: events}, nil
}

// Connect dials the streaming endpoint, performs the setup handshake, and
// starts the read loop. Calling Connect on an already connected client is a
// no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.dial(ctx)
}

func (c *Client) dial(ctx context.Context) error {
	endpoint := c.cfg.Endpoint + "?key=" + c.cfg.APIKey

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("live channel dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("live channel dial failed: %w", err)
	}

	setup := newSetupMessage(c.cfg.Model, c.cfg.SystemPrompt)
	if err := conn.WriteJSON(setup); err != nil {
		_ = conn.Close()
		return fmt.Errorf("live channel setup failed: %w", err)
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.conn = conn
	c.sessionStart = time.Now()
	c.armSessionTimer(ctx)
	c.mu.Unlock()

	slog.Info("live channel connected", "model", c.cfg.Model)

	go c.readLoop(ctx, conn, gen)

	if c.events.OnConnect != nil {
		c.events.OnConnect()
	}
	return nil
}

// armSessionTimer schedules the proactive rotation shortly before the
// upstream session limit. Callers hold c.mu.
func (c *Client) armSessionTimer(ctx context.Context) {
	if c.sessionTimer != nil {
		c.sessionTimer.Stop()
	}
	delay := c.cfg.SessionLimit - c.cfg.ReconnectBuffer
	c.sessionTimer = time.AfterFunc(delay, func() {
		if c.events.OnSessionExpiring != nil {
			c.events.OnSessionExpiring()
		}
		c.rotate(ctx)
	})
}

// rotate tears down the current session and immediately establishes a new
// one. Used for planned expiry, not failure recovery.
func (c *Client) rotate(ctx context.Context) {
	slog.Info("live session expiring, rotating")
	c.teardown(true)

	if err := c.dial(ctx); err != nil {
		slog.Warn("session rotation failed, entering reconnect", "error", err)
		c.reconnectLoop(ctx)
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, gen uint64) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(ctx, gen, err)
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if c.events.OnAudio != nil {
				c.events.OnAudio(data)
			}
		case websocket.TextMessage:
			c.handleText(data)
		}
	}
}

func (c *Client) handleText(raw []byte) {
	for _, text := range decodeServerText(raw) {
		classification, tiles, ok := parseUpdate(text)
		if !ok {
			// Prose without embedded JSON is normal model chatter.
			continue
		}
		if classification != nil && c.events.OnContext != nil {
			c.events.OnContext(*classification)
		}
		if len(tiles) > 0 && c.events.OnTiles != nil {
			c.events.OnTiles(tiles)
		}
	}
}

func (c *Client) handleReadError(ctx context.Context, gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		// Teardown or a newer dial superseded this connection while the
		// error was in flight; whoever did owns the signaling.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()

	if ctx.Err() != nil {
		if c.events.OnDisconnect != nil {
			c.events.OnDisconnect()
		}
		return
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		slog.Info("live channel closed", "error", err)
		if c.events.OnDisconnect != nil {
			c.events.OnDisconnect()
		}
		return
	}

	slog.Warn("live channel dropped unexpectedly", "error", err)
	c.reconnectLoop(ctx)
}

// reconnectLoop retries the connection with exponential backoff up to the
// configured cap, then surfaces a terminal error instead of retrying forever.
func (c *Client) reconnectLoop(ctx context.Context) {
	for attempt := 1; attempt <= c.cfg.MaxReconnects; attempt++ {
		if c.events.OnReconnecting != nil {
			c.events.OnReconnecting(attempt)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoffDelay(c.cfg.ReconnectDelay, attempt)):
		}

		if err := c.dial(ctx); err != nil {
			slog.Warn("reconnect attempt failed",
				"attempt", attempt,
				"max_attempts", c.cfg.MaxReconnects,
				"error", err)
			continue
		}
		return
	}

	if c.events.OnError != nil {
		c.events.OnError(fmt.Errorf("%w after %d attempts", common.ErrReconnectExceeded, c.cfg.MaxReconnects))
	}
	if c.events.OnDisconnect != nil {
		c.events.OnDisconnect()
	}
}

// backoffDelay returns the delay before the given 1-based attempt, doubling
// from base and capped at maxReconnectDelay.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxReconnectDelay {
			return maxReconnectDelay
		}
	}
	return delay
}

// SendFrame uploads one JPEG camera frame.
func (c *Client) SendFrame(jpeg []byte) error {
	return c.writeJSON(newMediaMessage(mimeJPEG, jpeg))
}

// SendAudio uploads one chunk of 16kHz 16-bit signed mono PCM.
func (c *Client) SendAudio(pcm []byte) error {
	return c.writeJSON(newMediaMessage(mimePCM16kHz, pcm))
}

// SendText sends a user text turn.
func (c *Client) SendText(text string) error {
	return c.writeJSON(newTextMessage(text))
}

// RequestSpeech asks the model to speak a phrase aloud over the audio
// modality. Used when a tile is tapped during a live session.
func (c *Client) RequestSpeech(phrase string) error {
	return c.writeJSON(newTextMessage(fmt.Sprintf("Please speak this phrase aloud: %q", phrase)))
}

func (c *Client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("live channel not connected")
	}
	return c.conn.WriteJSON(v)
}

// IsConnected reports whether the channel is currently open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SessionTimeRemaining returns how long until the current session hits the
// upstream limit.
func (c *Client) SessionTimeRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.sessionStart.IsZero() {
		return 0
	}
	remaining := c.cfg.SessionLimit - time.Since(c.sessionStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Disconnect closes the session intentionally. The old read goroutine's
// generation no longer matches, so it exits without reconnecting.
func (c *Client) Disconnect() {
	if c.teardown(false) && c.events.OnDisconnect != nil {
		c.events.OnDisconnect()
	}
}

// teardown closes the current connection and invalidates its reader. It
// reports whether a connection was actually open.
func (c *Client) teardown(rotating bool) bool {
	c.mu.Lock()
	c.gen++
	if c.sessionTimer != nil && !rotating {
		c.sessionTimer.Stop()
		c.sessionTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	return conn != nil
}
