package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/sorria/internal/captcha"
	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/liveness"
)

// ErrClientGone is the cancellation cause when the browser disconnects
var ErrClientGone = errors.New("capture client disconnected")

// Conn is the subset of *websocket.Conn a Client uses
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one capture stream. Binary messages are camera frames; text
// messages are Control values. It implements liveness.FrameSource.
type Client struct {
	conn     Conn
	verifier captcha.Verifier
	remoteIP string
	logger   *slog.Logger

	send     chan []byte
	commands chan liveness.Command
	cancel   context.CancelCauseFunc

	mu     sync.Mutex
	frame  []byte
	closed bool
}

func NewClient(conn Conn, verifier captcha.Verifier, remoteIP string, logger *slog.Logger, cancel context.CancelCauseFunc) *Client {
	if verifier == nil {
		verifier = captcha.AllowAll{}
	}
	return &Client{
		conn:     conn,
		verifier: verifier,
		remoteIP: remoteIP,
		logger:   logger,
		send:     make(chan []byte, 64),
		commands: make(chan liveness.Command, 4),
		cancel:   cancel,
	}
}

// Commands delivers captcha confirmations and retries to the runner
func (c *Client) Commands() <-chan liveness.Command {
	return c.commands
}

// Snapshot returns the most recent frame. ok is false until the first frame arrives.
func (c *Client) Snapshot(_ context.Context) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frame == nil {
		if c.closed {
			return nil, false, ErrClientGone
		}
		return nil, false, nil
	}
	return c.frame, true, nil
}

// ReadPump reads until the connection fails, then cancels the session with
// ErrClientGone
func (c *Client) ReadPump(ctx context.Context) {
	defer c.cancel(ErrClientGone)

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.mu.Lock()
			c.frame = data
			c.mu.Unlock()
		case websocket.TextMessage:
			c.handleControl(ctx, data)
		}
	}
}

func (c *Client) handleControl(ctx context.Context, data []byte) {
	var ctrl Control
	if err := json.Unmarshal(data, &ctrl); err != nil {
		c.logger.Debug("ignoring malformed control message", "error", err)
		return
	}

	switch ctrl.Type {
	case ControlCaptcha:
		err := c.verifier.Verify(ctx, ctrl.Token, c.remoteIP)
		switch {
		case err == nil:
			c.command(liveness.CommandConfirmCaptcha)
		case errors.Is(err, domain.ErrCaptchaFailed):
			c.Emit(EventHint, HintData{Hint: hintCaptchaRejected})
		default:
			c.cancel(domain.ErrConfiguration.WithError(err))
		}
	case ControlRetry:
		c.command(liveness.CommandRestart)
	}
}

func (c *Client) command(cmd liveness.Command) {
	select {
	case c.commands <- cmd:
	default:
		c.logger.Debug("dropping control command, queue full", "command", cmd)
	}
}

// Emit queues an event. Events after Close are dropped.
func (c *Client) Emit(eventType EventType, data interface{}) {
	message, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- message:
	default:
		c.logger.Warn("capture client too slow, dropping event", "type", eventType)
	}
}

// WritePump writes queued events until Close
func (c *Client) WritePump() {
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// Close stops accepting events; WritePump drains what is queued and returns
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
