package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/liveness"
	"github.com/saturnino-fabrica-de-software/sorria/internal/service"
)

var errConnClosed = errors.New("use of closed connection")

type message struct {
	kind int
	data []byte
}

// fakeConn feeds queued messages to ReadMessage and records writes
type fakeConn struct {
	incoming chan message
	done     chan struct{}
	once     sync.Once

	mu      sync.Mutex
	written [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan message, 16),
		done:     make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case m := <-f.incoming:
		return m.kind, m.data, nil
	case <-f.done:
		return 0, nil, errConnClosed
	}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

func (f *fakeConn) sendFrame() {
	f.incoming <- message{kind: websocket.BinaryMessage, data: make([]byte, 64)}
}

func (f *fakeConn) sendControl(t *testing.T, ctrl Control) {
	data, err := json.Marshal(ctrl)
	require.NoError(t, err)
	f.incoming <- message{kind: websocket.TextMessage, data: data}
}

type decodedEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (f *fakeConn) events(t *testing.T) []decodedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]decodedEvent, 0, len(f.written))
	for _, raw := range f.written {
		var e decodedEvent
		require.NoError(t, json.Unmarshal(raw, &e))
		out = append(out, e)
	}
	return out
}

func (f *fakeConn) has(t *testing.T, eventType EventType) bool {
	for _, e := range f.events(t) {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

func (f *fakeConn) last(t *testing.T, eventType EventType, v interface{}) {
	events := f.events(t)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == eventType {
			require.NoError(t, json.Unmarshal(events[i].Data, v))
			return
		}
	}
	t.Fatalf("no %s event written", eventType)
}

type fakeCapture struct {
	mu       sync.Mutex
	failures []error
}

func (f *fakeCapture) NewLoginSession(context.Context) (*liveness.Session, error) {
	return nil, errors.New("not used")
}

func (f *fakeCapture) NewRegistrationSession(context.Context, uuid.UUID) (*liveness.Session, error) {
	return nil, errors.New("not used")
}

func (f *fakeCapture) CompleteLogin(context.Context, *liveness.Session, *domain.Application, string) (*service.IssuedCode, error) {
	return nil, errors.New("not used")
}

func (f *fakeCapture) CompleteRegistration(context.Context, uuid.UUID, *liveness.Session) error {
	return errors.New("not used")
}

func (f *fakeCapture) RecordFailure(_ context.Context, _ liveness.Flow, _ uuid.UUID, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, err)
}

func (f *fakeCapture) failureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.failures)
}

type fakeObserver struct {
	mu       sync.Mutex
	outcomes []string
	detects  int
}

func (f *fakeObserver) ObserveSession(flow, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, flow+":"+outcome)
}

func (f *fakeObserver) ObserveDetect(time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detects++
}

func (f *fakeObserver) snapshot() ([]string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.outcomes...), f.detects
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token, _ string) error {
	switch token {
	case "good":
		return nil
	case "down":
		return errors.New("siteverify unreachable")
	default:
		return domain.ErrCaptchaFailed
	}
}
