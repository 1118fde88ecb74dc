package ws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/sorria/internal/liveness"
)

func newTestClient() (*Client, context.Context) {
	ctx, cancel := context.WithCancelCause(context.Background())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(newFakeConn(), nil, "127.0.0.1", logger, cancel), ctx
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	login, _ := newTestClient()
	register, _ := newTestClient()

	assert.True(t, hub.Register(login, liveness.FlowLogin))
	assert.True(t, hub.Register(login, liveness.FlowLogin))
	assert.True(t, hub.Register(register, liveness.FlowRegistration))

	assert.Equal(t, 1, hub.ActiveSessions(liveness.FlowLogin))
	assert.Equal(t, 1, hub.ActiveSessions(liveness.FlowRegistration))
	assert.Equal(t, 2, hub.Total())

	hub.Unregister(login)
	hub.Unregister(login)

	assert.Equal(t, 0, hub.ActiveSessions(liveness.FlowLogin))
	assert.Equal(t, 1, hub.Total())
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	client, ctx := newTestClient()
	hub.Register(client, liveness.FlowLogin)

	hub.Shutdown()

	assert.True(t, errors.Is(context.Cause(ctx), ErrShuttingDown))

	late, _ := newTestClient()
	assert.False(t, hub.Register(late, liveness.FlowLogin))
}

func TestClient_Snapshot(t *testing.T) {
	client, _ := newTestClient()

	frame, ok, err := client.Snapshot(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, frame)

	client.frame = []byte("frame")
	frame, ok, err = client.Snapshot(context.Background())
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("frame"), frame)
}

func TestClient_EmitAfterCloseIsDropped(t *testing.T) {
	client, _ := newTestClient()
	client.Close()
	client.Close()

	assert.NotPanics(t, func() {
		client.Emit(EventHint, HintData{Hint: "smile"})
	})
}
