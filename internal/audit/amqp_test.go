package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	calls    int
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.calls++
	f.exchange = exchange
	f.key = key
	f.msg = msg
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	return f.err
}

func TestAMQPPublisher_Log(t *testing.T) {
	ch := &fakeChannel{}
	p := NewAMQPPublisher(ch, "sorria.audit")

	userID := uuid.New()
	err := p.Log(context.Background(), Event{EventType: EventLoginSucceeded, UserID: userID, Success: true})
	require.NoError(t, err)

	assert.Equal(t, 1, ch.calls)
	assert.Equal(t, "sorria.audit", ch.exchange)
	assert.Equal(t, "audit.login_succeeded", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.NotEmpty(t, ch.msg.MessageId)

	var decoded Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, userID, decoded.UserID)
	assert.Equal(t, ch.msg.MessageId, decoded.ID.String())
}

func TestAMQPPublisher_LogError(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	p := NewAMQPPublisher(ch, "sorria.audit")

	err := p.Log(context.Background(), Event{EventType: EventCodeIssued})
	require.Error(t, err)
	assert.ErrorIs(t, err, amqp.ErrClosed)
	assert.NoError(t, p.Close())
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "audit.code_issued", RoutingKey(EventCodeIssued))
	assert.Equal(t, "audit.template_enrolled", RoutingKey(EventTemplateEnrolled))
}
