package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/carbon-tracker/internal/models"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, complete bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient only implements Publish and Disconnect; other calls panic.
type fakeClient struct {
	mqtt.Client
	token        *fakeToken
	messages     []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic, qos, retained, payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeClient{token: newFakeToken(nil, true)}
	p := NewMQTTPublisherWithClient(client, "carbontrack")

	entry := models.ActivityEntry{ID: "abc", Title: "Commute", Mode: models.ModeRail, EmissionKg: 1.2}
	err := p.Publish(context.Background(), Event{Type: ActivityCreated, EntryID: "abc", Entry: &entry, TotalKg: 1.2})
	require.NoError(t, err)

	require.Len(t, client.messages, 1)
	msg := client.messages[0]
	assert.Equal(t, "carbontrack/activities/created", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.False(t, msg.retained)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, ActivityCreated, decoded.Type)
	assert.Equal(t, "abc", decoded.EntryID)
	require.NotNil(t, decoded.Entry)
	assert.Equal(t, "Commute", decoded.Entry.Title)
}

func TestMQTTPublisher_PublishError(t *testing.T) {
	client := &fakeClient{token: newFakeToken(errors.New("not connected"), true)}
	p := NewMQTTPublisherWithClient(client, "ct")

	err := p.Publish(context.Background(), Event{Type: ActivityDeleted, EntryID: "x"})
	assert.ErrorContains(t, err, "not connected")
}

func TestMQTTPublisher_PublishTimeout(t *testing.T) {
	client := &fakeClient{token: newFakeToken(nil, false)}
	p := NewMQTTPublisherWithClient(client, "ct")
	p.timeout = 10 * time.Millisecond

	err := p.Publish(context.Background(), Event{Type: ActivityUpdated, EntryID: "x"})
	assert.ErrorIs(t, err, ErrPublishTimeout)
}

func TestMQTTPublisher_PublishContextCancelled(t *testing.T) {
	client := &fakeClient{token: newFakeToken(nil, false)}
	p := NewMQTTPublisherWithClient(client, "ct")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Publish(ctx, Event{Type: ActivityUpdated, EntryID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMQTTPublisher_Close(t *testing.T) {
	client := &fakeClient{token: newFakeToken(nil, true)}
	p := NewMQTTPublisherWithClient(client, "ct")
	p.Close()
	assert.True(t, client.disconnected)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: ActivityCreated}))
	p.Close()
}
