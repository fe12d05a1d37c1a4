package websocket

import (
	"testing"
	"time"

	"geotrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan models.WSMessage, sendBufferSize),
		id:   "test-client",
	}
}

func testEvent(deviceID string) models.GeofenceEvent {
	return models.GeofenceEvent{
		DeviceID:   deviceID,
		GeofenceID: primitive.NewObjectID(),
		EventType:  models.GeofenceEventEntry,
		OccurredAt: time.Now(),
	}
}

func drain(t *testing.T, client *Client) models.WSMessage {
	t.Helper()
	select {
	case msg := <-client.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return models.WSMessage{}
	}
}

func TestHubRoutesEventsToSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	subscribed := newTestClient(hub)
	other := newTestClient(hub)
	hub.register <- subscribed
	hub.register <- other
	hub.subscribe <- subscription{client: subscribed, deviceIDs: []string{"device-1"}}

	// Subscription ack first.
	ack := drain(t, subscribed)
	assert.Equal(t, models.WSTypeSubscribed, ack.Type)

	hub.PublishGeofenceEvent(testEvent("device-1"))

	msg := drain(t, subscribed)
	require.Equal(t, models.WSTypeGeofenceEvent, msg.Type)
	payload, ok := msg.Data.(models.WSGeofenceEvent)
	require.True(t, ok)
	assert.Equal(t, "device-1", payload.DeviceID)
	assert.Equal(t, string(models.GeofenceEventEntry), payload.EventType)

	// The unsubscribed client saw nothing.
	select {
	case msg := <-other.send:
		t.Fatalf("unexpected message for unsubscribed client: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsEventsForUnknownDevice(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient(hub)
	hub.register <- client
	hub.subscribe <- subscription{client: client, deviceIDs: []string{"device-1"}}
	drain(t, client) // ack

	hub.PublishGeofenceEvent(testEvent("device-2"))

	select {
	case msg := <-client.send:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishNeverBlocksWhenQueueIsFull(t *testing.T) {
	// Hub not running: the events queue fills up and overflow is dropped.
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(hub.events)+10; i++ {
			hub.PublishGeofenceEvent(testEvent("device-1"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full queue")
	}
	assert.Len(t, hub.events, cap(hub.events))
}

func TestHubUnregisterRemovesSubscriptions(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient(hub)
	hub.register <- client
	hub.subscribe <- subscription{client: client, deviceIDs: []string{"device-1"}}
	drain(t, client) // ack

	hub.unregister <- client

	// The send channel closes on unregister.
	select {
	case _, open := <-client.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}

	// Publishing afterwards must not panic on the closed channel.
	hub.PublishGeofenceEvent(testEvent("device-1"))
	time.Sleep(50 * time.Millisecond)

	stats := hub.GetStats()
	assert.Equal(t, 0, stats.ActiveConnections)
	assert.Equal(t, int64(1), stats.TotalConnections)
}
