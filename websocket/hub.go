package websocket

import (
	"sync"
	"time"

	"geotrack/models"

	"github.com/sirupsen/logrus"
)

// Hub fans detected geofence events out to connected subscribers. Each
// client subscribes to one or more device IDs; events for a device go to
// every subscriber of that device. Delivery is at-most-once: a slow or
// gone client just misses the message, nothing is queued or retried, and
// nothing here ever propagates back into the ingestion path.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// deviceID -> subscribed clients
	subscriptions map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Subscription changes from clients
	subscribe chan subscription

	// Events queued for fan-out
	events chan models.GeofenceEvent

	stats      models.WSHubStats
	statsMutex sync.RWMutex

	done chan struct{}
}

type subscription struct {
	client    *Client
	deviceIDs []string
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan subscription),
		events:        make(chan models.GeofenceEvent, 256),
		stats:         models.WSHubStats{StartTime: time.Now()},
		done:          make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case sub := <-h.subscribe:
			h.applySubscription(sub)

		case event := <-h.events:
			h.broadcastEvent(event)

		case <-h.done:
			for client := range h.clients {
				close(client.send)
			}
			return
		}
	}
}

// PublishGeofenceEvent implements interfaces.EventPublisher. Non-blocking:
// if the hub's queue is full the event is dropped and logged.
func (h *Hub) PublishGeofenceEvent(event models.GeofenceEvent) {
	select {
	case h.events <- event:
	default:
		logrus.Warnf("Event queue full, dropping %s event for device %s", event.EventType, event.DeviceID)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true

	h.statsMutex.Lock()
	h.stats.TotalConnections++
	h.stats.ActiveConnections = len(h.clients)
	h.statsMutex.Unlock()

	logrus.Debugf("WebSocket client %s connected", client.id)
}

func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	for deviceID, subscribers := range h.subscriptions {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.subscriptions, deviceID)
		}
	}
	close(client.send)

	h.statsMutex.Lock()
	h.stats.ActiveConnections = len(h.clients)
	h.statsMutex.Unlock()

	logrus.Debugf("WebSocket client %s disconnected", client.id)
}

func (h *Hub) applySubscription(sub subscription) {
	if _, ok := h.clients[sub.client]; !ok {
		return
	}

	for _, deviceID := range sub.deviceIDs {
		subscribers, ok := h.subscriptions[deviceID]
		if !ok {
			subscribers = make(map[*Client]bool)
			h.subscriptions[deviceID] = subscribers
		}
		subscribers[sub.client] = true
	}

	sub.client.enqueue(models.WSMessage{
		Type:      models.WSTypeSubscribed,
		Data:      models.WSSubscribeRequest{DeviceIDs: sub.deviceIDs},
		Timestamp: time.Now(),
	})
}

func (h *Hub) broadcastEvent(event models.GeofenceEvent) {
	subscribers := h.subscriptions[event.DeviceID]
	if len(subscribers) == 0 {
		return
	}

	message := models.WSMessage{
		Type: models.WSTypeGeofenceEvent,
		Data: models.WSGeofenceEvent{
			DeviceID:        event.DeviceID,
			GeofenceID:      event.GeofenceID.Hex(),
			EventType:       string(event.EventType),
			Latitude:        event.Latitude,
			Longitude:       event.Longitude,
			OccurredAt:      event.OccurredAt,
			DurationMinutes: event.DurationMinutes,
		},
		Timestamp: time.Now(),
	}

	for client := range subscribers {
		client.enqueue(message)
	}

	h.statsMutex.Lock()
	h.stats.EventsPublished++
	h.statsMutex.Unlock()
}

func (h *Hub) GetStats() models.WSHubStats {
	h.statsMutex.RLock()
	defer h.statsMutex.RUnlock()
	return h.stats
}

func (h *Hub) Shutdown() {
	close(h.done)
}
