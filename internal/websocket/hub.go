package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"mistral-thing-be/internal/changefeed"
	"mistral-thing-be/internal/dto"
	"mistral-thing-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisChannel = "sync_events"

// Authorizer decides whether a user may follow a topic.
type Authorizer interface {
	CanSubscribe(ctx context.Context, userID uuid.UUID, topic string) bool
}

type clusterEvent struct {
	Topic string          `json:"topic"`
	Event json.RawMessage `json:"event"`
}

// clusterMessage is what instances exchange over Redis. Change is set when
// the events come from a committed write so peers can reconcile their caches.
type clusterMessage struct {
	Origin string             `json:"origin"`
	Events []clusterEvent     `json:"events"`
	Change *changefeed.Change `json:"change,omitempty"`
}

// Hub fans committed changes out to websocket clients by topic. Other
// instances receive them through Redis.
type Hub struct {
	// Registered clients; each holds its own topic set.
	clients map[*Client]bool

	// Topic -> subscribed clients
	topics map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// instanceID tags our own Redis publications so they are not delivered twice.
	instanceID string

	authorizer Authorizer

	// Notified of changes committed on other instances.
	remote []changefeed.Listener

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, authorizer Authorizer, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		authorizer: authorizer,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.addTopic(client, changefeed.UserTopic(client.UserID))
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()
		}
	}
}

// removeClient must be called with mu held.
func (h *Hub) removeClient(client *Client) {
	if !h.clients[client] {
		return
	}
	for topic := range client.topics {
		h.dropTopic(client, topic)
	}
	delete(h.clients, client)
	close(client.Send)
	h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"user_id": client.UserID})
}

func (h *Hub) addTopic(client *Client, topic string) {
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]bool)
		h.topics[topic] = subs
	}
	subs[client] = true
	client.topics[topic] = true
}

func (h *Hub) dropTopic(client *Client, topic string) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(client.topics, topic)
}

// Subscribe adds topic to the client after an ownership check. Users may
// only follow their own user topic and threads they own.
func (h *Hub) Subscribe(ctx context.Context, client *Client, topic string) bool {
	if !h.allowed(ctx, client.UserID, topic) {
		h.logger.Warn("Hub", "Subscription refused", map[string]interface{}{
			"user_id": client.UserID,
			"topic":   topic,
		})
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return false
	}
	h.addTopic(client, topic)
	return true
}

func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropTopic(client, topic)
}

func (h *Hub) allowed(ctx context.Context, userID uuid.UUID, topic string) bool {
	switch {
	case topic == changefeed.UserTopic(userID):
		return true
	case strings.HasPrefix(topic, "thread:"):
		return h.authorizer != nil && h.authorizer.CanSubscribe(ctx, userID, topic)
	default:
		return false
	}
}

// OnRemoteChange registers l for changes committed on other instances.
// Local changes reach listeners through the feed, not the hub.
func (h *Hub) OnRemoteChange(l changefeed.Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remote = append(h.remote, l)
}

// OnChange turns a committed change into sync events on every topic it
// belongs to.
func (h *Hub) OnChange(change changefeed.Change) {
	msg, err := h.changeMessage(change)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode event", map[string]interface{}{"error": err})
		return
	}
	for _, e := range msg.Events {
		h.deliver(e.Topic, e.Event)
	}
	h.broadcast(msg)
}

func (h *Hub) changeMessage(change changefeed.Change) (clusterMessage, error) {
	var data interface{}
	switch {
	case change.Message != nil:
		data = dto.NewMessageResponse(change.Message)
	case change.Thread != nil:
		data = dto.NewThreadResponse(change.Thread)
	default:
		data = map[string]interface{}{"id": change.ThreadId}
	}

	msg := clusterMessage{Origin: h.instanceID, Change: &change}
	for _, topic := range change.Topics() {
		raw, err := json.Marshal(dto.SyncEvent{Type: string(change.Kind), Topic: topic, Data: data})
		if err != nil {
			return clusterMessage{}, err
		}
		msg.Events = append(msg.Events, clusterEvent{Topic: topic, Event: raw})
	}
	return msg, nil
}

// Publish delivers an event to local subscribers and to other instances.
func (h *Hub) Publish(event dto.SyncEvent) {
	// 1. Serialize
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode event", map[string]interface{}{"error": err})
		return
	}

	// 2. Send to local subscribers
	h.deliver(event.Topic, data)

	// 3. Publish to Redis for other instances
	h.broadcast(clusterMessage{Origin: h.instanceID, Events: []clusterEvent{{Topic: event.Topic, Event: data}}})
}

func (h *Hub) broadcast(msg clusterMessage) {
	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode cluster message", map[string]interface{}{"error": err})
		return
	}
	if err := h.rdb.Publish(context.Background(), redisChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Hub) deliver(topic string, data []byte) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.topics[topic] {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// Clients that cannot keep up are dropped; they resync on reconnect.
	if len(slow) > 0 {
		h.mu.Lock()
		for _, client := range slow {
			h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"user_id": client.UserID})
			h.removeClient(client)
		}
		h.mu.Unlock()
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleRemote([]byte(msg.Payload))
		}
	}
}

// handleRemote applies a message another instance published: listeners
// reconcile the change first, then subscribers get the events.
func (h *Hub) handleRemote(payload []byte) {
	var msg clusterMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	if msg.Origin == h.instanceID {
		return
	}

	if msg.Change != nil {
		h.mu.RLock()
		listeners := h.remote
		h.mu.RUnlock()
		for _, l := range listeners {
			l.OnChange(*msg.Change)
		}
	}
	for _, e := range msg.Events {
		h.deliver(e.Topic, e.Event)
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
