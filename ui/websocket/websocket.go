package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AzielCF/az-posts/posts/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	broadcastBuffer = 256
	publishTimeout  = 2 * time.Second
)

type BroadcastMessage struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Result   any    `json:"result"`
	SenderID string `json:"sender_id,omitempty"`
}

// EventBus carries broadcasts between server instances.
type EventBus interface {
	Key(parts ...string) string
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error
}

// conn is the part of *websocket.Conn the hub writes to.
type conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type outbound struct {
	to  conn
	msg BroadcastMessage
}

// Hub fans post events out to every connected websocket client and, when an
// EventBus is set, to the other server instances. Clients are only touched
// from the Run goroutine.
type Hub struct {
	clients    map[conn]struct{}
	register   chan conn
	unregister chan conn
	broadcast  chan BroadcastMessage
	remote     chan BroadcastMessage
	direct     chan outbound
	done       chan struct{}

	bus      EventBus
	channel  string
	serverID string
}

var _ domain.EventNotifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[conn]struct{}),
		register:   make(chan conn),
		unregister: make(chan conn),
		broadcast:  make(chan BroadcastMessage, broadcastBuffer),
		remote:     make(chan BroadcastMessage, broadcastBuffer),
		direct:     make(chan outbound, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// SetEventBus enables the distributed broadcast system. Must be called
// before Run.
func (h *Hub) SetEventBus(bus EventBus, serverID string) {
	h.bus = bus
	h.serverID = serverID
	h.channel = bus.Key("ws_broadcast")
}

// Notify queues a post event for broadcast. It never blocks; events are
// dropped when the queue is full.
func (h *Hub) Notify(event string, payload any) {
	msg := BroadcastMessage{
		Code:    event,
		Message: eventMessage(event),
		Result:  payload,
	}
	select {
	case h.broadcast <- msg:
	default:
		logrus.Warnf("[WS] broadcast queue full, dropping %s", event)
	}
}

func eventMessage(event string) string {
	switch event {
	case domain.EventPostCreated:
		return "Post created"
	case domain.EventPostDeleted:
		return "Post deleted"
	case domain.EventPostsBootstrapped:
		return "Posts seeded from remote feed"
	default:
		return event
	}
}

// Run serves the hub until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.bus != nil {
		h.startSubscriber(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.closeConnection(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			logrus.Debug("[WS] Connection registered")

		case c := <-h.unregister:
			delete(h.clients, c)
			logrus.Debug("[WS] Connection unregistered")

		case msg := <-h.broadcast:
			h.broadcastToLocal(msg)
			if h.bus != nil {
				h.publish(ctx, msg)
			}

		case msg := <-h.remote:
			h.broadcastToLocal(msg)

		case out := <-h.direct:
			if _, ok := h.clients[out.to]; ok {
				h.write(out.to, out.msg)
			}
		}
	}
}

func (h *Hub) broadcastToLocal(msg BroadcastMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.Errorf("[WS] Marshal error: %v", err)
		return
	}

	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			logrus.Errorf("[WS] Write error: %v", err)
			h.closeConnection(c)
		}
	}
}

func (h *Hub) write(c conn, msg BroadcastMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.Errorf("[WS] Marshal error: %v", err)
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		logrus.Errorf("[WS] Write error: %v", err)
		h.closeConnection(c)
	}
}

func (h *Hub) publish(ctx context.Context, msg BroadcastMessage) {
	msg.SenderID = h.serverID

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := h.bus.Publish(ctx, h.channel, data); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

func (h *Hub) startSubscriber(ctx context.Context) {
	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for distributed events")
	go func() {
		err := h.bus.Subscribe(ctx, h.channel, func(payload []byte) {
			var msg BroadcastMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				return
			}
			// Ignore our own messages
			if msg.SenderID == h.serverID {
				return
			}
			select {
			case h.remote <- msg:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
		}
	}()
}

// enqueue hands c to the Run loop unless the hub has stopped.
func (h *Hub) enqueue(ch chan conn, c conn) {
	select {
	case ch <- c:
	case <-h.done:
	}
}

func (h *Hub) reply(out outbound) {
	select {
	case h.direct <- out:
	case <-h.done:
	}
}

func (h *Hub) closeConnection(c conn) {
	_ = c.WriteMessage(websocket.CloseMessage, []byte{})
	_ = c.Close()
	delete(h.clients, c)
}

// RegisterRoutes mounts the /ws endpoint. Clients may send
// {"code":"FETCH_POSTS"} to receive the current post list.
func RegisterRoutes(app fiber.Router, hub *Hub, service domain.PostUsecase) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		defer func() {
			hub.enqueue(hub.unregister, c)
			_ = c.Close()
		}()

		hub.enqueue(hub.register, c)

		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] read error: %v", err)
				}
				return
			}

			if messageType != websocket.TextMessage {
				logrus.Debugf("[WS] unsupported message type: %d", messageType)
				continue
			}

			var request BroadcastMessage
			if err := json.Unmarshal(message, &request); err != nil {
				logrus.Debugf("[WS] unmarshal error: %v", err)
				return
			}

			if request.Code == "FETCH_POSTS" {
				hub.reply(outbound{to: c, msg: listPostsMessage(service)})
			}
		}
	}))
}

func listPostsMessage(service domain.PostUsecase) BroadcastMessage {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	posts, err := service.ListAll(ctx)
	if err != nil {
		return BroadcastMessage{Code: "ERROR", Message: err.Error()}
	}
	return BroadcastMessage{Code: "LIST_POSTS", Message: "Posts found", Result: posts}
}
