package websockets

import (
	"time"

	"hostly/internal/events"
	"hostly/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	PING_INTERVAL     = 30 * time.Second
	PONG_TIMEOUT      = 60 * time.Second
	WRITE_TIMEOUT     = 10 * time.Second
	MAX_MESSAGE_SIZE  = 64 * 1024
	SEND_CHANNEL_SIZE = 64

	SYSTEM_CHANNEL   = "system"
	CALENDAR_CHANNEL = "calendar"
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel,omitempty"`
	Action    string         `json:"action,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func newMessage(messageType events.MessageType, channel, action string, data map[string]any) Message {
	return Message{
		ID:        uuid.New().String(),
		Type:      string(messageType),
		Channel:   channel,
		Action:    action,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// TokenValidator verifies the bearer token a client sends in its auth response.
type TokenValidator interface {
	ValidateToken(token string) (*services.TokenInfo, error)
}

type Client struct {
	ID         string
	UserID     uuid.UUID
	Connection *websocket.Conn
	Manager    *Manager
	Status     int
	send       chan Message
}

type Manager struct {
	hub      *Hub
	auth     TokenValidator
	log      logger.Logger
	eventBus *events.EventBus
}

func New(eventBus *events.EventBus, auth TokenValidator) (*Manager, error) {
	log := logger.New("websockets")

	manager := &Manager{
		hub: &Hub{
			register:   make(chan *Client),
			unregister: make(chan *Client),
			clients:    make(map[string]*Client),
		},
		auth:     auth,
		log:      log,
		eventBus: eventBus,
	}

	log.Function("New").Info("Starting websocket hub")
	go manager.hub.run(manager)

	if eventBus != nil {
		if err := eventBus.Subscribe(events.CALENDAR_SYNC_CHANNEL, manager.handleUserEvent); err != nil {
			return nil, log.Err("failed to subscribe to calendar sync events", err)
		}
		if err := eventBus.Subscribe(events.BROADCAST_CHANNEL, manager.handleBroadcastEvent); err != nil {
			return nil, log.Err("failed to subscribe to broadcast events", err)
		}
	}

	return manager, nil
}

func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")

	client := &Client{
		ID:         uuid.New().String(),
		UserID:     uuid.Nil,
		Connection: c,
		Manager:    m,
		Status:     STATUS_UNAUTHENTICATED,
		send:       make(chan Message, SEND_CHANNEL_SIZE),
	}

	if err := client.sendAuthRequest(); err != nil {
		if err := c.Close(); err != nil {
			log.Er("failed to close connection", err)
		}
		return
	}

	m.hub.register <- client
	defer func() {
		m.hub.unregister <- client
		_ = c.Close()
	}()

	client.startAuthTimeout()
	go client.readPump()
	client.writePump()
}

// handleUserEvent forwards a bus event to the connections of the user it
// names. Events without a user are dropped.
func (m *Manager) handleUserEvent(event events.Event) error {
	if event.UserID == nil {
		m.log.Function("handleUserEvent").Warn("event without user dropped", "eventID", event.ID, "type", event.Type)
		return nil
	}

	message := Message{
		ID:        event.ID,
		Type:      string(event.Type),
		Channel:   CALENDAR_CHANNEL,
		Action:    string(event.Type),
		UserID:    event.UserID.String(),
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}
	m.SendMessageToUser(*event.UserID, message)
	return nil
}

func (m *Manager) handleBroadcastEvent(event events.Event) error {
	m.sendToAuthenticatedClients(newMessage(events.BROADCAST, SYSTEM_CHANNEL, "broadcast", event.Data))
	return nil
}

func (c *Client) readPump() {
	log := c.Manager.log.Function("readPump")
	defer func() {
		c.Manager.hub.unregister <- c
		_ = c.Connection.Close()
	}()

	c.Connection.SetReadLimit(MAX_MESSAGE_SIZE)
	if err := c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT)); err != nil {
		log.Er("failed to set read deadline", err, "clientID", c.ID)
	}
	c.Connection.SetPongHandler(func(string) error {
		return c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	})

	for {
		var message Message
		if err := c.Connection.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				log.Er("Unexpected close error", err, "clientID", c.ID)
			}
			return
		}

		message.ID = uuid.New().String()
		message.Timestamp = time.Now()

		c.routeMessage(message)
	}
}

func (c *Client) routeMessage(message Message) {
	log := c.Manager.log.Function("routeMessage")

	if message.Type == string(events.AUTH_RESPONSE) {
		c.handleAuthResponse(message)
		return
	}

	if !c.Manager.isAuthenticated(c) {
		c.handleUnauthenticatedMessage(message)
		return
	}

	switch message.Type {
	case string(events.PING):
		c.trySend(newMessage(events.PONG, SYSTEM_CHANNEL, "pong", nil))
	default:
		log.Debug("Ignoring client message", "clientID", c.ID, "type", message.Type)
	}
}

// trySend queues message unless the client is closed or its buffer is full.
func (c *Client) trySend(message Message) {
	c.Manager.hub.mutex.RLock()
	defer c.Manager.hub.mutex.RUnlock()

	if c.Status == STATUS_CLOSED {
		return
	}
	select {
	case c.send <- message:
	default:
		c.Manager.log.Function("trySend").Warn("Client send channel full, dropping message", "clientID", c.ID)
	}
}

func (c *Client) writePump() {
	log := c.Manager.log.Function("writePump")

	ticker := time.NewTicker(PING_INTERVAL)
	defer func() {
		ticker.Stop()
		_ = c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline", err, "clientID", c.ID)
			}
			if !ok {
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Connection.WriteJSON(message); err != nil {
				log.Er("WebSocket write error", err, "clientID", c.ID)
				return
			}

		case <-ticker.C:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline for ping", err, "clientID", c.ID)
			}
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
