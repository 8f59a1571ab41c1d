package websockets

import (
	"sync"

	"github.com/google/uuid"
)

const (
	STATUS_UNAUTHENTICATED = iota
	STATUS_AUTHENTICATED
	STATUS_CLOSED
)

type Hub struct {
	register   chan *Client
	unregister chan *Client
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			m.registerClient(client)

		case client := <-h.unregister:
			m.unregisterClient(client)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	m.hub.clients[client.ID] = client
	m.log.Function("registerClient").Debug("Client registered", "clientID", client.ID)
}

// unregisterClient is safe to call more than once per client; both pumps
// unregister on exit.
func (m *Manager) unregisterClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	if _, ok := m.hub.clients[client.ID]; !ok {
		return
	}

	delete(m.hub.clients, client.ID)
	client.Status = STATUS_CLOSED
	close(client.send)

	m.log.Function("unregisterClient").Debug(
		"Client unregistered",
		"clientID", client.ID,
		"userID", client.UserID,
	)
}

func (m *Manager) authenticateClient(client *Client, userID uuid.UUID) bool {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	if client.Status != STATUS_UNAUTHENTICATED {
		return false
	}
	client.UserID = userID
	client.Status = STATUS_AUTHENTICATED
	return true
}

func (m *Manager) isAuthenticated(client *Client) bool {
	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()
	return client.Status == STATUS_AUTHENTICATED
}

func (m *Manager) sendToAuthenticatedClients(message Message) {
	log := m.log.Function("sendToAuthenticatedClients")

	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()

	sent := 0
	for _, client := range m.hub.clients {
		if client.Status != STATUS_AUTHENTICATED {
			continue
		}
		select {
		case client.send <- message:
			sent++
		default:
			log.Warn("Client send channel full, dropping message", "clientID", client.ID)
		}
	}

	log.Debug("Message sent to authenticated clients", "messageID", message.ID, "clientCount", sent)
}

// SendMessageToUser delivers message to every authenticated connection of
// userID. Slow connections drop the message rather than block the hub.
func (m *Manager) SendMessageToUser(userID uuid.UUID, message Message) int {
	log := m.log.Function("SendMessageToUser")

	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()

	sent := 0
	for _, client := range m.hub.clients {
		if client.Status != STATUS_AUTHENTICATED || client.UserID != userID {
			continue
		}
		select {
		case client.send <- message:
			sent++
		default:
			log.Warn("Client send channel full, dropping message", "clientID", client.ID, "userID", userID)
		}
	}

	log.Debug("Message sent to user connections", "userID", userID, "messageID", message.ID, "sentTo", sent)
	return sent
}
