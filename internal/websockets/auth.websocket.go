package websockets

import (
	"time"

	"hostly/internal/events"
)

const AUTH_HANDSHAKE_TIMEOUT = 10 * time.Second

// startAuthTimeout closes the connection when the client has not
// authenticated within AUTH_HANDSHAKE_TIMEOUT.
func (c *Client) startAuthTimeout() {
	log := c.Manager.log.Function("startAuthTimeout")

	time.AfterFunc(AUTH_HANDSHAKE_TIMEOUT, func() {
		c.Manager.hub.mutex.RLock()
		pending := c.Status == STATUS_UNAUTHENTICATED
		c.Manager.hub.mutex.RUnlock()
		if !pending {
			return
		}

		log.Warn("Client failed to authenticate within timeout", "clientID", c.ID)
		if err := c.Connection.Close(); err != nil {
			log.Er("failed to close connection after auth timeout", err, "clientID", c.ID)
		}
	})
}

func (c *Client) handleAuthResponse(message Message) {
	log := c.Manager.log.Function("handleAuthResponse")

	token, ok := message.Data["token"].(string)
	if !ok || token == "" {
		c.sendAuthFailure("Invalid token format")
		return
	}

	if c.Manager.auth == nil {
		c.sendAuthFailure("Authentication unavailable")
		return
	}

	info, err := c.Manager.auth.ValidateToken(token)
	if err != nil {
		log.Info("WebSocket token validation failed", "clientID", c.ID, "error", err.Error())
		c.sendAuthFailure("Authentication failed")
		return
	}

	if !c.Manager.authenticateClient(c, info.UserID) {
		log.Warn("Auth response from already authenticated client", "clientID", c.ID)
		return
	}

	log.Info("WebSocket client authenticated", "clientID", c.ID, "userID", info.UserID)

	authSuccess := newMessage(events.AUTH_SUCCESS, SYSTEM_CHANNEL, "authenticated", map[string]any{
		"userId": info.UserID.String(),
	})
	authSuccess.UserID = info.UserID.String()
	c.trySend(authSuccess)
}

func (c *Client) sendAuthFailure(reason string) {
	log := c.Manager.log.Function("sendAuthFailure")

	c.trySend(newMessage(events.AUTH_FAILURE, SYSTEM_CHANNEL, "authentication_failed", map[string]any{
		"reason": reason,
	}))

	log.Info("Auth failure sent, closing connection", "clientID", c.ID, "reason", reason)

	time.AfterFunc(100*time.Millisecond, func() {
		_ = c.Connection.Close()
	})
}

func (c *Client) sendAuthRequest() error {
	request := newMessage(events.AUTH_REQUEST, SYSTEM_CHANNEL, "authenticate", nil)
	if err := c.Connection.WriteJSON(request); err != nil {
		return c.Manager.log.Function("sendAuthRequest").Err("failed to send auth request", err, "clientID", c.ID)
	}
	return nil
}

func (c *Client) handleUnauthenticatedMessage(message Message) {
	c.Manager.log.Function("handleUnauthenticatedMessage").Warn(
		"Blocking message from unauthenticated client",
		"clientID", c.ID,
		"type", message.Type,
	)

	c.trySend(newMessage(events.AUTH_FAILURE, SYSTEM_CHANNEL, "authentication_required", map[string]any{
		"reason": "Authentication required",
	}))
}
