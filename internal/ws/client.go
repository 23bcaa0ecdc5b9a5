package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	// sendChannelSize controls the max number
	// of messages that can be queued for a client.
	sendChannelSize = 16
	pingPeriod      = (60 * 9 * time.Second) / 10
)

// Outgoing message types.
const (
	TypeRoute    = "route"
	TypeState    = "state"
	TypeMarker   = "marker"
	TypeRecenter = "recenter"
	TypeError    = "error"
)

// Incoming message types.
const (
	TypeToggle = "toggle"
	TypePlay   = "play"
	TypePause  = "pause"
)

type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Client struct {
	ID      string
	Conn    *websocket.Conn
	Manager *Manager
	send    chan Message
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewClient(id string, conn *websocket.Conn, manager *Manager) *Client {
	ctx, cancel := context.WithCancel(manager.ctx)
	return &Client{
		ID:      id,
		Conn:    conn,
		Manager: manager,
		send:    make(chan Message, sendChannelSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start greets the client with the loaded route and the current state,
// then registers it for broadcasts.
func (c *Client) Start() {
	c.welcome()
	select {
	case c.Manager.register <- c:
	case <-c.Manager.ctx.Done():
		c.Close()
		return
	}
	go c.readPump()
	go c.writePump()
}

func (c *Client) Close() {
	if err := c.Conn.Close(websocket.StatusNormalClosure, "bye :P"); err != nil {
		c.Manager.logger.Debug("failed to close connection", "clientID", c.ID, "error", err)
	}
	c.cancel()
}

func (c *Client) Send(msg Message) {
	select {
	case c.send <- msg:
	default:
		c.Manager.forceDisconnect(c)
	}
}

func (c *Client) welcome() {
	if c.Manager.controller == nil {
		return
	}
	route, snapshot, err := c.Manager.controller.Route(c.ctx)
	if err != nil {
		c.Manager.logger.Warn("failed to read route for new client", "clientID", c.ID, "error", err)
		return
	}
	c.sendJSON(TypeRoute, route)
	c.sendJSON(TypeState, snapshot)
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.Manager.unregister <- c:
		case <-c.Manager.ctx.Done():
		}
		c.Close()
	}()

	for {
		var msg Message
		if err := wsjson.Read(c.ctx, c.Conn, &msg); err != nil {
			c.Manager.logger.Debug("failed to read message", "clientID", c.ID, "error", err)
			break
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := wsjson.Write(c.ctx, c.Conn, msg); err != nil {
				c.Manager.logger.Warn("failed to write message", "clientID", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.Conn.Ping(c.ctx); err != nil {
				c.Manager.logger.Debug("failed to ping client", "clientID", c.ID, "error", err)
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) handleMessage(msg Message) {
	controller := c.Manager.controller
	if controller == nil {
		c.sendError("playback is not available")
		return
	}

	var err error
	switch msg.Type {
	case TypeToggle:
		_, err = controller.Toggle(c.ctx)
	case TypePlay:
		_, err = controller.Play(c.ctx)
	case TypePause:
		_, err = controller.Pause(c.ctx)
	case TypeState:
		snapshot, serr := controller.Snapshot(c.ctx)
		if serr == nil {
			c.sendJSON(TypeState, snapshot)
		}
		err = serr
	default:
		c.Manager.logger.Debug("received unknown type message", "clientID", c.ID, "type", msg.Type)
		c.sendError("unknown message type")
		return
	}

	if err != nil {
		c.Manager.logger.Warn("playback command failed", "clientID", c.ID, "type", msg.Type, "error", err)
		c.sendError(err.Error())
	}
}

func (c *Client) sendJSON(msgType string, v any) {
	msg, err := NewMessage(msgType, v)
	if err != nil {
		c.Manager.logger.Warn("failed to marshal message", "clientID", c.ID, "type", msgType, "error", err)
		return
	}
	c.Send(msg)
}

func (c *Client) sendError(text string) {
	c.sendJSON(TypeError, text)
}
