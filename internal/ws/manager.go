package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"

	"supmap-playback/internal/gis"
	"supmap-playback/internal/playback"
)

// broadcastQueueSize bounds the frames waiting to be fanned out. The
// player never waits on it: frames beyond it are dropped.
const broadcastQueueSize = 64

// Controller is the transport control the websocket clients drive.
type Controller interface {
	Play(ctx context.Context) (playback.Snapshot, error)
	Pause(ctx context.Context) (playback.Snapshot, error)
	Toggle(ctx context.Context) (playback.Snapshot, error)
	Snapshot(ctx context.Context) (playback.Snapshot, error)
	Route(ctx context.Context) (playback.Route, playback.Snapshot, error)
}

// Manager tracks the connected renderers. It is the playback.Renderer of
// the player: every position is broadcast to all clients.
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	logger     *slog.Logger
	controller Controller
}

func NewManager(ctx context.Context, logger *slog.Logger) *Manager {
	ctx, cancel := context.WithCancel(ctx)
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, broadcastQueueSize),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// SetController must be called before Start.
func (m *Manager) SetController(controller Controller) {
	m.controller = controller
}

func (m *Manager) Start() {
	defer m.Shutdown()
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			if previous, ok := m.clients[client.ID]; ok {
				// same id reconnected: drop the stale connection
				go previous.Close()
			}
			m.clients[client.ID] = client
			m.mu.Unlock()
			m.logger.Info("client connected", "clientID", client.ID)
		case client := <-m.unregister:
			m.mu.Lock()
			if current, ok := m.clients[client.ID]; ok && current == client {
				delete(m.clients, client.ID)
				close(client.send)
				m.logger.Info("client disconnected", "clientID", client.ID)
			}
			m.mu.Unlock()
		case message := <-m.broadcast:
			m.mu.RLock()
			for _, client := range m.clients {
				select {
				case client.send <- message:
				default:
					go m.forceDisconnect(client)
				}
			}
			m.mu.RUnlock()
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Manager) HandleNewConnection(clientID string, conn *websocket.Conn) {
	client := NewClient(clientID, conn, m)
	client.Start()
}

// Broadcast queues a message for every client without blocking.
func (m *Manager) Broadcast(message Message) {
	select {
	case m.broadcast <- message:
	default:
		m.logger.Debug("broadcast queue full, dropping message", "type", message.Type)
	}
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) ShowMarker(position gis.Point) {
	m.broadcastJSON(TypeMarker, position)
}

func (m *Manager) RecenterViewport(position gis.Point) {
	m.broadcastJSON(TypeRecenter, position)
}

func (m *Manager) StateChanged(snapshot playback.Snapshot) {
	m.broadcastJSON(TypeState, snapshot)
}

func (m *Manager) broadcastJSON(msgType string, v any) {
	msg, err := NewMessage(msgType, v)
	if err != nil {
		m.logger.Warn("failed to marshal broadcast", "type", msgType, "error", err)
		return
	}
	m.Broadcast(msg)
}

func (m *Manager) forceDisconnect(c *Client) {
	c.Close()
}

func (m *Manager) Shutdown() {
	m.cancel()
	m.mu.Lock()
	for _, client := range m.clients {
		client.Close()
	}
	m.mu.Unlock()
}

// NewMessage wraps v as the data of a typed message.
func NewMessage(msgType string, v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}
