package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sand/swift-screening-app/backend/internal/entities"
)

// Manager владеет websocket-соединениями живой ленты и рассылает
// подписчикам каждую новую сохраненную запись.
type Manager struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*websocket.Conn]struct{}
}

func NewWebSocketManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Фронтенд живет на другом порту.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		subscribers: make(map[*websocket.Conn]struct{}),
	}
}

func (m *Manager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return m.upgrader.Upgrade(w, r, nil)
}

func (m *Manager) AddSubscriber(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[conn] = struct{}{}
}

func (m *Manager) RemoveSubscriber(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[conn]; ok {
		delete(m.subscribers, conn)
		conn.Close()
	}
}

// Broadcast отправляет запись всем подписчикам. Мертвое соединение
// выбрасывается прямо по ходу рассылки.
func (m *Manager) Broadcast(record *entities.TransactionRecord) {
	payload, err := json.Marshal(record)
	if err != nil {
		m.logger.Error("Failed to marshal record for broadcast", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for conn := range m.subscribers {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			m.logger.Error("Failed to push record to subscriber", "error", err)
			delete(m.subscribers, conn)
			conn.Close()
		}
	}
}
