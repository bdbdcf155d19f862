package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/commonapply/verification-backend/pkg/logger"
)

// ErrUserOffline is returned when the recipient has no open session
var ErrUserOffline = errors.New("user has no active websocket session")

// ClientMessage 클라이언트로부터 받은 메시지
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Client WebSocket 클라이언트
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID string
	Role   string
	Send   chan []byte

	MessageCount  int       // 최근 1초간 받은 메시지 수
	LastResetTime time.Time // 마지막 카운터 리셋 시간
	RateMu        sync.Mutex
}

// Hub WebSocket 연결 관리자
type Hub struct {
	// 등록된 클라이언트들 (UserID -> []*Client, 멀티 디바이스 지원)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
	}
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"role":           client.Role,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			remaining := h.removeLocked(client)
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"user_id":            client.UserID,
				"remaining_sessions": remaining,
			})
		}
	}
}

// removeLocked drops one session and closes its send channel. h.mu must be held.
func (h *Hub) removeLocked(client *Client) int {
	clientList, ok := h.clients[client.UserID]
	if !ok {
		return 0
	}

	newList := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		newList = append(newList, c)
	}
	if !found {
		return len(clientList)
	}

	if len(newList) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = newList
	}
	close(client.Send)
	return len(newList)
}

// Register 클라이언트 등록
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 클라이언트 등록 해제
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToUser 특정 사용자의 모든 세션에 전송
func (h *Hub) SendToUser(userID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	clientList, ok := h.clients[userID]
	if !ok {
		return ErrUserOffline
	}
	for _, client := range clientList {
		h.enqueueLocked(client, data)
	}
	return nil
}

// SendToRole 역할이 일치하는 모든 세션에 전송, 전송된 세션 수 반환
func (h *Hub) SendToRole(role string, message interface{}) (int, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, clientList := range h.clients {
		for _, client := range clientList {
			if client.Role != role {
				continue
			}
			h.enqueueLocked(client, data)
			sent++
		}
	}
	return sent, nil
}

func (h *Hub) enqueueLocked(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		// Send 채널이 막혀있음 - 비동기로 정리
		go h.Unregister(client)
		logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
			"user_id": client.UserID,
		})
	}
}

// IsUserOnline 사용자 온라인 여부 확인
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		h.mu.RLock()
		h.enqueueLocked(client, []byte(`{"type":"pong"}`))
		h.mu.RUnlock()
	}
}
