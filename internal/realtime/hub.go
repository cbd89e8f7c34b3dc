// Package realtime pushes finished screening runs to websocket subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/pkg/logger"
)

const (
	PingInterval = 30 * time.Second
	WriteTimeout = 10 * time.Second
	PongTimeout  = 60 * time.Second
	SendBuffer   = 16
	TopSetups    = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans run events out to connected subscribers
// ⭐ SSOT: 웹소켓 구독자 관리는 이 구조체에서만
type Hub struct {
	mu      sync.RWMutex
	subs    map[*subscriber]struct{}
	last    map[contracts.StrategyID][]byte
	logger  *logger.Logger
	closeCh chan struct{}
	once    sync.Once
}

// NewHub creates a new hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subs:    make(map[*subscriber]struct{}),
		last:    make(map[contracts.StrategyID][]byte),
		logger:  log.WithField("module", "realtime"),
		closeCh: make(chan struct{}),
	}
}

// SubscriberCount returns the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// OnRun broadcasts a run summary; new subscribers also receive the last
// event of every strategy
func (h *Hub) OnRun(_ context.Context, run *contracts.ScreeningRun) error {
	data, err := json.Marshal(NewRunEvent(run, TopSetups))
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	h.mu.Lock()
	h.last[run.Strategy] = data
	n := len(h.subs)
	for s := range h.subs {
		// never block on a slow subscriber
		select {
		case s.send <- data:
		default:
			h.logger.Warn("Subscriber too slow, disconnecting")
			delete(h.subs, s)
			close(s.send)
		}
	}
	h.mu.Unlock()

	h.logger.WithStrategy(string(run.Strategy)).WithField("subscribers", n).Debug("Broadcast run event")
	return nil
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and registers the subscriber
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, SendBuffer)}

	hello, _ := json.Marshal(RunEvent{Type: EventHello, FinishedAt: time.Now()})
	s.send <- hello

	h.mu.Lock()
	for _, data := range h.last {
		select {
		case s.send <- data:
		default:
		}
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	h.logger.WithField("remote", r.RemoteAddr).Info("Subscriber connected")

	go h.writeLoop(s)
	go h.readLoop(s)
}

// readLoop only watches for close and pong frames
func (h *Hub) readLoop(s *subscriber) {
	defer h.remove(s)

	s.conn.SetReadDeadline(time.Now().Add(PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(PongTimeout))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithError(err).Debug("Subscriber read ended")
			}
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-h.closeCh:
			s.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"))
			return
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.remove(s)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(s)
				return
			}
		}
	}
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.once.Do(func() { close(h.closeCh) })
}
