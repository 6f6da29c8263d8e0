package net

import (
	"context"
	"encoding/json"
	"log"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"atelier/editor/logging"
)

const writeWait = 10 * time.Second

// HTTPHandlerConfig carries the bridge handler's dependencies.
type HTTPHandlerConfig struct {
	Logger *log.Logger
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type stateMessage struct {
	Type  string     `json:"type"`
	Scene SceneState `json:"scene"`
}

type rejectMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// NewHTTPHandler serves the editor bridge: a health probe, a scene dump,
// and the websocket endpoint carrying edit commands and state broadcasts.
func NewHTTPHandler(bridge *Bridge, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*nethttp.Request) bool { return true },
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/scene", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(bridge.State()); err != nil {
			logger.Printf("failed to encode scene state: %v", err)
		}
	})

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("websocket upgrade failed: %v", err)
			return
		}
		bridge.serveClient(conn, logger)
	})

	return mux
}

func (b *Bridge) serveClient(conn *websocket.Conn, logger *log.Logger) {
	id := b.addSubscriber(conn)
	b.publisher.Publish(context.Background(), logging.Event{
		Type:     logging.EventClientJoined,
		Severity: logging.SeverityInfo,
	})
	defer func() {
		b.removeSubscriber(id)
		conn.Close()
		b.publisher.Publish(context.Background(), logging.Event{
			Type:     logging.EventClientLeft,
			Severity: logging.SeverityInfo,
		})
	}()

	// New clients get the current state immediately.
	b.sendState(id, b.State(), logger)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd commandMessage
		if err := json.Unmarshal(data, &cmd); err != nil {
			b.sendReject(id, "malformed command", logger)
			continue
		}
		state, err := b.Apply(cmd)
		if err != nil {
			b.publisher.Publish(context.Background(), logging.Event{
				Type:     logging.EventCommandRejected,
				Severity: logging.SeverityWarn,
				Entity:   cmd.Entity,
				Payload:  map[string]any{"command": cmd.Type, "reason": err.Error()},
			})
			b.sendReject(id, err.Error(), logger)
			continue
		}
		b.broadcastState(state, logger)
	}
}

func (b *Bridge) addSubscriber(conn *websocket.Conn) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subscribers[id] = &subscriber{conn: conn}
	return id
}

func (b *Bridge) removeSubscriber(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

func (b *Bridge) sendState(id uint64, state SceneState, logger *log.Logger) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	b.mu.Unlock()
	if !ok {
		return
	}
	sub.send(stateMessage{Type: "state", Scene: state}, logger)
}

func (b *Bridge) sendReject(id uint64, reason string, logger *log.Logger) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	b.mu.Unlock()
	if !ok {
		return
	}
	sub.send(rejectMessage{Type: "reject", Reason: reason}, logger)
}

func (b *Bridge) broadcastState(state SceneState, logger *log.Logger) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	message := stateMessage{Type: "state", Scene: state}
	for _, sub := range subs {
		sub.send(message, logger)
	}
}

func (s *subscriber) send(payload any, logger *log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(payload); err != nil {
		logger.Printf("websocket write failed: %v", err)
	}
}
