package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/healthchat/backend/internal/service/chat"
)

const (
	readTimeout    = 60 * time.Second
	pingInterval   = 54 * time.Second
	writeTimeout   = 10 * time.Second
	toastDismissMs = 3000
)

// WebSocketHandler drives one chat controller per connection.
type WebSocketHandler struct {
	resolver        chatservice.Resolver
	greeting        string
	connectionError string
	upgrader        websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(resolver chatservice.Resolver, greeting, connectionError string) *WebSocketHandler {
	return &WebSocketHandler{
		resolver:        resolver,
		greeting:        greeting,
		connectionError: connectionError,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connWriter queues frames for a single writer goroutine, so callers never
// block on the network. gorilla connections allow one concurrent writer.
type connWriter struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	queue  []outgoingMessage
	notify chan struct{}
}

func newConnWriter(conn *websocket.Conn) *connWriter {
	return &connWriter{conn: conn, notify: make(chan struct{}, 1)}
}

func (cw *connWriter) enqueue(msg outgoingMessage) {
	cw.mu.Lock()
	cw.queue = append(cw.queue, msg)
	cw.mu.Unlock()

	select {
	case cw.notify <- struct{}{}:
	default:
	}
}

// run writes queued frames in order until ctx is done or a write fails.
func (cw *connWriter) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.notify:
		}

		cw.mu.Lock()
		batch := cw.queue
		cw.queue = nil
		cw.mu.Unlock()

		for _, msg := range batch {
			cw.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cw.conn.WriteJSON(msg); err != nil {
				log.Printf("[websocket] write %s failed: %v", msg.Type, err)
				cw.conn.Close()
				return
			}
		}
	}
}

// ping may run alongside run: WriteControl is safe for concurrent use.
func (cw *connWriter) ping() error {
	return cw.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (cw *connWriter) sendError(sessionID, message string) {
	cw.enqueue(outgoingMessage{
		Type:      "error",
		SessionID: sessionID,
		Data: map[string]any{
			"message":        message,
			"dismissAfterMs": toastDismissMs,
		},
		Timestamp: time.Now().Unix(),
	})
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	writer := newConnWriter(conn)
	controller := chatservice.NewController(h.resolver, h.greeting, h.connectionError,
		chatservice.WithListener(func(evt chatservice.Event) {
			writer.enqueue(outgoingMessage{
				Type:      string(evt.Type),
				SessionID: evt.SessionID,
				Data:      evt,
				Timestamp: time.Now().Unix(),
			})
		}),
	)

	// cancel runs before Wait so pending resolves unblock on disconnect.
	var inflight sync.WaitGroup
	defer inflight.Wait()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log.Printf("[websocket] new connection for session: %s", controller.SessionID())

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go writer.run(ctx)
	go h.pingLoop(ctx, writer)

	snapshot := controller.Snapshot()
	writer.enqueue(outgoingMessage{
		Type:      "snapshot",
		SessionID: snapshot.SessionID,
		Data:      snapshot,
		Timestamp: time.Now().Unix(),
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				writer.sendError(controller.SessionID(), "invalid message payload")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch msg.Type {
		case "send":
			inflight.Add(1)
			go func(text string) {
				defer inflight.Done()
				if err := controller.SendMessage(ctx, text); err != nil {
					writer.sendError(controller.SessionID(), err.Error())
				}
			}(msg.Text)
		case "reset":
			controller.ResetChat()
		default:
			writer.sendError(controller.SessionID(), "unsupported message type: "+msg.Type)
		}
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, writer *connWriter) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writer.ping(); err != nil {
				return
			}
		}
	}
}
