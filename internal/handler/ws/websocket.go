package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatHandler "github.com/zhouzirui/emotibot/backend/internal/handler/chat"
	"github.com/zhouzirui/emotibot/backend/internal/handler/session"
	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	chatService "github.com/zhouzirui/emotibot/backend/internal/service/chat"
	sessionService "github.com/zhouzirui/emotibot/backend/internal/service/session"
)

const (
	defaultReadTimeout = 60 * time.Second
	pingInterval       = 25 * time.Second
	writeTimeout       = 10 * time.Second
)

// Handler WebSocket 聊天处理器，每个连接一个读循环
type Handler struct {
	chatSvc    *chatService.Service
	sessionSvc *sessionService.Service
	upgrader   websocket.Upgrader
	// idle time allowed between client messages
	readTimeout time.Duration
}

// New 创建WebSocket处理器
func New(chatSvc *chatService.Service, sessionSvc *sessionService.Service) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		sessionSvc: sessionSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout: defaultReadTimeout,
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Message string `json:"message"`
}

type outgoingMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Response  string          `json:"response,omitempty"`
	Emotions  []emotion.Score `json:"emotions,omitempty"`
	Detected  string          `json:"detected,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	state, ok := session.Current(w, r, h.sessionSvc)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", state.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go pingLoop(ctx, conn)

	h.send(conn, outgoingMessage{Type: "connected", SessionID: state.ID})

	for {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))

		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		// 生成回复可能超过读超时，处理期间不计时。
		conn.SetReadDeadline(time.Time{})

		reply, err := h.chatSvc.Send(ctx, state.ID, msg.Message)
		if err != nil {
			_, message := chatHandler.ErrorStatus(err)
			h.send(conn, outgoingMessage{Type: "error", SessionID: state.ID, Error: message})
			continue
		}

		h.send(conn, outgoingMessage{
			Type:      "reply",
			SessionID: state.ID,
			Response:  reply.Response,
			Emotions:  reply.Emotions,
			Detected:  reply.Detected,
		})
	}
}

// send 只在读循环所在的 goroutine 调用；ping 使用 WriteControl，可并发。
func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write failed: %v", err)
	}
}

func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
