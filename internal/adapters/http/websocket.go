package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kirillkom/linguista/internal/core/chat"
	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 64 << 10
)

// wsFrame is one outbound websocket message. A stream starts with a
// "snapshot" frame holding the transcript, followed by "appended" and
// "removed" frames as the session changes.
type wsFrame struct {
	Type       string              `json:"type"`
	Transcript *chat.Transcript    `json:"transcript,omitempty"`
	Message    *domain.ChatMessage `json:"message,omitempty"`
	Error      string              `json:"error,omitempty"`
}

type wsHandler struct {
	chat           ports.ChatService
	allowedOrigins map[string]bool
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

func newWSHandler(chatService ports.ChatService, allowedOrigins []string, logger *slog.Logger) *wsHandler {
	h := &wsHandler{
		chat:           chatService,
		allowedOrigins: make(map[string]bool, len(allowedOrigins)),
		logger:         logger,
	}
	for _, o := range allowedOrigins {
		h.allowedOrigins[o] = true
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *wsHandler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return h.allowedOrigins[origin]
}

// ServeHTTP streams session events and accepts chat requests sent as JSON
// text frames. Replies arrive as events, never as direct responses.
func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	// Subscribe before the snapshot so no event falls between the two.
	// Clients drop events whose message id is already in the snapshot.
	events, unsubscribe, err := h.chat.Subscribe(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{Error: errorMessage(err, "loading the chat")})
		return
	}
	defer unsubscribe()
	transcript, err := h.chat.Transcript(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{Error: errorMessage(err, "loading the chat")})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket_upgrade_failed", "session_id", sessionID, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	outbound := make(chan wsFrame, 8)
	go h.readLoop(ctx, cancel, conn, sessionID, outbound)

	if err := writeFrame(conn, wsFrame{Type: "snapshot", Transcript: &transcript}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		var frame wsFrame
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			msg := evt.Message
			frame = wsFrame{Type: string(evt.Kind), Message: &msg}
		case frame = <-outbound:
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}
		if err := writeFrame(conn, frame); err != nil {
			h.logger.Debug("websocket_write_failed", "session_id", sessionID, "error", err)
			return
		}
	}
}

func (h *wsHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sessionID string, outbound chan<- wsFrame) {
	defer cancel()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket_closed_unexpectedly", "session_id", sessionID, "error", err)
			}
			return
		}

		var req domain.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.reject(ctx, outbound, "Invalid message format. Send a JSON chat request.")
			continue
		}
		go func() {
			if _, err := h.chat.Send(ctx, sessionID, req); err != nil {
				h.reject(ctx, outbound, errorMessage(err, "sending your message"))
			}
		}()
	}
}

func (h *wsHandler) reject(ctx context.Context, outbound chan<- wsFrame, message string) {
	select {
	case outbound <- wsFrame{Type: "error", Error: message}:
	case <-ctx.Done():
	}
}

func writeFrame(conn *websocket.Conn, frame wsFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(frame)
}
