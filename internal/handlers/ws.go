package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/erricrr/hf-togetherai-rpg/internal/logger"
	"github.com/erricrr/hf-togetherai-rpg/internal/session"
	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsIdleTimeout  = 10 * time.Minute
)

// WSMessage is one player action sent over the websocket.
type WSMessage struct {
	Message string `json:"message"`
}

// WSResponse is sent back for every WSMessage. Exactly one of Error or the chat fields is set.
type WSResponse struct {
	chat.ChatResponse
	Error string `json:"error,omitempty"`
}

// WSHandler serves GET /v1/ws?session_id=<id>: a persistent connection that
// runs one turn per text frame, in order.
type WSHandler struct {
	sessions SessionService
	logger   *slog.Logger
	upgrader websocket.Upgrader
	timeout  time.Duration
}

func NewWSHandler(sessions SessionService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		timeout: DefaultTurnTimeout,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "session_id query parameter is required")
		return
	}
	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to access session")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	log := logger.WithSessionID(h.logger, id.String())
	log.Info("Websocket connected")

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(log, err).Warn("Websocket read failed")
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp := h.handleFrame(r, id, data)
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn("Websocket write failed", "error", err)
			break
		}
	}
	log.Info("Websocket disconnected")
}

// handleFrame accepts {"message": "..."} or a bare text action.
func (h *WSHandler) handleFrame(r *http.Request, id uuid.UUID, data []byte) WSResponse {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		msg.Message = string(data)
	}

	req := chat.ChatRequest{SessionID: id, Message: msg.Message}
	if err := req.Validate(); err != nil {
		return WSResponse{Error: err.Error()}
	}

	resp, status, err := runTurn(r.Context(), h.sessions, h.timeout, req)
	if err != nil {
		logger.WithError(logger.WithSessionID(h.logger, id.String()), err).Error("Error processing websocket turn")
		return WSResponse{Error: turnErrorMessage(status)}
	}
	return WSResponse{ChatResponse: *resp}
}
