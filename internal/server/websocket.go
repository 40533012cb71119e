package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxlate/voxlate/internal/translator/coordinator"
	"github.com/voxlate/voxlate/internal/translator/provider"
	"github.com/voxlate/voxlate/pkg/core/logging"
)

// WebSocket upgrader with permissive settings for local development
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler runs live translation sessions. Each connection
// gets its own conversation so the session accumulates context.
type WebSocketHandler struct {
	coordinator *coordinator.Coordinator
	logger      *logging.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(c *coordinator.Coordinator) *WebSocketHandler {
	return &WebSocketHandler{
		coordinator: c,
		logger:      logging.New("ws-handler"),
	}
}

// WSMessage represents an incoming WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`    // "start", "translate", "ping"
	Payload json.RawMessage `json:"payload"` // Message-specific payload
}

// WSStartPayload opens a translation session
type WSStartPayload struct {
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	Domain     string `json:"domain,omitempty"`
}

// WSTranslatePayload carries one utterance to translate
type WSTranslatePayload struct {
	Text    string            `json:"text"`
	Options *provider.Options `json:"options,omitempty"`
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Type    string      `json:"type"` // "started", "result", "error", "pong"
	Payload interface{} `json:"payload"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	h.handleConnection(conn)
}

type session struct {
	conversationID string
	sourceLang     string
	targetLang     string
}

// handleConnection handles a single WebSocket connection
func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	h.logger.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sess *session
	defer func() {
		if sess != nil {
			h.coordinator.ClearContext(sess.conversationID)
		}
	}()

	conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error", "error", err)
			} else {
				h.logger.Info("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		switch msg.Type {
		case "ping":
			h.sendResponse(conn, WSResponse{Type: "pong"})

		case "start":
			var payload WSStartPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(conn, "invalid_payload", "Invalid start payload")
				continue
			}
			if payload.SourceLang == "" || payload.TargetLang == "" {
				h.sendError(conn, "invalid_request", "Source and target language required")
				continue
			}

			if sess != nil {
				h.coordinator.ClearContext(sess.conversationID)
			}
			sess = &session{
				conversationID: h.coordinator.CreateConversation(payload.SourceLang, payload.TargetLang, payload.Domain),
				sourceLang:     payload.SourceLang,
				targetLang:     payload.TargetLang,
			}
			h.sendResponse(conn, WSResponse{Type: "started", Payload: ConversationResponse{ID: sess.conversationID}})

		case "translate":
			var payload WSTranslatePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(conn, "invalid_payload", "Invalid translate payload")
				continue
			}
			if sess == nil {
				h.sendError(conn, "no_session", "Send a start message first")
				continue
			}

			opts := payload.Options
			if opts == nil {
				opts = provider.DefaultOptions()
			}
			opts.ConversationID = sess.conversationID

			result := h.coordinator.Translate(ctx, payload.Text, sess.sourceLang, sess.targetLang, opts)
			h.sendResponse(conn, WSResponse{Type: "result", Payload: result})

		default:
			h.sendError(conn, "unknown_type", "Unknown message type: "+msg.Type)
		}
	}
}

// sendResponse sends a response message via WebSocket
func (h *WebSocketHandler) sendResponse(conn *websocket.Conn, resp WSResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.Error("WebSocket send error", "error", err)
	}
}

// sendError sends an error response via WebSocket
func (h *WebSocketHandler) sendError(conn *websocket.Conn, code, message string) {
	h.sendResponse(conn, WSResponse{
		Type:    "error",
		Payload: WSErrorPayload{Code: code, Message: message},
	})
}
