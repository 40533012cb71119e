// Package server exposes the translation coordinator over HTTP and
// WebSocket.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxlate/voxlate/internal/pipeline"
	"github.com/voxlate/voxlate/internal/translator/coordinator"
	"github.com/voxlate/voxlate/internal/translator/provider"
	"github.com/voxlate/voxlate/pkg/core/health"
	"github.com/voxlate/voxlate/pkg/core/logging"
)

// TranslateRequest is the POST /api/translate payload
type TranslateRequest struct {
	Text       string            `json:"text"`
	SourceLang string            `json:"sourceLang"`
	TargetLang string            `json:"targetLang"`
	Options    *provider.Options `json:"options,omitempty"`
}

// BatchRequest is the POST /api/translate/batch payload
type BatchRequest struct {
	Texts      []string          `json:"texts"`
	SourceLang string            `json:"sourceLang"`
	TargetLang string            `json:"targetLang"`
	Options    *provider.Options `json:"options,omitempty"`
}

// BatchResponse wraps positionally aligned batch results
type BatchResponse struct {
	Results []*provider.Result `json:"results"`
	Total   int                `json:"total"`
}

// PipelineRequest is the POST /api/pipeline payload. Audio is
// base64-encoded in JSON; requests without audio run the pipeline on
// Text and skip transcription.
type PipelineRequest struct {
	Audio      []byte            `json:"audio,omitempty"`
	Text       string            `json:"text,omitempty"`
	SourceLang string            `json:"sourceLang"`
	TargetLang string            `json:"targetLang"`
	Options    *provider.Options `json:"options,omitempty"`
}

// PipelineResponse carries the outcome of one pipeline run
type PipelineResponse struct {
	RequestID   string           `json:"requestId"`
	Transcript  string           `json:"transcript,omitempty"`
	Translation *provider.Result `json:"translation"`
	Audio       []byte           `json:"audio,omitempty"`
	DurationMs  int64            `json:"durationMs"`
}

// ConversationRequest is the POST /api/conversations payload
type ConversationRequest struct {
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	Domain     string `json:"domain,omitempty"`
}

// ConversationResponse carries a created conversation ID
type ConversationResponse struct {
	ID string `json:"id"`
}

// LanguagePairsResponse lists supported "from-to" pairs
type LanguagePairsResponse struct {
	Pairs []string `json:"pairs"`
	Total int      `json:"total"`
}

// HistoryResponse wraps recent translation results
type HistoryResponse struct {
	History []*provider.Result `json:"history"`
	Total   int                `json:"total"`
}

// ErrorResponse is the uniform error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Handler serves the translation HTTP API
type Handler struct {
	coordinator *coordinator.Coordinator
	pipeline    *pipeline.Engine
	health      *health.Registry
	logger      *logging.Logger
	startTime   time.Time
	version     string
}

// NewHandler creates the API handler
func NewHandler(version string, c *coordinator.Coordinator, engine *pipeline.Engine, registry *health.Registry) *Handler {
	return &Handler{
		coordinator: c,
		pipeline:    engine,
		health:      registry,
		logger:      logging.New("api-handler"),
		startTime:   time.Now(),
		version:     version,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api")
	path = strings.Trim(path, "/")

	switch {
	case path == "":
		h.handleRoot(w, r)
	case path == "health":
		h.handleHealth(w, r)
	case path == "translate":
		h.handleTranslate(w, r)
	case path == "translate/batch":
		h.handleBatch(w, r)
	case path == "pipeline":
		h.handlePipeline(w, r)
	case path == "status":
		h.handleStatus(w, r)
	case path == "languages":
		h.handleLanguages(w, r)
	case path == "history":
		h.handleHistory(w, r)
	case path == "conversations":
		h.handleConversations(w, r)
	case strings.HasPrefix(path, "conversations/"):
		h.handleConversation(w, r, strings.TrimPrefix(path, "conversations/"))
	default:
		h.writeError(w, http.StatusNotFound, "not_found", "Endpoint not found", "")
	}
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "voxlate API",
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
		"endpoints": []string{
			"POST /api/translate",
			"POST /api/translate/batch",
			"POST /api/pipeline",
			"GET /api/status",
			"GET /api/languages",
			"GET /api/history",
			"POST /api/conversations",
			"DELETE /api/conversations/{id}",
			"GET /api/health",
			"WS /ws/translate",
		},
	}
	h.writeJSON(w, http.StatusOK, info)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	report := h.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, report)
}

func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON", err.Error())
		return
	}

	result := h.coordinator.Translate(r.Context(), req.Text, req.SourceLang, req.TargetLang, req.Options)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON", err.Error())
		return
	}
	if len(req.Texts) == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Texts required", "")
		return
	}

	results := h.coordinator.TranslateBatch(r.Context(), req.Texts, req.SourceLang, req.TargetLang, req.Options)
	h.writeJSON(w, http.StatusOK, BatchResponse{Results: results, Total: len(results)})
}

func (h *Handler) handlePipeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	var req PipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON", err.Error())
		return
	}
	if len(req.Audio) == 0 && strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Audio or text required", "")
		return
	}

	var (
		pctx *pipeline.Context
		err  error
	)
	if len(req.Audio) > 0 {
		pctx, err = h.pipeline.Process(r.Context(), req.Audio, req.SourceLang, req.TargetLang, req.Options)
	} else {
		pctx = pipeline.NewContext(uuid.New().String(), req.Text, req.SourceLang, req.TargetLang, req.Options)
		err = h.pipeline.Execute(r.Context(), pctx)
	}
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "pipeline_failed", "Pipeline execution failed", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, PipelineResponse{
		RequestID:   pctx.RequestID,
		Transcript:  pctx.Transcript,
		Translation: pctx.Translation,
		Audio:       pctx.AudioOutput,
		DurationMs:  pctx.ElapsedTime().Milliseconds(),
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}
	h.writeJSON(w, http.StatusOK, h.coordinator.GetServiceStatus())
}

func (h *Handler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	pairs := h.coordinator.GetSupportedLanguagePairs()
	h.writeJSON(w, http.StatusOK, LanguagePairsResponse{Pairs: pairs, Total: len(pairs)})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid limit", err.Error())
			return
		}
		limit = n
	}

	history := h.coordinator.GetTranslationHistory(limit)
	h.writeJSON(w, http.StatusOK, HistoryResponse{History: history, Total: len(history)})
}

func (h *Handler) handleConversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req ConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON", err.Error())
			return
		}
		id := h.coordinator.CreateConversation(req.SourceLang, req.TargetLang, req.Domain)
		h.writeJSON(w, http.StatusCreated, ConversationResponse{ID: id})

	case http.MethodDelete:
		h.coordinator.ClearContext("")
		w.WriteHeader(http.StatusNoContent)

	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST or DELETE", "")
	}
}

func (h *Handler) handleConversation(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodDelete {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use DELETE", "")
		return
	}
	h.coordinator.ClearContext(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}
