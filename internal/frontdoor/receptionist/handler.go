// Package receptionist exposes the chat exchange and probes over HTTP.
package receptionist

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
	"github.com/tjfontaine/receptionist-gateway/internal/server"
)

// ReadyTimeout bounds the store ping behind /ready.
const ReadyTimeout = 2 * time.Second

// Replier runs one chat exchange.
type Replier interface {
	Reply(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
}

// Pinger is the part of the tenant store /ready needs.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

type Handler struct {
	chat   Replier
	store  Pinger
	logger *slog.Logger
}

func NewHandler(chat Replier, store Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{chat: chat, store: store, logger: logger}
}

// RegisterRoutes mounts the handler's endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)
	r.Post("/chat", h.HandleChat)
}

type healthResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type readyResponse struct {
	OK    bool   `json:"ok"`
	Store string `json:"store,omitempty"`
	Error string `json:"error,omitempty"`
}

type errorResponse struct {
	Detail string           `json:"detail"`
	Type   domain.ErrorType `json:"type"`
}

// HandleHealth reports liveness without touching any dependency.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true, Message: "Backend is live"})
}

// HandleReady pings the tenant store.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, readyResponse{Error: "tenant store not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), ReadyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		server.AddError(r.Context(), err)
		writeJSON(w, http.StatusServiceUnavailable, readyResponse{Store: h.store.Name(), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, readyResponse{OK: true, Store: h.store.Name()})
}

// HandleChat decodes a ChatRequest and returns the reply with the tenant record.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrInvalidRequest("Invalid request body").WithCause(err))
		return
	}

	resp, err := h.chat.Reply(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := domain.ToAPIError(err)
	server.AddError(r.Context(), err)
	if apiErr.Code != "" {
		server.AddLogField(r.Context(), "error_code", string(apiErr.Code))
	}
	if apiErr.UpstreamStatus != 0 {
		server.AddLogInt(r.Context(), "upstream_status", apiErr.UpstreamStatus)
	}

	writeJSON(w, apiErr.HTTPStatusCode(), errorResponse{
		Detail: apiErr.Message,
		Type:   apiErr.Type,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
