package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eugenenazirov/stock-keeper/internal/status"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler exposes the status store over HTTP.
type Handler struct {
	store status.Store
	clock clockwork.Clock
	start time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock clockwork.Clock) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store status.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		store: store,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.start = h.clock.Now()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock.Now().UTC(),
		Uptime:    h.clock.Since(h.start).Round(time.Second).String(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	last, ok := h.store.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "No cycle yet", "the first poll cycle has not finished")
		return
	}

	resp := statusResponse{
		Cycles:    h.store.Cycles(),
		LastCycle: last,
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

type statusResponse struct {
	Cycles    int           `json:"cycles"`
	LastCycle status.Report `json:"lastCycle"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if code != 0 {
		w.WriteHeader(code)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, message, details string) {
	writeJSON(w, code, errorResponse{
		Error:   message,
		Details: details,
	})
}
