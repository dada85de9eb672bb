package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/savegress/cliniredact/internal/audit"
	"github.com/savegress/cliniredact/internal/engine"
	"github.com/savegress/cliniredact/pkg/models"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	engine *engine.Engine
	audit  *audit.Logger
}

// NewHandlers creates new handlers.
func NewHandlers(eng *engine.Engine, auditLog *audit.Logger) *Handlers {
	return &Handlers{
		engine: eng,
		audit:  auditLog,
	}
}

// HealthCheck handles health check requests.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": engine.EngineName,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Redact runs the redaction engine over the request text.
func (h *Handlers) Redact(w http.ResponseWriter, r *http.Request) {
	var req models.RedactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.engine.Redact(r.Context(), req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		// generic messages only; never echo input or wrapped detail
		respondError(w, status, engine.Classify(err))
		return
	}

	respond(w, http.StatusOK, result)
}

// ListAuditEvents returns the collected audit trail.
func (h *Handlers) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		respond(w, http.StatusOK, []models.RedactionEvent{})
		return
	}
	respond(w, http.StatusOK, h.audit.Events())
}

// GetAuditStats returns audit trail totals.
func (h *Handlers) GetAuditStats(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		respond(w, http.StatusOK, audit.Stats{})
		return
	}
	respond(w, http.StatusOK, h.audit.Stats())
}

func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
