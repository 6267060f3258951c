// Package api exposes the engine over HTTP. Every route is scoped by the
// tenant path segment; the engine enforces tenant ownership on reads and
// transitions.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/optiflow/decision-engine/pkg/engine"
	"github.com/optiflow/decision-engine/pkg/models"
)

// Handler serves the engine's inbound operations.
type Handler struct {
	log    *zap.Logger
	engine *engine.Engine
}

// NewHandler creates the HTTP handler around an engine.
func NewHandler(log *zap.Logger, eng *engine.Engine) *Handler {
	return &Handler{log: log.Named("api"), engine: eng}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(h.log))

	api := r.PathPrefix("/api/v1/tenants/{tenantID}").Subrouter()
	api.HandleFunc("/evaluations", h.RunEvaluation).Methods(http.MethodPost)
	api.HandleFunc("/decisions", h.ListDecisions).Methods(http.MethodGet)
	api.HandleFunc("/decisions/{decisionID}", h.GetDecision).Methods(http.MethodGet)
	api.HandleFunc("/decisions/{decisionID}/implement", h.Implement).Methods(http.MethodPost)
	api.HandleFunc("/decisions/{decisionID}/status", h.UpdateStatus).Methods(http.MethodPatch)
	api.HandleFunc("/decisions/{decisionID}/audit", h.GetAuditLog).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// RunEvaluation executes one evaluation cycle for the tenant.
// Query parameters: trigger (default "scheduled" semantics via low-stock et
// al. rules; "manual" always activates) and force.
func (h *Handler) RunEvaluation(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantID"]

	kind := models.TriggerKind(r.URL.Query().Get("trigger"))
	force := r.URL.Query().Get("force") == "true"

	report, err := h.engine.RunEvaluation(r.Context(), tenantID, kind, force)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// ListDecisions returns the tenant's most recent decisions.
func (h *Handler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantID"]

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	decisions, err := h.engine.Decisions(r.Context(), tenantID, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if decisions == nil {
		decisions = []*models.Decision{}
	}
	respondJSON(w, http.StatusOK, decisions)
}

// GetDecision returns one decision scoped by tenant.
func (h *Handler) GetDecision(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	decision, err := h.engine.Decision(r.Context(), vars["tenantID"], vars["decisionID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, decision)
}

// Implement applies the manual implement action.
func (h *Handler) Implement(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	result, err := h.engine.Implement(r.Context(), vars["tenantID"], vars["decisionID"])
	if err != nil {
		h.respondImplementError(w, r, result, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type statusRequest struct {
	Status models.DecisionStatus `json:"status"`
}

// UpdateStatus applies a manual status transition.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.engine.UpdateStatus(r.Context(), vars["tenantID"], vars["decisionID"], req.Status); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// GetAuditLog returns the transition history of a decision.
func (h *Handler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	entries, err := h.engine.AuditLog(r.Context(), vars["tenantID"], vars["decisionID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
