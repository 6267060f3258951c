package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/optiflow/decision-engine/pkg/lifecycle"
	"github.com/optiflow/decision-engine/pkg/storage"
)

// APIError is the structured error response body.
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes for the engine's error taxonomy.
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeAlreadyProcessed  = "ALREADY_PROCESSED"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	code := ErrCodeInvalidRequest
	if status >= 500 {
		code = ErrCodeInternalError
	}
	respondJSON(w, status, APIError{Error: message, Code: code})
}

// respondError maps the engine's typed errors to HTTP statuses. Unknown
// errors are logged and masked as 500s.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		respondJSON(w, http.StatusNotFound, APIError{Error: err.Error(), Code: ErrCodeNotFound})
	case errors.Is(err, lifecycle.ErrAlreadyProcessed):
		respondJSON(w, http.StatusConflict, APIError{Error: err.Error(), Code: ErrCodeAlreadyProcessed})
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		respondJSON(w, http.StatusUnprocessableEntity, APIError{Error: err.Error(), Code: ErrCodeInvalidTransition})
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondJSON(w, http.StatusInternalServerError, APIError{Error: "internal error", Code: ErrCodeInternalError})
	}
}

// respondImplementError keeps the idempotence contract: a terminal decision
// yields 200 with "already processed" rather than an error, while a failed
// executor surfaces the rejection to the caller.
func (h *Handler) respondImplementError(w http.ResponseWriter, r *http.Request, result lifecycle.ImplementResult, err error) {
	if errors.Is(err, lifecycle.ErrAlreadyProcessed) {
		respondJSON(w, http.StatusOK, result)
		return
	}
	if result.Result != "" {
		// Executor failure: decision was rejected, report it as such.
		respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"result": result.Result,
			"status": string(result.Status),
			"error":  err.Error(),
		})
		return
	}
	h.respondError(w, r, err)
}

// requestLogger logs one line per request after the response is written.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	log = log.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", recorder.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
