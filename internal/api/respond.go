package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/openadsim/openadsim/internal/models"
)

var tracer = otel.Tracer("openadsim")

// statusFromError maps the domain error taxonomy onto HTTP statuses.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrPrecursorMissing):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrNoInventory):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateAction):
		return http.StatusConflict
	case errors.Is(err, models.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("parse json: %w", models.ErrValidation)
	}
	return nil
}

// pathUUID extracts one UUID path variable.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, models.ErrValidation)
	}
	return id, nil
}

// observe records request count and latency for one handler invocation.
func (s *Server) observe(endpoint, method string, status int, start time.Time) {
	s.Metrics.IncrementRequests(endpoint, method, fmt.Sprintf("%d", status))
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}

// fail logs the error, emits metrics and writes the mapped status with a JSON
// detail body.
func (s *Server) fail(w http.ResponseWriter, err error, endpoint, method string, start time.Time) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", zap.String("endpoint", endpoint), zap.Error(err))
	} else {
		s.Logger.Debug("request rejected", zap.String("endpoint", endpoint), zap.Error(err))
	}
	s.observe(endpoint, method, status, start)
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
