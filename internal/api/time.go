package api

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openadsim/openadsim/internal/models"
)

type advanceRequest struct {
	CurrentDate *int `json:"current_date"`
}

// AdvanceDayHandler handles POST /time/advance. The simulated day only moves
// forward; a target below the current day is rejected.
func (s *Server) AdvanceDayHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	const endpoint = "time_advance"
	const method = "POST"

	var req advanceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if req.CurrentDate == nil || *req.CurrentDate < 0 {
		s.fail(w, fmt.Errorf("current_date must be a non-negative day: %w", models.ErrValidation), endpoint, method, start)
		return
	}

	if err := s.Clock.Advance(ctx, *req.CurrentDate); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.Logger.Info("day advanced", zap.Int("day", *req.CurrentDate))
	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, map[string]int{"current_date": *req.CurrentDate})
}
