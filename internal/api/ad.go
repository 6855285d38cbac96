package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openadsim/openadsim/internal/models"
)

// GetAdHandler handles GET /ads?client_id=... and returns the single best ad
// for the client, billing the impression when one is due.
func (s *Server) GetAdHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GetAdHandler",
		trace.WithAttributes(
			attribute.String("http.method", "GET"),
			attribute.String("http.route", "/ads"),
		))
	defer span.End()

	start := time.Now()
	const endpoint = "ads"
	const method = "GET"

	clientID, err := uuid.Parse(r.URL.Query().Get("client_id"))
	if err != nil {
		s.fail(w, fmt.Errorf("invalid client_id: %w", models.ErrValidation), endpoint, method, start)
		return
	}
	span.SetAttributes(attribute.String("client_id", clientID.String()))

	ad, err := s.Selector.SelectAd(ctx, clientID)
	if err != nil {
		if errors.Is(err, models.ErrNoInventory) {
			s.Metrics.IncrementNoInventory()
			if s.Analytics != nil {
				day, _ := s.Clock.CurrentDay(ctx)
				if aerr := s.Analytics.RecordEvent(ctx, "no_ad", uuid.Nil, uuid.Nil, clientID, day, 0); aerr != nil {
					s.Logger.Warn("analytics record", zap.Error(aerr), zap.String("event_type", "no_ad"))
				}
			}
		}
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.Logger.Debug("ad served",
		zap.String("client_id", clientID.String()),
		zap.String("ad_id", ad.AdID.String()))
	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, ad)
}

type clickRequest struct {
	ClientID uuid.UUID `json:"client_id"`
}

// ClickHandler handles POST /ads/{adId}/click. The click is only accepted
// when the client has a recorded impression for the ad; repeats are accepted
// without charging again.
func (s *Server) ClickHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "ClickHandler",
		trace.WithAttributes(
			attribute.String("http.method", "POST"),
			attribute.String("http.route", "/ads/{adId}/click"),
		))
	defer span.End()

	start := time.Now()
	const endpoint = "click"
	const method = "POST"

	adID, err := pathUUID(r, "adId")
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	var req clickRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if req.ClientID == uuid.Nil {
		s.fail(w, fmt.Errorf("client_id required: %w", models.ErrValidation), endpoint, method, start)
		return
	}
	span.SetAttributes(
		attribute.String("ad_id", adID.String()),
		attribute.String("client_id", req.ClientID.String()))

	if err := s.Selector.ConfirmClick(ctx, adID, req.ClientID); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.observe(endpoint, method, http.StatusNoContent, start)
	w.WriteHeader(http.StatusNoContent)
}
