package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/openadsim/openadsim/internal/logic"
	"github.com/openadsim/openadsim/internal/models"
)

// BulkClientsHandler handles POST /clients/bulk. The batch is validated and
// written all-or-nothing; the stored batch is echoed back.
func (s *Server) BulkClientsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "clients_bulk"
	const method = "POST"

	var clients []models.Client
	if err := decodeJSON(r, &clients); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	for _, c := range clients {
		if err := logic.ValidateClient(c); err != nil {
			s.fail(w, err, endpoint, method, start)
			return
		}
	}
	if err := s.Store.UpsertClients(r.Context(), clients); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.observe(endpoint, method, http.StatusCreated, start)
	writeJSON(w, http.StatusCreated, clients)
}

// GetClientHandler handles GET /clients/{clientId}.
func (s *Server) GetClientHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "clients_get"
	const method = "GET"

	id, err := pathUUID(r, "clientId")
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	client, err := s.Store.GetClient(r.Context(), id)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, client)
}

// BulkAdvertisersHandler handles POST /advertisers/bulk.
func (s *Server) BulkAdvertisersHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "advertisers_bulk"
	const method = "POST"

	var advertisers []models.Advertiser
	if err := decodeJSON(r, &advertisers); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	for _, a := range advertisers {
		if a.Name == "" {
			s.fail(w, fmt.Errorf("advertiser name required: %w", models.ErrValidation), endpoint, method, start)
			return
		}
	}
	if err := s.Store.UpsertAdvertisers(r.Context(), advertisers); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.observe(endpoint, method, http.StatusCreated, start)
	writeJSON(w, http.StatusCreated, advertisers)
}

// GetAdvertiserHandler handles GET /advertisers/{advertiserId}.
func (s *Server) GetAdvertiserHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "advertisers_get"
	const method = "GET"

	id, err := pathUUID(r, "advertiserId")
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	advertiser, err := s.Store.GetAdvertiser(r.Context(), id)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, advertiser)
}

// UpsertMLScoreHandler handles POST /ml-scores. Both the client and the
// advertiser must already exist.
func (s *Server) UpsertMLScoreHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "ml_scores"
	const method = "POST"

	var score models.MLScore
	if err := decodeJSON(r, &score); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if score.Score < 0 {
		s.fail(w, fmt.Errorf("score must be non-negative: %w", models.ErrValidation), endpoint, method, start)
		return
	}
	if err := s.Store.UpsertMLScore(r.Context(), score); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, score)
}
