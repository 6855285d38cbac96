package api

import (
	"net/http"
	"time"

	"github.com/openadsim/openadsim/internal/reporting"
)

// CampaignStatsHandler handles GET /stats/campaigns/{campaignId}.
func (s *Server) CampaignStatsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "stats_campaign"
	const method = "GET"

	id, err := pathUUID(r, "campaignId")
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	stats, err := s.Stats.CampaignStats(r.Context(), id)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, stats)
}

// CampaignDailyStatsHandler handles GET /stats/campaigns/{campaignId}/daily.
func (s *Server) CampaignDailyStatsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "stats_campaign_daily"
	const method = "GET"

	id, err := pathUUID(r, "campaignId")
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	daily, err := s.Stats.CampaignDailyStats(r.Context(), id)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if daily == nil {
		daily = []reporting.DailyStats{}
	}

	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, daily)
}

// AdvertiserStatsHandler handles GET /stats/advertisers/{advertiserId}/campaigns.
func (s *Server) AdvertiserStatsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "stats_advertiser"
	const method = "GET"

	id, err := pathUUID(r, "advertiserId")
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	stats, err := s.Stats.AdvertiserStats(r.Context(), id)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, stats)
}

// AdvertiserDailyStatsHandler handles GET /stats/advertisers/{advertiserId}/campaigns/daily.
func (s *Server) AdvertiserDailyStatsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "stats_advertiser_daily"
	const method = "GET"

	id, err := pathUUID(r, "advertiserId")
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	daily, err := s.Stats.AdvertiserDailyStats(r.Context(), id)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if daily == nil {
		daily = []reporting.DailyStats{}
	}

	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, daily)
}
