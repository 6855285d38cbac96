// Package api wires the HTTP surface: entity ingestion, campaign management,
// ad delivery and click confirmation, stats, and simulated-time control.
package api

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/openadsim/openadsim/internal/adcopy"
	"github.com/openadsim/openadsim/internal/analytics"
	"github.com/openadsim/openadsim/internal/clock"
	"github.com/openadsim/openadsim/internal/config"
	"github.com/openadsim/openadsim/internal/logic/selectors"
	"github.com/openadsim/openadsim/internal/models"
	"github.com/openadsim/openadsim/internal/observability"
	"github.com/openadsim/openadsim/internal/reporting"
)

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger    *zap.Logger
	Store     models.Store
	Clock     clock.Clock
	Selector  selectors.Selector
	Analytics analytics.Service
	AdCopy    adcopy.Generator
	Stats     *reporting.Aggregator
	Metrics   observability.MetricsRegistry
	Config    config.Config
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, store models.Store, clk clock.Clock, selector selectors.Selector, an analytics.Service, gen adcopy.Generator, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	return &Server{
		Logger:    logger,
		Store:     store,
		Clock:     clk,
		Selector:  selector,
		Analytics: an,
		AdCopy:    gen,
		Stats:     reporting.NewAggregator(store),
		Metrics:   metrics,
		Config:    cfg,
	}
}

// Routes registers every handler on a fresh router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/clients/bulk", s.BulkClientsHandler).Methods("POST")
	r.HandleFunc("/clients/{clientId}", s.GetClientHandler).Methods("GET")
	r.HandleFunc("/advertisers/bulk", s.BulkAdvertisersHandler).Methods("POST")
	r.HandleFunc("/advertisers/{advertiserId}", s.GetAdvertiserHandler).Methods("GET")
	r.HandleFunc("/ml-scores", s.UpsertMLScoreHandler).Methods("POST")

	campaigns := r.PathPrefix("/advertisers/{advertiserId}/campaigns").Subrouter()
	campaigns.HandleFunc("", s.CreateCampaignHandler).Methods("POST")
	campaigns.HandleFunc("", s.ListCampaignsHandler).Methods("GET")
	campaigns.HandleFunc("/{campaignId}", s.GetCampaignHandler).Methods("GET")
	campaigns.HandleFunc("/{campaignId}", s.UpdateCampaignHandler).Methods("PUT")
	campaigns.HandleFunc("/{campaignId}", s.DeleteCampaignHandler).Methods("DELETE")

	r.HandleFunc("/ads", s.GetAdHandler).Methods("GET")
	r.HandleFunc("/ads/{adId}/click", s.ClickHandler).Methods("POST")

	r.HandleFunc("/stats/campaigns/{campaignId}", s.CampaignStatsHandler).Methods("GET")
	r.HandleFunc("/stats/campaigns/{campaignId}/daily", s.CampaignDailyStatsHandler).Methods("GET")
	r.HandleFunc("/stats/advertisers/{advertiserId}/campaigns", s.AdvertiserStatsHandler).Methods("GET")
	r.HandleFunc("/stats/advertisers/{advertiserId}/campaigns/daily", s.AdvertiserDailyStatsHandler).Methods("GET")

	r.HandleFunc("/time/advance", s.AdvanceDayHandler).Methods("POST")
	r.HandleFunc("/health", s.HealthHandler).Methods("GET")

	return r
}
