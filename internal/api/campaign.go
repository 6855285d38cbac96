package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openadsim/openadsim/internal/logic"
	"github.com/openadsim/openadsim/internal/models"
)

// CreateCampaignHandler handles POST /advertisers/{advertiserId}/campaigns.
// With ?llm=1 the ad text is produced by the copy generator from the title,
// overriding whatever text the request carried.
func (s *Server) CreateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	const endpoint = "campaigns_create"
	const method = "POST"

	advertiserID, err := pathUUID(r, "advertiserId")
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if _, err := s.Store.GetAdvertiser(ctx, advertiserID); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	var c models.Campaign
	if err := decodeJSON(r, &c); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	c.ID = uuid.New()
	c.AdvertiserID = advertiserID
	c.CurrentImpressions = 0
	c.CurrentClicks = 0

	if useLLM(r) {
		text, err := s.AdCopy.Generate(ctx, c.AdTitle)
		if err != nil {
			s.fail(w, err, endpoint, method, start)
			return
		}
		c.AdText = text
	}

	day, err := s.Clock.CurrentDay(ctx)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if err := logic.ValidateNewCampaign(c, day); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if err := s.Store.CreateCampaign(ctx, &c); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.Logger.Info("campaign created",
		zap.String("campaign_id", c.ID.String()),
		zap.String("advertiser_id", advertiserID.String()))
	s.observe(endpoint, method, http.StatusCreated, start)
	writeJSON(w, http.StatusCreated, c)
}

// useLLM reports whether the request opted into generated ad copy.
func useLLM(r *http.Request) bool {
	v := r.URL.Query().Get("llm")
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// ListCampaignsHandler handles GET /advertisers/{advertiserId}/campaigns with
// optional size and page query parameters. A page without a size has nothing
// to window and is ignored.
func (s *Server) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "campaigns_list"
	const method = "GET"

	advertiserID, err := pathUUID(r, "advertiserId")
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	limit, offset := 0, 0
	if size, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && size > 0 {
		limit = size
		// pages are 1-based; page 1 starts at the first row
		if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 1 {
			offset = (page - 1) * size
		}
	}

	campaigns, err := s.Store.ListCampaigns(r.Context(), advertiserID, limit, offset)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if campaigns == nil {
		campaigns = []models.Campaign{}
	}

	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, campaigns)
}

// GetCampaignHandler handles GET /advertisers/{advertiserId}/campaigns/{campaignId}.
func (s *Server) GetCampaignHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "campaigns_get"
	const method = "GET"

	advertiserID, campaignID, err := campaignVars(r)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	c, err := s.Store.GetCampaign(r.Context(), advertiserID, campaignID)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, c)
}

// UpdateCampaignHandler handles PUT /advertisers/{advertiserId}/campaigns/{campaignId}.
// Dates and caps freeze once the campaign has started. With ?llm=1 the ad
// text is regenerated from the updated title, failing the whole edit when
// generation exhausts its retries.
func (s *Server) UpdateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	const endpoint = "campaigns_update"
	const method = "PUT"

	advertiserID, campaignID, err := campaignVars(r)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	var upd logic.CampaignUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	c, err := s.Store.GetCampaign(ctx, advertiserID, campaignID)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	day, err := s.Clock.CurrentDay(ctx)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if err := logic.ApplyCampaignUpdate(c, upd, day); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	// Regeneration runs against the merged title so an ad_title edit in the
	// same request is reflected in the new copy.
	if useLLM(r) {
		text, err := s.AdCopy.Generate(ctx, c.AdTitle)
		if err != nil {
			s.fail(w, err, endpoint, method, start)
			return
		}
		c.AdText = text
	}
	if err := s.Store.UpdateCampaign(ctx, *c); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, c)
}

// DeleteCampaignHandler handles DELETE /advertisers/{advertiserId}/campaigns/{campaignId}.
func (s *Server) DeleteCampaignHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "campaigns_delete"
	const method = "DELETE"

	advertiserID, campaignID, err := campaignVars(r)
	if err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}
	if err := s.Store.DeleteCampaign(r.Context(), advertiserID, campaignID); err != nil {
		s.fail(w, err, endpoint, method, start)
		return
	}

	s.Logger.Info("campaign deleted", zap.String("campaign_id", campaignID.String()))
	s.observe(endpoint, method, http.StatusNoContent, start)
	w.WriteHeader(http.StatusNoContent)
}

func campaignVars(r *http.Request) (advertiserID, campaignID uuid.UUID, err error) {
	advertiserID, err = pathUUID(r, "advertiserId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	campaignID, err = pathUUID(r, "campaignId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return advertiserID, campaignID, nil
}
