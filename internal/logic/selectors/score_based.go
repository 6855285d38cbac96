package selectors

import (
	"context"
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openadsim/openadsim/internal/analytics"
	"github.com/openadsim/openadsim/internal/clock"
	"github.com/openadsim/openadsim/internal/logic"
	"github.com/openadsim/openadsim/internal/models"
	"github.com/openadsim/openadsim/internal/observability"
)

// defaultPickFn picks a random index for the repeat-exposure bucket. It uses
// the package-level random source, which the selector only calls from
// request-scoped code paths.
var defaultPickFn = func(n int) int {
	return rand.Intn(n)
}

// PickFn selects an index in [0,n) among repeat-exposure candidates. Tests
// may replace it for deterministic behavior.
var PickFn = defaultPickFn

// ScoreBasedSelector implements the three-tier serving policy: a scored new
// impression first, then a scored click opportunity, then an unbilled repeat
// exposure.
type ScoreBasedSelector struct {
	store     models.Store
	clock     clock.Clock
	analytics analytics.Service
	logger    *zap.Logger
	metrics   observability.MetricsRegistry
}

// NewScoreBasedSelector constructs a selector over the given collaborators.
func NewScoreBasedSelector(store models.Store, clk clock.Clock, an analytics.Service, logger *zap.Logger, metrics observability.MetricsRegistry) *ScoreBasedSelector {
	return &ScoreBasedSelector{
		store:     store,
		clock:     clk,
		analytics: an,
		logger:    logger,
		metrics:   metrics,
	}
}

// SelectAd resolves the client, filters and buckets the campaign set for the
// current day and serves per bucket priority. Only the new-impression path
// bills: the counter increment and ledger append happen atomically in the
// store, and a concurrent duplicate is served without billing again.
func (s *ScoreBasedSelector) SelectAd(ctx context.Context, clientID uuid.UUID) (*models.AdResponse, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	day, err := s.clock.CurrentDay(ctx)
	if err != nil {
		return nil, err
	}

	campaigns, err := s.store.AllCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ActionsForClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	eligible := logic.EligibleCampaigns(day, campaigns, *client)
	if len(eligible) == 0 {
		return nil, models.ErrNoInventory
	}

	buckets := logic.ClassifyExposure(eligible, history)

	switch {
	case len(buckets.NewImpression) > 0:
		scores, err := s.store.MLScoresForClient(ctx, clientID)
		if err != nil {
			return nil, err
		}
		top := logic.RankCampaigns(buckets.NewImpression, scores)[0]

		act, err := s.store.RecordImpression(ctx, top.ID, clientID, day)
		switch {
		case errors.Is(err, models.ErrDuplicateAction):
			// A concurrent request already billed this pair; serve without
			// charging again.
			s.logger.Warn("impression already recorded",
				zap.String("campaign_id", top.ID.String()),
				zap.String("client_id", clientID.String()))
		case err != nil:
			return nil, err
		default:
			s.metrics.IncrementEvent("impression")
			s.metrics.AddSpend(top.ID.String(), act.Cost)
			s.recordEvent(ctx, models.ActionImpression, top, clientID, day, act.Cost)
		}
		return adResponse(top), nil

	case len(buckets.NewClick) > 0:
		scores, err := s.store.MLScoresForClient(ctx, clientID)
		if err != nil {
			return nil, err
		}
		top := logic.RankCampaigns(buckets.NewClick, scores)[0]
		// Billing for clicks happens only on explicit confirmation.
		s.metrics.IncrementEvent("click_offer")
		return adResponse(top), nil

	case len(buckets.RepeatExposure) > 0:
		pick := buckets.RepeatExposure[PickFn(len(buckets.RepeatExposure))]
		s.metrics.IncrementEvent("repeat_exposure")
		return adResponse(pick), nil
	}

	return nil, models.ErrNoInventory
}

// ConfirmClick validates the impression precursor, then bills the click. A
// repeated confirmation finds the existing ledger row and returns success
// without charging twice.
func (s *ScoreBasedSelector) ConfirmClick(ctx context.Context, campaignID, clientID uuid.UUID) error {
	campaign, err := s.store.GetCampaignByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return err
	}

	day, err := s.clock.CurrentDay(ctx)
	if err != nil {
		return err
	}

	seen, err := s.store.HasAction(ctx, clientID, campaignID, models.ActionImpression)
	if err != nil {
		return err
	}
	if !seen {
		return models.ErrPrecursorMissing
	}

	act, err := s.store.RecordClick(ctx, campaignID, clientID, day)
	if errors.Is(err, models.ErrDuplicateAction) {
		s.metrics.IncrementEvent("click_duplicate")
		return nil
	}
	if err != nil {
		return err
	}

	s.metrics.IncrementEvent("click")
	s.metrics.AddSpend(campaignID.String(), act.Cost)
	s.recordEvent(ctx, models.ActionClick, *campaign, clientID, day, act.Cost)
	return nil
}

// recordEvent ships a billing event to the analytics sink. Analytics failures
// never fail serving; the ledger in the primary store is the source of truth.
func (s *ScoreBasedSelector) recordEvent(ctx context.Context, kind string, c models.Campaign, clientID uuid.UUID, day int, cost float64) {
	if s.analytics == nil {
		return
	}
	if err := s.analytics.RecordEvent(ctx, kind, c.ID, c.AdvertiserID, clientID, day, cost); err != nil {
		s.logger.Warn("analytics record", zap.Error(err), zap.String("event_type", kind))
	}
}

func adResponse(c models.Campaign) *models.AdResponse {
	return &models.AdResponse{
		AdID:         c.ID,
		AdTitle:      c.AdTitle,
		AdText:       c.AdText,
		AdvertiserID: c.AdvertiserID,
	}
}
