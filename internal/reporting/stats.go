// Package reporting folds the action ledger into spend and engagement
// aggregates. Impression and click counts come from the campaign counters so
// they always agree with cap enforcement; monetary figures come from the
// ledger, which captured costs at write time.
package reporting

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/openadsim/openadsim/internal/models"
)

// Stats is the aggregate over a campaign or an advertiser's campaigns.
type Stats struct {
	ImpressionsCount int     `json:"impressions_count"`
	ClicksCount      int     `json:"clicks_count"`
	Conversion       float64 `json:"conversion"`
	SpentImpressions float64 `json:"spent_impressions"`
	SpentClicks      float64 `json:"spent_clicks"`
	SpentTotal       float64 `json:"spent_total"`
}

// DailyStats is the same aggregate keyed by the simulated day the actions
// happened on. Daily counts are ledger row counts rather than campaign
// counters, since counters carry no per-day breakdown.
type DailyStats struct {
	Date             int     `json:"date"`
	ImpressionsCount int     `json:"impressions_count"`
	ClicksCount      int     `json:"clicks_count"`
	Conversion       float64 `json:"conversion"`
	SpentImpressions float64 `json:"spent_impressions"`
	SpentClicks      float64 `json:"spent_clicks"`
	SpentTotal       float64 `json:"spent_total"`
}

// FoldSpend sums ledger costs by action kind.
func FoldSpend(actions []models.Action) (impressions, clicks float64) {
	for _, a := range actions {
		if a.Kind == models.ActionClick {
			clicks += a.Cost
		} else {
			impressions += a.Cost
		}
	}
	return impressions, clicks
}

// FoldDaily buckets the ledger by day, one record per distinct day observed,
// sorted ascending.
func FoldDaily(actions []models.Action) []DailyStats {
	byDay := make(map[int]*DailyStats)
	for _, a := range actions {
		d, ok := byDay[a.Day]
		if !ok {
			d = &DailyStats{Date: a.Day}
			byDay[a.Day] = d
		}
		if a.Kind == models.ActionClick {
			d.ClicksCount++
			d.SpentClicks += a.Cost
		} else {
			d.ImpressionsCount++
			d.SpentImpressions += a.Cost
		}
	}

	out := make([]DailyStats, 0, len(byDay))
	for _, d := range byDay {
		d.SpentTotal = d.SpentImpressions + d.SpentClicks
		if d.ImpressionsCount > 0 {
			d.Conversion = float64(d.ClicksCount) / float64(d.ImpressionsCount)
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Aggregator serves the stats queries against a Store.
type Aggregator struct {
	store models.Store
}

// NewAggregator creates an Aggregator.
func NewAggregator(store models.Store) *Aggregator {
	return &Aggregator{store: store}
}

// CampaignStats returns the lifetime aggregate for one campaign.
func (a *Aggregator) CampaignStats(ctx context.Context, campaignID uuid.UUID) (*Stats, error) {
	campaign, err := a.store.GetCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	actions, err := a.store.ActionsForCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return totals([]models.Campaign{*campaign}, actions), nil
}

// CampaignDailyStats returns the per-day breakdown for one campaign.
func (a *Aggregator) CampaignDailyStats(ctx context.Context, campaignID uuid.UUID) ([]DailyStats, error) {
	if _, err := a.store.GetCampaignByID(ctx, campaignID); err != nil {
		return nil, err
	}
	actions, err := a.store.ActionsForCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return FoldDaily(actions), nil
}

// AdvertiserStats sums the lifetime aggregate across all of the advertiser's
// campaigns.
func (a *Aggregator) AdvertiserStats(ctx context.Context, advertiserID uuid.UUID) (*Stats, error) {
	campaigns, actions, err := a.advertiserLedger(ctx, advertiserID)
	if err != nil {
		return nil, err
	}
	return totals(campaigns, actions), nil
}

// AdvertiserDailyStats returns the per-day breakdown across all of the
// advertiser's campaigns.
func (a *Aggregator) AdvertiserDailyStats(ctx context.Context, advertiserID uuid.UUID) ([]DailyStats, error) {
	_, actions, err := a.advertiserLedger(ctx, advertiserID)
	if err != nil {
		return nil, err
	}
	return FoldDaily(actions), nil
}

func (a *Aggregator) advertiserLedger(ctx context.Context, advertiserID uuid.UUID) ([]models.Campaign, []models.Action, error) {
	campaigns, err := a.store.CampaignsByAdvertiser(ctx, advertiserID)
	if err != nil {
		return nil, nil, err
	}
	var actions []models.Action
	for _, c := range campaigns {
		acts, err := a.store.ActionsForCampaign(ctx, c.ID)
		if err != nil {
			return nil, nil, err
		}
		actions = append(actions, acts...)
	}
	return campaigns, actions, nil
}

func totals(campaigns []models.Campaign, actions []models.Action) *Stats {
	var s Stats
	for _, c := range campaigns {
		s.ImpressionsCount += c.CurrentImpressions
		s.ClicksCount += c.CurrentClicks
	}
	s.SpentImpressions, s.SpentClicks = FoldSpend(actions)
	s.SpentTotal = s.SpentImpressions + s.SpentClicks
	if s.ImpressionsCount > 0 {
		s.Conversion = float64(s.ClicksCount) / float64(s.ImpressionsCount)
	}
	return &s
}
