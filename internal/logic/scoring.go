package logic

import (
	"sort"

	"github.com/google/uuid"

	"github.com/openadsim/openadsim/internal/models"
)

// Blend weights for the combined score.
const (
	profitWeight    = 0.8
	relevanceWeight = 0.2
)

// CampaignFeatures carries the raw per-campaign scoring inputs before
// normalization. Computing features and blending them are separate passes so
// each can be tested on its own.
type CampaignFeatures struct {
	Campaign  models.Campaign
	CTR       float64
	Profit    float64
	Relevance float64
}

// SmoothedCTR is the Laplace-smoothed click-through estimate
// (clicks+1)/(impressions+2). It never divides by zero and pulls campaigns
// with no history toward 0.5.
func SmoothedCTR(c models.Campaign) float64 {
	return float64(c.CurrentClicks+1) / float64(c.CurrentImpressions+2)
}

// ComputeFeatures derives CTR, expected profit and relevance for each
// candidate. Relevance defaults to zero when the client has no ML score for
// the campaign's advertiser.
func ComputeFeatures(candidates []models.Campaign, mlScores map[uuid.UUID]int) []CampaignFeatures {
	feats := make([]CampaignFeatures, 0, len(candidates))
	for _, c := range candidates {
		ctr := SmoothedCTR(c)
		feats = append(feats, CampaignFeatures{
			Campaign:  c,
			CTR:       ctr,
			Profit:    c.CostPerImpression + c.CostPerClick*ctr,
			Relevance: float64(mlScores[c.AdvertiserID]),
		})
	}
	return feats
}

// RankCampaigns orders candidates by combined score, descending. Profit and
// relevance are normalized by their maxima across the candidate set (a zero
// maximum normalizes to zero) and blended 0.8/0.2. The sort is stable, so
// ties keep their input order.
func RankCampaigns(candidates []models.Campaign, mlScores map[uuid.UUID]int) []models.Campaign {
	feats := ComputeFeatures(candidates, mlScores)

	var maxProfit, maxRelevance float64
	for _, f := range feats {
		if f.Profit > maxProfit {
			maxProfit = f.Profit
		}
		if f.Relevance > maxRelevance {
			maxRelevance = f.Relevance
		}
	}

	scores := make([]float64, len(feats))
	for i, f := range feats {
		var normProfit, normRelevance float64
		if maxProfit != 0 {
			normProfit = f.Profit / maxProfit
		}
		if maxRelevance != 0 {
			normRelevance = f.Relevance / maxRelevance
		}
		scores[i] = profitWeight*normProfit + relevanceWeight*normRelevance
	}

	order := make([]int, len(feats))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })

	ranked := make([]models.Campaign, len(feats))
	for i, idx := range order {
		ranked[i] = feats[idx].Campaign
	}
	return ranked
}
