package logic

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/openadsim/openadsim/internal/models"
)

func TestSmoothedCTR(t *testing.T) {
	cases := []struct {
		impressions, clicks int
		want                float64
	}{
		{0, 0, 0.5},
		{8, 1, 0.2},
		{98, 49, 0.5},
		{0, 1, 1.0},
	}
	for _, tc := range cases {
		c := models.Campaign{CurrentImpressions: tc.impressions, CurrentClicks: tc.clicks}
		if got := SmoothedCTR(c); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("SmoothedCTR(%d imp, %d clicks) = %f, want %f", tc.impressions, tc.clicks, got, tc.want)
		}
	}
}

func TestComputeFeaturesRelevanceDefaultsToZero(t *testing.T) {
	c := models.Campaign{ID: uuid.New(), AdvertiserID: uuid.New(), CostPerImpression: 1, CostPerClick: 2}
	feats := ComputeFeatures([]models.Campaign{c}, map[uuid.UUID]int{})
	if feats[0].Relevance != 0 {
		t.Fatalf("relevance = %f, want 0", feats[0].Relevance)
	}
	// profit = cpi + cpc*ctr with ctr = 0.5 for a fresh campaign
	if math.Abs(feats[0].Profit-2.0) > 1e-9 {
		t.Fatalf("profit = %f, want 2.0", feats[0].Profit)
	}
}

func TestRankCampaignsByProfit(t *testing.T) {
	cheap := models.Campaign{ID: uuid.New(), AdvertiserID: uuid.New(), CostPerImpression: 1}
	rich := models.Campaign{ID: uuid.New(), AdvertiserID: uuid.New(), CostPerImpression: 10}

	ranked := RankCampaigns([]models.Campaign{cheap, rich}, nil)
	if ranked[0].ID != rich.ID {
		t.Fatalf("expected the higher-profit campaign first")
	}
}

func TestRankCampaignsRelevanceBreaksProfitTies(t *testing.T) {
	a := models.Campaign{ID: uuid.New(), AdvertiserID: uuid.New(), CostPerImpression: 5}
	b := models.Campaign{ID: uuid.New(), AdvertiserID: uuid.New(), CostPerImpression: 5}
	scores := map[uuid.UUID]int{b.AdvertiserID: 80}

	ranked := RankCampaigns([]models.Campaign{a, b}, scores)
	if ranked[0].ID != b.ID {
		t.Fatalf("expected the relevant campaign first")
	}
}

// Relevance carries only a fifth of the weight: a big profit edge beats a big
// relevance edge.
func TestRankCampaignsProfitDominates(t *testing.T) {
	profitable := models.Campaign{ID: uuid.New(), AdvertiserID: uuid.New(), CostPerImpression: 100}
	relevant := models.Campaign{ID: uuid.New(), AdvertiserID: uuid.New(), CostPerImpression: 1}
	scores := map[uuid.UUID]int{relevant.AdvertiserID: 100}

	ranked := RankCampaigns([]models.Campaign{relevant, profitable}, scores)
	if ranked[0].ID != profitable.ID {
		t.Fatalf("expected profit to dominate the blend")
	}
}

func TestRankCampaignsAllZeroKeepsInputOrder(t *testing.T) {
	a := models.Campaign{ID: uuid.New(), AdvertiserID: uuid.New()}
	b := models.Campaign{ID: uuid.New(), AdvertiserID: uuid.New()}
	c := models.Campaign{ID: uuid.New(), AdvertiserID: uuid.New()}

	ranked := RankCampaigns([]models.Campaign{a, b, c}, nil)
	if ranked[0].ID != a.ID || ranked[1].ID != b.ID || ranked[2].ID != c.ID {
		t.Fatalf("stable sort should keep input order on full ties")
	}
}

func TestRankCampaignsEmpty(t *testing.T) {
	if got := RankCampaigns(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty ranking, got %d", len(got))
	}
}
