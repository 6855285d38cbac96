package reporting

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/openadsim/openadsim/internal/models"
)

func seedReporting(t *testing.T) (*models.MemoryStore, models.Advertiser, *models.Campaign, models.Client) {
	t.Helper()
	ctx := context.Background()
	store := models.NewMemoryStore()

	adv := models.Advertiser{ID: uuid.New(), Name: "Acme"}
	if err := store.UpsertAdvertisers(ctx, []models.Advertiser{adv}); err != nil {
		t.Fatalf("seed advertiser: %v", err)
	}
	client := models.Client{ID: uuid.New(), Login: "alice", Age: 30, Location: "Berlin"}
	if err := store.UpsertClients(ctx, []models.Client{client}); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	campaign := &models.Campaign{
		ID:                uuid.New(),
		AdvertiserID:      adv.ID,
		ImpressionsLimit:  100,
		ClicksLimit:       100,
		CostPerImpression: 0.5,
		CostPerClick:      2,
		AdTitle:           "Ad",
		AdText:            "Text",
		StartDate:         0,
		EndDate:           10,
	}
	if err := store.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return store, adv, campaign, client
}

func TestCampaignStats(t *testing.T) {
	ctx := context.Background()
	store, _, campaign, client := seedReporting(t)
	agg := NewAggregator(store)

	other := models.Client{ID: uuid.New(), Login: "bob", Age: 40, Location: "Hamburg"}
	if err := store.UpsertClients(ctx, []models.Client{other}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, id := range []uuid.UUID{client.ID, other.ID} {
		if _, err := store.RecordImpression(ctx, campaign.ID, id, 1); err != nil {
			t.Fatalf("impression: %v", err)
		}
	}
	if _, err := store.RecordClick(ctx, campaign.ID, client.ID, 2); err != nil {
		t.Fatalf("click: %v", err)
	}

	stats, err := agg.CampaignStats(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ImpressionsCount != 2 || stats.ClicksCount != 1 {
		t.Fatalf("counts wrong: %+v", stats)
	}
	if math.Abs(stats.SpentImpressions-1.0) > 1e-9 || math.Abs(stats.SpentClicks-2.0) > 1e-9 {
		t.Fatalf("spend wrong: %+v", stats)
	}
	if math.Abs(stats.SpentTotal-3.0) > 1e-9 {
		t.Fatalf("total wrong: %+v", stats)
	}
	if math.Abs(stats.Conversion-0.5) > 1e-9 {
		t.Fatalf("conversion = %f, want 0.5", stats.Conversion)
	}
}

func TestCampaignStatsZeroImpressions(t *testing.T) {
	ctx := context.Background()
	store, _, campaign, _ := seedReporting(t)
	agg := NewAggregator(store)

	stats, err := agg.CampaignStats(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Conversion != 0 {
		t.Fatalf("conversion with no impressions must be 0, got %f", stats.Conversion)
	}
}

func TestCampaignStatsUnknownCampaign(t *testing.T) {
	store, _, _, _ := seedReporting(t)
	agg := NewAggregator(store)

	_, err := agg.CampaignStats(context.Background(), uuid.New())
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCampaignDailyStatsSortedByDay(t *testing.T) {
	ctx := context.Background()
	store, _, campaign, client := seedReporting(t)
	agg := NewAggregator(store)

	other := models.Client{ID: uuid.New(), Login: "bob", Age: 40, Location: "Hamburg"}
	if err := store.UpsertClients(ctx, []models.Client{other}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// day 4 first, then day 2, output must come back ascending
	if _, err := store.RecordImpression(ctx, campaign.ID, other.ID, 4); err != nil {
		t.Fatalf("impression: %v", err)
	}
	if _, err := store.RecordImpression(ctx, campaign.ID, client.ID, 2); err != nil {
		t.Fatalf("impression: %v", err)
	}
	if _, err := store.RecordClick(ctx, campaign.ID, client.ID, 4); err != nil {
		t.Fatalf("click: %v", err)
	}

	daily, err := agg.CampaignDailyStats(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if len(daily) != 2 {
		t.Fatalf("expected 2 days, got %d", len(daily))
	}
	if daily[0].Date != 2 || daily[1].Date != 4 {
		t.Fatalf("days out of order: %+v", daily)
	}
	if daily[0].ImpressionsCount != 1 || daily[0].ClicksCount != 0 {
		t.Fatalf("day 2 wrong: %+v", daily[0])
	}
	if daily[1].ImpressionsCount != 1 || daily[1].ClicksCount != 1 {
		t.Fatalf("day 4 wrong: %+v", daily[1])
	}
	if math.Abs(daily[1].SpentTotal-2.5) > 1e-9 {
		t.Fatalf("day 4 spend wrong: %+v", daily[1])
	}
}

func TestAdvertiserStatsSumsCampaigns(t *testing.T) {
	ctx := context.Background()
	store, adv, first, client := seedReporting(t)
	agg := NewAggregator(store)

	second := &models.Campaign{
		ID:                uuid.New(),
		AdvertiserID:      adv.ID,
		ImpressionsLimit:  100,
		ClicksLimit:       100,
		CostPerImpression: 1,
		CostPerClick:      5,
		AdTitle:           "Ad",
		AdText:            "Text",
		StartDate:         0,
		EndDate:           10,
	}
	if err := store.CreateCampaign(ctx, second); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := store.RecordImpression(ctx, first.ID, client.ID, 1); err != nil {
		t.Fatalf("impression: %v", err)
	}
	if _, err := store.RecordImpression(ctx, second.ID, client.ID, 1); err != nil {
		t.Fatalf("impression: %v", err)
	}
	if _, err := store.RecordClick(ctx, second.ID, client.ID, 1); err != nil {
		t.Fatalf("click: %v", err)
	}

	stats, err := agg.AdvertiserStats(ctx, adv.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ImpressionsCount != 2 || stats.ClicksCount != 1 {
		t.Fatalf("counts wrong: %+v", stats)
	}
	if math.Abs(stats.SpentTotal-6.5) > 1e-9 {
		t.Fatalf("total = %f, want 6.5", stats.SpentTotal)
	}

	daily, err := agg.AdvertiserDailyStats(ctx, adv.ID)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if len(daily) != 1 || daily[0].ImpressionsCount != 2 || daily[0].ClicksCount != 1 {
		t.Fatalf("daily wrong: %+v", daily)
	}
}

func TestAdvertiserStatsUnknownAdvertiser(t *testing.T) {
	store, _, _, _ := seedReporting(t)
	agg := NewAggregator(store)

	_, err := agg.AdvertiserStats(context.Background(), uuid.New())
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
