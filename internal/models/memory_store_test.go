package models

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func seedStore(t *testing.T) (*MemoryStore, Client, Advertiser, *Campaign) {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()

	client := Client{ID: uuid.New(), Login: "alice", Age: 30, Location: "Berlin", Gender: GenderFemale}
	if err := store.UpsertClients(ctx, []Client{client}); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	advertiser := Advertiser{ID: uuid.New(), Name: "Acme"}
	if err := store.UpsertAdvertisers(ctx, []Advertiser{advertiser}); err != nil {
		t.Fatalf("seed advertiser: %v", err)
	}
	campaign := &Campaign{
		ID:                uuid.New(),
		AdvertiserID:      advertiser.ID,
		ImpressionsLimit:  5,
		ClicksLimit:       2,
		CostPerImpression: 0.5,
		CostPerClick:      2,
		AdTitle:           "Ad title",
		AdText:            "Ad text",
		StartDate:         0,
		EndDate:           10,
	}
	if err := store.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return store, client, advertiser, campaign
}

func TestUpsertClientsBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	good := Client{ID: uuid.New(), Login: "alice", Age: 30, Location: "Berlin"}
	dup := Client{ID: uuid.New(), Login: "alice", Age: 25, Location: "Hamburg"}

	err := store.UpsertClients(ctx, []Client{good, dup})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	// nothing from the failed batch may be visible
	if _, err := store.GetClient(ctx, good.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed batch leaked a client: %v", err)
	}
}

func TestUpsertClientsLoginOwnedByOther(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := Client{ID: uuid.New(), Login: "alice", Age: 30, Location: "Berlin"}
	if err := store.UpsertClients(ctx, []Client{first}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	thief := Client{ID: uuid.New(), Login: "alice", Age: 40, Location: "Hamburg"}
	if err := store.UpsertClients(ctx, []Client{thief}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// the same client may re-upsert with its own login
	first.Age = 31
	if err := store.UpsertClients(ctx, []Client{first}); err != nil {
		t.Fatalf("self upsert rejected: %v", err)
	}
	got, err := store.GetClient(ctx, first.ID)
	if err != nil || got.Age != 31 {
		t.Fatalf("upsert not applied: %+v, %v", got, err)
	}
}

func TestUpdateCampaignPreservesCounters(t *testing.T) {
	ctx := context.Background()
	store, client, _, campaign := seedStore(t)

	if _, err := store.RecordImpression(ctx, campaign.ID, client.ID, 1); err != nil {
		t.Fatalf("record impression: %v", err)
	}

	edit := *campaign
	edit.AdTitle = "Edited"
	edit.CurrentImpressions = 99
	if err := store.UpdateCampaign(ctx, edit); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetCampaignByID(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AdTitle != "Edited" {
		t.Fatalf("edit not applied")
	}
	if got.CurrentImpressions != 1 {
		t.Fatalf("counter overwritten by editor: %d", got.CurrentImpressions)
	}
}

func TestDeleteCampaignCascadesActions(t *testing.T) {
	ctx := context.Background()
	store, client, advertiser, campaign := seedStore(t)

	if _, err := store.RecordImpression(ctx, campaign.ID, client.ID, 1); err != nil {
		t.Fatalf("record impression: %v", err)
	}
	if err := store.DeleteCampaign(ctx, advertiser.ID, campaign.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	actions, err := store.ActionsForClient(ctx, client.ID)
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("actions not cascaded: %d left", len(actions))
	}
	if has, _ := store.HasAction(ctx, client.ID, campaign.ID, ActionImpression); has {
		t.Fatal("action index not cleaned up")
	}
}

func TestRecordImpressionDuplicateAndCost(t *testing.T) {
	ctx := context.Background()
	store, client, _, campaign := seedStore(t)

	a, err := store.RecordImpression(ctx, campaign.ID, client.ID, 3)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if a.Cost != campaign.CostPerImpression || a.Day != 3 {
		t.Fatalf("bad ledger row: %+v", a)
	}

	if _, err := store.RecordImpression(ctx, campaign.ID, client.ID, 3); !errors.Is(err, ErrDuplicateAction) {
		t.Fatalf("expected ErrDuplicateAction, got %v", err)
	}

	got, _ := store.GetCampaignByID(ctx, campaign.ID)
	if got.CurrentImpressions != 1 {
		t.Fatalf("duplicate must not bill: counter %d", got.CurrentImpressions)
	}
}

// Ledger cost is captured at write time; a later price change leaves history
// untouched.
func TestRecordedCostSurvivesPriceChange(t *testing.T) {
	ctx := context.Background()
	store, client, _, campaign := seedStore(t)

	a, err := store.RecordImpression(ctx, campaign.ID, client.ID, 0)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	edit := *campaign
	edit.CostPerImpression = 100
	if err := store.UpdateCampaign(ctx, edit); err != nil {
		t.Fatalf("update: %v", err)
	}

	actions, _ := store.ActionsForCampaign(ctx, campaign.ID)
	if len(actions) != 1 || actions[0].Cost != a.Cost {
		t.Fatalf("historical cost changed: %+v", actions)
	}
}

func TestRecordClickCapEnforcedConcurrently(t *testing.T) {
	ctx := context.Background()
	store, _, _, campaign := seedStore(t)

	const writers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	billed := 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// distinct clients so the uniqueness rule is not the limiter
			if _, err := store.RecordClick(ctx, campaign.ID, uuid.New(), 1); err == nil {
				mu.Lock()
				billed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if billed != campaign.ClicksLimit {
		t.Fatalf("billed %d clicks, cap is %d", billed, campaign.ClicksLimit)
	}
	got, _ := store.GetCampaignByID(ctx, campaign.ID)
	if got.CurrentClicks != campaign.ClicksLimit {
		t.Fatalf("counter %d exceeds cap %d", got.CurrentClicks, campaign.ClicksLimit)
	}
	actions, _ := store.ActionsForCampaign(ctx, campaign.ID)
	if len(actions) != campaign.ClicksLimit {
		t.Fatalf("ledger rows %d disagree with counter %d", len(actions), campaign.ClicksLimit)
	}
}

func TestListCampaignsPagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	advertiser := Advertiser{ID: uuid.New(), Name: "Acme"}
	if err := store.UpsertAdvertisers(ctx, []Advertiser{advertiser}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	for i := 0; i < 5; i++ {
		c := &Campaign{ID: uuid.New(), AdvertiserID: advertiser.ID, StartDate: i, EndDate: i + 1, AdTitle: "t", AdText: "t", ImpressionsLimit: 1, ClicksLimit: 1}
		if err := store.CreateCampaign(ctx, c); err != nil {
			t.Fatalf("seed campaign: %v", err)
		}
	}

	page, err := store.ListCampaigns(ctx, advertiser.ID, 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].StartDate != 2 || page[1].StartDate != 3 {
		t.Fatalf("wrong page: %+v", page)
	}

	tail, err := store.ListCampaigns(ctx, advertiser.ID, 10, 4)
	if err != nil || len(tail) != 1 {
		t.Fatalf("wrong tail: %+v, %v", tail, err)
	}

	empty, err := store.ListCampaigns(ctx, advertiser.ID, 2, 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("offset past end should be empty: %+v, %v", empty, err)
	}
}
