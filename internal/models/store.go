package models

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the serving core needs: CRUD-style
// primitives over clients, advertisers, campaigns and ML scores, plus the two
// transactional billing writes.
//
// RecordImpression and RecordClick are the critical section of the whole
// system. Implementations must run "read counters, check cap, increment,
// append ledger row" atomically per campaign: the counter update and the
// ledger row must never be observable separately, caps must not be oversold
// under concurrent writers, and a duplicate (client, campaign, kind) row must
// surface as ErrDuplicateAction instead of being inserted.
type Store interface {
	// Clients. UpsertClients is all-or-nothing: duplicate IDs or logins within
	// the batch, or a login already owned by a different client, fail the
	// whole batch with ErrValidation.
	UpsertClients(ctx context.Context, clients []Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)

	// Advertisers. Same batch semantics as clients, keyed by ID only.
	UpsertAdvertisers(ctx context.Context, advertisers []Advertiser) error
	GetAdvertiser(ctx context.Context, id uuid.UUID) (*Advertiser, error)

	// ML scores, upsertable by (client, advertiser). Both parties must exist.
	UpsertMLScore(ctx context.Context, score MLScore) error
	// MLScoresForClient returns the client's relevance scores keyed by
	// advertiser ID.
	MLScoresForClient(ctx context.Context, clientID uuid.UUID) (map[uuid.UUID]int, error)

	// Campaigns. GetCampaign is advertiser-scoped; GetCampaignByID is used by
	// the click-confirmation flow where only the ad ID is known. ListCampaigns
	// orders by start day; limit<=0 means unbounded. DeleteCampaign cascades
	// to the campaign's actions.
	CreateCampaign(ctx context.Context, c *Campaign) error
	GetCampaign(ctx context.Context, advertiserID, campaignID uuid.UUID) (*Campaign, error)
	GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (*Campaign, error)
	ListCampaigns(ctx context.Context, advertiserID uuid.UUID, limit, offset int) ([]Campaign, error)
	UpdateCampaign(ctx context.Context, c Campaign) error
	DeleteCampaign(ctx context.Context, advertiserID, campaignID uuid.UUID) error
	AllCampaigns(ctx context.Context) ([]Campaign, error)
	CampaignsByAdvertiser(ctx context.Context, advertiserID uuid.UUID) ([]Campaign, error)

	// Ledger reads.
	ActionsForClient(ctx context.Context, clientID uuid.UUID) ([]Action, error)
	ActionsForCampaign(ctx context.Context, campaignID uuid.UUID) ([]Action, error)
	HasAction(ctx context.Context, clientID, campaignID uuid.UUID, kind string) (bool, error)

	// Billing writes. Cost is captured from the campaign's current cost fields
	// inside the transaction. A cap already reached at commit time returns
	// ErrNoInventory with nothing written.
	RecordImpression(ctx context.Context, campaignID, clientID uuid.UUID, day int) (*Action, error)
	RecordClick(ctx context.Context, campaignID, clientID uuid.UUID, day int) (*Action, error)
}
