package models

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type scoreKey struct {
	client     uuid.UUID
	advertiser uuid.UUID
}

type actionKey struct {
	client   uuid.UUID
	campaign uuid.UUID
	kind     string
}

// MemoryStore implements Store with a single mutex. The billing writes are
// read-modify-write over shared counters, so a plain lock stands in for the
// row-level transaction a relational store would use. It backs tests and the
// single-node dev mode.
type MemoryStore struct {
	mu          sync.RWMutex
	clients     map[uuid.UUID]Client
	logins      map[string]uuid.UUID
	advertisers map[uuid.UUID]Advertiser
	campaigns   map[uuid.UUID]*Campaign
	mlScores    map[scoreKey]int
	actions     []Action
	actionIndex map[actionKey]struct{}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:     make(map[uuid.UUID]Client),
		logins:      make(map[string]uuid.UUID),
		advertisers: make(map[uuid.UUID]Advertiser),
		campaigns:   make(map[uuid.UUID]*Campaign),
		mlScores:    make(map[scoreKey]int),
		actionIndex: make(map[actionKey]struct{}),
	}
}

// UpsertClients applies the whole batch or nothing.
func (s *MemoryStore) UpsertClients(ctx context.Context, clients []Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seenIDs := make(map[uuid.UUID]struct{}, len(clients))
	seenLogins := make(map[string]struct{}, len(clients))
	for _, c := range clients {
		if _, ok := seenIDs[c.ID]; ok {
			return fmt.Errorf("%w: duplicate client id %s in batch", ErrValidation, c.ID)
		}
		if _, ok := seenLogins[c.Login]; ok {
			return fmt.Errorf("%w: duplicate login %q in batch", ErrValidation, c.Login)
		}
		if owner, ok := s.logins[c.Login]; ok && owner != c.ID {
			return fmt.Errorf("%w: login %q already registered", ErrValidation, c.Login)
		}
		seenIDs[c.ID] = struct{}{}
		seenLogins[c.Login] = struct{}{}
	}

	for _, c := range clients {
		if prev, ok := s.clients[c.ID]; ok {
			delete(s.logins, prev.Login)
		}
		s.clients[c.ID] = c
		s.logins[c.Login] = c.ID
	}
	return nil
}

func (s *MemoryStore) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) UpsertAdvertisers(ctx context.Context, advertisers []Advertiser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(advertisers))
	for _, a := range advertisers {
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("%w: duplicate advertiser id %s in batch", ErrValidation, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	for _, a := range advertisers {
		s.advertisers[a.ID] = a
	}
	return nil
}

func (s *MemoryStore) GetAdvertiser(ctx context.Context, id uuid.UUID) (*Advertiser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.advertisers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) UpsertMLScore(ctx context.Context, score MLScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[score.ClientID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.advertisers[score.AdvertiserID]; !ok {
		return ErrNotFound
	}
	s.mlScores[scoreKey{score.ClientID, score.AdvertiserID}] = score.Score
	return nil
}

func (s *MemoryStore) MLScoresForClient(ctx context.Context, clientID uuid.UUID) (map[uuid.UUID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]int)
	for k, v := range s.mlScores {
		if k.client == clientID {
			out[k.advertiser] = v
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateCampaign(ctx context.Context, c *Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.advertisers[c.AdvertiserID]; !ok {
		return ErrNotFound
	}
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *MemoryStore) GetCampaign(ctx context.Context, advertiserID, campaignID uuid.UUID) (*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[campaignID]
	if !ok || c.AdvertiserID != advertiserID {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListCampaigns(ctx context.Context, advertiserID uuid.UUID, limit, offset int) ([]Campaign, error) {
	all, err := s.CampaignsByAdvertiser(ctx, advertiserID)
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		if offset >= len(all) {
			return []Campaign{}, nil
		}
		all = all[offset:]
	}
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) UpdateCampaign(ctx context.Context, c Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.campaigns[c.ID]
	if !ok || cur.AdvertiserID != c.AdvertiserID {
		return ErrNotFound
	}
	// Counters are owned by the billing writer, not the editor.
	c.CurrentImpressions = cur.CurrentImpressions
	c.CurrentClicks = cur.CurrentClicks
	*cur = c
	return nil
}

func (s *MemoryStore) DeleteCampaign(ctx context.Context, advertiserID, campaignID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok || c.AdvertiserID != advertiserID {
		return ErrNotFound
	}
	delete(s.campaigns, campaignID)

	kept := s.actions[:0]
	for _, a := range s.actions {
		if a.CampaignID == campaignID {
			delete(s.actionIndex, actionKey{a.ClientID, a.CampaignID, a.Kind})
			continue
		}
		kept = append(kept, a)
	}
	s.actions = kept
	return nil
}

func (s *MemoryStore) AllCampaigns(ctx context.Context) ([]Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *MemoryStore) CampaignsByAdvertiser(ctx context.Context, advertiserID uuid.UUID) ([]Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.advertisers[advertiserID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]Campaign, 0)
	for _, c := range s.campaigns {
		if c.AdvertiserID == advertiserID {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) ActionsForClient(ctx context.Context, clientID uuid.UUID) ([]Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Action, 0)
	for _, a := range s.actions {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) ActionsForCampaign(ctx context.Context, campaignID uuid.UUID) ([]Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Action, 0)
	for _, a := range s.actions {
		if a.CampaignID == campaignID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) HasAction(ctx context.Context, clientID, campaignID uuid.UUID, kind string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.actionIndex[actionKey{clientID, campaignID, kind}]
	return ok, nil
}

// RecordImpression performs the cap check, counter increment and ledger append
// under the store lock, mirroring the row-locked transaction of the Postgres
// implementation.
func (s *MemoryStore) RecordImpression(ctx context.Context, campaignID, clientID uuid.UUID, day int) (*Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, ErrNotFound
	}
	key := actionKey{clientID, campaignID, ActionImpression}
	if _, ok := s.actionIndex[key]; ok {
		return nil, ErrDuplicateAction
	}
	if c.CurrentImpressions >= c.ImpressionsLimit {
		return nil, ErrNoInventory
	}
	c.CurrentImpressions++
	a := Action{
		ID:         uuid.New(),
		ClientID:   clientID,
		CampaignID: campaignID,
		Kind:       ActionImpression,
		Cost:       c.CostPerImpression,
		Day:        day,
	}
	s.actions = append(s.actions, a)
	s.actionIndex[key] = struct{}{}
	return &a, nil
}

// RecordClick mirrors RecordImpression for the click counter and cost.
func (s *MemoryStore) RecordClick(ctx context.Context, campaignID, clientID uuid.UUID, day int) (*Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, ErrNotFound
	}
	key := actionKey{clientID, campaignID, ActionClick}
	if _, ok := s.actionIndex[key]; ok {
		return nil, ErrDuplicateAction
	}
	if c.CurrentClicks >= c.ClicksLimit {
		return nil, ErrNoInventory
	}
	c.CurrentClicks++
	a := Action{
		ID:         uuid.New(),
		ClientID:   clientID,
		CampaignID: campaignID,
		Kind:       ActionClick,
		Cost:       c.CostPerClick,
		Day:        day,
	}
	s.actions = append(s.actions, a)
	s.actionIndex[key] = struct{}{}
	return &a, nil
}
