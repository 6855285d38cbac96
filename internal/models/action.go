package models

import "github.com/google/uuid"

// Action kinds recorded in the ledger.
const (
	ActionImpression = "impression"
	ActionClick      = "click"
)

// Action is one append-only ledger row: a client saw or clicked a campaign on
// a given simulated day. Cost is captured at write time, so later edits to the
// campaign's cost fields never change historical spend. For any
// (client, campaign) pair at most one impression and at most one click row may
// ever exist.
type Action struct {
	ID         uuid.UUID `json:"action_id"`
	ClientID   uuid.UUID `json:"client_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Kind       string    `json:"action"`
	Cost       float64   `json:"cost"`
	Day        int       `json:"day"`
}
