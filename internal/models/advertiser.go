package models

import "github.com/google/uuid"

// Advertiser owns campaigns and the per-client ML relevance scores computed
// for it. Deleting an advertiser cascades to its campaigns.
type Advertiser struct {
	ID   uuid.UUID `json:"advertiser_id"`
	Name string    `json:"name"`
}
