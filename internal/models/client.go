package models

import "github.com/google/uuid"

// Client gender values. An empty string means unspecified.
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
)

// Client is an end user ads are served to. Clients are immutable except via
// explicit bulk upsert; each owns its action history and the ML relevance
// scores computed against it.
type Client struct {
	ID       uuid.UUID `json:"client_id"`
	Login    string    `json:"login"`
	Age      int       `json:"age"` // 0..100 inclusive
	Location string    `json:"location"`
	Gender   string    `json:"gender"`
}

// MLScore is a non-negative relevance score keyed by (client, advertiser).
// It feeds the relevance term of the combined ad score and nothing else.
type MLScore struct {
	ClientID     uuid.UUID `json:"client_id"`
	AdvertiserID uuid.UUID `json:"advertiser_id"`
	Score        int       `json:"score"`
}
