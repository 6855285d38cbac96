package models

import "github.com/google/uuid"

// TargetingAll is a targeting gender value that matches any client gender,
// same as leaving the field unset.
const TargetingAll = "ALL"

// Targeting is the optional-field predicate a campaign applies to clients.
// Any unset field matches unconditionally; age bounds are inclusive and the
// location comparison is an exact string match.
type Targeting struct {
	Gender   *string `json:"gender,omitempty"`
	AgeFrom  *int    `json:"age_from,omitempty"`
	AgeTo    *int    `json:"age_to,omitempty"`
	Location *string `json:"location,omitempty"`
}

// Matches reports whether the client satisfies every set targeting field.
// A gender filter only constrains when it names a concrete gender; TargetingAll
// behaves like an unset field.
func (t Targeting) Matches(c Client) bool {
	if t.Gender != nil && (*t.Gender == GenderMale || *t.Gender == GenderFemale) && *t.Gender != c.Gender {
		return false
	}
	if t.AgeFrom != nil && c.Age < *t.AgeFrom {
		return false
	}
	if t.AgeTo != nil && c.Age > *t.AgeTo {
		return false
	}
	if t.Location != nil && *t.Location != c.Location {
		return false
	}
	return true
}

// Campaign is the billable unit of ad delivery: a flight window in simulated
// days, impression and click caps with per-unit costs, the ad copy, and a
// targeting predicate. The running counters are maintained by the billing
// writer and must never exceed their caps.
type Campaign struct {
	ID                uuid.UUID `json:"campaign_id"`
	AdvertiserID      uuid.UUID `json:"advertiser_id"`
	ImpressionsLimit  int       `json:"impressions_limit"`
	ClicksLimit       int       `json:"clicks_limit"`
	CostPerImpression float64   `json:"cost_per_impression"`
	CostPerClick      float64   `json:"cost_per_click"`
	AdTitle           string    `json:"ad_title"`
	AdText            string    `json:"ad_text"`
	StartDate         int       `json:"start_date"` // inclusive
	EndDate           int       `json:"end_date"`   // inclusive, >= StartDate
	Targeting         Targeting `json:"targeting"`

	// Counters start at zero and only the billing writer increments them.
	CurrentImpressions int `json:"-"`
	CurrentClicks      int `json:"-"`
}

// ActiveOn reports whether the flight window covers the given simulated day.
func (c Campaign) ActiveOn(day int) bool {
	return c.StartDate <= day && day <= c.EndDate
}

// Started reports whether the campaign has reached its start day. Once
// started, dates and caps become immutable.
func (c Campaign) Started(day int) bool {
	return c.StartDate <= day
}

// AdResponse is the shape returned to a client asking for an ad.
type AdResponse struct {
	AdID         uuid.UUID `json:"ad_id"`
	AdTitle      string    `json:"ad_title"`
	AdText       string    `json:"ad_text"`
	AdvertiserID uuid.UUID `json:"advertiser_id"`
}
