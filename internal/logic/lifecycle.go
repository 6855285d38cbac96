package logic

import (
	"fmt"

	"github.com/openadsim/openadsim/internal/models"
)

// CampaignUpdate is a partial edit of an existing campaign. Nil fields are
// left unchanged; targeting is always replaced wholesale.
type CampaignUpdate struct {
	ImpressionsLimit  *int             `json:"impressions_limit"`
	ClicksLimit       *int             `json:"clicks_limit"`
	CostPerImpression *float64         `json:"cost_per_impression"`
	CostPerClick      *float64         `json:"cost_per_click"`
	AdTitle           *string          `json:"ad_title"`
	AdText            *string          `json:"ad_text"`
	StartDate         *int             `json:"start_date"`
	EndDate           *int             `json:"end_date"`
	Targeting         models.Targeting `json:"targeting"`
}

// ValidateTargeting checks the optional-field predicate: ages within 0..100,
// a non-inverted age range, a known gender value and a plausible location.
func ValidateTargeting(t models.Targeting) error {
	if t.Gender != nil {
		switch *t.Gender {
		case models.GenderMale, models.GenderFemale, models.TargetingAll:
		default:
			return fmt.Errorf("%w: unknown targeting gender %q", models.ErrValidation, *t.Gender)
		}
	}
	if t.AgeFrom != nil && *t.AgeFrom < 0 {
		return fmt.Errorf("%w: age_from must be non-negative", models.ErrValidation)
	}
	if t.AgeTo != nil && *t.AgeTo > 100 {
		return fmt.Errorf("%w: age_to must be at most 100", models.ErrValidation)
	}
	if t.AgeFrom != nil && t.AgeTo != nil && *t.AgeFrom > *t.AgeTo {
		return fmt.Errorf("%w: age_from must not exceed age_to", models.ErrValidation)
	}
	if t.Location != nil && len(*t.Location) < 3 {
		return fmt.Errorf("%w: location too short", models.ErrValidation)
	}
	return nil
}

// ValidateNewCampaign checks a campaign about to be created: non-negative
// caps and costs, minimally sized ad copy, a flight window that starts no
// earlier than the current day, and a sane targeting predicate.
func ValidateNewCampaign(c models.Campaign, day int) error {
	if c.ImpressionsLimit < 0 || c.ClicksLimit < 0 {
		return fmt.Errorf("%w: limits must be non-negative", models.ErrValidation)
	}
	if c.CostPerImpression < 0 || c.CostPerClick < 0 {
		return fmt.Errorf("%w: costs must be non-negative", models.ErrValidation)
	}
	if len(c.AdTitle) < 3 || len(c.AdText) < 3 {
		return fmt.Errorf("%w: ad title and text must be at least 3 characters", models.ErrValidation)
	}
	if !(day <= c.StartDate && c.StartDate <= c.EndDate) {
		return fmt.Errorf("%w: start day must be today or later and end day must not precede it", models.ErrValidation)
	}
	return ValidateTargeting(c.Targeting)
}

// ApplyCampaignUpdate merges the partial update into the campaign, enforcing
// the lifecycle rule: once the current day has reached the start day, the
// flight window and both caps are frozen. Costs, ad copy and targeting stay
// editable for the campaign's whole life.
func ApplyCampaignUpdate(c *models.Campaign, upd CampaignUpdate, day int) error {
	if c.Started(day) {
		if upd.StartDate != nil || upd.EndDate != nil {
			return fmt.Errorf("%w: dates are immutable after campaign start", models.ErrInvalidTransition)
		}
		if upd.ImpressionsLimit != nil || upd.ClicksLimit != nil {
			return fmt.Errorf("%w: limits are immutable after campaign start", models.ErrInvalidTransition)
		}
	}

	start, end := c.StartDate, c.EndDate
	if upd.StartDate != nil {
		start = *upd.StartDate
	}
	if upd.EndDate != nil {
		end = *upd.EndDate
	}
	if !(day <= start && start <= end) {
		return fmt.Errorf("%w: start day must be today or later and end day must not precede it", models.ErrValidation)
	}
	c.StartDate, c.EndDate = start, end

	if upd.ImpressionsLimit != nil {
		if *upd.ImpressionsLimit < 0 {
			return fmt.Errorf("%w: limits must be non-negative", models.ErrValidation)
		}
		c.ImpressionsLimit = *upd.ImpressionsLimit
	}
	if upd.ClicksLimit != nil {
		if *upd.ClicksLimit < 0 {
			return fmt.Errorf("%w: limits must be non-negative", models.ErrValidation)
		}
		c.ClicksLimit = *upd.ClicksLimit
	}
	if upd.CostPerImpression != nil {
		if *upd.CostPerImpression < 0 {
			return fmt.Errorf("%w: costs must be non-negative", models.ErrValidation)
		}
		c.CostPerImpression = *upd.CostPerImpression
	}
	if upd.CostPerClick != nil {
		if *upd.CostPerClick < 0 {
			return fmt.Errorf("%w: costs must be non-negative", models.ErrValidation)
		}
		c.CostPerClick = *upd.CostPerClick
	}
	if upd.AdTitle != nil {
		if len(*upd.AdTitle) < 3 {
			return fmt.Errorf("%w: ad title must be at least 3 characters", models.ErrValidation)
		}
		c.AdTitle = *upd.AdTitle
	}
	if upd.AdText != nil {
		if len(*upd.AdText) < 3 {
			return fmt.Errorf("%w: ad text must be at least 3 characters", models.ErrValidation)
		}
		c.AdText = *upd.AdText
	}

	if err := ValidateTargeting(upd.Targeting); err != nil {
		return err
	}
	c.Targeting = upd.Targeting
	return nil
}

// ValidateClient checks a client record from a bulk upsert.
func ValidateClient(c models.Client) error {
	if len(c.Login) < 3 {
		return fmt.Errorf("%w: login must be at least 3 characters", models.ErrValidation)
	}
	if c.Age < 0 || c.Age > 100 {
		return fmt.Errorf("%w: age must be within 0..100", models.ErrValidation)
	}
	if len(c.Location) < 3 {
		return fmt.Errorf("%w: location must be at least 3 characters", models.ErrValidation)
	}
	switch c.Gender {
	case models.GenderMale, models.GenderFemale, "":
	default:
		return fmt.Errorf("%w: unknown gender %q", models.ErrValidation, c.Gender)
	}
	return nil
}
