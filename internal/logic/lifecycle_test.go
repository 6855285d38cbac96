package logic

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/openadsim/openadsim/internal/models"
)

func floatPtr(f float64) *float64 { return &f }

func validCampaign(day int) models.Campaign {
	return models.Campaign{
		ID:                uuid.New(),
		AdvertiserID:      uuid.New(),
		ImpressionsLimit:  100,
		ClicksLimit:       10,
		CostPerImpression: 0.5,
		CostPerClick:      2,
		AdTitle:           "Summer Sale",
		AdText:            "Everything half price",
		StartDate:         day + 1,
		EndDate:           day + 5,
	}
}

func TestValidateNewCampaign(t *testing.T) {
	const day = 3

	cases := []struct {
		name   string
		mutate func(*models.Campaign)
		ok     bool
	}{
		{"valid", func(c *models.Campaign) {}, true},
		{"starts today", func(c *models.Campaign) { c.StartDate = day }, true},
		{"single day window", func(c *models.Campaign) { c.StartDate = day; c.EndDate = day }, true},
		{"starts in the past", func(c *models.Campaign) { c.StartDate = day - 1 }, false},
		{"ends before start", func(c *models.Campaign) { c.EndDate = c.StartDate - 1 }, false},
		{"negative impressions limit", func(c *models.Campaign) { c.ImpressionsLimit = -1 }, false},
		{"negative cost", func(c *models.Campaign) { c.CostPerClick = -0.1 }, false},
		{"short title", func(c *models.Campaign) { c.AdTitle = "ab" }, false},
		{"short text", func(c *models.Campaign) { c.AdText = "x" }, false},
		{"bad targeting gender", func(c *models.Campaign) { c.Targeting.Gender = strPtr("OTHER") }, false},
		{"inverted age range", func(c *models.Campaign) {
			c.Targeting.AgeFrom = intPtr(40)
			c.Targeting.AgeTo = intPtr(20)
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCampaign(day)
			tc.mutate(&c)
			err := ValidateNewCampaign(c, day)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				if !errors.Is(err, models.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
			}
		})
	}
}

func TestApplyCampaignUpdateBeforeStart(t *testing.T) {
	const day = 3
	c := validCampaign(day)

	upd := CampaignUpdate{
		ImpressionsLimit: intPtr(200),
		CostPerClick:     floatPtr(3),
		StartDate:        intPtr(day + 2),
		EndDate:          intPtr(day + 8),
		AdTitle:          strPtr("Winter Sale"),
		Targeting:        models.Targeting{Location: strPtr("Berlin")},
	}
	if err := ApplyCampaignUpdate(&c, upd, day); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ImpressionsLimit != 200 || c.CostPerClick != 3 || c.StartDate != day+2 || c.AdTitle != "Winter Sale" {
		t.Fatalf("update not applied: %+v", c)
	}
	if c.Targeting.Location == nil || *c.Targeting.Location != "Berlin" {
		t.Fatalf("targeting not replaced: %+v", c.Targeting)
	}
}

func TestApplyCampaignUpdateFrozenAfterStart(t *testing.T) {
	c := validCampaign(0)
	c.StartDate = 1
	c.EndDate = 5
	day := 2 // campaign already running

	for name, upd := range map[string]CampaignUpdate{
		"dates":  {EndDate: intPtr(9)},
		"limits": {ClicksLimit: intPtr(50)},
	} {
		err := ApplyCampaignUpdate(&c, upd, day)
		if !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("%s: expected ErrInvalidTransition, got %v", name, err)
		}
	}
}

func TestApplyCampaignUpdateCostsEditableAfterStart(t *testing.T) {
	c := validCampaign(0)
	c.StartDate = 1
	c.EndDate = 5

	upd := CampaignUpdate{CostPerImpression: floatPtr(1.5), AdText: strPtr("New copy text")}
	if err := ApplyCampaignUpdate(&c, upd, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.CostPerImpression != 1.5 || c.AdText != "New copy text" {
		t.Fatalf("update not applied: %+v", c)
	}
}

func TestApplyCampaignUpdateRevalidatesMergedWindow(t *testing.T) {
	const day = 3
	c := validCampaign(day)

	// moving only the end below the existing start must fail
	err := ApplyCampaignUpdate(&c, CampaignUpdate{EndDate: intPtr(c.StartDate - 1)}, day)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyCampaignUpdateClearsTargeting(t *testing.T) {
	const day = 3
	c := validCampaign(day)
	c.Targeting = models.Targeting{Gender: strPtr(models.GenderMale)}

	if err := ApplyCampaignUpdate(&c, CampaignUpdate{}, day); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Targeting.Gender != nil {
		t.Fatalf("targeting should be replaced wholesale, got %+v", c.Targeting)
	}
}

func TestValidateClient(t *testing.T) {
	valid := models.Client{ID: uuid.New(), Login: "alice", Age: 30, Location: "Berlin", Gender: models.GenderFemale}
	if err := ValidateClient(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*models.Client)
	}{
		{"short login", func(c *models.Client) { c.Login = "ab" }},
		{"negative age", func(c *models.Client) { c.Age = -1 }},
		{"age too high", func(c *models.Client) { c.Age = 101 }},
		{"short location", func(c *models.Client) { c.Location = "no" }},
		{"unknown gender", func(c *models.Client) { c.Gender = "X" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			if !errors.Is(ValidateClient(c), models.ErrValidation) {
				t.Fatal("expected validation error")
			}
		})
	}
}
