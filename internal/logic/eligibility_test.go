package logic

import (
	"testing"

	"github.com/google/uuid"

	"github.com/openadsim/openadsim/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func baseCampaign() models.Campaign {
	return models.Campaign{
		ID:               uuid.New(),
		AdvertiserID:     uuid.New(),
		ImpressionsLimit: 10,
		ClicksLimit:      10,
		StartDate:        2,
		EndDate:          5,
	}
}

func TestEligibleCampaignsFlightWindow(t *testing.T) {
	c := baseCampaign()
	client := models.Client{ID: uuid.New(), Age: 30, Location: "Berlin", Gender: models.GenderMale}

	for _, tc := range []struct {
		day  int
		want bool
	}{
		{1, false},
		{2, true}, // start day inclusive
		{4, true},
		{5, true}, // end day inclusive
		{6, false},
	} {
		got := EligibleCampaigns(tc.day, []models.Campaign{c}, client)
		if (len(got) == 1) != tc.want {
			t.Errorf("day %d: eligible=%v, want %v", tc.day, len(got) == 1, tc.want)
		}
	}
}

func TestEligibleCampaignsTargeting(t *testing.T) {
	client := models.Client{ID: uuid.New(), Age: 30, Location: "Berlin", Gender: models.GenderMale}

	cases := []struct {
		name      string
		targeting models.Targeting
		want      bool
	}{
		{"empty targeting matches all", models.Targeting{}, true},
		{"gender match", models.Targeting{Gender: strPtr(models.GenderMale)}, true},
		{"gender mismatch", models.Targeting{Gender: strPtr(models.GenderFemale)}, false},
		{"gender ALL is a wildcard", models.Targeting{Gender: strPtr(models.TargetingAll)}, true},
		{"age_from inclusive", models.Targeting{AgeFrom: intPtr(30)}, true},
		{"age_from exceeded", models.Targeting{AgeFrom: intPtr(31)}, false},
		{"age_to inclusive", models.Targeting{AgeTo: intPtr(30)}, true},
		{"age_to exceeded", models.Targeting{AgeTo: intPtr(29)}, false},
		{"location exact", models.Targeting{Location: strPtr("Berlin")}, true},
		{"location mismatch", models.Targeting{Location: strPtr("Hamburg")}, false},
		{"all fields match", models.Targeting{
			Gender:   strPtr(models.GenderMale),
			AgeFrom:  intPtr(18),
			AgeTo:    intPtr(65),
			Location: strPtr("Berlin"),
		}, true},
		{"one field fails the rest", models.Targeting{
			Gender:   strPtr(models.GenderMale),
			AgeFrom:  intPtr(18),
			Location: strPtr("Hamburg"),
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := baseCampaign()
			c.Targeting = tc.targeting
			got := EligibleCampaigns(3, []models.Campaign{c}, client)
			if (len(got) == 1) != tc.want {
				t.Fatalf("eligible=%v, want %v", len(got) == 1, tc.want)
			}
		})
	}
}

func TestEligibleCampaignsEmptyResult(t *testing.T) {
	client := models.Client{ID: uuid.New(), Age: 30, Location: "Berlin"}
	got := EligibleCampaigns(3, nil, client)
	if len(got) != 0 {
		t.Fatalf("expected no campaigns, got %d", len(got))
	}
}
