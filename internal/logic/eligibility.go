package logic

import "github.com/openadsim/openadsim/internal/models"

// EligibleCampaigns returns the campaigns whose flight window covers the
// current day and whose targeting predicate matches the client. An empty
// result is not an error here; the caller surfaces it as no inventory.
func EligibleCampaigns(day int, campaigns []models.Campaign, client models.Client) []models.Campaign {
	var out []models.Campaign
	for _, c := range campaigns {
		if !c.ActiveOn(day) {
			continue
		}
		if !c.Targeting.Matches(client) {
			continue
		}
		out = append(out, c)
	}
	return out
}
