package logic

import (
	"github.com/google/uuid"

	"github.com/openadsim/openadsim/internal/models"
)

// ExposureBuckets partitions eligible campaigns by the client's exposure
// history. The buckets are disjoint; the selector serves them in declaration
// order.
type ExposureBuckets struct {
	// NewImpression holds campaigns the client has never seen and which still
	// have both impression and click headroom.
	NewImpression []models.Campaign
	// NewClick holds campaigns the client has seen but not clicked, with click
	// headroom remaining.
	NewClick []models.Campaign
	// RepeatExposure holds campaigns the client already clicked; they may be
	// shown again without billing.
	RepeatExposure []models.Campaign
}

// ClassifyExposure buckets each eligible campaign using the fixed precedence
// below. The branch order is deliberate and load-bearing: a campaign that is
// impression-capped, still clickable, already shown to this client but not yet
// clicked falls through every branch and is dropped. That mirrors the original
// selection behavior and must not be "fixed" here.
func ClassifyExposure(eligible []models.Campaign, history []models.Action) ExposureBuckets {
	impressioned := make(map[uuid.UUID]struct{})
	clicked := make(map[uuid.UUID]struct{})
	for _, a := range history {
		switch a.Kind {
		case models.ActionImpression:
			impressioned[a.CampaignID] = struct{}{}
		case models.ActionClick:
			clicked[a.CampaignID] = struct{}{}
		}
	}

	var b ExposureBuckets
	for _, c := range eligible {
		_, seen := impressioned[c.ID]
		_, clk := clicked[c.ID]

		switch {
		case c.CurrentImpressions < c.ImpressionsLimit && c.CurrentClicks < c.ClicksLimit && !seen:
			b.NewImpression = append(b.NewImpression, c)
		case c.CurrentClicks < c.ClicksLimit && !clk:
			b.NewClick = append(b.NewClick, c)
		case clk:
			b.RepeatExposure = append(b.RepeatExposure, c)
		}
	}
	return b
}
