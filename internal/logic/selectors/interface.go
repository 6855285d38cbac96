package selectors

import (
	"context"

	"github.com/google/uuid"

	"github.com/openadsim/openadsim/internal/models"
)

// Selector is the pluggable ad-decision engine: it picks the ad to show a
// client and settles click confirmations against the ledger.
type Selector interface {
	// SelectAd returns the best ad for the client on the current simulated
	// day, applying any billing side effect the chosen bucket requires.
	SelectAd(ctx context.Context, clientID uuid.UUID) (*models.AdResponse, error)
	// ConfirmClick bills a click for an ad the client has already seen.
	// Confirming the same click twice is a no-op.
	ConfirmClick(ctx context.Context, campaignID, clientID uuid.UUID) error
}
