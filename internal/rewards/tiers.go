package rewards

import (
	"sort"

	pkgerrors "github.com/greenloop-app/greenloop-backend/pkg/errors"

	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
)

// TierTable is the ordered loyalty ladder. Bands must be disjoint, contiguous
// and start at zero so exactly one tier matches any completed-order count.
type TierTable struct {
	tiers []models.RewardTier
}

// NewTierTable validates and orders the configured tiers.
func NewTierTable(tiers []models.RewardTier) (*TierTable, error) {
	if len(tiers) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "no reward tiers configured")
	}

	ordered := make([]models.RewardTier, len(tiers))
	copy(ordered, tiers)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].MinCompletedOrders < ordered[j].MinCompletedOrders
	})

	if ordered[0].MinCompletedOrders != 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reward tiers must start at zero completed orders")
	}
	for i, tier := range ordered {
		if tier.MaxCompletedOrders < tier.MinCompletedOrders {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "reward tier range is inverted")
		}
		if i > 0 && tier.MinCompletedOrders != ordered[i-1].MaxCompletedOrders+1 {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "reward tiers must be contiguous")
		}
	}

	return &TierTable{tiers: ordered}, nil
}

// TierFor returns the tier whose band contains the completed-order count.
// Negative counts resolve to the first tier.
func (t *TierTable) TierFor(completedOrders int) models.RewardTier {
	if completedOrders < 0 {
		completedOrders = 0
	}
	for _, tier := range t.tiers {
		if tier.Contains(completedOrders) {
			return tier
		}
	}
	// Contiguity is validated at construction; counts beyond the last band
	// fall into the last tier.
	return t.tiers[len(t.tiers)-1]
}

// Tiers returns the ordered bands.
func (t *TierTable) Tiers() []models.RewardTier {
	return t.tiers
}
