package services

import (
	"orderflow/internal/core/domain/model/kernel"
)

// DefaultEarnRatioCents is the amount of minor units that earns one loyalty
// point under the default ratio policy.
const DefaultEarnRatioCents = 100

// RatioLoyaltyPolicy is a domain service computing how many points an order
// earns: one point per ratio of minor units spent, rounded down.
type RatioLoyaltyPolicy struct {
	ratioCents int64
}

// NewRatioLoyaltyPolicy creates the policy with the given earn ratio.
// Non-positive ratios fall back to DefaultEarnRatioCents.
func NewRatioLoyaltyPolicy(ratioCents int64) RatioLoyaltyPolicy {
	if ratioCents <= 0 {
		ratioCents = DefaultEarnRatioCents
	}
	return RatioLoyaltyPolicy{ratioCents: ratioCents}
}

// PointsFor returns the points earned for the given amount.
func (p RatioLoyaltyPolicy) PointsFor(amount kernel.Money) int {
	return int(amount.Cents() / p.ratioCents)
}
