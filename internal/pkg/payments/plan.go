package payments

import (
	"strings"
)

// Plan labels shown on purchase cards.
const (
	PlanBasic   = "Basic"
	PlanProPlus = "Pro Plus"
	PlanPremium = "Premium"
)

// premiumAmountThreshold is the major-unit cutoff at or above which an
// otherwise unclassified purchase is treated as the higher tier.
const premiumAmountThreshold = 25.0

// PlanResolver classifies a purchase into a plan label. Resolution order:
// explicit price-ID mapping, then description keywords, then the amount
// threshold, then the default tier.
type PlanResolver struct {
	priceMap map[string]string
}

// NewPlanResolver creates a resolver with an explicit price-ID to plan map.
// A nil map is fine; resolution then starts at the keyword step.
func NewPlanResolver(priceMap map[string]string) *PlanResolver {
	return &PlanResolver{priceMap: priceMap}
}

// NewPlanResolverFromEnv parses a "price_id=Plan Name" comma-separated
// mapping, the format used by the PLAN_PRICE_MAP environment variable.
func NewPlanResolverFromEnv(mapping string) *PlanResolver {
	m := make(map[string]string)
	for _, pair := range strings.Split(mapping, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			m[k] = v
		}
	}
	return NewPlanResolver(m)
}

// Resolve returns the plan label for a purchase. A price-ID hit wins
// regardless of description or amount.
func (r *PlanResolver) Resolve(priceID, description string, amount float64) string {
	if priceID != "" {
		if plan, ok := r.priceMap[priceID]; ok {
			return plan
		}
	}

	desc := strings.ToLower(description)
	if strings.Contains(desc, "plus") {
		return PlanProPlus
	}
	if strings.Contains(desc, "premium") {
		return PlanPremium
	}

	if amount >= premiumAmountThreshold {
		return PlanPremium
	}
	return PlanBasic
}
