package main

import (
	"fmt"
	"math"
)

// Currency is the money unit results are reported in
type Currency struct {
	Code   string `json:"code"`   // ISO 4217
	Symbol string `json:"symbol"` // Display prefix
}

// ComputeCostBenefit derives the lives, QALY, cost and benefit summary for a
// predicted uptake probability. NetBenefit may be negative; that is a valid
// outcome meaning the configuration is not cost-effective.
func ComputeCostBenefit(probability float64, livesSaved int, tier QALYTier, cur Currency, a CostAssumptions) (ScenarioResult, error) {
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return ScenarioResult{}, fmt.Errorf("probability %v outside [0,1]", probability)
	}
	if livesSaved < 0 {
		return ScenarioResult{}, &InvalidSelectionError{Field: "lives_saved", Value: fmt.Sprint(livesSaved)}
	}
	qalyPerLife, ok := a.QALYPerLife[tier]
	if !ok {
		return ScenarioResult{}, &InvalidSelectionError{Field: "qaly_tier", Value: string(tier)}
	}

	participants := a.BasePopulation * probability
	// (livesSaved / base) * (base * p) reduces to livesSaved * p
	livesSavedTotal := float64(livesSaved) * probability
	totalQALY := livesSavedTotal * qalyPerLife
	monetizedBenefits := totalQALY * a.ValuePerQALY
	totalCost := a.fixedCost() + a.CostPerPerson*participants

	return ScenarioResult{
		PredictedUptakePercent: probability * 100,
		Participants:           participants,
		LivesSavedTotal:        livesSavedTotal,
		TotalQALY:              totalQALY,
		TotalCost:              totalCost,
		MonetizedBenefits:      monetizedBenefits,
		NetBenefit:             monetizedBenefits - totalCost,
		CurrencyCode:           cur.Code,
		CurrencySymbol:         cur.Symbol,
	}, nil
}

// fixedCost scales the setup cost from the population it was quoted for
func (a CostAssumptions) fixedCost() float64 {
	if a.ReferencePopulation <= 0 {
		return a.FixedSetupCost
	}
	return a.FixedSetupCost * (a.BasePopulation / a.ReferencePopulation)
}

// CostItem is one line of the detailed cost breakdown
type CostItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UnitCost    float64 `json:"unit_cost"`
	Quantity    float64 `json:"quantity"`
	Total       float64 `json:"total"`
}

// CostBreakdown itemises the configured cost lines for a predicted uptake.
// Per-participant quantities are rounded to whole units.
func CostBreakdown(probability float64, a CostAssumptions, items []CostItemConfig) []CostItem {
	participants := a.BasePopulation * probability
	out := make([]CostItem, 0, len(items))
	for _, item := range items {
		qty := item.Quantity
		if item.Basis == "per_participant" {
			qty = math.Round(participants * item.Quantity)
		}
		out = append(out, CostItem{
			Name:        item.Name,
			Description: item.Description,
			UnitCost:    item.UnitCost,
			Quantity:    qty,
			Total:       item.UnitCost * qty,
		})
	}
	return out
}
