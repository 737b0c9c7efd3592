package service

import "github.com/imagify/imagify/internal/models"

// DefaultPlans is the static purchasable tier table. The map keys double as
// the plan identifiers, which keeps them unique by construction.
func DefaultPlans() map[string]models.Plan {
	return map[string]models.Plan{
		"Basic":    {ID: "Basic", Credits: 100, AmountMinorUnits: 1000},
		"Advanced": {ID: "Advanced", Credits: 500, AmountMinorUnits: 5000},
		"Business": {ID: "Business", Credits: 5000, AmountMinorUnits: 25000},
	}
}
