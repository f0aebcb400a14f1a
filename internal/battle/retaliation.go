package battle

import (
	"math"

	"IslandWar/internal/shared/gameconfig/unit"
)

// RevoltHappinessThreshold is the happiness at or below which plundering a
// village always triggers a revolt.
const RevoltHappinessThreshold = 40

const retaliationFraction = 0.05

// ResolveVillageRetaliation computes the losses a revolting village inflicts
// on the plundering army: a flat 5% of the army's population-weighted value,
// spread across land unit types by their share of that value, rounded per
// type and capped at owned counts. Deterministic on purpose.
func ResolveVillageRetaliation(playerUnits map[string]int) map[string]int {
	totalValue := 0
	for name, count := range playerUnits {
		if count > 0 && unit.FightsInLandPhase(name) {
			totalValue += unit.Population(name) * count
		}
	}

	losses := map[string]int{}
	if totalValue <= 0 {
		return losses
	}

	lossValue := retaliationFraction * float64(totalValue)
	for name, count := range playerUnits {
		if count <= 0 || !unit.FightsInLandPhase(name) {
			continue
		}
		pop := unit.Population(name)
		if pop <= 0 {
			continue
		}
		typeValue := float64(pop * count)
		lost := int(math.Round(lossValue * (typeValue / float64(totalValue)) / float64(pop)))
		if lost > count {
			lost = count
		}
		if lost > 0 {
			losses[name] = lost
		}
	}
	return losses
}
