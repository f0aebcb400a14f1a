package battle

import (
	"math"

	"IslandWar/internal/shared/gameconfig/hero"
	"IslandWar/internal/shared/gameconfig/unit"
)

const (
	counterAttackBonus  = 1.2
	counterDefensePenal = 0.8

	phalanxWeight = 1.0
	supportWeight = 0.5
	otherWeight   = 0.2

	phalanxLossShare = 0.6
	supportLossShare = 0.3

	plunderFraction = 0.25
	woundedFraction = 0.15
)

// Formation designates which unit type fronts the engagement and which
// backs it. Empty fields mean every unit fights as "other".
type Formation struct {
	Phalanx string
	Support string
}

// Result is the full outcome of one resolved attack. CapturedHero is
// provisional: the processor must still check prison capacity before
// honoring it (resolver proposes, processor disposes).
type Result struct {
	AttackerWon          bool
	AttackerLosses       map[string]int
	DefenderLosses       map[string]int
	Plunder              map[string]int
	Wounded              map[string]int
	AttackerBattlePoints int
	DefenderBattlePoints int
	CapturedHero         string
}

type phase int

const (
	phaseNaval phase = iota
	phaseLand
)

func (p phase) includes(unitName string) bool {
	if p == phaseNaval {
		return unit.FightsInNavalPhase(unitName)
	}
	return unit.FightsInLandPhase(unitName)
}

// ResolveCombat runs an attack between two rosters. When isNavalAttack is
// set, a naval-only sub-battle gates the land engagement: losing it destroys
// every attacking land unit before it reaches shore.
func ResolveCombat(
	attackingUnits, defendingUnits map[string]int,
	defendingResources map[string]int,
	isNavalAttack bool,
	attackerFormation, defenderFormation Formation,
	attackingHeroID, defendingHeroID string,
) Result {
	attackerLosses := map[string]int{}
	defenderLosses := map[string]int{}

	attackers := cloneRoster(attackingUnits)

	if isNavalAttack {
		// Naval sub-battle: no formations, no hero effects.
		navalWon, attNaval, defNaval := resolvePhase(
			phaseNaval, attackers, defendingUnits,
			Formation{}, Formation{}, "", "",
			attackingHeroID != "",
		)
		mergeLosses(attackerLosses, attNaval)
		mergeLosses(defenderLosses, defNaval)

		if !navalWon {
			// The landing force never reaches shore.
			for name, count := range attackers {
				if count > 0 && unit.FightsInLandPhase(name) {
					attackerLosses[name] += count
				}
			}
			return finish(false, attackingUnits, defendingUnits, defendingResources,
				attackerLosses, defenderLosses, attackingHeroID, defendingHeroID)
		}
		applyLosses(attackers, attNaval)
	}

	landWon, attLand, defLand := resolvePhase(
		phaseLand, attackers, defendingUnits,
		attackerFormation, defenderFormation,
		attackingHeroID, defendingHeroID,
		attackingHeroID != "",
	)
	mergeLosses(attackerLosses, attLand)
	mergeLosses(defenderLosses, defLand)

	return finish(landWon, attackingUnits, defendingUnits, defendingResources,
		attackerLosses, defenderLosses, attackingHeroID, defendingHeroID)
}

// resolvePhase runs one sub-battle over the units of a single phase and
// returns whether the attacker won it plus both sides' losses.
func resolvePhase(
	p phase,
	attacking, defending map[string]int,
	attackerFormation, defenderFormation Formation,
	attackingHeroID, defendingHeroID string,
	attackerHasHero bool,
) (bool, map[string]int, map[string]int) {
	attRoster := phaseRoster(p, attacking)
	defRoster := phaseRoster(p, defending)

	// Per-phase auto results: an absent defender concedes the phase, an
	// absent attacker without a hero forfeits it. Zero losses either way.
	if rosterEmpty(defRoster) {
		return true, map[string]int{}, map[string]int{}
	}
	if rosterEmpty(attRoster) && !attackerHasHero {
		return false, map[string]int{}, map[string]int{}
	}

	attPower := engagementPower(attRoster, defRoster, attackerFormation, attackingHeroID, true, p)
	defPower := engagementPower(defRoster, attRoster, defenderFormation, defendingHeroID, false, p)

	attLossRatio := lossRatio(defPower, attPower)
	defLossRatio := lossRatio(attPower, defPower)

	attLosses := distributeLosses(attRoster, attackerFormation, attLossRatio)
	defLosses := distributeLosses(defRoster, defenderFormation, defLossRatio)

	// Survivor power, without the front-loading weights.
	attFinal := flatPower(survivors(attRoster, attLosses), defRoster, attackingHeroID, true, p)
	defFinal := flatPower(survivors(defRoster, defLosses), attRoster, defendingHeroID, false, p)

	return attFinal >= defFinal, attLosses, defLosses
}

func finish(
	attackerWon bool,
	attackingUnits, defendingUnits map[string]int,
	defendingResources map[string]int,
	attackerLosses, defenderLosses map[string]int,
	attackingHeroID, defendingHeroID string,
) Result {
	res := Result{
		AttackerWon:    attackerWon,
		AttackerLosses: attackerLosses,
		DefenderLosses: defenderLosses,
		Plunder:        map[string]int{},
		Wounded:        map[string]int{},
	}

	if attackerWon {
		for _, r := range []string{"wood", "stone", "silver"} {
			res.Plunder[r] = int(math.Floor(float64(defendingResources[r]) * plunderFraction))
		}
	} else {
		res.Plunder = map[string]int{"wood": 0, "stone": 0, "silver": 0}
	}

	// A share of attacking land losses divert to the hospital instead of
	// dying outright.
	for name, lost := range attackerLosses {
		if lost <= 0 || !unit.Woundable(name) {
			continue
		}
		w := int(math.Floor(float64(lost) * woundedFraction))
		if w > 0 {
			res.Wounded[name] = w
			res.AttackerLosses[name] = lost - w
		}
	}

	for name, lost := range res.DefenderLosses {
		res.AttackerBattlePoints += unit.Population(name) * lost
	}
	for name, lost := range res.AttackerLosses {
		res.DefenderBattlePoints += unit.Population(name) * lost
	}

	res.CapturedHero = provisionalCapture(
		attackerWon,
		attackingUnits, defendingUnits,
		res.AttackerLosses, res.Wounded, defenderLosses,
		attackingHeroID, defendingHeroID,
	)
	return res
}

// provisionalCapture applies the capture rule: the losing side's hero falls
// into the winner's hands only when every land unit type that side fielded
// was fully destroyed.
func provisionalCapture(
	attackerWon bool,
	attackingUnits, defendingUnits map[string]int,
	attackerLosses, attackerWounded, defenderLosses map[string]int,
	attackingHeroID, defendingHeroID string,
) string {
	if attackerWon {
		if defendingHeroID == "" {
			return ""
		}
		if landRosterAnnihilated(defendingUnits, defenderLosses, nil) {
			return defendingHeroID
		}
		return ""
	}
	if attackingHeroID == "" {
		return ""
	}
	// Wounded attackers still count against annihilation: the troops left
	// the field either way.
	if landRosterAnnihilated(attackingUnits, attackerLosses, attackerWounded) {
		return attackingHeroID
	}
	return ""
}

func landRosterAnnihilated(fielded, losses, wounded map[string]int) bool {
	for name, count := range fielded {
		if count <= 0 || !unit.FightsInLandPhase(name) {
			continue
		}
		gone := losses[name]
		if wounded != nil {
			gone += wounded[name]
		}
		if gone < count {
			return false
		}
	}
	return true
}

// engagementPower computes the front-loaded power of one side: the phalanx
// at full weight, support at half, everything else at a fifth.
func engagementPower(roster, opposing map[string]int, f Formation, heroID string, isAttacker bool, p phase) float64 {
	var phalanx, support, other float64
	for name, count := range roster {
		if count <= 0 {
			continue
		}
		pw := unitPower(name, count, opposing, heroID, isAttacker, p)
		switch name {
		case f.Phalanx:
			phalanx += pw
		case f.Support:
			support += pw
		default:
			other += pw
		}
	}
	return phalanxWeight*phalanx + supportWeight*support + otherWeight*other
}

func flatPower(roster, opposing map[string]int, heroID string, isAttacker bool, p phase) float64 {
	var total float64
	for name, count := range roster {
		if count <= 0 {
			continue
		}
		total += unitPower(name, count, opposing, heroID, isAttacker, p)
	}
	return total
}

// unitPower is count x attack (or defense), modified by the hero passive and
// the counter relations against the opposing roster. The x1.2 attack bonus
// and x0.8 defense penalty stack independently.
func unitPower(name string, count int, opposing map[string]int, heroID string, isAttacker bool, p phase) float64 {
	u, ok := unit.Get(name)
	if !ok {
		// Stale data referencing a removed unit must not sink the batch.
		return 0
	}

	var base float64
	if isAttacker {
		base = float64(count) * float64(u.Attack)
	} else {
		base = float64(count) * float64(u.Defense)
	}

	if p == phaseLand && heroID != "" {
		if isAttacker {
			base *= hero.PassiveFactor(heroID, hero.PassiveLandAttack)
		} else {
			base *= hero.PassiveFactor(heroID, hero.PassiveLandDefense)
		}
	}

	if isAttacker {
		for opName, opCount := range opposing {
			if opCount > 0 && unit.Counters(name, opName) {
				base *= counterAttackBonus
				break
			}
		}
	} else {
		for opName, opCount := range opposing {
			if opCount > 0 && unit.Counters(opName, name) {
				base *= counterDefensePenal
				break
			}
		}
	}
	return base
}

func lossRatio(opposing, own float64) float64 {
	if own <= 0 {
		if opposing <= 0 {
			return 0
		}
		return 1
	}
	r := opposing / own
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

// distributeLosses turns a loss ratio into per-unit losses: the phalanx
// absorbs up to 60% of the total first, the support up to 30% of the
// remainder, the rest spreads proportionally over the other units with the
// integer remainder dumped on the largest of them.
func distributeLosses(roster map[string]int, f Formation, ratio float64) map[string]int {
	losses := map[string]int{}
	total := 0
	for _, count := range roster {
		if count > 0 {
			total += count
		}
	}
	totalLoss := int(math.Floor(float64(total) * ratio))
	if totalLoss <= 0 {
		return losses
	}

	remaining := totalLoss
	if cnt := roster[f.Phalanx]; cnt > 0 {
		share := min(cnt, int(math.Floor(float64(totalLoss)*phalanxLossShare)))
		if share > 0 {
			losses[f.Phalanx] = share
			remaining -= share
		}
	}
	if cnt := roster[f.Support]; cnt > 0 && f.Support != f.Phalanx && remaining > 0 {
		share := min(cnt, int(math.Floor(float64(remaining)*supportLossShare)))
		if share > 0 {
			losses[f.Support] = share
			remaining -= share
		}
	}
	if remaining <= 0 {
		return losses
	}

	otherTotal := 0
	for name, count := range roster {
		if count > 0 && name != f.Phalanx && name != f.Support {
			otherTotal += count
		}
	}
	if otherTotal == 0 {
		// No other units to carry the remainder; push it back onto the
		// designated units, clamped to what they still have.
		for _, name := range []string{f.Phalanx, f.Support} {
			if remaining <= 0 {
				break
			}
			headroom := roster[name] - losses[name]
			if headroom > 0 {
				extra := min(headroom, remaining)
				losses[name] += extra
				remaining -= extra
			}
		}
		return losses
	}

	assigned := 0
	largestName := ""
	largestCount := -1
	for name, count := range roster {
		if count <= 0 || name == f.Phalanx || name == f.Support {
			continue
		}
		share := int(math.Floor(float64(remaining) * float64(count) / float64(otherTotal)))
		share = min(share, count)
		if share > 0 {
			losses[name] += share
			assigned += share
		}
		if count-losses[name] > largestCount {
			largestCount = count - losses[name]
			largestName = name
		}
	}
	if leftover := remaining - assigned; leftover > 0 && largestName != "" {
		headroom := roster[largestName] - losses[largestName]
		losses[largestName] += min(headroom, leftover)
	}
	return losses
}

func phaseRoster(p phase, units map[string]int) map[string]int {
	out := map[string]int{}
	for name, count := range units {
		if count > 0 && p.includes(name) {
			out[name] = count
		}
	}
	return out
}

func survivors(roster, losses map[string]int) map[string]int {
	out := map[string]int{}
	for name, count := range roster {
		left := count - losses[name]
		if left > 0 {
			out[name] = left
		}
	}
	return out
}

func rosterEmpty(roster map[string]int) bool {
	for _, count := range roster {
		if count > 0 {
			return false
		}
	}
	return true
}

func cloneRoster(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func mergeLosses(dst, src map[string]int) {
	for k, v := range src {
		if v > 0 {
			dst[k] += v
		}
	}
}

func applyLosses(roster, losses map[string]int) {
	for name, lost := range losses {
		roster[name] -= lost
		if roster[name] <= 0 {
			delete(roster, name)
		}
	}
}
