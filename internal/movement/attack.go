package movement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"IslandWar/internal/battle"
	"IslandWar/internal/city"
	"IslandWar/internal/player"
	"IslandWar/internal/report"
	"IslandWar/internal/shared/gameconfig/unit"
	"IslandWar/internal/shared/utils"
	"IslandWar/internal/store"
)

// processAttack resolves a city-versus-city attack: combat, plunder,
// hero wounds and captures, battle points, reports for both owners, and
// the return leg. Everything commits in one transaction, the movement
// written last.
func (d *Dispatcher) processAttack(ctx context.Context, m *Movement) error {
	var pending []*report.Report
	err := d.store.RunTransaction(ctx, func(tx store.Tx) error {
		pending = pending[:0]

		cur, ok, err := d.reload(tx, m.ID)
		if err != nil || !ok {
			return err
		}
		now := d.store.Now()

		var origin city.City
		if err := tx.Get(city.Collection, cur.Origin.CityID, &origin); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Home city is gone; the army disbands with it.
				tx.Delete(Collection, cur.ID)
				return nil
			}
			return err
		}

		var target city.City
		if err := tx.Get(city.Collection, cur.Attack.TargetCityID, &target); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindAttack,
				"Attack on a vanished city", report.Body{
					Message: "The target city no longer exists. The army is returning home.",
				}, &pending); err != nil {
				return err
			}
			cur.ToReturning(cur.Units, nil, nil)
			tx.Put(Collection, cur.ID, cur)
			return nil
		}

		attProfile, err := d.profile(tx, cur.Origin.OwnerID)
		if err != nil {
			return err
		}
		defProfile, err := d.profile(tx, target.OwnerID)
		if err != nil {
			return err
		}

		// Bring the defender's economy current before combat reads its
		// resources and garrison.
		target.CatchUp(now, d.cityModifiers(ctx, defProfile))

		garrison := defendingGarrison(&target)
		defHero := target.AvailableHero(now)
		res := battle.ResolveCombat(
			cur.Units, garrison, target.Resources,
			cur.Attack.CrossIsland,
			cur.Attack.Formation,
			battle.Formation{Phalanx: target.DefensePhalanx, Support: target.DefenseSupport},
			cur.Hero, defHero,
		)

		applyGarrisonLosses(&target, res.DefenderLosses)
		target.SubResources(res.Plunder)

		if attProfile != nil {
			attProfile.BattlePoints += res.AttackerBattlePoints
			tx.Put(player.Collection, attProfile.ID, attProfile)
		}
		if defProfile != nil {
			defProfile.BattlePoints += res.DefenderBattlePoints
			tx.Put(player.Collection, defProfile.ID, defProfile)
		}

		captured := d.applyHeroOutcome(cur, &origin, &target, defHero, res, now)

		survivorUnits := remaining(cur.Units, res.AttackerLosses, res.Wounded)

		attackerSide := &report.Side{
			OwnerID:  cur.Origin.OwnerID,
			Username: cur.Origin.Username,
			CityID:   cur.Origin.CityID,
			CityName: cur.Origin.CityName,
			Units:    cloneCounts(cur.Units),
			Losses:   cloneCounts(res.AttackerLosses),
			Hero:     cur.Hero,
		}
		defenderSide := &report.Side{
			OwnerID:  target.OwnerID,
			CityID:   target.ID,
			CityName: target.Name,
			Units:    garrison,
			Losses:   cloneCounts(res.DefenderLosses),
			Hero:     defHero,
		}
		if defProfile != nil {
			defenderSide.Username = defProfile.Username
		}

		attBody := report.Body{
			Attacker:     attackerSide,
			Defender:     defenderSide,
			AttackerWon:  res.AttackerWon,
			Plunder:      res.Plunder,
			Wounded:      res.Wounded,
			CapturedHero: captured,
		}
		if !hasLandForce(survivorUnits) {
			// Nobody came back to tell the tale.
			attBody.Defender = &report.Side{
				OwnerID:  target.OwnerID,
				Username: defenderSide.Username,
				CityID:   target.ID,
				CityName: target.Name,
			}
			attBody.Message = "The army was annihilated. No intelligence on the defender survived."
		}
		if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindAttack,
			fmt.Sprintf("Attack on %s", target.Name), attBody, &pending); err != nil {
			return err
		}
		if target.OwnerID != "" {
			if err := d.newReport(tx, cur.WorldID, target.OwnerID, report.KindDefense,
				fmt.Sprintf("%s was attacked", target.Name), report.Body{
					Attacker:     attackerSide,
					Defender:     defenderSide,
					AttackerWon:  res.AttackerWon,
					Plunder:      res.Plunder,
					CapturedHero: captured,
				}, &pending); err != nil {
				return err
			}
		}

		target.LastUpdated = now
		tx.Put(city.Collection, target.ID, &target)
		tx.Put(city.Collection, origin.ID, &origin)

		cur.ToReturning(survivorUnits, res.Wounded, res.Plunder)
		if captured == cur.Hero && cur.Hero != "" {
			cur.Hero = ""
		}
		if !cur.HasCargo() {
			tx.Delete(Collection, cur.ID)
			return nil
		}
		tx.Put(Collection, cur.ID, cur)
		return nil
	})
	if err != nil {
		return err
	}
	d.notify(pending)
	return nil
}

// applyHeroOutcome settles the fate of both heroes and returns the id of
// the hero actually captured, empty when the proposal was voided by a full
// prison. The losing side's surviving hero is wounded instead.
func (d *Dispatcher) applyHeroOutcome(m *Movement, origin, target *city.City, defHero string, res battle.Result, now time.Time) string {
	captured := res.CapturedHero
	woundUntil := now.Add(heroWoundDuration)

	if captured != "" {
		capturer := origin
		victim := target
		victimHero := defHero
		if captured == m.Hero {
			capturer = target
			victim = origin
			victimHero = m.Hero
		}
		if capturer.FreePrisonSlots() <= 0 {
			// Prison full: capture voided, the hero limps home wounded.
			captured = ""
		} else {
			id, err := utils.NextStringID()
			if err != nil {
				id = fmt.Sprintf("cap-%d", now.UnixNano())
			}
			capturer.Prisoners = append(capturer.Prisoners, city.Prisoner{
				CaptureID:      id,
				HeroID:         victimHero,
				CapturedAt:     now,
				OwnerID:        victim.OwnerID,
				OriginCityID:   victim.ID,
				OriginCityName: victim.Name,
			})
			victim.SetHeroStatus(victimHero, "captured")
		}
	}

	// Wound the losing side's hero if it fought and was not captured.
	if res.AttackerWon {
		if defHero != "" && captured != defHero {
			target.WoundHero(defHero, woundUntil)
		}
	} else {
		if m.Hero != "" && captured != m.Hero {
			origin.WoundHero(m.Hero, woundUntil)
		}
	}
	return captured
}

// defendingGarrison flattens the city's own units and every reinforcement
// stack into one roster.
func defendingGarrison(c *city.City) map[string]int {
	out := map[string]int{}
	for name, n := range c.Units {
		if n > 0 {
			out[name] += n
		}
	}
	for _, stack := range c.Reinforcements {
		for name, n := range stack {
			if n > 0 {
				out[name] += n
			}
		}
	}
	return out
}

// applyGarrisonLosses removes losses from the city's own units first, then
// from reinforcement stacks in stable origin order.
func applyGarrisonLosses(c *city.City, losses map[string]int) {
	origins := make([]string, 0, len(c.Reinforcements))
	for id := range c.Reinforcements {
		origins = append(origins, id)
	}
	sort.Strings(origins)

	for name, lost := range losses {
		if lost <= 0 {
			continue
		}
		own := c.Units[name]
		take := min(lost, own)
		if take > 0 {
			c.Units[name] = own - take
			if c.Units[name] == 0 {
				delete(c.Units, name)
			}
			lost -= take
		}
		for _, id := range origins {
			if lost <= 0 {
				break
			}
			stack := c.Reinforcements[id]
			take := min(lost, stack[name])
			if take > 0 {
				stack[name] -= take
				if stack[name] == 0 {
					delete(stack, name)
				}
				lost -= take
			}
		}
	}
	for _, id := range origins {
		if len(c.Reinforcements[id]) == 0 {
			delete(c.Reinforcements, id)
		}
	}
}

// remaining subtracts losses and wounded from the fielded roster.
func remaining(fielded, losses, wounded map[string]int) map[string]int {
	out := map[string]int{}
	for name, n := range fielded {
		left := n - losses[name] - wounded[name]
		if left > 0 {
			out[name] = left
		}
	}
	return out
}

func hasLandForce(units map[string]int) bool {
	for name, n := range units {
		if n > 0 && unit.FightsInLandPhase(name) {
			return true
		}
	}
	return false
}

func cloneCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
