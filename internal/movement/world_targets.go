package movement

import (
	"context"
	"errors"
	"fmt"

	"IslandWar/internal/battle"
	"IslandWar/internal/city"
	"IslandWar/internal/player"
	"IslandWar/internal/report"
	"IslandWar/internal/shared/gameconfig/research"
	"IslandWar/internal/store"
	"IslandWar/internal/world"
)

// villagePlunderHappinessCost is how much goodwill one plunder burns.
const villagePlunderHappinessCost = 10

// processVillage handles farm-village attacks. A village not yet conquered
// by this account is fought; a conquered one is plundered, unless its
// happiness has sunk to the revolt line, in which case the villagers turn
// on the plundering party.
func (d *Dispatcher) processVillage(ctx context.Context, m *Movement) error {
	var pending []*report.Report
	err := d.store.RunTransaction(ctx, func(tx store.Tx) error {
		pending = pending[:0]

		cur, ok, err := d.reload(tx, m.ID)
		if err != nil || !ok {
			return err
		}
		now := d.store.Now()

		var v world.Village
		if err := tx.Get(world.VillageCollection, cur.Village.TargetVillageID, &v); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindVillage,
				"Village not found", report.Body{
					Message: "The village no longer exists. The army is returning home.",
				}, &pending); err != nil {
				return err
			}
			cur.ToReturning(cur.Units, nil, nil)
			tx.Put(Collection, cur.ID, cur)
			return nil
		}

		recordID := world.ConqueredVillageID(cur.Origin.OwnerID, v.ID)
		var conquest world.ConqueredVillage
		conquered := true
		if err := tx.Get(world.ConqueredVillageCollection, recordID, &conquest); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			conquered = false
		}

		switch {
		case conquered && conquest.Happiness <= battle.RevoltHappinessThreshold:
			// Revolt: the villagers strike back and the conquest is lost.
			casualties := battle.ResolveVillageRetaliation(cur.Units)
			tx.Delete(world.ConqueredVillageCollection, recordID)
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindRetaliation,
				"The village revolts", report.Body{
					Units:   casualties,
					Message: "The villagers rose up against the plundering party and cast off your rule.",
				}, &pending); err != nil {
				return err
			}
			cur.ToReturning(remaining(cur.Units, casualties, nil), nil, nil)

		case conquered:
			plunder := plunderShare(v.Resources)
			subCounts(v.Resources, plunder)
			conquest.Happiness -= villagePlunderHappinessCost
			if conquest.Happiness < 0 {
				conquest.Happiness = 0
			}
			tx.Put(world.VillageCollection, v.ID, &v)
			tx.Put(world.ConqueredVillageCollection, recordID, &conquest)
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindVillage,
				"Village plundered", report.Body{
					Plunder: plunder,
				}, &pending); err != nil {
				return err
			}
			cur.ToReturning(cur.Units, nil, plunder)

		default:
			res := battle.ResolveCombat(
				cur.Units, v.Garrison(), v.Resources,
				false, battle.Formation{}, battle.Formation{},
				cur.Hero, "",
			)
			if err := d.creditBattlePoints(tx, cur.Origin.OwnerID, res.AttackerBattlePoints); err != nil {
				return err
			}
			if res.AttackerWon {
				conquest = world.ConqueredVillage{
					ID:          recordID,
					WorldID:     cur.WorldID,
					AccountID:   cur.Origin.OwnerID,
					VillageID:   v.ID,
					Happiness:   100,
					ConqueredAt: now,
				}
				tx.Put(world.ConqueredVillageCollection, recordID, &conquest)
				subCounts(v.Resources, res.Plunder)
				tx.Put(world.VillageCollection, v.ID, &v)
			}
			if len(v.Troops) > 0 {
				// Explicit garrisons take losses; level-based ones respawn.
				subCounts(v.Troops, res.DefenderLosses)
				tx.Put(world.VillageCollection, v.ID, &v)
			}
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindVillage,
				fmt.Sprintf("Attack on village (level %d)", v.Level), report.Body{
					Attacker:    &report.Side{Units: cloneCounts(cur.Units), Losses: res.AttackerLosses, Hero: cur.Hero},
					Defender:    &report.Side{Units: v.Garrison(), Losses: res.DefenderLosses},
					AttackerWon: res.AttackerWon,
					Plunder:     res.Plunder,
					Wounded:     res.Wounded,
				}, &pending); err != nil {
				return err
			}
			cur.ToReturning(remaining(cur.Units, res.AttackerLosses, res.Wounded), res.Wounded, res.Plunder)
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

// processRuin fights the ancient garrison of a ruin. Conquest marks the
// ruin as owned and hands the origin city a research nobody can queue.
func (d *Dispatcher) processRuin(ctx context.Context, m *Movement) error {
	var pending []*report.Report
	err := d.store.RunTransaction(ctx, func(tx store.Tx) error {
		pending = pending[:0]

		cur, ok, err := d.reload(tx, m.ID)
		if err != nil || !ok {
			return err
		}

		var r world.Ruin
		if err := tx.Get(world.RuinCollection, cur.Ruin.TargetRuinID, &r); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindRuin,
				"Ruin not found", report.Body{
					Message: "The ruin no longer exists. The army is returning home.",
				}, &pending); err != nil {
				return err
			}
			cur.ToReturning(cur.Units, nil, nil)
			tx.Put(Collection, cur.ID, cur)
			return nil
		}

		if r.OwnerID == cur.Origin.OwnerID {
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindRuin,
				"Ruin already claimed", report.Body{
					Message: "This ruin already belongs to you. The army is returning home.",
				}, &pending); err != nil {
				return err
			}
			cur.ToReturning(cur.Units, nil, nil)
			tx.Put(Collection, cur.ID, cur)
			return nil
		}

		res := battle.ResolveCombat(
			cur.Units, r.Troops, r.Resources,
			false, cur.Ruin.Formation, battle.Formation{},
			cur.Hero, "",
		)
		if err := d.creditBattlePoints(tx, cur.Origin.OwnerID, res.AttackerBattlePoints); err != nil {
			return err
		}

		subCounts(r.Troops, res.DefenderLosses)
		if res.AttackerWon {
			r.OwnerID = cur.Origin.OwnerID
			subCounts(r.Resources, res.Plunder)

			var origin city.City
			if err := tx.Get(city.Collection, cur.Origin.CityID, &origin); err == nil {
				origin.GrantResearch(research.RuinRewardName())
				tx.Put(city.Collection, origin.ID, &origin)
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
		tx.Put(world.RuinCollection, r.ID, &r)

		if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindRuin,
			fmt.Sprintf("Expedition to ruin (level %d)", r.Level), report.Body{
				Attacker:    &report.Side{Units: cloneCounts(cur.Units), Losses: res.AttackerLosses, Hero: cur.Hero},
				Defender:    &report.Side{Losses: res.DefenderLosses},
				AttackerWon: res.AttackerWon,
				Plunder:     res.Plunder,
				Wounded:     res.Wounded,
			}, &pending); err != nil {
			return err
		}

		cur.ToReturning(remaining(cur.Units, res.AttackerLosses, res.Wounded), res.Wounded, res.Plunder)
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

// processGodTown grinds down a god town's health. Damage equals the
// population value of the garrison destroyed and is credited one-for-one
// as war points; the divine host reforms at full strength between
// assaults, so the garrison never thins. At zero health the town falls
// and is removed.
func (d *Dispatcher) processGodTown(ctx context.Context, m *Movement) error {
	var pending []*report.Report
	err := d.store.RunTransaction(ctx, func(tx store.Tx) error {
		pending = pending[:0]

		cur, ok, err := d.reload(tx, m.ID)
		if err != nil || !ok {
			return err
		}

		var t world.GodTown
		if err := tx.Get(world.GodTownCollection, cur.GodTown.TargetTownID, &t); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindGodTown,
				"God town has fallen", report.Body{
					Message: "The god town was destroyed before the army arrived.",
				}, &pending); err != nil {
				return err
			}
			cur.ToReturning(cur.Units, nil, nil)
			tx.Put(Collection, cur.ID, cur)
			return nil
		}

		res := battle.ResolveCombat(
			cur.Units, t.Troops, nil,
			false, battle.Formation{}, battle.Formation{},
			cur.Hero, "",
		)
		if err := d.creditBattlePoints(tx, cur.Origin.OwnerID, res.AttackerBattlePoints); err != nil {
			return err
		}

		damage := res.AttackerBattlePoints
		t.Health -= damage
		destroyed := t.Health <= 0
		if destroyed {
			tx.Delete(world.GodTownCollection, t.ID)
		} else {
			tx.Put(world.GodTownCollection, t.ID, &t)
		}

		p, err := d.profile(tx, cur.Origin.OwnerID)
		if err != nil {
			return err
		}
		if p != nil && damage > 0 {
			p.WarPoints += damage
			tx.Put(player.Collection, p.ID, p)
		}

		title := fmt.Sprintf("Assault on god town (level %d)", t.Level)
		msg := fmt.Sprintf("The assault dealt %d damage.", damage)
		if destroyed {
			msg = fmt.Sprintf("The assault dealt %d damage. The god town has fallen.", damage)
		}
		if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindGodTown, title,
			report.Body{
				Attacker:    &report.Side{Units: cloneCounts(cur.Units), Losses: res.AttackerLosses, Hero: cur.Hero},
				Defender:    &report.Side{Losses: res.DefenderLosses},
				AttackerWon: res.AttackerWon,
				Wounded:     res.Wounded,
				Message:     msg,
			}, &pending); err != nil {
			return err
		}

		cur.ToReturning(remaining(cur.Units, res.AttackerLosses, res.Wounded), res.Wounded, nil)
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

func (d *Dispatcher) creditBattlePoints(tx store.Tx, accountID string, pts int) error {
	if pts <= 0 {
		return nil
	}
	p, err := d.profile(tx, accountID)
	if err != nil {
		return err
	}
	if p != nil {
		p.BattlePoints += pts
		tx.Put(player.Collection, p.ID, p)
	}
	return nil
}

func plunderShare(resources map[string]int) map[string]int {
	out := map[string]int{}
	for _, r := range []string{city.Wood, city.Stone, city.Silver} {
		out[r] = resources[r] / 4
	}
	return out
}

func subCounts(dst, amounts map[string]int) {
	for k, n := range amounts {
		if n <= 0 {
			continue
		}
		dst[k] -= n
		if dst[k] <= 0 {
			delete(dst, k)
		}
	}
}
