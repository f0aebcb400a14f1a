package movement

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"IslandWar/internal/battle"
	"IslandWar/internal/city"
	"IslandWar/internal/report"
	"IslandWar/internal/store"
)

func defaultDraw() float64 {
	return rand.Float64()
}

// processScout resolves an espionage run. Espionage resolves on the spot:
// success delivers the defender snapshot and slips the agent back into the
// origin roster; failure loses the agent, tips off the defender, and moves
// half the invested silver into the defender's cave. Either way the
// movement ends at the target, with no return leg.
func (d *Dispatcher) processScout(ctx context.Context, m *Movement) error {
	var pending []*report.Report
	draw := d.draw()
	err := d.store.RunTransaction(ctx, func(tx store.Tx) error {
		pending = pending[:0]

		cur, ok, err := d.reload(tx, m.ID)
		if err != nil || !ok {
			return err
		}
		now := d.store.Now()

		var target city.City
		if err := tx.Get(city.Collection, cur.Scout.TargetCityID, &target); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindScout,
				"Scout target vanished", report.Body{
					Message: "The target city no longer exists. The agent stood down.",
				}, &pending); err != nil {
				return err
			}
			if err := d.releaseAgent(tx, cur); err != nil {
				return err
			}
			tx.Delete(Collection, cur.ID)
			return nil
		}

		defProfile, err := d.profile(tx, target.OwnerID)
		if err != nil {
			return err
		}
		target.CatchUp(now, d.cityModifiers(ctx, defProfile))

		buildings := make(map[string]int, len(target.Buildings))
		for name, b := range target.Buildings {
			buildings[name] = b.Level
		}
		res := battle.ResolveScouting(battle.ScoutTarget{
			CaveSilver: target.CaveSilver,
			Resources:  target.Resources,
			Units:      defendingGarrison(&target),
			Buildings:  buildings,
			God:        target.God,
		}, cur.Scout.Silver, draw)

		if res.Success {
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindScout,
				fmt.Sprintf("Espionage in %s", target.Name), report.Body{
					Intel: res.Intel,
				}, &pending); err != nil {
				return err
			}
			if err := d.releaseAgent(tx, cur); err != nil {
				return err
			}
			tx.Delete(Collection, cur.ID)
			return nil
		}

		target.DepositCave(res.DefenderSilverGained)
		target.LastUpdated = now
		tx.Put(city.Collection, target.ID, &target)

		if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindScout,
			fmt.Sprintf("Espionage in %s failed", target.Name), report.Body{
				Message: "The agent was caught and did not return.",
			}, &pending); err != nil {
			return err
		}
		if target.OwnerID != "" {
			if err := d.newReport(tx, cur.WorldID, target.OwnerID, report.KindSpyCaught,
				fmt.Sprintf("A spy was caught in %s", target.Name), report.Body{
					Resources: map[string]int{city.Silver: res.DefenderSilverGained},
					Message:   "A foreign agent was caught. Their bribe money went into the cave.",
				}, &pending); err != nil {
				return err
			}
		}

		// Agent lost with the attempt.
		tx.Delete(Collection, cur.ID)
		return nil
	})
	if err != nil {
		return err
	}
	d.notify(pending)
	return nil
}

// releaseAgent returns a surviving agent to the origin roster. A missing
// origin city just swallows the agent.
func (d *Dispatcher) releaseAgent(tx store.Tx, cur *Movement) error {
	if cur.Agent == "" {
		return nil
	}
	var origin city.City
	if err := tx.Get(city.Collection, cur.Origin.CityID, &origin); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if origin.Agents == nil {
		origin.Agents = map[string]int{}
	}
	origin.Agents[cur.Agent]++
	tx.Put(city.Collection, origin.ID, &origin)
	return nil
}
