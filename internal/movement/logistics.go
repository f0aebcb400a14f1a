package movement

import (
	"context"
	"errors"
	"fmt"

	"IslandWar/internal/city"
	"IslandWar/internal/report"
	"IslandWar/internal/store"
	"IslandWar/internal/world"
)

// processReinforce garrisons the traveling units in the target city,
// attributed to their origin so they can be recalled later.
func (d *Dispatcher) processReinforce(ctx context.Context, m *Movement) error {
	var pending []*report.Report
	err := d.store.RunTransaction(ctx, func(tx store.Tx) error {
		pending = pending[:0]

		cur, ok, err := d.reload(tx, m.ID)
		if err != nil || !ok {
			return err
		}
		now := d.store.Now()

		var target city.City
		if err := tx.Get(city.Collection, cur.Reinforce.TargetCityID, &target); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindReinforce,
				"Reinforcement target vanished", report.Body{
					Units:   cloneCounts(cur.Units),
					Message: "The target city no longer exists. The troops are returning home.",
				}, &pending); err != nil {
				return err
			}
			cur.ToReturning(cur.Units, nil, nil)
			tx.Put(Collection, cur.ID, cur)
			return nil
		}

		target.MergeReinforcements(cur.Origin.CityID, cur.Units)
		target.LastUpdated = now
		tx.Put(city.Collection, target.ID, &target)

		// Keep the map-facing garrison mirror current.
		if target.SlotID != "" {
			var slot world.CitySlot
			if err := tx.Get(world.SlotCollection, target.SlotID, &slot); err == nil {
				slot.Garrison = defendingGarrison(&target)
				tx.Put(world.SlotCollection, slot.ID, &slot)
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}

		if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindReinforce,
			fmt.Sprintf("Reinforcements reached %s", target.Name), report.Body{
				Units: cloneCounts(cur.Units),
			}, &pending); err != nil {
			return err
		}
		if target.OwnerID != "" && target.OwnerID != cur.Origin.OwnerID {
			if err := d.newReport(tx, cur.WorldID, target.OwnerID, report.KindReinforce,
				fmt.Sprintf("Reinforcements arrived in %s", target.Name), report.Body{
					Attacker: &report.Side{
						OwnerID:  cur.Origin.OwnerID,
						Username: cur.Origin.Username,
						CityID:   cur.Origin.CityID,
						CityName: cur.Origin.CityName,
					},
					Units: cloneCounts(cur.Units),
				}, &pending); err != nil {
				return err
			}
		}

		tx.Delete(Collection, cur.ID)
		return nil
	})
	if err != nil {
		return err
	}
	d.notify(pending)
	return nil
}

// processTrade delivers the carried resources to the target city. Delivery
// is uncapped; only production ticks enforce the warehouse ceiling.
func (d *Dispatcher) processTrade(ctx context.Context, m *Movement) error {
	var pending []*report.Report
	err := d.store.RunTransaction(ctx, func(tx store.Tx) error {
		pending = pending[:0]

		cur, ok, err := d.reload(tx, m.ID)
		if err != nil || !ok {
			return err
		}
		now := d.store.Now()

		var target city.City
		if err := tx.Get(city.Collection, cur.Trade.TargetCityID, &target); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindTrade,
				"Trade target vanished", report.Body{
					Resources: cloneCounts(cur.Resources),
					Message:   "The target city no longer exists. The goods are returning home.",
				}, &pending); err != nil {
				return err
			}
			cur.ToReturning(nil, nil, cur.Resources)
			tx.Put(Collection, cur.ID, cur)
			return nil
		}

		target.AddResourcesDirect(cur.Resources)
		target.LastUpdated = now
		tx.Put(city.Collection, target.ID, &target)

		if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindTrade,
			fmt.Sprintf("Goods delivered to %s", target.Name), report.Body{
				Resources: cloneCounts(cur.Resources),
			}, &pending); err != nil {
			return err
		}
		if target.OwnerID != "" && target.OwnerID != cur.Origin.OwnerID {
			if err := d.newReport(tx, cur.WorldID, target.OwnerID, report.KindTrade,
				fmt.Sprintf("Goods arrived in %s", target.Name), report.Body{
					Attacker: &report.Side{
						OwnerID:  cur.Origin.OwnerID,
						Username: cur.Origin.Username,
						CityID:   cur.Origin.CityID,
						CityName: cur.Origin.CityName,
					},
					Resources: cloneCounts(cur.Resources),
				}, &pending); err != nil {
				return err
			}
		}

		tx.Delete(Collection, cur.ID)
		return nil
	})
	if err != nil {
		return err
	}
	d.notify(pending)
	return nil
}
