package movement

import (
	"context"
	"errors"
	"fmt"

	"IslandWar/internal/city"
	"IslandWar/internal/report"
	"IslandWar/internal/store"
)

// processAssignHero relocates a hero between two cities of the same
// account. A failed relocation turns the hero around and tells the owner
// why, instead of silently dropping the order.
func (d *Dispatcher) processAssignHero(ctx context.Context, m *Movement) error {
	var pending []*report.Report
	err := d.store.RunTransaction(ctx, func(tx store.Tx) error {
		pending = pending[:0]

		cur, ok, err := d.reload(tx, m.ID)
		if err != nil || !ok {
			return err
		}

		var origin city.City
		if err := tx.Get(city.Collection, cur.Origin.CityID, &origin); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				tx.Delete(Collection, cur.ID)
				return nil
			}
			return err
		}

		fail := func(msg string) error {
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindHero,
				"Hero reassignment failed", report.Body{Message: msg}, &pending); err != nil {
				return err
			}
			cur.ToReturning(nil, nil, nil)
			tx.Put(Collection, cur.ID, cur)
			return nil
		}

		var target city.City
		if err := tx.Get(city.Collection, cur.AssignHero.TargetCityID, &target); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fail("The destination city no longer exists. The hero is returning.")
			}
			return err
		}
		if target.OwnerID != cur.Origin.OwnerID {
			return fail(fmt.Sprintf("%s is no longer yours. The hero is returning.", target.Name))
		}

		state, held := origin.Heroes[cur.Hero]
		if !held {
			return fail("The hero's record was lost in transit.")
		}

		delete(origin.Heroes, cur.Hero)
		state.CityID = target.ID
		state.Status = ""
		if target.Heroes == nil {
			target.Heroes = map[string]city.HeroState{}
		}
		target.Heroes[cur.Hero] = state

		tx.Put(city.Collection, origin.ID, &origin)
		tx.Put(city.Collection, target.ID, &target)
		tx.Delete(Collection, cur.ID)
		return nil
	})
	if err != nil {
		return err
	}
	d.notify(pending)
	return nil
}
