package movement

import (
	"context"
	"errors"
	"fmt"

	"IslandWar/internal/city"
	"IslandWar/internal/report"
	"IslandWar/internal/store"
)

// processReturn merges a homebound movement back into its origin city and
// deletes it. Resources respect the warehouse cap, wounded the hospital
// cap; a deleted origin swallows the cargo.
func (d *Dispatcher) processReturn(ctx context.Context, m *Movement) error {
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
				tx.Delete(Collection, cur.ID)
				return nil
			}
			return err
		}

		ownerProfile, err := d.profile(tx, cur.Origin.OwnerID)
		if err != nil {
			return err
		}
		mods := d.cityModifiers(ctx, ownerProfile)
		origin.CatchUp(now, mods)

		origin.AddUnits(cur.Units)
		origin.AddWounded(cur.Wounded)
		origin.AddResources(cur.Resources, mods.AllianceWarehouse)
		if cur.Agent != "" {
			if origin.Agents == nil {
				origin.Agents = map[string]int{}
			}
			origin.Agents[cur.Agent]++
		}
		if cur.Hero != "" {
			state, held := origin.Heroes[cur.Hero]
			if !held {
				// The origin record vanished mid-flight; restore the hero
				// from the snapshot taken at departure.
				state = city.HeroState{Level: cur.HeroLevel, XP: cur.HeroXP}
			}
			state.CityID = origin.ID
			state.Status = ""
			origin.Heroes[cur.Hero] = state
		}

		origin.LastUpdated = now
		tx.Put(city.Collection, origin.ID, &origin)

		if len(cur.Resources) > 0 || len(cur.Wounded) > 0 {
			if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindReturn,
				fmt.Sprintf("Troops returned to %s", origin.Name), report.Body{
					Units:     cloneCounts(cur.Units),
					Wounded:   cloneCounts(cur.Wounded),
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
