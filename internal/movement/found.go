package movement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"IslandWar/internal/city"
	"IslandWar/internal/report"
	"IslandWar/internal/shared/utils"
	"IslandWar/internal/store"
	"IslandWar/internal/world"
)

// processFoundingArrival flips a found-city movement into its founding
// phase. The slot is checked but not reserved; the claim race is settled
// when founding completes.
func (d *Dispatcher) processFoundingArrival(ctx context.Context, m *Movement) error {
	var pending []*report.Report
	err := d.store.RunTransaction(ctx, func(tx store.Tx) error {
		pending = pending[:0]

		cur, ok, err := d.reload(tx, m.ID)
		if err != nil || !ok {
			return err
		}

		var slot world.CitySlot
		err = tx.Get(world.SlotCollection, cur.Found.TargetSlotID, &slot)
		if errors.Is(err, store.ErrNotFound) || (err == nil && slot.Claimed()) {
			return d.abortFounding(tx, cur, &pending)
		}
		if err != nil {
			return err
		}

		founding := d.cfg.FoundingDuration
		if cur.Found.FoundingTimeSeconds > 0 {
			founding = time.Duration(cur.Found.FoundingTimeSeconds) * time.Second
		}
		cur.Status = StatusFounding
		cur.Found.TravelSeconds = int(cur.Duration().Seconds())
		cur.ArrivalTime = cur.ArrivalTime.Add(founding)
		tx.Put(Collection, cur.ID, cur)
		return nil
	})
	if err != nil {
		return err
	}
	d.notify(pending)
	return nil
}

// processFoundingComplete settles the claim race and raises the new city.
func (d *Dispatcher) processFoundingComplete(ctx context.Context, m *Movement) error {
	var pending []*report.Report
	err := d.store.RunTransaction(ctx, func(tx store.Tx) error {
		pending = pending[:0]

		cur, ok, err := d.reload(tx, m.ID)
		if err != nil || !ok {
			return err
		}
		now := d.store.Now()

		var slot world.CitySlot
		err = tx.Get(world.SlotCollection, cur.Found.TargetSlotID, &slot)
		if errors.Is(err, store.ErrNotFound) || (err == nil && slot.Claimed()) {
			return d.abortFounding(tx, cur, &pending)
		}
		if err != nil {
			return err
		}

		cityID, err := utils.NextStringID()
		if err != nil {
			return err
		}
		name := cur.Found.NewCityName
		if name == "" {
			name = fmt.Sprintf("Colony of %s", cur.Origin.Username)
		}
		c := city.New(cityID, cur.WorldID, cur.Origin.OwnerID, name, slot.X, slot.Y, slot.IslandID, now)
		c.SlotID = slot.ID
		c.AddUnits(cur.Units)
		if cur.Hero != "" {
			// The hero keeps its progress; prefer the origin's live record
			// and fall back to the snapshot taken at departure.
			state := city.HeroState{Level: cur.HeroLevel, XP: cur.HeroXP}
			var origin city.City
			if err := tx.Get(city.Collection, cur.Origin.CityID, &origin); err == nil {
				if live, held := origin.Heroes[cur.Hero]; held {
					state = live
				}
				delete(origin.Heroes, cur.Hero)
				tx.Put(city.Collection, origin.ID, &origin)
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			state.CityID = cityID
			state.Status = ""
			c.Heroes[cur.Hero] = state
		}
		tx.Put(city.Collection, cityID, c)

		slot.CityID = cityID
		slot.OwnerID = cur.Origin.OwnerID
		slot.Garrison = cloneCounts(cur.Units)
		tx.Put(world.SlotCollection, slot.ID, &slot)

		if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindFoundCity,
			fmt.Sprintf("%s has been founded", name), report.Body{
				Units:   cloneCounts(cur.Units),
				Message: fmt.Sprintf("The settlers raised %s at (%d, %d).", name, slot.X, slot.Y),
			}, &pending); err != nil {
			return err
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

// abortFounding sends the settlers home after a lost claim race or a
// vanished slot.
func (d *Dispatcher) abortFounding(tx store.Tx, cur *Movement, pending *[]*report.Report) error {
	if err := d.newReport(tx, cur.WorldID, cur.Origin.OwnerID, report.KindFoundCity,
		"Founding failed", report.Body{
			Units:   cloneCounts(cur.Units),
			Message: "The chosen spot is already taken. The settlers are returning home.",
		}, pending); err != nil {
		return err
	}
	cur.ToReturning(cur.Units, nil, nil)
	if cur.Found.TravelSeconds > 0 {
		cur.ArrivalTime = cur.DepartureTime.Add(time.Duration(cur.Found.TravelSeconds) * time.Second)
	}
	tx.Put(Collection, cur.ID, cur)
	return nil
}
