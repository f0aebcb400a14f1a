package world

import (
	"context"
	"errors"
	"fmt"

	"IslandWar/internal/city"
	"IslandWar/internal/player"
	"IslandWar/internal/shared/errx"
	"IslandWar/internal/shared/utils"
	"IslandWar/internal/store"
)

const (
	CodeWorldFull    errx.Code = "WORLD_FULL"
	CodePlayerExists errx.Code = "PLAYER_EXISTS"
)

var (
	ErrWorldFull    = errx.NewBiz(CodeWorldFull, "no free city slot left in this world")
	ErrPlayerExists = errx.NewBiz(CodePlayerExists, "player already enrolled")
)

// enrollAttempts bounds how many slot races one enrollment will lose
// before giving up.
const enrollAttempts = 5

// Enroller places fresh accounts into the world: one game profile plus a
// starting city on a free slot.
type Enroller struct {
	store   store.Store
	worldID string
}

func NewEnroller(st store.Store, worldID string) *Enroller {
	return &Enroller{store: st, worldID: worldID}
}

// Enroll creates the game profile and the starting city. Losing a slot
// race to a concurrent enrollment is retried with the next free slot.
func (e *Enroller) Enroll(ctx context.Context, accountID, username string) error {
	var existing player.Profile
	err := e.store.Get(ctx, player.Collection, accountID, &existing)
	if err == nil {
		return ErrPlayerExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	var slots []CitySlot
	q := store.Query{
		Filters: []store.Filter{
			store.Eq("worldId", e.worldID),
			store.Eq("cityId", ""),
		},
		OrderBy: "_id",
		Limit:   enrollAttempts,
	}
	if err := e.store.Query(ctx, SlotCollection, q, &slots); err != nil {
		return err
	}

	for i := range slots {
		claimed, err := e.tryClaim(ctx, accountID, username, slots[i].ID)
		if err != nil {
			return err
		}
		if claimed {
			return nil
		}
	}
	return ErrWorldFull
}

func (e *Enroller) tryClaim(ctx context.Context, accountID, username, slotID string) (bool, error) {
	cityID, err := utils.NextStringID()
	if err != nil {
		return false, errx.ErrInternal.WithCause(err)
	}

	claimed := false
	err = e.store.RunTransaction(ctx, func(tx store.Tx) error {
		claimed = false
		var slot CitySlot
		if err := tx.Get(SlotCollection, slotID, &slot); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		if slot.Claimed() {
			// Lost the race; the caller tries the next slot.
			return nil
		}

		now := e.store.Now()
		c := city.New(cityID, e.worldID, accountID, fmt.Sprintf("%s's city", username),
			slot.X, slot.Y, slot.IslandID, now)
		c.SlotID = slot.ID
		tx.Put(city.Collection, cityID, c)

		slot.CityID = cityID
		slot.OwnerID = accountID
		tx.Put(SlotCollection, slot.ID, &slot)

		p := player.Profile{
			ID:        accountID,
			WorldID:   e.worldID,
			Username:  username,
			CreatedAt: now,
		}
		tx.Put(player.Collection, accountID, &p)
		claimed = true
		return nil
	})
	return claimed, err
}
