package world

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"IslandWar/internal/shared/logs"
	"IslandWar/internal/store"
)

// SeedSpec sizes a fresh world.
type SeedSpec struct {
	Islands          int
	SlotsPerIsland   int
	VillagesPerIsle  int
	Ruins            int
	GodTowns         int
	MapSize          int // square map side length
	GodTownHealth    int
	VillageMaxLevel  int
	RandSeed         uint64
}

func DefaultSeedSpec() SeedSpec {
	return SeedSpec{
		Islands:         12,
		SlotsPerIsland:  8,
		VillagesPerIsle: 3,
		Ruins:           6,
		GodTowns:        2,
		MapSize:         1000,
		GodTownHealth:   50000,
		VillageMaxLevel: 6,
		RandSeed:        1,
	}
}

// SeedIfEmpty populates world objects when the world has no slots yet.
// Safe to call on every boot.
func SeedIfEmpty(ctx context.Context, st store.Store, worldID string, spec SeedSpec) error {
	var slots []CitySlot
	q := store.Query{Filters: []store.Filter{store.Eq("worldId", worldID)}, Limit: 1}
	if err := st.Query(ctx, SlotCollection, q, &slots); err != nil {
		return err
	}
	if len(slots) > 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(spec.RandSeed, spec.RandSeed<<1|1))
	var ops []store.Op

	for isle := 0; isle < spec.Islands; isle++ {
		islandID := fmt.Sprintf("%s-isle-%d", worldID, isle)
		// Island anchor with room for its objects around it.
		ix := 50 + rng.IntN(spec.MapSize-100)
		iy := 50 + rng.IntN(spec.MapSize-100)

		for s := 0; s < spec.SlotsPerIsland; s++ {
			id := fmt.Sprintf("%s-slot-%d", islandID, s)
			ops = append(ops, store.Put(SlotCollection, id, &CitySlot{
				ID:       id,
				WorldID:  worldID,
				X:        ix + rng.IntN(20) - 10,
				Y:        iy + rng.IntN(20) - 10,
				IslandID: islandID,
			}))
		}
		for v := 0; v < spec.VillagesPerIsle; v++ {
			id := fmt.Sprintf("%s-village-%d", islandID, v)
			level := 1 + rng.IntN(spec.VillageMaxLevel)
			ops = append(ops, store.Put(VillageCollection, id, &Village{
				ID:       id,
				WorldID:  worldID,
				X:        ix + rng.IntN(20) - 10,
				Y:        iy + rng.IntN(20) - 10,
				IslandID: islandID,
				Level:    level,
				Resources: map[string]int{
					"wood": 200 * level, "stone": 200 * level, "silver": 80 * level,
				},
			}))
		}
	}

	for r := 0; r < spec.Ruins; r++ {
		id := fmt.Sprintf("%s-ruin-%d", worldID, r)
		level := 2 + rng.IntN(4)
		ops = append(ops, store.Put(RuinCollection, id, &Ruin{
			ID:      id,
			WorldID: worldID,
			X:       rng.IntN(spec.MapSize),
			Y:       rng.IntN(spec.MapSize),
			Level:   level,
			Troops: map[string]int{
				"hoplite": 40 * level,
				"archer":  25 * level,
			},
			Resources: map[string]int{
				"wood": 500 * level, "stone": 500 * level, "silver": 300 * level,
			},
		}))
	}

	for g := 0; g < spec.GodTowns; g++ {
		id := fmt.Sprintf("%s-godtown-%d", worldID, g)
		ops = append(ops, store.Put(GodTownCollection, id, &GodTown{
			ID:        id,
			WorldID:   worldID,
			X:         rng.IntN(spec.MapSize),
			Y:         rng.IntN(spec.MapSize),
			Level:     3 + g,
			Health:    spec.GodTownHealth,
			MaxHealth: spec.GodTownHealth,
			Troops: map[string]int{
				"minotaur": 30,
				"hoplite":  200,
				"bireme":   60,
			},
		}))
	}

	if err := st.BatchWrite(ctx, ops); err != nil {
		return err
	}
	logs.Info("world seeded",
		zap.String("worldId", worldID),
		zap.Int("objects", len(ops)))
	return nil
}
