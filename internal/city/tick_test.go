package city

import (
	"testing"
	"time"

	"IslandWar/internal/shared/gameconfig/building"
	"IslandWar/internal/shared/gameconfig/hero"
	"IslandWar/internal/shared/gameconfig/research"
	"IslandWar/internal/shared/gameconfig/unit"
)

func TestMain(m *testing.M) {
	building.Load()
	unit.Load()
	hero.Load()
	research.Load()
	m.Run()
}

var tickBase = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func newTestCity() *City {
	return New("c1", "w1", "p1", "Testopolis", 10, 20, "isle-1", tickBase)
}

func TestCatchUp_LinearAccrual(t *testing.T) {
	c := newTestCity()

	c.CatchUp(tickBase.Add(time.Hour), Modifiers{})

	// Level-1 camps produce 80/h, the mine 55/h, all boosted 10% by full
	// happiness on top of the 500/500/250 founding stock.
	if c.Resources[Wood] != 588 {
		t.Fatalf("wood = %d, want 588", c.Resources[Wood])
	}
	if c.Resources[Stone] != 588 {
		t.Fatalf("stone = %d, want 588", c.Resources[Stone])
	}
	if c.Resources[Silver] != 310 {
		t.Fatalf("silver = %d, want 310", c.Resources[Silver])
	}
	if !c.LastUpdated.Equal(tickBase.Add(time.Hour)) {
		t.Fatalf("lastUpdated not advanced: %v", c.LastUpdated)
	}
}

func TestCatchUp_UnhappyCityProducesLess(t *testing.T) {
	c := newTestCity()
	c.Happiness = 20

	c.CatchUp(tickBase.Add(time.Hour), Modifiers{})

	if c.Resources[Wood] != 564 {
		t.Fatalf("wood = %d, want 564 at the 0.8 happiness factor", c.Resources[Wood])
	}
}

func TestCatchUp_WorkersBoostProduction(t *testing.T) {
	c := newTestCity()
	c.Buildings[building.TimberCamp] = BuildingState{Level: 1, Workers: 5}

	c.CatchUp(tickBase.Add(time.Hour), Modifiers{})

	// 80 * 1.5 workers * 1.1 happiness = 132.
	if c.Resources[Wood] != 632 {
		t.Fatalf("wood = %d, want 632", c.Resources[Wood])
	}
}

func TestCatchUp_WarehouseClampsOverflow(t *testing.T) {
	c := newTestCity()
	c.Resources[Wood] = 1190

	c.CatchUp(tickBase.Add(10*time.Hour), Modifiers{})

	if cap := c.WarehouseCapacity(0); c.Resources[Wood] != cap {
		t.Fatalf("wood = %d, want clamped to %d", c.Resources[Wood], cap)
	}
}

func TestCatchUp_AllianceBonusesApply(t *testing.T) {
	plain := newTestCity()
	boosted := newTestCity()

	plain.CatchUp(tickBase.Add(time.Hour), Modifiers{})
	boosted.CatchUp(tickBase.Add(time.Hour), Modifiers{AllianceProduction: 0.10, AllianceWarehouse: 0.10})

	if boosted.Resources[Wood] <= plain.Resources[Wood] {
		t.Fatalf("alliance production bonus had no effect: %d vs %d",
			boosted.Resources[Wood], plain.Resources[Wood])
	}
	if boosted.WarehouseCapacity(0.10) != int(float64(plain.WarehouseCapacity(0))*1.1) {
		t.Fatalf("warehouse bonus wrong: %d", boosted.WarehouseCapacity(0.10))
	}
}

func TestCatchUp_FavorAccruesOnlyWithGodAndTemple(t *testing.T) {
	c := newTestCity()
	c.God = "poseidon"

	c.CatchUp(tickBase.Add(time.Hour), Modifiers{})
	if c.Favor != 0 {
		t.Fatalf("no temple, no favor: %d", c.Favor)
	}

	c.Buildings[building.DivineTemple] = BuildingState{Level: 2}
	c.CatchUp(tickBase.Add(2*time.Hour), Modifiers{})
	if c.Favor != 12 {
		t.Fatalf("favor = %d, want 12 (6 x temple level per hour)", c.Favor)
	}
}

func TestProcessQueues_FIFONeverReorders(t *testing.T) {
	c := newTestCity()
	now := tickBase.Add(time.Hour)
	c.BarracksQueue = []QueueEntry{
		{ID: "q1", Target: "hoplite", Count: 5, EndTime: now.Add(time.Minute)},
		{ID: "q2", Target: "militia", Count: 3, EndTime: now.Add(-time.Minute)},
	}

	done := c.CatchUp(now, Modifiers{})

	// q2's end time has passed but q1 ahead of it has not: nothing pops.
	if len(done) != 0 {
		t.Fatalf("queue reordered: %+v", done)
	}
	if len(c.BarracksQueue) != 2 {
		t.Fatalf("queue mutated: %+v", c.BarracksQueue)
	}
}

func TestProcessQueues_DueEntriesComplete(t *testing.T) {
	c := newTestCity()
	now := tickBase.Add(time.Hour)
	c.BuildQueue = []QueueEntry{{ID: "b1", Target: building.Barracks, Level: 1, EndTime: now.Add(-time.Second)}}
	c.BarracksQueue = []QueueEntry{{ID: "t1", Target: "hoplite", Count: 7, EndTime: now.Add(-time.Second)}}
	c.HealQueue = []QueueEntry{{ID: "h1", Target: "militia", Count: 2, EndTime: now.Add(-time.Second)}}

	done := c.CatchUp(now, Modifiers{})

	if len(done) != 3 {
		t.Fatalf("want 3 completions, got %+v", done)
	}
	if c.BuildingLevel(building.Barracks) != 1 {
		t.Fatalf("barracks not built: %+v", c.Buildings[building.Barracks])
	}
	if c.Units["hoplite"] != 7 || c.Units["militia"] != 2 {
		t.Fatalf("units not credited: %v", c.Units)
	}
	if len(c.BuildQueue)+len(c.BarracksQueue)+len(c.HealQueue) != 0 {
		t.Fatal("completed entries left in queues")
	}
}

func TestProcessQueues_ResearchDeactivatesWithoutPrerequisite(t *testing.T) {
	c := newTestCity()
	now := tickBase.Add(time.Hour)
	c.Buildings[building.Academy] = BuildingState{Level: 1}
	c.ResearchQueue = []QueueEntry{{ID: "r1", Target: "phalanx_drill", EndTime: now.Add(-time.Second)}}

	c.CatchUp(now, Modifiers{})
	if !c.HasActiveResearch("phalanx_drill") {
		t.Fatal("completed research should be active")
	}

	// Academy drops below the requirement: the research switches off, and
	// back on when restored.
	c.Buildings[building.Academy] = BuildingState{Level: 0}
	c.reconcileResearch()
	if c.HasActiveResearch("phalanx_drill") {
		t.Fatal("research should deactivate without its academy")
	}
	c.Buildings[building.Academy] = BuildingState{Level: 1}
	c.reconcileResearch()
	if !c.HasActiveResearch("phalanx_drill") {
		t.Fatal("research should reactivate with the academy back")
	}
}

func TestAddWounded_HospitalCapacityClamp(t *testing.T) {
	c := newTestCity()
	c.Buildings[building.Hospital] = BuildingState{Level: 1} // capacity 10
	c.Wounded = map[string]int{"hoplite": 8}

	c.AddWounded(map[string]int{"militia": 5})

	if c.WoundedCount() != 10 {
		t.Fatalf("wounded = %d, want hospital cap 10", c.WoundedCount())
	}
	if c.Wounded["militia"] != 2 {
		t.Fatalf("admitted %d militia, want 2", c.Wounded["militia"])
	}
}

func TestAddWounded_NoHospitalMeansNoBeds(t *testing.T) {
	c := newTestCity()
	c.AddWounded(map[string]int{"militia": 5})
	if c.WoundedCount() != 0 {
		t.Fatalf("wounded admitted without a hospital: %v", c.Wounded)
	}
}

func TestAvailableHero_SkipsUnfitHeroes(t *testing.T) {
	c := newTestCity()
	now := tickBase
	c.Heroes = map[string]HeroState{
		"andromeda":    {CityID: "c1", Status: "traveling"},
		"leonidas":     {CityID: "c1", WoundedUntil: now.Add(time.Hour)},
		"themistokles": {CityID: "c1"},
	}

	if got := c.AvailableHero(now); got != "themistokles" {
		t.Fatalf("AvailableHero = %q", got)
	}

	// Recovered wounds make the earlier id win the stable scan.
	if got := c.AvailableHero(now.Add(2 * time.Hour)); got != "leonidas" {
		t.Fatalf("AvailableHero after recovery = %q", got)
	}
}

func TestDepositCave_ClampsToCaveCapacity(t *testing.T) {
	c := newTestCity()
	c.DepositCave(5000)
	if c.CaveSilver != c.CaveCapacity() {
		t.Fatalf("cave = %d, want cap %d", c.CaveSilver, c.CaveCapacity())
	}
}

func TestFreePrisonSlots(t *testing.T) {
	c := newTestCity()
	if c.FreePrisonSlots() != 0 {
		t.Fatalf("no prison built, slots = %d", c.FreePrisonSlots())
	}
	c.Buildings[building.Prison] = BuildingState{Level: 1}
	c.Prisoners = []Prisoner{{HeroID: "leonidas"}}
	if c.FreePrisonSlots() != 0 {
		t.Fatalf("level-1 prison holds one, slots = %d", c.FreePrisonSlots())
	}
}
