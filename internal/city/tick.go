package city

import (
	"time"

	"IslandWar/internal/shared/gameconfig/building"
	"IslandWar/internal/shared/gameconfig/hero"
)

// Modifiers carries the external bonuses the tick cannot derive from the
// city document itself.
type Modifiers struct {
	AllianceProduction float64 // additive fraction, e.g. 0.05 for +5%
	AllianceWarehouse  float64
}

// Completion describes one finished queue entry, for user notification.
type Completion struct {
	Queue  string `json:"queue"`
	Target string `json:"target"`
	Count  int    `json:"count,omitempty"`
	Level  int    `json:"level,omitempty"`
}

var productionBuildings = map[string]string{
	building.TimberCamp: Wood,
	building.Quarry:     Stone,
	building.SilverMine: Silver,
}

// CatchUp advances the city from LastUpdated to now: linear resource and
// favor accrual followed by queue completion. The same formula applies no
// matter how large the gap is; long absence is not special-cased.
func (c *City) CatchUp(now time.Time, mods Modifiers) []Completion {
	elapsed := now.Sub(c.LastUpdated)
	if elapsed > 0 {
		c.accrue(elapsed, mods)
	}
	done := c.processQueues(now)
	c.LastUpdated = now
	return done
}

func (c *City) accrue(elapsed time.Duration, mods Modifiers) {
	hours := elapsed.Hours()
	happiness := c.happinessFactor()
	heroProd := c.heroFactor(hero.PassiveProduction)

	gain := map[string]int{}
	for bName, res := range productionBuildings {
		state := c.Buildings[bName]
		if state.Level <= 0 {
			continue
		}
		rate := float64(building.ProductionPerHour(bName, state.Level))
		rate *= 1 + 0.1*float64(state.Workers)
		rate *= happiness
		rate *= heroProd
		rate *= 1 + mods.AllianceProduction
		gain[res] += int(rate * hours)
	}
	c.AddResources(gain, mods.AllianceWarehouse)

	if c.God != "" {
		templeLevel := c.BuildingLevel(building.DivineTemple)
		if templeLevel > 0 {
			rate := 6 * float64(templeLevel) * c.heroFactor(hero.PassiveFavor)
			c.Favor += int(rate * hours)
			if cap := c.FavorCap(); c.Favor > cap {
				c.Favor = cap
			}
		}
	}
}

func (c *City) happinessFactor() float64 {
	switch {
	case c.Happiness >= 80:
		return 1.1
	case c.Happiness >= 40:
		return 1.0
	default:
		return 0.8
	}
}

// heroFactor multiplies the passives of every hero present and fit for duty.
func (c *City) heroFactor(subtype string) float64 {
	factor := 1.0
	for heroID, state := range c.Heroes {
		if state.CityID != c.ID || state.Status != "" {
			continue
		}
		if !state.WoundedUntil.IsZero() && state.WoundedUntil.After(c.LastUpdated) {
			continue
		}
		factor *= hero.PassiveFactor(heroID, subtype)
	}
	return factor
}

// processQueues applies every due entry across the FIFO queues, in queue
// order, and reports what completed.
func (c *City) processQueues(now time.Time) []Completion {
	var done []Completion

	c.BuildQueue = c.drainQueue(c.BuildQueue, now, func(e QueueEntry) {
		state := c.Buildings[e.Target]
		state.Level = e.Level
		if c.Buildings == nil {
			c.Buildings = map[string]BuildingState{}
		}
		c.Buildings[e.Target] = state
		c.reconcileResearch()
		done = append(done, Completion{Queue: "build", Target: e.Target, Level: e.Level})
	})

	trainQueues := []struct {
		name  string
		queue *[]QueueEntry
	}{
		{"barracks", &c.BarracksQueue},
		{"shipyard", &c.ShipyardQueue},
		{"divine_temple", &c.DivineTempleQueue},
	}
	for _, tq := range trainQueues {
		name := tq.name
		*tq.queue = c.drainQueue(*tq.queue, now, func(e QueueEntry) {
			c.AddUnits(map[string]int{e.Target: e.Count})
			done = append(done, Completion{Queue: name, Target: e.Target, Count: e.Count})
		})
	}

	c.ResearchQueue = c.drainQueue(c.ResearchQueue, now, func(e QueueEntry) {
		if c.Research == nil {
			c.Research = map[string]ResearchState{}
		}
		c.Research[e.Target] = ResearchState{Completed: true, Active: true}
		done = append(done, Completion{Queue: "research", Target: e.Target})
	})

	c.HealQueue = c.drainQueue(c.HealQueue, now, func(e QueueEntry) {
		c.AddUnits(map[string]int{e.Target: e.Count})
		done = append(done, Completion{Queue: "heal", Target: e.Target, Count: e.Count})
	})

	return done
}

// drainQueue pops leading entries whose endTime has passed. FIFO order: a
// later entry never completes before an earlier one even if its endTime is
// smaller.
func (c *City) drainQueue(q []QueueEntry, now time.Time, apply func(QueueEntry)) []QueueEntry {
	i := 0
	for ; i < len(q); i++ {
		if q[i].EndTime.After(now) {
			break
		}
		apply(q[i])
	}
	if i == 0 {
		return q
	}
	return append([]QueueEntry{}, q[i:]...)
}

// reconcileResearch deactivates completed research whose prerequisite
// building dropped below requirement and reactivates it when restored.
func (c *City) reconcileResearch() {
	for name, state := range c.Research {
		if !state.Completed {
			continue
		}
		active := c.meetsResearchRequirement(name)
		if state.Active != active {
			state.Active = active
			c.Research[name] = state
		}
	}
}
