package city

import (
	"sort"
	"time"

	"IslandWar/internal/shared/gameconfig/building"
)

// Collection is the document collection cities live in.
const Collection = "cities"

// Resource ids used across the game.
const (
	Wood   = "wood"
	Stone  = "stone"
	Silver = "silver"
)

type BuildingState struct {
	Level   int `bson:"level" json:"level"`
	Workers int `bson:"workers,omitempty" json:"workers,omitempty"`
}

type HeroState struct {
	CityID       string    `bson:"cityId" json:"cityId"`
	Level        int       `bson:"level" json:"level"`
	XP           int       `bson:"xp" json:"xp"`
	WoundedUntil time.Time `bson:"woundedUntil,omitempty" json:"woundedUntil,omitempty"`
	Status       string    `bson:"status,omitempty" json:"status,omitempty"` // "", "traveling", "captured"
}

type Prisoner struct {
	CaptureID      string    `bson:"captureId" json:"captureId"`
	HeroID         string    `bson:"heroId" json:"heroId"`
	CapturedAt     time.Time `bson:"capturedAt" json:"capturedAt"`
	OwnerID        string    `bson:"ownerId" json:"ownerId"`
	OriginCityID   string    `bson:"originCityId" json:"originCityId"`
	OriginCityName string    `bson:"originCityName" json:"originCityName"`
}

type ResearchState struct {
	Completed bool `bson:"completed" json:"completed"`
	// Active research can be switched off when a prerequisite building is
	// demolished below its requirement, and back on when restored.
	Active bool `bson:"active" json:"active"`
}

// QueueEntry is one pending item in any of the city's FIFO queues. Target is
// a building, unit, research or wounded-unit id depending on the queue.
type QueueEntry struct {
	ID      string    `bson:"id" json:"id"`
	Target  string    `bson:"target" json:"target"`
	Count   int       `bson:"count,omitempty" json:"count,omitempty"`
	Level   int       `bson:"level,omitempty" json:"level,omitempty"`
	EndTime time.Time `bson:"endTime" json:"endTime"`
}

type City struct {
	ID       string `bson:"_id" json:"id"`
	WorldID  string `bson:"worldId" json:"worldId"`
	OwnerID  string `bson:"ownerId" json:"ownerId"`
	Name     string `bson:"name" json:"name"`
	X        int    `bson:"x" json:"x"`
	Y        int    `bson:"y" json:"y"`
	IslandID string `bson:"islandId" json:"islandId"`
	// SlotID is the map slot this city occupies.
	SlotID string `bson:"slotId,omitempty" json:"slotId,omitempty"`

	Resources map[string]int `bson:"resources" json:"resources"`
	// CaveSilver is the hidden stash used for counter-espionage. It is not
	// part of Resources and is never plundered.
	CaveSilver int    `bson:"caveSilver,omitempty" json:"caveSilver,omitempty"`
	God        string `bson:"god,omitempty" json:"god,omitempty"`
	Favor      int    `bson:"favor" json:"favor"`
	Happiness  int    `bson:"happiness" json:"happiness"`

	// DefensePhalanx and DefenseSupport are the standing unit assignments
	// used when this city is attacked.
	DefensePhalanx string `bson:"defensePhalanx,omitempty" json:"defensePhalanx,omitempty"`
	DefenseSupport string `bson:"defenseSupport,omitempty" json:"defenseSupport,omitempty"`

	Buildings map[string]BuildingState `bson:"buildings" json:"buildings"`
	Units     map[string]int           `bson:"units" json:"units"`
	Wounded   map[string]int           `bson:"wounded" json:"wounded"`
	Heroes    map[string]HeroState     `bson:"heroes" json:"heroes"`
	Agents    map[string]int           `bson:"agents" json:"agents"`
	Prisoners []Prisoner               `bson:"prisoners" json:"prisoners"`
	Research  map[string]ResearchState `bson:"research" json:"research"`

	// Reinforcements are garrisoned foreign troops, keyed by origin city id
	// so they can be recalled with per-origin attribution.
	Reinforcements map[string]map[string]int `bson:"reinforcements" json:"reinforcements"`

	BuildQueue        []QueueEntry `bson:"buildQueue" json:"buildQueue"`
	BarracksQueue     []QueueEntry `bson:"barracksQueue" json:"barracksQueue"`
	ShipyardQueue     []QueueEntry `bson:"shipyardQueue" json:"shipyardQueue"`
	DivineTempleQueue []QueueEntry `bson:"divineTempleQueue" json:"divineTempleQueue"`
	ResearchQueue     []QueueEntry `bson:"researchQueue" json:"researchQueue"`
	HealQueue         []QueueEntry `bson:"healQueue" json:"healQueue"`

	LastUpdated time.Time `bson:"lastUpdated" json:"lastUpdated"`
}

// New seeds a freshly founded city: the basic economy buildings at level 1,
// starter resources, full happiness.
func New(id, worldID, ownerID, name string, x, y int, islandID string, now time.Time) *City {
	c := &City{
		ID:             id,
		WorldID:        worldID,
		OwnerID:        ownerID,
		Name:           name,
		X:              x,
		Y:              y,
		IslandID:       islandID,
		Resources:      map[string]int{Wood: 500, Stone: 500, Silver: 250},
		Happiness:      100,
		Buildings:      map[string]BuildingState{},
		Units:          map[string]int{},
		Wounded:        map[string]int{},
		Heroes:         map[string]HeroState{},
		Agents:         map[string]int{},
		Research:       map[string]ResearchState{},
		Reinforcements: map[string]map[string]int{},
		LastUpdated:    now,
	}
	for _, name := range building.SeededNames() {
		c.Buildings[name] = BuildingState{Level: 1}
	}
	return c
}

func (c *City) BuildingLevel(name string) int {
	return c.Buildings[name].Level
}

// WarehouseCapacity is the per-resource storage cap, scaled by the alliance
// warehouse research bonus (an additive fraction).
func (c *City) WarehouseCapacity(allianceBonus float64) int {
	base := building.Capacity(building.Warehouse, c.BuildingLevel(building.Warehouse))
	return int(float64(base) * (1 + allianceBonus))
}

func (c *City) HospitalCapacity() int {
	return building.Capacity(building.Hospital, c.BuildingLevel(building.Hospital))
}

func (c *City) PrisonCapacity() int {
	return building.Capacity(building.Prison, c.BuildingLevel(building.Prison))
}

func (c *City) CaveCapacity() int {
	return building.Capacity(building.Cave, c.BuildingLevel(building.Cave))
}

func (c *City) FavorCap() int {
	return building.Capacity(building.DivineTemple, c.BuildingLevel(building.DivineTemple))
}

func (c *City) WoundedCount() int {
	total := 0
	for _, n := range c.Wounded {
		total += n
	}
	return total
}

// AddResources credits amounts clamped to the warehouse capacity; overflow
// is dropped, never queued.
func (c *City) AddResources(amounts map[string]int, allianceBonus float64) {
	cap := c.WarehouseCapacity(allianceBonus)
	if c.Resources == nil {
		c.Resources = map[string]int{}
	}
	for res, amount := range amounts {
		if amount <= 0 {
			continue
		}
		next := c.Resources[res] + amount
		if next > cap {
			next = cap
		}
		c.Resources[res] = next
	}
}

// SubResources debits amounts, flooring at zero.
func (c *City) SubResources(amounts map[string]int) {
	for res, amount := range amounts {
		if amount <= 0 {
			continue
		}
		c.Resources[res] -= amount
		if c.Resources[res] < 0 {
			c.Resources[res] = 0
		}
	}
}

func (c *City) HasResources(amounts map[string]int) bool {
	for res, amount := range amounts {
		if c.Resources[res] < amount {
			return false
		}
	}
	return true
}

func (c *City) AddUnits(units map[string]int) {
	if c.Units == nil {
		c.Units = map[string]int{}
	}
	for name, count := range units {
		if count > 0 {
			c.Units[name] += count
		}
	}
}

func (c *City) HasUnits(units map[string]int) bool {
	for name, count := range units {
		if c.Units[name] < count {
			return false
		}
	}
	return true
}

func (c *City) SubUnits(units map[string]int) {
	for name, count := range units {
		if count <= 0 {
			continue
		}
		c.Units[name] -= count
		if c.Units[name] <= 0 {
			delete(c.Units, name)
		}
	}
}

// AddWounded admits wounded up to the remaining hospital capacity; the
// excess is dropped silently.
func (c *City) AddWounded(wounded map[string]int) {
	if c.Wounded == nil {
		c.Wounded = map[string]int{}
	}
	free := c.HospitalCapacity() - c.WoundedCount()
	for name, count := range wounded {
		if count <= 0 || free <= 0 {
			continue
		}
		admit := min(count, free)
		c.Wounded[name] += admit
		free -= admit
	}
}

func (c *City) FreePrisonSlots() int {
	return c.PrisonCapacity() - len(c.Prisoners)
}

// AddResourcesDirect credits amounts with no warehouse clamp. Trade
// deliveries use this; the cap is only enforced on production ticks.
func (c *City) AddResourcesDirect(amounts map[string]int) {
	if c.Resources == nil {
		c.Resources = map[string]int{}
	}
	for res, amount := range amounts {
		if amount > 0 {
			c.Resources[res] += amount
		}
	}
}

// DepositCave adds silver to the cave stash, clamped to the cave capacity.
func (c *City) DepositCave(amount int) {
	if amount <= 0 {
		return
	}
	c.CaveSilver += amount
	if cap := c.CaveCapacity(); c.CaveSilver > cap {
		c.CaveSilver = cap
	}
}

// AvailableHero returns the id of a hero stationed here that can fight now:
// present, not traveling, not captured, not wounded. Ids are scanned in
// sorted order so the pick is stable.
func (c *City) AvailableHero(now time.Time) string {
	ids := make([]string, 0, len(c.Heroes))
	for id := range c.Heroes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		h := c.Heroes[id]
		if h.CityID != c.ID || h.Status != "" {
			continue
		}
		if !h.WoundedUntil.IsZero() && h.WoundedUntil.After(now) {
			continue
		}
		return id
	}
	return ""
}

// WoundHero marks a hero as out of action until the given time.
func (c *City) WoundHero(heroID string, until time.Time) {
	h, ok := c.Heroes[heroID]
	if !ok {
		return
	}
	h.WoundedUntil = until
	c.Heroes[heroID] = h
}

// SetHeroStatus updates a hero's status flag ("", "traveling", "captured").
func (c *City) SetHeroStatus(heroID, status string) {
	h, ok := c.Heroes[heroID]
	if !ok {
		return
	}
	h.Status = status
	c.Heroes[heroID] = h
}

// MergeReinforcements adds incoming units under their origin city id.
func (c *City) MergeReinforcements(originCityID string, units map[string]int) {
	if c.Reinforcements == nil {
		c.Reinforcements = map[string]map[string]int{}
	}
	slot := c.Reinforcements[originCityID]
	if slot == nil {
		slot = map[string]int{}
		c.Reinforcements[originCityID] = slot
	}
	for name, count := range units {
		if count > 0 {
			slot[name] += count
		}
	}
}
