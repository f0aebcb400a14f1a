package world

import (
	"time"

	"IslandWar/internal/shared/gameconfig/village"
)

// Collections for world objects. They belong to no account until conquered
// or claimed.
const (
	VillageCollection          = "villages"
	RuinCollection             = "ruins"
	GodTownCollection          = "god_towns"
	SlotCollection             = "city_slots"
	ConqueredVillageCollection = "conquered_villages"
)

type Village struct {
	ID       string `bson:"_id" json:"id"`
	WorldID  string `bson:"worldId" json:"worldId"`
	X        int    `bson:"x" json:"x"`
	Y        int    `bson:"y" json:"y"`
	IslandID string `bson:"islandId" json:"islandId"`
	Level    int    `bson:"level" json:"level"`
	// Troops overrides the level-based default garrison when present.
	Troops    map[string]int `bson:"troops,omitempty" json:"troops,omitempty"`
	Resources map[string]int `bson:"resources" json:"resources"`
}

// Garrison returns the village's explicit troops or the level-based default.
func (v *Village) Garrison() map[string]int {
	if len(v.Troops) > 0 {
		out := make(map[string]int, len(v.Troops))
		for k, n := range v.Troops {
			out[k] = n
		}
		return out
	}
	return village.TroopsForLevel(v.Level)
}

// ConqueredVillage is the per-account conquest record for a village.
// Happiness decays as the account plunders; at or below the revolt
// threshold the next plunder destroys this record.
type ConqueredVillage struct {
	ID          string    `bson:"_id" json:"id"`
	WorldID     string    `bson:"worldId" json:"worldId"`
	AccountID   string    `bson:"accountId" json:"accountId"`
	VillageID   string    `bson:"villageId" json:"villageId"`
	Happiness   int       `bson:"happiness" json:"happiness"`
	ConqueredAt time.Time `bson:"conqueredAt" json:"conqueredAt"`
}

func ConqueredVillageID(accountID, villageID string) string {
	return accountID + ":" + villageID
}

type Ruin struct {
	ID        string         `bson:"_id" json:"id"`
	WorldID   string         `bson:"worldId" json:"worldId"`
	X         int            `bson:"x" json:"x"`
	Y         int            `bson:"y" json:"y"`
	Level     int            `bson:"level" json:"level"`
	Troops    map[string]int `bson:"troops" json:"troops"`
	Resources map[string]int `bson:"resources" json:"resources"`
	// OwnerID is set when an account conquers the ruin.
	OwnerID string `bson:"ownerId,omitempty" json:"ownerId,omitempty"`
}

type GodTown struct {
	ID        string         `bson:"_id" json:"id"`
	WorldID   string         `bson:"worldId" json:"worldId"`
	X         int            `bson:"x" json:"x"`
	Y         int            `bson:"y" json:"y"`
	Level     int            `bson:"level" json:"level"`
	Health    int            `bson:"health" json:"health"`
	MaxHealth int            `bson:"maxHealth" json:"maxHealth"`
	Troops    map[string]int `bson:"troops" json:"troops"`
}

// CitySlot is an empty settlement spot. CityID is set once claimed; the
// claim check inside a transaction is what makes found-city races safe.
type CitySlot struct {
	ID       string `bson:"_id" json:"id"`
	WorldID  string `bson:"worldId" json:"worldId"`
	X        int    `bson:"x" json:"x"`
	Y        int    `bson:"y" json:"y"`
	IslandID string `bson:"islandId" json:"islandId"`
	// CityID stays present even when empty so free-slot queries can match
	// on equality.
	CityID  string `bson:"cityId" json:"cityId"`
	OwnerID string `bson:"ownerId" json:"ownerId"`
	// Garrison mirrors the resident city's reinforcement-visible troops on
	// the world map.
	Garrison map[string]int `bson:"garrison,omitempty" json:"garrison,omitempty"`
}

func (s *CitySlot) Claimed() bool {
	return s.CityID != ""
}
