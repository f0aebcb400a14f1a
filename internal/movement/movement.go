package movement

import (
	"fmt"
	"time"

	"IslandWar/internal/battle"
)

const Collection = "movements"

type Type string

const (
	TypeAttack        Type = "attack"
	TypeAttackVillage Type = "attack_village"
	TypeAttackRuin    Type = "attack_ruin"
	TypeAttackGodTown Type = "attack_god_town"
	TypeScout         Type = "scout"
	TypeReinforce     Type = "reinforce"
	TypeTrade         Type = "trade"
	TypeFoundCity     Type = "found_city"
	TypeAssignHero    Type = "assign_hero"
)

type Status string

const (
	StatusMoving    Status = "moving"
	StatusFounding  Status = "founding"
	StatusReturning Status = "returning"
)

type Origin struct {
	OwnerID  string `bson:"ownerId" json:"ownerId"`
	CityID   string `bson:"cityId" json:"cityId"`
	CityName string `bson:"cityName" json:"cityName"`
	Username string `bson:"username" json:"username"`
}

// Per-kind orders. Exactly one is set, matching Type; Validate enforces it.

type AttackOrder struct {
	TargetOwnerID string           `bson:"targetOwnerId" json:"targetOwnerId"`
	TargetCityID  string           `bson:"targetCityId" json:"targetCityId"`
	Formation     battle.Formation `bson:"formation" json:"formation"`
	CrossIsland   bool             `bson:"isCrossIsland" json:"isCrossIsland"`
}

type VillageOrder struct {
	TargetVillageID string `bson:"targetVillageId" json:"targetVillageId"`
}

type RuinOrder struct {
	TargetRuinID string           `bson:"targetRuinId" json:"targetRuinId"`
	Formation    battle.Formation `bson:"formation" json:"formation"`
}

type GodTownOrder struct {
	TargetTownID string `bson:"targetTownId" json:"targetTownId"`
}

type ScoutOrder struct {
	TargetOwnerID string `bson:"targetOwnerId" json:"targetOwnerId"`
	TargetCityID  string `bson:"targetCityId" json:"targetCityId"`
	Silver        int    `bson:"silver" json:"silver"`
}

type ReinforceOrder struct {
	TargetOwnerID string `bson:"targetOwnerId" json:"targetOwnerId"`
	TargetCityID  string `bson:"targetCityId" json:"targetCityId"`
}

type TradeOrder struct {
	TargetOwnerID string `bson:"targetOwnerId" json:"targetOwnerId"`
	TargetCityID  string `bson:"targetCityId" json:"targetCityId"`
}

type FoundOrder struct {
	TargetSlotID string `bson:"targetSlotId" json:"targetSlotId"`
	NewCityName  string `bson:"newCityName" json:"newCityName"`
	// FoundingTimeSeconds overrides the configured default when positive.
	FoundingTimeSeconds int `bson:"foundingTimeSeconds,omitempty" json:"foundingTimeSeconds,omitempty"`
	// TravelSeconds records the outbound leg once founding starts, since
	// the founding phase stretches the movement's time window.
	TravelSeconds int `bson:"travelSeconds,omitempty" json:"travelSeconds,omitempty"`
}

type AssignHeroOrder struct {
	TargetCityID string `bson:"targetCityId" json:"targetCityId"`
}

// Movement is one in-flight action. Owned by exactly one origin account; the
// target side is only ever touched by the type-specific processor.
type Movement struct {
	ID      string `bson:"_id" json:"id"`
	WorldID string `bson:"worldId" json:"worldId"`
	Type    Type   `bson:"type" json:"type"`
	Status  Status `bson:"status" json:"status"`

	DepartureTime time.Time `bson:"departureTime" json:"departureTime"`
	ArrivalTime   time.Time `bson:"arrivalTime" json:"arrivalTime"`
	// CancellableUntil is a client-side gate only; the processor never
	// checks it.
	CancellableUntil time.Time `bson:"cancellableUntil,omitempty" json:"cancellableUntil,omitempty"`

	Origin Origin `bson:"origin" json:"origin"`

	// Units is the payload in transit: attackers while moving, survivors
	// while returning.
	Units     map[string]int `bson:"units,omitempty" json:"units,omitempty"`
	Wounded   map[string]int `bson:"wounded,omitempty" json:"wounded,omitempty"`
	Resources map[string]int `bson:"resources,omitempty" json:"resources,omitempty"`
	Hero      string         `bson:"hero,omitempty" json:"hero,omitempty"`
	Agent     string         `bson:"agent,omitempty" json:"agent,omitempty"`

	// HeroLevel and HeroXP snapshot the hero's progress at departure, so
	// the hero survives even if the origin's record vanishes mid-flight.
	HeroLevel int `bson:"heroLevel,omitempty" json:"heroLevel,omitempty"`
	HeroXP    int `bson:"heroXp,omitempty" json:"heroXp,omitempty"`

	Attack     *AttackOrder     `bson:"attack,omitempty" json:"attack,omitempty"`
	Village    *VillageOrder    `bson:"village,omitempty" json:"village,omitempty"`
	Ruin       *RuinOrder       `bson:"ruin,omitempty" json:"ruin,omitempty"`
	GodTown    *GodTownOrder    `bson:"godTown,omitempty" json:"godTown,omitempty"`
	Scout      *ScoutOrder      `bson:"scout,omitempty" json:"scout,omitempty"`
	Reinforce  *ReinforceOrder  `bson:"reinforce,omitempty" json:"reinforce,omitempty"`
	Trade      *TradeOrder      `bson:"trade,omitempty" json:"trade,omitempty"`
	Found      *FoundOrder      `bson:"found,omitempty" json:"found,omitempty"`
	AssignHero *AssignHeroOrder `bson:"assignHero,omitempty" json:"assignHero,omitempty"`
}

// Duration is the outbound travel time, reused verbatim for the return leg.
func (m *Movement) Duration() time.Duration {
	return m.ArrivalTime.Sub(m.DepartureTime)
}

// Validate checks that exactly the order matching Type is populated.
func (m *Movement) Validate() error {
	set := map[Type]bool{
		TypeAttack:        m.Attack != nil,
		TypeAttackVillage: m.Village != nil,
		TypeAttackRuin:    m.Ruin != nil,
		TypeAttackGodTown: m.GodTown != nil,
		TypeScout:         m.Scout != nil,
		TypeReinforce:     m.Reinforce != nil,
		TypeTrade:         m.Trade != nil,
		TypeFoundCity:     m.Found != nil,
		TypeAssignHero:    m.AssignHero != nil,
	}
	want, known := set[m.Type]
	if !known {
		return fmt.Errorf("movement %s: unknown type %q", m.ID, m.Type)
	}
	if !want {
		return fmt.Errorf("movement %s: type %s without matching order", m.ID, m.Type)
	}
	for t, populated := range set {
		if populated && t != m.Type {
			return fmt.Errorf("movement %s: type %s carries extra %s order", m.ID, m.Type, t)
		}
	}
	return nil
}

// ToReturning rewrites the movement in place as the home leg: same duration,
// departing from the original arrival, carrying what the caller loaded into
// Units/Wounded/Resources/Hero.
func (m *Movement) ToReturning(survivors, wounded, resources map[string]int) {
	duration := m.Duration()
	m.Status = StatusReturning
	m.DepartureTime = m.ArrivalTime
	m.ArrivalTime = m.ArrivalTime.Add(duration)
	m.Units = survivors
	m.Wounded = wounded
	m.Resources = resources
}

// HasCargo reports whether a return leg would carry anything worth tracking.
func (m *Movement) HasCargo() bool {
	for _, n := range m.Units {
		if n > 0 {
			return true
		}
	}
	for _, n := range m.Wounded {
		if n > 0 {
			return true
		}
	}
	for _, n := range m.Resources {
		if n > 0 {
			return true
		}
	}
	return m.Hero != "" || m.Agent != ""
}
