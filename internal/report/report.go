package report

import (
	"time"

	"IslandWar/internal/battle"
)

const Collection = "reports"

// Report kinds.
const (
	KindAttack      = "attack"
	KindDefense     = "defense"
	KindVillage     = "village"
	KindRetaliation = "retaliation"
	KindRuin        = "ruin"
	KindGodTown     = "god_town"
	KindScout       = "scout"
	KindSpyCaught   = "spy_caught"
	KindReinforce   = "reinforce"
	KindTrade       = "trade"
	KindFoundCity   = "found_city"
	KindReturn      = "return"
	KindHero        = "hero"
)

// Side is one party's view of a battle. Reports for different recipients
// carry different amounts of side detail.
type Side struct {
	OwnerID  string         `bson:"ownerId,omitempty" json:"ownerId,omitempty"`
	Username string         `bson:"username,omitempty" json:"username,omitempty"`
	CityID   string         `bson:"cityId,omitempty" json:"cityId,omitempty"`
	CityName string         `bson:"cityName,omitempty" json:"cityName,omitempty"`
	Units    map[string]int `bson:"units,omitempty" json:"units,omitempty"`
	Losses   map[string]int `bson:"losses,omitempty" json:"losses,omitempty"`
	Hero     string         `bson:"hero,omitempty" json:"hero,omitempty"`
}

// Body carries the kind-specific payload; unused fields stay empty.
type Body struct {
	Attacker     *Side              `bson:"attacker,omitempty" json:"attacker,omitempty"`
	Defender     *Side              `bson:"defender,omitempty" json:"defender,omitempty"`
	AttackerWon  bool               `bson:"attackerWon,omitempty" json:"attackerWon,omitempty"`
	Plunder      map[string]int     `bson:"plunder,omitempty" json:"plunder,omitempty"`
	Wounded      map[string]int     `bson:"wounded,omitempty" json:"wounded,omitempty"`
	CapturedHero string             `bson:"capturedHero,omitempty" json:"capturedHero,omitempty"`
	Intel        *battle.ScoutIntel `bson:"intel,omitempty" json:"intel,omitempty"`
	Resources    map[string]int     `bson:"resources,omitempty" json:"resources,omitempty"`
	Units        map[string]int     `bson:"units,omitempty" json:"units,omitempty"`
	Message      string             `bson:"message,omitempty" json:"message,omitempty"`
}

// Report is an immutable per-recipient record of an action's outcome. Only
// the Read flag may change after creation; it is the game's sole failure and
// success channel toward offline players.
type Report struct {
	ID        string    `bson:"_id" json:"id"`
	WorldID   string    `bson:"worldId" json:"worldId"`
	OwnerID   string    `bson:"ownerId" json:"ownerId"`
	Kind      string    `bson:"kind" json:"kind"`
	Title     string    `bson:"title" json:"title"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	Read      bool      `bson:"read" json:"read"`
	Body      Body      `bson:"body" json:"body"`
}

func New(id, worldID, ownerID, kind, title string, at time.Time, body Body) *Report {
	return &Report{
		ID:        id,
		WorldID:   worldID,
		OwnerID:   ownerID,
		Kind:      kind,
		Title:     title,
		CreatedAt: at,
		Body:      body,
	}
}
