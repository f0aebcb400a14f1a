package player

import "time"

const Collection = "players"

// Profile is the per-world game profile of an account: the mutable score
// and membership state the processors touch. Identity (login, password)
// lives in the relational account tables, not here.
type Profile struct {
	ID           string    `bson:"_id" json:"id"` // account id
	WorldID      string    `bson:"worldId" json:"worldId"`
	Username     string    `bson:"username" json:"username"`
	AllianceID   string    `bson:"allianceId,omitempty" json:"allianceId,omitempty"`
	BattlePoints int       `bson:"battlePoints" json:"battlePoints"`
	WarPoints    int       `bson:"warPoints" json:"warPoints"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
