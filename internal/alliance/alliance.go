package alliance

import (
	"context"
	"errors"
	"fmt"

	"IslandWar/internal/shared/cache"
	"IslandWar/internal/store"
)

const Collection = "alliances"

// Research bonus keys.
const (
	BonusProduction = "production"
	BonusWarehouse  = "warehouse"
)

type Alliance struct {
	ID      string `bson:"_id" json:"id"`
	WorldID string `bson:"worldId" json:"worldId"`
	Name    string `bson:"name" json:"name"`
	Tag     string `bson:"tag" json:"tag"`
	// Research maps bonus key to an additive fraction, e.g. 0.05 for +5%.
	Research  map[string]float64 `bson:"research" json:"research"`
	MemberIDs []string           `bson:"memberIds" json:"memberIds"`
}

// Bonuses is the slice of alliance state production and capacity math needs.
type Bonuses struct {
	Production float64
	Warehouse  float64
}

// Service reads alliances through a TTL cache so every city tick and combat
// resolution does not hammer the store for slow-moving reference data.
type Service struct {
	store store.Store
	cache *cache.Cache
}

func NewService(st store.Store, c *cache.Cache) *Service {
	return &Service{store: st, cache: c}
}

// Bonuses returns the research bonuses for an alliance; the zero value for
// an empty id or a vanished alliance.
func (s *Service) Bonuses(ctx context.Context, worldID, allianceID string) (Bonuses, error) {
	if allianceID == "" {
		return Bonuses{}, nil
	}

	key := fmt.Sprintf("%s/alliance/%s", worldID, allianceID)
	v, err := s.cache.GetOrLoad(key, func() (any, error) {
		var a Alliance
		err := s.store.Get(ctx, Collection, allianceID, &a)
		if errors.Is(err, store.ErrNotFound) {
			return Bonuses{}, nil
		}
		if err != nil {
			return nil, err
		}
		return Bonuses{
			Production: a.Research[BonusProduction],
			Warehouse:  a.Research[BonusWarehouse],
		}, nil
	})
	if err != nil {
		return Bonuses{}, err
	}
	b, _ := v.(Bonuses)
	return b, nil
}

// Name returns the alliance display name for report attribution, "" when the
// player has none.
func (s *Service) Name(ctx context.Context, worldID, allianceID string) string {
	if allianceID == "" {
		return ""
	}
	key := fmt.Sprintf("%s/alliance-name/%s", worldID, allianceID)
	v, err := s.cache.GetOrLoad(key, func() (any, error) {
		var a Alliance
		if err := s.store.Get(ctx, Collection, allianceID, &a); err != nil {
			return "", nil
		}
		return a.Name, nil
	})
	if err != nil {
		return ""
	}
	name, _ := v.(string)
	return name
}
