package player

import (
	"context"
	"errors"
	"fmt"

	"IslandWar/internal/shared/cache"
	"IslandWar/internal/shared/errx"
	"IslandWar/internal/store"
)

const CodeNoPlayerFound errx.Code = "PLAYER_NOT_FOUND"

var ErrPlayerNotFound = errx.NewBiz(CodeNoPlayerFound, "player not found")

// Service exposes the per-world player read model: profiles and the
// ranked leaderboard. Enrollment lives in the world context, which owns
// the slot claim.
type Service struct {
	store   store.Store
	cache   *cache.Cache
	worldID string
}

func NewService(st store.Store, c *cache.Cache, worldID string) *Service {
	return &Service{store: st, cache: c, worldID: worldID}
}

func (s *Service) Get(ctx context.Context, accountID string) (*Profile, error) {
	var p Profile
	err := s.store.Get(ctx, Collection, accountID, &p)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Rank is one leaderboard row.
type Rank struct {
	Rank         int    `json:"rank"`
	AccountID    string `json:"accountId"`
	Username     string `json:"username"`
	AllianceID   string `json:"allianceId,omitempty"`
	BattlePoints int    `json:"battlePoints"`
	WarPoints    int    `json:"warPoints"`
}

// Leaderboard returns the top n players by battle points, cached.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]Rank, error) {
	if n <= 0 {
		n = 20
	}
	key := fmt.Sprintf("%s/leaderboard/%d", s.worldID, n)
	v, err := s.cache.GetOrLoad(key, func() (any, error) {
		var profiles []Profile
		q := store.Query{
			Filters: []store.Filter{store.Eq("worldId", s.worldID)},
			OrderBy: "battlePoints",
			Desc:    true,
			Limit:   n,
		}
		if err := s.store.Query(ctx, Collection, q, &profiles); err != nil {
			return nil, err
		}
		ranks := make([]Rank, 0, len(profiles))
		for i, p := range profiles {
			ranks = append(ranks, Rank{
				Rank:         i + 1,
				AccountID:    p.ID,
				Username:     p.Username,
				AllianceID:   p.AllianceID,
				BattlePoints: p.BattlePoints,
				WarPoints:    p.WarPoints,
			})
		}
		return ranks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Rank), nil
}
