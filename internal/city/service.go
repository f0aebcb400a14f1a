package city

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"IslandWar/internal/alliance"
	"IslandWar/internal/player"
	"IslandWar/internal/shared/errx"
	"IslandWar/internal/shared/gameconfig/building"
	"IslandWar/internal/shared/gameconfig/research"
	"IslandWar/internal/shared/gameconfig/unit"
	"IslandWar/internal/shared/logs"
	"IslandWar/internal/shared/utils"
	"IslandWar/internal/store"
)

// Business error codes owned by the city context.
const (
	CodeCityNotFound      errx.Code = "CITY_NOT_FOUND"
	CodeNotYourCity       errx.Code = "NOT_YOUR_CITY"
	CodeUnknownTarget     errx.Code = "CITY_UNKNOWN_TARGET"
	CodeRequirementUnmet  errx.Code = "CITY_REQUIREMENT_UNMET"
	CodeInsufficientFunds errx.Code = "CITY_INSUFFICIENT_FUNDS"
	CodeNothingToHeal     errx.Code = "CITY_NOTHING_TO_HEAL"
)

var (
	ErrCityNotFound      = errx.NewBiz(CodeCityNotFound, "city not found")
	ErrNotYourCity       = errx.NewBiz(CodeNotYourCity, "city belongs to another player")
	ErrUnknownTarget     = errx.NewBiz(CodeUnknownTarget, "unknown building, unit or research")
	ErrRequirementUnmet  = errx.NewBiz(CodeRequirementUnmet, "building requirement not met")
	ErrInsufficientFunds = errx.NewBiz(CodeInsufficientFunds, "not enough resources")
	ErrNothingToHeal     = errx.NewBiz(CodeNothingToHeal, "no such wounded units")
)

// Healing costs half the training price and takes half the time.
const (
	healCostDivisor = 2
	healTimeDivisor = 2
)

// Notifier pushes queue-completion events to connected clients.
type Notifier interface {
	Push(accountID, event string, payload any)
}

// Service runs the periodic city simulation tick and the queue commands.
type Service struct {
	store     store.Store
	alliances *alliance.Service
	notifier  Notifier
	worldID   string
}

func NewService(st store.Store, alliances *alliance.Service, notifier Notifier, worldID string) *Service {
	return &Service{store: st, alliances: alliances, notifier: notifier, worldID: worldID}
}

// RunTicker catches up every city at a fixed interval until the context is
// cancelled. This is also the autosave: each catch-up persists the city.
func (s *Service) RunTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logs.Info("city ticker started",
		zap.String("worldId", s.worldID), zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logs.Info("city ticker stopped", zap.String("worldId", s.worldID))
			return
		case <-ticker.C:
			if err := s.TickAll(ctx); err != nil {
				logs.Error("city tick failed", zap.Error(err))
			}
		}
	}
}

// TickAll catches up every city in the world, one transaction per city so a
// broken document cannot stall the rest.
func (s *Service) TickAll(ctx context.Context) error {
	var cities []City
	q := store.Query{Filters: []store.Filter{store.Eq("worldId", s.worldID)}}
	if err := s.store.Query(ctx, Collection, q, &cities); err != nil {
		return err
	}
	for i := range cities {
		if err := s.TickOne(ctx, cities[i].ID); err != nil {
			logs.Error("city tick failed",
				zap.String("cityId", cities[i].ID), zap.Error(err))
		}
	}
	return nil
}

// TickOne catches a single city up to now and pushes one event per
// completed queue entry.
func (s *Service) TickOne(ctx context.Context, cityID string) error {
	var done []Completion
	var ownerID string
	err := s.store.RunTransaction(ctx, func(tx store.Tx) error {
		done = nil
		var c City
		if err := tx.Get(Collection, cityID, &c); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		now := s.store.Now()
		mods, err := s.modifiers(ctx, tx, c.OwnerID)
		if err != nil {
			return err
		}
		done = c.CatchUp(now, mods)
		ownerID = c.OwnerID
		tx.Put(Collection, c.ID, &c)
		return nil
	})
	if err != nil {
		return err
	}
	if s.notifier != nil {
		for _, comp := range done {
			s.notifier.Push(ownerID, "queue.done", comp)
		}
	}
	return nil
}

// EnqueueBuild appends a building upgrade to the build queue, debiting the
// target-level cost up front.
func (s *Service) EnqueueBuild(ctx context.Context, ownerID, cityID, name string) error {
	b, ok := building.Get(name)
	if !ok {
		return ErrUnknownTarget.WithData("building", name)
	}
	return s.mutate(ctx, ownerID, cityID, func(c *City, now time.Time) error {
		target := c.BuildingLevel(name) + 1
		for _, e := range c.BuildQueue {
			if e.Target == name {
				target++
			}
		}
		if b.MaxLevel > 0 && target > b.MaxLevel {
			return ErrRequirementUnmet.WithData("building", name).WithData("maxLevel", b.MaxLevel)
		}

		cost := map[string]int{
			Wood:   b.Cost.Wood * target,
			Stone:  b.Cost.Stone * target,
			Silver: b.Cost.Silver * target,
		}
		if !c.HasResources(cost) {
			return ErrInsufficientFunds.WithData("building", name)
		}
		c.SubResources(cost)

		id, err := utils.NextStringID()
		if err != nil {
			return err
		}
		dur := time.Duration(building.BuildTime(name, target)) * time.Second
		c.BuildQueue = append(c.BuildQueue, QueueEntry{
			ID:      id,
			Target:  name,
			Level:   target,
			EndTime: queueStart(c.BuildQueue, now).Add(dur),
		})
		return nil
	})
}

// EnqueueTrain appends a training order to the queue matching the unit's
// category: barracks for land, shipyard for naval, divine temple for
// mythical.
func (s *Service) EnqueueTrain(ctx context.Context, ownerID, cityID, name string, count int) error {
	u, ok := unit.Get(name)
	if !ok || count <= 0 {
		return ErrUnknownTarget.WithData("unit", name)
	}
	return s.mutate(ctx, ownerID, cityID, func(c *City, now time.Time) error {
		var queue *[]QueueEntry
		var host string
		switch u.Category {
		case unit.CategoryNaval:
			queue, host = &c.ShipyardQueue, building.Shipyard
		case unit.CategoryMythical:
			queue, host = &c.DivineTempleQueue, building.DivineTemple
		default:
			queue, host = &c.BarracksQueue, building.Barracks
		}
		if c.BuildingLevel(host) <= 0 {
			return ErrRequirementUnmet.WithData("building", host)
		}

		cost := map[string]int{
			Wood:   u.Cost.Wood * count,
			Stone:  u.Cost.Stone * count,
			Silver: u.Cost.Silver * count,
		}
		if !c.HasResources(cost) {
			return ErrInsufficientFunds.WithData("unit", name)
		}
		favor := u.Cost.Favor * count
		if favor > 0 && c.Favor < favor {
			return ErrInsufficientFunds.WithData("unit", name).WithData("favor", favor)
		}
		c.SubResources(cost)
		c.Favor -= favor

		id, err := utils.NextStringID()
		if err != nil {
			return err
		}
		dur := time.Duration(u.TrainTime*count) * time.Second
		*queue = append(*queue, QueueEntry{
			ID:      id,
			Target:  name,
			Count:   count,
			EndTime: queueStart(*queue, now).Add(dur),
		})
		return nil
	})
}

// EnqueueResearch appends a research order, checking the academy-level
// requirement from the research table.
func (s *Service) EnqueueResearch(ctx context.Context, ownerID, cityID, name string) error {
	r, ok := research.Get(name)
	if !ok {
		return ErrUnknownTarget.WithData("research", name)
	}
	return s.mutate(ctx, ownerID, cityID, func(c *City, now time.Time) error {
		if st, done := c.Research[name]; done && st.Completed {
			return ErrRequirementUnmet.WithData("research", name).WithData("reason", "already completed")
		}
		if r.Requires.Building != "" && c.BuildingLevel(r.Requires.Building) < r.Requires.Level {
			return ErrRequirementUnmet.WithData("building", r.Requires.Building).WithData("level", r.Requires.Level)
		}

		cost := map[string]int{Wood: r.Cost.Wood, Stone: r.Cost.Stone, Silver: r.Cost.Silver}
		if !c.HasResources(cost) {
			return ErrInsufficientFunds.WithData("research", name)
		}
		c.SubResources(cost)

		id, err := utils.NextStringID()
		if err != nil {
			return err
		}
		dur := time.Duration(r.TimeSeconds) * time.Second
		c.ResearchQueue = append(c.ResearchQueue, QueueEntry{
			ID:      id,
			Target:  name,
			EndTime: queueStart(c.ResearchQueue, now).Add(dur),
		})
		return nil
	})
}

// EnqueueHeal moves wounded units into the heal queue at half price and
// half training time.
func (s *Service) EnqueueHeal(ctx context.Context, ownerID, cityID, name string, count int) error {
	u, ok := unit.Get(name)
	if !ok || count <= 0 {
		return ErrUnknownTarget.WithData("unit", name)
	}
	return s.mutate(ctx, ownerID, cityID, func(c *City, now time.Time) error {
		if c.Wounded[name] < count {
			return ErrNothingToHeal.WithData("unit", name)
		}

		cost := map[string]int{
			Wood:   u.Cost.Wood * count / healCostDivisor,
			Stone:  u.Cost.Stone * count / healCostDivisor,
			Silver: u.Cost.Silver * count / healCostDivisor,
		}
		if !c.HasResources(cost) {
			return ErrInsufficientFunds.WithData("unit", name)
		}
		c.SubResources(cost)

		c.Wounded[name] -= count
		if c.Wounded[name] == 0 {
			delete(c.Wounded, name)
		}

		id, err := utils.NextStringID()
		if err != nil {
			return err
		}
		dur := time.Duration(u.TrainTime*count/healTimeDivisor) * time.Second
		c.HealQueue = append(c.HealQueue, QueueEntry{
			ID:      id,
			Target:  name,
			Count:   count,
			EndTime: queueStart(c.HealQueue, now).Add(dur),
		})
		return nil
	})
}

// AssignWorkers sets the worker count on a production building.
func (s *Service) AssignWorkers(ctx context.Context, ownerID, cityID, name string, workers int) error {
	if _, ok := building.Get(name); !ok || workers < 0 {
		return ErrUnknownTarget.WithData("building", name)
	}
	return s.mutate(ctx, ownerID, cityID, func(c *City, now time.Time) error {
		b, ok := c.Buildings[name]
		if !ok {
			return ErrRequirementUnmet.WithData("building", name)
		}
		b.Workers = workers
		c.Buildings[name] = b
		return nil
	})
}

// SetDefense sets the standing phalanx/support assignments.
func (s *Service) SetDefense(ctx context.Context, ownerID, cityID, phalanx, support string) error {
	for _, name := range []string{phalanx, support} {
		if name == "" {
			continue
		}
		if _, ok := unit.Get(name); !ok {
			return ErrUnknownTarget.WithData("unit", name)
		}
	}
	return s.mutate(ctx, ownerID, cityID, func(c *City, now time.Time) error {
		c.DefensePhalanx = phalanx
		c.DefenseSupport = support
		return nil
	})
}

// Get returns an owner's city, caught up to now but not persisted; reads
// never race the ticker.
func (s *Service) Get(ctx context.Context, ownerID, cityID string) (*City, error) {
	var c City
	if err := s.store.Get(ctx, Collection, cityID, &c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCityNotFound
		}
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, ErrNotYourCity
	}
	mods, err := s.readModifiers(ctx, c.OwnerID)
	if err != nil {
		return nil, err
	}
	c.CatchUp(s.store.Now(), mods)
	return &c, nil
}

// ListByOwner returns all of an account's cities, raw.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]City, error) {
	var out []City
	q := store.Query{
		Filters: []store.Filter{
			store.Eq("worldId", s.worldID),
			store.Eq("ownerId", ownerID),
		},
		OrderBy: "_id",
	}
	if err := s.store.Query(ctx, Collection, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// mutate runs a read-catchup-modify-write cycle on an owned city.
func (s *Service) mutate(ctx context.Context, ownerID, cityID string, fn func(c *City, now time.Time) error) error {
	return s.store.RunTransaction(ctx, func(tx store.Tx) error {
		var c City
		if err := tx.Get(Collection, cityID, &c); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCityNotFound
			}
			return err
		}
		if c.OwnerID != ownerID {
			return ErrNotYourCity
		}
		now := s.store.Now()
		mods, err := s.modifiers(ctx, tx, c.OwnerID)
		if err != nil {
			return err
		}
		c.CatchUp(now, mods)
		if err := fn(&c, now); err != nil {
			return err
		}
		tx.Put(Collection, c.ID, &c)
		return nil
	})
}

func (s *Service) modifiers(ctx context.Context, tx store.Tx, ownerID string) (Modifiers, error) {
	var p player.Profile
	err := tx.Get(player.Collection, ownerID, &p)
	if errors.Is(err, store.ErrNotFound) {
		return Modifiers{}, nil
	}
	if err != nil {
		return Modifiers{}, err
	}
	return s.bonusesFor(ctx, p.AllianceID)
}

func (s *Service) readModifiers(ctx context.Context, ownerID string) (Modifiers, error) {
	var p player.Profile
	err := s.store.Get(ctx, player.Collection, ownerID, &p)
	if errors.Is(err, store.ErrNotFound) {
		return Modifiers{}, nil
	}
	if err != nil {
		return Modifiers{}, err
	}
	return s.bonusesFor(ctx, p.AllianceID)
}

func (s *Service) bonusesFor(ctx context.Context, allianceID string) (Modifiers, error) {
	if allianceID == "" {
		return Modifiers{}, nil
	}
	b, err := s.alliances.Bonuses(ctx, s.worldID, allianceID)
	if err != nil {
		return Modifiers{}, err
	}
	return Modifiers{AllianceProduction: b.Production, AllianceWarehouse: b.Warehouse}, nil
}

// queueStart is where a new entry's timer begins: behind the last queued
// entry, or now for an empty queue.
func queueStart(q []QueueEntry, now time.Time) time.Time {
	if len(q) == 0 {
		return now
	}
	last := q[len(q)-1].EndTime
	if last.Before(now) {
		return now
	}
	return last
}
