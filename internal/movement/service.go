package movement

import (
	"context"
	"errors"
	"math"
	"time"

	"IslandWar/internal/city"
	"IslandWar/internal/player"
	"IslandWar/internal/shared/errx"
	"IslandWar/internal/shared/gameconfig/unit"
	"IslandWar/internal/shared/utils"
	"IslandWar/internal/store"
	"IslandWar/internal/world"
)

// Business error codes owned by the movement context.
const (
	CodeMovementNotFound     errx.Code = "MOVEMENT_NOT_FOUND"
	CodeCityNotFound         errx.Code = "CITY_NOT_FOUND"
	CodeNotYourCity          errx.Code = "NOT_YOUR_CITY"
	CodeTargetNotFound       errx.Code = "TARGET_NOT_FOUND"
	CodeInsufficientUnits    errx.Code = "INSUFFICIENT_UNITS"
	CodeInsufficientGoods    errx.Code = "INSUFFICIENT_RESOURCES"
	CodeHeroUnavailable      errx.Code = "HERO_UNAVAILABLE"
	CodeAgentUnavailable     errx.Code = "AGENT_UNAVAILABLE"
	CodeInvalidMovement      errx.Code = "INVALID_MOVEMENT"
	CodeCancelWindowClosed   errx.Code = "CANCEL_WINDOW_CLOSED"
	CodeMovementNotCancelled errx.Code = "MOVEMENT_NOT_CANCELLABLE"
)

var (
	ErrMovementNotFound  = errx.NewBiz(CodeMovementNotFound, "movement not found")
	ErrCityNotFound      = errx.NewBiz(CodeCityNotFound, "city not found")
	ErrNotYourCity       = errx.NewBiz(CodeNotYourCity, "city belongs to another player")
	ErrTargetNotFound    = errx.NewBiz(CodeTargetNotFound, "target not found")
	ErrInsufficientUnits = errx.NewBiz(CodeInsufficientUnits, "not enough units in the city")
	ErrInsufficientGoods = errx.NewBiz(CodeInsufficientGoods, "not enough resources in the city")
	ErrHeroUnavailable   = errx.NewBiz(CodeHeroUnavailable, "hero is not available")
	ErrAgentUnavailable  = errx.NewBiz(CodeAgentUnavailable, "no such agent in the city")
	ErrInvalidMovement   = errx.NewBiz(CodeInvalidMovement, "invalid movement order")
	ErrCancelClosed      = errx.NewBiz(CodeCancelWindowClosed, "cancellation window has closed")
	ErrNotCancellable    = errx.NewBiz(CodeMovementNotCancelled, "movement can no longer be cancelled")
)

// baseSpeed applies when a movement carries no combat units, e.g. a lone
// hero or agent. Map fields per hour.
const baseSpeed = 20.0

// ServiceConfig carries the per-world creation knobs.
type ServiceConfig struct {
	WorldID      string
	CancelWindow time.Duration
}

// Service creates and cancels movements. Resolution is the dispatcher's
// job; the service only debits the origin and computes the timetable.
type Service struct {
	store store.Store
	cfg   ServiceConfig
}

func NewService(st store.Store, cfg ServiceConfig) *Service {
	if cfg.CancelWindow <= 0 {
		cfg.CancelWindow = 10 * time.Minute
	}
	return &Service{store: st, cfg: cfg}
}

// Command is a movement creation request. Exactly one order must be set,
// matching Type, mirroring the stored document.
type Command struct {
	Type         Type
	OwnerID      string
	OriginCityID string
	Units        map[string]int
	Resources    map[string]int
	Hero         string
	Agent        string

	Attack     *AttackOrder
	Village    *VillageOrder
	Ruin       *RuinOrder
	GodTown    *GodTownOrder
	Scout      *ScoutOrder
	Reinforce  *ReinforceOrder
	Trade      *TradeOrder
	Found      *FoundOrder
	AssignHero *AssignHeroOrder
}

// Create validates the command against the origin city, debits everything
// the movement carries, and writes the movement, all in one transaction.
func (s *Service) Create(ctx context.Context, cmd Command) (*Movement, error) {
	id, err := utils.NextStringID()
	if err != nil {
		return nil, errx.ErrInternal.WithCause(err)
	}

	var created *Movement
	err = s.store.RunTransaction(ctx, func(tx store.Tx) error {
		created = nil
		now := s.store.Now()

		var origin city.City
		if err := tx.Get(city.Collection, cmd.OriginCityID, &origin); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCityNotFound
			}
			return err
		}
		if origin.OwnerID != cmd.OwnerID {
			return ErrNotYourCity
		}

		m := &Movement{
			ID:            id,
			WorldID:       s.cfg.WorldID,
			Type:          cmd.Type,
			Status:        StatusMoving,
			DepartureTime: now,
			Origin: Origin{
				OwnerID:  cmd.OwnerID,
				CityID:   origin.ID,
				CityName: origin.Name,
			},
			Units:      cmd.Units,
			Resources:  cmd.Resources,
			Hero:       cmd.Hero,
			Agent:      cmd.Agent,
			Attack:     cmd.Attack,
			Village:    cmd.Village,
			Ruin:       cmd.Ruin,
			GodTown:    cmd.GodTown,
			Scout:      cmd.Scout,
			Reinforce:  cmd.Reinforce,
			Trade:      cmd.Trade,
			Found:      cmd.Found,
			AssignHero: cmd.AssignHero,
		}
		if err := m.Validate(); err != nil {
			return ErrInvalidMovement.WithCause(err)
		}

		var p player.Profile
		if err := tx.Get(player.Collection, cmd.OwnerID, &p); err == nil {
			m.Origin.Username = p.Username
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		destX, destY, crossIsland, err := s.targetCoords(tx, m, &origin)
		if err != nil {
			return err
		}
		if m.Attack != nil {
			m.Attack.CrossIsland = crossIsland
		}

		if err := s.debit(m, &origin, now); err != nil {
			return err
		}

		travel := TravelTime(origin.X, origin.Y, destX, destY, m.Units)
		m.ArrivalTime = now.Add(travel)
		m.CancellableUntil = now.Add(s.cfg.CancelWindow)
		if m.CancellableUntil.After(m.ArrivalTime) {
			m.CancellableUntil = m.ArrivalTime
		}

		tx.Put(city.Collection, origin.ID, &origin)
		tx.Put(Collection, m.ID, m)
		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Cancel refunds a still-cancellable outbound movement to its origin city
// and deletes it, all in one transaction.
func (s *Service) Cancel(ctx context.Context, ownerID, movementID string) error {
	return s.store.RunTransaction(ctx, func(tx store.Tx) error {
		now := s.store.Now()

		var m Movement
		if err := tx.Get(Collection, movementID, &m); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrMovementNotFound
			}
			return err
		}
		if m.Origin.OwnerID != ownerID {
			return ErrMovementNotFound
		}
		if m.Status != StatusMoving {
			return ErrNotCancellable
		}
		if now.After(m.CancellableUntil) {
			return ErrCancelClosed
		}

		var origin city.City
		if err := tx.Get(city.Collection, m.Origin.CityID, &origin); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Home is gone; nothing to refund into.
				tx.Delete(Collection, m.ID)
				return nil
			}
			return err
		}

		origin.AddUnits(m.Units)
		origin.AddResourcesDirect(m.Resources)
		if m.Scout != nil {
			origin.AddResourcesDirect(map[string]int{city.Silver: m.Scout.Silver})
		}
		if m.Agent != "" {
			if origin.Agents == nil {
				origin.Agents = map[string]int{}
			}
			origin.Agents[m.Agent]++
		}
		if m.Hero != "" {
			origin.SetHeroStatus(m.Hero, "")
		}
		origin.LastUpdated = now

		tx.Put(city.Collection, origin.ID, &origin)
		tx.Delete(Collection, m.ID)
		return nil
	})
}

// ListByOwner returns an account's in-flight movements, soonest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Movement, error) {
	var out []Movement
	q := store.Query{
		Filters: []store.Filter{
			store.Eq("worldId", s.cfg.WorldID),
			store.Eq("origin.ownerId", ownerID),
		},
		OrderBy: "arrivalTime",
	}
	if err := s.store.Query(ctx, Collection, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// targetCoords resolves the destination document and returns its position,
// plus whether an attack crosses islands.
func (s *Service) targetCoords(tx store.Tx, m *Movement, origin *city.City) (int, int, bool, error) {
	getCity := func(id string) (int, int, bool, error) {
		var c city.City
		if err := tx.Get(city.Collection, id, &c); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, 0, false, ErrTargetNotFound
			}
			return 0, 0, false, err
		}
		return c.X, c.Y, c.IslandID != origin.IslandID, nil
	}

	switch m.Type {
	case TypeAttack:
		return getCity(m.Attack.TargetCityID)
	case TypeScout:
		return getCity(m.Scout.TargetCityID)
	case TypeReinforce:
		return getCity(m.Reinforce.TargetCityID)
	case TypeTrade:
		return getCity(m.Trade.TargetCityID)
	case TypeAssignHero:
		return getCity(m.AssignHero.TargetCityID)
	case TypeAttackVillage:
		var v world.Village
		if err := tx.Get(world.VillageCollection, m.Village.TargetVillageID, &v); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, 0, false, ErrTargetNotFound
			}
			return 0, 0, false, err
		}
		return v.X, v.Y, false, nil
	case TypeAttackRuin:
		var r world.Ruin
		if err := tx.Get(world.RuinCollection, m.Ruin.TargetRuinID, &r); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, 0, false, ErrTargetNotFound
			}
			return 0, 0, false, err
		}
		return r.X, r.Y, false, nil
	case TypeAttackGodTown:
		var t world.GodTown
		if err := tx.Get(world.GodTownCollection, m.GodTown.TargetTownID, &t); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, 0, false, ErrTargetNotFound
			}
			return 0, 0, false, err
		}
		return t.X, t.Y, false, nil
	case TypeFoundCity:
		var slot world.CitySlot
		if err := tx.Get(world.SlotCollection, m.Found.TargetSlotID, &slot); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, 0, false, ErrTargetNotFound
			}
			return 0, 0, false, err
		}
		if slot.Claimed() {
			return 0, 0, false, ErrTargetNotFound
		}
		return slot.X, slot.Y, false, nil
	}
	return 0, 0, false, ErrInvalidMovement
}

// debit removes everything the movement carries from the origin city.
func (s *Service) debit(m *Movement, origin *city.City, now time.Time) error {
	if len(m.Units) > 0 {
		if !origin.HasUnits(m.Units) {
			return ErrInsufficientUnits
		}
		origin.SubUnits(m.Units)
	}

	cost := map[string]int{}
	for res, n := range m.Resources {
		cost[res] += n
	}
	if m.Scout != nil {
		if m.Scout.Silver <= 0 {
			return ErrInvalidMovement
		}
		cost[city.Silver] += m.Scout.Silver
	}
	if len(cost) > 0 {
		if !origin.HasResources(cost) {
			return ErrInsufficientGoods
		}
		origin.SubResources(cost)
	}

	if m.Agent != "" {
		if origin.Agents[m.Agent] <= 0 {
			return ErrAgentUnavailable
		}
		origin.Agents[m.Agent]--
	}

	if m.Hero != "" {
		h, held := origin.Heroes[m.Hero]
		if !held || h.Status != "" {
			return ErrHeroUnavailable
		}
		if !h.WoundedUntil.IsZero() && h.WoundedUntil.After(now) {
			return ErrHeroUnavailable
		}
		m.HeroLevel, m.HeroXP = h.Level, h.XP
		origin.SetHeroStatus(m.Hero, "traveling")
	}
	return nil
}

// TravelTime computes the outbound duration: euclidean distance over the
// slowest unit's speed, in map fields per hour.
func TravelTime(x1, y1, x2, y2 int, units map[string]int) time.Duration {
	dx := float64(x2 - x1)
	dy := float64(y2 - y1)
	dist := math.Sqrt(dx*dx + dy*dy)

	speed := baseSpeed
	first := true
	for name, n := range units {
		if n <= 0 {
			continue
		}
		u, ok := unit.Get(name)
		if !ok || u.Speed <= 0 {
			continue
		}
		if first || float64(u.Speed) < speed {
			speed = float64(u.Speed)
			first = false
		}
	}

	seconds := dist / speed * 3600
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds * float64(time.Second))
}
