package movement

import (
	"context"
	"errors"
	"testing"
	"time"

	"IslandWar/internal/city"
	"IslandWar/internal/store"
	"IslandWar/internal/world"
)

type svcEnv struct {
	t   *testing.T
	st  *store.Memory
	svc *Service
	now time.Time
}

func newSvcEnv(t *testing.T) *svcEnv {
	e := &svcEnv{
		t:   t,
		st:  store.NewMemory(),
		now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	e.st.SetClock(func() time.Time { return e.now })
	e.svc = NewService(e.st, ServiceConfig{WorldID: "w1"})
	return e
}

func (e *svcEnv) put(collection, id string, doc any) {
	e.t.Helper()
	if err := e.st.BatchWrite(context.Background(), []store.Op{store.Put(collection, id, doc)}); err != nil {
		e.t.Fatal(err)
	}
}

func (e *svcEnv) city(id, owner string, x, y int, isle string, mut func(*city.City)) {
	e.t.Helper()
	c := city.New(id, "w1", owner, id, x, y, isle, e.now)
	if mut != nil {
		mut(c)
	}
	e.put(city.Collection, id, c)
}

func (e *svcEnv) getCity(id string) *city.City {
	e.t.Helper()
	var c city.City
	if err := e.st.Get(context.Background(), city.Collection, id, &c); err != nil {
		e.t.Fatal(err)
	}
	return &c
}

func TestCreate_DebitsOriginAndSchedules(t *testing.T) {
	e := newSvcEnv(t)
	e.city("c1", "p1", 0, 0, "isle-1", func(c *city.City) {
		c.Units = map[string]int{"hoplite": 50, "chariot": 5}
	})
	e.city("c2", "p2", 30, 40, "isle-1", nil)

	m, err := e.svc.Create(context.Background(), Command{
		Type:         TypeAttack,
		OwnerID:      "p1",
		OriginCityID: "c1",
		Units:        map[string]int{"hoplite": 30},
		Attack:       &AttackOrder{TargetCityID: "c2"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Distance 50 at hoplite speed 9/h.
	wantTravel := time.Duration(50.0 / 9.0 * 3600.0 * float64(time.Second))
	if got := m.ArrivalTime.Sub(m.DepartureTime); got != wantTravel {
		t.Fatalf("travel = %v, want %v", got, wantTravel)
	}
	if !m.CancellableUntil.Equal(e.now.Add(10 * time.Minute)) {
		t.Fatalf("cancel window = %v", m.CancellableUntil)
	}
	if m.Status != StatusMoving {
		t.Fatalf("status = %s", m.Status)
	}

	origin := e.getCity("c1")
	if origin.Units["hoplite"] != 20 || origin.Units["chariot"] != 5 {
		t.Fatalf("debit wrong: %v", origin.Units)
	}
}

func TestCreate_CrossIslandFlagDerivedFromTarget(t *testing.T) {
	e := newSvcEnv(t)
	e.city("c1", "p1", 0, 0, "isle-1", func(c *city.City) {
		c.Units = map[string]int{"hoplite": 50, "bireme": 10}
	})
	e.city("c2", "p2", 10, 0, "isle-2", nil)

	m, err := e.svc.Create(context.Background(), Command{
		Type:         TypeAttack,
		OwnerID:      "p1",
		OriginCityID: "c1",
		Units:        map[string]int{"hoplite": 30, "bireme": 5},
		Attack:       &AttackOrder{TargetCityID: "c2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Attack.CrossIsland {
		t.Fatal("different island should flag a naval assault")
	}
}

func TestCreate_RejectsWhatTheCityLacks(t *testing.T) {
	e := newSvcEnv(t)
	e.city("c1", "p1", 0, 0, "isle-1", func(c *city.City) {
		c.Units = map[string]int{"hoplite": 10}
		c.Resources = map[string]int{city.Silver: 50}
	})
	e.city("c2", "p2", 5, 5, "isle-1", nil)

	_, err := e.svc.Create(context.Background(), Command{
		Type: TypeAttack, OwnerID: "p1", OriginCityID: "c1",
		Units:  map[string]int{"hoplite": 11},
		Attack: &AttackOrder{TargetCityID: "c2"},
	})
	if !errors.Is(err, ErrInsufficientUnits) {
		t.Fatalf("want ErrInsufficientUnits, got %v", err)
	}

	_, err = e.svc.Create(context.Background(), Command{
		Type: TypeScout, OwnerID: "p1", OriginCityID: "c1",
		Agent: "agent",
		Scout: &ScoutOrder{TargetCityID: "c2", Silver: 200},
	})
	if !errors.Is(err, ErrInsufficientGoods) {
		t.Fatalf("want ErrInsufficientGoods, got %v", err)
	}

	_, err = e.svc.Create(context.Background(), Command{
		Type: TypeAttack, OwnerID: "p1", OriginCityID: "c1",
		Units:  map[string]int{"hoplite": 5},
		Hero:   "leonidas",
		Attack: &AttackOrder{TargetCityID: "c2"},
	})
	if !errors.Is(err, ErrHeroUnavailable) {
		t.Fatalf("want ErrHeroUnavailable, got %v", err)
	}

	// Failed creations must not leak partial debits.
	if e.getCity("c1").Units["hoplite"] != 10 {
		t.Fatalf("failed create debited the city: %v", e.getCity("c1").Units)
	}
}

func TestCreate_OwnershipAndOrderShapeChecked(t *testing.T) {
	e := newSvcEnv(t)
	e.city("c1", "p1", 0, 0, "isle-1", nil)
	e.city("c2", "p2", 5, 5, "isle-1", nil)

	_, err := e.svc.Create(context.Background(), Command{
		Type: TypeAttack, OwnerID: "p2", OriginCityID: "c1",
		Attack: &AttackOrder{TargetCityID: "c2"},
	})
	if !errors.Is(err, ErrNotYourCity) {
		t.Fatalf("want ErrNotYourCity, got %v", err)
	}

	// Type and order must match.
	_, err = e.svc.Create(context.Background(), Command{
		Type: TypeAttack, OwnerID: "p1", OriginCityID: "c1",
		Trade: &TradeOrder{TargetCityID: "c2"},
	})
	if !errors.Is(err, ErrInvalidMovement) {
		t.Fatalf("want ErrInvalidMovement, got %v", err)
	}

	// A scout without silver cannot roll.
	_, err = e.svc.Create(context.Background(), Command{
		Type: TypeScout, OwnerID: "p1", OriginCityID: "c1",
		Scout: &ScoutOrder{TargetCityID: "c2"},
	})
	if !errors.Is(err, ErrInvalidMovement) {
		t.Fatalf("want ErrInvalidMovement for zero silver, got %v", err)
	}
}

func TestCreate_FoundDeniedOnClaimedSlot(t *testing.T) {
	e := newSvcEnv(t)
	e.city("c1", "p1", 0, 0, "isle-1", func(c *city.City) {
		c.Units = map[string]int{"militia": 20}
	})
	e.put(world.SlotCollection, "s1", &world.CitySlot{
		ID: "s1", WorldID: "w1", X: 9, Y: 9, IslandID: "isle-2",
		CityID: "c-rival", OwnerID: "p9",
	})

	_, err := e.svc.Create(context.Background(), Command{
		Type: TypeFoundCity, OwnerID: "p1", OriginCityID: "c1",
		Units: map[string]int{"militia": 20},
		Found: &FoundOrder{TargetSlotID: "s1"},
	})
	if !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("want ErrTargetNotFound on a claimed slot, got %v", err)
	}
}

func TestCancel_RefundsEverythingInOneShot(t *testing.T) {
	e := newSvcEnv(t)
	e.city("c1", "p1", 0, 0, "isle-1", func(c *city.City) {
		c.Units = map[string]int{"hoplite": 50}
		c.Resources = map[string]int{city.Wood: 800, city.Stone: 500, city.Silver: 900}
		c.Agents = map[string]int{"agent": 1}
		c.Heroes = map[string]city.HeroState{"leonidas": {CityID: "c1", Level: 2, XP: 40}}
	})
	e.city("c2", "p2", 100, 0, "isle-1", nil)

	m, err := e.svc.Create(context.Background(), Command{
		Type: TypeAttack, OwnerID: "p1", OriginCityID: "c1",
		Units:  map[string]int{"hoplite": 30},
		Hero:   "leonidas",
		Attack: &AttackOrder{TargetCityID: "c2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.getCity("c1").Heroes["leonidas"].Status != "traveling" {
		t.Fatal("departing hero should be flagged traveling")
	}
	if m.HeroLevel != 2 || m.HeroXP != 40 {
		t.Fatalf("departure should snapshot the hero, got level %d xp %d", m.HeroLevel, m.HeroXP)
	}

	e.now = e.now.Add(5 * time.Minute)
	if err := e.svc.Cancel(context.Background(), "p1", m.ID); err != nil {
		t.Fatal(err)
	}

	origin := e.getCity("c1")
	if origin.Units["hoplite"] != 50 {
		t.Fatalf("units not refunded: %v", origin.Units)
	}
	if origin.Heroes["leonidas"].Status != "" {
		t.Fatal("cancelled hero should be available again")
	}
	var gone Movement
	if err := e.st.Get(context.Background(), Collection, m.ID, &gone); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cancelled movement should be deleted, got %v", err)
	}
}

func TestCancel_WindowAndOwnership(t *testing.T) {
	e := newSvcEnv(t)
	e.city("c1", "p1", 0, 0, "isle-1", func(c *city.City) {
		c.Units = map[string]int{"hoplite": 50}
	})
	e.city("c2", "p2", 100, 0, "isle-1", nil)

	m, err := e.svc.Create(context.Background(), Command{
		Type: TypeAttack, OwnerID: "p1", OriginCityID: "c1",
		Units:  map[string]int{"hoplite": 30},
		Attack: &AttackOrder{TargetCityID: "c2"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.svc.Cancel(context.Background(), "p2", m.ID); !errors.Is(err, ErrMovementNotFound) {
		t.Fatalf("foreign cancel should look like a missing movement, got %v", err)
	}

	e.now = e.now.Add(11 * time.Minute)
	if err := e.svc.Cancel(context.Background(), "p1", m.ID); !errors.Is(err, ErrCancelClosed) {
		t.Fatalf("want ErrCancelClosed, got %v", err)
	}
}

func TestCancel_ReturningLegIsFinal(t *testing.T) {
	e := newSvcEnv(t)
	e.put(Collection, "m1", &Movement{
		ID: "m1", WorldID: "w1", Type: TypeAttack, Status: StatusReturning,
		DepartureTime: e.now, ArrivalTime: e.now.Add(time.Hour),
		Origin: Origin{OwnerID: "p1", CityID: "c1"},
		Attack: &AttackOrder{TargetCityID: "c2"},
	})

	if err := e.svc.Cancel(context.Background(), "p1", "m1"); !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("want ErrNotCancellable, got %v", err)
	}
}

func TestListByOwner_SoonestFirst(t *testing.T) {
	e := newSvcEnv(t)
	e.put(Collection, "m-late", &Movement{
		ID: "m-late", WorldID: "w1", Type: TypeAttack, Status: StatusMoving,
		ArrivalTime: e.now.Add(2 * time.Hour),
		Origin:      Origin{OwnerID: "p1", CityID: "c1"},
	})
	e.put(Collection, "m-soon", &Movement{
		ID: "m-soon", WorldID: "w1", Type: TypeTrade, Status: StatusMoving,
		ArrivalTime: e.now.Add(time.Minute),
		Origin:      Origin{OwnerID: "p1", CityID: "c1"},
	})
	e.put(Collection, "m-other", &Movement{
		ID: "m-other", WorldID: "w1", Type: TypeTrade, Status: StatusMoving,
		ArrivalTime: e.now,
		Origin:      Origin{OwnerID: "p2", CityID: "c9"},
	})

	got, err := e.svc.ListByOwner(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "m-soon" || got[1].ID != "m-late" {
		t.Fatalf("list wrong: %+v", got)
	}
}

func TestTravelTime_SlowestUnitSetsThePace(t *testing.T) {
	// 50 fields with a catapult (speed 4) in tow.
	slow := TravelTime(0, 0, 30, 40, map[string]int{"rider": 10, "catapult": 1})
	fast := TravelTime(0, 0, 30, 40, map[string]int{"rider": 10})
	if slow <= fast {
		t.Fatalf("catapult should slow the column: %v vs %v", slow, fast)
	}

	// No units: the hero rides at the base pace, never below one second.
	if got := TravelTime(0, 0, 0, 0, nil); got != time.Second {
		t.Fatalf("zero distance floors at 1s, got %v", got)
	}
}
