package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testDoc struct {
	ID      string    `bson:"_id"`
	WorldID string    `bson:"worldId"`
	Owner   testOwner `bson:"origin"`
	Arrival time.Time `bson:"arrivalTime"`
	Count   int       `bson:"count"`
}

type testOwner struct {
	OwnerID string `bson:"ownerId"`
}

func TestMemory_GetReturnsIndependentCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.BatchWrite(ctx, []Op{Put("docs", "a", testDoc{ID: "a", Count: 1})}); err != nil {
		t.Fatal(err)
	}

	var first, second testDoc
	if err := m.Get(ctx, "docs", "a", &first); err != nil {
		t.Fatal(err)
	}
	first.Count = 99
	if err := m.Get(ctx, "docs", "a", &second); err != nil {
		t.Fatal(err)
	}
	if second.Count != 1 {
		t.Fatalf("stored document mutated through a read copy: count=%d", second.Count)
	}
}

func TestMemory_GetMissingDocument(t *testing.T) {
	m := NewMemory()
	var out testDoc
	if err := m.Get(context.Background(), "docs", "nope", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemory_TransactionBuffersWritesUntilCommit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.RunTransaction(ctx, func(tx Tx) error {
		tx.Put("docs", "a", testDoc{ID: "a", Count: 1})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want callback error back, got %v", err)
	}
	var out testDoc
	if err := m.Get(ctx, "docs", "a", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("aborted transaction leaked a write: %v", err)
	}

	if err := m.RunTransaction(ctx, func(tx Tx) error {
		tx.Put("docs", "a", testDoc{ID: "a", Count: 2})
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.Get(ctx, "docs", "a", &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 {
		t.Fatalf("want count 2, got %d", out.Count)
	}
}

func TestMemory_TransactionReadsSeeOwnWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.BatchWrite(ctx, []Op{Put("docs", "a", testDoc{ID: "a", Count: 1})}); err != nil {
		t.Fatal(err)
	}

	err := m.RunTransaction(ctx, func(tx Tx) error {
		tx.Put("docs", "a", testDoc{ID: "a", Count: 5})
		var out testDoc
		if err := tx.Get("docs", "a", &out); err != nil {
			return err
		}
		if out.Count != 5 {
			t.Fatalf("tx read missed its own put: count=%d", out.Count)
		}

		tx.Delete("docs", "a")
		if err := tx.Get("docs", "a", &out); !errors.Is(err, ErrNotFound) {
			t.Fatalf("tx read missed its own delete: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	var out testDoc
	if err := m.Get(ctx, "docs", "a", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("committed delete not applied: %v", err)
	}
}

func TestMemory_QueryFiltersSortAndLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ops := []Op{
		Put("docs", "m1", testDoc{ID: "m1", WorldID: "w1", Owner: testOwner{OwnerID: "p1"}, Arrival: base.Add(3 * time.Minute)}),
		Put("docs", "m2", testDoc{ID: "m2", WorldID: "w1", Owner: testOwner{OwnerID: "p1"}, Arrival: base.Add(1 * time.Minute)}),
		Put("docs", "m3", testDoc{ID: "m3", WorldID: "w1", Owner: testOwner{OwnerID: "p2"}, Arrival: base.Add(2 * time.Minute)}),
		Put("docs", "m4", testDoc{ID: "m4", WorldID: "w2", Owner: testOwner{OwnerID: "p1"}, Arrival: base}),
	}
	if err := m.BatchWrite(ctx, ops); err != nil {
		t.Fatal(err)
	}

	var due []testDoc
	err := m.Query(ctx, "docs", Query{
		Filters: []Filter{Eq("worldId", "w1"), Lte("arrivalTime", base.Add(2*time.Minute))},
		OrderBy: "arrivalTime",
	}, &due)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 || due[0].ID != "m2" || due[1].ID != "m3" {
		t.Fatalf("due scan wrong: %+v", due)
	}

	var mine []testDoc
	err = m.Query(ctx, "docs", Query{
		Filters: []Filter{Eq("worldId", "w1"), Eq("origin.ownerId", "p1")},
		OrderBy: "arrivalTime",
	}, &mine)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].ID != "m2" || mine[1].ID != "m1" {
		t.Fatalf("nested-path filter wrong: %+v", mine)
	}

	var top []testDoc
	err = m.Query(ctx, "docs", Query{
		Filters: []Filter{Eq("worldId", "w1")},
		OrderBy: "arrivalTime",
		Desc:    true,
		Limit:   1,
	}, &top)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].ID != "m1" {
		t.Fatalf("desc+limit wrong: %+v", top)
	}
}

func TestMemory_QueryMatchesEmptyStringEquality(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	type slot struct {
		ID     string `bson:"_id"`
		CityID string `bson:"cityId"`
	}
	ops := []Op{
		Put("slots", "s1", slot{ID: "s1", CityID: ""}),
		Put("slots", "s2", slot{ID: "s2", CityID: "c1"}),
	}
	if err := m.BatchWrite(ctx, ops); err != nil {
		t.Fatal(err)
	}

	var free []slot
	if err := m.Query(ctx, "slots", Query{Filters: []Filter{Eq("cityId", "")}}, &free); err != nil {
		t.Fatal(err)
	}
	if len(free) != 1 || free[0].ID != "s1" {
		t.Fatalf("free-slot query wrong: %+v", free)
	}
}

func TestMemory_SetClock(t *testing.T) {
	m := NewMemory()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.SetClock(func() time.Time { return fixed })
	if !m.Now().Equal(fixed) {
		t.Fatalf("want %v, got %v", fixed, m.Now())
	}
}
