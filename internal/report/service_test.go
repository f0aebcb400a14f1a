package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"IslandWar/internal/store"
)

func seedReports(t *testing.T, st *store.Memory, ownerID string, n int) []string {
	t.Helper()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]string, 0, n)
	var ops []store.Op
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-r%03d", ownerID, i)
		r := New(id, "w1", ownerID, KindAttack, "raid", base.Add(time.Duration(i)*time.Minute), Body{})
		ops = append(ops, store.Put(Collection, id, r))
		ids = append(ids, id)
	}
	if err := st.BatchWrite(context.Background(), ops); err != nil {
		t.Fatal(err)
	}
	return ids
}

func TestList_NewestFirstWithDefaultLimit(t *testing.T) {
	st := store.NewMemory()
	seedReports(t, st, "p1", 60)
	seedReports(t, st, "p2", 3)

	s := NewService(st, "w1")
	got, err := s.List(context.Background(), "p1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 50 {
		t.Fatalf("default limit should cap at 50, got %d", len(got))
	}
	if got[0].ID != "p1-r059" || got[49].ID != "p1-r010" {
		t.Fatalf("order wrong: first=%s last=%s", got[0].ID, got[49].ID)
	}
	for _, r := range got {
		if r.OwnerID != "p1" {
			t.Fatalf("foreign report leaked: %+v", r)
		}
	}
}

func TestMarkRead_FlipsOnceAndStaysIdempotent(t *testing.T) {
	st := store.NewMemory()
	ids := seedReports(t, st, "p1", 1)

	s := NewService(st, "w1")
	for i := 0; i < 2; i++ {
		if err := s.MarkRead(context.Background(), "p1", ids[0]); err != nil {
			t.Fatal(err)
		}
	}

	var r Report
	if err := st.Get(context.Background(), Collection, ids[0], &r); err != nil {
		t.Fatal(err)
	}
	if !r.Read {
		t.Fatal("report should be read")
	}
}

func TestMarkRead_ForeignReportLooksMissing(t *testing.T) {
	st := store.NewMemory()
	ids := seedReports(t, st, "p1", 1)

	s := NewService(st, "w1")
	if err := s.MarkRead(context.Background(), "p2", ids[0]); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("want ErrReportNotFound, got %v", err)
	}
	if err := s.MarkRead(context.Background(), "p1", "no-such"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("want ErrReportNotFound, got %v", err)
	}
}
