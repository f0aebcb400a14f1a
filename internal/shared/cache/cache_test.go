package cache

import (
	"errors"
	"testing"
	"time"
)

func TestGet_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c := New(30 * time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", 42)
	if v, ok := c.Get("k"); !ok || v != 42 {
		t.Fatalf("fresh entry missing: %v %v", v, ok)
	}

	now = now.Add(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry should miss")
	}
}

func TestGetOrLoad_LoadsOnceUntilExpiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c := New(time.Minute)
	c.now = func() time.Time { return now }

	loads := 0
	load := func() (any, error) {
		loads++
		return "bonuses", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("w1/alliance/42", load)
		if err != nil || v != "bonuses" {
			t.Fatalf("got %v %v", v, err)
		}
	}
	if loads != 1 {
		t.Fatalf("loads = %d", loads)
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.GetOrLoad("w1/alliance/42", load); err != nil {
		t.Fatal(err)
	}
	if loads != 2 {
		t.Fatalf("expiry should reload, loads = %d", loads)
	}
}

func TestGetOrLoad_ErrorIsNotCached(t *testing.T) {
	c := New(time.Minute)
	boom := errors.New("mongo down")

	if _, err := c.GetOrLoad("k", func() (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	v, err := c.GetOrLoad("k", func() (any, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("failed load must not poison the key: %v %v", v, err)
	}
}

func TestSweep_DropsOnlyExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c := New(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("old", 1)
	now = now.Add(30 * time.Second)
	c.Set("fresh", 2)
	now = now.Add(45 * time.Second)

	c.Sweep()
	if _, ok := c.entries["old"]; ok {
		t.Fatal("old entry should be swept")
	}
	if v, ok := c.Get("fresh"); !ok || v != 2 {
		t.Fatal("fresh entry should survive the sweep")
	}
}

func TestDelete_InvalidatesImmediately(t *testing.T) {
	c := New(time.Minute)
	c.Set("k", 1)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("deleted entry should miss")
	}
}
