package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Memory is the in-memory Store used by tests and local runs. Documents are
// kept bson-encoded so both implementations exercise the same struct tags,
// and every Get hands out an independent copy.
type Memory struct {
	mu    sync.Mutex
	colls map[string]map[string][]byte
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		colls: make(map[string]map[string][]byte),
		now:   time.Now,
	}
}

// SetClock overrides the store clock, for tests that steer time.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now()
}

func (m *Memory) Get(ctx context.Context, collection, id string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(collection, id, out)
}

func (m *Memory) getLocked(collection, id string, out any) error {
	coll, ok := m.colls[collection]
	if !ok {
		return ErrNotFound
	}
	raw, ok := coll[id]
	if !ok {
		return ErrNotFound
	}
	return bson.Unmarshal(raw, out)
}

func (m *Memory) Query(ctx context.Context, collection string, q Query, out any) error {
	outV := reflect.ValueOf(out)
	if outV.Kind() != reflect.Ptr || outV.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("store: query out must be a pointer to a slice, got %T", out)
	}

	m.mu.Lock()
	var matches [][]byte
	var sortKeys []any
	for _, raw := range m.colls[collection] {
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			m.mu.Unlock()
			return err
		}
		if !matchFilters(doc, q.Filters) {
			continue
		}
		matches = append(matches, raw)
		if q.OrderBy != "" {
			key, _ := lookupField(doc, q.OrderBy)
			sortKeys = append(sortKeys, key)
		}
	}
	m.mu.Unlock()

	if q.OrderBy != "" {
		idx := make([]int, len(matches))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			less := compareValues(sortKeys[idx[a]], sortKeys[idx[b]]) < 0
			if q.Desc {
				return !less && compareValues(sortKeys[idx[a]], sortKeys[idx[b]]) != 0
			}
			return less
		})
		reordered := make([][]byte, len(matches))
		for i, j := range idx {
			reordered[i] = matches[j]
		}
		matches = reordered
	}

	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}

	sliceV := outV.Elem()
	sliceV.Set(reflect.MakeSlice(sliceV.Type(), 0, len(matches)))
	elemType := sliceV.Type().Elem()
	for _, raw := range matches {
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return err
		}
		sliceV.Set(reflect.Append(sliceV, elem.Elem()))
	}
	return nil
}

type memoryTx struct {
	store  *Memory
	writes []Op
}

func (t *memoryTx) Get(collection, id string, out any) error {
	// Reads see committed state plus this transaction's own buffered writes.
	for i := len(t.writes) - 1; i >= 0; i-- {
		w := t.writes[i]
		if w.Collection != collection || w.ID != id {
			continue
		}
		if w.Kind == OpDelete {
			return ErrNotFound
		}
		raw, err := bson.Marshal(w.Doc)
		if err != nil {
			return err
		}
		return bson.Unmarshal(raw, out)
	}
	return t.store.getLocked(collection, id, out)
}

func (t *memoryTx) Put(collection, id string, doc any) {
	t.writes = append(t.writes, Put(collection, id, doc))
}

func (t *memoryTx) Delete(collection, id string) {
	t.writes = append(t.writes, Delete(collection, id))
}

// RunTransaction holds the store lock for the whole callback, so the memory
// implementation is serializable and never conflicts.
func (m *Memory) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}
	return m.applyLocked(tx.writes)
}

func (m *Memory) BatchWrite(ctx context.Context, ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(ops)
}

func (m *Memory) applyLocked(ops []Op) error {
	// Marshal everything first so a bad document cannot half-apply a batch.
	encoded := make([][]byte, len(ops))
	for i, op := range ops {
		if op.Kind != OpPut {
			continue
		}
		raw, err := bson.Marshal(op.Doc)
		if err != nil {
			return err
		}
		encoded[i] = raw
	}

	for i, op := range ops {
		coll := m.colls[op.Collection]
		if coll == nil {
			coll = make(map[string][]byte)
			m.colls[op.Collection] = coll
		}
		switch op.Kind {
		case OpPut:
			coll[op.ID] = encoded[i]
		case OpDelete:
			delete(coll, op.ID)
		}
	}
	return nil
}

// lookupField resolves a possibly dotted path ("origin.ownerId") against a
// decoded document, matching mongodb's filter semantics for embedded docs.
func lookupField(doc bson.M, path string) (any, bool) {
	cur := any(doc)
	for {
		i := strings.IndexByte(path, '.')
		m, ok := cur.(bson.M)
		if !ok {
			return nil, false
		}
		if i < 0 {
			v, ok := m[path]
			return v, ok
		}
		cur, ok = m[path[:i]]
		if !ok {
			return nil, false
		}
		path = path[i+1:]
	}
}

func matchFilters(doc bson.M, filters []Filter) bool {
	for _, f := range filters {
		v, ok := lookupField(doc, f.Field)
		if !ok {
			return false
		}
		switch f.Op {
		case OpEq:
			if compareValues(v, f.Value) != 0 {
				return false
			}
		case OpLte:
			if compareValues(v, f.Value) > 0 {
				return false
			}
		case OpContains:
			arr, ok := v.(bson.A)
			if !ok {
				return false
			}
			found := false
			for _, el := range arr {
				if compareValues(el, f.Value) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders the value kinds the store actually filters on:
// numbers, strings, bools and timestamps. Mixed incomparable kinds compare
// as unequal.
func compareValues(a, b any) int {
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
		return -1
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
		return -1
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			switch {
			case sa < sb:
				return -1
			case sa > sb:
				return 1
			default:
				return 0
			}
		}
		return -1
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok && ba == bb {
			return 0
		}
		return -1
	}
	if a == nil && b == nil {
		return 0
	}
	return -1
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case bson.DateTime:
		return t.Time(), true
	default:
		return time.Time{}, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
