package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get (and Tx.Get) when no document exists at the
// requested path. Repos translate it into their own domain errors.
var ErrNotFound = errors.New("store: document not found")

// ErrConflict is returned by RunTransaction when the commit lost an
// optimistic-concurrency race and retries were exhausted.
var ErrConflict = errors.New("store: transaction conflict")

// FilterOp is the small filter algebra the game needs: equality, "field <=
// value" for due-movement scans, and array membership.
type FilterOp string

const (
	OpEq       FilterOp = "=="
	OpLte      FilterOp = "<="
	OpContains FilterOp = "array-contains"
)

type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

type Query struct {
	Filters []Filter
	OrderBy string // field name, empty = unspecified order
	Desc    bool
	Limit   int // 0 = no limit
}

func Eq(field string, value any) Filter  { return Filter{Field: field, Op: OpEq, Value: value} }
func Lte(field string, value any) Filter { return Filter{Field: field, Op: OpLte, Value: value} }

// Tx is the read-then-write view inside RunTransaction. Writes are buffered
// and applied atomically at commit; a failed commit applies nothing.
type Tx interface {
	Get(collection, id string, out any) error
	Put(collection, id string, doc any)
	Delete(collection, id string)
}

// Store is the abstract document store the core runs against. Documents are
// bson-tagged structs; the two implementations are mongodb and in-memory.
type Store interface {
	// Get decodes the document at collection/id into out.
	Get(ctx context.Context, collection, id string, out any) error
	// Query decodes all matching documents into out, a pointer to a slice.
	Query(ctx context.Context, collection string, q Query, out any) error
	// RunTransaction runs fn with a transactional view; all writes it buffers
	// commit atomically or not at all.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	// BatchWrite applies the ops as one atomic commit, no interim reads.
	BatchWrite(ctx context.Context, ops []Op) error
	// Now is the store-adjacent authoritative clock for lastUpdated/report
	// timestamps, so ordering-sensitive writes never trust a remote client.
	Now() time.Time
}

type OpKind int

const (
	OpPut OpKind = iota
	OpDelete
)

type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Doc        any // nil for deletes
}

func Put(collection, id string, doc any) Op {
	return Op{Kind: OpPut, Collection: collection, ID: id, Doc: doc}
}

func Delete(collection, id string) Op {
	return Op{Kind: OpDelete, Collection: collection, ID: id}
}
