package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Mongo implements Store on a mongodb database. Transactions and batches use
// driver sessions, so the deployment must be a replica set (standalone mongod
// rejects transactions).
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(client *mongo.Client, database string) *Mongo {
	return &Mongo{
		client: client,
		db:     client.Database(database),
	}
}

func (m *Mongo) Now() time.Time {
	// The poll loop runs in the server process next to mongod; the process
	// clock is the authoritative one here.
	return time.Now()
}

func (m *Mongo) Get(ctx context.Context, collection, id string, out any) error {
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (m *Mongo) Query(ctx context.Context, collection string, q Query, out any) error {
	filter := bson.M{}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEq, OpContains:
			// Mongo matches array membership with plain equality.
			filter[f.Field] = f.Value
		case OpLte:
			filter[f.Field] = bson.M{"$lte": f.Value}
		}
	}

	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

type mongoTx struct {
	store  *Mongo
	ctx    context.Context
	writes []Op
}

func (t *mongoTx) Get(collection, id string, out any) error {
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
	return t.store.Get(t.ctx, collection, id, out)
}

func (t *mongoTx) Put(collection, id string, doc any) {
	t.writes = append(t.writes, Put(collection, id, doc))
}

func (t *mongoTx) Delete(collection, id string) {
	t.writes = append(t.writes, Delete(collection, id))
}

func (m *Mongo) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		tx := &mongoTx{store: m, ctx: txCtx}
		if err := fn(tx); err != nil {
			return nil, err
		}
		return nil, m.apply(txCtx, tx.writes)
	})
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.HasErrorLabel("TransientTransactionError") {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (m *Mongo) BatchWrite(ctx context.Context, ops []Op) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		return nil, m.apply(txCtx, ops)
	})
	return err
}

func (m *Mongo) apply(ctx context.Context, ops []Op) error {
	for _, op := range ops {
		coll := m.db.Collection(op.Collection)
		switch op.Kind {
		case OpPut:
			_, err := coll.ReplaceOne(
				ctx,
				bson.M{"_id": op.ID},
				op.Doc,
				options.Replace().SetUpsert(true),
			)
			if err != nil {
				return err
			}
		case OpDelete:
			if _, err := coll.DeleteOne(ctx, bson.M{"_id": op.ID}); err != nil {
				return err
			}
		}
	}
	return nil
}
