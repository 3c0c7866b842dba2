package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is a Store backed by a MongoDB database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri and verifies the connection with a ping.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("docstore: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("docstore: mongo ping: %w", err)
	}
	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) Collection(name string) Collection {
	return &mongoCollection{client: m.client, c: m.db.Collection(name)}
}

func (m *Mongo) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	_, err := m.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(unique),
	})
	if err != nil {
		return fmt.Errorf("docstore: index %s.%s: %w", collection, field, err)
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error { return m.client.Ping(ctx, nil) }

func (m *Mongo) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }

type mongoCollection struct {
	client *mongo.Client
	c      *mongo.Collection
}

func (c *mongoCollection) Add(ctx context.Context, doc any) (string, error) {
	d, err := toDoc(doc)
	if err != nil {
		return "", err
	}
	id := ensureID(d)
	if _, err := c.c.InsertOne(ctx, d); err != nil {
		return "", mongoErr(err)
	}
	return id, nil
}

func (c *mongoCollection) Set(ctx context.Context, id string, doc any) error {
	d, err := toDoc(doc)
	if err != nil {
		return err
	}
	d[IDField] = id
	_, err = c.c.ReplaceOne(ctx, bson.M{IDField: id}, d, options.Replace().SetUpsert(true))
	return mongoErr(err)
}

func (c *mongoCollection) Get(ctx context.Context, id string, dest any) error {
	return mongoErr(c.c.FindOne(ctx, bson.M{IDField: id}).Decode(dest))
}

func (c *mongoCollection) Update(ctx context.Context, id string, fields map[string]any, preconditions ...Filter) error {
	set := bson.M{}
	for k, v := range fields {
		if k != IDField {
			set[k] = v
		}
	}
	filter := append(bson.D{{Key: IDField, Value: id}}, filterDoc(preconditions)...)

	res, err := c.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if len(preconditions) == 0 {
		return ErrNotFound
	}
	n, err := c.c.CountDocuments(ctx, bson.M{IDField: id})
	if err != nil {
		return mongoErr(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrPrecondition
}

func (c *mongoCollection) Delete(ctx context.Context, id string) error {
	_, err := c.c.DeleteOne(ctx, bson.M{IDField: id})
	return mongoErr(err)
}

func (c *mongoCollection) Find(ctx context.Context, q Query, dest any) error {
	opts := options.Find()
	if len(q.Sort) > 0 {
		sort := bson.D{}
		for _, s := range q.Sort {
			dir := 1
			if s.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: s.Field, Value: dir})
		}
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := c.c.Find(ctx, filterDoc(q.Filters), opts)
	if err != nil {
		return mongoErr(err)
	}
	return mongoErr(cur.All(ctx, dest))
}

func (c *mongoCollection) IDs(ctx context.Context, filters ...Filter) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{IDField: 1})
	cur, err := c.c.Find(ctx, filterDoc(filters), opts)
	if err != nil {
		return nil, mongoErr(err)
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, mongoErr(err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// BatchDelete runs inside a transaction when the deployment supports one.
// A standalone server falls back to a single DeleteMany.
func (c *mongoCollection) BatchDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	filter := bson.M{IDField: bson.M{"$in": ids}}

	sess, err := c.client.StartSession()
	if err != nil {
		return mongoErr(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return c.c.DeleteMany(sc, filter)
	})
	if err != nil && transactionsUnsupported(err) {
		_, err = c.c.DeleteMany(ctx, filter)
	}
	return mongoErr(err)
}

var mongoOps = map[Op]string{Eq: "$eq", Lt: "$lt", Lte: "$lte", Gt: "$gt", Gte: "$gte"}

// filterDoc groups filters by field so two bounds on one field become a
// single {field: {$gte: a, $lte: b}} entry.
func filterDoc(filters []Filter) bson.D {
	out := bson.D{}
	index := map[string]int{}
	for _, f := range filters {
		op, ok := mongoOps[f.Op]
		if !ok {
			continue
		}
		i, seen := index[f.Field]
		if !seen {
			index[f.Field] = len(out)
			out = append(out, bson.E{Key: f.Field, Value: bson.M{op: f.Value}})
			continue
		}
		out[i].Value.(bson.M)[op] = f.Value
	}
	return out
}

func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 20 || cmdErr.HasErrorMessage("Transaction numbers are only allowed")
	}
	return false
}

func mongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return fmt.Errorf("docstore: mongo: %w", err)
}
