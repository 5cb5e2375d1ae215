package docstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo ping")
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) Collection(name string) Collection {
	return &mongoCollection{c: s.db.Collection(name)}
}

func (s *MongoStore) EnsureUnique(ctx context.Context, collection, field string) error {
	if !validName(collection) || !validName(field) {
		return errors.Errorf("docstore: invalid unique index %s.%s", collection, field)
	}
	if field == "_id" {
		return nil
	}
	_, err := s.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_" + field),
	})
	return mapMongoErr(err)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type mongoCollection struct {
	c *mongo.Collection
}

func mapMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.WithMessage(ErrDuplicate, err.Error())
	default:
		return err
	}
}

// toBSON translates a Filter. Multiple conditions become an $and so repeated fields are kept.
func toBSON(f Filter) (bson.D, error) {
	if err := checkFilter(f); err != nil {
		return nil, err
	}
	parts := make(bson.A, 0, len(f))
	for _, cond := range f {
		switch cond.Op {
		case OpNe:
			parts = append(parts, bson.D{{Key: cond.Field, Value: bson.D{{Key: "$ne", Value: cond.Value}}}})
		default:
			parts = append(parts, bson.D{{Key: cond.Field, Value: cond.Value}})
		}
	}
	switch len(parts) {
	case 0:
		return bson.D{}, nil
	case 1:
		return parts[0].(bson.D), nil
	default:
		return bson.D{{Key: "$and", Value: parts}}, nil
	}
}

func toSet(set Fields) (bson.D, error) {
	if err := checkFields(set); err != nil {
		return nil, err
	}
	doc := make(bson.D, 0, len(set))
	for k, v := range set {
		doc = append(doc, bson.E{Key: k, Value: v})
	}
	return bson.D{{Key: "$set", Value: doc}}, nil
}

// Mongo keeps no insertion order, so listings sort on the createdAt every document carries.
// _id breaks ties between documents created in the same millisecond.
var (
	oldestFirst = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
)

func findOneOptions() *options.FindOneOptions { return options.FindOne().SetSort(oldestFirst) }

func findOptions() *options.FindOptions { return options.Find().SetSort(newestFirst) }

func (m *mongoCollection) Insert(ctx context.Context, doc any) error {
	_, err := m.c.InsertOne(ctx, doc)
	return mapMongoErr(err)
}

func (m *mongoCollection) FindOne(ctx context.Context, f Filter, out any) error {
	q, err := toBSON(f)
	if err != nil {
		return err
	}
	return mapMongoErr(m.c.FindOne(ctx, q, findOneOptions()).Decode(out))
}

func (m *mongoCollection) Find(ctx context.Context, f Filter, out any) error {
	q, err := toBSON(f)
	if err != nil {
		return err
	}
	cur, err := m.c.Find(ctx, q, findOptions())
	if err != nil {
		return mapMongoErr(err)
	}
	return mapMongoErr(cur.All(ctx, out))
}

func (m *mongoCollection) UpdateOne(ctx context.Context, f Filter, set Fields) (int64, error) {
	q, err := toBSON(f)
	if err != nil {
		return 0, err
	}
	u, err := toSet(set)
	if err != nil {
		return 0, err
	}
	res, err := m.c.UpdateOne(ctx, q, u)
	if err != nil {
		return 0, mapMongoErr(err)
	}
	return res.MatchedCount, nil
}

func (m *mongoCollection) UpdateMany(ctx context.Context, f Filter, set Fields) (int64, error) {
	q, err := toBSON(f)
	if err != nil {
		return 0, err
	}
	u, err := toSet(set)
	if err != nil {
		return 0, err
	}
	res, err := m.c.UpdateMany(ctx, q, u)
	if err != nil {
		return 0, mapMongoErr(err)
	}
	return res.MatchedCount, nil
}

func (m *mongoCollection) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	q, err := toBSON(f)
	if err != nil {
		return 0, err
	}
	res, err := m.c.DeleteOne(ctx, q)
	if err != nil {
		return 0, mapMongoErr(err)
	}
	return res.DeletedCount, nil
}

func (m *mongoCollection) Count(ctx context.Context, f Filter) (int64, error) {
	q, err := toBSON(f)
	if err != nil {
		return 0, err
	}
	n, err := m.c.CountDocuments(ctx, q)
	return n, mapMongoErr(err)
}
