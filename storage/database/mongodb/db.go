package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/ministry/core"
)

// collections
const (
	publishersCollection           = "publishers"
	reportsCollection              = "reports"
	aggregatesCollection           = "monthlyAggregates"
	attendanceCollection           = "attendance"
	attendanceAggregatesCollection = "attendanceAggregates"
)

// DB is a MongoDB database. Atomic batches use multi-document transactions,
// so the server must be a replica set (a single-node one is enough).
type DB struct {
	client   *mongo.Client
	database *mongo.Database
}

// Open connects to conf.Database.URI and checks the connection.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	if conf.Database.URI == "" {
		return nil, errors.New("database URI is empty")
	}

	clientOptions := options.Client().ApplyURI(conf.Database.URI).
		SetAppName(conf.AppName).
		SetMaxPoolSize(20).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(30 * time.Second)

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connCtx, clientOptions)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to MongoDB")
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	defer cancelPing()
	if err = client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging MongoDB")
	}

	return &DB{client: client, database: client.Database(conf.Database.Name)}, nil
}

func (db *DB) Close(ctx context.Context) error {
	return errors.Wrap(db.client.Disconnect(ctx), "disconnecting from MongoDB")
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.database.Collection(name)
}

// EnsureIndexes creates the indexes the repositories query on. It is idempotent.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		reportsCollection: {
			{Keys: bson.D{{Key: "referenceMonth", Value: 1}}},
			{Keys: bson.D{{Key: "publisherId", Value: 1}, {Key: "referenceMonth", Value: 1}}},
		},
		attendanceCollection: {
			{Keys: bson.D{{Key: "date", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// withTransaction runs fn in a transaction: either all its writes are committed or none is.
func (db *DB) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := db.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// fromBSON converts the driver's types into the plain values the normalizers understand.
func fromBSON(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.ObjectID:
		return val.Hex()
	case primitive.Decimal128:
		return val.String()
	case primitive.M:
		return fromBSONMap(val)
	case primitive.D:
		return fromBSONMap(val.Map())
	case primitive.A:
		arr := make([]interface{}, len(val))
		for i, item := range val {
			arr[i] = fromBSON(item)
		}
		return arr
	}
	return v
}

func fromBSONMap(m map[string]interface{}) map[string]interface{} {
	doc := make(map[string]interface{}, len(m))
	for k, v := range m {
		doc[k] = fromBSON(v)
	}
	return doc
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]map[string]interface{}, error) {
	defer func() { _ = cur.Close(ctx) }()

	var docs []map[string]interface{}
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, errors.Wrap(err, "decoding document")
		}
		docs = append(docs, fromBSONMap(m))
	}
	return docs, errors.Wrap(cur.Err(), "iterating cursor")
}
