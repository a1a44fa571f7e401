package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/ministry/core/publisher"
)

type publisherRepository struct {
	coll *mongo.Collection
}

func NewPublisherRepository(db *DB) publisher.Repository {
	return &publisherRepository{coll: db.collection(publishersCollection)}
}

func (repo *publisherRepository) CreatePublisher(ctx context.Context, pub publisher.Publisher) (publisher.Publisher, error) {
	if _, err := repo.coll.InsertOne(ctx, bson.M(publisher.Document(pub))); err != nil {
		return publisher.Publisher{}, errors.Wrap(err, "inserting publisher")
	}
	return pub, nil
}

func (repo *publisherRepository) GetPublisher(ctx context.Context, id string) (publisher.Publisher, error) {
	var m bson.M
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return publisher.Publisher{}, publisher.ErrNotFound
	}
	if err != nil {
		return publisher.Publisher{}, errors.Wrap(err, "finding publisher")
	}
	return publisher.Normalize(fromBSONMap(m)), nil
}

func (repo *publisherRepository) QueryPublishers(ctx context.Context) ([]publisher.Publisher, error) {
	cur, err := repo.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying publishers")
	}
	docs, err := decodeAll(ctx, cur)
	if err != nil {
		return nil, err
	}
	pubs := make([]publisher.Publisher, 0, len(docs))
	for _, doc := range docs {
		pubs = append(pubs, publisher.Normalize(doc))
	}
	return pubs, nil
}

func (repo *publisherRepository) UpdatePublisher(ctx context.Context, pub publisher.Publisher) (publisher.Publisher, error) {
	doc := publisher.Document(pub)
	// status fields are only written by UpdatePublisherStatus
	for _, k := range []string{"_id", "status", "statusUpdatedAt", "createdAt"} {
		delete(doc, k)
	}

	var m bson.M
	err := repo.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": pub.ID},
		bson.M{"$set": bson.M(doc)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return publisher.Publisher{}, publisher.ErrNotFound
	}
	if err != nil {
		return publisher.Publisher{}, errors.Wrap(err, "updating publisher")
	}
	return publisher.Normalize(fromBSONMap(m)), nil
}

func (repo *publisherRepository) UpdatePublisherStatus(ctx context.Context, id string, status publisher.Status, updatedAt time.Time) error {
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":          string(status),
		"statusUpdatedAt": updatedAt,
	}})
	if err != nil {
		return errors.Wrap(err, "updating publisher status")
	}
	if res.MatchedCount == 0 {
		return publisher.ErrNotFound
	}
	return nil
}
