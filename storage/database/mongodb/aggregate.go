package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/calendar"
)

// aggregateDoc is keyed by month ("YYYY-MM"), so the keys sort chronologically.
type aggregateDoc struct {
	Month              string                   `bson:"_id"`
	Publishers         aggregate.CategoryTotals `bson:"publishers"`
	Auxiliary          aggregate.CategoryTotals `bson:"auxiliary"`
	Regular            aggregate.CategoryTotals `bson:"regular"`
	PotentialReporters int                      `bson:"potentialReporters"`
	NewPublishers      int                      `bson:"newPublishers"`
}

func newAggregateDoc(agg aggregate.MonthlyAggregate) aggregateDoc {
	return aggregateDoc{
		Month:              agg.Month.String(),
		Publishers:         agg.Publishers,
		Auxiliary:          agg.Auxiliary,
		Regular:            agg.Regular,
		PotentialReporters: agg.PotentialReporters,
		NewPublishers:      agg.NewPublishers,
	}
}

func (doc aggregateDoc) toAggregate() (aggregate.MonthlyAggregate, error) {
	month, err := calendar.ParseMonth(doc.Month)
	if err != nil {
		return aggregate.MonthlyAggregate{}, errors.Wrapf(err, "aggregate %q", doc.Month)
	}
	return aggregate.MonthlyAggregate{
		Month:              month,
		Publishers:         doc.Publishers,
		Auxiliary:          doc.Auxiliary,
		Regular:            doc.Regular,
		PotentialReporters: doc.PotentialReporters,
		NewPublishers:      doc.NewPublishers,
	}, nil
}

type aggregateRepository struct {
	db   *DB
	coll *mongo.Collection
}

func NewAggregateRepository(db *DB) aggregate.Repository {
	return &aggregateRepository{db: db, coll: db.collection(aggregatesCollection)}
}

func (repo *aggregateRepository) GetAggregate(ctx context.Context, month calendar.Month) (aggregate.MonthlyAggregate, error) {
	var doc aggregateDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": month.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return aggregate.MonthlyAggregate{}, aggregate.ErrNotFound
	}
	if err != nil {
		return aggregate.MonthlyAggregate{}, errors.Wrap(err, "finding aggregate")
	}
	return doc.toAggregate()
}

func (repo *aggregateRepository) save(ctx context.Context, agg aggregate.MonthlyAggregate) error {
	doc := newAggregateDoc(agg)
	_, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": doc.Month}, doc, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "saving aggregate of %s", agg.Month)
}

func (repo *aggregateRepository) SaveAggregate(ctx context.Context, agg aggregate.MonthlyAggregate) error {
	return repo.save(ctx, agg)
}

func (repo *aggregateRepository) SaveAggregates(ctx context.Context, aggs []aggregate.MonthlyAggregate) error {
	return repo.db.withTransaction(ctx, func(sc mongo.SessionContext) error {
		for _, agg := range aggs {
			if err := repo.save(sc, agg); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *aggregateRepository) QueryAggregates(ctx context.Context, from, to calendar.Month) ([]aggregate.MonthlyAggregate, error) {
	cur, err := repo.coll.Find(
		ctx,
		bson.M{"_id": bson.M{"$gte": from.String(), "$lte": to.String()}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying aggregates")
	}
	var docs []aggregateDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding aggregates")
	}

	aggs := make([]aggregate.MonthlyAggregate, 0, len(docs))
	for _, doc := range docs {
		agg, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}
	return aggs, nil
}
