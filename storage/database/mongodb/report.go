package mongodb

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/report"
)

type reportRepository struct {
	db   *DB
	coll *mongo.Collection
}

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db, coll: db.collection(reportsCollection)}
}

// Legacy documents spell their fields in several ways, so the store filters are loose and
// the normalized reports are filtered again.

// monthFilter matches the documents that may belong to month.
func monthFilter(month calendar.Month) bson.M {
	prefix := "^" + regexp.QuoteMeta(month.String())
	or := bson.A{
		bson.M{"_id": bson.M{"$regex": prefix + "_"}},
		bson.M{"month": int(month.Month), "year": month.Year},
	}
	for _, field := range report.MonthFields() {
		or = append(or,
			bson.M{field: bson.M{"$regex": prefix}},
			bson.M{field: bson.M{"$gte": month.FirstDay(), "$lt": month.Add(1).FirstDay()}},
		)
	}
	return bson.M{"$or": or}
}

// publisherFilter matches the documents that may belong to the publisher.
func publisherFilter(publisherID string) bson.M {
	or := bson.A{bson.M{"_id": bson.M{"$regex": "_" + regexp.QuoteMeta(publisherID) + "$"}}}
	for _, field := range report.PublisherIDFields() {
		or = append(or, bson.M{field: publisherID})
	}
	return bson.M{"$or": or}
}

func (repo *reportRepository) find(ctx context.Context, filter bson.M, keep func(report.ActivityReport) bool) ([]report.ActivityReport, []interface{}, error) {
	cur, err := repo.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}}))
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying reports")
	}
	defer func() { _ = cur.Close(ctx) }()

	var (
		reports []report.ActivityReport
		rawIDs  []interface{}
	)
	for cur.Next(ctx) {
		var m bson.M
		if err = cur.Decode(&m); err != nil {
			return nil, nil, errors.Wrap(err, "decoding report")
		}
		if r := report.Normalize(fromBSONMap(m)); keep(r) {
			reports = append(reports, r)
			rawIDs = append(rawIDs, m["_id"])
		}
	}
	return reports, rawIDs, errors.Wrap(cur.Err(), "iterating reports")
}

func (repo *reportRepository) findSlot(ctx context.Context, publisherID string, month calendar.Month) ([]report.ActivityReport, []interface{}, error) {
	filter := bson.M{"$and": bson.A{monthFilter(month), publisherFilter(publisherID)}}
	return repo.find(ctx, filter, func(r report.ActivityReport) bool {
		return r.PublisherID == publisherID && r.Month == month
	})
}

func (repo *reportRepository) GetReport(ctx context.Context, publisherID string, month calendar.Month) (report.ActivityReport, error) {
	var m bson.M
	err := repo.coll.FindOne(ctx, bson.M{"_id": report.Key(month, publisherID)}).Decode(&m)
	switch err {
	case nil:
		return report.Normalize(fromBSONMap(m)), nil
	case mongo.ErrNoDocuments:
	default:
		return report.ActivityReport{}, errors.Wrap(err, "finding report")
	}

	// legacy documents stored under another key
	reports, _, err := repo.findSlot(ctx, publisherID, month)
	if err != nil {
		return report.ActivityReport{}, err
	}
	if reports = report.Dedupe(reports); len(reports) == 0 {
		return report.ActivityReport{}, report.ErrNotFound
	}
	return reports[0], nil
}

// UpsertReport writes r under its canonical key and drops the legacy documents of the same slot.
func (repo *reportRepository) UpsertReport(ctx context.Context, r report.ActivityReport) (report.ActivityReport, error) {
	r.ID = r.Key()
	err := repo.db.withTransaction(ctx, func(sc mongo.SessionContext) error {
		reports, rawIDs, err := repo.findSlot(sc, r.PublisherID, r.Month)
		if err != nil {
			return err
		}
		if legacy := legacyIDs(reports, rawIDs, r.ID); len(legacy) > 0 {
			if _, err = repo.coll.DeleteMany(sc, bson.M{"_id": bson.M{"$in": legacy}}); err != nil {
				return errors.Wrap(err, "deleting legacy reports")
			}
		}
		_, err = repo.coll.ReplaceOne(sc, bson.M{"_id": r.ID}, bson.M(report.Document(r)), options.Replace().SetUpsert(true))
		return errors.Wrap(err, "upserting report")
	})
	if err != nil {
		return report.ActivityReport{}, err
	}
	return r, nil
}

// legacyIDs returns the raw ids of the reports not stored under key.
func legacyIDs(reports []report.ActivityReport, rawIDs []interface{}, key string) []interface{} {
	var ids []interface{}
	for i, r := range reports {
		if r.ID != key {
			ids = append(ids, rawIDs[i])
		}
	}
	return ids
}

func (repo *reportRepository) MoveReport(ctx context.Context, oldMonth calendar.Month, r report.ActivityReport) (report.ActivityReport, error) {
	r.ID = r.Key()
	err := repo.db.withTransaction(ctx, func(sc mongo.SessionContext) error {
		_, oldIDs, err := repo.findSlot(sc, r.PublisherID, oldMonth)
		if err != nil {
			return err
		}
		if len(oldIDs) == 0 {
			return report.ErrNotFound
		}
		taken, _, err := repo.findSlot(sc, r.PublisherID, r.Month)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return report.ErrReportExists
		}

		if _, err = repo.coll.DeleteMany(sc, bson.M{"_id": bson.M{"$in": oldIDs}}); err != nil {
			return errors.Wrap(err, "deleting old report")
		}
		if _, err = repo.coll.InsertOne(sc, bson.M(report.Document(r))); err != nil {
			return errors.Wrap(err, "inserting moved report")
		}
		return nil
	})
	if err != nil {
		return report.ActivityReport{}, err
	}
	return r, nil
}

func (repo *reportRepository) DeleteReport(ctx context.Context, publisherID string, month calendar.Month) error {
	_, ids, err := repo.findSlot(ctx, publisherID, month)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return report.ErrNotFound
	}
	_, err = repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return errors.Wrap(err, "deleting report")
}

func (repo *reportRepository) QueryReportsByMonth(ctx context.Context, month calendar.Month) ([]report.ActivityReport, error) {
	reports, _, err := repo.find(ctx, monthFilter(month), func(r report.ActivityReport) bool {
		return r.Month == month
	})
	return report.Dedupe(reports), err
}

func (repo *reportRepository) QueryReportsByPublisher(ctx context.Context, publisherID string, months []calendar.Month) ([]report.ActivityReport, error) {
	set := make(map[calendar.Month]bool, len(months))
	for _, m := range months {
		set[m] = true
	}
	reports, _, err := repo.find(ctx, publisherFilter(publisherID), func(r report.ActivityReport) bool {
		return r.PublisherID == publisherID && set[r.Month]
	})
	return report.Dedupe(reports), err
}

// ScanReports streams the whole collection: month fields are too irregular to be range-filtered.
func (repo *reportRepository) ScanReports(ctx context.Context, from, to calendar.Month, fn func(report.ActivityReport) error) error {
	cur, err := repo.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}}))
	if err != nil {
		return errors.Wrap(err, "scanning reports")
	}
	defer func() { _ = cur.Close(ctx) }()

	for cur.Next(ctx) {
		var m bson.M
		if err = cur.Decode(&m); err != nil {
			return errors.Wrap(err, "decoding report")
		}
		r := report.Normalize(fromBSONMap(m))
		if r.Month.Before(from) || r.Month.After(to) {
			continue
		}
		if err = fn(r); err != nil {
			return err
		}
	}
	return errors.Wrap(cur.Err(), "iterating reports")
}
