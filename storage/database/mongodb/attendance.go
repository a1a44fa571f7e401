package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/ministry/core/attendance"
	"github.com/trezcool/ministry/core/calendar"
)

type (
	recordDoc struct {
		ID        string                 `bson:"_id"`
		Date      time.Time              `bson:"date"`
		Kind      attendance.MeetingKind `bson:"kind"`
		Count     int                    `bson:"count"`
		CreatedAt time.Time              `bson:"createdAt"`
		UpdatedAt time.Time              `bson:"updatedAt"`
	}

	attendanceAggregateDoc struct {
		Month   string                `bson:"_id"`
		Midweek attendance.KindTotals `bson:"midweek"`
		Weekend attendance.KindTotals `bson:"weekend"`
	}
)

func (doc recordDoc) toRecord() attendance.Record {
	return attendance.Record{
		ID:        doc.ID,
		Date:      doc.Date.UTC(),
		Kind:      doc.Kind,
		Count:     doc.Count,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	records    *mongo.Collection
	aggregates *mongo.Collection
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{
		records:    db.collection(attendanceCollection),
		aggregates: db.collection(attendanceAggregatesCollection),
	}
}

func (repo *attendanceRepository) SaveRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	doc := recordDoc(rec)
	if _, err := repo.records.ReplaceOne(ctx, bson.M{"_id": rec.ID}, doc, options.Replace().SetUpsert(true)); err != nil {
		return attendance.Record{}, errors.Wrap(err, "saving attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, id string) (attendance.Record, error) {
	var doc recordDoc
	err := repo.records.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "finding attendance record")
	}
	return doc.toRecord(), nil
}

func (repo *attendanceRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := repo.records.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	if res.DeletedCount == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, from, to calendar.Month) ([]attendance.Record, error) {
	cur, err := repo.records.Find(
		ctx,
		bson.M{"date": bson.M{"$gte": from.FirstDay(), "$lt": to.Add(1).FirstDay()}},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	var docs []recordDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding attendance records")
	}

	records := make([]attendance.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toRecord())
	}
	return records, nil
}

func (repo *attendanceRepository) GetAggregate(ctx context.Context, month calendar.Month) (attendance.Aggregate, error) {
	var doc attendanceAggregateDoc
	err := repo.aggregates.FindOne(ctx, bson.M{"_id": month.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return attendance.Aggregate{}, attendance.ErrAggregateNotFound
	}
	if err != nil {
		return attendance.Aggregate{}, errors.Wrap(err, "finding attendance aggregate")
	}
	return attendance.Aggregate{Month: month, Midweek: doc.Midweek, Weekend: doc.Weekend}, nil
}

func (repo *attendanceRepository) SaveAggregate(ctx context.Context, agg attendance.Aggregate) error {
	doc := attendanceAggregateDoc{Month: agg.Month.String(), Midweek: agg.Midweek, Weekend: agg.Weekend}
	_, err := repo.aggregates.ReplaceOne(ctx, bson.M{"_id": doc.Month}, doc, options.Replace().SetUpsert(true))
	return errors.Wrap(err, "saving attendance aggregate")
}
