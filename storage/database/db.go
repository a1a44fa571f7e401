package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/attendance"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/report"
	inmemdb "github.com/trezcool/ministry/storage/database/inmem"
	"github.com/trezcool/ministry/storage/database/mongodb"
	"github.com/trezcool/ministry/storage/database/postgres"
)

// Store holds the repositories of the configured engine.
// SQL and Mongo are set for their engine only, for maintenance commands.
type Store struct {
	Engine     string
	Publishers publisher.Repository
	Reports    report.Repository
	Aggregates aggregate.Repository
	Attendance attendance.Repository

	SQL   *sqlx.DB
	Mongo *mongodb.DB
	Mem   *inmemdb.DB

	closeFn func() error
}

func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Open connects to the engine named by conf.Database.Engine.
func Open(ctx context.Context, conf *core.Config) (*Store, error) {
	switch conf.Database.Engine {
	case core.EngineMemory:
		db := inmemdb.Open()
		return &Store{
			Engine:     core.EngineMemory,
			Publishers: inmemdb.NewPublisherRepository(db),
			Reports:    inmemdb.NewReportRepository(db),
			Aggregates: inmemdb.NewAggregateRepository(db),
			Attendance: inmemdb.NewAttendanceRepository(db),
			Mem:        db,
		}, nil

	case core.EngineMongoDB:
		db, err := mongodb.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		return &Store{
			Engine:     core.EngineMongoDB,
			Publishers: mongodb.NewPublisherRepository(db),
			Reports:    mongodb.NewReportRepository(db),
			Aggregates: mongodb.NewAggregateRepository(db),
			Attendance: mongodb.NewAttendanceRepository(db),
			Mongo:      db,
			closeFn:    func() error { return db.Close(context.Background()) },
		}, nil

	case core.EnginePostgres:
		db, err := postgres.Open(conf)
		if err != nil {
			return nil, err
		}
		return &Store{
			Engine:     core.EnginePostgres,
			Publishers: postgres.NewPublisherRepository(db),
			Reports:    postgres.NewReportRepository(db),
			Aggregates: postgres.NewAggregateRepository(db),
			Attendance: postgres.NewAttendanceRepository(db),
			SQL:        db,
			closeFn:    db.Close,
		}, nil
	}
	return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
}

// Setup prepares the database then opens it: postgres gets its user, database and migrations,
// mongodb its indexes.
func Setup(ctx context.Context, conf *core.Config) (*Store, error) {
	if conf.Database.Engine == core.EnginePostgres {
		if err := postgres.CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
	}

	store, err := Open(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = store.Migrate(ctx, "up"); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// Migrate runs a goose command on postgres. On mongodb, "up" ensures the indexes;
// other commands have no effect there, nor on the in-memory engine.
func (s *Store) Migrate(ctx context.Context, command string, args ...string) error {
	switch {
	case s.SQL != nil:
		return migrateFunc(s.SQL, command, args...)
	case s.Mongo != nil && command == "up":
		return errors.Wrap(s.Mongo.EnsureIndexes(ctx), "ensuring indexes")
	}
	return nil
}

var migrateFunc = postgres.Migrate // mockable
