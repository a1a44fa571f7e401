package inmemdb

import (
	"sync"

	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/attendance"
	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/publisher"
)

type (
	// DB is an in-memory document store, one table per collection. Safe for concurrent use.
	DB struct {
		publisher  *publisherTable
		report     *reportTable
		aggregate  *aggregateTable
		attendance *attendanceTable
	}

	publisherTable struct {
		table map[string]*publisher.Publisher
		mutex sync.RWMutex
	}

	// reportTable keeps raw documents in insertion order, like a document store's natural order.
	reportTable struct {
		docs  []map[string]interface{}
		mutex sync.RWMutex
	}

	aggregateTable struct {
		table map[calendar.Month]aggregate.MonthlyAggregate
		mutex sync.RWMutex
	}

	attendanceTable struct {
		records    map[string]*attendance.Record
		aggregates map[calendar.Month]attendance.Aggregate
		mutex      sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		publisher: &publisherTable{table: make(map[string]*publisher.Publisher)},
		report:    &reportTable{},
		aggregate: &aggregateTable{table: make(map[calendar.Month]aggregate.MonthlyAggregate)},
		attendance: &attendanceTable{
			records:    make(map[string]*attendance.Record),
			aggregates: make(map[calendar.Month]attendance.Aggregate),
		},
	}
}

// InsertReportDocument stores doc as is, without normalizing its fields or checking its key.
// It is how legacy documents get imported.
func (db *DB) InsertReportDocument(doc map[string]interface{}) {
	db.report.mutex.Lock()
	defer db.report.mutex.Unlock()
	db.report.docs = append(db.report.docs, copyDoc(doc))
}

func copyDoc(doc map[string]interface{}) map[string]interface{} {
	cp := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		cp[k] = v
	}
	return cp
}
