package attendance

import (
	"math"
	"time"

	"github.com/trezcool/ministry/core/calendar"
)

type MeetingKind string

const (
	KindMidweek MeetingKind = "midweek"
	KindWeekend MeetingKind = "weekend"
)

var AllKinds = []MeetingKind{KindMidweek, KindWeekend}

// Record is the headcount of one meeting.
type Record struct {
	ID        string      `json:"id"`
	Date      time.Time   `json:"date"` // UTC
	Kind      MeetingKind `json:"kind"`
	Count     int         `json:"count"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (rec Record) Month() calendar.Month {
	return calendar.MonthOf(rec.Date)
}

type KindTotals struct {
	Meetings  int `json:"meetings"`
	Attendees int `json:"attendees"`
	Average   int `json:"average"` // rounded to the nearest integer
}

// Aggregate is the monthly attendance summary, derived from the records of the month.
type Aggregate struct {
	Month   calendar.Month `json:"month"`
	Midweek KindTotals     `json:"midweek"`
	Weekend KindTotals     `json:"weekend"`
}

func (agg *Aggregate) kind(k MeetingKind) *KindTotals {
	if k == KindWeekend {
		return &agg.Weekend
	}
	return &agg.Midweek
}

// AggregateMonth folds the records dated inside month; other records are ignored.
func AggregateMonth(records []Record, month calendar.Month) Aggregate {
	agg := Aggregate{Month: month}
	for _, rec := range records {
		if !month.Contains(rec.Date) {
			continue
		}
		kt := agg.kind(rec.Kind)
		kt.Meetings++
		kt.Attendees += rec.Count
	}
	for _, kt := range []*KindTotals{&agg.Midweek, &agg.Weekend} {
		if kt.Meetings > 0 {
			kt.Average = int(math.Round(float64(kt.Attendees) / float64(kt.Meetings)))
		}
	}
	return agg
}

// NewRecord contains the information needed to register a meeting's attendance.
type NewRecord struct {
	Date  time.Time   `json:"date" validate:"required"`
	Kind  MeetingKind `json:"kind" validate:"required,meetingkind"`
	Count int         `json:"count" validate:"gte=0"`
}

// UpdateRecord replaces the data of a record. Moving it to another month recomputes both months.
type UpdateRecord struct {
	Date  time.Time   `json:"date" validate:"required"`
	Kind  MeetingKind `json:"kind" validate:"required,meetingkind"`
	Count int         `json:"count" validate:"gte=0"`
}
