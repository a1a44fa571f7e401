package report

import (
	"time"

	"github.com/trezcool/ministry/core/calendar"
)

// ServiceType is the kind of service a publisher declares for one month.
type ServiceType string

const (
	TypePublisher        ServiceType = "publisher"
	TypeAuxiliaryPioneer ServiceType = "auxiliary_pioneer"
	TypeRegularPioneer   ServiceType = "regular_pioneer"
	TypeSpecialPioneer   ServiceType = "special_pioneer"
	TypeMissionary       ServiceType = "missionary"
)

var AllServiceTypes = []ServiceType{
	TypePublisher, TypeAuxiliaryPioneer, TypeRegularPioneer, TypeSpecialPioneer, TypeMissionary,
}

// Category is the canonical bucket a report is aggregated in.
type Category string

const (
	CategoryPublisher Category = "publisher"
	CategoryAuxiliary Category = "auxiliary"
	CategoryRegular   Category = "regular" // regular pioneers, special pioneers & missionaries
)

var AllCategories = []Category{CategoryPublisher, CategoryAuxiliary, CategoryRegular}

// ActivityReport is one publisher's declared activity for one calendar month.
type ActivityReport struct {
	ID           string         `json:"id"` // document key; Key(Month, PublisherID) for canonical documents
	PublisherID  string         `json:"publisher_id"`
	Month        calendar.Month `json:"month"`
	Participated bool           `json:"participated"`
	Hours        float64        `json:"hours"`
	BonusHours   float64        `json:"bonus_hours"`
	BibleStudies int            `json:"bible_studies"`
	ServiceType  ServiceType    `json:"service_type"`
	Auxiliary    bool           `json:"auxiliary"` // explicit auxiliary pioneer flag
	Note         string         `json:"note"`
	CreatedAt    time.Time      `json:"created_at"` // UTC
	UpdatedAt    time.Time      `json:"updated_at"` // UTC
}

// Key returns the composite document key of the report for a (month, publisher) pair.
func Key(month calendar.Month, publisherID string) string {
	return month.String() + "_" + publisherID
}

// Key returns the canonical key of the report, which may differ from ID for legacy documents.
func (r ActivityReport) Key() string {
	return Key(r.Month, r.PublisherID)
}

// TotalHours includes bonus (credit) hours.
func (r ActivityReport) TotalHours() float64 {
	return r.Hours + r.BonusHours
}

// SaveReport contains the information needed to create or update a report.
// When PreviousMonth is set and differs from Month the stored report is moved to the new month.
type SaveReport struct {
	PublisherID   string      `json:"publisher_id" validate:"required"`
	Month         string      `json:"month" validate:"required,yearmonth"`
	PreviousMonth string      `json:"previous_month" validate:"omitempty,yearmonth"`
	Participated  bool        `json:"participated"`
	Hours         float64     `json:"hours" validate:"gte=0"`
	BonusHours    float64     `json:"bonus_hours" validate:"gte=0"`
	BibleStudies  int         `json:"bible_studies" validate:"gte=0"`
	ServiceType   ServiceType `json:"service_type" validate:"omitempty,servicetype"`
	Auxiliary     bool        `json:"auxiliary"`
	Note          string      `json:"note"`
}

// Prefer reports whether a should survive over b when both are stored for the same (publisher, month):
// the earliest created document wins, documents without a creation time lose, ties go to the smallest ID.
func Prefer(a, b ActivityReport) bool {
	switch {
	case a.CreatedAt.IsZero() != b.CreatedAt.IsZero():
		return !a.CreatedAt.IsZero()
	case !a.CreatedAt.Equal(b.CreatedAt):
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Dedupe keeps the preferred report of each (publisher, month), in the order they first appear.
func Dedupe(reports []ActivityReport) []ActivityReport {
	index := make(map[string]int, len(reports))
	deduped := make([]ActivityReport, 0, len(reports))
	for _, r := range reports {
		key := r.Key()
		i, ok := index[key]
		if !ok {
			index[key] = len(deduped)
			deduped = append(deduped, r)
			continue
		}
		if Prefer(r, deduped[i]) {
			deduped[i] = r
		}
	}
	return deduped
}
