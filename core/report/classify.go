package report

import (
	"strings"

	"github.com/trezcool/ministry/core"
)

var serviceTypeAliases = map[string]ServiceType{
	"publisher":            TypePublisher,
	"publicador":           TypePublisher,
	"auxiliary pioneer":    TypeAuxiliaryPioneer,
	"auxiliary":            TypeAuxiliaryPioneer,
	"pioneiro auxiliar":    TypeAuxiliaryPioneer,
	"auxiliar":             TypeAuxiliaryPioneer,
	"regular pioneer":      TypeRegularPioneer,
	"regular":              TypeRegularPioneer,
	"pioneiro regular":     TypeRegularPioneer,
	"special pioneer":      TypeSpecialPioneer,
	"special":              TypeSpecialPioneer,
	"pioneiro especial":    TypeSpecialPioneer,
	"especial":             TypeSpecialPioneer,
	"missionary":           TypeMissionary,
	"missionario":          TypeMissionary,
	"missionario em campo": TypeMissionary,
}

var separatorReplacer = strings.NewReplacer("_", " ", "-", " ")

// ParseServiceType maps canonical & legacy labels to a ServiceType.
// Empty and unknown labels are plain publishers.
func ParseServiceType(s string) ServiceType {
	key := strings.Join(strings.Fields(separatorReplacer.Replace(core.FoldString(s))), " ")
	if st, ok := serviceTypeAliases[key]; ok {
		return st
	}
	return TypePublisher
}

// Classify maps a report to its aggregation category.
// The auxiliary pioneer type or flag always wins over any other declared tier.
func Classify(r ActivityReport) Category {
	st := ParseServiceType(string(r.ServiceType))
	if r.Auxiliary || st == TypeAuxiliaryPioneer {
		return CategoryAuxiliary
	}
	switch st {
	case TypeRegularPioneer, TypeSpecialPioneer, TypeMissionary:
		return CategoryRegular
	}
	return CategoryPublisher
}

// Predicate decides whether a report counts for a given computation.
type Predicate func(r ActivityReport) bool

// IsStrictlyValid is used by monthly aggregation: only an explicit participation counts.
func IsStrictlyValid(r ActivityReport) bool {
	return r.Participated
}

// IsValid is used by status inference: any sign of activity counts.
func IsValid(r ActivityReport) bool {
	return r.Participated || r.Hours > 0 || r.BibleStudies > 0
}

// HasEffect is used by the audit recomputation: participation or hours, studies alone do not count.
func HasEffect(r ActivityReport) bool {
	return r.Participated || r.Hours > 0
}
