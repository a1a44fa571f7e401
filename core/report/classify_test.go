package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseServiceType(t *testing.T) {
	tests := []struct {
		label string
		want  ServiceType
	}{
		{label: "", want: TypePublisher},
		{label: "Publicador", want: TypePublisher},
		{label: "publisher", want: TypePublisher},
		{label: "Pioneiro Auxiliar", want: TypeAuxiliaryPioneer},
		{label: "auxiliary_pioneer", want: TypeAuxiliaryPioneer},
		{label: "  pioneiro-regular ", want: TypeRegularPioneer},
		{label: "Pioneiro Especial", want: TypeSpecialPioneer},
		{label: "Missionário em Campo", want: TypeMissionary},
		{label: "MISSIONARY", want: TypeMissionary},
		{label: "circuit overseer", want: TypePublisher},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseServiceType(tt.label))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		r    ActivityReport
		want Category
	}{
		{name: "unset", r: ActivityReport{}, want: CategoryPublisher},
		{name: "publisher", r: ActivityReport{ServiceType: TypePublisher}, want: CategoryPublisher},
		{name: "auxiliary type", r: ActivityReport{ServiceType: TypeAuxiliaryPioneer}, want: CategoryAuxiliary},
		{name: "auxiliary flag", r: ActivityReport{ServiceType: TypePublisher, Auxiliary: true}, want: CategoryAuxiliary},
		{name: "auxiliary flag wins over regular", r: ActivityReport{ServiceType: TypeRegularPioneer, Auxiliary: true}, want: CategoryAuxiliary},
		{name: "regular", r: ActivityReport{ServiceType: TypeRegularPioneer}, want: CategoryRegular},
		{name: "special", r: ActivityReport{ServiceType: TypeSpecialPioneer}, want: CategoryRegular},
		{name: "missionary", r: ActivityReport{ServiceType: TypeMissionary}, want: CategoryRegular},
		{name: "legacy label", r: ActivityReport{ServiceType: "Pioneiro Regular"}, want: CategoryRegular},
		{name: "unknown label", r: ActivityReport{ServiceType: "lol"}, want: CategoryPublisher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.r))
		})
	}

	// every declared type maps to exactly one category
	for _, st := range AllServiceTypes {
		assert.Contains(t, AllCategories, Classify(ActivityReport{ServiceType: st}))
		assert.Equal(t, CategoryAuxiliary, Classify(ActivityReport{ServiceType: st, Auxiliary: true}))
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name                          string
		r                             ActivityReport
		wantStrict, wantValid, effect bool
	}{
		{name: "empty", r: ActivityReport{}},
		{name: "participated", r: ActivityReport{Participated: true}, wantStrict: true, wantValid: true, effect: true},
		{name: "hours only", r: ActivityReport{Hours: 5}, wantValid: true, effect: true},
		{name: "studies only", r: ActivityReport{BibleStudies: 1}, wantValid: true},
		{name: "bonus hours only", r: ActivityReport{BonusHours: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStrict, IsStrictlyValid(tt.r))
			assert.Equal(t, tt.wantValid, IsValid(tt.r))
			assert.Equal(t, tt.effect, HasEffect(tt.r))
		})
	}
}
