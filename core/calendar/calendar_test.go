package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceYearOf(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 2024},
		{2024, time.August, 2024},
		{2024, time.September, 2025},
		{2024, time.December, 2025},
		{2025, time.March, 2025},
	}
	for _, tt := range tests {
		t.Run(NewMonth(tt.year, tt.month).String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ServiceYearOf(tt.year, tt.month))
		})
	}
}

func TestServiceYearOf_spanBoundaries(t *testing.T) {
	for year := 2019; year <= 2027; year++ {
		for month := time.January; month <= time.December; month++ {
			fy := ServiceYearOf(year, month)
			months := MonthsOfServiceYear(fy)
			require.Len(t, months, 12)
			assert.Contains(t, months, NewMonth(year, month))
			assert.Equal(t, time.September, months[0].Month)
			assert.Equal(t, time.August, months[11].Month)
		}
	}
}

func TestMonthsOfServiceYear(t *testing.T) {
	months := MonthsOfServiceYear(2025)
	require.Len(t, months, 12)
	assert.Equal(t, MustParseMonth("2024-09"), months[0])
	assert.Equal(t, MustParseMonth("2025-08"), months[11])

	seen := make(map[Month]bool, 12)
	for i, m := range months {
		assert.False(t, seen[m], "duplicate month %s", m)
		seen[m] = true
		if i > 0 {
			assert.True(t, months[i-1].Before(m), "%s should be before %s", months[i-1], m)
		}
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    Month
		wantErr bool
	}{
		{in: "2025-01", want: Month{2025, time.January}},
		{in: " 2024-12 ", want: Month{2024, time.December}},
		{in: "2024-12-25", want: Month{2024, time.December}},
		{in: "2024-13", wantErr: true},
		{in: "2024-00", wantErr: true},
		{in: "202401", wantErr: true},
		{in: "", wantErr: true},
		{in: "lol", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMonth)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonth_arithmetic(t *testing.T) {
	jan := MustParseMonth("2025-01")
	assert.Equal(t, MustParseMonth("2024-07"), jan.Add(-6))
	assert.Equal(t, MustParseMonth("2026-01"), jan.Add(12))
	assert.Equal(t, 6, jan.Sub(MustParseMonth("2024-07")))
	assert.True(t, jan.Contains(time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, jan.Contains(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, jan.Contains(time.Time{}))

	r := Range(MustParseMonth("2024-11"), MustParseMonth("2025-02"))
	assert.Equal(t, []Month{{2024, 11}, {2024, 12}, {2025, 1}, {2025, 2}}, r)
	assert.Nil(t, Range(jan, jan.Add(-1)))
}

func TestMonth_text(t *testing.T) {
	var m Month
	require.NoError(t, m.UnmarshalText([]byte("2025-03")))
	b, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2025-03", string(b))
	assert.Error(t, m.UnmarshalText([]byte("nope")))
}
