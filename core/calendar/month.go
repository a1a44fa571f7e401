package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const monthLayout = "2006-01"

var ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")

// Month is a calendar month, the reference period of activity reports and aggregates.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}.normalize()
}

// MonthOf returns the calendar month containing t (in t's location).
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "YYYY-MM". Legacy "YYYY-MM-DD" values are truncated to their month.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if len(s) == len("2006-01-02") {
		s = s[:len(monthLayout)]
	}
	if len(s) != len(monthLayout) || s[4] != '-' {
		return Month{}, ErrInvalidMonth
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return Month{}, ErrInvalidMonth
	}
	m, err := strconv.Atoi(s[5:])
	if err != nil || m < 1 || m > 12 {
		return Month{}, ErrInvalidMonth
	}
	return Month{Year: y, Month: time.Month(m)}, nil
}

// MustParseMonth is like ParseMonth but panics on error. For tests & constants.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(fmt.Sprintf("calendar.MustParseMonth(%q): %v", s, err))
	}
	return m
}

func (m Month) normalize() Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Add returns the month n months after m (n may be negative).
func (m Month) Add(n int) Month {
	return Month{Year: m.Year, Month: m.Month + time.Month(n)}.normalize()
}

func (m Month) index() int { return m.Year*12 + int(m.Month) - 1 }

// Sub returns the number of months between o and m (m - o).
func (m Month) Sub(o Month) int { return m.index() - o.index() }

func (m Month) Before(o Month) bool { return m.index() < o.index() }
func (m Month) After(o Month) bool  { return m.index() > o.index() }

// FirstDay returns midnight UTC on the first day of the month.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls in m. t is compared by its own calendar date.
func (m Month) Contains(t time.Time) bool {
	return !t.IsZero() && t.Year() == m.Year && t.Month() == m.Month
}

// Range returns every month from `from` to `to`, both included, in chronological order.
func Range(from, to Month) []Month {
	n := to.Sub(from) + 1
	if n <= 0 {
		return nil
	}
	months := make([]Month, 0, n)
	for i := 0; i < n; i++ {
		months = append(months, from.Add(i))
	}
	return months
}

// MarshalText makes Month usable as a JSON string & map key.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
