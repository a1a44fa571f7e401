package calendar

import (
	"strings"
	"time"
)

// VeryOld is the date used in place of missing or malformed dates: treated as "a long time ago".
var VeryOld = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006", // dd/mm/yyyy
	"2006/01/02",
}

// ParseDate parses the date representations found in stored documents:
// time.Time, RFC 3339 & ISO dates, dd/mm/yyyy strings and unix timestamps in seconds or milliseconds.
// ok is false when v is empty or malformed.
func ParseDate(v interface{}) (t time.Time, ok bool) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return d.UTC(), !d.IsZero()
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return ParseDate(*d)
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		return time.Time{}, false
	case int64:
		return fromUnix(d)
	case int32:
		return fromUnix(int64(d))
	case int:
		return fromUnix(int64(d))
	case float64:
		return fromUnix(int64(d))
	}
	return time.Time{}, false
}

func fromUnix(n int64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	if n > 1e11 { // milliseconds
		return time.Unix(0, n*int64(time.Millisecond)).UTC(), true
	}
	return time.Unix(n, 0).UTC(), true
}

// DateOrVeryOld returns t, or VeryOld when t is zero.
func DateOrVeryOld(t time.Time) time.Time {
	if t.IsZero() {
		return VeryOld
	}
	return t
}
