package calendar

import "time"

// FirstServiceMonth is the month a service year starts in.
const FirstServiceMonth = time.September

// ServiceYearOf returns the service year a calendar month belongs to.
// September through December belong to the following year's service year.
func ServiceYearOf(year int, month time.Month) int {
	if month >= FirstServiceMonth {
		return year + 1
	}
	return year
}

func ServiceYearOfMonth(m Month) int {
	return ServiceYearOf(m.Year, m.Month)
}

// ServiceYearBounds returns the first (September of fy-1) and last (August of fy) months of a service year.
func ServiceYearBounds(fy int) (from, to Month) {
	return Month{Year: fy - 1, Month: FirstServiceMonth}, Month{Year: fy, Month: time.August}
}

// MonthsOfServiceYear returns the 12 months of the service year fy, in chronological order.
func MonthsOfServiceYear(fy int) []Month {
	from, to := ServiceYearBounds(fy)
	return Range(from, to)
}
