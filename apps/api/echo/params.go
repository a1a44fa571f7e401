package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
)

var nowFunc = time.Now // mockable

const (
	dateLayout = "2006-01-02"

	// maxRangeMonths caps ?from..to queries at 10 service years.
	maxRangeMonths = 120
)

func monthParam(ctx echo.Context, name string) (calendar.Month, error) {
	m, err := calendar.ParseMonth(ctx.Param(name))
	if err != nil {
		return calendar.Month{}, core.NewFieldValidationError(name, err)
	}
	return m, nil
}

// monthRangeQuery reads ?from=YYYY-MM&to=YYYY-MM. Both default to the current service year's bounds.
// The range holds at most maxRangeMonths months.
func monthRangeQuery(ctx echo.Context) (from, to calendar.Month, err error) {
	from, to = calendar.ServiceYearBounds(calendar.ServiceYearOfMonth(calendar.MonthOf(nowFunc().UTC())))
	if s := ctx.QueryParam("from"); s != "" {
		if from, err = calendar.ParseMonth(s); err != nil {
			return from, to, core.NewFieldValidationError("from", err)
		}
	}
	if s := ctx.QueryParam("to"); s != "" {
		if to, err = calendar.ParseMonth(s); err != nil {
			return from, to, core.NewFieldValidationError("to", err)
		}
	}
	if to.Before(from) {
		return from, to, core.NewFieldValidationError("to", errors.New("must not be before from"))
	}
	if to.Sub(from) >= maxRangeMonths {
		return from, to, core.NewFieldValidationError("to", errors.Errorf("must be within %d months of from", maxRangeMonths))
	}
	return from, to, nil
}

// runDateQuery reads ?date=YYYY-MM-DD, defaulting to today.
func runDateQuery(ctx echo.Context) (time.Time, error) {
	s := ctx.QueryParam("date")
	if s == "" {
		return nowFunc().UTC(), nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, core.NewFieldValidationError("date", errors.New("must be a date in the YYYY-MM-DD format"))
	}
	return d, nil
}

func serviceYearParam(ctx echo.Context) (int, error) {
	fy, err := strconv.Atoi(ctx.Param("fy"))
	if err != nil || fy < 1 {
		return 0, core.NewFieldValidationError("fy", errors.New("must be a service year, eg. 2025"))
	}
	return fy, nil
}
