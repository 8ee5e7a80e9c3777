package subscription

import (
	"errors"
	"fmt"
	"time"
)

// Cycle is a subscription billing period.
type Cycle string

const (
	CycleMonthly Cycle = "monthly"
	CycleYearly  Cycle = "yearly"
)

// ErrInvalidCycle is returned for billing cycle values other than
// monthly/yearly. Date arithmetic fails fast on it rather than looping.
var ErrInvalidCycle = errors.New("invalid billing cycle")

func (c Cycle) Valid() bool {
	return c == CycleMonthly || c == CycleYearly
}

// AddCycle advances d by one billing period, normalized to UTC midnight.
// Month arithmetic clamps to the last day of the target month: Jan 31 +
// monthly yields Feb 29 on leap years and Feb 28 otherwise. Feb 29 + yearly
// yields Feb 28.
func AddCycle(d time.Time, c Cycle) (time.Time, error) {
	switch c {
	case CycleMonthly:
		return addMonthsClamped(midnightUTC(d), 1), nil
	case CycleYearly:
		return addMonthsClamped(midnightUTC(d), 12), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCycle, c)
	}
}

// RollForward returns the first charge date strictly after asOf, counting
// whole cycles from start. Cycles are counted from the original start date,
// so an end-of-month anchor is re-clamped per target month rather than
// drifting (Jan 31 rolls to Feb 29, Mar 31, Apr 30, ...).
func RollForward(start time.Time, c Cycle, asOf time.Time) (time.Time, error) {
	if !c.Valid() {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCycle, c)
	}

	months := 1
	if c == CycleYearly {
		months = 12
	}

	start = midnightUTC(start)
	asOf = midnightUTC(asOf)

	next := start
	for i := 1; !next.After(asOf); i++ {
		next = addMonthsClamped(start, i*months)
	}
	return next, nil
}

// DaysBetween returns the calendar-day difference b-a. Both dates are
// normalized to UTC midnight first so DST transitions cannot skew the count.
func DaysBetween(a, b time.Time) int {
	return int(midnightUTC(b).Sub(midnightUTC(a)).Hours() / 24)
}

func addMonthsClamped(d time.Time, months int) time.Time {
	y, m, day := d.Date()
	anchor := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if last := daysIn(anchor.Year(), anchor.Month()); day > last {
		day = last
	}
	return time.Date(anchor.Year(), anchor.Month(), day, 0, 0, 0, 0, time.UTC)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
