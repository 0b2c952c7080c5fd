package wallet

import (
	"fmt"
	"strings"
	"time"

	"partner/internal/pkg/errs"
)

// Period scopes an aggregate to a calendar window ending now.
type Period string

const (
	Today Period = "today"
	Week  Period = "week"
	Month Period = "month"
)

func Periods() []Period {
	return []Period{Today, Week, Month}
}

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Today, Week, Month:
		return p, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("period", fmt.Errorf("%q is not one of today, week, month", s))
	}
}

// Start returns local midnight of the first day of the period containing now:
// today, the most recent Sunday, or the 1st of the month. now's location is used.
func (p Period) Start(now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	switch p {
	case Week:
		return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// Contains reports whether ts falls in [Start(now), now].
func (p Period) Contains(ts, now time.Time) bool {
	return !ts.Before(p.Start(now)) && !ts.After(now)
}
