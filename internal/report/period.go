package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/opscheck/internal/errs"
	"github.com/opscheck/internal/ledger"
)

type PeriodKind string

const (
	KindDaily   PeriodKind = "daily"
	KindWeekly  PeriodKind = "weekly"
	KindMonthly PeriodKind = "monthly"
	KindYearly  PeriodKind = "yearly"
	KindCustom  PeriodKind = "custom"
)

const dateLayout = "2006-01-02"

// Period is the span a report covers. Use the constructors; the zero value
// is invalid.
type Period struct {
	Kind  PeriodKind
	Date  time.Time // daily
	Start time.Time // weekly, custom
	End   time.Time // custom
	Year  int       // monthly, yearly
	Month time.Month
}

func Daily(date time.Time) Period {
	return Period{Kind: KindDaily, Date: date}
}

// Weekly covers the 7 consecutive days starting at start.
func Weekly(start time.Time) Period {
	return Period{Kind: KindWeekly, Start: start}
}

func Monthly(year int, month time.Month) Period {
	return Period{Kind: KindMonthly, Year: year, Month: month}
}

func Yearly(year int) Period {
	return Period{Kind: KindYearly, Year: year}
}

// Custom covers start through end inclusive.
func Custom(start, end time.Time) Period {
	return Period{Kind: KindCustom, Start: start, End: end}
}

// Validate rejects malformed periods before any store access.
func (p Period) Validate() error {
	switch p.Kind {
	case KindDaily:
		if p.Date.IsZero() {
			return errs.Validation("date", "a date is required")
		}
	case KindWeekly:
		if p.Start.IsZero() {
			return errs.Validation("start", "a start date is required")
		}
	case KindMonthly:
		if p.Year < 1000 || p.Year > 9999 {
			return errs.Validation("year", "%d is not a valid 4-digit year", p.Year)
		}
		if p.Month < time.January || p.Month > time.December {
			return errs.Validation("month", "%d is not a valid month", int(p.Month))
		}
	case KindYearly:
		if p.Year < 1000 || p.Year > 9999 {
			return errs.Validation("year", "%d is not a valid 4-digit year", p.Year)
		}
	case KindCustom:
		if p.Start.IsZero() || p.End.IsZero() {
			return errs.Validation("start", "start and end dates are required")
		}
		if p.Start.After(p.End) {
			return errs.Validation("start", "start date must not be after end date")
		}
	default:
		return errs.Validation("type", "unknown report type %q", string(p.Kind))
	}
	return nil
}

// Range returns the first and last calendar day the period covers.
func (p Period) Range() (time.Time, time.Time) {
	switch p.Kind {
	case KindDaily:
		return p.Date, p.Date
	case KindWeekly:
		return p.Start, p.Start.AddDate(0, 0, 6)
	case KindMonthly:
		first := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.Local)
		return first, first.AddDate(0, 1, -1)
	case KindYearly:
		return time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.Local),
			time.Date(p.Year, time.December, 31, 0, 0, 0, 0, time.Local)
	default:
		return p.Start, p.End
	}
}

// Title renders the report heading for the period.
func (p Period) Title() string {
	start, end := p.Range()
	switch p.Kind {
	case KindDaily:
		return "Daily Health Check Report - " + p.Date.Format(dateLayout)
	case KindWeekly:
		return fmt.Sprintf("Weekly Health Check Report - %s to %s",
			start.Format(dateLayout), end.Format(dateLayout))
	case KindMonthly:
		return "Monthly Health Check Report - " + start.Format("2006-01")
	case KindYearly:
		return fmt.Sprintf("Yearly Health Check Report - %d", p.Year)
	default:
		return fmt.Sprintf("Custom Health Check Report - %s to %s",
			start.Format(dateLayout), end.Format(dateLayout))
	}
}

// ResolveKeys expands the period into one ledger key per calendar day, in
// ascending date order. Keys without a registered ledger are skipped later
// by the aggregator, not here.
func ResolveKeys(p Period) ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	start, end := p.Range()
	var keys []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		keys = append(keys, ledger.KeyFor(d))
	}
	return keys, nil
}

// ParseDate parses a YYYY-MM-DD value, naming field on failure.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, errs.Validation(field, "%q is not a valid date, want YYYY-MM-DD", value)
	}
	return t, nil
}

// ParseMonth parses a YYYY-MM value, naming field on failure.
func ParseMonth(field, value string) (int, time.Month, error) {
	t, err := time.ParseInLocation("2006-01", value, time.Local)
	if err != nil {
		return 0, 0, errs.Validation(field, "%q is not a valid month, want YYYY-MM", value)
	}
	return t.Year(), t.Month(), nil
}

// ParseYear parses a 4-digit year, naming field on failure.
func ParseYear(field, value string) (int, error) {
	year, err := strconv.Atoi(value)
	if err != nil || year < 1000 || year > 9999 {
		return 0, errs.Validation(field, "%q is not a valid 4-digit year", value)
	}
	return year, nil
}
