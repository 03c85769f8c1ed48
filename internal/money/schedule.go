package money

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Interval enumerates recurring billing intervals.
type Interval string

const (
	IntervalMonthly   Interval = "monthly"
	IntervalQuarterly Interval = "quarterly"
	IntervalYearly    Interval = "yearly"
)

// ParseInterval validates a recurring interval string.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case IntervalMonthly, IntervalQuarterly, IntervalYearly:
		return Interval(s), nil
	}
	return "", fmt.Errorf("money: unknown recurring interval %q", s)
}

// NextRecurringDate advances a date by one billing interval.
//
// Calendar arithmetic uses time.Time.AddDate, which normalises overflow past
// the end of the month: Jan 31 + 1 month is Mar 2 (Mar 3 in leap years).
// This matches the rollover behaviour invoices were generated with
// historically; do not clamp to month end.
func NextRecurringDate(t time.Time, interval Interval) time.Time {
	switch interval {
	case IntervalMonthly:
		return t.AddDate(0, 1, 0)
	case IntervalQuarterly:
		return t.AddDate(0, 3, 0)
	case IntervalYearly:
		return t.AddDate(1, 0, 0)
	}
	return t
}

// IsOverdue reports whether a due date has passed.
func IsOverdue(dueDate, now time.Time) bool {
	return dueDate.Before(now)
}

// DaysOverdue returns the number of days past due, rounded up.
func DaysOverdue(dueDate, now time.Time) int {
	diff := now.Sub(dueDate)
	return int(math.Ceil(diff.Hours() / 24))
}

// GenerateInvoiceNumber produces a human-readable invoice number,
// INV-YYYYMM-xxxx, where the suffix is derived from the clock to keep
// concurrently generated numbers distinct.
func GenerateInvoiceNumber(now time.Time) string {
	suffix := strconv.FormatInt(now.UnixMilli(), 10)
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return fmt.Sprintf("INV-%04d%02d-%s", now.Year(), int(now.Month()), suffix)
}

// RecurringNumber derives the invoice number for a spawned recurring invoice
// from its template's number plus a run suffix.
func RecurringNumber(templateNumber string, now time.Time) string {
	suffix := strconv.FormatInt(now.UnixMilli(), 10)
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return fmt.Sprintf("%s-R%s", templateNumber, suffix)
}
