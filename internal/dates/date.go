// Package dates holds the day-first calendar date type the ledger stores.
//
// Dates are persisted in the textual form "02.01.2006", which does not sort
// lexicographically; Key returns a year-month-day string that does.
package dates

import (
	"fmt"
	"time"
)

// Format is the wire and storage format for dates (day-first).
const Format = "02.01.2006"

// keyFormat sorts correctly as a plain string.
const keyFormat = "20060102"

// Date is a calendar date with day granularity.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month and day.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Today returns the current date.
func Today() Date { return New(time.Now().Date()) }

// Parse parses a strict day-first date string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Format, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want %s: %w", s, Format, err)
	}
	return New(t.Date()), nil
}

// MustParse is like Parse but panics on error. Test fixtures only.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// String formats the date in the day-first storage format.
func (d Date) String() string { return d.time().Format(Format) }

// Key returns a sortable year-month-day representation.
func (d Date) Key() string { return d.time().Format(keyFormat) }

// Year returns the year of the date.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

// Before reports whether d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// AddDays returns the date i days after d (i may be negative).
func (d Date) AddDays(i int) Date { return New(d.y, d.m, d.d+i) }

// DaysUntil returns the whole-day difference from d to x.
func (d Date) DaysUntil(x Date) int {
	return int(x.time().Sub(d.time()) / (24 * time.Hour))
}

// FirstOfMonth returns the first day of d's calendar month.
func (d Date) FirstOfMonth() Date { return New(d.y, d.m, 1) }

// MonthSpan returns the first and last day of the given calendar month.
func MonthSpan(month time.Month, year int) (first, last Date) {
	first = New(year, month, 1)
	last = New(year, month+1, 1).AddDays(-1)
	return first, last
}
