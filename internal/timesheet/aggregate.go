// Package timesheet computes derived totals over time-entry snapshots.
// Everything here is pure and synchronous; callers recompute on every new
// snapshot rather than on a timer.
package timesheet

import (
	"strconv"

	"github.com/hourstack-io/hourstack/internal/modules/model"
)

// Rate is a user's hourly pay rate. Set distinguishes "no rate configured"
// from a rate of zero; an unset rate always yields zero earnings.
type Rate struct {
	Set   bool    `json:"set"`
	Value float64 `json:"value"`
}

// RateOf builds a Rate from a profile's optional hourly rate field.
func RateOf(hourlyRate *float64) Rate {
	if hourlyRate == nil {
		return Rate{}
	}
	return Rate{Set: true, Value: *hourlyRate}
}

// TotalHours sums the hours of all entries. Hours are stored as user-entered
// text; a value that does not parse contributes zero, not an error.
func TotalHours(entries []model.TimeEntry) float64 {
	var total float64
	for _, e := range entries {
		h, err := strconv.ParseFloat(e.Hours, 64)
		if err != nil {
			continue
		}
		total += h
	}
	return total
}

// Earnings multiplies the total hours by the rate when one is set.
func Earnings(entries []model.TimeEntry, rate Rate) float64 {
	if !rate.Set {
		return 0
	}
	return TotalHours(entries) * rate.Value
}
