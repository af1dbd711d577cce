package timesheet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hourstack-io/hourstack/internal/modules/model"
)

func entriesWithHours(hours ...string) []model.TimeEntry {
	entries := make([]model.TimeEntry, 0, len(hours))
	for _, h := range hours {
		entries = append(entries, model.TimeEntry{Hours: h})
	}
	return entries
}

func TestTotalHours(t *testing.T) {
	tests := []struct {
		name  string
		hours []string
		want  float64
	}{
		{name: "empty", hours: nil, want: 0},
		{name: "simple sum", hours: []string{"2", "1.5"}, want: 3.5},
		{name: "unparsable contributes zero", hours: []string{"2", "1.5", ""}, want: 3.5},
		{name: "garbage contributes zero", hours: []string{"abc", "3"}, want: 3},
		{name: "all unparsable", hours: []string{"", "x"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TotalHours(entriesWithHours(tt.hours...)), 1e-9)
		})
	}
}

func TestEarnings(t *testing.T) {
	entries := entriesWithHours("2", "1.5")

	t.Run("unset rate yields zero", func(t *testing.T) {
		assert.Zero(t, Earnings(entries, Rate{}))
	})

	t.Run("zero rate is a real rate", func(t *testing.T) {
		assert.Zero(t, Earnings(entries, Rate{Set: true, Value: 0}))
	})

	t.Run("set rate multiplies total", func(t *testing.T) {
		assert.InDelta(t, 175.0, Earnings(entries, Rate{Set: true, Value: 50}), 1e-9)
	})
}

func TestRateOf(t *testing.T) {
	assert.Equal(t, Rate{}, RateOf(nil))

	zero := 0.0
	assert.Equal(t, Rate{Set: true, Value: 0}, RateOf(&zero))

	fifty := 50.0
	assert.Equal(t, Rate{Set: true, Value: 50}, RateOf(&fifty))
}
