package clinic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2025-06-09 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.June, day, hour, minute, 0, 0, time.UTC)
}

func TestDefaultOfficeHoursBoundaries(t *testing.T) {
	h := DefaultOfficeHours()

	assert.True(t, h.IsBookable(at(9, 8, 0)), "opening minute is bookable")
	assert.True(t, h.IsBookable(at(9, 18, 59)), "one minute before close is bookable")
	assert.False(t, h.IsBookable(at(9, 19, 0)), "closing hour is exclusive")
	assert.False(t, h.IsBookable(at(9, 7, 59)))
	assert.False(t, h.IsBookable(at(14, 10, 0)), "saturday is closed")
	assert.False(t, h.IsBookable(at(15, 10, 0)), "sunday is closed")
	assert.True(t, h.IsBookable(at(13, 12, 0)), "friday is open")
	assert.True(t, h.IsFallback())
}

func TestParseOfficeHours(t *testing.T) {
	tests := []struct {
		name     string
		desc     string
		describe string
		open     []time.Time
		closed   []time.Time
	}{
		{
			name:     "german range with saturday",
			desc:     "Mo-Fr 9 bis 17 Uhr, Sa 9-13 Uhr",
			describe: "Mo-Fr 09:00-17:00 Uhr, Sa 09:00-13:00 Uhr",
			open:     []time.Time{at(9, 9, 0), at(14, 12, 59)},
			closed:   []time.Time{at(9, 17, 0), at(14, 13, 0), at(15, 10, 0)},
		},
		{
			name:     "english am pm",
			desc:     "Monday to Friday 8am to 7pm",
			describe: "Mo-Fr 08:00-19:00 Uhr",
			open:     []time.Time{at(10, 18, 59)},
			closed:   []time.Time{at(10, 19, 0), at(14, 10, 0)},
		},
		{
			name:     "hours without days use the work week",
			desc:     "Sprechzeiten 7:30 - 16:00",
			describe: "Mo-Fr 07:30-16:00 Uhr",
			open:     []time.Time{at(11, 7, 30)},
			closed:   []time.Time{at(11, 7, 29), at(11, 16, 0)},
		},
		{
			name:     "nine to five",
			desc:     "9 to 5",
			describe: "Mo-Fr 09:00-17:00 Uhr",
			open:     []time.Time{at(12, 16, 59)},
			closed:   []time.Time{at(12, 17, 0)},
		},
		{
			name:     "shared pm suffix",
			desc:     "Di 1-6pm",
			describe: "Di 13:00-18:00 Uhr",
			open:     []time.Time{at(10, 13, 0)},
			closed:   []time.Time{at(9, 14, 0), at(10, 12, 59)},
		},
		{
			name:     "daily",
			desc:     "täglich 10-20 Uhr",
			describe: "Mo-So 10:00-20:00 Uhr",
			open:     []time.Time{at(15, 10, 0)},
			closed:   []time.Time{at(15, 20, 0)},
		},
		{
			name:     "unparseable falls back to default",
			desc:     "Termine nach Vereinbarung",
			describe: "Mo-Fr 08:00-19:00 Uhr",
			open:     []time.Time{at(9, 8, 0)},
			closed:   []time.Time{at(9, 19, 0), at(14, 9, 0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ParseOfficeHours(tt.desc)
			assert.Equal(t, tt.describe, h.Describe())
			for _, ts := range tt.open {
				assert.True(t, IsBookable(ts, tt.desc), "expected open at %s", ts)
			}
			for _, ts := range tt.closed {
				assert.False(t, IsBookable(ts, tt.desc), "expected closed at %s", ts)
			}
		})
	}
}

func TestOfficeHoursQueries(t *testing.T) {
	h := ParseOfficeHours("Mo-Do 8-12 Uhr")

	assert.True(t, h.IsOpenDay(time.Thursday))
	assert.False(t, h.IsOpenDay(time.Friday))
	assert.True(t, h.AllowsTimeOfDay(11*60+59))
	assert.False(t, h.AllowsTimeOfDay(12*60))
	assert.False(t, h.IsFallback())

	w, ok := h.WindowFor(time.Monday)
	assert.True(t, ok)
	assert.Equal(t, Window{Start: 480, End: 720}, w)
}

func TestExpandDayRangeWraps(t *testing.T) {
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday, time.Monday}, expandDayRange(time.Saturday, time.Monday))
}
