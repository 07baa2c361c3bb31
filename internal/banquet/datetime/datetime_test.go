package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRangePullsToForward(t *testing.T) {
	from := Moment{Date: "2026-05-10", Time: "18:00"}
	to := Moment{Date: "2026-05-08", Time: "23:00"}

	gotFrom, gotTo := ReconcileRange(from, to)

	assert.Equal(t, from, gotFrom)
	assert.Equal(t, "2026-05-10", gotTo.Date)
	assert.Equal(t, "23:00", gotTo.Time, "later time on the new shared day stays")
}

func TestReconcileRangeCarriesTimeOnSameDay(t *testing.T) {
	from := Moment{Date: "2026-05-10", Time: "18:00"}
	to := Moment{Date: "2026-05-08", Time: "09:30"}

	_, gotTo := ReconcileRange(from, to)
	assert.Equal(t, Moment{Date: "2026-05-10", Time: "18:00"}, gotTo)
}

func TestReconcileRangeLeavesValidRange(t *testing.T) {
	from := Moment{Date: "2026-05-10", Time: "18:00"}
	to := Moment{Date: "2026-05-11", Time: "09:00"}

	_, gotTo := ReconcileRange(from, to)
	assert.Equal(t, to, gotTo)
}

func TestReconcileRangeIgnoresIncomplete(t *testing.T) {
	from := Moment{Date: "2026-05-10"}
	to := Moment{}

	_, gotTo := ReconcileRange(from, to)
	assert.Equal(t, Moment{}, gotTo)
}

func TestReconcileRangeNeedsBothDatesForTime(t *testing.T) {
	from := Moment{Date: "2026-05-10", Time: "18:00"}
	to := Moment{Time: "09:00"}

	_, gotTo := ReconcileRange(from, to)
	assert.Equal(t, to, gotTo)

	_, gotTo = ReconcileRange(Moment{Time: "18:00"}, to)
	assert.Equal(t, to, gotTo)
}

func TestRangeValid(t *testing.T) {
	assert.True(t, RangeValid(Moment{}, Moment{}))
	assert.True(t, RangeValid(
		Moment{Date: "2026-05-10", Time: "10:00"},
		Moment{Date: "2026-05-10", Time: "10:00"},
	))
	assert.False(t, RangeValid(
		Moment{Date: "2026-05-10", Time: "10:00"},
		Moment{Date: "2026-05-10", Time: "09:59"},
	))
	assert.False(t, RangeValid(
		Moment{Date: "2026-05-10", Time: "10:00"},
		Moment{Date: "2026-05-09", Time: "23:00"},
	))
}

func TestInstant(t *testing.T) {
	got, ok := Moment{Date: "2026-05-10", Time: "18:45"}.Instant()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 5, 10, 18, 45, 0, 0, time.UTC), got)

	got, ok = Moment{Date: "2026-05-10"}.Instant()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), got)

	_, ok = Moment{Time: "10:00"}.Instant()
	assert.False(t, ok)
}

func TestParseClockAcceptsSeconds(t *testing.T) {
	_, ok := ParseClock("18:45:10")
	assert.True(t, ok)
	_, ok = ParseClock("6pm")
	assert.False(t, ok)
}
