package classify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/schedule"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testNight(t *testing.T) schedule.NightWindow {
	t.Helper()
	night, err := schedule.NewNightWindow("21:00", "06:00")
	require.NoError(t, err)
	return night
}

// standardDay is 06:00-10:00 + 10:00-14:00 (8 working hours).
func standardDay() schedule.DaySchedule {
	return schedule.DaySchedule{
		Enabled:   true,
		Morning:   schedule.Shift{Enabled: true, Start: 360, End: 600},
		Afternoon: schedule.Shift{Enabled: true, Start: 600, End: 840},
	}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestClassify_RecordedMatchesFixed_AllZero(t *testing.T) {
	// GIVEN: Recorded time identical to the contracted schedule
	// WHEN: Classifying a regular weekday
	// THEN: Every bucket is zero; base salary covers it all

	b := Classify(standardDay(), standardDay(), testNight(t), false)
	assert.True(t, b.IsZero(), "identical schedules should produce an all-zero breakdown, got %+v", b)
}

func TestClassify_DaytimeOvertime(t *testing.T) {
	// Recorded two extra daytime hours past the contracted end.
	worked := standardDay()
	worked.Afternoon.End = 960 // 16:00 instead of 14:00

	b := Classify(worked, standardDay(), testNight(t), false)
	assert.Equal(t, 120, b.ExtraDiurna)
	assert.Equal(t, 120, b.Total())
}

func TestClassify_OvertimeSpanningNightBoundary(t *testing.T) {
	// Extra work 19:00-23:00 splits at the 21:00 night start.
	worked := standardDay()
	worked.Afternoon = schedule.Shift{Enabled: true, Start: 600, End: 840}
	worked.Morning = schedule.Shift{Enabled: true, Start: 360, End: 600}
	extra := schedule.DaySchedule{
		Enabled:   true,
		Morning:   worked.Morning,
		Afternoon: schedule.Shift{Enabled: true, Start: 1140, End: 1380}, // 19:00-23:00
	}

	b := Classify(extra, standardDay(), testNight(t), false)
	assert.Equal(t, 120, b.ExtraDiurna, "19:00-21:00")
	assert.Equal(t, 120, b.ExtraNocturna, "21:00-23:00")
}

func TestClassify_ShiftWrappingMidnight(t *testing.T) {
	// 23:00-01:00 recorded on a day with no contracted shift: both
	// pieces fall inside the 21:00-06:00 night window.
	worked := schedule.DaySchedule{
		Enabled: true,
		Morning: schedule.Shift{Enabled: true, Start: 1380, End: 60},
	}
	off := schedule.DaySchedule{Enabled: false}

	b := Classify(worked, off, testNight(t), false)
	assert.Equal(t, 120, b.ExtraNocturna)
	assert.Equal(t, 120, b.Total())
}

func TestClassify_OrdinaryNightSurcharge(t *testing.T) {
	// Contracted shift reaching past 21:00: the late portion is ordinary
	// time but earns the night surcharge.
	fixed := schedule.DaySchedule{
		Enabled:   true,
		Morning:   schedule.Shift{Enabled: true, Start: 840, End: 1140},  // 14:00-19:00
		Afternoon: schedule.Shift{Enabled: true, Start: 1140, End: 1320}, // 19:00-22:00
	}

	b := Classify(fixed, fixed, testNight(t), false)
	assert.Equal(t, 60, b.RecargoNocturno, "21:00-22:00 ordinary night")
	assert.Equal(t, 0, b.ExtraDiurna)
	assert.Equal(t, 0, b.ExtraNocturna)
}

func TestClassify_HolidayWithDisabledFixed_AllExtra(t *testing.T) {
	// GIVEN: A holiday where the fixed schedule is disabled
	// WHEN: The employee works 06:00-13:45 (465 minutes)
	// THEN: Everything is holiday daytime overtime

	worked := schedule.DaySchedule{
		Enabled: true,
		Morning: schedule.Shift{Enabled: true, Start: 360, End: 825},
	}
	fixed := schedule.DaySchedule{Enabled: false, Morning: schedule.Shift{Enabled: true, Start: 360, End: 840}}

	b := Classify(worked, fixed, testNight(t), true)
	assert.Equal(t, 465, b.ExtraDiurnaFestivo)
	assert.Equal(t, 465, b.Total())
}

func TestClassify_HolidayOrdinaryTime(t *testing.T) {
	// Contracted Sunday work on a festivo: ordinary daytime earns
	// dominical_festivo, the late ordinary slice the night variant.
	fixed := schedule.DaySchedule{
		Enabled:   true,
		Morning:   schedule.Shift{Enabled: true, Start: 840, End: 1140},
		Afternoon: schedule.Shift{Enabled: true, Start: 1140, End: 1320}, // ends 22:00
	}

	b := Classify(fixed, fixed, testNight(t), true)
	assert.Equal(t, 420, b.DominicalFestivo, "14:00-21:00")
	assert.Equal(t, 60, b.RecargoNocturnoFestivo, "21:00-22:00")
	assert.Equal(t, 0, b.RecargoNocturno, "non-festivo buckets stay empty")
}

func TestClassify_HolidayOvertimeAtNight(t *testing.T) {
	worked := schedule.DaySchedule{
		Enabled: true,
		Morning: schedule.Shift{Enabled: true, Start: 1320, End: 1440}, // 22:00-24:00
	}
	fixed := schedule.DaySchedule{Enabled: false}

	b := Classify(worked, fixed, testNight(t), true)
	assert.Equal(t, 120, b.ExtraNocturnaFestivo)
}

func TestClassify_ZeroNightWindowDegrades(t *testing.T) {
	// No configured night window: night buckets collapse into day ones.
	worked := standardDay()
	worked.Afternoon.End = 1380 // work until 23:00

	b := Classify(worked, standardDay(), schedule.NightWindow{}, false)
	assert.Equal(t, 540, b.ExtraDiurna, "all overtime counts as daytime")
	assert.Equal(t, 0, b.ExtraNocturna)
	assert.Equal(t, 0, b.RecargoNocturno)
}

func TestClassify_DisabledWorkedDay_Empty(t *testing.T) {
	worked := schedule.DaySchedule{Enabled: false, Morning: schedule.Shift{Enabled: true, Start: 360, End: 840}}
	b := Classify(worked, standardDay(), testNight(t), false)
	assert.True(t, b.IsZero())
}

// =============================================================================
// BREAKDOWN HELPERS
// =============================================================================

func TestBreakdown_BucketAccess(t *testing.T) {
	var b Breakdown
	b = b.WithMinutes(ExtraDiurna, 90)
	b = b.WithMinutes(RecargoNocturno, 30)

	assert.Equal(t, 90, b.Minutes(ExtraDiurna))
	assert.Equal(t, 120, b.Total())
	assert.Equal(t, 90, b.OvertimeTotal(), "surcharge buckets are not overtime")
}

func TestOvertimeBuckets_PriorityOrder(t *testing.T) {
	// The bank drains overtime in this fixed order.
	assert.Equal(t, []Bucket{ExtraDiurna, ExtraNocturna, ExtraDiurnaFestivo, ExtraNocturnaFestivo}, OvertimeBuckets())
	for _, bucket := range OvertimeBuckets() {
		assert.True(t, bucket.IsOvertime(), bucket)
	}
	for _, bucket := range SurchargeBuckets() {
		assert.False(t, bucket.IsOvertime(), bucket)
	}
}

// =============================================================================
// RATE TABLE
// =============================================================================

func TestNormalizeRate_WholePercentages(t *testing.T) {
	// Values above 2 are read as whole percentages.
	assert.True(t, decimal.NewFromFloat(0.25).Equal(NormalizeRate(decimal.NewFromInt(25))))
	assert.True(t, decimal.NewFromFloat(0.25).Equal(NormalizeRate(decimal.NewFromFloat(0.25))))
	assert.True(t, decimal.NewFromFloat(1.5).Equal(NormalizeRate(decimal.NewFromFloat(1.5))))
	assert.True(t, decimal.NewFromFloat(1.5).Equal(NormalizeRate(decimal.NewFromInt(150))))
}

func TestRateTable_NilSafeLookup(t *testing.T) {
	var rates RateTable
	assert.True(t, rates.Percentage(ExtraDiurna).IsZero(), "nil table degrades to zero")

	rates = DefaultRates()
	assert.True(t, decimal.NewFromFloat(0.25).Equal(rates.Percentage(ExtraDiurna)))
	assert.True(t, decimal.NewFromFloat(0.35).Equal(rates.Percentage(RecargoNocturno)))
}
