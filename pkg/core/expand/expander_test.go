package expand

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscalsim/pkg/core/calendar"
	"fiscalsim/pkg/core/dates"
	"fiscalsim/pkg/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func revenuePattern(id string, amount string, freq models.Frequency, startMonth int) models.RevenuePattern {
	return models.RevenuePattern{
		PatternBase: models.PatternBase{
			ID:         id,
			Name:       "Pattern " + id,
			Amount:     dec(amount),
			Frequency:  freq,
			StartMonth: startMonth,
		},
		VATRate: floatPtr(20),
	}
}

func TestSplitVAT(t *testing.T) {
	tests := []struct {
		gross, rate, net, vat string
	}{
		{"12000", "20", "10000", "2000"},
		{"2400", "20", "2000", "400"},
		{"600", "20", "500", "100"},
		{"1055", "5.5", "1000", "55"},
		{"1100", "10", "1000", "100"},
		{"1200", "0", "1200", "0"},
		// Rounding at the cent, half away from zero.
		{"100", "20", "83.33", "16.67"},
		{"0.01", "20", "0.01", "0"},
	}
	for _, tt := range tests {
		net, vat := SplitVAT(dec(tt.gross), dec(tt.rate))
		assert.True(t, net.Equal(dec(tt.net)), "net of %s@%s%%: got %s want %s", tt.gross, tt.rate, net, tt.net)
		assert.True(t, vat.Equal(dec(tt.vat)), "vat of %s@%s%%: got %s want %s", tt.gross, tt.rate, vat, tt.vat)
		assert.True(t, net.Add(vat).Equal(dec(tt.gross)), "net+vat must equal gross")
	}
}

func TestMonthlySchedule(t *testing.T) {
	e := New("FR")
	occs, err := e.ExpandRevenue(revenuePattern("m1", "12000", models.FrequencyMonthly, 1), 2024)
	require.NoError(t, err)
	require.Len(t, occs, 12)
	assert.Equal(t, "2024-01-01", occs[0].Date)
	assert.Equal(t, "2024-12-01", occs[11].Date)
	for _, o := range occs {
		assert.True(t, o.NetAmount.Equal(dec("10000")))
		assert.True(t, o.VATAmount.Equal(dec("2000")))
		assert.Equal(t, models.KindRevenue, o.Kind)
		assert.Equal(t, models.OccurrenceID("m1", o.Date), o.ID)
	}

	occs, err = e.ExpandRevenue(revenuePattern("m2", "100", models.FrequencyMonthly, 10), 2024)
	require.NoError(t, err)
	require.Len(t, occs, 3)
	assert.Equal(t, "2024-10-01", occs[0].Date)
}

func TestQuarterlySchedule(t *testing.T) {
	e := New("FR")
	tests := []struct {
		startMonth int
		dates      []string
	}{
		{1, []string{"2024-01-01", "2024-04-01", "2024-07-01", "2024-10-01"}},
		{3, []string{"2024-01-01", "2024-04-01", "2024-07-01", "2024-10-01"}},
		{4, []string{"2024-04-01", "2024-07-01", "2024-10-01"}},
		{11, []string{"2024-10-01"}},
	}
	for _, tt := range tests {
		occs, err := e.ExpandRevenue(revenuePattern("q", "15000", models.FrequencyQuarterly, tt.startMonth), 2024)
		require.NoError(t, err)
		got := make([]string, len(occs))
		for i, o := range occs {
			got[i] = o.Date
		}
		assert.Equal(t, tt.dates, got, "startMonth %d", tt.startMonth)
	}
}

func TestYearlySchedule(t *testing.T) {
	e := New("FR")
	occs, err := e.ExpandRevenue(revenuePattern("y", "5000", models.FrequencyYearly, 9), 2024)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, "2024-09-01", occs[0].Date)
}

func TestRevenueDefaultsTo20Percent(t *testing.T) {
	e := New("FR")
	p := revenuePattern("d", "1200", models.FrequencyYearly, 1)
	p.VATRate = nil
	occs, err := e.ExpandRevenue(p, 2024)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.True(t, occs[0].VATAmount.Equal(dec("200")))
	assert.True(t, occs[0].VATRate.Equal(dec("0.2")))
}

func dailyPattern(mask *int, weekends, holidays bool) models.RevenuePattern {
	return models.RevenuePattern{
		PatternBase: models.PatternBase{
			ID:              "daily",
			Name:            "Daily sales",
			Amount:          dec("120"),
			Frequency:       models.FrequencyDaily,
			StartMonth:      1,
			DaysMask:        mask,
			ExcludeWeekends: weekends,
			ExcludeHolidays: holidays,
		},
		VATRate: floatPtr(20),
	}
}

func TestDailyFullMask(t *testing.T) {
	// All seven bits set, nothing excluded: one occurrence per day.
	e := New("FR")
	occs, err := e.ExpandRevenue(dailyPattern(intPtr(0b1111111), false, false), 2024)
	require.NoError(t, err)
	assert.Len(t, occs, 366) // 2024 is a leap year

	occs, err = e.ExpandRevenue(dailyPattern(intPtr(0b1111111), false, false), 2023)
	require.NoError(t, err)
	assert.Len(t, occs, 365)
}

func TestDailyExclusionsMatchRederivedCount(t *testing.T) {
	e := New("FR")
	occs, err := e.ExpandRevenue(dailyPattern(intPtr(0b1111111), true, true), 2024)
	require.NoError(t, err)

	weekends := 0
	weekdayHolidays := 0
	holidays := calendar.ForYear(2024, "FR")
	for d := dates.FirstOfMonth(2024, 1); d.Year() == 2024; d = dates.AddDays(d, 1) {
		if dates.IsWeekend(d) {
			weekends++
		} else if _, ok := holidays[dates.FormatISO(d)]; ok {
			weekdayHolidays++
		}
	}
	assert.Equal(t, 366-weekends-weekdayHolidays, len(occs))
}

func TestDailyZeroMaskProducesNothing(t *testing.T) {
	e := New("FR")
	occs, err := e.ExpandRevenue(dailyPattern(intPtr(0), false, false), 2024)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestDailyNilMaskTreatsEveryDayActive(t *testing.T) {
	e := New("FR")
	occs, err := e.ExpandRevenue(dailyPattern(nil, false, false), 2023)
	require.NoError(t, err)
	assert.Len(t, occs, 365)
}

func TestDailyWeekdayMask(t *testing.T) {
	// Monday..Friday mask: bit 0 is Sunday.
	e := New("FR")
	occs, err := e.ExpandRevenue(dailyPattern(intPtr(0b0111110), false, false), 2024)
	require.NoError(t, err)
	for _, o := range occs {
		d, err := dates.ParseISO(o.Date)
		require.NoError(t, err)
		assert.False(t, dates.IsWeekend(d), "weekend date %s leaked through mask", o.Date)
	}
}

func TestDailyStartDateBoundsWindow(t *testing.T) {
	e := New("FR")
	p := dailyPattern(intPtr(0b1111111), false, false)
	p.StartDate = "2024-12-30"
	occs, err := e.ExpandRevenue(p, 2024)
	require.NoError(t, err)
	assert.Len(t, occs, 2) // Dec 30 and 31, window end inclusive

	// A start date in an earlier year clamps to Jan 1.
	p.StartDate = "2020-06-15"
	occs, err = e.ExpandRevenue(p, 2024)
	require.NoError(t, err)
	assert.Len(t, occs, 366)

	// A start date after year end empties the window.
	p.StartDate = "2025-01-01"
	occs, err = e.ExpandRevenue(p, 2024)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestOverrideBeatsEverything(t *testing.T) {
	e := New("FR")

	// Labour Day 2024 falls on a Wednesday and is excluded by the
	// holiday rule, but an active override forces the occurrence.
	p := dailyPattern(intPtr(0b0111110), false, true)
	p.DayOffOverrides = []models.DayOffOverride{{Date: "2024-05-01", Active: true, Reason: "exceptional opening"}}
	occs, err := e.ExpandRevenue(p, 2024)
	require.NoError(t, err)
	assert.True(t, hasDate(occs, "2024-05-01"))

	// Without the override the holiday wins.
	p.DayOffOverrides = nil
	occs, err = e.ExpandRevenue(p, 2024)
	require.NoError(t, err)
	assert.False(t, hasDate(occs, "2024-05-01"))

	// An inactive override suppresses an otherwise active date.
	p.DayOffOverrides = []models.DayOffOverride{{Date: "2024-05-02", Active: false}}
	occs, err = e.ExpandRevenue(p, 2024)
	require.NoError(t, err)
	assert.False(t, hasDate(occs, "2024-05-02"))
}

func TestOverrideLastDuplicateWins(t *testing.T) {
	e := New("FR")
	p := dailyPattern(intPtr(0b1111111), false, false)
	p.DayOffOverrides = []models.DayOffOverride{
		{Date: "2024-03-15", Active: true},
		{Date: "2024-03-15", Active: false},
	}
	occs, err := e.ExpandRevenue(p, 2024)
	require.NoError(t, err)
	assert.False(t, hasDate(occs, "2024-03-15"))
}

func TestExpenseOccurrence(t *testing.T) {
	e := New("FR")
	p := models.ExpensePattern{
		PatternBase: models.PatternBase{
			ID:         "rent",
			Name:       "Office rent",
			Amount:     dec("2400"),
			Frequency:  models.FrequencyMonthly,
			StartMonth: 1,
		},
		Category:      models.CategoryRent,
		VATDeductible: true,
	}
	occs, err := e.ExpandExpense(p, 2024)
	require.NoError(t, err)
	require.Len(t, occs, 12)
	o := occs[0]
	assert.Equal(t, models.KindExpense, o.Kind)
	assert.Equal(t, models.CategoryRent, o.Category)
	assert.True(t, o.NetAmount.Equal(dec("2000")))
	assert.True(t, o.VATAmount.Equal(dec("400")))
	assert.True(t, o.VATDeductible)
}

func TestExpenseExplicitZeroRate(t *testing.T) {
	e := New("FR")
	p := models.ExpensePattern{
		PatternBase: models.PatternBase{
			ID:         "ins",
			Name:       "Insurance",
			Amount:     dec("1200"),
			Frequency:  models.FrequencyQuarterly,
			StartMonth: 1,
		},
		Category: models.CategoryInsurance,
		VATRate:  floatPtr(0),
	}
	occs, err := e.ExpandExpense(p, 2024)
	require.NoError(t, err)
	require.Len(t, occs, 4)
	assert.True(t, occs[0].NetAmount.Equal(dec("1200")))
	assert.True(t, occs[0].VATAmount.IsZero())
}

func TestSortOccurrences(t *testing.T) {
	occs := []models.Occurrence{
		{ID: "b-2024-02-01", Date: "2024-02-01"},
		{ID: "a-2024-01-01", Date: "2024-01-01"},
		{ID: "a-2024-02-01", Date: "2024-02-01"},
	}
	SortOccurrences(occs)
	assert.Equal(t, "a-2024-01-01", occs[0].ID)
	assert.Equal(t, "a-2024-02-01", occs[1].ID)
	assert.Equal(t, "b-2024-02-01", occs[2].ID)
}

func hasDate(occs []models.Occurrence, date string) bool {
	for _, o := range occs {
		if o.Date == date {
			return true
		}
	}
	return false
}

func TestDatesAreSortedAscending(t *testing.T) {
	e := New("FR")
	occs, err := e.ExpandRevenue(dailyPattern(intPtr(0b1111111), true, false), 2024)
	require.NoError(t, err)
	var prev time.Time
	for _, o := range occs {
		d, err := dates.ParseISO(o.Date)
		require.NoError(t, err)
		assert.True(t, d.After(prev), "dates must strictly ascend")
		prev = d
	}
}
