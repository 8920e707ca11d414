// Package expand turns recurring revenue and expense patterns into dated
// occurrences for a target year. Daily patterns honor a strict precedence
// policy: explicit day-off overrides beat the days mask, which is then
// narrowed by weekend and holiday exclusions.
package expand

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fiscalsim/pkg/core/calendar"
	"fiscalsim/pkg/core/dates"
	"fiscalsim/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// Expander expands patterns against a holiday region.
type Expander struct {
	Region string
}

// New creates an expander for a holiday region. Unknown regions behave
// like the national set.
func New(region string) *Expander {
	if region == "" {
		region = calendar.RegionDefault
	}
	return &Expander{Region: region}
}

// ExpandRevenue expands one revenue pattern into date-sorted occurrences
// within [Jan 1, Dec 31] of year.
func (e *Expander) ExpandRevenue(p models.RevenuePattern, year int) ([]models.Occurrence, error) {
	rate := vatPercent(p.VATRate)
	return e.expand(p.PatternBase, year, models.KindRevenue, rate, "", false)
}

// ExpandExpense expands one expense pattern. The VAT amount is computed
// from the pattern rate (default 20%); VATDeductible decides downstream
// whether that VAT posts.
func (e *Expander) ExpandExpense(p models.ExpensePattern, year int) ([]models.Occurrence, error) {
	rate := vatPercent(p.VATRate)
	return e.expand(p.PatternBase, year, models.KindExpense, rate, p.Category, p.VATDeductible)
}

func vatPercent(r *float64) decimal.Decimal {
	if r == nil {
		return decimal.NewFromFloat(models.DefaultVATPercent)
	}
	return decimal.NewFromFloat(*r)
}

func (e *Expander) expand(
	p models.PatternBase,
	year int,
	kind models.PatternKind,
	ratePercent decimal.Decimal,
	category models.ExpenseCategory,
	deductible bool,
) ([]models.Occurrence, error) {

	days, err := e.scheduleDates(p, year)
	if err != nil {
		return nil, err
	}

	net, vat := SplitVAT(p.Amount, ratePercent)
	rateFraction := ratePercent.Div(hundred)

	occs := make([]models.Occurrence, 0, len(days))
	for _, d := range days {
		iso := dates.FormatISO(d)
		occs = append(occs, models.Occurrence{
			ID:            models.OccurrenceID(p.ID, iso),
			PatternID:     p.ID,
			PatternName:   p.Name,
			Date:          iso,
			Kind:          kind,
			Category:      category,
			GrossAmount:   p.Amount,
			VATRate:       rateFraction,
			VATAmount:     vat,
			NetAmount:     net,
			VATDeductible: deductible,
		})
	}
	return occs, nil
}

// SplitVAT separates a gross amount into net and VAT parts for a rate
// given in percent: vat = gross*r/(100+r), rounded half away from zero
// at the cent, net = gross - vat.
func SplitVAT(gross, ratePercent decimal.Decimal) (net, vat decimal.Decimal) {
	if ratePercent.IsZero() {
		return gross, decimal.Zero
	}
	vat = gross.Mul(ratePercent).DivRound(hundred.Add(ratePercent), 2)
	net = gross.Sub(vat)
	return net, vat
}

// scheduleDates computes the candidate dates for a pattern, sorted
// ascending. Non-daily frequencies land on the first of their month.
func (e *Expander) scheduleDates(p models.PatternBase, year int) ([]time.Time, error) {
	switch p.Frequency {
	case models.FrequencyMonthly:
		var out []time.Time
		for m := p.StartMonth; m <= 12; m++ {
			out = append(out, dates.FirstOfMonth(year, m))
		}
		return out, nil

	case models.FrequencyQuarterly:
		q := (p.StartMonth + 2) / 3
		var out []time.Time
		for ; q <= 4; q++ {
			out = append(out, dates.FirstOfMonth(year, 3*(q-1)+1))
		}
		return out, nil

	case models.FrequencyYearly:
		return []time.Time{dates.FirstOfMonth(year, p.StartMonth)}, nil

	case models.FrequencyDaily:
		return e.dailyDates(p, year)

	default:
		return nil, fmt.Errorf("unknown frequency %q for pattern %s", p.Frequency, p.ID)
	}
}

// dailyDates walks the expansion window applying the precedence policy.
func (e *Expander) dailyDates(p models.PatternBase, year int) ([]time.Time, error) {
	windowStart := dates.FirstOfMonth(year, 1)
	windowEnd := dates.LastOfMonth(year, 12)

	if p.StartDate != "" {
		start, err := dates.ParseISO(p.StartDate)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", p.ID, err)
		}
		if start.After(windowStart) {
			windowStart = start
		}
	}
	if windowStart.After(windowEnd) {
		return nil, nil
	}

	// Last duplicate wins.
	overrides := make(map[string]bool, len(p.DayOffOverrides))
	for _, o := range p.DayOffOverrides {
		overrides[o.Date] = o.Active
	}

	var holidays map[string]string
	if p.ExcludeHolidays {
		holidays = calendar.ForYear(year, e.Region)
	}

	var out []time.Time
	for d := windowStart; !d.After(windowEnd); d = dates.AddDays(d, 1) {
		iso := dates.FormatISO(d)

		if active, ok := overrides[iso]; ok {
			if active {
				out = append(out, d)
			}
			continue
		}

		dow := dates.Weekday(d)
		active := true
		if p.DaysMask != nil {
			active = *p.DaysMask != 0 && (*p.DaysMask>>dow)&1 == 1
		}
		if active && p.ExcludeWeekends && (dow == 0 || dow == 6) {
			active = false
		}
		if active && p.ExcludeHolidays {
			if _, hol := holidays[iso]; hol {
				active = false
			}
		}
		if active {
			out = append(out, d)
		}
	}
	return out, nil
}

// SortOccurrences orders a flattened occurrence list by date ascending,
// breaking ties by occurrence id for determinism.
func SortOccurrences(occs []models.Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		if occs[i].Date != occs[j].Date {
			return occs[i].Date < occs[j].Date
		}
		return occs[i].ID < occs[j].ID
	})
}
