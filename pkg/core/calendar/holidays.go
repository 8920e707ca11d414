// Package calendar computes French public holidays for a given year and
// region. The national set applies everywhere; the Alsace-Moselle
// departments (FR-67, FR-68, FR-57) add Good Friday and St. Stephen's Day.
package calendar

import (
	"time"

	"fiscalsim/pkg/core/dates"
)

// RegionDefault is the national holiday set.
const RegionDefault = "FR"

var alsaceMoselle = map[string]bool{
	"FR-67": true,
	"FR-68": true,
	"FR-57": true,
}

// IsRegional reports whether the region carries the Alsace-Moselle addenda.
// Unknown codes fall back to the national set, never an error.
func IsRegional(region string) bool {
	return alsaceMoselle[region]
}

// Easter computes Easter Sunday for a year using the Anonymous Gregorian
// (Meeus/Jones/Butcher) algorithm.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := ((h+l-7*m+114)%31 + 1)

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ForYear returns the holiday set for (year, region) as a map from ISO
// date to French display name. The returned map is shared via the memo
// cache and must not be mutated by callers.
func ForYear(year int, region string) map[string]string {
	if region == "" {
		region = RegionDefault
	}
	if set, ok := cache.get(year, region); ok {
		return set
	}

	easter := Easter(year)

	set := map[string]string{
		isoDate(year, time.January, 1):   "Jour de l'An",
		isoDate(year, time.May, 1):       "Fete du Travail",
		isoDate(year, time.May, 8):       "Victoire 1945",
		isoDate(year, time.July, 14):     "Fete Nationale",
		isoDate(year, time.August, 15):   "Assomption",
		isoDate(year, time.November, 1):  "Toussaint",
		isoDate(year, time.November, 11): "Armistice 1918",
		isoDate(year, time.December, 25): "Noel",

		dates.FormatISO(dates.AddDays(easter, 1)):  "Lundi de Paques",
		dates.FormatISO(dates.AddDays(easter, 39)): "Ascension",
		dates.FormatISO(dates.AddDays(easter, 50)): "Lundi de Pentecote",
	}

	if IsRegional(region) {
		set[dates.FormatISO(dates.AddDays(easter, -2))] = "Vendredi Saint"
		set[isoDate(year, time.December, 26)] = "Saint-Etienne"
	}

	cache.put(year, region, set)
	return set
}

// IsHoliday reports whether the ISO date is a holiday in the region.
func IsHoliday(date string, year int, region string) bool {
	_, ok := ForYear(year, region)[date]
	return ok
}

func isoDate(year int, month time.Month, day int) string {
	return dates.FormatISO(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}
