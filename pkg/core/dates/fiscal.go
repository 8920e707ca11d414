package dates

import "fmt"

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English name of calendar month m in [1..12].
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// CalendarToFiscal maps a calendar month to its position [1..12] within
// a fiscal year starting at month s.
func CalendarToFiscal(c, s int) int {
	return ((c-s+12)%12 + 1)
}

// FiscalToCalendar is the inverse mapping: fiscal position k within a
// fiscal year starting at s back to the calendar month.
func FiscalToCalendar(k, s int) int {
	return ((s+k-2)%12 + 1)
}

// FiscalMonthOrder returns the twelve calendar months in fiscal order,
// starting at s and wrapping modulo 12.
func FiscalMonthOrder(s int) []int {
	order := make([]int, 12)
	for i := 0; i < 12; i++ {
		order[i] = ((s+i-1)%12 + 1)
	}
	return order
}

// DisplayMonth renders the display label for calendar month m under a
// fiscal year starting at s. A calendar fiscal year uses the bare month
// name; a shifted one appends the fiscal position.
func DisplayMonth(m, s int) string {
	if s == 1 {
		return MonthName(m)
	}
	return fmt.Sprintf("%s (FY Month %d)", MonthName(m), CalendarToFiscal(m, s))
}
