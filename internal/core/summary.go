package core

import (
	"sort"
	"time"
)

// Summary is the headline figure for one sport (or all sports when Sport is empty).
type Summary struct {
	Sport    string
	Total    Money
	Count    int
	Wins     int
	Losses   int
	IsProfit bool
}

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date            time.Time
	DayNumber       int
	InMonth         bool
	Total           Money
	HasTransactions bool
}

// CalendarMonth is a 6x7 grid starting on the Sunday on or before the 1st.
type CalendarMonth struct {
	Year      int
	Month     int // 1-12
	Title     string
	Total     Money
	Days      []CalendarDay
	PrevYear  int
	PrevMonth int
	NextYear  int
	NextMonth int
}

const calendarCells = 42

// Total is the arithmetic sum of signed amounts.
func Total(txs []Transaction) Money {
	var sum Money
	for _, t := range txs {
		sum = sum.Add(t.Amount)
	}
	return sum
}

func Summarize(sport string, txs []Transaction) Summary {
	s := Summary{Sport: sport, Total: Total(txs), Count: len(txs)}
	for _, t := range txs {
		if t.Kind == Win {
			s.Wins++
		} else {
			s.Losses++
		}
	}
	s.IsProfit = s.Total.Cents >= 0
	return s
}

// DailyTotals groups the transactions that fall in year/month (in loc) by
// day of month. Days without transactions are absent from the map.
func DailyTotals(txs []Transaction, year, month int, loc *time.Location) map[int]Money {
	if loc == nil {
		loc = time.UTC
	}
	out := make(map[int]Money)
	for _, t := range txs {
		d := t.Date.In(loc)
		if d.Year() != year || int(d.Month()) != month {
			continue
		}
		out[d.Day()] = out[d.Day()].Add(t.Amount)
	}
	return out
}

func MonthlyTotal(txs []Transaction, year, month int, loc *time.Location) Money {
	var sum Money
	for _, m := range DailyTotals(txs, year, month, loc) {
		sum = sum.Add(m)
	}
	return sum
}

// ShiftMonth moves year/month by delta months.
func ShiftMonth(year, month, delta int) (int, int) {
	t := time.Date(year, time.Month(month)+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), int(t.Month())
}

func BuildCalendar(txs []Transaction, year, month int, loc *time.Location) CalendarMonth {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	// out-of-range months (e.g. 13) are normalised by time.Date
	year, month = first.Year(), int(first.Month())
	daily := DailyTotals(txs, year, month, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	cal := CalendarMonth{
		Year:  year,
		Month: month,
		Title: first.Format("January 2006"),
		Days:  make([]CalendarDay, 0, calendarCells),
	}
	cal.PrevYear, cal.PrevMonth = ShiftMonth(year, month, -1)
	cal.NextYear, cal.NextMonth = ShiftMonth(year, month, 1)

	for i := 0; i < calendarCells; i++ {
		day := start.AddDate(0, 0, i)
		inMonth := int(day.Month()) == month
		cell := CalendarDay{Date: day, DayNumber: day.Day(), InMonth: inMonth}
		if inMonth {
			total, ok := daily[day.Day()]
			cell.Total = total
			cell.HasTransactions = ok
		}
		cal.Days = append(cal.Days, cell)
	}
	for _, m := range daily {
		cal.Total = cal.Total.Add(m)
	}
	return cal
}

// MostUsedSport returns the sport with the most transactions dated within the
// month before now. Ties go to the sport that comes first in the catalogue;
// with no recent activity the fallback is returned.
func MostUsedSport(l Ledger, now time.Time, fallback string) string {
	since := now.AddDate(0, -1, 0)
	best, bestCount := fallback, 0
	for _, name := range sportOrder(l) {
		count := 0
		for _, t := range l[name] {
			if !t.Date.Before(since) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = name, count
		}
	}
	return best
}

// sportOrder lists catalogue sports first, then any other keys present in l.
func sportOrder(l Ledger) []string {
	seen := make(map[string]bool, len(DefaultSports))
	out := make([]string, 0, len(l))
	for _, s := range DefaultSports {
		seen[s.Name] = true
		out = append(out, s.Name)
	}
	var extra []string
	for name := range l {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
