package core

import (
	"testing"
	"time"
)

func tx(id int64, cents int64, sport string, at time.Time) Transaction {
	k := Win
	if cents < 0 {
		k = Loss
	}
	return Transaction{ID: id, Amount: Money{Cents: cents}, Sport: sport, Kind: k, Date: at}
}

func TestTotalIsSumOfSignedAmounts(t *testing.T) {
	if got := Total(nil); got.Cents != 0 {
		t.Fatalf("empty total = %d, want 0", got.Cents)
	}
	now := time.Now()
	txs := []Transaction{tx(1, 1000, "NBA", now), tx(2, -250, "NBA", now), tx(3, -1000, "NBA", now)}
	if got := Total(txs); got.Cents != -250 {
		t.Fatalf("total = %d, want -250", got.Cents)
	}

	s := Summarize("NBA", txs)
	if s.Wins != 1 || s.Losses != 2 || s.Count != 3 || s.IsProfit {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if !Summarize("NBA", nil).IsProfit {
		t.Fatalf("a zero total is shown as profit")
	}
}

func TestDailyTotals(t *testing.T) {
	d := func(m time.Month, day, hour int) time.Time { return time.Date(2025, m, day, hour, 0, 0, 0, time.UTC) }
	txs := []Transaction{
		tx(1, 500, "NBA", d(3, 1, 10)),
		tx(2, -200, "NBA", d(3, 1, 18)),
		tx(3, -700, "NBA", d(3, 15, 9)),
		tx(4, 999, "NBA", d(4, 1, 9)),
		tx(5, 100, "NBA", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	daily := DailyTotals(txs, 2025, 3, time.UTC)
	if len(daily) != 2 {
		t.Fatalf("expected 2 days with activity, got %d", len(daily))
	}
	if daily[1].Cents != 300 || daily[15].Cents != -700 {
		t.Fatalf("unexpected daily totals: %+v", daily)
	}
	if got := MonthlyTotal(txs, 2025, 3, time.UTC); got.Cents != -400 {
		t.Fatalf("monthly total = %d, want -400", got.Cents)
	}
}

func TestDailyTotalsUsesLocation(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	// 02:00 UTC on the 2nd is still the 1st in New York.
	txs := []Transaction{tx(1, 100, "NBA", time.Date(2025, 3, 2, 2, 0, 0, 0, time.UTC))}
	if got := DailyTotals(txs, 2025, 3, ny); got[1].Cents != 100 {
		t.Fatalf("expected bucket on day 1 in EST, got %+v", got)
	}
	if got := DailyTotals(txs, 2025, 3, time.UTC); got[2].Cents != 100 {
		t.Fatalf("expected bucket on day 2 in UTC, got %+v", got)
	}
}

func TestBuildCalendar(t *testing.T) {
	// March 2025 starts on a Saturday, so the grid opens on Sunday 23 Feb.
	txs := []Transaction{
		tx(1, 1200, "NBA", time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)),
		tx(2, -1200, "NBA", time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)),
		tx(3, 1200, "NBA", time.Date(2025, 3, 9, 13, 0, 0, 0, time.UTC)),
		tx(4, 50, "NBA", time.Date(2025, 2, 23, 13, 0, 0, 0, time.UTC)),
	}
	cal := BuildCalendar(txs, 2025, 3, time.UTC)
	if len(cal.Days) != 42 {
		t.Fatalf("expected 42 cells, got %d", len(cal.Days))
	}
	first := cal.Days[0]
	if first.DayNumber != 23 || first.InMonth || first.HasTransactions || first.Date.Weekday() != time.Sunday {
		t.Fatalf("unexpected first cell: %+v", first)
	}
	if cal.Title != "March 2025" || cal.Total.Cents != 1200 {
		t.Fatalf("unexpected header: %q total=%d", cal.Title, cal.Total.Cents)
	}
	var eighth, ninth CalendarDay
	for _, c := range cal.Days {
		if c.InMonth && c.DayNumber == 8 {
			eighth = c
		}
		if c.InMonth && c.DayNumber == 9 {
			ninth = c
		}
	}
	if !eighth.HasTransactions || eighth.Total.Cents != 1200 {
		t.Fatalf("unexpected cell for the 8th: %+v", eighth)
	}
	// a day whose bets net to zero still shows as having transactions
	if !ninth.HasTransactions || ninth.Total.Cents != 0 {
		t.Fatalf("unexpected cell for the 9th: %+v", ninth)
	}
	if cal.PrevYear != 2025 || cal.PrevMonth != 2 || cal.NextMonth != 4 {
		t.Fatalf("unexpected navigation: %+v", cal)
	}
}

func TestShiftMonth(t *testing.T) {
	cases := []struct{ y, m, d, wy, wm int }{
		{2025, 1, -1, 2024, 12},
		{2025, 12, 1, 2026, 1},
		{2025, 6, 0, 2025, 6},
		{2025, 3, -15, 2023, 12},
	}
	for _, c := range cases {
		y, m := ShiftMonth(c.y, c.m, c.d)
		if y != c.wy || m != c.wm {
			t.Fatalf("ShiftMonth(%d,%d,%d) = %d-%d, want %d-%d", c.y, c.m, c.d, y, m, c.wy, c.wm)
		}
	}
}

func TestMostUsedSport(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -3)
	old := now.AddDate(0, -2, 0)

	if got := MostUsedSport(Ledger{}, now, DefaultSport); got != "NBA" {
		t.Fatalf("empty ledger should fall back, got %q", got)
	}

	l := Ledger{
		"NBA": {tx(1, 100, "NBA", old), tx(2, 100, "NBA", old), tx(3, 100, "NBA", old)},
		"UFC": {tx(4, 100, "UFC", recent)},
	}
	if got := MostUsedSport(l, now, DefaultSport); got != "UFC" {
		t.Fatalf("only recent activity counts, got %q", got)
	}

	l["MLB"] = []Transaction{tx(5, 100, "MLB", recent)}
	if got := MostUsedSport(l, now, DefaultSport); got != "MLB" {
		t.Fatalf("ties go to catalogue order, got %q", got)
	}
}
