package http

import (
	"betlog/internal/core"
)

// Template view models. Amounts are pre-formatted so templates stay free of
// arithmetic.
type (
	sportView struct {
		Name     string
		Emoji    string
		Selected bool
	}

	totalView struct {
		Sport    string
		Emoji    string
		Amount   string
		IsProfit bool
		Label    string
		Count    int
	}

	indexView struct {
		Sports []sportView
		Total  totalView
		Year   int
		Month  int
	}

	dayView struct {
		Number   int
		InMonth  bool
		HasTx    bool
		Positive bool
		Amount   string
	}

	calendarView struct {
		Sport     string
		Year      int
		Month     int
		Title     string
		Total     string
		Positive  bool
		Days      []dayView
		PrevYear  int
		PrevMonth int
		NextYear  int
		NextMonth int
	}
)

func sportMenu(selected string) []sportView {
	out := make([]sportView, 0, len(core.DefaultSports))
	for _, sp := range core.DefaultSports {
		out = append(out, sportView{Name: sp.Name, Emoji: sp.Emoji, Selected: sp.Name == selected})
	}
	return out
}

func newTotalView(s core.Summary) totalView {
	v := totalView{
		Sport:    s.Sport,
		Amount:   s.Total.String(),
		IsProfit: s.IsProfit,
		Label:    "Loss",
		Count:    s.Count,
	}
	if s.IsProfit {
		v.Label = "Profit"
	}
	if sp, ok := core.LookupSport(s.Sport); ok {
		v.Emoji = sp.Emoji
	}
	return v
}

func newCalendarView(sport string, c core.CalendarMonth) calendarView {
	v := calendarView{
		Sport:     sport,
		Year:      c.Year,
		Month:     c.Month,
		Title:     c.Title,
		Total:     c.Total.String(),
		Positive:  c.Total.Cents >= 0,
		Days:      make([]dayView, 0, len(c.Days)),
		PrevYear:  c.PrevYear,
		PrevMonth: c.PrevMonth,
		NextYear:  c.NextYear,
		NextMonth: c.NextMonth,
	}
	for _, d := range c.Days {
		dv := dayView{Number: d.DayNumber, InMonth: d.InMonth, HasTx: d.HasTransactions}
		if d.HasTransactions {
			dv.Positive = d.Total.Cents >= 0
			dv.Amount = d.Total.Whole()
		}
		v.Days = append(v.Days, dv)
	}
	return v
}

// JSON shapes for the /api routes. Transactions use the same field names
// as the stored document.
type (
	transactionJSON struct {
		ID     int64   `json:"id"`
		Amount float64 `json:"amount"`
		Sport  string  `json:"sport"`
		Type   string  `json:"type"`
		Date   string  `json:"date"`
	}

	summaryJSON struct {
		Sport    string  `json:"sport,omitempty"`
		Total    float64 `json:"total"`
		Display  string  `json:"display"`
		Label    string  `json:"label"`
		IsProfit bool    `json:"is_profit"`
		Count    int     `json:"count"`
		Wins     int     `json:"wins"`
		Losses   int     `json:"losses"`
	}

	monthRef struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}

	calendarDayJSON struct {
		Date            string  `json:"date"`
		Day             int     `json:"day"`
		InMonth         bool    `json:"in_month"`
		Total           float64 `json:"total"`
		HasTransactions bool    `json:"has_transactions"`
	}

	calendarJSON struct {
		Sport string            `json:"sport,omitempty"`
		Year  int               `json:"year"`
		Month int               `json:"month"`
		Title string            `json:"title"`
		Total float64           `json:"total"`
		Days  []calendarDayJSON `json:"days"`
		Prev  monthRef          `json:"prev"`
		Next  monthRef          `json:"next"`
	}

	sportJSON struct {
		Name  string `json:"name"`
		Emoji string `json:"emoji"`
	}
)

const jsonDateLayout = "2006-01-02T15:04:05.000Z07:00"

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:     t.ID,
		Amount: t.Amount.Float(),
		Sport:  t.Sport,
		Type:   string(t.Kind),
		Date:   t.Date.UTC().Format(jsonDateLayout),
	}
}

func toSummaryJSON(s core.Summary) summaryJSON {
	tv := newTotalView(s)
	return summaryJSON{
		Sport:    s.Sport,
		Total:    s.Total.Float(),
		Display:  tv.Amount,
		Label:    tv.Label,
		IsProfit: s.IsProfit,
		Count:    s.Count,
		Wins:     s.Wins,
		Losses:   s.Losses,
	}
}

func toCalendarJSON(sport string, c core.CalendarMonth) calendarJSON {
	out := calendarJSON{
		Sport: sport,
		Year:  c.Year,
		Month: c.Month,
		Title: c.Title,
		Total: c.Total.Float(),
		Days:  make([]calendarDayJSON, 0, len(c.Days)),
		Prev:  monthRef{Year: c.PrevYear, Month: c.PrevMonth},
		Next:  monthRef{Year: c.NextYear, Month: c.NextMonth},
	}
	for _, d := range c.Days {
		out.Days = append(out.Days, calendarDayJSON{
			Date:            d.Date.Format("2006-01-02"),
			Day:             d.DayNumber,
			InMonth:         d.InMonth,
			Total:           d.Total.Float(),
			HasTransactions: d.HasTransactions,
		})
	}
	return out
}
