/*
aggregate.go - Read-only summaries over time entries

PURPOSE:
  Groups entries by day, ISO week, month, client or employee and produces
  running totals used for bulk-approval decisions and reports. Nothing is
  cached; every call recomputes from the entries it is given and returns
  freshly built values.

STATUS PARTITION:
  Pending, Approved and Rejected partition Total exactly:
    Pending             -> all hours to Pending
    Approved            -> all hours to Approved
    Rejected            -> all hours to Rejected
    ApprovedNormalOnly  -> normal portion to Approved,
                           overtime portion to Rejected

NORMAL / OVERTIME:
  Every entry contributes its OvertimeSplitter split. Legacy entries
  without a time range count entirely as normal.
*/
package timesheet

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type GroupBy string

const (
	GroupByDay      GroupBy = "day"
	GroupByWeek     GroupBy = "week"
	GroupByMonth    GroupBy = "month"
	GroupByClient   GroupBy = "client"
	GroupByEmployee GroupBy = "employee"
)

// ParseGroupBy validates a grouping key.
func ParseGroupBy(s string) (GroupBy, bool) {
	switch g := GroupBy(s); g {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByClient, GroupByEmployee:
		return g, true
	}
	return "", false
}

// Totals are hour sums for a group of entries.
type Totals struct {
	Total    decimal.Decimal
	Normal   decimal.Decimal
	Overtime decimal.Decimal
	Approved decimal.Decimal
	Rejected decimal.Decimal
	Pending  decimal.Decimal
	Entries  int
}

func zeroTotals() Totals {
	return Totals{
		Total: decimal.Zero, Normal: decimal.Zero, Overtime: decimal.Zero,
		Approved: decimal.Zero, Rejected: decimal.Zero, Pending: decimal.Zero,
	}
}

// add folds one entry into the totals.
func (t *Totals) add(e TimeEntry, schedule ScheduleConfig) {
	ot := e.overtimeHours(schedule)
	normal := e.Hours.Sub(ot)

	t.Entries++
	t.Total = t.Total.Add(e.Hours)
	t.Normal = t.Normal.Add(normal)
	t.Overtime = t.Overtime.Add(ot)

	switch e.Status {
	case StatusApproved:
		t.Approved = t.Approved.Add(e.Hours)
	case StatusRejected:
		t.Rejected = t.Rejected.Add(e.Hours)
	case StatusApprovedNormalOnly:
		t.Approved = t.Approved.Add(normal)
		t.Rejected = t.Rejected.Add(ot)
	default:
		t.Pending = t.Pending.Add(e.Hours)
	}
}

// Payable is the approved portion, the hours that count toward payroll.
func (t Totals) Payable() decimal.Decimal { return t.Approved }

// Summary is one group's totals. Start/End are set for date groupings.
type Summary struct {
	Key      string
	Start    time.Time
	End      time.Time
	Totals   Totals
	ByClient map[string]decimal.Decimal
}

// TotalsOf sums entries without grouping.
func TotalsOf(entries []TimeEntry, schedule ScheduleConfig) Totals {
	t := zeroTotals()
	for _, e := range entries {
		t.add(e, schedule)
	}
	return t
}

// Summarize groups entries and returns one summary per group, ordered by
// key (chronologically for date groupings).
func Summarize(entries []TimeEntry, by GroupBy, schedule ScheduleConfig) []Summary {
	groups := make(map[string]*Summary)
	for _, e := range entries {
		key, period := groupKey(e, by)
		s, ok := groups[key]
		if !ok {
			s = &Summary{
				Key:      key,
				Start:    period.Start,
				End:      period.End,
				Totals:   zeroTotals(),
				ByClient: make(map[string]decimal.Decimal),
			}
			groups[key] = s
		}
		s.Totals.add(e, schedule)
		s.ByClient[e.ClientKey] = s.ByClient[e.ClientKey].Add(e.Hours)
	}

	out := make([]Summary, 0, len(groups))
	for _, s := range groups {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func groupKey(e TimeEntry, by GroupBy) (string, Period) {
	switch by {
	case GroupByWeek:
		return ISOWeekLabel(e.WorkDate), WeekPeriod(e.WorkDate)
	case GroupByMonth:
		return e.WorkDate.Format("2006-01"), MonthPeriod(e.WorkDate)
	case GroupByClient:
		return e.ClientKey, Period{}
	case GroupByEmployee:
		return strconv.FormatInt(int64(e.EmployeeID), 10), Period{}
	default:
		return e.WorkDate.Format(time.DateOnly), DayPeriod(e.WorkDate)
	}
}

// =============================================================================
// WEEKLY REPORT
// =============================================================================

// DailySummary is one day of a weekly report.
type DailySummary struct {
	Date   time.Time
	Totals Totals
}

// WeeklySummary covers Monday to Sunday with a row for every day, worked or not.
type WeeklySummary struct {
	Period   Period
	Label    string
	Totals   Totals
	Days     []DailySummary
	ByClient map[string]decimal.Decimal
}

// WeekReport builds the weekly report for the week containing day.
func WeekReport(entries []TimeEntry, day time.Time, schedule ScheduleConfig) WeeklySummary {
	p := WeekPeriod(day)
	ws := WeeklySummary{
		Period:   p,
		Label:    ISOWeekLabel(p.Start),
		Totals:   zeroTotals(),
		ByClient: make(map[string]decimal.Decimal),
	}
	days := p.Days()
	ws.Days = make([]DailySummary, len(days))
	for i, d := range days {
		ws.Days[i] = DailySummary{Date: d, Totals: zeroTotals()}
	}

	for _, e := range entries {
		if !p.Contains(e.WorkDate) {
			continue
		}
		idx := int(DateOf(e.WorkDate).Sub(p.Start).Hours() / 24)
		ws.Days[idx].Totals.add(e, schedule)
		ws.Totals.add(e, schedule)
		ws.ByClient[e.ClientKey] = ws.ByClient[e.ClientKey].Add(e.Hours)
	}
	return ws
}

// =============================================================================
// MONTHLY REPORT
// =============================================================================

// MonthlySummary covers a calendar month. Weeks holds the ISO weeks that
// had entries in the month, counting only the days inside it.
type MonthlySummary struct {
	Period   Period
	Label    string
	Totals   Totals
	Weeks    []Summary
	ByClient map[string]decimal.Decimal
}

// MonthReport builds the report for the month containing day.
func MonthReport(entries []TimeEntry, day time.Time, schedule ScheduleConfig) MonthlySummary {
	p := MonthPeriod(day)
	inMonth := InPeriod(entries, p)

	ms := MonthlySummary{
		Period:   p,
		Label:    p.Start.Format("2006-01"),
		Totals:   TotalsOf(inMonth, schedule),
		Weeks:    Summarize(inMonth, GroupByWeek, schedule),
		ByClient: make(map[string]decimal.Decimal),
	}
	for _, e := range inMonth {
		ms.ByClient[e.ClientKey] = ms.ByClient[e.ClientKey].Add(e.Hours)
	}
	return ms
}

// InPeriod filters entries whose work date falls in p.
func InPeriod(entries []TimeEntry, p Period) []TimeEntry {
	var out []TimeEntry
	for _, e := range entries {
		if p.Contains(e.WorkDate) {
			out = append(out, e)
		}
	}
	return out
}

// PendingIn returns the pending entries in p, the candidates for a bulk action.
func PendingIn(entries []TimeEntry, p Period) []TimeEntry {
	var out []TimeEntry
	for _, e := range InPeriod(entries, p) {
		if e.Status == StatusPending {
			out = append(out, e)
		}
	}
	return out
}
