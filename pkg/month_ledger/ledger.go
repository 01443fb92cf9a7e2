package month_ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/klokku/flextime/pkg/day"
	"github.com/klokku/flextime/pkg/schedule"
	"github.com/klokku/flextime/pkg/timeofday"
)

var ErrDayOutOfRange = errors.New("day is out of range for the month")

// MonthLedger holds one record per calendar day of a month. Days[0] is the 1st.
type MonthLedger struct {
	Year  int
	Month time.Month
	Days  []day.Record
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func NewMonthLedger(year int, month time.Month) MonthLedger {
	days := make([]day.Record, DaysIn(year, month))
	for i := range days {
		days[i] = day.FreshRecord()
	}
	return MonthLedger{Year: year, Month: month, Days: days}
}

// Label names the month the way its file is named, e.g. "October 2026".
func Label(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}

func (l MonthLedger) Label() string {
	return Label(l.Year, l.Month)
}

func (l MonthLedger) Date(index int, loc *time.Location) time.Time {
	return time.Date(l.Year, l.Month, index+1, 0, 0, 0, 0, loc)
}

func (l MonthLedger) Day(index int) (day.Record, error) {
	if index < 0 || index >= len(l.Days) {
		return day.Record{}, fmt.Errorf("%w: %d in %s", ErrDayOutOfRange, index+1, l.Label())
	}
	return l.Days[index], nil
}

func (l *MonthLedger) SetDay(index int, r day.Record) error {
	if index < 0 || index >= len(l.Days) {
		return fmt.Errorf("%w: %d in %s", ErrDayOutOfRange, index+1, l.Label())
	}
	l.Days[index] = r
	return nil
}

// Clone returns a copy that shares no memory with l.
func (l MonthLedger) Clone() MonthLedger {
	days := make([]day.Record, len(l.Days))
	copy(days, l.Days)
	return MonthLedger{Year: l.Year, Month: l.Month, Days: days}
}

func (l MonthLedger) IsCurrentMonth(today time.Time) bool {
	return l.Year == today.Year() && l.Month == today.Month()
}

type Status int

const (
	Past Status = iota
	Today
	Future
)

func (s Status) String() string {
	switch s {
	case Today:
		return "today"
	case Future:
		return "future"
	default:
		return "past"
	}
}

type DayView struct {
	Index    int
	Date     time.Time
	Schedule schedule.DaySchedule
	Record   day.Record
	Result   day.Result
	Status   Status
}

type Summary struct {
	Year  int
	Month time.Month
	Label string
	Days  []DayView

	TotalWorkedSeconds  int
	TotalPlannedSeconds int
	FlexBalanceSeconds  int

	WorkingDays          int
	OfficeDays           int
	OnSitePercentage     float64
	OnSiteBelowThreshold bool

	TotalText   string
	BalanceText string
	OnSiteText  string
}

// Summarize runs every day of the month through the accountant and adds up the results.
// Only computed days count towards the totals. The on-site share counts computed days that
// are not vacation days, and an office day is one without the home office flag.
func (l MonthLedger) Summarize(week schedule.WeekSchedule, today time.Time) Summary {
	loc := today.Location()
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	summary := Summary{
		Year:  l.Year,
		Month: l.Month,
		Label: l.Label(),
		Days:  make([]DayView, 0, len(l.Days)),
	}

	for i, record := range l.Days {
		date := l.Date(i, loc)
		daySchedule := week.ForDate(date)
		result := day.Compute(daySchedule, record, day.Context{Date: date, Today: today})

		status := Past
		switch {
		case date.Equal(todayDate):
			status = Today
		case date.After(todayDate):
			status = Future
		}

		summary.Days = append(summary.Days, DayView{
			Index:    i,
			Date:     date,
			Schedule: daySchedule,
			Record:   record,
			Result:   result,
			Status:   status,
		})

		if !result.Computed() {
			continue
		}
		summary.TotalWorkedSeconds += result.WorkedSeconds
		summary.TotalPlannedSeconds += result.PlannedSeconds
		summary.FlexBalanceSeconds += result.FlexContributionSeconds

		if record.Vacation {
			continue
		}
		summary.WorkingDays++
		if !record.HomeOffice {
			summary.OfficeDays++
		}
	}

	if summary.WorkingDays > 0 {
		summary.OnSitePercentage = float64(summary.OfficeDays) / float64(summary.WorkingDays) * 100
		summary.OnSiteBelowThreshold = summary.OnSitePercentage < float64(week.Office.MonthlyThreshold)
		summary.OnSiteText = fmt.Sprintf("%.0f%%", summary.OnSitePercentage)
	}
	summary.TotalText = timeofday.FormatDiff(summary.TotalWorkedSeconds) + "/" + timeofday.FormatDiff(summary.TotalPlannedSeconds)
	summary.BalanceText = "ZA: " + timeofday.FormatDiff(summary.FlexBalanceSeconds)
	return summary
}
