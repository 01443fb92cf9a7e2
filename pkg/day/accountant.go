package day

import (
	"time"

	"github.com/klokku/flextime/pkg/schedule"
	"github.com/klokku/flextime/pkg/timeofday"
)

// OvertimeThresholdSeconds marks worked time that is shown as a warning.
const OvertimeThresholdSeconds = 10 * 3600

// Context places a day in time: the calendar date of the record and today's date.
type Context struct {
	Date  time.Time
	Today time.Time
}

// countsTowardFlex is true for every day of a month other than the current one, and
// for days up to and including today in the current month.
func (c Context) countsTowardFlex() bool {
	if c.Date.Year() == c.Today.Year() && c.Date.Month() == c.Today.Month() {
		return c.Date.Day() <= c.Today.Day()
	}
	return true
}

type Result struct {
	// Skipped days are non-working days that take no part in any total.
	Skipped bool
	// Excluded days are plain vacation days: visible but not computed.
	Excluded bool

	PlannedSeconds          int
	WorkedSeconds           int
	DiffSeconds             int
	FlexContributionSeconds int
	Overtime                bool

	EffectiveStart  timeofday.TimeOfDay
	EffectiveEnd    timeofday.TimeOfDay
	ForecastApplied bool

	DiffText   string
	WorkedText string
}

// Computed is true when the day contributes to the monthly totals.
func (r Result) Computed() bool {
	return !r.Skipped && !r.Excluded
}

// ForecastEnd is the end time implied by the start time and the planned duration.
func ForecastEnd(s schedule.DaySchedule, r Record) timeofday.TimeOfDay {
	seconds := s.PlannedSeconds()
	if r.LunchBreak {
		seconds += s.LunchBreakMinutes * 60
	}
	return timeofday.AddSeconds(r.EffectiveStart(), seconds)
}

// Compute turns one day's record into worked time and its flex delta against the schedule.
// It never mutates the record; a forecast end time only appears in the result.
func Compute(s schedule.DaySchedule, r Record, in Context) Result {
	if !s.Applies() && !(r.Vacation && r.ZA) {
		return Result{Skipped: true}
	}
	if r.Vacation && !r.ZA {
		return Result{Excluded: true}
	}

	res := Result{PlannedSeconds: s.PlannedSeconds()}
	start, end := r.EffectiveStart(), r.EffectiveEnd()
	if s.ForecastEndTime && end.IsUnset() && !start.IsUnset() {
		end = ForecastEnd(s, r)
		res.ForecastApplied = true
	}
	res.EffectiveStart = start
	res.EffectiveEnd = end

	lunch := 0
	if r.LunchBreak && !end.IsUnset() {
		lunch = s.LunchBreakMinutes * 60
	}

	res.DiffSeconds = timeofday.SecondsBetween(timeofday.AddSeconds(start, s.PlannedSeconds()), end) - lunch
	if !start.IsUnset() && !end.IsUnset() {
		res.WorkedSeconds = timeofday.SecondsBetween(start, end) - lunch
		res.WorkedText = timeofday.FormatDayTotal(res.WorkedSeconds)
	}
	res.Overtime = res.WorkedSeconds > OvertimeThresholdSeconds

	if in.countsTowardFlex() {
		res.FlexContributionSeconds = res.DiffSeconds
	}
	if res.DiffSeconds != 0 {
		res.DiffText = timeofday.FormatDiff(res.DiffSeconds)
	}
	return res
}

// ClassifyHomeOffice decides the home office flag from a breakdown: the day counts as
// home office when its office share is at or below thresholdPercent. ok is false for an
// empty breakdown.
func ClassifyHomeOffice(d Detail, thresholdPercent int) (homeOffice bool, ok bool) {
	total := d.Total()
	if total == 0 {
		return false, false
	}
	office := total - d.HomeOfficeSeconds()
	officePercent := float64(office) / float64(total) * 100
	return officePercent <= float64(thresholdPercent), true
}
