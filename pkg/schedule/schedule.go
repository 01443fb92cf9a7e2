package schedule

import (
	"time"

	"github.com/klokku/flextime/internal/config"
)

// DaySchedule is the plan for one weekday. A zero PlannedMinutes marks a non-working day.
type DaySchedule struct {
	PlannedMinutes    int
	LunchBreakMinutes int
	ForecastEndTime   bool
	HourWrap          bool
}

func (d DaySchedule) Applies() bool {
	return d.PlannedMinutes > 0
}

func (d DaySchedule) PlannedSeconds() int {
	return d.PlannedMinutes * 60
}

type OfficePolicy struct {
	// MonthlyThreshold is the on-site percentage below which the month is flagged.
	MonthlyThreshold int
	// DailyThreshold is compared against a day's office share after a detail breakdown is edited.
	DailyThreshold int
	AutoClassify   bool
}

type WeekSchedule struct {
	// days is indexed by time.Weekday, Sunday first.
	days   [7]DaySchedule
	Office OfficePolicy
}

func (w WeekSchedule) For(weekday time.Weekday) DaySchedule {
	return w.days[weekday]
}

func (w WeekSchedule) ForDate(date time.Time) DaySchedule {
	return w.For(date.Weekday())
}

// FromSettings builds the schedule from the settings file layout, where hours[1] is
// Monday and hours[7] is Sunday.
func FromSettings(s config.Settings) WeekSchedule {
	var w WeekSchedule
	for isoDay := 1; isoDay <= 7 && isoDay < len(s.Hours); isoDay++ {
		w.days[time.Weekday(isoDay%7)] = DaySchedule{
			PlannedMinutes:    s.Hours[isoDay],
			LunchBreakMinutes: s.LunchBreak,
			ForecastEndTime:   s.ForecastEndTimes,
			HourWrap:          s.ConnectHoursAndMinutes,
		}
	}
	w.Office = OfficePolicy{
		MonthlyThreshold: s.OfficePercentage,
		DailyThreshold:   s.DailyOfficePercentage,
		AutoClassify:     s.DailyOfficePercentageAutoCalc,
	}
	return w
}
