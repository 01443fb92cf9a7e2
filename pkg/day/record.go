package day

import (
	"fmt"

	"github.com/klokku/flextime/pkg/schedule"
	"github.com/klokku/flextime/pkg/timeofday"
)

var (
	ErrNotEditable   = fmt.Errorf("day times are not editable")
	ErrInvalidDetail = fmt.Errorf("invalid detail breakdown")
)

type ActivityType int

const (
	HomeOffice ActivityType = iota
	Office
	DoctorAppointment
	SickLeave
)

func (a ActivityType) String() string {
	switch a {
	case HomeOffice:
		return "Home Office"
	case Office:
		return "Office"
	case DoctorAppointment:
		return "Doctor Appointment"
	case SickLeave:
		return "Sick Leave"
	default:
		return fmt.Sprintf("ActivityType(%d)", int(a))
	}
}

func (a ActivityType) Valid() bool {
	return a >= HomeOffice && a <= SickLeave
}

// Next cycles through the activity types, wrapping after the last one.
func (a ActivityType) Next() ActivityType {
	return (a + 1) % (SickLeave + 1)
}

const DetailSlots = 10

// detailAnchor is where the aggregate of a detail breakdown starts.
var detailAnchor = timeofday.New(7, 0)

type Interval struct {
	Start    timeofday.TimeOfDay
	End      timeofday.TimeOfDay
	Activity ActivityType
}

func (i Interval) Seconds() int {
	return timeofday.SecondsBetween(i.Start, i.End)
}

// Detail is the optional sub-division of a day. Start and End hold the aggregate
// that is mirrored into the day's own start and end while the breakdown is in use.
type Detail struct {
	Start     timeofday.TimeOfDay
	End       timeofday.TimeOfDay
	Intervals [DetailSlots]Interval
}

func (d Detail) Total() int {
	total := 0
	for _, i := range d.Intervals {
		total += i.Seconds()
	}
	return total
}

func (d Detail) HomeOfficeSeconds() int {
	total := 0
	for _, i := range d.Intervals {
		if i.Activity == HomeOffice {
			total += i.Seconds()
		}
	}
	return total
}

type FillState int

const (
	Unset FillState = iota
	PartiallySet
	FullySet
)

func (f FillState) String() string {
	switch f {
	case PartiallySet:
		return "partially set"
	case FullySet:
		return "fully set"
	default:
		return "unset"
	}
}

// Record is the accounting unit for one calendar day.
type Record struct {
	Start      timeofday.TimeOfDay
	End        timeofday.TimeOfDay
	Vacation   bool
	ZA         bool
	LunchBreak bool
	HomeOffice bool
	Detail     Detail
}

// NewRecord returns a record with the defaults applied to fields that older month
// files do not carry: lunch break and home office on, empty detail, no ZA.
func NewRecord() Record {
	return Record{
		LunchBreak: true,
		HomeOffice: true,
	}
}

// FreshRecord is the record for a day in a month that has never been saved.
func FreshRecord() Record {
	return Record{
		LunchBreak: true,
	}
}

// IsLocked reports whether a detail breakdown drives the day's times.
func (r Record) IsLocked() bool {
	return !r.Detail.Start.IsUnset() && !r.Detail.End.IsUnset()
}

// Editable reports whether start and end may be changed directly.
func (r Record) Editable() bool {
	return !r.IsLocked() && !(r.Vacation && r.ZA)
}

func (r Record) EffectiveStart() timeofday.TimeOfDay {
	if r.IsLocked() {
		return r.Detail.Start
	}
	return r.Start
}

func (r Record) EffectiveEnd() timeofday.TimeOfDay {
	if r.IsLocked() {
		return r.Detail.End
	}
	return r.End
}

func (r Record) FillState() FillState {
	start, end := r.EffectiveStart(), r.EffectiveEnd()
	switch {
	case start.IsUnset():
		return Unset
	case end.IsUnset():
		return PartiallySet
	default:
		return FullySet
	}
}

// SetVacation toggles vacation. ZA only exists on vacation days, so clearing one clears both.
func (r *Record) SetVacation(vacation bool) {
	r.Vacation = vacation
	if !vacation {
		r.ZA = false
	}
}

// SetZA marks a vacation day as charged against the flex balance.
func (r *Record) SetZA(za bool) {
	r.ZA = za
	if za {
		r.Vacation = true
	}
}

func (r *Record) SetStart(t timeofday.TimeOfDay) error {
	if !r.Editable() {
		return ErrNotEditable
	}
	r.Start = t
	return nil
}

func (r *Record) SetEnd(t timeofday.TimeOfDay) error {
	if !r.Editable() {
		return ErrNotEditable
	}
	r.End = t
	return nil
}

// Stamp writes now into start when start is unset, otherwise into end.
func (r *Record) Stamp(now timeofday.TimeOfDay) error {
	if r.Start.IsUnset() {
		return r.SetStart(now)
	}
	return r.SetEnd(now)
}

// CheckDetail rejects unknown activities and a breakdown whose aggregate, anchored
// at 07:00, would reach midnight. Such an end reads as unset and unlocks the day.
func CheckDetail(intervals [DetailSlots]Interval) error {
	for i, interval := range intervals {
		if !interval.Activity.Valid() {
			return fmt.Errorf("%w: interval %d has unknown activity %d", ErrInvalidDetail, i+1, interval.Activity)
		}
	}
	total := Detail{Intervals: intervals}.Total()
	end := detailAnchor.Minutes()*60 + total
	if total != 0 && (end <= 0 || end >= timeofday.SecondsPerDay) {
		return fmt.Errorf("%w: total of %s does not fit between %s and midnight",
			ErrInvalidDetail, timeofday.FormatDayTotal(total), detailAnchor)
	}
	return nil
}

// ApplyDetail stores a new breakdown and recomputes its aggregate. With auto
// classification enabled, a non-empty breakdown also decides the home office flag.
// A breakdown rejected by CheckDetail leaves the record unchanged.
func (r *Record) ApplyDetail(intervals [DetailSlots]Interval, policy schedule.OfficePolicy) error {
	if err := CheckDetail(intervals); err != nil {
		return err
	}
	r.Detail.Intervals = intervals
	total := r.Detail.Total()
	if total != 0 {
		r.Detail.Start = detailAnchor
		r.Detail.End = timeofday.AddSeconds(detailAnchor, total)
	} else {
		r.Detail.Start = timeofday.Unset
		r.Detail.End = timeofday.Unset
	}

	if !policy.AutoClassify {
		return nil
	}
	if homeOffice, ok := ClassifyHomeOffice(r.Detail, policy.DailyThreshold); ok {
		r.HomeOffice = homeOffice
	}
	return nil
}

// ClearDetail drops the breakdown and makes the day's times editable again.
func (r *Record) ClearDetail() {
	r.Detail = Detail{}
}
