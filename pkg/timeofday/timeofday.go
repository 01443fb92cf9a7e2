package timeofday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MinutesPerDay = 24 * 60
	SecondsPerDay = MinutesPerDay * 60
)

// Unset is the sentinel for "no time entered". It shares its value with midnight,
// so callers must check IsUnset before computing with a time.
const Unset TimeOfDay = 0

var ErrInvalidTime = fmt.Errorf("invalid time of day")

// TimeOfDay is a clock value with minute resolution, stored as minutes since midnight.
type TimeOfDay int

// New builds a TimeOfDay from hours and minutes, wrapping into [0, 24h).
func New(hours, minutes int) TimeOfDay {
	return FromMinutes(hours*60 + minutes)
}

// FromMinutes normalizes any minute count into [0, 24h).
func FromMinutes(minutes int) TimeOfDay {
	m := minutes % MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return TimeOfDay(m)
}

// FromTime takes the wall clock hour and minute of t.
func FromTime(t time.Time) TimeOfDay {
	return New(t.Hour(), t.Minute())
}

func (t TimeOfDay) IsUnset() bool {
	return t == Unset
}

func (t TimeOfDay) Minutes() int {
	return int(t)
}

func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// String renders the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// SecondsBetween returns b - a in seconds. There is no wraparound: an end before
// the start yields a negative value.
func SecondsBetween(a, b TimeOfDay) int {
	return (int(b) - int(a)) * 60
}

// AddSeconds moves t by s seconds, wrapping at the 24h boundary like a clock face.
// Sub-minute remainders are truncated.
func AddSeconds(t TimeOfDay, s int) TimeOfDay {
	total := (int(t)*60 + s) % SecondsPerDay
	if total < 0 {
		total += SecondsPerDay
	}
	return TimeOfDay(total / 60)
}

// Step moves the minute field of t by delta. With hourWrap the overflow carries
// into the hour; without it the minute field wraps inside the current hour.
func Step(t TimeOfDay, delta int, hourWrap bool) TimeOfDay {
	if hourWrap {
		return FromMinutes(int(t) + delta)
	}
	minute := (t.Minute() + delta) % 60
	if minute < 0 {
		minute += 60
	}
	return New(t.Hour(), minute)
}

// Parse accepts "H:MM" and "HH:MM". An empty string parses as Unset.
func Parse(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unset, nil
	}
	hStr, mStr, found := strings.Cut(s, ":")
	if !found {
		return Unset, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(hStr)
	if err != nil || h < 0 || h > 23 {
		return Unset, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(mStr)
	if err != nil || m < 0 || m > 59 || len(mStr) != 2 {
		return Unset, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return New(h, m), nil
}
