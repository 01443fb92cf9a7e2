package timeofday

import "fmt"

// FormatDiff renders a signed duration in seconds as "H:MM" or "-H:MM". Hours are not
// capped at 24, so it also serves monthly balances.
func FormatDiff(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%d:%02d", sign, seconds/3600, seconds%3600/60)
}

// FormatDayTotal renders a day's worked time as "HH:MM".
func FormatDayTotal(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/3600, seconds%3600/60)
}

// FormatClock renders a running timer as "H:MM:SS".
func FormatClock(seconds float64) string {
	s := int(seconds)
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
}
